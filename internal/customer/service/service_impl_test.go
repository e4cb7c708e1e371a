package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/storagedesk/internal/clock"
	"github.com/smallbiznis/storagedesk/internal/customer/domain"
	"github.com/smallbiznis/storagedesk/internal/customer/repository"
	"github.com/smallbiznis/storagedesk/internal/customer/service"
	rentaldomain "github.com/smallbiznis/storagedesk/internal/rental/domain"
	"github.com/smallbiznis/storagedesk/pkg/db/dbtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var testNow = time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)

func newService(t *testing.T) (domain.Service, *gorm.DB, *snowflake.Node) {
	t.Helper()
	db := dbtest.Open(t, &domain.Customer{}, &rentaldomain.Rental{})
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	svc := service.New(service.Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Clock: clock.NewFakeClock(testNow),
		Repo:  repository.Provide(),
	})
	return svc, db, node
}

func addRental(t *testing.T, db *gorm.DB, node *snowflake.Node, customerID snowflake.ID, status rentaldomain.RentalStatus) {
	t.Helper()
	require.NoError(t, db.Create(&rentaldomain.Rental{
		ID:          node.Generate(),
		UnitID:      node.Generate(),
		CustomerID:  customerID,
		StartDate:   clock.DateOf(testNow),
		Status:      status,
		TotalAmount: decimal.NewFromInt(50),
		CreatedAt:   testNow,
		UpdatedAt:   testNow,
	}).Error)
}

func TestCreateNormalizesInput(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()

	blank := "   "
	customer, err := svc.Create(ctx, domain.CreateCustomerRequest{
		Name:     "  Dana Scully ",
		Email:    " Dana@Example.COM ",
		Phone:    &blank,
		Metadata: map[string]any{"gate_code": "4411"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Dana Scully", customer.Name)
	assert.Equal(t, "dana@example.com", customer.Email)
	assert.Nil(t, customer.Phone)
	assert.Equal(t, "4411", customer.Metadata["gate_code"])

	_, err = svc.Create(ctx, domain.CreateCustomerRequest{Name: "", Email: "a@b.c"})
	assert.ErrorIs(t, err, domain.ErrInvalidName)

	_, err = svc.Create(ctx, domain.CreateCustomerRequest{Name: "Fox", Email: "not-an-email"})
	assert.ErrorIs(t, err, domain.ErrInvalidEmail)
}

func TestGetCountsActiveRentals(t *testing.T) {
	svc, db, node := newService(t)
	ctx := context.Background()

	customer, err := svc.Create(ctx, domain.CreateCustomerRequest{Name: "Dana", Email: "dana@example.com"})
	require.NoError(t, err)
	addRental(t, db, node, customer.ID, rentaldomain.RentalStatusActive)
	addRental(t, db, node, customer.ID, rentaldomain.RentalStatusActive)
	addRental(t, db, node, customer.ID, rentaldomain.RentalStatusCompleted)

	got, err := svc.GetByID(ctx, domain.GetCustomerRequest{ID: customer.ID.String()})
	require.NoError(t, err)
	assert.Equal(t, 2, got.ActiveRentals)

	_, err = svc.GetByID(ctx, domain.GetCustomerRequest{ID: "abc"})
	assert.ErrorIs(t, err, domain.ErrInvalidID)

	_, err = svc.GetByID(ctx, domain.GetCustomerRequest{ID: node.Generate().String()})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestListSearchesNameAndEmail(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()

	for _, req := range []domain.CreateCustomerRequest{
		{Name: "Dana Scully", Email: "dana@fbi.gov"},
		{Name: "Fox Mulder", Email: "fox@fbi.gov"},
		{Name: "Walter Skinner", Email: "ws@example.com"},
	} {
		_, err := svc.Create(ctx, req)
		require.NoError(t, err)
	}

	resp, err := svc.List(ctx, domain.ListCustomerRequest{Search: "FBI"})
	require.NoError(t, err)
	assert.Len(t, resp.Customers, 2)

	resp, err = svc.List(ctx, domain.ListCustomerRequest{Search: "skinner"})
	require.NoError(t, err)
	require.Len(t, resp.Customers, 1)
	assert.Equal(t, "ws@example.com", resp.Customers[0].Email)

	resp, err = svc.List(ctx, domain.ListCustomerRequest{PageSize: 2})
	require.NoError(t, err)
	assert.Len(t, resp.Customers, 2)
	assert.True(t, resp.HasMore)
}

func TestUpdateClearsOptionalFields(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()

	phone := "555-0100"
	customer, err := svc.Create(ctx, domain.CreateCustomerRequest{Name: "Dana", Email: "dana@example.com", Phone: &phone})
	require.NoError(t, err)
	require.NotNil(t, customer.Phone)

	empty := ""
	name := "Dana K. Scully"
	updated, err := svc.Update(ctx, domain.UpdateCustomerRequest{ID: customer.ID.String(), Name: &name, Phone: &empty})
	require.NoError(t, err)
	assert.Equal(t, "Dana K. Scully", updated.Name)
	assert.Nil(t, updated.Phone)

	bad := "nope"
	_, err = svc.Update(ctx, domain.UpdateCustomerRequest{ID: customer.ID.String(), Email: &bad})
	assert.ErrorIs(t, err, domain.ErrInvalidEmail)
}

func TestDeleteBlockedByAnyRental(t *testing.T) {
	svc, db, node := newService(t)
	ctx := context.Background()

	withHistory, err := svc.Create(ctx, domain.CreateCustomerRequest{Name: "Dana", Email: "dana@example.com"})
	require.NoError(t, err)
	addRental(t, db, node, withHistory.ID, rentaldomain.RentalStatusCompleted)

	err = svc.Delete(ctx, domain.GetCustomerRequest{ID: withHistory.ID.String()})
	assert.ErrorIs(t, err, domain.ErrHasRentals)

	fresh, err := svc.Create(ctx, domain.CreateCustomerRequest{Name: "Fox", Email: "fox@example.com"})
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, domain.GetCustomerRequest{ID: fresh.ID.String()}))

	_, err = svc.GetByID(ctx, domain.GetCustomerRequest{ID: fresh.ID.String()})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
