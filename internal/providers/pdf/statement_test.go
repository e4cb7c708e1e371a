package pdf

import (
	"bytes"
	"context"
	"io"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	paymentdomain "github.com/smallbiznis/storagedesk/internal/payment/domain"
	rentaldomain "github.com/smallbiznis/storagedesk/internal/rental/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleStatement() rentaldomain.Statement {
	end := time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC)
	return rentaldomain.Statement{
		Rental: rentaldomain.Rental{
			ID:           snowflake.ID(1790000000000000001),
			StartDate:    time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC),
			EndDate:      &end,
			Status:       rentaldomain.RentalStatusActive,
			TotalAmount:  decimal.RequireFromString("360"),
			CustomerName: "Dana Whitfield",
			UnitNumber:   "A-12",
			BuildingName: "North Yard",
		},
		Payments: []paymentdomain.Payment{
			{Amount: decimal.NewFromInt(120), Date: time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC), Method: paymentdomain.MethodCash},
			{Amount: decimal.NewFromInt(120), Date: time.Date(2024, 5, 9, 0, 0, 0, 0, time.UTC), Method: paymentdomain.MethodCreditCard, IsLate: true},
		},
		TotalPaid: decimal.NewFromInt(240),
		Balance:   decimal.NewFromInt(120),
		IssuedAt:  time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC),
	}
}

func TestNewStatementDataFormatsAmounts(t *testing.T) {
	data := NewStatementData("Storagedesk", sampleStatement())

	assert.Equal(t, "1790000000000000001", data.StatementNumber)
	assert.Equal(t, "Apr 1, 2024 - Jun 30, 2024", data.Period)
	assert.Equal(t, "$360.00", data.TotalAmount)
	assert.Equal(t, "$240.00", data.TotalPaid)
	assert.Equal(t, "$120.00", data.Balance)
	require.Len(t, data.Lines, 2)
	assert.Equal(t, "Late payment", data.Lines[1].Description)
	assert.Equal(t, "credit_card", data.Lines[1].Method)
}

func TestGenerateStatementProducesPDF(t *testing.T) {
	reader, err := New().GenerateStatement(context.Background(), NewStatementData("Storagedesk", sampleStatement()))
	require.NoError(t, err)

	body, err := io.ReadAll(reader)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(body, []byte("%PDF")))
}

func TestGenerateStatementRequiresNumber(t *testing.T) {
	_, err := New().GenerateStatement(context.Background(), StatementData{})
	assert.Error(t, err)
}
