package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/storagedesk/internal/config"
	ledgerdomain "github.com/smallbiznis/storagedesk/internal/ledger/domain"
	rentaldomain "github.com/smallbiznis/storagedesk/internal/rental/domain"
	unitdomain "github.com/smallbiznis/storagedesk/internal/unit/domain"
	"github.com/smallbiznis/storagedesk/pkg/db/pagination"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func doRequest(t *testing.T, s *testServer, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	s.Engine().ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorPayload {
	t.Helper()
	var resp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.Error
}

func TestCreateBuildingWrapsResponseInDataEnvelope(t *testing.T) {
	s := newTestServer(config.Config{}, nil)

	rec := doRequest(t, s, http.MethodPost, "/api/buildings", map[string]any{
		"name":    "  North Yard ",
		"address": "1 Dock St",
		"floors":  2,
	}, nil)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "North Yard", s.buildings.created.Name)

	var resp struct {
		Data struct {
			Name   string `json:"name"`
			Floors int    `json:"floors"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "North Yard", resp.Data.Name)
	assert.Equal(t, 2, resp.Data.Floors)
}

func TestMalformedJSONIsInvalidRequest(t *testing.T) {
	s := newTestServer(config.Config{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/buildings", bytes.NewBufferString("{"))
	rec := httptest.NewRecorder()
	s.Engine().ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	payload := decodeError(t, rec)
	assert.Equal(t, "validation_error", payload.Type)
	require.Len(t, payload.Errors, 1)
	assert.Equal(t, "invalid_request", payload.Errors[0].Code)
}

func TestDomainValidationSentinelMapsToField(t *testing.T) {
	s := newTestServer(config.Config{}, nil)
	s.units.err = unitdomain.ErrInvalidStatus

	rec := doRequest(t, s, http.MethodPost, "/api/units/20/status", map[string]any{"status": "lost"}, nil)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	payload := decodeError(t, rec)
	require.Len(t, payload.Errors, 1)
	assert.Equal(t, "status", payload.Errors[0].Field)
	assert.Equal(t, "invalid_status", payload.Errors[0].Code)
}

func TestChangeUnitStatusPassesPathAndBody(t *testing.T) {
	s := newTestServer(config.Config{}, nil)

	rec := doRequest(t, s, http.MethodPost, "/api/units/20/status", map[string]any{"status": "maintenance"}, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "20", s.units.statusReq.ID)
	assert.Equal(t, "maintenance", s.units.statusReq.Status)
}

func TestDeleteUnitWithActiveRentalsIsConflict(t *testing.T) {
	s := newTestServer(config.Config{}, nil)
	s.units.err = unitdomain.ErrHasActiveRentals

	rec := doRequest(t, s, http.MethodDelete, "/api/units/20", nil, nil)

	require.Equal(t, http.StatusConflict, rec.Code)
	payload := decodeError(t, rec)
	assert.Equal(t, "conflict", payload.Type)
	assert.Equal(t, "unit has active rentals", payload.Message)
}

func TestDeleteBuildingReturnsNoContent(t *testing.T) {
	s := newTestServer(config.Config{}, nil)

	rec := doRequest(t, s, http.MethodDelete, "/api/buildings/10", nil, nil)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.Bytes())
}

func TestCreateRentalParsesDates(t *testing.T) {
	s := newTestServer(config.Config{}, nil)

	rec := doRequest(t, s, http.MethodPost, "/api/rentals", map[string]any{
		"unit_id":      "20",
		"customer_id":  "40",
		"start_date":   "2024-05-01",
		"end_date":     "2024-07-31T15:00:00Z",
		"total_amount": "300.50",
	}, nil)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), s.rentals.created.StartDate)
	require.NotNil(t, s.rentals.created.EndDate)
	assert.Equal(t, time.Date(2024, 7, 31, 0, 0, 0, 0, time.UTC), *s.rentals.created.EndDate)
	require.NotNil(t, s.rentals.created.TotalAmount)
	assert.True(t, s.rentals.created.TotalAmount.Equal(decimal.RequireFromString("300.50")))
}

func TestCreateRentalRejectsBadStartDate(t *testing.T) {
	s := newTestServer(config.Config{}, nil)

	rec := doRequest(t, s, http.MethodPost, "/api/rentals", map[string]any{
		"unit_id":     "20",
		"customer_id": "40",
		"start_date":  "05/01/2024",
	}, nil)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	payload := decodeError(t, rec)
	require.Len(t, payload.Errors, 1)
	assert.Equal(t, "start_date", payload.Errors[0].Field)
}

func TestLedgerErrorsMapToStatus(t *testing.T) {
	cases := []struct {
		name     string
		err      error
		status   int
		errType  string
		wantCode string
	}{
		{name: "validation", err: ledgerdomain.ErrInvalidDateRange, status: http.StatusBadRequest, errType: "validation_error", wantCode: "invalid_date_range"},
		{name: "unit not found", err: ledgerdomain.ErrUnitNotFound, status: http.StatusNotFound, errType: "not_found"},
		{name: "unit not available", err: ledgerdomain.ErrUnitNotAvailable.WithMessagef("unit %s is rented", "A-1"), status: http.StatusConflict, errType: "conflict"},
		{name: "inconsistency", err: &ledgerdomain.InconsistencyError{
			Operation: ledgerdomain.OperationCreateRental,
			Completed: []string{"insert_rental"},
			Failed:    "update_unit",
			Err:       errors.New("connection reset"),
		}, status: http.StatusConflict, errType: "inconsistent_state"},
		{name: "persistence", err: &ledgerdomain.PersistenceError{Op: "insert", Table: "rentals", Err: errors.New("disk full")}, status: http.StatusInternalServerError, errType: "persistence_error"},
		{name: "unknown", err: errors.New("boom"), status: http.StatusInternalServerError, errType: "internal_error"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := newTestServer(config.Config{}, nil)
			s.rentals.createErr = tc.err

			rec := doRequest(t, s, http.MethodPost, "/api/rentals", map[string]any{
				"unit_id":     "20",
				"customer_id": "40",
				"start_date":  "2024-05-01",
			}, nil)

			require.Equal(t, tc.status, rec.Code)
			payload := decodeError(t, rec)
			assert.Equal(t, tc.errType, payload.Type)
			if tc.wantCode != "" {
				require.Len(t, payload.Errors, 1)
				assert.Equal(t, tc.wantCode, payload.Errors[0].Code)
			}
		})
	}
}

func TestCompleteRentalWithoutBody(t *testing.T) {
	s := newTestServer(config.Config{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/rentals/1234/complete", nil)
	rec := httptest.NewRecorder()
	s.Engine().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.NotNil(t, s.rentals.completed)
	assert.Equal(t, "1234", s.rentals.completed.ID)
	assert.Empty(t, s.rentals.completed.UnitID)
	assert.Nil(t, s.rentals.completed.EndDate)
}

func TestCompleteRentalWithBody(t *testing.T) {
	s := newTestServer(config.Config{}, nil)

	rec := doRequest(t, s, http.MethodPost, "/api/rentals/1234/complete", map[string]any{
		"unit_id":  "20",
		"end_date": "2024-05-31",
	}, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, s.rentals.completed)
	assert.Equal(t, "20", s.rentals.completed.UnitID)
	require.NotNil(t, s.rentals.completed.EndDate)
	assert.Equal(t, time.Date(2024, 5, 31, 0, 0, 0, 0, time.UTC), *s.rentals.completed.EndDate)

	req := httptest.NewRequest(http.MethodPost, "/api/rentals/1234/complete", bytes.NewBufferString("{"))
	bad := httptest.NewRecorder()
	s.Engine().ServeHTTP(bad, req)
	assert.Equal(t, http.StatusBadRequest, bad.Code)
}

func TestReconcileRentalsReportsCount(t *testing.T) {
	s := newTestServer(config.Config{}, nil)
	s.rentals.reconciled = 3

	rec := doRequest(t, s, http.MethodPost, "/api/rentals/reconcile", nil, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"data":{"completed":3}}`, rec.Body.String())
}

func TestRenderRentalStatementServesPDF(t *testing.T) {
	s := newTestServer(config.Config{}, nil)
	s.rentals.statement = rentaldomain.Statement{
		Rental: rentaldomain.Rental{
			ID:           snowflake.ID(30),
			StartDate:    time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
			Status:       rentaldomain.RentalStatusActive,
			TotalAmount:  decimal.NewFromInt(100),
			CustomerName: "Dana",
			UnitNumber:   "A-1",
		},
		TotalPaid: decimal.Zero,
		Balance:   decimal.NewFromInt(100),
		IssuedAt:  time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC),
	}

	rec := doRequest(t, s, http.MethodGet, "/api/rentals/30/statement", nil, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "statement-dana-30.pdf")
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF")))
}

func TestListPaymentsParsesLateFilter(t *testing.T) {
	s := newTestServer(config.Config{}, nil)

	rec := doRequest(t, s, http.MethodGet, "/api/payments?is_late=true&rental_id=30&page_size=5", nil, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, s.payments.listed.IsLate)
	assert.True(t, *s.payments.listed.IsLate)
	assert.Equal(t, "30", s.payments.listed.RentalID)
	assert.Equal(t, 5, s.payments.listed.PageSize)

	rec = doRequest(t, s, http.MethodGet, "/api/payments?is_late=maybe", nil, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMalformedPageTokenIsBadRequest(t *testing.T) {
	s := newTestServer(config.Config{}, nil)
	s.payments.listErr = pagination.ErrInvalidPageToken

	rec := doRequest(t, s, http.MethodGet, "/api/payments?page_token=garbage", nil, nil)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	payload := decodeError(t, rec)
	require.Len(t, payload.Errors, 1)
	assert.Equal(t, "page_token", payload.Errors[0].Field)
	assert.Equal(t, "invalid_page_token", payload.Errors[0].Code)
	assert.Equal(t, "garbage", s.payments.listed.PageToken)
}

func TestGetSettingsReadsLedgerConfig(t *testing.T) {
	ledgerCfg := config.DefaultLedgerConfig()
	ledgerCfg.LateFee.Amount = decimal.RequireFromString("40.50")
	ledgerCfg.LateFee.GraceDays = 3
	s := newTestServer(config.Config{}, config.NewStaticLedgerConfigHolder(ledgerCfg))

	rec := doRequest(t, s, http.MethodGet, "/api/settings", nil, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Data settingsResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Data.LateFee.Amount.Equal(decimal.RequireFromString("40.5")), resp.Data.LateFee.Amount.String())
	assert.Equal(t, 3, resp.Data.LateFee.GraceDays)
	assert.Len(t, resp.Data.UnitSizes, 7)
}

func TestNotFoundSentinelMapsTo404(t *testing.T) {
	s := newTestServer(config.Config{}, nil)
	s.customers.err = errors.Join(errors.New("lookup"), ErrNotFound)

	rec := doRequest(t, s, http.MethodGet, "/api/customers/99", nil, nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTokenRequired(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)
	s := newTestServer(config.Config{AuthTokenHash: string(hash)}, nil)

	rec := doRequest(t, s, http.MethodPost, "/api/rentals/reconcile", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doRequest(t, s, http.MethodPost, "/api/rentals/reconcile", nil, map[string]string{"Authorization": "Bearer wrong"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doRequest(t, s, http.MethodPost, "/api/rentals/reconcile", nil, map[string]string{"Authorization": "Bearer s3cret"})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, s, http.MethodPost, "/api/rentals/reconcile", nil, map[string]string{"X-API-Key": "s3cret"})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestTokenVerifierDisabledWithoutHash(t *testing.T) {
	assert.Nil(t, newTokenVerifier("  "))
	var v *tokenVerifier
	_, ok := v.Verify("")
	assert.True(t, ok)
}

func TestTokenVerifierFingerprint(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)
	v := newTokenVerifier(string(hash))

	first, ok := v.Verify("s3cret")
	require.True(t, ok)
	assert.Len(t, first, 12)

	cached, ok := v.Verify("s3cret")
	require.True(t, ok)
	assert.Equal(t, first, cached)

	_, ok = v.Verify("other")
	assert.False(t, ok)
}
