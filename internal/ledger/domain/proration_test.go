package domain_test

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/storagedesk/internal/ledger/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestComputeProRatedAmount(t *testing.T) {
	cases := []struct {
		name  string
		price string
		start time.Time
		end   time.Time
		want  string
	}{
		{"single day", "120", date(2024, 3, 1), date(2024, 3, 1), "3.87"},
		{"three months and a day", "100", date(2024, 1, 1), date(2024, 4, 1), "303.33"},
		{"whole calendar year", "100", date(2024, 1, 1), date(2024, 12, 31), "1200"},
		{"end day before start day", "100", date(2024, 1, 15), date(2024, 2, 10), "86.21"},
		{"remainder cancels month", "100", date(2024, 1, 31), date(2024, 2, 1), "0"},
		{"time of day ignored", "120", time.Date(2024, 3, 1, 23, 0, 0, 0, time.UTC), time.Date(2024, 3, 1, 1, 0, 0, 0, time.UTC), "3.87"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := domain.ComputeProRatedAmount(decimal.RequireFromString(tc.price), tc.start, tc.end)
			require.NoError(t, err)
			assert.True(t, got.Equal(decimal.RequireFromString(tc.want)), "got %s want %s", got, tc.want)
		})
	}
}

func TestComputeProRatedAmountNeverNegative(t *testing.T) {
	// 2023-01-31 to 2023-02-01: one month minus 29/28 of a month.
	got, err := domain.ComputeProRatedAmount(decimal.NewFromInt(100), date(2023, 1, 31), date(2023, 2, 1))
	require.NoError(t, err)
	assert.True(t, got.IsZero(), "got %s", got)
}

func TestComputeProRatedAmountRejectsBadInput(t *testing.T) {
	_, err := domain.ComputeProRatedAmount(decimal.Zero, date(2024, 1, 1), date(2024, 1, 2))
	assert.ErrorIs(t, err, domain.ErrInvalidPrice)

	_, err = domain.ComputeProRatedAmount(decimal.NewFromInt(-5), date(2024, 1, 1), date(2024, 1, 2))
	assert.ErrorIs(t, err, domain.ErrInvalidPrice)

	_, err = domain.ComputeProRatedAmount(decimal.NewFromInt(100), date(2024, 2, 1), date(2024, 1, 31))
	assert.ErrorIs(t, err, domain.ErrInvalidDateRange)

	var verr *domain.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "end_date", verr.Field)
}
