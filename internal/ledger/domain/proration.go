package domain

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/storagedesk/internal/clock"
)

// ComputeProRatedAmount charges the monthly price for every whole calendar
// month between the two dates plus the covered share of the end month. Both
// dates are inclusive and only their calendar day is used. When endDate's
// day is earlier than startDate's the remainder is negative and reduces the
// total; the result never drops below zero and is rounded to cents.
func ComputeProRatedAmount(monthlyPrice decimal.Decimal, startDate, endDate time.Time) (decimal.Decimal, error) {
	if !monthlyPrice.IsPositive() {
		return decimal.Zero, ErrInvalidPrice
	}
	start, end := clock.DateOf(startDate), clock.DateOf(endDate)
	if start.After(end) {
		return decimal.Zero, ErrInvalidDateRange
	}

	fullMonths := (end.Year()-start.Year())*12 + int(end.Month()) - int(start.Month())
	daysInEndMonth := time.Date(end.Year(), end.Month()+1, 0, 0, 0, 0, 0, time.UTC).Day()
	remainingDays := end.Day() - start.Day() + 1

	amount := monthlyPrice.Mul(decimal.NewFromInt(int64(fullMonths))).
		Add(monthlyPrice.Mul(decimal.NewFromInt(int64(remainingDays))).Div(decimal.NewFromInt(int64(daysInEndMonth))))
	if amount.IsNegative() {
		amount = decimal.Zero
	}
	return amount.Round(2), nil
}
