package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

const TableName = "payments"

type Method string

const (
	MethodCreditCard   Method = "credit_card"
	MethodBankTransfer Method = "bank_transfer"
	MethodCash         Method = "cash"
)

func (m Method) Valid() bool {
	switch m {
	case MethodCreditCard, MethodBankTransfer, MethodCash:
		return true
	default:
		return false
	}
}

const (
	DisplayStatusCompleted = "completed"
	DisplayStatusOverdue   = "overdue"
)

type Payment struct {
	ID        snowflake.ID    `json:"id" gorm:"primaryKey"`
	RentalID  snowflake.ID    `json:"rental_id" gorm:"not null;index"`
	Amount    decimal.Decimal `json:"amount" gorm:"type:numeric(12,2);not null"`
	Date      time.Time       `json:"date" gorm:"type:date;not null"`
	Method    Method          `json:"method" gorm:"type:varchar(16);not null"`
	IsLate    bool            `json:"is_late" gorm:"not null;default:false"`
	CreatedAt time.Time       `json:"created_at" gorm:"not null"`

	CustomerName string `json:"customer_name,omitempty" gorm:"->;-:migration"`
	UnitNumber   string `json:"unit_number,omitempty" gorm:"->;-:migration"`
}

func (Payment) TableName() string { return TableName }

// DisplayStatus is how a payment is labelled in listings.
func (p Payment) DisplayStatus() string {
	if p.IsLate {
		return DisplayStatusOverdue
	}
	return DisplayStatusCompleted
}
