package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type PaymentMode string

const (
	PaymentCash         PaymentMode = "cash"
	PaymentCheque       PaymentMode = "cheque"
	PaymentBankTransfer PaymentMode = "bank_transfer"
	PaymentUPI          PaymentMode = "upi"
)

var PaymentModes = []PaymentMode{PaymentCash, PaymentCheque, PaymentBankTransfer, PaymentUPI}

func (m PaymentMode) Valid() bool {
	for _, v := range PaymentModes {
		if m == v {
			return true
		}
	}
	return false
}

// Collection is an append-only payment record against a bill.
type Collection struct {
	ID                uint            `gorm:"primaryKey" json:"id"`
	BillID            uint            `gorm:"index;not null" json:"bill"`
	AmountCollected   decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"amountCollected"`
	PaymentMode       PaymentMode     `gorm:"size:20;not null;index" json:"paymentMode"`
	UPIID             string          `gorm:"size:100" json:"upiId,omitempty"`
	UPITransactionID  string          `gorm:"size:100" json:"upiTransactionId,omitempty"`
	BankName          string          `gorm:"size:100" json:"bankName,omitempty"`
	ChequeNumber      string          `gorm:"size:50" json:"chequeNumber,omitempty"`
	BankTransactionID string          `gorm:"size:100" json:"bankTransactionId,omitempty"`
	CollectedByID     uint            `gorm:"index;not null" json:"collectedBy"`
	CollectedByName   string          `gorm:"size:100" json:"collectedByName"`
	Remarks           string          `gorm:"size:255" json:"remarks,omitempty"`
	CollectedAt       time.Time       `gorm:"index;not null" json:"collectedOn"`
	CreatedAt         time.Time       `json:"createdAt"`
}
