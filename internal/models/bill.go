package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// amounts go over the wire as JSON numbers
	decimal.MarshalJSONWithoutQuotes = true
}

type BillStatus string

const (
	BillUnpaid        BillStatus = "Unpaid"
	BillPartiallyPaid BillStatus = "Partially Paid"
	BillPaid          BillStatus = "Paid"
)

type Bill struct {
	ID             uint            `gorm:"primaryKey" json:"id"`
	BillNo         string          `gorm:"size:50;uniqueIndex;not null" json:"billNo"`
	RetailerID     *uint           `gorm:"index" json:"retailerId"`
	RetailerName   string          `gorm:"size:150;not null;index" json:"retailerName"`
	Amount         decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"amount"`
	DueAmount      decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"dueAmount"`
	CollectionDay  string          `gorm:"size:10" json:"collectionDay"`
	BillDate       time.Time       `json:"billDate"`
	DueDate        *time.Time      `json:"dueDate"`
	Status         BillStatus      `gorm:"size:20;not null;index" json:"status"`
	AssignedToID   *uint           `gorm:"index" json:"assignedToId"`
	AssignedToName string          `gorm:"size:100" json:"assignedToName"`
	AssignedAt     *time.Time      `json:"assignedAt"`
	Collections    []Collection    `gorm:"foreignKey:BillID" json:"collections,omitempty"`
	PaymentDate    *time.Time      `json:"paymentDate"`
	PaymentMethod  string          `gorm:"size:20" json:"paymentMethod"`
	History        string          `gorm:"type:text" json:"history"`
	CreatedByID    uint            `json:"createdById"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

// StatusFor derives the bill status from its total and remaining due.
func StatusFor(amount, due decimal.Decimal) BillStatus {
	switch {
	case !due.IsPositive():
		return BillPaid
	case due.Equal(amount):
		return BillUnpaid
	default:
		return BillPartiallyPaid
	}
}

// DueFromCollected is the remaining due after collected has been received, floored at zero.
func DueFromCollected(amount, collected decimal.Decimal) decimal.Decimal {
	due := amount.Sub(collected)
	if due.IsNegative() {
		return decimal.Zero
	}
	return due
}

// NormalizeBillNo trims and uppercases a bill number.
func NormalizeBillNo(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

func (b *Bill) IsPaid() bool {
	return b.Status == BillPaid
}

// AppendHistory adds one timestamped line to the free-text history log.
func (b *Bill) AppendHistory(at time.Time, format string, args ...any) {
	line := fmt.Sprintf("[%s] %s", at.UTC().Format("2006-01-02 15:04"), fmt.Sprintf(format, args...))
	if b.History == "" {
		b.History = line
		return
	}
	b.History += "\n" + line
}
