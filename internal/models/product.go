package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	Code        string          `gorm:"size:50;uniqueIndex;not null" json:"productCode"`
	Name        string          `gorm:"size:150;not null" json:"name"`
	Company     string          `gorm:"size:100" json:"company"`
	Price       decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"price"`
	MRP         decimal.Decimal `gorm:"type:decimal(14,2)" json:"mrp"`
	Weight      decimal.Decimal `gorm:"type:decimal(10,3)" json:"weight"`
	Scheme      decimal.Decimal `gorm:"type:decimal(14,2)" json:"scheme"`
	Stock       int             `gorm:"not null;default:0" json:"stock"`
	CreatedByID uint            `json:"createdBy"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// NormalizeProductCode trims and uppercases a product code.
func NormalizeProductCode(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
