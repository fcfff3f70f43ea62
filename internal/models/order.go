package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderConfirmed OrderStatus = "confirmed"
	OrderDelivered OrderStatus = "delivered"
	OrderCancelled OrderStatus = "cancelled"
)

var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderPending:   {OrderConfirmed, OrderCancelled},
	OrderConfirmed: {OrderDelivered, OrderCancelled},
}

// CanTransition reports whether an order may move from s to next.
func (s OrderStatus) CanTransition(next OrderStatus) bool {
	for _, v := range orderTransitions[s] {
		if v == next {
			return true
		}
	}
	return false
}

type Order struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	OrderNo       string          `gorm:"size:50;uniqueIndex;not null" json:"orderNo"`
	RetailerID    uint            `gorm:"index;not null" json:"retailer"`
	RetailerName  string          `gorm:"size:150" json:"retailerName"`
	Status        OrderStatus     `gorm:"size:20;not null;index" json:"status"`
	Items         []OrderItem     `gorm:"foreignKey:OrderID" json:"items"`
	TotalLitres   decimal.Decimal `gorm:"type:decimal(14,3)" json:"totalLitres"`
	TotalSale     decimal.Decimal `gorm:"type:decimal(14,2)" json:"totalSale"`
	Remarks       string          `gorm:"size:255" json:"remarks,omitempty"`
	CreatedByID   uint            `gorm:"index" json:"createdBy"`
	CreatedByName string          `gorm:"size:100" json:"createdByName"`
	OrderDate     time.Time       `json:"orderDate"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

// OrderItem snapshots the product at order time.
type OrderItem struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	OrderID     uint            `gorm:"index;not null" json:"order"`
	ProductID   uint            `gorm:"index;not null" json:"product"`
	ProductCode string          `gorm:"size:50" json:"productCode"`
	ProductName string          `gorm:"size:150" json:"productName"`
	Price       decimal.Decimal `gorm:"type:decimal(14,2)" json:"price"`
	Weight      decimal.Decimal `gorm:"type:decimal(10,3)" json:"weight"`
	Scheme      decimal.Decimal `gorm:"type:decimal(14,2)" json:"scheme"`
	Quantity    int             `gorm:"not null" json:"quantity"`
	NetPrice    decimal.Decimal `gorm:"type:decimal(14,2)" json:"netPrice"`
	TotalLitres decimal.Decimal `gorm:"type:decimal(14,3)" json:"totalLitres"`
	TotalSale   decimal.Decimal `gorm:"type:decimal(14,2)" json:"totalSale"`
}

// NewOrderItem snapshots p and computes the line totals for qty units.
func NewOrderItem(p Product, qty int) OrderItem {
	q := decimal.NewFromInt(int64(qty))
	net := p.Price.Sub(p.Scheme)
	return OrderItem{
		ProductID:   p.ID,
		ProductCode: p.Code,
		ProductName: p.Name,
		Price:       p.Price,
		Weight:      p.Weight,
		Scheme:      p.Scheme,
		Quantity:    qty,
		NetPrice:    net,
		TotalLitres: p.Weight.Mul(q),
		TotalSale:   net.Mul(q),
	}
}
