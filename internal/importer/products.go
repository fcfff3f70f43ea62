package importer

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"laxmi-billing/internal/models"
	"laxmi-billing/internal/service"

	"github.com/shopspring/decimal"
)

// ProductStore is the part of the product catalog an import writes to.
type ProductStore interface {
	ProductCodeExists(ctx context.Context, code string) (bool, error)
	CreateProduct(ctx context.Context, in service.ProductInput, actor service.Actor) (*models.Product, error)
}

type ProductRows struct {
	Store ProductStore
	Actor service.Actor
}

func (ProductRows) Entity() string { return "products" }

// Columns declares company before name so a "Company Name" header is not
// taken for the product name.
func (ProductRows) Columns() []Column {
	return []Column{
		{Key: "code", Match: "code", Required: true},
		{Key: "company", Match: "company"},
		{Key: "name", Match: "name", Required: true},
		{Key: "mrp", Match: "mrp"},
		{Key: "price", Match: "price", Required: true},
		{Key: "weight", Match: "weight", Required: true},
		{Key: "scheme", Match: "scheme"},
		{Key: "stock", Match: "stock", Required: true},
	}
}

func (h ProductRows) ImportRow(ctx context.Context, row Row) (string, error) {
	in := service.ProductInput{
		Code:    models.NormalizeProductCode(row.Get("code")),
		Name:    row.Get("name"),
		Company: row.Get("company"),
	}
	if in.Code == "" {
		return "", errors.New("product code is empty")
	}
	if in.Name == "" {
		return "", errors.New("product name is empty")
	}

	var err error
	if in.Price, err = parseAmount(row.Get("price"), "price", true); err != nil {
		return "", err
	}
	if in.Weight, err = parseAmount(row.Get("weight"), "weight", true); err != nil {
		return "", err
	}
	if in.MRP, err = parseAmount(row.Get("mrp"), "mrp", false); err != nil {
		return "", err
	}
	if in.Scheme, err = parseAmount(row.Get("scheme"), "scheme", false); err != nil {
		return "", err
	}
	if in.Stock, err = parseStock(row.Get("stock")); err != nil {
		return "", err
	}

	exists, err := h.Store.ProductCodeExists(ctx, in.Code)
	if err != nil {
		return "", err
	}
	if exists {
		return "", fmt.Errorf("product code %s already exists", in.Code)
	}
	if _, err := h.Store.CreateProduct(ctx, in, h.Actor); err != nil {
		return "", err
	}
	return "", nil
}

// parseAmount reads a non-negative number. Thousands separators are ignored.
func parseAmount(s, field string, required bool) (decimal.Decimal, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		if required {
			return decimal.Zero, fmt.Errorf("%s is empty", field)
		}
		return decimal.Zero, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return decimal.Zero, fmt.Errorf("invalid %s %q", field, s)
	}
	if f < 0 {
		return decimal.Zero, fmt.Errorf("%s cannot be negative", field)
	}
	return decimal.NewFromFloat(f).Round(3), nil
}

// parseStock accepts whole numbers, including spreadsheet renderings like "12.0".
func parseStock(s string) (int, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return 0, errors.New("stock is empty")
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		f, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil || math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
			return 0, fmt.Errorf("invalid stock %q", s)
		}
		n = int(f)
	}
	if n < 0 {
		return 0, errors.New("stock cannot be negative")
	}
	return n, nil
}
