package service

import (
	"context"
	"strings"

	"laxmi-billing/internal/apperror"
	"laxmi-billing/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const DefaultLowStockThreshold = 10

type ProductService struct {
	db *gorm.DB
}

func NewProductService(db *gorm.DB) *ProductService {
	return &ProductService{db: db}
}

type ProductInput struct {
	Code    string          `json:"productCode" binding:"required,max=50"`
	Name    string          `json:"name" binding:"required,max=150"`
	Company string          `json:"company" binding:"max=100"`
	Price   decimal.Decimal `json:"price"`
	MRP     decimal.Decimal `json:"mrp"`
	Weight  decimal.Decimal `json:"weight"`
	Scheme  decimal.Decimal `json:"scheme"`
	Stock   int             `json:"stock" binding:"min=0"`
}

func (in *ProductInput) normalize() error {
	in.Code = models.NormalizeProductCode(in.Code)
	in.Name = strings.TrimSpace(in.Name)
	in.Company = strings.TrimSpace(in.Company)

	var fields []apperror.FieldError
	if in.Code == "" {
		fields = append(fields, apperror.FieldError{Field: "productCode", Message: "product code is required"})
	}
	if in.Name == "" {
		fields = append(fields, apperror.FieldError{Field: "name", Message: "name is required"})
	}
	if in.Price.IsNegative() {
		fields = append(fields, apperror.FieldError{Field: "price", Message: "price cannot be negative"})
	}
	if in.MRP.IsNegative() {
		fields = append(fields, apperror.FieldError{Field: "mrp", Message: "mrp cannot be negative"})
	}
	if in.Weight.IsNegative() {
		fields = append(fields, apperror.FieldError{Field: "weight", Message: "weight cannot be negative"})
	}
	if in.Scheme.IsNegative() {
		fields = append(fields, apperror.FieldError{Field: "scheme", Message: "scheme cannot be negative"})
	}
	if in.Stock < 0 {
		fields = append(fields, apperror.FieldError{Field: "stock", Message: "stock cannot be negative"})
	}
	if len(fields) > 0 {
		return apperror.Validation("invalid product", fields...)
	}
	return nil
}

type ProductFilter struct {
	Search  string
	Company string
	Paging
}

func (s *ProductService) CreateProduct(ctx context.Context, in ProductInput, actor Actor) (*models.Product, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}
	p := models.Product{
		Code:        in.Code,
		Name:        in.Name,
		Company:     in.Company,
		Price:       in.Price,
		MRP:         in.MRP,
		Weight:      in.Weight,
		Scheme:      in.Scheme,
		Stock:       in.Stock,
		CreatedByID: actor.ID,
	}
	err := inTx(s.db.WithContext(ctx), "product "+in.Code, func(tx *gorm.DB) error {
		exists, err := productCodeExists(tx, in.Code, 0)
		if err != nil {
			return err
		}
		if exists {
			return apperror.Conflictf("product code %s already exists", in.Code)
		}
		return tx.Create(&p).Error
	})
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ProductCodeExists reports whether code is taken, ignoring case.
func (s *ProductService) ProductCodeExists(ctx context.Context, code string) (bool, error) {
	exists, err := productCodeExists(s.db.WithContext(ctx), models.NormalizeProductCode(code), 0)
	return exists, classify(err, "product")
}

func productCodeExists(db *gorm.DB, code string, exceptID uint) (bool, error) {
	var n int64
	q := db.Model(&models.Product{}).Where("UPPER(code) = ?", code)
	if exceptID != 0 {
		q = q.Where("id <> ?", exceptID)
	}
	err := q.Count(&n).Error
	return n > 0, err
}

func (s *ProductService) GetProduct(ctx context.Context, id uint) (*models.Product, error) {
	var p models.Product
	if err := s.db.WithContext(ctx).First(&p, id).Error; err != nil {
		return nil, classify(err, "product")
	}
	return &p, nil
}

func (s *ProductService) ListProducts(ctx context.Context, f ProductFilter) ([]models.Product, int64, error) {
	f.Paging = f.Paging.normalize()
	q := s.db.WithContext(ctx).Model(&models.Product{})
	if f.Search != "" {
		like := "%" + strings.ToLower(f.Search) + "%"
		q = q.Where("LOWER(name) LIKE ? OR LOWER(code) LIKE ?", like, like)
	}
	if f.Company != "" {
		q = q.Where("LOWER(company) = ?", strings.ToLower(f.Company))
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, classify(err, "products")
	}
	products := []models.Product{}
	if err := q.Order("code").Limit(f.Limit).Offset(f.offset()).Find(&products).Error; err != nil {
		return nil, 0, classify(err, "products")
	}
	return products, total, nil
}

func (s *ProductService) UpdateProduct(ctx context.Context, id uint, in ProductInput) (*models.Product, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}
	var p models.Product
	err := inTx(s.db.WithContext(ctx), "product", func(tx *gorm.DB) error {
		if err := tx.Clauses(forUpdate()).First(&p, id).Error; err != nil {
			return err
		}
		exists, err := productCodeExists(tx, in.Code, p.ID)
		if err != nil {
			return err
		}
		if exists {
			return apperror.Conflictf("product code %s already exists", in.Code)
		}
		p.Code, p.Name, p.Company = in.Code, in.Name, in.Company
		p.Price, p.MRP, p.Weight, p.Scheme = in.Price, in.MRP, in.Weight, in.Scheme
		p.Stock = in.Stock
		return tx.Save(&p).Error
	})
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// AdjustStock adds delta (which may be negative) to the product stock under
// a row lock. Stock never drops below zero.
func (s *ProductService) AdjustStock(ctx context.Context, id uint, delta int) (*models.Product, error) {
	if delta == 0 {
		return nil, apperror.Field("delta", "delta must not be zero")
	}
	var p models.Product
	err := inTx(s.db.WithContext(ctx), "product", func(tx *gorm.DB) error {
		if err := tx.Clauses(forUpdate()).First(&p, id).Error; err != nil {
			return err
		}
		if p.Stock+delta < 0 {
			return apperror.Field("delta", "stock of "+p.Code+" cannot go below zero")
		}
		p.Stock += delta
		return tx.Model(&models.Product{}).Where("id = ?", p.ID).Update("stock", p.Stock).Error
	})
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *ProductService) LowStock(ctx context.Context, threshold int) ([]models.Product, error) {
	if threshold <= 0 {
		threshold = DefaultLowStockThreshold
	}
	products := []models.Product{}
	err := s.db.WithContext(ctx).Where("stock <= ?", threshold).Order("stock ASC, code").Find(&products).Error
	return products, classify(err, "products")
}

// DeleteProduct removes a product. Order lines keep their snapshot.
func (s *ProductService) DeleteProduct(ctx context.Context, id uint) error {
	res := s.db.WithContext(ctx).Delete(&models.Product{}, id)
	if res.Error != nil {
		return classify(res.Error, "product")
	}
	if res.RowsAffected == 0 {
		return apperror.NotFoundf("product not found")
	}
	return nil
}
