package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"laxmi-billing/internal/apperror"
	"laxmi-billing/internal/models"
	"laxmi-billing/pkg/database"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type OrderService struct {
	db  *gorm.DB
	now func() time.Time
}

func NewOrderService(db *gorm.DB) *OrderService {
	return &OrderService{db: db, now: nowUTC}
}

type OrderLineInput struct {
	ProductID uint `json:"product" binding:"required"`
	Quantity  int  `json:"quantity" binding:"required,min=1"`
}

type CreateOrderInput struct {
	RetailerID uint             `json:"retailer" binding:"required"`
	Items      []OrderLineInput `json:"items" binding:"required,min=1,dive"`
	Remarks    string           `json:"remarks" binding:"max=255"`
}

type OrderFilter struct {
	Status      models.OrderStatus
	RetailerID  uint
	CreatedByID *uint
	From, To    *time.Time
	Paging
}

// CreateOrder books an order, taking stock from every product in the same
// transaction. Products are locked in id order so concurrent orders cannot
// deadlock on each other.
func (s *OrderService) CreateOrder(ctx context.Context, in CreateOrderInput, actor Actor) (*models.Order, error) {
	if in.RetailerID == 0 {
		return nil, apperror.Field("retailer", "retailer is required")
	}
	if len(in.Items) == 0 {
		return nil, apperror.Field("items", "order needs at least one item")
	}
	qty := map[uint]int{}
	for i, it := range in.Items {
		if it.ProductID == 0 || it.Quantity < 1 {
			return nil, apperror.Field(fmt.Sprintf("items[%d]", i), "product and a quantity of at least 1 are required")
		}
		qty[it.ProductID] += it.Quantity
	}
	ids := make([]uint, 0, len(qty))
	for id := range qty {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var (
		order *models.Order
		err   error
	)
	for attempt := 0; attempt < orderNoAttempts; attempt++ {
		order, err = s.placeOrder(ctx, in, ids, qty, actor)
		if !errors.Is(err, errOrderNoTaken) {
			break
		}
	}
	if errors.Is(err, errOrderNoTaken) {
		return nil, apperror.Transient("order number is taken by a concurrent order, please retry", err)
	}
	if err != nil {
		return nil, err
	}
	return order, nil
}

const orderNoAttempts = 3

var errOrderNoTaken = errors.New("order number already taken")

// placeOrder runs one attempt of CreateOrder. A unique violation on the
// order insert means a concurrent order took the same number.
func (s *OrderService) placeOrder(ctx context.Context, in CreateOrderInput, ids []uint, qty map[uint]int, actor Actor) (*models.Order, error) {
	now := s.now()
	order := models.Order{
		Status:        models.OrderPending,
		Remarks:       strings.TrimSpace(in.Remarks),
		CreatedByID:   actor.ID,
		CreatedByName: actor.Name,
		OrderDate:     now,
		TotalLitres:   decimal.Zero,
		TotalSale:     decimal.Zero,
	}

	err := inTx(s.db.WithContext(ctx), "order", func(tx *gorm.DB) error {
		var retailer models.Retailer
		if err := tx.First(&retailer, in.RetailerID).Error; err != nil {
			return classify(err, "retailer")
		}
		order.RetailerID, order.RetailerName = retailer.ID, retailer.Name

		products := map[uint]models.Product{}
		for _, id := range ids {
			var p models.Product
			if err := tx.Clauses(forUpdate()).First(&p, id).Error; err != nil {
				return classify(err, fmt.Sprintf("product %d", id))
			}
			if p.Stock < qty[id] {
				return apperror.Validation(fmt.Sprintf("insufficient stock for %s: have %d, need %d", p.Code, p.Stock, qty[id]))
			}
			products[id] = p
		}

		for _, it := range in.Items {
			item := models.NewOrderItem(products[it.ProductID], it.Quantity)
			order.Items = append(order.Items, item)
			order.TotalLitres = order.TotalLitres.Add(item.TotalLitres)
			order.TotalSale = order.TotalSale.Add(item.TotalSale)
		}
		for _, id := range ids {
			if err := tx.Model(&models.Product{}).Where("id = ?", id).
				Update("stock", gorm.Expr("stock - ?", qty[id])).Error; err != nil {
				return err
			}
		}

		no, err := nextOrderNo(tx, now)
		if err != nil {
			return err
		}
		order.OrderNo = no
		if err := tx.Create(&order).Error; err != nil {
			if database.IsUniqueViolation(err) {
				return errOrderNoTaken
			}
			return err
		}
		return nil
	})
	if errors.Is(err, errOrderNoTaken) {
		return nil, errOrderNoTaken
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// nextOrderNo numbers orders per day as ORD-YYYYMMDD-#####, continuing
// after the highest number issued that day.
func nextOrderNo(tx *gorm.DB, now time.Time) (string, error) {
	prefix := "ORD-" + now.Format("20060102") + "-"
	var last models.Order
	err := tx.Select("order_no").Where("order_no LIKE ?", prefix+"%").Order("order_no DESC").Take(&last).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return prefix + "00001", nil
	}
	if err != nil {
		return "", err
	}
	var n int
	fmt.Sscanf(strings.TrimPrefix(last.OrderNo, prefix), "%d", &n)
	return fmt.Sprintf("%s%05d", prefix, n+1), nil
}

func (s *OrderService) GetOrder(ctx context.Context, id uint, actor Actor) (*models.Order, error) {
	var o models.Order
	if err := s.db.WithContext(ctx).Preload("Items").First(&o, id).Error; err != nil {
		return nil, classify(err, "order")
	}
	if actor.IsDSR() && o.CreatedByID != actor.ID {
		return nil, apperror.Forbidden("order was not booked by you")
	}
	return &o, nil
}

func (s *OrderService) ListOrders(ctx context.Context, f OrderFilter, actor Actor) ([]models.Order, int64, error) {
	if actor.IsDSR() {
		f.CreatedByID = &actor.ID
	}
	f.Paging = f.Paging.normalize()

	q := s.db.WithContext(ctx).Model(&models.Order{})
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.RetailerID != 0 {
		q = q.Where("retailer_id = ?", f.RetailerID)
	}
	if f.CreatedByID != nil {
		q = q.Where("created_by_id = ?", *f.CreatedByID)
	}
	if f.From != nil {
		q = q.Where("order_date >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("order_date < ?", *f.To)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, classify(err, "orders")
	}
	orders := []models.Order{}
	if err := q.Preload("Items").Order("order_date DESC, id DESC").Limit(f.Limit).Offset(f.offset()).Find(&orders).Error; err != nil {
		return nil, 0, classify(err, "orders")
	}
	return orders, total, nil
}

// UpdateOrderStatus moves an order along its lifecycle. Cancelling returns
// the reserved stock.
func (s *OrderService) UpdateOrderStatus(ctx context.Context, id uint, next models.OrderStatus) (*models.Order, error) {
	var o models.Order
	err := inTx(s.db.WithContext(ctx), "order", func(tx *gorm.DB) error {
		if err := tx.Clauses(forUpdate()).First(&o, id).Error; err != nil {
			return err
		}
		if !o.Status.CanTransition(next) {
			return apperror.Validation(fmt.Sprintf("order %s cannot move from %s to %s", o.OrderNo, o.Status, next))
		}
		if next == models.OrderCancelled {
			var items []models.OrderItem
			if err := tx.Where("order_id = ?", o.ID).Order("product_id").Find(&items).Error; err != nil {
				return err
			}
			for _, it := range items {
				if err := tx.Model(&models.Product{}).Where("id = ?", it.ProductID).
					Update("stock", gorm.Expr("stock + ?", it.Quantity)).Error; err != nil {
					return err
				}
			}
		}
		o.Status = next
		return tx.Model(&models.Order{}).Where("id = ?", o.ID).Update("status", next).Error
	})
	if err != nil {
		return nil, err
	}
	return s.GetOrder(ctx, o.ID, Actor{Role: models.RoleAdmin})
}
