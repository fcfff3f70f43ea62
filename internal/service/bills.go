package service

import (
	"context"
	"strings"
	"time"

	"laxmi-billing/internal/apperror"
	"laxmi-billing/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// BillService owns bill lifecycle and collection reconciliation.
type BillService struct {
	db  *gorm.DB
	now func() time.Time
}

func NewBillService(db *gorm.DB) *BillService {
	return &BillService{db: db, now: nowUTC}
}

type CreateBillInput struct {
	BillNo        string          `json:"billNo" binding:"required"`
	RetailerID    *uint           `json:"retailerId"`
	RetailerName  string          `json:"retailerName"`
	Amount        decimal.Decimal `json:"amount"`
	CollectionDay string          `json:"collectionDay" binding:"omitempty,weekday"`
	BillDate      *time.Time      `json:"billDate"`
	DueDate       *time.Time      `json:"dueDate"`
	AssignedToID  *uint           `json:"assignedTo"`
}

type UpdateBillInput struct {
	RetailerName  *string          `json:"retailerName"`
	CollectionDay *string          `json:"collectionDay"`
	BillDate      *time.Time       `json:"billDate"`
	DueDate       *time.Time       `json:"dueDate"`
	Amount        *decimal.Decimal `json:"amount"`
}

type BillFilter struct {
	Status        models.BillStatus
	AssignedToID  *uint
	Retailer      string
	CollectionDay string
	Paging
}

func (s *BillService) CreateBill(ctx context.Context, in CreateBillInput, actor Actor) (*models.Bill, error) {
	billNo := models.NormalizeBillNo(in.BillNo)
	var fields []apperror.FieldError
	if billNo == "" {
		fields = append(fields, apperror.FieldError{Field: "billNo", Message: "bill number is required"})
	}
	if !in.Amount.IsPositive() {
		fields = append(fields, apperror.FieldError{Field: "amount", Message: "amount must be greater than zero"})
	}
	if in.RetailerID == nil && strings.TrimSpace(in.RetailerName) == "" {
		fields = append(fields, apperror.FieldError{Field: "retailerName", Message: "retailer is required"})
	}
	if len(fields) > 0 {
		return nil, apperror.Validation("invalid bill", fields...)
	}

	now := s.now()
	bill := models.Bill{
		BillNo:        billNo,
		RetailerName:  strings.TrimSpace(in.RetailerName),
		Amount:        in.Amount,
		DueAmount:     in.Amount,
		CollectionDay: models.NormalizeWeekday(in.CollectionDay),
		BillDate:      now,
		DueDate:       in.DueDate,
		Status:        models.BillUnpaid,
		CreatedByID:   actor.ID,
	}
	if in.BillDate != nil {
		bill.BillDate = in.BillDate.UTC()
	}
	bill.AppendHistory(now, "created by %s for %s", actor.Name, in.Amount.StringFixed(2))

	err := inTx(s.db.WithContext(ctx), "bill", func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Bill{}).Where("bill_no = ?", billNo).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return apperror.Conflictf("bill %s already exists", billNo)
		}

		if in.RetailerID != nil {
			var r models.Retailer
			if err := tx.First(&r, *in.RetailerID).Error; err != nil {
				return classify(err, "retailer")
			}
			bill.RetailerID = &r.ID
			bill.RetailerName = r.Name
			if bill.CollectionDay == "" {
				bill.CollectionDay = r.DayAssigned
			}
		}
		if in.AssignedToID != nil {
			dsr, err := activeDSR(tx, *in.AssignedToID)
			if err != nil {
				return err
			}
			assign(&bill, dsr, now, actor)
		}

		if err := tx.Create(&bill).Error; err != nil {
			return classify(err, "bill "+billNo)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &bill, nil
}

// GetBill loads a bill with its collections in collection order. DSRs may
// only read bills assigned to them.
func (s *BillService) GetBill(ctx context.Context, id uint, actor Actor) (*models.Bill, error) {
	bill, err := loadBill(s.db.WithContext(ctx), id)
	if err != nil {
		return nil, err
	}
	if actor.IsDSR() && !assignedTo(bill, actor.ID) {
		return nil, apperror.Forbidden("bill is not assigned to you")
	}
	return bill, nil
}

func (s *BillService) ListBills(ctx context.Context, f BillFilter, actor Actor) ([]models.Bill, int64, error) {
	if actor.IsDSR() {
		f.AssignedToID = &actor.ID
	}
	f.Paging = f.Paging.normalize()

	q := s.db.WithContext(ctx).Model(&models.Bill{})
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.AssignedToID != nil {
		q = q.Where("assigned_to_id = ?", *f.AssignedToID)
	}
	if f.Retailer != "" {
		q = q.Where("LOWER(retailer_name) LIKE ?", "%"+strings.ToLower(f.Retailer)+"%")
	}
	if day := models.NormalizeWeekday(f.CollectionDay); day != "" {
		q = q.Where("collection_day = ?", day)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, classify(err, "bills")
	}

	bills := []models.Bill{}
	if err := q.Order("bill_date DESC, id DESC").Limit(f.Limit).Offset(f.offset()).Find(&bills).Error; err != nil {
		return nil, 0, classify(err, "bills")
	}
	return bills, total, nil
}

// UpdateBill edits descriptive fields. The amount can only change before any
// collection is recorded; due amount and status are never set directly.
func (s *BillService) UpdateBill(ctx context.Context, id uint, in UpdateBillInput, actor Actor) (*models.Bill, error) {
	var out *models.Bill
	err := inTx(s.db.WithContext(ctx), "bill", func(tx *gorm.DB) error {
		var bill models.Bill
		if err := tx.Clauses(forUpdate()).First(&bill, id).Error; err != nil {
			return err
		}
		now := s.now()
		var changed []string

		if in.RetailerName != nil {
			name := strings.TrimSpace(*in.RetailerName)
			if name == "" {
				return apperror.Field("retailerName", "retailer name cannot be empty")
			}
			bill.RetailerName = name
			changed = append(changed, "retailer")
		}
		if in.CollectionDay != nil {
			bill.CollectionDay = models.NormalizeWeekday(*in.CollectionDay)
			changed = append(changed, "collection day")
		}
		if in.BillDate != nil {
			bill.BillDate = in.BillDate.UTC()
			changed = append(changed, "bill date")
		}
		if in.DueDate != nil {
			d := in.DueDate.UTC()
			bill.DueDate = &d
			changed = append(changed, "due date")
		}
		if in.Amount != nil {
			if !in.Amount.IsPositive() {
				return apperror.Field("amount", "amount must be greater than zero")
			}
			var n int64
			if err := tx.Model(&models.Collection{}).Where("bill_id = ?", bill.ID).Count(&n).Error; err != nil {
				return err
			}
			if n > 0 {
				return apperror.Conflictf("amount of bill %s cannot change after collections are recorded", bill.BillNo)
			}
			bill.Amount = *in.Amount
			bill.DueAmount = *in.Amount
			bill.Status = models.BillUnpaid
			changed = append(changed, "amount "+in.Amount.StringFixed(2))
		}
		if len(changed) == 0 {
			out = &bill
			return nil
		}
		bill.AppendHistory(now, "%s updated %s", actor.Name, strings.Join(changed, ", "))

		if err := tx.Model(&models.Bill{}).Where("id = ?", bill.ID).Updates(map[string]any{
			"retailer_name":  bill.RetailerName,
			"collection_day": bill.CollectionDay,
			"bill_date":      bill.BillDate,
			"due_date":       bill.DueDate,
			"amount":         bill.Amount,
			"due_amount":     bill.DueAmount,
			"status":         bill.Status,
			"history":        bill.History,
		}).Error; err != nil {
			return err
		}
		out = &bill
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// AssignBill hands a bill to a DSR for collection.
func (s *BillService) AssignBill(ctx context.Context, id, dsrID uint, actor Actor) (*models.Bill, error) {
	var out models.Bill
	err := inTx(s.db.WithContext(ctx), "bill", func(tx *gorm.DB) error {
		if err := tx.Clauses(forUpdate()).First(&out, id).Error; err != nil {
			return err
		}
		if out.IsPaid() {
			return apperror.Validation("paid bills cannot be reassigned")
		}
		dsr, err := activeDSR(tx, dsrID)
		if err != nil {
			return err
		}
		assign(&out, dsr, s.now(), actor)
		return tx.Model(&models.Bill{}).Where("id = ?", out.ID).Updates(map[string]any{
			"assigned_to_id":   out.AssignedToID,
			"assigned_to_name": out.AssignedToName,
			"assigned_at":      out.AssignedAt,
			"history":          out.History,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *BillService) UnassignBill(ctx context.Context, id uint, actor Actor) (*models.Bill, error) {
	var out models.Bill
	err := inTx(s.db.WithContext(ctx), "bill", func(tx *gorm.DB) error {
		if err := tx.Clauses(forUpdate()).First(&out, id).Error; err != nil {
			return err
		}
		if out.AssignedToID == nil {
			return nil
		}
		out.AppendHistory(s.now(), "%s removed assignment from %s", actor.Name, out.AssignedToName)
		out.AssignedToID, out.AssignedToName, out.AssignedAt = nil, "", nil
		return tx.Model(&models.Bill{}).Where("id = ?", out.ID).Updates(map[string]any{
			"assigned_to_id":   nil,
			"assigned_to_name": "",
			"assigned_at":      nil,
			"history":          out.History,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteBill removes a bill that has no collections.
func (s *BillService) DeleteBill(ctx context.Context, id uint) error {
	return inTx(s.db.WithContext(ctx), "bill", func(tx *gorm.DB) error {
		var bill models.Bill
		if err := tx.Clauses(forUpdate()).First(&bill, id).Error; err != nil {
			return err
		}
		var n int64
		if err := tx.Model(&models.Collection{}).Where("bill_id = ?", bill.ID).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return apperror.Conflictf("bill %s has %d collections and cannot be deleted", bill.BillNo, n)
		}
		return tx.Delete(&bill).Error
	})
}

func assign(b *models.Bill, dsr *models.User, at time.Time, actor Actor) {
	b.AssignedToID = &dsr.ID
	b.AssignedToName = dsr.Username
	b.AssignedAt = &at
	b.AppendHistory(at, "assigned to %s by %s", dsr.Username, actor.Name)
}

func assignedTo(b *models.Bill, userID uint) bool {
	return b.AssignedToID != nil && *b.AssignedToID == userID
}

func loadBill(db *gorm.DB, id uint) (*models.Bill, error) {
	var bill models.Bill
	err := db.Preload("Collections", func(db *gorm.DB) *gorm.DB {
		return db.Order("collected_at ASC, id ASC")
	}).First(&bill, id).Error
	if err != nil {
		return nil, classify(err, "bill")
	}
	return &bill, nil
}
