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

var minCollection = decimal.NewFromInt(1)

type PaymentDetails struct {
	UPIID             string `json:"upiId"`
	UPITransactionID  string `json:"upiTransactionId"`
	BankName          string `json:"bankName"`
	ChequeNumber      string `json:"chequeNumber"`
	BankTransactionID string `json:"bankTransactionId"`
}

type CollectionInput struct {
	Bill            uint               `json:"bill" binding:"required"`
	AmountCollected decimal.Decimal    `json:"amountCollected"`
	PaymentMode     models.PaymentMode `json:"paymentMode" binding:"required,paymentmode"`
	PaymentDetails  PaymentDetails     `json:"paymentDetails"`
	Remarks         string             `json:"remarks" binding:"max=255"`
}

// Validate checks the amount and the fields each payment mode requires.
func (in *CollectionInput) Validate() error {
	var fields []apperror.FieldError
	add := func(field, msg string) {
		fields = append(fields, apperror.FieldError{Field: field, Message: msg})
	}

	if in.Bill == 0 {
		add("bill", "bill is required")
	}
	if in.AmountCollected.LessThan(minCollection) {
		add("amountCollected", "amount collected must be at least 1")
	}

	d := &in.PaymentDetails
	d.UPIID = strings.TrimSpace(d.UPIID)
	d.UPITransactionID = strings.TrimSpace(d.UPITransactionID)
	d.BankName = strings.TrimSpace(d.BankName)
	d.ChequeNumber = strings.TrimSpace(d.ChequeNumber)
	d.BankTransactionID = strings.TrimSpace(d.BankTransactionID)

	switch in.PaymentMode {
	case models.PaymentCash:
	case models.PaymentUPI:
		if d.UPITransactionID == "" {
			add("paymentDetails.upiTransactionId", "UPI transaction id is required")
		}
	case models.PaymentCheque:
		if d.BankName == "" {
			add("paymentDetails.bankName", "bank name is required")
		}
		if d.ChequeNumber == "" {
			add("paymentDetails.chequeNumber", "cheque number is required")
		}
	case models.PaymentBankTransfer:
		if d.BankName == "" {
			add("paymentDetails.bankName", "bank name is required")
		}
		if d.BankTransactionID == "" {
			add("paymentDetails.bankTransactionId", "bank transaction id is required")
		}
	default:
		add("paymentMode", "payment mode must be one of cash, cheque, bank_transfer, upi")
	}

	if len(fields) > 0 {
		return apperror.Validation("invalid collection", fields...)
	}
	return nil
}

type CollectionResult struct {
	Collection models.Collection `json:"collection"`
	Bill       models.Bill       `json:"bill"`
}

type CollectionFilter struct {
	BillID        uint
	CollectedByID *uint
	Mode          models.PaymentMode
	From, To      *time.Time
	Paging
}

// RecordCollection inserts a collection and reconciles its bill in one
// transaction with the bill row locked, so concurrent payments against the
// same bill serialize.
func (s *BillService) RecordCollection(ctx context.Context, in CollectionInput, actor Actor) (*CollectionResult, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	var result CollectionResult
	err := inTx(s.db.WithContext(ctx), "bill", func(tx *gorm.DB) error {
		var bill models.Bill
		if err := tx.Clauses(forUpdate()).First(&bill, in.Bill).Error; err != nil {
			return err
		}
		if bill.IsPaid() {
			return apperror.Validation("bill " + bill.BillNo + " is already paid")
		}
		if actor.IsDSR() && !assignedTo(&bill, actor.ID) {
			return apperror.Forbidden("bill is not assigned to you")
		}
		if in.AmountCollected.GreaterThan(bill.DueAmount) {
			return apperror.Field("amountCollected",
				"amount collected "+in.AmountCollected.StringFixed(2)+" exceeds due amount "+bill.DueAmount.StringFixed(2))
		}

		now := s.now()
		col := models.Collection{
			BillID:            bill.ID,
			AmountCollected:   in.AmountCollected,
			PaymentMode:       in.PaymentMode,
			UPIID:             in.PaymentDetails.UPIID,
			UPITransactionID:  in.PaymentDetails.UPITransactionID,
			BankName:          in.PaymentDetails.BankName,
			ChequeNumber:      in.PaymentDetails.ChequeNumber,
			BankTransactionID: in.PaymentDetails.BankTransactionID,
			CollectedByID:     actor.ID,
			CollectedByName:   actor.Name,
			Remarks:           strings.TrimSpace(in.Remarks),
			CollectedAt:       now,
		}
		if err := tx.Create(&col).Error; err != nil {
			return err
		}

		bill.AppendHistory(now, "%s collected %s by %s", actor.Name, col.AmountCollected.StringFixed(2), col.PaymentMode)
		if err := reconcile(tx, &bill, now, col.PaymentMode); err != nil {
			return err
		}

		updated, err := loadBill(tx, bill.ID)
		if err != nil {
			return err
		}
		result = CollectionResult{Collection: col, Bill: *updated}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// RecomputeBill re-derives due amount and status from the recorded
// collections. It is idempotent.
func (s *BillService) RecomputeBill(ctx context.Context, id uint, actor Actor) (*models.Bill, error) {
	var out *models.Bill
	err := inTx(s.db.WithContext(ctx), "bill", func(tx *gorm.DB) error {
		var bill models.Bill
		if err := tx.Clauses(forUpdate()).First(&bill, id).Error; err != nil {
			return err
		}
		before, beforeStatus, stamped := bill.DueAmount, bill.Status, bill.PaymentDate != nil
		if err := reconcileInPlace(tx, &bill, s.now(), ""); err != nil {
			return err
		}
		if !before.Equal(bill.DueAmount) || beforeStatus != bill.Status || stamped != (bill.PaymentDate != nil) {
			bill.AppendHistory(s.now(), "%s recomputed due %s -> %s", actor.Name, before.StringFixed(2), bill.DueAmount.StringFixed(2))
			if err := saveReconciled(tx, &bill); err != nil {
				return err
			}
		}
		var err error
		out, err = loadBill(tx, bill.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *BillService) ListCollections(ctx context.Context, f CollectionFilter, actor Actor) ([]models.Collection, int64, error) {
	if actor.IsDSR() {
		f.CollectedByID = &actor.ID
	}
	f.Paging = f.Paging.normalize()

	q := s.db.WithContext(ctx).Model(&models.Collection{})
	if f.BillID != 0 {
		q = q.Where("bill_id = ?", f.BillID)
	}
	if f.CollectedByID != nil {
		q = q.Where("collected_by_id = ?", *f.CollectedByID)
	}
	if f.Mode != "" {
		q = q.Where("payment_mode = ?", f.Mode)
	}
	if f.From != nil {
		q = q.Where("collected_at >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("collected_at < ?", *f.To)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, classify(err, "collections")
	}
	rows := []models.Collection{}
	if err := q.Order("collected_at DESC, id DESC").Limit(f.Limit).Offset(f.offset()).Find(&rows).Error; err != nil {
		return nil, 0, classify(err, "collections")
	}
	return rows, total, nil
}

// collectedTotal sums every collection recorded against a bill.
func collectedTotal(tx *gorm.DB, billID uint) (decimal.Decimal, error) {
	var total decimal.NullDecimal
	err := tx.Model(&models.Collection{}).
		Where("bill_id = ?", billID).
		Select("SUM(amount_collected)").
		Row().Scan(&total)
	if err != nil {
		return decimal.Zero, err
	}
	if !total.Valid {
		return decimal.Zero, nil
	}
	// drivers that sum in floating point must not leave a fractional paisa
	return total.Decimal.Round(2), nil
}

// reconcileInPlace recomputes due and status from the collection sum
// without writing. mode is recorded as payment method when the bill
// becomes paid; payment date and method are cleared on any other status.
func reconcileInPlace(tx *gorm.DB, b *models.Bill, now time.Time, mode models.PaymentMode) error {
	collected, err := collectedTotal(tx, b.ID)
	if err != nil {
		return err
	}
	b.DueAmount = models.DueFromCollected(b.Amount, collected)
	b.Status = models.StatusFor(b.Amount, b.DueAmount)
	switch {
	case b.Status == models.BillPaid && b.PaymentDate == nil:
		b.PaymentDate = &now
		if mode != "" {
			b.PaymentMethod = string(mode)
		}
	case b.Status != models.BillPaid:
		b.PaymentDate = nil
		b.PaymentMethod = ""
	}
	return nil
}

func reconcile(tx *gorm.DB, b *models.Bill, now time.Time, mode models.PaymentMode) error {
	if err := reconcileInPlace(tx, b, now, mode); err != nil {
		return err
	}
	return saveReconciled(tx, b)
}

func saveReconciled(tx *gorm.DB, b *models.Bill) error {
	return tx.Model(&models.Bill{}).Where("id = ?", b.ID).Updates(map[string]any{
		"due_amount":     b.DueAmount,
		"status":         b.Status,
		"payment_date":   b.PaymentDate,
		"payment_method": b.PaymentMethod,
		"history":        b.History,
	}).Error
}
