package service

import (
	"context"
	"time"

	"laxmi-billing/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ReportService answers the read-only admin reports.
type ReportService struct {
	db  *gorm.DB
	now func() time.Time
}

func NewReportService(db *gorm.DB) *ReportService {
	return &ReportService{db: db, now: nowUTC}
}

type ModeTotal struct {
	PaymentMode models.PaymentMode `json:"paymentMode"`
	Count       int64              `json:"count"`
	Total       decimal.Decimal    `json:"total"`
}

type CollectionsReport struct {
	From        time.Time           `json:"from"`
	To          time.Time           `json:"to"`
	Collections []models.Collection `json:"collections"`
	ByMode      []ModeTotal         `json:"byMode"`
	GrandTotal  decimal.Decimal     `json:"grandTotal"`
	Count       int64               `json:"count"`
}

// CollectionsReport lists collections in [from, to) with totals per payment
// mode. A non-nil dsrID restricts it to one collector.
func (s *ReportService) CollectionsReport(ctx context.Context, from, to time.Time, dsrID *uint) (*CollectionsReport, error) {
	scope := func(db *gorm.DB) *gorm.DB {
		db = db.Where("collected_at >= ? AND collected_at < ?", from, to)
		if dsrID != nil {
			db = db.Where("collected_by_id = ?", *dsrID)
		}
		return db
	}
	db := s.db.WithContext(ctx)

	rep := CollectionsReport{From: from, To: to, Collections: []models.Collection{}, ByMode: []ModeTotal{}, GrandTotal: decimal.Zero}
	if err := db.Scopes(scope).Order("collected_at, id").Find(&rep.Collections).Error; err != nil {
		return nil, classify(err, "collections report")
	}

	var rows []ModeTotal
	err := db.Model(&models.Collection{}).Scopes(scope).
		Select("payment_mode, COUNT(*) AS count, COALESCE(SUM(amount_collected), 0) AS total").
		Group("payment_mode").
		Order("payment_mode").
		Scan(&rows).Error
	if err != nil {
		return nil, classify(err, "collections report")
	}
	for _, r := range rows {
		r.Total = r.Total.Round(2)
		rep.ByMode = append(rep.ByMode, r)
		rep.GrandTotal = rep.GrandTotal.Add(r.Total)
		rep.Count += r.Count
	}
	return &rep, nil
}

type OutstandingRow struct {
	RetailerName string          `json:"retailerName"`
	BillCount    int64           `json:"billCount"`
	TotalAmount  decimal.Decimal `json:"totalAmount"`
	TotalDue     decimal.Decimal `json:"totalDue"`
}

// OutstandingReport totals unpaid and partially paid bills per retailer,
// largest due first.
func (s *ReportService) OutstandingReport(ctx context.Context) ([]OutstandingRow, error) {
	rows := []OutstandingRow{}
	err := s.db.WithContext(ctx).Model(&models.Bill{}).
		Select("retailer_name, COUNT(*) AS bill_count, COALESCE(SUM(amount), 0) AS total_amount, COALESCE(SUM(due_amount), 0) AS total_due").
		Where("status <> ?", models.BillPaid).
		Group("retailer_name").
		Order("total_due DESC, retailer_name").
		Scan(&rows).Error
	if err != nil {
		return nil, classify(err, "outstanding report")
	}
	for i := range rows {
		rows[i].TotalAmount = rows[i].TotalAmount.Round(2)
		rows[i].TotalDue = rows[i].TotalDue.Round(2)
	}
	return rows, nil
}

type DSRSummaryRow struct {
	DSRID           uint            `json:"dsrId"`
	DSRName         string          `json:"dsrName"`
	AssignedBills   int64           `json:"assignedBills"`
	DueToday        int64           `json:"dueToday"`
	OutstandingDue  decimal.Decimal `json:"outstandingDue"`
	CollectedCount  int64           `json:"collectedCount"`
	CollectedAmount decimal.Decimal `json:"collectedAmount"`
}

// DSRSummary reports, per active DSR, the open bills they hold, how many of
// those fall on day's weekday, and what they collected on day.
func (s *ReportService) DSRSummary(ctx context.Context, day time.Time) ([]DSRSummaryRow, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 1)
	weekday := start.Weekday().String()

	dsrs, err := NewStaffDirectory(s.db).ListDSRs(ctx)
	if err != nil {
		return nil, err
	}
	db := s.db.WithContext(ctx)
	out := make([]DSRSummaryRow, 0, len(dsrs))
	for _, u := range dsrs {
		row := DSRSummaryRow{DSRID: u.ID, DSRName: u.Username}

		var open struct {
			N   int64
			Due decimal.Decimal
		}
		if err := db.Model(&models.Bill{}).
			Select("COUNT(*) AS n, COALESCE(SUM(due_amount), 0) AS due").
			Where("assigned_to_id = ? AND status <> ?", u.ID, models.BillPaid).
			Scan(&open).Error; err != nil {
			return nil, classify(err, "dsr summary")
		}
		row.AssignedBills, row.OutstandingDue = open.N, open.Due.Round(2)

		if err := db.Model(&models.Bill{}).
			Where("assigned_to_id = ? AND status <> ? AND collection_day = ?", u.ID, models.BillPaid, weekday).
			Count(&row.DueToday).Error; err != nil {
			return nil, classify(err, "dsr summary")
		}

		var got struct {
			N     int64
			Total decimal.Decimal
		}
		if err := db.Model(&models.Collection{}).
			Select("COUNT(*) AS n, COALESCE(SUM(amount_collected), 0) AS total").
			Where("collected_by_id = ? AND collected_at >= ? AND collected_at < ?", u.ID, start, end).
			Scan(&got).Error; err != nil {
			return nil, classify(err, "dsr summary")
		}
		row.CollectedCount, row.CollectedAmount = got.N, got.Total.Round(2)
		out = append(out, row)
	}
	return out, nil
}

type Dashboard struct {
	BillsByStatus  map[models.BillStatus]int64 `json:"billsByStatus"`
	TotalBilled    decimal.Decimal             `json:"totalBilled"`
	TotalDue       decimal.Decimal             `json:"totalDue"`
	CollectedToday decimal.Decimal             `json:"collectedToday"`
	Retailers      int64                       `json:"retailers"`
	Products       int64                       `json:"products"`
	LowStock       int64                       `json:"lowStock"`
	PendingOrders  int64                       `json:"pendingOrders"`
	ActiveDSRs     int                         `json:"activeDsrs"`
}

func (s *ReportService) Dashboard(ctx context.Context) (*Dashboard, error) {
	db := s.db.WithContext(ctx)
	d := Dashboard{BillsByStatus: map[models.BillStatus]int64{
		models.BillUnpaid: 0, models.BillPartiallyPaid: 0, models.BillPaid: 0,
	}}

	var byStatus []struct {
		Status models.BillStatus
		N      int64
	}
	if err := db.Model(&models.Bill{}).Select("status, COUNT(*) AS n").Group("status").Scan(&byStatus).Error; err != nil {
		return nil, classify(err, "dashboard")
	}
	for _, r := range byStatus {
		d.BillsByStatus[r.Status] = r.N
	}

	var totals struct {
		Billed decimal.Decimal
		Due    decimal.Decimal
	}
	if err := db.Model(&models.Bill{}).
		Select("COALESCE(SUM(amount), 0) AS billed, COALESCE(SUM(due_amount), 0) AS due").
		Scan(&totals).Error; err != nil {
		return nil, classify(err, "dashboard")
	}
	d.TotalBilled, d.TotalDue = totals.Billed.Round(2), totals.Due.Round(2)

	now := s.now()
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	var today struct{ Total decimal.Decimal }
	if err := db.Model(&models.Collection{}).
		Select("COALESCE(SUM(amount_collected), 0) AS total").
		Where("collected_at >= ? AND collected_at < ?", start, start.AddDate(0, 0, 1)).
		Scan(&today).Error; err != nil {
		return nil, classify(err, "dashboard")
	}
	d.CollectedToday = today.Total.Round(2)

	counts := []struct {
		model any
		where string
		args  []any
		dst   *int64
	}{
		{&models.Retailer{}, "", nil, &d.Retailers},
		{&models.Product{}, "", nil, &d.Products},
		{&models.Product{}, "stock <= ?", []any{DefaultLowStockThreshold}, &d.LowStock},
		{&models.Order{}, "status = ?", []any{models.OrderPending}, &d.PendingOrders},
	}
	for _, c := range counts {
		q := db.Model(c.model)
		if c.where != "" {
			q = q.Where(c.where, c.args...)
		}
		if err := q.Count(c.dst).Error; err != nil {
			return nil, classify(err, "dashboard")
		}
	}

	dsrs, err := NewStaffDirectory(s.db).ListDSRs(ctx)
	if err != nil {
		return nil, err
	}
	d.ActiveDSRs = len(dsrs)
	return &d, nil
}
