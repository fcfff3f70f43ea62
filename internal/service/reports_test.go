package service

import (
	"context"
	"testing"
	"time"

	"laxmi-billing/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var (
	reportDay  = time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC) // a Tuesday
	dayBefore  = reportDay.AddDate(0, 0, -1)
	reportFrom = time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)
)

type reportFixture struct {
	db          *gorm.DB
	reports     *ReportService
	ravi, kumar models.User
}

// seedReportData books three bills and four collections:
//
//	R-1 Ganesh Motors 1000, ravi, Tuesday: ravi 400 cash today
//	R-2 Ganesh Motors  500, ravi, Monday:  ravi 500 upi today (paid)
//	R-3 Sharma Auto    300, kumar:         admin 100 cheque yesterday
func seedReportData(t *testing.T) reportFixture {
	t.Helper()
	db := newTestDB(t)
	ravi := createUser(t, db, "ravi", models.RoleDSR)
	kumar := createUser(t, db, "kumar", models.RoleDSR)
	bills := NewBillService(db)
	ctx := context.Background()

	create := func(no, retailer, amount, day string, dsr uint) *models.Bill {
		b, err := bills.CreateBill(ctx, CreateBillInput{
			BillNo: no, RetailerName: retailer, Amount: dec(amount), CollectionDay: day, AssignedToID: &dsr,
		}, adminActor)
		require.NoError(t, err)
		return b
	}
	r1 := create("R-1", "Ganesh Motors", "1000", "tue", ravi.ID)
	r2 := create("R-2", "Ganesh Motors", "500", "Monday", ravi.ID)
	r3 := create("R-3", "Sharma Auto", "300", "", kumar.ID)

	bills.now = func() time.Time { return dayBefore }
	_, err := bills.RecordCollection(ctx, CollectionInput{
		Bill: r3.ID, AmountCollected: dec("100"), PaymentMode: models.PaymentCheque,
		PaymentDetails: PaymentDetails{BankName: "SBI", ChequeNumber: "000123"},
	}, adminActor)
	require.NoError(t, err)

	bills.now = func() time.Time { return reportDay }
	_, err = bills.RecordCollection(ctx, cash(r1.ID, "400"), ActorFromUser(ravi))
	require.NoError(t, err)
	_, err = bills.RecordCollection(ctx, CollectionInput{
		Bill: r2.ID, AmountCollected: dec("500"), PaymentMode: models.PaymentUPI,
		PaymentDetails: PaymentDetails{UPITransactionID: "UPI-9"},
	}, ActorFromUser(ravi))
	require.NoError(t, err)

	reports := NewReportService(db)
	reports.now = func() time.Time { return reportDay }
	return reportFixture{db: db, reports: reports, ravi: ravi, kumar: kumar}
}

func TestCollectionsReport(t *testing.T) {
	f := seedReportData(t)
	ctx := context.Background()

	rep, err := f.reports.CollectionsReport(ctx, reportFrom, reportFrom.AddDate(0, 0, 1), nil)
	require.NoError(t, err)
	assert.Equal(t, int64(2), rep.Count)
	assert.Len(t, rep.Collections, 2)
	assert.True(t, rep.GrandTotal.Equal(dec("900")), "grand=%s", rep.GrandTotal)
	require.Len(t, rep.ByMode, 2)
	assert.Equal(t, models.PaymentCash, rep.ByMode[0].PaymentMode)
	assert.True(t, rep.ByMode[0].Total.Equal(dec("400")))
	assert.Equal(t, models.PaymentUPI, rep.ByMode[1].PaymentMode)
	assert.True(t, rep.ByMode[1].Total.Equal(dec("500")))

	rep, err = f.reports.CollectionsReport(ctx, reportFrom.AddDate(0, 0, -1), reportFrom.AddDate(0, 0, 1), nil)
	require.NoError(t, err)
	assert.Equal(t, int64(3), rep.Count)
	assert.True(t, rep.GrandTotal.Equal(dec("1000")))

	rep, err = f.reports.CollectionsReport(ctx, reportFrom, reportFrom.AddDate(0, 0, 1), &f.kumar.ID)
	require.NoError(t, err)
	assert.Zero(t, rep.Count)
	assert.Empty(t, rep.Collections)
	assert.Empty(t, rep.ByMode)
	assert.True(t, rep.GrandTotal.IsZero())
}

func TestOutstandingReport(t *testing.T) {
	f := seedReportData(t)

	rows, err := f.reports.OutstandingReport(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "Ganesh Motors", rows[0].RetailerName)
	assert.Equal(t, int64(1), rows[0].BillCount, "the paid bill is left out")
	assert.True(t, rows[0].TotalAmount.Equal(dec("1000")))
	assert.True(t, rows[0].TotalDue.Equal(dec("600")))

	assert.Equal(t, "Sharma Auto", rows[1].RetailerName)
	assert.True(t, rows[1].TotalDue.Equal(dec("200")))
}

func TestDSRSummary(t *testing.T) {
	f := seedReportData(t)

	rows, err := f.reports.DSRSummary(context.Background(), reportDay)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	kumar, ravi := rows[0], rows[1]
	assert.Equal(t, f.kumar.ID, kumar.DSRID)
	assert.Equal(t, int64(1), kumar.AssignedBills)
	assert.True(t, kumar.OutstandingDue.Equal(dec("200")))
	assert.Zero(t, kumar.DueToday)
	assert.Zero(t, kumar.CollectedCount, "admin collections are not credited to the assignee")
	assert.True(t, kumar.CollectedAmount.IsZero())

	assert.Equal(t, f.ravi.ID, ravi.DSRID)
	assert.Equal(t, int64(1), ravi.AssignedBills)
	assert.True(t, ravi.OutstandingDue.Equal(dec("600")))
	assert.Equal(t, int64(1), ravi.DueToday)
	assert.Equal(t, int64(2), ravi.CollectedCount)
	assert.True(t, ravi.CollectedAmount.Equal(dec("900")))

	rows, err = f.reports.DSRSummary(context.Background(), dayBefore)
	require.NoError(t, err)
	assert.Zero(t, rows[1].DueToday, "R-1 is not due on a Monday")
	assert.Zero(t, rows[1].CollectedCount)
}

func TestDashboard(t *testing.T) {
	f := seedReportData(t)
	require.NoError(t, f.db.Create(&models.Product{Code: "LOW-1", Name: "Low", Price: dec("1"), Stock: 2}).Error)
	require.NoError(t, f.db.Create(&models.Product{Code: "OK-1", Name: "Plenty", Price: dec("1"), Stock: 50}).Error)

	d, err := f.reports.Dashboard(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[models.BillStatus]int64{
		models.BillUnpaid: 0, models.BillPartiallyPaid: 2, models.BillPaid: 1,
	}, d.BillsByStatus)
	assert.True(t, d.TotalBilled.Equal(dec("1800")))
	assert.True(t, d.TotalDue.Equal(dec("800")))
	assert.True(t, d.CollectedToday.Equal(dec("900")))
	assert.Equal(t, int64(2), d.Products)
	assert.Equal(t, int64(1), d.LowStock)
	assert.Zero(t, d.PendingOrders)
	assert.Equal(t, 2, d.ActiveDSRs)
}
