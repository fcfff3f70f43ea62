package importer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"laxmi-billing/internal/models"
	"laxmi-billing/internal/service"
	"laxmi-billing/pkg/database"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

type recordingSink struct {
	progress [][2]int
	results  []Result
	failures []string
}

func (s *recordingSink) Progress(current, total int) { s.progress = append(s.progress, [2]int{current, total}) }
func (s *recordingSink) Result(r Result)             { s.results = append(s.results, r) }
func (s *recordingSink) Fail(msg string)             { s.failures = append(s.failures, msg) }

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

var admin = service.Actor{ID: 1, Name: "admin", Role: models.RoleAdmin}

func newDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.OpenInMemory()
	require.NoError(t, err)
	require.NoError(t, db.Create(&models.Role{Name: models.RoleAdmin}).Error)
	require.NoError(t, db.Create(&models.Role{Name: models.RoleDSR}).Error)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func csvSheet(t *testing.T, body string) *Sheet {
	t.Helper()
	s, err := ParseSheet(strings.NewReader(body), ".csv")
	require.NoError(t, err)
	return s
}

func productRows(db *gorm.DB) ProductRows {
	return ProductRows{Store: service.NewProductService(db), Actor: admin}
}

func TestProductImportAllValid(t *testing.T) {
	db := newDB(t)
	sheet := csvSheet(t, "Product Code,Company Name,Product Name,Price,Weight,Stock\n"+
		"srv-1,Servo,Engine Oil,450,1,10\n"+
		"\n"+
		"srv-2,Servo,Gear Oil,\"1,200.50\",0.5,12.0\n"+
		"srv-3,Castrol,Coolant,99,5,0\n")

	sink := &recordingSink{}
	res, err := Pipeline{}.Run(context.Background(), sheet, productRows(db), sink)
	require.NoError(t, err)

	assert.Equal(t, [][2]int{{1, 3}, {2, 3}, {3, 3}}, sink.progress)
	require.Len(t, sink.results, 1)
	assert.Equal(t, 3, res.ImportedCount)
	assert.Zero(t, res.ErrorCount)
	assert.Empty(t, res.Errors)

	var p models.Product
	require.NoError(t, db.Where("code = ?", "SRV-2").First(&p).Error)
	assert.Equal(t, "Gear Oil", p.Name)
	assert.Equal(t, "Servo", p.Company)
	assert.True(t, p.Price.Equal(dec("1200.50")), "price=%s", p.Price)
	assert.Equal(t, 12, p.Stock)
}

func TestProductImportDuplicateContinues(t *testing.T) {
	db := newDB(t)
	require.NoError(t, db.Create(&models.Product{Code: "SRV-2", Name: "Existing", Price: dec("1")}).Error)
	sheet := csvSheet(t, "code,name,price,weight,stock\n"+
		"SRV-1,A,1,1,1\n"+
		"srv-2,B,1,1,1\n"+
		"SRV-3,C,1,1,1\n"+
		"SRV-3,D,1,1,1\n")

	sink := &recordingSink{}
	res, err := Pipeline{}.Run(context.Background(), sheet, productRows(db), sink)
	require.NoError(t, err)

	assert.Equal(t, 2, res.ImportedCount)
	assert.Equal(t, 2, res.ErrorCount)
	assert.Equal(t, []string{
		"Row 3: product code SRV-2 already exists",
		"Row 5: product code SRV-3 already exists",
	}, res.Errors)
	assert.Equal(t, [][2]int{{1, 4}, {3, 4}}, sink.progress)
}

func TestProductImportBadValues(t *testing.T) {
	db := newDB(t)
	sheet := csvSheet(t, "code,name,price,weight,stock\n"+
		"P1,A,abc,1,1\n"+
		"P2,B,1,1,-3\n"+
		"P3,C,1,1,2.5\n"+
		",D,1,1,1\n"+
		"P5,E,1,,1\n")

	res, err := Pipeline{}.Run(context.Background(), sheet, productRows(db), &recordingSink{})
	require.NoError(t, err)
	assert.Zero(t, res.ImportedCount)
	assert.Equal(t, 5, res.ErrorCount)
	assert.Equal(t, `Row 2: invalid price "abc"`, res.Errors[0])
	assert.Equal(t, "Row 3: stock cannot be negative", res.Errors[1])
	assert.Equal(t, `Row 4: invalid stock "2.5"`, res.Errors[2])
	assert.Equal(t, "Row 5: product code is empty", res.Errors[3])
	assert.Equal(t, "Row 6: weight is empty", res.Errors[4])
}

func TestProductImportRejectsNonFiniteNumbers(t *testing.T) {
	db := newDB(t)
	sheet := csvSheet(t, "code,name,price,weight,stock,mrp\n"+
		"P1,A,NaN,1,1,\n"+
		"P2,B,1,Inf,1,\n"+
		"P3,C,1,1,1,-infinity\n"+
		"P4,D,1,1,nan,\n"+
		"P5,E,1,1,1,\n")

	res, err := Pipeline{}.Run(context.Background(), sheet, productRows(db), &recordingSink{})
	require.NoError(t, err)
	assert.Equal(t, 1, res.ImportedCount)
	assert.Equal(t, []string{
		`Row 2: invalid price "NaN"`,
		`Row 3: invalid weight "Inf"`,
		`Row 4: invalid mrp "-infinity"`,
		`Row 5: invalid stock "nan"`,
	}, res.Errors)
}

func TestImportMissingColumnAbortsBeforeRows(t *testing.T) {
	db := newDB(t)
	sheet := csvSheet(t, "code,name,price,stock\nP1,A,1,1\n")

	sink := &recordingSink{}
	_, err := Pipeline{}.Run(context.Background(), sheet, productRows(db), sink)

	var missing *MissingColumnsError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, []string{"weight"}, missing.Columns)
	assert.Empty(t, sink.progress)
	assert.Empty(t, sink.results)
	assert.Len(t, sink.failures, 1)

	var n int64
	db.Model(&models.Product{}).Count(&n)
	assert.Zero(t, n)
}

func TestImportErrorDetailsAreCapped(t *testing.T) {
	db := newDB(t)
	var b strings.Builder
	b.WriteString("code,name,price,weight,stock\n")
	for i := 0; i < 15; i++ {
		b.WriteString("X,,1,1,1\n")
	}
	res, err := Pipeline{MaxErrorDetails: 10}.Run(context.Background(), csvSheet(t, b.String()), productRows(db), &recordingSink{})
	require.NoError(t, err)
	assert.Equal(t, 15, res.ErrorCount)
	assert.Len(t, res.Errors, 10)
}

type panickyRows struct{}

func (panickyRows) Entity() string    { return "test" }
func (panickyRows) Columns() []Column { return []Column{{Key: "v", Match: "v", Required: true}} }
func (panickyRows) ImportRow(_ context.Context, row Row) (string, error) {
	switch row.Get("v") {
	case "boom":
		panic("boom")
	case "bad":
		return "", errors.New("bad value")
	}
	return "", nil
}

func TestRowPanicDoesNotAbort(t *testing.T) {
	sink := &recordingSink{}
	res, err := Pipeline{}.Run(context.Background(), csvSheet(t, "v\nok\nboom\nbad\nok\n"), panickyRows{}, sink)
	require.NoError(t, err)
	assert.Equal(t, 2, res.ImportedCount)
	assert.Equal(t, 2, res.ErrorCount)
	assert.Equal(t, "Row 3: unexpected error: boom", res.Errors[0])
	assert.Equal(t, "Row 4: bad value", res.Errors[1])
	assert.Equal(t, [][2]int{{1, 4}, {4, 4}}, sink.progress)
}

func TestRetailerImport(t *testing.T) {
	db := newDB(t)
	var dsrRole models.Role
	require.NoError(t, db.Where("name = ?", models.RoleDSR).First(&dsrRole).Error)
	ravi := models.User{EmployeeID: "DSR001", Username: "Ravi", PasswordHash: "x", RoleID: dsrRole.ID, IsActive: true}
	require.NoError(t, db.Create(&ravi).Error)
	require.NoError(t, db.Create(&models.Retailer{Name: "Sharma Auto Parts", Address1: "Main Bazar"}).Error)

	sheet := csvSheet(t, "Retailer Name,Address 1,Address 2,Day Assigned,Assigned To\n"+
		"Ganesh Motors,Station Road,,MON,ravi\n"+
		"Patel Stores,Ring Road,Near Bus Stand,Funday,\n"+
		"sharma auto,Elsewhere,,TUE,\n"+
		"Krishna Garage,NH 48,,wednesday,Mohan\n"+
		"No Address,,,,\n")

	rows := RetailerRows{Store: service.NewRetailerService(db), Staff: service.NewStaffDirectory(db), Actor: admin}
	sink := &recordingSink{}
	res, err := Pipeline{}.Run(context.Background(), sheet, rows, sink)
	require.NoError(t, err)

	assert.Equal(t, 3, res.ImportedCount)
	assert.Equal(t, 3, res.ErrorCount)
	assert.Equal(t, []string{
		"Row 4: retailer sharma auto already exists",
		"Row 5: staff 'Mohan' not found, retailer created unassigned",
		"Row 6: address 1 is empty",
	}, res.Errors)
	assert.Equal(t, [][2]int{{1, 5}, {2, 5}, {4, 5}}, sink.progress)

	var ganesh, patel, krishna models.Retailer
	require.NoError(t, db.Where("name = ?", "Ganesh Motors").First(&ganesh).Error)
	assert.Equal(t, "Monday", ganesh.DayAssigned)
	require.NotNil(t, ganesh.AssignedToID)
	assert.Equal(t, ravi.ID, *ganesh.AssignedToID)

	require.NoError(t, db.Where("name = ?", "Patel Stores").First(&patel).Error)
	assert.Equal(t, "", patel.DayAssigned)
	assert.Equal(t, "Near Bus Stand", patel.Address2)

	require.NoError(t, db.Where("name = ?", "Krishna Garage").First(&krishna).Error)
	assert.Nil(t, krishna.AssignedToID)
	assert.Equal(t, "Wednesday", krishna.DayAssigned)
}

func TestResolveColumnsClaimsEachHeaderOnce(t *testing.T) {
	cols, err := ResolveColumns([]string{"Company Name", "Name", "Code"}, ProductRows{}.Columns()[:3])
	require.NoError(t, err)
	assert.Equal(t, Columns{"code": 2, "company": 0, "name": 1}, cols)

	_, err = ResolveColumns([]string{"Company Name", "Code"}, ProductRows{}.Columns()[:3])
	var missing *MissingColumnsError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, []string{"name"}, missing.Columns)
}

func TestReadSheetXLSX(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]any{"Code", "Name", "Price", "Weight", "Stock"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]any{"x1", "Oil", 450, 1, 10}))
	require.NoError(t, f.SetSheetRow(sheet, "A4", &[]any{"x2", "Grease", 99.5, 0.5, 3}))
	path := filepath.Join(t.TempDir(), "products.xlsx")
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	s, err := ReadSheet(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"Code", "Name", "Price", "Weight", "Stock"}, s.Header)
	require.Len(t, s.Rows, 3)
	assert.True(t, isBlank(s.Rows[1]))
	assert.Equal(t, "Grease", s.Rows[2][1])
}

func TestReadSheetRejectsUnreadable(t *testing.T) {
	_, err := ParseSheet(strings.NewReader("not a zip"), ".xlsx")
	assert.Error(t, err)

	_, err = ParseSheet(strings.NewReader("a,b"), ".pdf")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = ParseSheet(strings.NewReader(""), ".csv")
	assert.Error(t, err)
}

type brokenWriter struct{ writes int }

func (w *brokenWriter) Write(p []byte) (int, error) {
	w.writes++
	return 0, errors.New("broken pipe")
}

func TestNDJSONSink(t *testing.T) {
	var buf bytes.Buffer
	sink := NewNDJSONSink(&buf)
	sink.Progress(1, 2)
	sink.Result(Result{ImportedCount: 1, ErrorCount: 1, Errors: []string{"Row 3: bad"}})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.JSONEq(t, `{"type":"progress","current":1,"total":2}`, lines[0])
	assert.JSONEq(t, `{"type":"result","importedCount":1,"errorCount":1,"errors":["Row 3: bad"]}`, lines[1])

	buf.Reset()
	NewNDJSONSink(&buf).Fail("missing required columns: weight")
	var ev map[string]string
	require.NoError(t, json.Unmarshal(buf.Bytes(), &ev))
	assert.Equal(t, "error", ev["type"])

	w := &brokenWriter{}
	gone := NewNDJSONSink(w)
	gone.Progress(1, 3)
	gone.Progress(2, 3)
	gone.Result(Result{})
	assert.True(t, gone.Gone())
	assert.Equal(t, 1, w.writes)
}
