// Package importer reads product and retailer spreadsheets and feeds their
// rows, one at a time, into the catalog.
package importer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ErrUnsupportedFormat is returned for files that are neither .xlsx nor .csv.
var ErrUnsupportedFormat = errors.New("unsupported file type, upload .xlsx or .csv")

// Sheet is a header row plus the data rows below it.
type Sheet struct {
	Header []string
	Rows   [][]string
}

// ReadSheet loads the first worksheet of an .xlsx file or a whole .csv file.
func ReadSheet(path string) (*Sheet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()
	return ParseSheet(f, filepath.Ext(path))
}

// ParseSheet is ReadSheet for an already open reader. ext selects the format.
func ParseSheet(r io.Reader, ext string) (*Sheet, error) {
	var (
		rows [][]string
		err  error
	)
	switch strings.ToLower(ext) {
	case ".xlsx", ".xlsm":
		rows, err = readXLSX(r)
	case ".csv":
		rows, err = readCSV(r)
	default:
		return nil, ErrUnsupportedFormat
	}
	if err != nil {
		return nil, fmt.Errorf("unreadable spreadsheet: %w", err)
	}
	if len(rows) == 0 || isBlank(rows[0]) {
		return nil, errors.New("spreadsheet has no header row")
	}

	header := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		header[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	}
	return &Sheet{Header: header, Rows: rows[1:]}, nil
}

func readXLSX(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("workbook has no sheets")
	}
	return f.GetRows(sheets[0])
}

func readCSV(r io.Reader) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true
	return cr.ReadAll()
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
