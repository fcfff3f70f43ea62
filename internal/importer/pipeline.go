package importer

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"laxmi-billing/internal/apperror"
)

const DefaultMaxErrorDetails = 10

// Result is the summary sent once an import finishes.
type Result struct {
	ImportedCount int      `json:"importedCount"`
	ErrorCount    int      `json:"errorCount"`
	Errors        []string `json:"errors"`
}

// ProgressSink receives the events of one import run.
type ProgressSink interface {
	Progress(current, total int)
	Result(Result)
	Fail(message string)
}

// RowHandler parses, checks and persists the rows of one entity.
type RowHandler interface {
	Entity() string
	Columns() []Column
	// ImportRow persists a row. warning is set when the row was stored with
	// a caveat worth reporting.
	ImportRow(ctx context.Context, row Row) (warning string, err error)
}

// Pipeline runs a sheet through a RowHandler sequentially.
type Pipeline struct {
	MaxErrorDetails int
}

type run struct {
	result Result
	max    int
}

func (r *run) fail(rowNo int, msg string) {
	r.result.ErrorCount++
	if len(r.result.Errors) < r.max {
		r.result.Errors = append(r.result.Errors, fmt.Sprintf("Row %d: %s", rowNo, msg))
	}
}

// Run processes every non-blank data row of sheet. Only structural problems
// (missing columns) are returned as errors; bad rows end up in the result.
func (p Pipeline) Run(ctx context.Context, sheet *Sheet, h RowHandler, sink ProgressSink) (Result, error) {
	cols, err := ResolveColumns(sheet.Header, h.Columns())
	if err != nil {
		sink.Fail(err.Error())
		return Result{}, err
	}

	limit := p.MaxErrorDetails
	if limit <= 0 {
		limit = DefaultMaxErrorDetails
	}
	r := &run{max: limit, result: Result{Errors: []string{}}}

	var rows []Row
	for i, cells := range sheet.Rows {
		if isBlank(cells) {
			continue
		}
		// header is spreadsheet row 1
		rows = append(rows, Row{Number: i + 2, cells: cells, cols: cols})
	}

	start := time.Now()
	total := len(rows)
	for i, row := range rows {
		warning, err := importRow(ctx, h, row)
		if err != nil {
			r.fail(row.Number, rowMessage(err))
			continue
		}
		r.result.ImportedCount++
		if warning != "" {
			r.fail(row.Number, warning)
		}
		sink.Progress(i+1, total)
	}

	log.Printf("Import %s finished: rows=%d imported=%d errors=%d in %s",
		h.Entity(), total, r.result.ImportedCount, r.result.ErrorCount, time.Since(start).Round(time.Millisecond))
	sink.Result(r.result)
	return r.result, nil
}

// importRow shields the loop from a panicking row.
func importRow(ctx context.Context, h RowHandler, row Row) (warning string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Printf("Import %s: recovered panic on row %d: %v", h.Entity(), row.Number, rec)
			err = fmt.Errorf("unexpected error: %v", rec)
		}
	}()
	return h.ImportRow(ctx, row)
}

func rowMessage(err error) string {
	var appErr *apperror.Error
	if !errors.As(err, &appErr) {
		return err.Error()
	}
	if appErr.Kind == apperror.KindInternal {
		log.Printf("Import row failed: %v", err)
		return "could not save row"
	}
	if len(appErr.Fields) <= 1 {
		return appErr.Message
	}
	msgs := make([]string, len(appErr.Fields))
	for i, f := range appErr.Fields {
		msgs[i] = f.Message
	}
	return strings.Join(msgs, "; ")
}
