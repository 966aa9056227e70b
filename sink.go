package fabriclog

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/xuri/excelize/v2"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// Sink appends one flat row to an append-only store.
type Sink interface {
	Append(ctx context.Context, row []any) error
}

// SheetsSink appends rows to one sheet of a Google spreadsheet.
type SheetsSink struct {
	svc           *sheets.Service
	spreadsheetID string
	sheet         string
	log           *slog.Logger
}

// NewSheetsSink connects to the Sheets API. Credentials come from opts, for
// example option.WithCredentialsJSON; without them Application Default
// Credentials are used.
func NewSheetsSink(ctx context.Context, spreadsheetID, sheet string, log *slog.Logger, opts ...option.ClientOption) (*SheetsSink, error) {
	if spreadsheetID == "" {
		return nil, fmt.Errorf("sheets sink: spreadsheet id is empty")
	}
	if log == nil {
		log = slog.Default()
	}
	opts = append([]option.ClientOption{option.WithScopes(sheets.SpreadsheetsScope)}, opts...)
	svc, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("sheets sink: %w", err)
	}
	return &SheetsSink{svc: svc, spreadsheetID: spreadsheetID, sheet: sheet, log: log}, nil
}

// Append adds row below the last row of the sheet.
func (s *SheetsSink) Append(ctx context.Context, row []any) error {
	vr := &sheets.ValueRange{Values: [][]any{row}}
	resp, err := s.svc.Spreadsheets.Values.
		Append(s.spreadsheetID, sheetRange(s.sheet), vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("append to sheet %q: %w", s.sheet, err)
	}
	if resp.Updates != nil {
		s.log.Debug("Row appended", "range", resp.Updates.UpdatedRange, "cells", resp.Updates.UpdatedCells)
	}
	return nil
}

// sheetRange quotes the sheet title for A1 notation.
func sheetRange(sheet string) string {
	if sheet == "" {
		return "A1"
	}
	return "'" + strings.ReplaceAll(sheet, "'", "''") + "'!A1"
}

// WorkbookSink appends rows to a local .xlsx file, creating the file and a
// header row when needed.
type WorkbookSink struct {
	path  string
	sheet string

	mu sync.Mutex
}

// NewWorkbookSink returns a sink writing to path. The file is created on the
// first append.
func NewWorkbookSink(path, sheet string) (*WorkbookSink, error) {
	if path == "" {
		return nil, fmt.Errorf("workbook sink: path is empty")
	}
	if sheet == "" {
		sheet = "Sheet1"
	}
	return &WorkbookSink{path: path, sheet: sheet}, nil
}

// Append writes row after the last used row.
func (w *WorkbookSink) Append(ctx context.Context, row []any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	var f *excelize.File
	if _, err := os.Stat(w.path); errors.Is(err, fs.ErrNotExist) {
		f = excelize.NewFile()
	} else if f, err = excelize.OpenFile(w.path); err != nil {
		return fmt.Errorf("open workbook %s: %w", w.path, err)
	}
	defer f.Close()

	idx, err := f.NewSheet(w.sheet)
	if err != nil {
		return fmt.Errorf("workbook sheet %q: %w", w.sheet, err)
	}
	f.SetActiveSheet(idx)

	rows, err := f.GetRows(w.sheet)
	if err != nil {
		return fmt.Errorf("workbook rows: %w", err)
	}
	next := len(rows) + 1
	if len(rows) == 0 {
		header := Header()
		if err := f.SetSheetRow(w.sheet, "A1", &header); err != nil {
			return fmt.Errorf("workbook header: %w", err)
		}
		next = 2
	}

	cell, err := excelize.CoordinatesToCellName(1, next)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(w.sheet, cell, &row); err != nil {
		return fmt.Errorf("workbook row: %w", err)
	}
	if err := f.SaveAs(w.path); err != nil {
		return fmt.Errorf("save workbook %s: %w", w.path, err)
	}
	return nil
}
