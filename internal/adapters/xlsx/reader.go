package xlsx

import (
	"context"
	"math"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"logmerge/internal/application"
	"logmerge/internal/domain"
	"logmerge/internal/ports"
)

// Reader parses the first sheet of a spreadsheet: first row is the header,
// every later row holds numeric cells.
type Reader struct{}

// Ensure Reader implements FileReader
var _ ports.FileReader = (*Reader)(nil)

// NewReader creates a spreadsheet reader.
func NewReader() *Reader {
	return &Reader{}
}

// CanRead reports whether the extension is a spreadsheet format.
func (r *Reader) CanRead(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xls":
		return true
	}
	return false
}

// Read parses the first sheet into a DataFile. Legacy binary .xls files are
// rejected; convert them to .xlsx first.
func (r *Reader) Read(ctx context.Context, path string) (*domain.DataFile, error) {
	if strings.EqualFold(filepath.Ext(path), ".xls") {
		return nil, &application.ParseError{
			Path:   path,
			Reason: "legacy .xls is not supported, save the file as .xlsx",
		}
	}

	book, err := excelize.OpenFile(path)
	if err != nil {
		return nil, &application.ParseError{Path: path, Reason: err.Error()}
	}
	defer book.Close()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sheets := book.GetSheetList()
	if len(sheets) == 0 {
		return nil, &application.ParseError{Path: path, Reason: "workbook has no sheets"}
	}
	rows, err := book.GetRows(sheets[0])
	if err != nil {
		return nil, &application.ParseError{Path: path, Reason: err.Error()}
	}
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, &application.ParseError{Path: path, Reason: "no header row"}
	}

	header := rows[0]
	channels := domain.ParseHeaders(header)
	cols := make([][]float64, len(header))

	for rowIdx, row := range rows[1:] {
		if isBlankRow(row) {
			continue
		}
		for i := range header {
			// Trailing empty cells are omitted by the sheet reader.
			cell := ""
			if i < len(row) {
				cell = strings.TrimSpace(row[i])
			}
			if cell == "" {
				cols[i] = append(cols[i], math.NaN())
				continue
			}
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return nil, &application.ParseError{
					Path: path, Row: rowIdx + 1,
					Reason: "non-numeric cell " + strconv.Quote(cell),
				}
			}
			cols[i] = append(cols[i], v)
		}
	}

	store := domain.NewColumnStore()
	for i, ch := range channels {
		if err := store.Add(ch.ID, cols[i]); err != nil {
			return nil, &application.ParseError{Path: path, Reason: err.Error()}
		}
	}

	return &domain.DataFile{
		Path:         path,
		Name:         filepath.Base(path),
		Encoding:     "xlsx",
		Channels:     channels,
		TimeColumnID: domain.DetectTimeColumn(channels),
		TimeScale:    1,
		Columns:      store,
	}, nil
}

func isBlankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
