package xlsx

import (
	"context"
	"errors"
	"math"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"

	"logmerge/internal/application"
)

func writeWorkbook(t *testing.T, rows [][]any) string {
	t.Helper()
	book := excelize.NewFile()
	defer book.Close()
	sheet := book.GetSheetName(0)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatal(err)
		}
		if err := book.SetSheetRow(sheet, cell, &row); err != nil {
			t.Fatal(err)
		}
	}
	path := filepath.Join(t.TempDir(), "run.xlsx")
	if err := book.SaveAs(path); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestReader_CanRead(t *testing.T) {
	r := NewReader()
	if !r.CanRead("a.xlsx") || !r.CanRead("b.XLS") {
		t.Error("spreadsheet extensions rejected")
	}
	if r.CanRead("a.csv") {
		t.Error("csv accepted")
	}
}

func TestReader_FirstSheet(t *testing.T) {
	path := writeWorkbook(t, [][]any{
		{"Time [s]", "Temperature [C]", "Flow_lpm"},
		{0.0, 20.5, 3.1},
		{1.0, nil, 3.2},
		{2.0, 22.5, 3.3},
	})

	file, err := NewReader().Read(context.Background(), path)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(file.Channels) != 3 {
		t.Fatalf("channels = %d", len(file.Channels))
	}
	if file.Channels[2].Unit != "lpm" || file.Channels[2].Category != "Flow" {
		t.Errorf("channel 2 = %+v", file.Channels[2])
	}
	if file.RowCount() != 3 {
		t.Fatalf("rows = %d", file.RowCount())
	}

	temp, _ := file.Columns.Column(file.Channels[1].ID)
	if !math.IsNaN(temp[1]) {
		t.Errorf("empty cell = %v, want NaN", temp[1])
	}
}

func TestReader_NonNumericCell(t *testing.T) {
	path := writeWorkbook(t, [][]any{
		{"Time [s]", "Temp [C]"},
		{0.0, "warm"},
	})

	_, err := NewReader().Read(context.Background(), path)
	if !errors.Is(err, application.ErrParseFailed) {
		t.Errorf("err = %v, want ErrParseFailed", err)
	}
}

func TestReader_LegacyXLSRejected(t *testing.T) {
	_, err := NewReader().Read(context.Background(), "old.xls")
	if !errors.Is(err, application.ErrParseFailed) {
		t.Errorf("err = %v, want ErrParseFailed", err)
	}
}
