package commands

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"

	"logmerge/internal/application"
	"logmerge/internal/domain"
)

// ExportResult contains the outcome of exporting a merged table
type ExportResult struct {
	Rows     int
	Channels int
	Message  string
}

// ExportCommand writes a test's merged table as CSV, restricted to the rows
// the current filter mask keeps
type ExportCommand struct {
	ws     *application.Workspace
	TestID string
	Out    io.Writer

	// Channels restricts the export to the named canonical ids; empty
	// exports every channel.
	Channels []string

	// IgnoreFilters exports every row regardless of the filter mask.
	IgnoreFilters bool
}

// NewExportCommand creates a new ExportCommand
func NewExportCommand(ws *application.Workspace, testID string, out io.Writer) *ExportCommand {
	return &ExportCommand{ws: ws, TestID: testID, Out: out}
}

// Validate checks if the export operation is valid
func (c *ExportCommand) Validate() error {
	if err := application.ValidateRequired("testID", c.TestID); err != nil {
		return err
	}
	if c.Out == nil {
		return &application.ValidationError{
			Field:   "out",
			Message: "output writer is required",
		}
	}
	return nil
}

// Execute runs the export command
func (c *ExportCommand) Execute(ctx context.Context) (*ExportResult, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	snap, err := c.ws.Merged(c.TestID)
	if err != nil {
		return nil, err
	}
	if snap.Table == nil {
		return nil, fmt.Errorf("test %s has no merged table: %w", c.TestID, application.ErrInvalidOperation)
	}

	ids := c.Channels
	if len(ids) == 0 {
		ids = snap.Table.ChannelIDs()
	}
	channels := make([]domain.ChannelDescriptor, 0, len(ids))
	cols := make([][]float64, 0, len(ids))
	for _, id := range ids {
		desc, err := c.ws.Channel(c.TestID, id)
		if err != nil {
			return nil, err
		}
		col, ok := snap.Table.Column(id)
		if !ok {
			return nil, fmt.Errorf("channel %s has no column: %w", id, application.ErrNotFound)
		}
		channels = append(channels, desc)
		cols = append(cols, col)
	}

	var mask []bool
	if !c.IgnoreFilters {
		mask, err = c.ws.FilterMask(c.TestID)
		if err != nil {
			return nil, err
		}
	}

	w := csv.NewWriter(c.Out)
	header := make([]string, 0, len(channels)+1)
	header = append(header, "Time")
	for _, ch := range channels {
		header = append(header, domain.FormatHeader(ch))
	}
	if err := w.Write(header); err != nil {
		return nil, fmt.Errorf("failed to write export: %w", err)
	}

	rows := 0
	record := make([]string, len(cols)+1)
	for i, t := range snap.Table.Time() {
		if mask != nil && !mask[i] {
			continue
		}
		record[0] = formatValue(t)
		for j, col := range cols {
			record[j+1] = formatValue(col[i])
		}
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write export: %w", err)
		}
		rows++
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("failed to write export: %w", err)
	}

	return &ExportResult{
		Rows:     rows,
		Channels: len(channels),
		Message:  fmt.Sprintf("Exported %d rows, %d channels", rows, len(channels)),
	}, nil
}

// formatValue renders a cell; NaN exports as an empty cell, mirroring how
// missing values are read in.
func formatValue(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}
