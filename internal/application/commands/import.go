package commands

import (
	"context"
	"fmt"

	"logmerge/internal/application"
)

// ImportResult contains the result of importing files into a test
type ImportResult struct {
	Reports []application.ImportReport
	Failed  int
	Message string
}

// ImportCommand imports one or more log files into a test
type ImportCommand struct {
	ws     *application.Workspace
	TestID string
	Paths  []string

	// AcceptRenames maps fuzzy rename proposals automatically. When false,
	// proposals are treated as new channels instead.
	AcceptRenames bool
}

// NewImportCommand creates a new ImportCommand
func NewImportCommand(ws *application.Workspace, testID string, paths []string, acceptRenames bool) *ImportCommand {
	return &ImportCommand{
		ws:            ws,
		TestID:        testID,
		Paths:         paths,
		AcceptRenames: acceptRenames,
	}
}

// Validate checks if the import operation is valid
func (c *ImportCommand) Validate() error {
	if err := application.ValidateRequired("testID", c.TestID); err != nil {
		return err
	}
	if len(c.Paths) == 0 {
		return &application.ValidationError{
			Field:   "paths",
			Message: "at least one file path is required",
		}
	}
	return nil
}

// Execute runs the import command
func (c *ImportCommand) Execute(ctx context.Context) (*ImportResult, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	resolve := application.RejectRenames
	if c.AcceptRenames {
		resolve = application.AcceptRenames
	}

	reports, err := c.ws.ImportFiles(ctx, c.TestID, c.Paths, resolve)
	if err != nil {
		return nil, fmt.Errorf("failed to import files: %w", err)
	}

	failed := 0
	for _, r := range reports {
		if r.Err != nil {
			failed++
		}
	}

	return &ImportResult{
		Reports: reports,
		Failed:  failed,
		Message: fmt.Sprintf("Imported %d of %d files", len(reports)-failed, len(reports)),
	}, nil
}
