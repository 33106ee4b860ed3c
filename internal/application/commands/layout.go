package commands

import (
	"context"
	"fmt"
	"os"

	"logmerge/internal/application"
	"logmerge/internal/domain"
	"logmerge/internal/layout"
)

// SaveLayoutResult contains the result of saving a layout
type SaveLayoutResult struct {
	Tests   int
	Message string
}

// SaveLayoutCommand persists the workspace as a layout document
type SaveLayoutCommand struct {
	ws          *application.Workspace
	Path        string
	CompareMode domain.CompareMode
	Gap         float64
}

// NewSaveLayoutCommand creates a new SaveLayoutCommand
func NewSaveLayoutCommand(ws *application.Workspace, path string) *SaveLayoutCommand {
	return &SaveLayoutCommand{ws: ws, Path: path}
}

// Validate checks if the save operation is valid
func (c *SaveLayoutCommand) Validate() error {
	return application.ValidateRequired("path", c.Path)
}

// Execute runs the save layout command
func (c *SaveLayoutCommand) Execute(ctx context.Context) (*SaveLayoutResult, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	doc, err := layout.Snapshot(c.ws, c.CompareMode, c.Gap)
	if err != nil {
		return nil, fmt.Errorf("failed to snapshot workspace: %w", err)
	}
	f, err := os.Create(c.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to create layout file: %w", err)
	}
	defer f.Close()
	if err := layout.Encode(f, doc); err != nil {
		return nil, fmt.Errorf("failed to write layout: %w", err)
	}

	return &SaveLayoutResult{
		Tests:   len(doc.Tests),
		Message: fmt.Sprintf("Saved %d tests to %s", len(doc.Tests), c.Path),
	}, nil
}

// LoadLayoutResult contains the result of loading a layout
type LoadLayoutResult struct {
	Tests   int
	Missing []layout.MissingFile
	Message string
}

// LoadLayoutCommand restores a saved layout into the workspace. Missing
// referenced files are reported, not fatal; Remap substitutes new paths for
// moved files.
type LoadLayoutCommand struct {
	ws    *application.Workspace
	Path  string
	Remap map[string]string
}

// NewLoadLayoutCommand creates a new LoadLayoutCommand
func NewLoadLayoutCommand(ws *application.Workspace, path string) *LoadLayoutCommand {
	return &LoadLayoutCommand{ws: ws, Path: path}
}

// Validate checks if the load operation is valid
func (c *LoadLayoutCommand) Validate() error {
	return application.ValidateRequired("path", c.Path)
}

// Execute runs the load layout command
func (c *LoadLayoutCommand) Execute(ctx context.Context) (*LoadLayoutResult, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	f, err := os.Open(c.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open layout file: %w", err)
	}
	defer f.Close()
	doc, err := layout.Decode(f)
	if err != nil {
		return nil, err
	}

	missing, err := layout.Apply(ctx, c.ws, doc, c.Remap)
	if err != nil {
		return nil, fmt.Errorf("failed to apply layout: %w", err)
	}

	msg := fmt.Sprintf("Loaded %d tests from %s", len(doc.Tests), c.Path)
	if len(missing) > 0 {
		msg += fmt.Sprintf(" (%d files missing, remap and reload)", len(missing))
	}
	return &LoadLayoutResult{
		Tests:   len(doc.Tests),
		Missing: missing,
		Message: msg,
	}, nil
}
