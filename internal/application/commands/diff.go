package commands

import (
	"context"
	"fmt"

	"logmerge/internal/application"
	"logmerge/internal/domain"
)

// DiffResult contains the classification of one file against a test
type DiffResult struct {
	Diff    *domain.HeaderDiff
	Message string
}

// DiffCommand classifies a file's headers against a test's canonical
// channels without attaching the file
type DiffCommand struct {
	ws     *application.Workspace
	TestID string
	Path   string
}

// NewDiffCommand creates a new DiffCommand
func NewDiffCommand(ws *application.Workspace, testID, path string) *DiffCommand {
	return &DiffCommand{ws: ws, TestID: testID, Path: path}
}

// Validate checks if the diff operation is valid
func (c *DiffCommand) Validate() error {
	if err := application.ValidateRequired("testID", c.TestID); err != nil {
		return err
	}
	return application.ValidateRequired("path", c.Path)
}

// Execute runs the diff command
func (c *DiffCommand) Execute(ctx context.Context) (*DiffResult, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	file, err := c.ws.ParseFile(ctx, c.Path)
	if err != nil {
		return nil, err
	}
	diff, err := c.ws.DiffAgainst(c.TestID, file.Channels)
	if err != nil {
		return nil, err
	}

	counts := make(map[domain.Classification]int)
	for _, e := range diff.Entries {
		counts[e.Class]++
	}
	return &DiffResult{
		Diff: diff,
		Message: fmt.Sprintf("%d matched, %d renamed, %d added, %d removed",
			counts[domain.ClassMatched], counts[domain.ClassRenamed],
			counts[domain.ClassAdded], counts[domain.ClassRemoved]),
	}, nil
}
