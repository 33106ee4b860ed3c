package commands

import (
	"context"
	"fmt"

	"logmerge/internal/application"
	"logmerge/internal/domain"
)

// MergeResult contains the outcome of a merge rebuild
type MergeResult struct {
	Rows         int
	Channels     int
	EmptyOverlap bool
	Message      string
}

// MergeCommand configures a test's join strategy and rebuilds its merged
// table
type MergeCommand struct {
	ws        *application.Workspace
	TestID    string
	Strategy  domain.JoinStrategy
	KeyID     string
	Tolerance float64
	Gap       float64
	TimeMode  domain.TimeMode
}

// NewMergeCommand creates a new MergeCommand. Fields default to the test's
// current configuration, so a rebuild without explicit overrides does not
// reset earlier choices.
func NewMergeCommand(ws *application.Workspace, testID string) *MergeCommand {
	c := &MergeCommand{
		ws:        ws,
		TestID:    testID,
		Strategy:  domain.JoinTimeNearest,
		Tolerance: domain.DefaultTolerance,
	}
	if t, err := ws.Test(testID); err == nil {
		c.TimeMode = t.TimeMode
		c.Strategy = t.Strategy
		c.KeyID = t.KeyID
		c.Gap = t.Gap
		if t.Tolerance > 0 {
			c.Tolerance = t.Tolerance
		}
	}
	return c
}

// Validate checks if the merge operation is valid
func (c *MergeCommand) Validate() error {
	if err := application.ValidateRequired("testID", c.TestID); err != nil {
		return err
	}
	if c.Strategy == domain.JoinAlternativeKey {
		return application.ValidateRequired("keyID", c.KeyID)
	}
	return nil
}

// Execute runs the merge command
func (c *MergeCommand) Execute(ctx context.Context) (*MergeResult, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	if err := c.ws.SetTimeMode(c.TestID, c.TimeMode); err != nil {
		return nil, err
	}
	if err := c.ws.SetJoin(c.TestID, c.Strategy, c.KeyID, c.Tolerance, c.Gap); err != nil {
		return nil, err
	}
	committed, err := c.ws.RebuildMerged(ctx, c.TestID)
	if err != nil {
		return nil, fmt.Errorf("failed to merge: %w", err)
	}
	if !committed {
		return nil, fmt.Errorf("merge superseded by a concurrent change: %w", application.ErrInvalidOperation)
	}

	snap, err := c.ws.Merged(c.TestID)
	if err != nil {
		return nil, err
	}
	res := &MergeResult{
		Rows:         snap.Table.RowCount(),
		Channels:     len(snap.Table.ChannelIDs()),
		EmptyOverlap: snap.EmptyOverlap,
		Message: fmt.Sprintf("Merged %d rows across %d channels (%s)",
			snap.Table.RowCount(), len(snap.Table.ChannelIDs()), c.Strategy),
	}
	if snap.EmptyOverlap {
		res.Message += "; warning: files share no overlapping keys"
	}
	return res, nil
}
