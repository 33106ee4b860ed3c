package commands

import (
	"context"
	"fmt"

	"logmerge/internal/application"
	"logmerge/internal/domain"
)

// ChannelEntry is one listed channel, with statistics when a merged table
// exists
type ChannelEntry struct {
	Descriptor domain.ChannelDescriptor
	Stats      domain.ColumnStats
	HasStats   bool
}

// ChannelsResult contains the visible channels of a test
type ChannelsResult struct {
	Entries []ChannelEntry
	Groups  map[string]map[string][]domain.ChannelDescriptor
	Message string
}

// ChannelsCommand lists a test's canonical channels, optionally narrowed by
// a query and grouped by category and unit
type ChannelsCommand struct {
	ws      *application.Workspace
	TestID  string
	Query   domain.ChannelQuery
	Grouped bool
}

// NewChannelsCommand creates a new ChannelsCommand
func NewChannelsCommand(ws *application.Workspace, testID string) *ChannelsCommand {
	return &ChannelsCommand{ws: ws, TestID: testID}
}

// Validate checks if the channels operation is valid
func (c *ChannelsCommand) Validate() error {
	return application.ValidateRequired("testID", c.TestID)
}

// Execute runs the channels command
func (c *ChannelsCommand) Execute(ctx context.Context) (*ChannelsResult, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	channels, err := c.ws.Channels(c.TestID)
	if err != nil {
		return nil, err
	}
	visible := domain.VisibleChannels(channels, c.Query)

	snap, err := c.ws.Merged(c.TestID)
	if err != nil {
		return nil, err
	}

	res := &ChannelsResult{
		Message: fmt.Sprintf("%d of %d channels", len(visible), len(channels)),
	}
	for _, ch := range visible {
		entry := ChannelEntry{Descriptor: ch}
		if snap.Table != nil {
			entry.Stats, entry.HasStats = snap.Table.Stats(ch.ID)
		}
		res.Entries = append(res.Entries, entry)
	}
	if c.Grouped {
		res.Groups = domain.GroupChannels(visible)
	}
	return res, nil
}
