package conda

import (
	"context"
	"fmt"

	"bootconda/internal/catalog"
)

// Channels returns the configured channels in conda's priority order.
func (c *Client) Channels(ctx context.Context) ([]string, error) {
	out, err := c.query(ctx, "config", "--get", "channels", "--json")
	if err != nil {
		return nil, err
	}
	channels, err := catalog.ParseChannels(out)
	if err != nil {
		return nil, fmt.Errorf("parse channels: %w", err)
	}
	return channels, nil
}

// AddChannel puts channel at the top of the channel list.
func (c *Client) AddChannel(ctx context.Context, channel string) error {
	if err := requireArg("channel", channel); err != nil {
		return err
	}
	return c.exec(ctx, "config", "--add", "channels", channel, "--force")
}

func (c *Client) RemoveChannel(ctx context.Context, channel string) error {
	if err := requireArg("channel", channel); err != nil {
		return err
	}
	return c.exec(ctx, "config", "--remove", "channels", channel, "--force")
}
