package completion

import (
	"context"
	"time"

	"dewey-hq/governor/pkg/config"
)

// SetSleepForTest replaces the client's backoff sleeper so tests in the
// external test package can record backoffs instead of waiting them out.
func (c *Client) SetSleepForTest(fn func(ctx context.Context, d time.Duration) error) {
	c.sleep = fn
}

// CfgForTest exposes the client's resolved configuration to tests in the
// external test package.
func (c *Client) CfgForTest() config.ClientConfig {
	return c.cfg
}
