package paste

import "time"

// SetRetry changes the retry policy so tests don't wait.
func (c *Client) SetRetry(attempts int, delay time.Duration) {
	c.attempts = attempts
	c.delay = delay
}
