// Package archive fetches daily measurement files from a path-addressed
// HTTP file archive and resolves which storage root actually holds them.
package archive

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/airsight-labs/airsight/internal/domain"
)

// maxDayFileBytes caps a single day file read. Real files are a few hundred
// kilobytes; the cap keeps a misconfigured root from streaming unbounded data.
const maxDayFileBytes = 64 << 20

// Client fetches day files over HTTP.
type Client struct {
	httpClient *http.Client
	prefix     string
	logger     *slog.Logger
}

// NewClient creates an archive client. prefix is the fixed filename prefix of
// the day files, e.g. "china_sites".
func NewClient(prefix string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		prefix: prefix,
		logger: logger,
	}
}

// DayPath builds the archive path for one day under a root:
// <root>/<YYYYMM>/<prefix>-<YYYYMMDD>00.csv
func (c *Client) DayPath(root, date string) string {
	return fmt.Sprintf("%s/%s/%s-%s00.csv", strings.TrimRight(root, "/"), domain.MonthOf(date), c.prefix, date)
}

// FetchDay retrieves the raw day file for date from the given root.
func (c *Client) FetchDay(ctx context.Context, root, date string) ([]byte, error) {
	u := c.DayPath(root, date)
	c.logger.Debug("fetching day file", "url", u)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch day %s: %w", date, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch day %s: status %d from %s", date, resp.StatusCode, u)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDayFileBytes))
	if err != nil {
		return nil, fmt.Errorf("read day %s: %w", date, err)
	}
	return data, nil
}
