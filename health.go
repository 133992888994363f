package meili

import (
	"context"
	"fmt"
	"net/http"

	"github.com/kailas-cloud/meili/internal/transport/rest"
)

type healthBody struct {
	Health bool `json:"health"`
}

// IsHealthy reports whether the server answered the health probe. On
// failure the error is returned alongside false.
func (c *Client) IsHealthy(ctx context.Context) (bool, error) {
	err := c.caller.do(ctx, "health", rest.Request{
		Method: http.MethodGet,
		Path:   "/health",
	}, nil)
	if err != nil {
		return false, fmt.Errorf("health: %w", err)
	}
	return true, nil
}

// SetHealthy marks the server healthy.
func (c *Client) SetHealthy(ctx context.Context) error {
	return c.ChangeHealthTo(ctx, true)
}

// SetUnhealthy puts the server in maintenance: it answers health probes with
// an error until set healthy again.
func (c *Client) SetUnhealthy(ctx context.Context) error {
	return c.ChangeHealthTo(ctx, false)
}

// ChangeHealthTo sets the server health flag.
func (c *Client) ChangeHealthTo(ctx context.Context, healthy bool) error {
	err := c.caller.do(ctx, "change_health", rest.Request{
		Method: http.MethodPut,
		Path:   "/health",
		Body:   healthBody{Health: healthy},
	}, nil)
	if err != nil {
		return fmt.Errorf("change health: %w", err)
	}
	return nil
}

// GetKeys returns the API keys. Requires the master key.
func (c *Client) GetKeys(ctx context.Context) (Keys, error) {
	var out Keys
	if err := c.caller.do(ctx, "get_keys", rest.Request{Method: http.MethodGet, Path: "/keys"}, &out); err != nil {
		return Keys{}, fmt.Errorf("get keys: %w", err)
	}
	return out, nil
}

// DatabaseStats returns database-wide statistics.
func (c *Client) DatabaseStats(ctx context.Context) (Stats, error) {
	var out Stats
	if err := c.caller.do(ctx, "database_stats", rest.Request{Method: http.MethodGet, Path: "/stats"}, &out); err != nil {
		return Stats{}, fmt.Errorf("database stats: %w", err)
	}
	return out, nil
}

// Version returns the server build information.
func (c *Client) Version(ctx context.Context) (Version, error) {
	var out Version
	if err := c.caller.do(ctx, "version", rest.Request{Method: http.MethodGet, Path: "/version"}, &out); err != nil {
		return Version{}, fmt.Errorf("version: %w", err)
	}
	return out, nil
}

// SystemInformation returns the raw host report.
func (c *Client) SystemInformation(ctx context.Context) (SystemInformation, error) {
	return c.sysInfo(ctx, "sys_info", "/sys-info")
}

// SystemInformationPretty returns the host report with human-readable units.
func (c *Client) SystemInformationPretty(ctx context.Context) (SystemInformation, error) {
	return c.sysInfo(ctx, "sys_info_pretty", "/sys-info/pretty")
}

func (c *Client) sysInfo(ctx context.Context, op, path string) (SystemInformation, error) {
	var out SystemInformation
	if err := c.caller.do(ctx, op, rest.Request{Method: http.MethodGet, Path: path}, &out); err != nil {
		return nil, fmt.Errorf("system information: %w", err)
	}
	return out, nil
}
