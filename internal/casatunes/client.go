package casatunes

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/biggyd143/homebridge-casatunes/internal/apperrors"
)

// Client talks to the CasaTunes HTTP API. It issues plain reads; zone
// mutations are expressed as a query parameter on the single-zone endpoint,
// exactly one parameter per call. The client does not retry.
type Client struct {
	baseURI    string
	httpClient *http.Client
}

// NewClient creates a client for the given base URI, e.g.
// http://192.168.1.20:8735/api/v1.
func NewClient(baseURI string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		baseURI: strings.TrimRight(baseURI, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// GetSystemInfo reads the server identity metadata.
func (c *Client) GetSystemInfo(ctx context.Context) (SystemInfo, error) {
	var info SystemInfo
	if err := c.get(ctx, "/system/info", nil, &info); err != nil {
		return SystemInfo{}, err
	}
	return info, nil
}

// ListZones reads the current zone list in service order.
func (c *Client) ListZones(ctx context.Context) ([]Zone, error) {
	var zones []Zone
	if err := c.get(ctx, "/zones", nil, &zones); err != nil {
		return nil, err
	}
	return zones, nil
}

// GetZone reads one zone's authoritative state.
func (c *Client) GetZone(ctx context.Context, zoneID string) (Zone, error) {
	var zone Zone
	if err := c.get(ctx, "/zones/"+url.PathEscape(zoneID), nil, &zone); err != nil {
		return Zone{}, err
	}
	return zone, nil
}

// SetPower switches a zone on or off and returns the post-write zone state.
func (c *Client) SetPower(ctx context.Context, zoneID string, on bool) (Zone, error) {
	return c.mutateZone(ctx, zoneID, "Power", strconv.FormatBool(on))
}

// SetVolume sets a zone's volume (0-100) and returns the post-write zone state.
func (c *Client) SetVolume(ctx context.Context, zoneID string, volume int) (Zone, error) {
	return c.mutateZone(ctx, zoneID, "Volume", strconv.Itoa(volume))
}

func (c *Client) mutateZone(ctx context.Context, zoneID, param, value string) (Zone, error) {
	query := url.Values{}
	query.Set(param, value)

	var zone Zone
	if err := c.get(ctx, "/zones/"+url.PathEscape(zoneID), query, &zone); err != nil {
		return Zone{}, err
	}
	return zone, nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, result any) error {
	endpoint := c.baseURI + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return apperrors.NewTransportError(fmt.Sprintf("build request: %v", err), nil)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return apperrors.NewTransportError(fmt.Sprintf("casatunes unreachable: %v", err), map[string]any{
			"endpoint": path,
		})
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return apperrors.NewTransportError(fmt.Sprintf("read response: %v", err), nil)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return apperrors.NewTransportError(fmt.Sprintf("casatunes request failed: %s", resp.Status), map[string]any{
			"endpoint": path,
			"status":   resp.StatusCode,
		})
	}

	if result != nil {
		if err := json.Unmarshal(body, result); err != nil {
			return apperrors.NewMalformedResponseError(fmt.Sprintf("parse %s response: %v", path, err))
		}
	}

	return nil
}
