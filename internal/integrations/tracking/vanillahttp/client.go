package vanillahttp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/BearBump/ParcelBox/internal/integrations/tracking"
	"github.com/BearBump/ParcelBox/internal/models"
	"github.com/pkg/errors"
)

const DefaultBaseURL = "https://apidev.vanilla.digital"

type Client struct {
	baseURL string
	httpc   *http.Client
}

func New(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpc: &http.Client{
			Timeout: timeout,
		},
	}
}

func (c *Client) GetTrackingData(ctx context.Context, req tracking.Request) (*models.TrackingData, error) {
	q := url.Values{}
	q.Set("trackingNumber", req.TrackingNumber)
	q.Set("lang", req.Locale.Language)
	q.Set("timezone", req.Locale.Timezone)
	if req.ForcedCarrier != "" {
		q.Set("forceCarriers", req.ForcedCarrier)
	}

	var d models.TrackingData
	if err := c.getJSON(ctx, "/public/tracking/data", q, &d); err != nil {
		return nil, err
	}
	if err := tracking.CheckFound(&d); err != nil {
		return nil, err
	}
	return &d, nil
}

// ListCarriers returns the carriers the provider can auto-detect.
func (c *Client) ListCarriers(ctx context.Context) ([]models.Carrier, error) {
	var names []string
	if err := c.getJSON(ctx, "/public/carrier", nil, &names); err != nil {
		return nil, err
	}
	out := make([]models.Carrier, 0, len(names))
	for _, n := range names {
		out = append(out, models.Carrier{Name: n, Slug: CarrierSlug(n)})
	}
	return out, nil
}

func (c *Client) APIVersion(ctx context.Context) (string, error) {
	var v struct {
		Version string `json:"version"`
	}
	if err := c.getJSON(ctx, "/public/version", nil, &v); err != nil {
		return "", err
	}
	return v.Version, nil
}

// CheckAPIVersion reports whether the provider speaks the expected API version.
func (c *Client) CheckAPIVersion(ctx context.Context, expected string) (bool, error) {
	v, err := c.APIVersion(ctx)
	if err != nil {
		return false, err
	}
	return v == expected, nil
}

// CarrierSlug turns a catalogue name into the slug form used for icons ("La Poste" -> "la-poste").
func CarrierSlug(name string) string {
	return strings.ToLower(strings.Replace(name, " ", "-", 1))
}

func (c *Client) getJSON(ctx context.Context, path string, q url.Values, out any) error {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return errors.Wrap(err, "parse base url")
	}
	u.Path = strings.TrimRight(u.Path, "/") + path
	if q != nil {
		u.RawQuery = q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return errors.Wrap(err, "new request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return errors.Wrap(err, "do request")
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return tracking.ErrNotFound
	}
	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("tracking provider http %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrap(err, "decode")
	}
	return nil
}
