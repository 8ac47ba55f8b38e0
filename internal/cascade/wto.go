package cascade

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/tariff-cli/internal/fetcher"
)

// Secondary is the indicator-based cross-reference source handle.
type Secondary interface {
	// Configured reports whether a credential is present. An unconfigured
	// secondary source skips cross-referencing entirely.
	Configured() bool

	Indicators(ctx context.Context) ([]Indicator, error)

	// Rate queries one indicator, sending only the dimensions the
	// indicator's name suggests it supports, and retrying once without
	// dimensions when the source rejects them.
	Rate(ctx context.Context, ind Indicator, reporter, partner, product string) (*float64, string, error)
}

// Indicator is one entry from the secondary source's catalog.
type Indicator struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// SelectIndicator picks the tariff indicator to cross-reference with:
// a name containing both "mfn" and "average" wins outright; otherwise the
// first name containing "tariff", "duty", or "tax". Nil when no candidate
// qualifies.
func SelectIndicator(indicators []Indicator) *Indicator {
	var fallback *Indicator
	for i := range indicators {
		name := strings.ToLower(indicators[i].Name)
		if strings.Contains(name, "mfn") && strings.Contains(name, "average") {
			return &indicators[i]
		}
		if fallback == nil &&
			(strings.Contains(name, "tariff") || strings.Contains(name, "duty") || strings.Contains(name, "tax")) {
			fallback = &indicators[i]
		}
	}
	return fallback
}

// WTOClient queries a WTO-style timeseries API. Every request carries the
// subscription-key header; error bodies are read because the source
// reports unsupported dimensions there.
type WTOClient struct {
	fetch   fetcher.Fetcher
	baseURL string
	key     string
}

func NewWTO(fetch fetcher.Fetcher, baseURL, key string) *WTOClient {
	return &WTOClient{fetch: fetch, baseURL: strings.TrimRight(baseURL, "/"), key: key}
}

func (c *WTOClient) Configured() bool { return c.key != "" }

func (c *WTOClient) headers() map[string]string {
	return map[string]string{
		"Cache-Control":             "no-cache",
		"Ocp-Apim-Subscription-Key": c.key,
	}
}

func (c *WTOClient) Indicators(ctx context.Context) ([]Indicator, error) {
	u := c.baseURL + "/indicators?i=all&t=all&pc=all&tp=all&frq=all&lang=1"

	status, body, err := c.fetch.Get(ctx, u, c.headers())
	if err != nil {
		return nil, eris.Wrapf(err, "indicator catalog at %s", u)
	}
	defer body.Close()

	if status != 200 {
		return nil, eris.Errorf("indicator catalog at %s: HTTP %d", u, status)
	}

	indicators, err := fetcher.DecodeJSONArray[Indicator](body)
	if err != nil {
		return nil, eris.Wrapf(err, "indicator catalog at %s", u)
	}
	return indicators, nil
}

// wtoDataset is the data endpoint's JSON shape; rows without a Value are
// skipped.
type wtoDataset struct {
	Dataset []struct {
		Value *float64 `json:"Value"`
	} `json:"Dataset"`
}

func (c *WTOClient) Rate(ctx context.Context, ind Indicator, reporter, partner, product string) (*float64, string, error) {
	params := url.Values{}
	params.Set("i", ind.Code)
	params.Set("r", orDefault(reporter, "all"))
	params.Set("fmt", "json")
	params.Set("mode", "full")
	params.Set("dec", "default")
	params.Set("off", "0")
	params.Set("max", "500")
	params.Set("head", "H")
	params.Set("lang", "1")
	params.Set("meta", "false")

	name := strings.ToLower(ind.Name)
	if strings.Contains(name, "bilateral") || strings.Contains(name, "partner") {
		params.Set("p", orDefault(partner, "default"))
		params.Set("ps", "default")
	}
	if strings.Contains(name, "product") || strings.Contains(name, "sector") ||
		strings.Contains(name, "hs") || strings.Contains(name, "harmonized") {
		params.Set("pc", orDefault(product, "default"))
		params.Set("spc", "false")
	}

	u := c.baseURL + "/data?" + params.Encode()
	rate, rejection, err := c.query(ctx, u)
	if err != nil {
		return nil, u, err
	}
	if rejection == "" {
		return rate, u, nil
	}

	// The indicator does not support a dimension we sent. One simplified
	// retry with only the mandatory parameters yields a general rate.
	simplified := url.Values{}
	simplified.Set("i", ind.Code)
	simplified.Set("r", orDefault(reporter, "all"))
	simplified.Set("fmt", "json")
	simplified.Set("mode", "full")
	simplified.Set("lang", "1")

	u = c.baseURL + "/data?" + simplified.Encode()
	rate, rejection, err = c.query(ctx, u)
	if err != nil {
		return nil, u, err
	}
	if rejection != "" {
		return nil, u, eris.Errorf("dimension rejected on simplified query at %s: %s", u, rejection)
	}
	return rate, u, nil
}

// query runs one data request. A non-200 response with a dimension
// complaint in the body comes back as a rejection string; any other
// non-200 is an error.
func (c *WTOClient) query(ctx context.Context, u string) (*float64, string, error) {
	status, body, err := c.fetch.Get(ctx, u, c.headers())
	if err != nil {
		return nil, "", eris.Wrapf(err, "data query at %s", u)
	}
	defer body.Close()

	if status != 200 {
		raw, _ := io.ReadAll(io.LimitReader(body, 4096))
		msg := string(raw)
		if strings.Contains(msg, "does not have a partner dimension") ||
			strings.Contains(msg, "does not have a product/sector dimension") {
			return nil, msg, nil
		}
		return nil, "", eris.Errorf("data query at %s: HTTP %d: %s", u, status, truncate(msg, 200))
	}

	resp, err := fetcher.DecodeJSONObject[wtoDataset](body)
	if err != nil {
		return nil, "", eris.Wrapf(err, "data query at %s", u)
	}
	for _, row := range resp.Dataset {
		if row.Value != nil {
			return row.Value, "", nil
		}
	}
	return nil, "", nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return fmt.Sprintf("%s...", s[:n])
}
