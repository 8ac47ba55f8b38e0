// Package cascade implements the tariff fallback cascade: an ordered
// search across year, partner, and code-granularity relaxations against
// the primary trade-data source, optionally cross-referenced against a
// secondary indicator source, with an auditable trace of every
// substitution made.
package cascade

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/tariff-cli/internal/fetcher"
	"github.com/sells-group/tariff-cli/internal/model"
)

// Primary is the bulk trade-data source handle.
type Primary interface {
	// Availability returns, per year, the partners the reporter has data
	// for. The world-aggregate partner is always present in every year's
	// list.
	Availability(ctx context.Context, reporter string) (map[int][]string, error)

	// Observation fetches the tariff figure for one exact combination.
	// A nil rate with nil error means the combination has no data. The
	// returned URL is recorded in the trace whether or not data came back.
	Observation(ctx context.Context, reporter, partner, product string, year int) (*float64, string, error)
}

// WITSClient queries a WITS-style source: an XML availability document
// and an SDMX JSON observation endpoint.
type WITSClient struct {
	fetch   fetcher.Fetcher
	baseURL string
}

func NewWITS(fetch fetcher.Fetcher, baseURL string) *WITSClient {
	return &WITSClient{fetch: fetch, baseURL: strings.TrimRight(baseURL, "/")}
}

// availabilityDoc mirrors the wits:datasource availability XML. Years and
// partner lists hang off per-reporter entries.
type availabilityDoc struct {
	Reporters []struct {
		Year        string `xml:"year"`
		PartnerList string `xml:"partnerlist"`
	} `xml:"reporters>reporter"`
}

func (c *WITSClient) Availability(ctx context.Context, reporter string) (map[int][]string, error) {
	url := fmt.Sprintf("%s/wits/datasource/trn/dataavailability/country/%s/year/all", c.baseURL, reporter)

	body, err := c.fetch.Download(ctx, url)
	if err != nil {
		return nil, eris.Wrapf(model.ErrSourceUnavailable, "availability check at %s: %s", url, err)
	}
	defer body.Close()

	var doc availabilityDoc
	if err := fetcher.DecodeXML(body, &doc); err != nil {
		return nil, eris.Wrapf(model.ErrSourceUnavailable, "availability XML at %s: %s", url, err)
	}

	available := make(map[int][]string, len(doc.Reporters))
	for _, rep := range doc.Reporters {
		year, err := strconv.Atoi(strings.TrimSpace(rep.Year))
		if err != nil {
			continue
		}
		var partners []string
		for _, p := range strings.Split(rep.PartnerList, ";") {
			if p = strings.TrimSpace(p); p != "" {
				partners = append(partners, p)
			}
		}
		if !contains(partners, model.WorldPartner) {
			partners = append(partners, model.WorldPartner)
		}
		available[year] = partners
	}
	return available, nil
}

// sdmxResponse is the observation endpoint's JSON shape. The rate sits at
// dataSets[0].series.<any>.observations["0"][0].
type sdmxResponse struct {
	DataSets []struct {
		Series map[string]struct {
			Observations map[string][]any `json:"observations"`
		} `json:"series"`
	} `json:"dataSets"`
}

func (c *WITSClient) Observation(ctx context.Context, reporter, partner, product string, year int) (*float64, string, error) {
	url := fmt.Sprintf("%s/SDMX/V21/datasource/TRN/reporter/%s/partner/%s/product/%s/year/%d/datatype/reported?format=JSON",
		c.baseURL, reporter, partner, product, year)

	status, body, err := c.fetch.Get(ctx, url, nil)
	if err != nil {
		return nil, url, eris.Wrapf(err, "observation at %s", url)
	}
	defer body.Close()

	if status != 200 {
		return nil, url, nil
	}

	resp, err := fetcher.DecodeJSONObject[sdmxResponse](body)
	if err != nil {
		return nil, url, nil
	}
	if len(resp.DataSets) == 0 {
		return nil, url, nil
	}

	series := resp.DataSets[0].Series
	if len(series) == 0 {
		return nil, url, nil
	}
	keys := make([]string, 0, len(series))
	for k := range series {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	obs, ok := series[keys[0]].Observations["0"]
	if !ok || len(obs) == 0 || obs[0] == nil {
		return nil, url, nil
	}

	switch v := obs[0].(type) {
	case float64:
		return &v, url, nil
	case string:
		rate, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, url, eris.Wrapf(model.ErrInvalidObservation, "%q at %s", v, url)
		}
		return &rate, url, nil
	default:
		return nil, url, eris.Wrapf(model.ErrInvalidObservation, "%v at %s", obs[0], url)
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
