package cascade

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/tariff-cli/internal/fetcher"
	"github.com/sells-group/tariff-cli/internal/model"
)

const availabilityXML = "\xEF\xBB\xBF" + `<?xml version="1.0" encoding="utf-8"?>
<wits:datasource xmlns:wits="http://wits.worldbank.org" name="trn">
  <wits:reporters>
    <wits:reporter countrycode="076">
      <wits:year>2021</wits:year>
      <wits:partnerlist>840; 156; 368</wits:partnerlist>
    </wits:reporter>
    <wits:reporter countrycode="076">
      <wits:year>2019</wits:year>
      <wits:partnerlist>000;840</wits:partnerlist>
    </wits:reporter>
  </wits:reporters>
</wits:datasource>`

const observationJSON = `{
  "dataSets": [{
    "series": {
      "0:0:0:0": {"observations": {"0": [14.2, 0, null]}}
    }
  }]
}`

func newWITSFetcher() fetcher.Fetcher {
	return fetcher.NewHTTPFetcher(fetcher.HTTPOptions{MaxRetries: 1})
}

func TestAvailabilityParsesYearsAndPartners(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte(availabilityXML))
	}))
	defer srv.Close()

	client := NewWITS(newWITSFetcher(), srv.URL)
	available, err := client.Availability(context.Background(), "076")
	require.NoError(t, err)

	assert.Equal(t, "/wits/datasource/trn/dataavailability/country/076/year/all", gotPath)
	require.Len(t, available, 2)

	// The world aggregate is appended when the source omits it, and kept
	// once when present.
	assert.Equal(t, []string{"840", "156", "368", "000"}, available[2021])
	assert.Equal(t, []string{"000", "840"}, available[2019])
}

func TestAvailabilityFailureWrapsSourceUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client := NewWITS(newWITSFetcher(), srv.URL)
	_, err := client.Availability(context.Background(), "076")
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrSourceUnavailable)
}

func TestObservationParsesRate(t *testing.T) {
	var gotPath, gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		w.Write([]byte(observationJSON))
	}))
	defer srv.Close()

	client := NewWITS(newWITSFetcher(), srv.URL)
	rate, url, err := client.Observation(context.Background(), "076", "000", "851830", 2021)
	require.NoError(t, err)

	assert.Equal(t, "/SDMX/V21/datasource/TRN/reporter/076/partner/000/product/851830/year/2021/datatype/reported", gotPath)
	assert.Equal(t, "format=JSON", gotQuery)
	assert.Contains(t, url, gotPath)
	require.NotNil(t, rate)
	assert.Equal(t, 14.2, *rate)
}

func TestObservationNoDataOnNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	client := NewWITS(newWITSFetcher(), srv.URL)
	rate, url, err := client.Observation(context.Background(), "076", "368", "851830", 2021)
	require.NoError(t, err)
	assert.Nil(t, rate)
	assert.NotEmpty(t, url)
}

func TestObservationNoDataOnEmptyDataset(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"dataSets": []}`))
	}))
	defer srv.Close()

	client := NewWITS(newWITSFetcher(), srv.URL)
	rate, _, err := client.Observation(context.Background(), "076", "000", "851830", 2021)
	require.NoError(t, err)
	assert.Nil(t, rate)
}

func TestObservationStringRate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"dataSets":[{"series":{"0:0":{"observations":{"0":["7.25"]}}}}]}`))
	}))
	defer srv.Close()

	client := NewWITS(newWITSFetcher(), srv.URL)
	rate, _, err := client.Observation(context.Background(), "076", "000", "851830", 2021)
	require.NoError(t, err)
	require.NotNil(t, rate)
	assert.Equal(t, 7.25, *rate)
}

func TestObservationInvalidValue(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"dataSets":[{"series":{"0:0":{"observations":{"0":["not-a-number"]}}}}]}`))
	}))
	defer srv.Close()

	client := NewWITS(newWITSFetcher(), srv.URL)
	_, _, err := client.Observation(context.Background(), "076", "000", "851830", 2021)
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrInvalidObservation)
}
