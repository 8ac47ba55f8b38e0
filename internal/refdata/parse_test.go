package refdata

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const productXML = `<?xml version="1.0" encoding="utf-8"?>
<wits:datasource xmlns:wits="http://wits.worldbank.org" name="trn">
  <wits:products>
    <wits:product productcode="851830">
      <wits:productdescription>Headphones and earphones, whether or not combined with a microphone</wits:productdescription>
      <wits:isgroup>No</wits:isgroup>
    </wits:product>
    <wits:product productcode="010200">
      <wits:productdescription>Live bovine animals</wits:productdescription>
      <wits:isgroup>No</wits:isgroup>
    </wits:product>
    <wits:product productcode="XX">
      <wits:productdescription></wits:productdescription>
    </wits:product>
  </wits:products>
</wits:datasource>`

const countryXML = "\xEF\xBB\xBF" + `<?xml version="1.0" encoding="utf-8"?>
<wits:datasource xmlns:wits="http://wits.worldbank.org" name="trn">
  <wits:countries>
    <wits:country countrycode="076" isreporter="1" ispartner="1" isgroup="No">
      <wits:iso3Code>BRA</wits:iso3Code>
      <wits:name>Brazil</wits:name>
    </wits:country>
    <wits:country countrycode="368" isreporter="0" ispartner="1" isgroup="No">
      <wits:iso3Code>IRQ</wits:iso3Code>
      <wits:name>Iraq</wits:name>
    </wits:country>
  </wits:countries>
</wits:datasource>`

func TestHSCodesParse(t *testing.T) {
	src := &HSCodes{}

	records, schema, err := src.Parse(strings.NewReader(productXML))
	require.NoError(t, err)

	// The record with an empty description embeds nothing and is skipped.
	require.Len(t, records, 2)
	assert.Equal(t, "851830", records[0].Attributes["productcode"])
	assert.Contains(t, records[0].Text, "Headphones")
	assert.Equal(t, "No", records[0].Attributes["isgroup"])

	assert.Equal(t, []string{"productcode", "productdescription", "isgroup"}, schema.Names())
	assert.True(t, schema.Has("productdescription"))
}

func TestCountryCodesParseWithBOM(t *testing.T) {
	src := &CountryCodes{}

	records, schema, err := src.Parse(strings.NewReader(countryXML))
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "Brazil", records[0].Text)
	assert.Equal(t, "076", records[0].Attributes["countrycode"])
	assert.Equal(t, "1", records[0].Attributes["isreporter"])
	assert.Equal(t, "IRQ", records[1].Attributes["iso3code"])

	assert.True(t, schema.Has("countrycode"))
	assert.True(t, schema.Has("isreporter"))
	assert.True(t, schema.Has("name"))
}

func TestParseEmptyDocument(t *testing.T) {
	src := &HSCodes{}

	_, _, err := src.Parse(strings.NewReader(`<wits:datasource xmlns:wits="http://wits.worldbank.org"><wits:products/></wits:datasource>`))
	assert.Error(t, err)
}

func TestParseMalformedDocument(t *testing.T) {
	src := &CountryCodes{}

	_, _, err := src.Parse(strings.NewReader(`<wits:datasource xmlns:wits="http://wits.worldbank.org"><wits:country countrycode=`))
	assert.Error(t, err)
}

func TestSourceURLs(t *testing.T) {
	base := "https://wits.worldbank.org/API/V1"

	assert.Equal(t, base+"/wits/datasource/trn/product/all", (&HSCodes{}).URL(base))
	assert.Equal(t, base+"/wits/datasource/trn/country/ALL", (&CountryCodes{}).URL(base))
}

func TestRegistry(t *testing.T) {
	reg := NewRegistry()

	assert.Equal(t, []string{"hs", "country"}, reg.AllNames())

	src, err := reg.Get("hs")
	require.NoError(t, err)
	assert.Equal(t, "hs_code_vectors", src.Table())

	_, err = reg.Get("bogus")
	assert.Error(t, err)

	assert.Len(t, reg.All(), 2)
}
