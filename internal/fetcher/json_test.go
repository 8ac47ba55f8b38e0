package fetcher

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type catalogEntry struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

func TestDecodeJSONArray(t *testing.T) {
	input := `[
		{"code":"TP_A_0010","name":"Import duty collections"},
		{"code":"TP_A_0130","name":"MFN - Simple average tariff rate"}
	]`

	entries, err := DecodeJSONArray[catalogEntry](strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "TP_A_0010", entries[0].Code)
	assert.Equal(t, "Import duty collections", entries[0].Name)
	assert.Equal(t, "TP_A_0130", entries[1].Code)
}

func TestDecodeJSONArray_Empty(t *testing.T) {
	entries, err := DecodeJSONArray[catalogEntry](strings.NewReader(`[]`))
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestDecodeJSONArray_EmptyInput(t *testing.T) {
	entries, err := DecodeJSONArray[catalogEntry](strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestDecodeJSONArray_ObjectInsteadOfArray(t *testing.T) {
	_, err := DecodeJSONArray[catalogEntry](strings.NewReader(`{"code":"TP_A_0010"}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected '['")
}

func TestDecodeJSONArray_MalformedElement(t *testing.T) {
	_, err := DecodeJSONArray[catalogEntry](strings.NewReader(`[{"code":"TP_A_0010"},{"code":]`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode element")
}

func TestDecodeJSONObject(t *testing.T) {
	input := `{"code":"TP_A_0130","name":"MFN - Simple average tariff rate"}`
	entry, err := DecodeJSONObject[catalogEntry](strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, "TP_A_0130", entry.Code)
}

func TestDecodeJSONObject_Invalid(t *testing.T) {
	_, err := DecodeJSONObject[catalogEntry](strings.NewReader("not json"))
	require.Error(t, err)
}
