package model

// ResolveRequest is the upward-facing request: free-text product and
// country names plus the year the caller cares about.
type ResolveRequest struct {
	Product    string `json:"product"`
	Reporter   string `json:"reporter"`
	Partner    string `json:"partner"`
	TargetYear int    `json:"year"`
}

// CountryCodes holds the two resolved 3-digit country codes.
type CountryCodes struct {
	Reporter string `json:"reporter"`
	Partner  string `json:"partner"`
}

// Resolution is the combined answer: resolved codes, the reference records
// that backed each resolution, and the tariff outcome with its trace.
type Resolution struct {
	ProductCode string       `json:"product_code"`
	Countries   CountryCodes `json:"country_codes"`

	ProductMatch  *CodeMatch `json:"product_match,omitempty"`
	ReporterMatch *CodeMatch `json:"reporter_match,omitempty"`
	PartnerMatch  *CodeMatch `json:"partner_match,omitempty"`

	Tariff TariffResult `json:"tariff"`
}
