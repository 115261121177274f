package entity

// CompanyRecord is one company known to the disclosure system.
type CompanyRecord struct {
	// RegistryCode is the 8-digit OpenDART corp_code. Unique within a load.
	RegistryCode string `json:"corp_code"`

	Name string `json:"corp_name"`

	// Ticker is the 6-character KRX stock code. Empty for unlisted companies;
	// use Listed rather than comparing against "".
	Ticker string `json:"stock_code,omitempty"`

	// LastModified is the upstream modification date, YYYYMMDD.
	LastModified string `json:"modify_date,omitempty"`
}

// Listed reports whether the company trades on KRX.
func (r CompanyRecord) Listed() bool {
	return r.Ticker != ""
}

// valid reports whether r carries the fields every index map depends on.
func (r CompanyRecord) valid() bool {
	return isDigits(r.RegistryCode, registryCodeLen) && r.Name != ""
}

// MatchKind describes how a resolution was made.
type MatchKind string

// Match kinds, most to least certain.
const (
	MatchExactTicker   MatchKind = "exact_ticker"
	MatchExactRegistry MatchKind = "exact_registry"
	MatchExactName     MatchKind = "exact_name"
	MatchFuzzyName     MatchKind = "fuzzy_name"
)

// Exact reports whether k is one of the exact kinds.
func (k MatchKind) Exact() bool {
	return k != MatchFuzzyName && k != ""
}

// Alternative is a runner-up candidate of a resolution.
type Alternative struct {
	RegistryCode string  `json:"corp_code"`
	Name         string  `json:"corp_name"`
	Ticker       string  `json:"stock_code,omitempty"`
	Similarity   float64 `json:"similarity"`
}

// ResolutionResult is the outcome of a successful Resolve.
//
// Confidence is 1.0 exactly when MatchKind is exact. For MatchFuzzyName it is
// the top similarity score, strictly above the index's MinSimilarity.
type ResolutionResult struct {
	RegistryCode string        `json:"corp_code"`
	Name         string        `json:"corp_name"`
	Ticker       string        `json:"stock_code,omitempty"`
	Confidence   float64       `json:"confidence"`
	MatchKind    MatchKind     `json:"match_kind"`
	Alternatives []Alternative `json:"alternatives,omitempty"`
}

// Listed reports whether the resolved company trades on KRX.
func (r ResolutionResult) Listed() bool {
	return r.Ticker != ""
}
