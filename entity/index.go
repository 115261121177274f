package entity

import (
	"context"
	"math"
	"sort"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/jonwraymond/kfin/hangul"
	"github.com/jonwraymond/kfin/observe"
)

// Default tunables for fuzzy resolution.
const (
	DefaultMinSimilarity   = 0.5
	DefaultMinQueryLength  = 2
	DefaultMaxAlternatives = 5
	DefaultSearchLimit     = 20
)

// Options tunes an Index. Zero fields use the defaults above.
type Options struct {
	// MinSimilarity is the exclusive lower bound for fuzzy candidates.
	// Values <= 0 select DefaultMinSimilarity, so a zero threshold cannot
	// be configured. Use a small positive value such as 1e-9 to accept
	// nearly every candidate.
	MinSimilarity float64

	// MinQueryLength is the shortest normalized query, in runes, that is
	// scored fuzzily.
	MinQueryLength int

	// MaxAlternatives caps the runner-up list.
	MaxAlternatives int

	Logger observe.Logger
}

func (o Options) withDefaults() Options {
	if o.MinSimilarity <= 0 {
		o.MinSimilarity = DefaultMinSimilarity
	}
	if o.MinQueryLength <= 0 {
		o.MinQueryLength = DefaultMinQueryLength
	}
	if o.MaxAlternatives <= 0 {
		o.MaxAlternatives = DefaultMaxAlternatives
	}
	if o.Logger == nil {
		o.Logger = observe.NopLogger()
	}
	return o
}

type entry struct {
	rec  CompanyRecord
	norm string
	jamo []rune
}

// Index maps tickers, registry codes and normalized names to companies.
//
// Contract:
//   - Concurrency: safe for concurrent use. Load swaps every map at once;
//     readers see either the old or the new set, never a mix.
//   - Ownership: the index copies records on Load and never exposes its
//     internal slices.
type Index struct {
	opts Options

	mu         sync.RWMutex
	entries    []entry
	byTicker   map[string]int
	byRegistry map[string]int
	byName     map[string][]int
	loaded     bool
}

// NewIndex creates an empty index.
func NewIndex(opts Options) *Index {
	return &Index{opts: opts.withDefaults()}
}

// Load replaces the index contents with records and rebuilds every map.
// Records missing a valid registry code or name are skipped, as are later
// duplicates of a registry code or ticker. It returns the number indexed.
func (x *Index) Load(records []CompanyRecord) int {
	entries := make([]entry, 0, len(records))
	byTicker := make(map[string]int)
	byRegistry := make(map[string]int, len(records))
	byName := make(map[string][]int, len(records))
	skipped := 0

	for _, rec := range records {
		if !rec.valid() {
			skipped++
			continue
		}
		if _, dup := byRegistry[rec.RegistryCode]; dup {
			skipped++
			continue
		}
		if rec.Listed() {
			if _, dup := byTicker[rec.Ticker]; dup {
				// Keep the company but drop the conflicting ticker.
				rec.Ticker = ""
				skipped++
			}
		}

		i := len(entries)
		n := Normalize(rec.Name)
		entries = append(entries, entry{rec: rec, norm: n, jamo: hangul.DecomposeString(n)})
		byRegistry[rec.RegistryCode] = i
		if rec.Listed() {
			byTicker[rec.Ticker] = i
		}
		byName[n] = append(byName[n], i)
	}

	x.mu.Lock()
	x.entries = entries
	x.byTicker = byTicker
	x.byRegistry = byRegistry
	x.byName = byName
	x.loaded = true
	x.mu.Unlock()

	if skipped > 0 {
		x.opts.Logger.Warn(context.Background(), "company records skipped on load",
			observe.Field{Key: "skipped", Value: skipped},
			observe.Field{Key: "indexed", Value: len(entries)},
		)
	}
	return len(entries)
}

// Resolve maps input to a company. It returns false when nothing acceptable
// matches; absence is never an error.
//
// Order: a 6-digit input is a ticker and an 8-digit input a registry code;
// neither falls through to name matching. Otherwise an exact normalized name
// wins over fuzzy scoring.
func (x *Index) Resolve(input string) (ResolutionResult, bool) {
	q := Normalize(input)
	if q == "" {
		return ResolutionResult{}, false
	}

	x.mu.RLock()
	defer x.mu.RUnlock()

	switch {
	case isDigits(q, tickerLen):
		i, ok := x.byTicker[q]
		if !ok {
			return ResolutionResult{}, false
		}
		return exact(x.entries[i].rec, MatchExactTicker), true

	case isDigits(q, registryCodeLen):
		i, ok := x.byRegistry[q]
		if !ok {
			return ResolutionResult{}, false
		}
		return exact(x.entries[i].rec, MatchExactRegistry), true
	}

	if idx := x.byName[q]; len(idx) > 0 {
		return x.resolveExactName(idx), true
	}

	if utf8.RuneCountInString(q) < x.opts.MinQueryLength {
		return ResolutionResult{}, false
	}
	return x.resolveFuzzy(q)
}

func exact(rec CompanyRecord, kind MatchKind) ResolutionResult {
	return ResolutionResult{
		RegistryCode: rec.RegistryCode,
		Name:         rec.Name,
		Ticker:       rec.Ticker,
		Confidence:   1.0,
		MatchKind:    kind,
	}
}

func (x *Index) resolveExactName(idx []int) ResolutionResult {
	ranked := make([]int, len(idx))
	copy(ranked, idx)
	sort.SliceStable(ranked, func(a, b int) bool {
		return x.entries[ranked[a]].rec.Listed() && !x.entries[ranked[b]].rec.Listed()
	})

	res := exact(x.entries[ranked[0]].rec, MatchExactName)
	for _, i := range ranked[1:] {
		if len(res.Alternatives) == x.opts.MaxAlternatives {
			break
		}
		res.Alternatives = append(res.Alternatives, alternative(x.entries[i].rec, 1.0))
	}
	return res
}

type candidate struct {
	i     int
	score float64
}

func (x *Index) resolveFuzzy(q string) (ResolutionResult, bool) {
	qj := hangul.DecomposeString(q)

	var cands []candidate
	for i := range x.entries {
		score := hangul.SimilarityRunes(qj, x.entries[i].jamo)
		if score > x.opts.MinSimilarity {
			cands = append(cands, candidate{i: i, score: score})
		}
	}
	if len(cands) == 0 {
		return ResolutionResult{}, false
	}

	sort.SliceStable(cands, func(a, b int) bool {
		if cands[a].score != cands[b].score {
			return cands[a].score > cands[b].score
		}
		return x.entries[cands[a].i].rec.Listed() && !x.entries[cands[b].i].rec.Listed()
	})

	top := x.entries[cands[0].i].rec
	res := ResolutionResult{
		RegistryCode: top.RegistryCode,
		Name:         top.Name,
		Ticker:       top.Ticker,
		// Jamo-identical but differently written names score 1.0; keep fuzzy
		// confidence below the exact value.
		Confidence: math.Min(cands[0].score, math.Nextafter(1, 0)),
		MatchKind:  MatchFuzzyName,
	}
	for _, c := range cands[1:] {
		if len(res.Alternatives) == x.opts.MaxAlternatives {
			break
		}
		res.Alternatives = append(res.Alternatives, alternative(x.entries[c.i].rec, c.score))
	}
	return res, true
}

func alternative(rec CompanyRecord, similarity float64) Alternative {
	return Alternative{
		RegistryCode: rec.RegistryCode,
		Name:         rec.Name,
		Ticker:       rec.Ticker,
		Similarity:   similarity,
	}
}

// SearchByPrefix returns up to limit companies whose normalized name starts
// with the normalized prefix, in load order. An empty prefix matches nothing;
// limit <= 0 uses DefaultSearchLimit.
func (x *Index) SearchByPrefix(prefix string, limit int) []CompanyRecord {
	p := Normalize(prefix)
	if p == "" {
		return nil
	}
	if limit <= 0 {
		limit = DefaultSearchLimit
	}

	x.mu.RLock()
	defer x.mu.RUnlock()

	var out []CompanyRecord
	for _, e := range x.entries {
		if strings.HasPrefix(e.norm, p) {
			out = append(out, e.rec)
			if len(out) == limit {
				break
			}
		}
	}
	return out
}

// ByRegistryCode returns the company with the given corp_code.
func (x *Index) ByRegistryCode(code string) (CompanyRecord, bool) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	i, ok := x.byRegistry[code]
	if !ok {
		return CompanyRecord{}, false
	}
	return x.entries[i].rec, true
}

// ByTicker returns the listed company with the given stock code.
func (x *Index) ByTicker(ticker string) (CompanyRecord, bool) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	i, ok := x.byTicker[ticker]
	if !ok {
		return CompanyRecord{}, false
	}
	return x.entries[i].rec, true
}

// Records returns a copy of the indexed companies in load order.
func (x *Index) Records() []CompanyRecord {
	x.mu.RLock()
	defer x.mu.RUnlock()
	out := make([]CompanyRecord, len(x.entries))
	for i, e := range x.entries {
		out[i] = e.rec
	}
	return out
}

// Count returns the number of indexed companies.
func (x *Index) Count() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.entries)
}

// ListedCount returns the number of indexed companies with a ticker.
func (x *Index) ListedCount() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.byTicker)
}

// IsLoaded reports whether Load has completed at least once.
func (x *Index) IsLoaded() bool {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.loaded
}
