package cache

import (
	"sort"
	"strings"
)

// KeySeparator joins the provider, operation and value segments of a key.
const KeySeparator = ":"

// ValueSeparator joins parameter values inside the last key segment.
const ValueSeparator = "_"

// BuildKey generates the deterministic cache key for an upstream request.
//
// Format: <provider>:<operation>:<v1>_<v2>_..._<vn>
// where v1..vn are the parameter values ordered by sorted parameter name,
// not by value: {corp_code: 00126380, bsns_year: 2024} yields
// opendart:fnlttSinglAcnt:2024_00126380. Values are joined as-is. The format is persisted on disk, so changing it
// orphans every stored row.
func BuildKey(provider, operation string, params map[string]string) string {
	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)

	values := make([]string, len(names))
	for i, name := range names {
		values[i] = params[name]
	}

	var b strings.Builder
	b.WriteString(provider)
	b.WriteString(KeySeparator)
	b.WriteString(operation)
	b.WriteString(KeySeparator)
	b.WriteString(strings.Join(values, ValueSeparator))
	return b.String()
}

// KeyPrefix returns the prefix shared by every key of one operation, for use
// with PersistentCache.InvalidateByPrefix. An empty operation yields the
// prefix for the whole provider.
func KeyPrefix(provider, operation string) string {
	if operation == "" {
		return provider + KeySeparator
	}
	return provider + KeySeparator + operation + KeySeparator
}

// splitKey recovers the provider and operation segments of a key built by
// BuildKey. Keys with fewer segments report them as empty.
func splitKey(key string) (provider, operation string) {
	parts := strings.SplitN(key, KeySeparator, 3)
	switch len(parts) {
	case 3, 2:
		return parts[0], parts[1]
	default:
		return "", parts[0]
	}
}
