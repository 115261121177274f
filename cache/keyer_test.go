package cache

import (
	"strings"
	"testing"
)

func TestBuildKey_Literal(t *testing.T) {
	tests := []struct {
		name   string
		params map[string]string
		want   string
	}{
		{
			// bsns_year sorts before corp_code, so the year leads.
			"bsns_year before corp_code",
			map[string]string{"corp_code": "00126380", "bsns_year": "2024"},
			"opendart:fnlttSinglAcnt:2024_00126380",
		},
		{
			// year sorts after corp_code, so the code leads.
			"corp_code before year",
			map[string]string{"year": "2024", "corp_code": "00126380"},
			"opendart:fnlttSinglAcnt:00126380_2024",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := BuildKey("opendart", "fnlttSinglAcnt", tt.params); got != tt.want {
				t.Errorf("BuildKey = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBuildKey_OrderIndependent(t *testing.T) {
	a := map[string]string{"bsns_year": "2024", "corp_code": "00126380"}
	b := map[string]string{"corp_code": "00126380", "bsns_year": "2024"}

	// Map iteration is randomized; repeat to exercise different orders.
	for i := 0; i < 50; i++ {
		if ka, kb := BuildKey("opendart", "fnlttSinglAcnt", a), BuildKey("opendart", "fnlttSinglAcnt", b); ka != kb {
			t.Fatalf("keys differ: %q vs %q", ka, kb)
		}
	}
}

func TestBuildKey_Shapes(t *testing.T) {
	tests := []struct {
		name      string
		provider  string
		operation string
		params    map[string]string
		want      string
	}{
		{"no params", "opendart", "corpCode", nil, "opendart:corpCode:"},
		{"single param", "opendart", "company", map[string]string{"corp_code": "00126380"}, "opendart:company:00126380"},
		{
			"three params sorted by name",
			"opendart", "fnlttSinglAcnt",
			map[string]string{"reprt_code": "11011", "corp_code": "00126380", "bsns_year": "2023"},
			"opendart:fnlttSinglAcnt:2023_00126380_11011",
		},
		{"values joined as-is", "krx", "search", map[string]string{"q": "삼성 전자"}, "krx:search:삼성 전자"},
		{"empty value kept", "krx", "price", map[string]string{"a": "", "b": "x"}, "krx:price:_x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := BuildKey(tt.provider, tt.operation, tt.params); got != tt.want {
				t.Errorf("BuildKey = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestKeyPrefix(t *testing.T) {
	if got := KeyPrefix("opendart", "company"); got != "opendart:company:" {
		t.Errorf("KeyPrefix = %q", got)
	}
	if got := KeyPrefix("opendart", ""); got != "opendart:" {
		t.Errorf("KeyPrefix(provider only) = %q", got)
	}

	key := BuildKey("opendart", "company", map[string]string{"corp_code": "00126380"})
	if !strings.HasPrefix(key, KeyPrefix("opendart", "company")) {
		t.Errorf("key %q does not start with its operation prefix", key)
	}
}

func TestSplitKey(t *testing.T) {
	tests := []struct {
		key, provider, operation string
	}{
		{"opendart:fnlttSinglAcnt:00126380_2024", "opendart", "fnlttSinglAcnt"},
		{"opendart:corpCode:", "opendart", "corpCode"},
		{"opendart:company", "opendart", "company"},
		{"plain", "", "plain"},
	}
	for _, tt := range tests {
		p, o := splitKey(tt.key)
		if p != tt.provider || o != tt.operation {
			t.Errorf("splitKey(%q) = (%q, %q), want (%q, %q)", tt.key, p, o, tt.provider, tt.operation)
		}
	}
}
