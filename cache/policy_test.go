package cache

import (
	"testing"
	"time"
)

func TestTTLTiers(t *testing.T) {
	tests := []struct {
		name string
		got  time.Duration
		want time.Duration
	}{
		{"permanent", TTLPermanent, 0},
		{"long", TTLLong, 30 * 24 * time.Hour},
		{"medium", TTLMedium, 7 * 24 * time.Hour},
		{"short", TTLShort, time.Hour},
		{"live", TTLLive, 30 * time.Second},
		{"after hours", TTLAfterHours, time.Hour},
		{"identity mapping", TTLIdentityMapping, 24 * time.Hour},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s = %v, want %v", tt.name, tt.got, tt.want)
		}
	}
}

func TestTTLForPrice(t *testing.T) {
	seoul := time.FixedZone("KST", 9*60*60)
	tests := []struct {
		name string
		now  time.Time
		want time.Duration
	}{
		{"before open", time.Date(2025, 3, 14, 8, 59, 0, 0, seoul), TTLAfterHours},
		{"at open", time.Date(2025, 3, 14, 9, 0, 0, 0, seoul), TTLLive},
		{"midday", time.Date(2025, 3, 14, 12, 30, 0, 0, seoul), TTLLive},
		{"last minute", time.Date(2025, 3, 14, 15, 29, 59, 0, seoul), TTLLive},
		{"at close", time.Date(2025, 3, 14, 15, 30, 0, 0, seoul), TTLAfterHours},
		{"saturday", time.Date(2025, 3, 15, 11, 0, 0, 0, seoul), TTLAfterHours},
		{"sunday", time.Date(2025, 3, 16, 11, 0, 0, 0, seoul), TTLAfterHours},
		// 01:00 UTC on a Friday is 10:00 in Seoul.
		{"utc input", time.Date(2025, 3, 14, 1, 0, 0, 0, time.UTC), TTLLive},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TTLForPrice(tt.now); got != tt.want {
				t.Errorf("TTLForPrice(%v) = %v, want %v", tt.now, got, tt.want)
			}
		})
	}
}

func TestTTLForPeriod(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		year int
		want time.Duration
	}{
		{2020, TTLPermanent},
		{2024, TTLPermanent},
		{2025, TTLMedium},
		{2026, TTLMedium},
	}
	for _, tt := range tests {
		if got := TTLForPeriod(tt.year, now); got != tt.want {
			t.Errorf("TTLForPeriod(%d) = %v, want %v", tt.year, got, tt.want)
		}
	}
}

func TestTTLForPeriod_NewYearInSeoul(t *testing.T) {
	// 2024-12-31 20:00 UTC is already 2025 in Seoul, so 2024 is closed.
	now := time.Date(2024, 12, 31, 20, 0, 0, 0, time.UTC)
	if got := TTLForPeriod(2024, now); got != TTLPermanent {
		t.Errorf("TTLForPeriod(2024) = %v, want permanent", got)
	}
}
