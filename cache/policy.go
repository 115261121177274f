package cache

import "time"

// TTL tiers. Each class of upstream data picks the tier matching how often it
// changes. A TTL <= 0 stores a permanent entry in both tiers.
const (
	// TTLPermanent is for immutable data such as prior-period financials.
	TTLPermanent time.Duration = 0

	// TTLLong is for slowly changing reference data such as company profiles.
	TTLLong = 30 * 24 * time.Hour

	// TTLMedium is for current-period financials that may still be amended.
	TTLMedium = 7 * 24 * time.Hour

	// TTLShort is for search and catalog results.
	TTLShort = time.Hour

	// TTLLive is for intraday prices during market hours.
	TTLLive = 30 * time.Second

	// TTLAfterHours is for prices outside market hours.
	TTLAfterHours = time.Hour

	// TTLIdentityMapping is for ticker and registry code mappings.
	TTLIdentityMapping = 24 * time.Hour
)

// KRX regular session in Asia/Seoul local time.
const (
	marketOpenMinute  = 9 * 60
	marketCloseMinute = 15*60 + 30
)

// kst is fixed at UTC+9; Korea does not observe daylight saving time.
var kst = time.FixedZone("KST", 9*60*60)

// MarketOpen reports whether now falls inside the KRX regular session
// (09:00 to 15:30 KST, Monday to Friday). Exchange holidays are not modelled.
func MarketOpen(now time.Time) bool {
	local := now.In(kst)
	switch local.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}
	minute := local.Hour()*60 + local.Minute()
	return minute >= marketOpenMinute && minute < marketCloseMinute
}

// TTLForPrice returns TTLLive during market hours and TTLAfterHours otherwise.
func TTLForPrice(now time.Time) time.Duration {
	if MarketOpen(now) {
		return TTLLive
	}
	return TTLAfterHours
}

// TTLForPeriod returns the TTL for financial data of a fiscal year.
// Closed years are permanent; the current or a future year uses TTLMedium.
func TTLForPeriod(year int, now time.Time) time.Duration {
	if year < now.In(kst).Year() {
		return TTLPermanent
	}
	return TTLMedium
}
