package insights

import (
	"math"
	"strings"
)

// HoursInDay is the length of the activity histogram.
const HoursInDay = 24

// hoursProfile is an inclusive opening window.
type hoursProfile struct {
	name  string
	open  int
	close int
	terms []string
}

// Checked in order; the first profile with a matching term wins.
var hoursProfiles = []hoursProfile{
	{name: "food", open: 6, close: 22, terms: []string{"restaurant", "cafe", "bar", "food"}},
	{name: "retail", open: 9, close: 19, terms: []string{"shop", "store", "retail"}},
	{name: "office", open: 8, close: 17, terms: []string{"office", "business", "professional"}},
}

var defaultHours = hoursProfile{name: "default", open: 9, close: 17}

type priceTierRule struct {
	base  float64
	terms []string
}

// The food rule here has no plain "food" term, unlike the hours profile.
var priceTierRules = []priceTierRule{
	{base: 4, terms: []string{"luxury", "premium", "high-end"}},
	{base: 3, terms: []string{"restaurant", "cafe", "bar"}},
	{base: 2, terms: []string{"shop", "store", "retail"}},
}

const (
	defaultPriceBase = 2.0
	neutralRating    = 3.0
	minPriceTier     = 1.0
	maxPriceTier     = 5.0
)

// Price bucket labels, cheapest first.
const (
	BucketBudget   = "Budget ($)"
	BucketModerate = "Moderate ($$)"
	BucketPremium  = "Premium ($$$)"
	BucketLuxury   = "Luxury ($$$$)"
)

// PriceBuckets lists every bucket label in display order.
var PriceBuckets = []string{BucketBudget, BucketModerate, BucketPremium, BucketLuxury}

// matchesAny reports whether any lowercased tag contains any of the terms.
func matchesAny(tags []string, terms []string) bool {
	for _, tag := range tags {
		for _, term := range terms {
			if strings.Contains(tag, term) {
				return true
			}
		}
	}
	return false
}

func profileFor(tags []string) hoursProfile {
	for _, p := range hoursProfiles {
		if matchesAny(tags, p.terms) {
			return p
		}
	}
	return defaultHours
}

// ActiveHours returns the simulated opening hours, ascending, for a record
// with the given lowercased tag names.
func ActiveHours(tags []string) []int {
	p := profileFor(tags)
	hours := make([]int, 0, p.close-p.open+1)
	for h := p.open; h <= p.close; h++ {
		hours = append(hours, h)
	}
	return hours
}

// HourlyActivity counts, for every hour of the day, how many records are
// simulated as open.
func HourlyActivity(records []Record) [HoursInDay]int {
	var counts [HoursInDay]int
	for _, rec := range records {
		for _, h := range ActiveHours(rec.LowerCategories()) {
			counts[h]++
		}
	}
	return counts
}

// PriceTier estimates a 1..5 price level from tags, nudged by the rating.
// Without a usable rating the neutral 3.0 is assumed, so the tag base is
// returned unchanged.
func PriceTier(tags []string, rating float64, hasRating bool) float64 {
	base := defaultPriceBase
	for _, rule := range priceTierRules {
		if matchesAny(tags, rule.terms) {
			base = rule.base
			break
		}
	}

	r := neutralRating
	if hasRating {
		r = rating
	}

	tier := base + (r-neutralRating)*0.5
	return math.Min(maxPriceTier, math.Max(minPriceTier, tier))
}

// PriceBucket maps a tier to its display bucket. Every tier maps to exactly
// one bucket.
func PriceBucket(tier float64) string {
	switch {
	case tier <= 2:
		return BucketBudget
	case tier <= 3.5:
		return BucketModerate
	case tier <= 4.5:
		return BucketPremium
	default:
		return BucketLuxury
	}
}
