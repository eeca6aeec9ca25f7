package insights

import (
	"strconv"
	"strings"

	"city-insights/internal/models"
)

const unknownName = "Unknown"

// Record is one brand or place with every field coerced to a usable value.
type Record struct {
	Name string
	// Rating is only meaningful when HasRating is true; an absent rating is
	// not a zero rating.
	Rating        float64
	HasRating     bool
	RatingText    string
	Popularity    float64
	PopularityPct float64
	Categories    []string
	TagCount      int
	Address       string
	Description   string
	PriceRange    string
}

// Normalize extracts a Record from a raw entity. Malformed fields fall back
// to their defaults; nothing here fails.
func Normalize(e models.Entity) Record {
	rec := Record{Name: unknownName}

	if name, ok := e.String("name"); ok && name != "" {
		rec.Name = name
	}

	if raw, ok := e.Raw("popularity"); ok {
		pop, err := ParsePopularity(raw)
		rec.Popularity = floatOr(pop, err, 0)
	}
	rec.PopularityPct = rec.Popularity * 100

	if raw, ok := e.Property("business_rating"); ok {
		if s, isStr := raw.(string); isStr {
			rec.RatingText = s
		}
		if r, err := ParseRating(raw); err == nil {
			rec.Rating = r
			rec.HasRating = true
			if rec.RatingText == "" {
				rec.RatingText = formatFloat(r)
			}
		}
	}

	for _, tag := range e.Tags() {
		if name, ok := tag.Name(); ok && name != "" {
			rec.Categories = append(rec.Categories, name)
		}
	}
	rec.TagCount = len(rec.Categories)

	rec.Address = stringProperty(e, "address")
	rec.Description = stringProperty(e, "description")
	rec.PriceRange = stringProperty(e, "price_range")

	return rec
}

// NormalizeAll normalizes every entity of doc. ok is false when the document
// has no results.entities list.
func NormalizeAll(doc models.Document) ([]Record, bool) {
	entities, ok := doc.Entities()
	if !ok {
		return nil, false
	}
	out := make([]Record, 0, len(entities))
	for _, e := range entities {
		out = append(out, Normalize(e))
	}
	return out, true
}

// LowerCategories returns the record's tag names lowercased for keyword
// matching.
func (r Record) LowerCategories() []string {
	out := make([]string, len(r.Categories))
	for i, c := range r.Categories {
		out[i] = strings.ToLower(c)
	}
	return out
}

func stringProperty(e models.Entity, key string) string {
	v, ok := e.Property(key)
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
