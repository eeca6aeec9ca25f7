package insights

import (
	"errors"
	"fmt"
	"sort"
)

// minDensitySample is the fewest rated places a scatter is drawn from.
const minDensitySample = 5

// NoDataReason says why a builder produced nothing.
type NoDataReason string

const (
	ReasonMissingEntities    NoDataReason = "missing_entities"
	ReasonEmptySample        NoDataReason = "empty_sample"
	ReasonInsufficientSample NoDataReason = "insufficient_sample"
)

// ErrNoData matches every *NoDataError.
var ErrNoData = errors.New("no data")

type NoDataError struct {
	Kind   Kind
	Reason NoDataReason
}

func (e *NoDataError) Error() string {
	return fmt.Sprintf("%s: no data (%s)", e.Kind, e.Reason)
}

func (e *NoDataError) Is(target error) bool { return target == ErrNoData }

func noData(kind Kind, reason NoDataReason) (Dataset, error) {
	return nil, &NoDataError{Kind: kind, Reason: reason}
}

// Builder turns the run input into one dataset.
type Builder interface {
	Kind() Kind
	Build(in *Input) (Dataset, error)
}

// DefaultBuilders returns a fresh set of the seven dataset builders.
func DefaultBuilders() []Builder {
	return []Builder{
		brandPopularityBuilder{},
		categoryBuilder{kind: KindBrandCategories, source: sourceBrands, topN: brandCategoryTopN, title: "Top Brand Categories in %s"},
		placeRatingsBuilder{},
		categoryBuilder{kind: KindPlaceCategories, source: sourcePlaces, topN: placeCategoryTopN, title: "Top Place Categories in %s"},
		densityBuilder{},
		hoursBuilder{},
		priceBuilder{},
	}
}

type brandPopularityBuilder struct{}

func (brandPopularityBuilder) Kind() Kind { return KindBrandPopularity }

func (b brandPopularityBuilder) Build(in *Input) (Dataset, error) {
	brands, ok := in.Brands()
	if !ok {
		return noData(b.Kind(), ReasonMissingEntities)
	}
	if len(brands) == 0 {
		return noData(b.Kind(), ReasonEmptySample)
	}

	entries := make([]PopularityEntry, len(brands))
	for i, rec := range brands {
		entries[i] = PopularityEntry{Brand: rec.Name, PopularityPct: rec.PopularityPct}
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].PopularityPct < entries[j].PopularityPct
	})

	return &PopularityDataset{
		Label:   in.title("Brand Popularity in %s"),
		Entries: entries,
	}, nil
}

type recordSource int

const (
	sourceBrands recordSource = iota
	sourcePlaces
)

type categoryBuilder struct {
	kind   Kind
	source recordSource
	topN   int
	title  string
}

func (b categoryBuilder) Kind() Kind { return b.kind }

func (b categoryBuilder) Build(in *Input) (Dataset, error) {
	var (
		records []Record
		ok      bool
	)
	if b.source == sourceBrands {
		records, ok = in.Brands()
	} else {
		records, ok = in.Places()
	}
	if !ok {
		return noData(b.kind, ReasonMissingEntities)
	}

	counts := Tally(records, b.topN)
	if len(counts) == 0 {
		return noData(b.kind, ReasonEmptySample)
	}

	return &CategoryDataset{
		DatasetKind: b.kind,
		Label:       in.title(b.title),
		Categories:  counts,
	}, nil
}

type placeRatingsBuilder struct{}

func (placeRatingsBuilder) Kind() Kind { return KindPlaceRatings }

func (b placeRatingsBuilder) Build(in *Input) (Dataset, error) {
	places, ok := in.Places()
	if !ok {
		return noData(b.Kind(), ReasonMissingEntities)
	}

	var ratings []float64
	for _, rec := range places {
		if rec.HasRating {
			ratings = append(ratings, rec.Rating)
		}
	}
	if len(ratings) == 0 {
		return noData(b.Kind(), ReasonEmptySample)
	}

	return &RatingsDataset{
		Label:   in.title("Place Ratings Distribution in %s"),
		Ratings: ratings,
	}, nil
}

type densityBuilder struct{}

func (densityBuilder) Kind() Kind { return KindBusinessDensity }

func (b densityBuilder) Build(in *Input) (Dataset, error) {
	places, ok := in.Places()
	if !ok {
		return noData(b.Kind(), ReasonMissingEntities)
	}

	var points []DensityPoint
	for _, rec := range places {
		if !rec.HasRating {
			continue
		}
		points = append(points, DensityPoint{Name: rec.Name, TagCount: rec.TagCount, Rating: rec.Rating})
	}
	if len(points) == 0 {
		return noData(b.Kind(), ReasonEmptySample)
	}
	if len(points) < minDensitySample {
		return noData(b.Kind(), ReasonInsufficientSample)
	}

	return &DensityDataset{
		Label:  in.title("Business Quality vs Category Diversity in %s"),
		Points: points,
	}, nil
}

type hoursBuilder struct{}

func (hoursBuilder) Kind() Kind { return KindBusinessHours }

func (b hoursBuilder) Build(in *Input) (Dataset, error) {
	places, ok := in.Places()
	if !ok {
		return noData(b.Kind(), ReasonMissingEntities)
	}
	if len(places) == 0 {
		return noData(b.Kind(), ReasonEmptySample)
	}

	counts := HourlyActivity(places)
	hours := make([]HourlyCount, HoursInDay)
	for h := range counts {
		hours[h] = HourlyCount{Hour: h, ActiveBusinesses: counts[h]}
	}

	return &HoursDataset{
		Label: in.title("Estimated Business Activity by Hour in %s"),
		Hours: hours,
	}, nil
}

type priceBuilder struct{}

func (priceBuilder) Kind() Kind { return KindPriceRange }

func (b priceBuilder) Build(in *Input) (Dataset, error) {
	places, ok := in.Places()
	if !ok {
		return noData(b.Kind(), ReasonMissingEntities)
	}
	if len(places) == 0 {
		return noData(b.Kind(), ReasonEmptySample)
	}

	counts := make(map[string]int, len(PriceBuckets))
	for _, rec := range places {
		tier := PriceTier(rec.LowerCategories(), rec.Rating, rec.HasRating)
		counts[PriceBucket(tier)]++
	}

	buckets := make([]PriceBucketCount, len(PriceBuckets))
	for i, label := range PriceBuckets {
		buckets[i] = PriceBucketCount{Bucket: label, Count: counts[label]}
	}

	return &PriceDataset{
		Label:   in.title("Estimated Price Range Distribution in %s"),
		Buckets: buckets,
	}, nil
}
