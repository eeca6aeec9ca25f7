package insights

import "fmt"

// Kind names one dataset in the pipeline output.
type Kind string

const (
	KindBrandPopularity Kind = "brand_popularity"
	KindBrandCategories Kind = "brand_categories"
	KindPlaceRatings    Kind = "place_ratings"
	KindPlaceCategories Kind = "place_categories"
	KindBusinessDensity Kind = "business_density"
	KindBusinessHours   Kind = "business_hours"
	KindPriceRange      Kind = "price_range"
)

// Kinds lists every dataset in build order.
var Kinds = []Kind{
	KindBrandPopularity,
	KindBrandCategories,
	KindPlaceRatings,
	KindPlaceCategories,
	KindBusinessDensity,
	KindBusinessHours,
	KindPriceRange,
}

// ParseKind validates a dataset name.
func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown dataset %q", s)
}

// Dataset is one chart-ready output unit.
type Dataset interface {
	Kind() Kind
	Title() string
}

// Result maps dataset names to datasets. Datasets without data are absent.
type Result map[Kind]Dataset

// Names returns the present dataset names in build order.
func (r Result) Names() []string {
	out := make([]string, 0, len(r))
	for _, k := range Kinds {
		if _, ok := r[k]; ok {
			out = append(out, string(k))
		}
	}
	return out
}

type PopularityEntry struct {
	Brand         string  `json:"brand"`
	PopularityPct float64 `json:"popularityPct"`
}

// PopularityDataset ranks brands by popularity, least popular first.
type PopularityDataset struct {
	Label   string            `json:"title"`
	Entries []PopularityEntry `json:"entries"`
}

func (d *PopularityDataset) Kind() Kind    { return KindBrandPopularity }
func (d *PopularityDataset) Title() string { return d.Label }

// CategoryDataset is a top-N category frequency table, most frequent first.
type CategoryDataset struct {
	DatasetKind Kind            `json:"-"`
	Label       string          `json:"title"`
	Categories  []CategoryCount `json:"categories"`
}

func (d *CategoryDataset) Kind() Kind    { return d.DatasetKind }
func (d *CategoryDataset) Title() string { return d.Label }

// RatingsDataset is the raw rating sample for a histogram.
type RatingsDataset struct {
	Label   string    `json:"title"`
	Ratings []float64 `json:"ratings"`
}

func (d *RatingsDataset) Kind() Kind    { return KindPlaceRatings }
func (d *RatingsDataset) Title() string { return d.Label }

type DensityPoint struct {
	Name     string  `json:"name"`
	TagCount int     `json:"tagCount"`
	Rating   float64 `json:"rating"`
}

// DensityDataset pairs category diversity with rating per rated place.
type DensityDataset struct {
	Label  string         `json:"title"`
	Points []DensityPoint `json:"points"`
}

func (d *DensityDataset) Kind() Kind    { return KindBusinessDensity }
func (d *DensityDataset) Title() string { return d.Label }

type HourlyCount struct {
	Hour             int `json:"hour"`
	ActiveBusinesses int `json:"activeBusinesses"`
}

// HoursDataset has one entry per hour 0..23, zeros included.
type HoursDataset struct {
	Label string        `json:"title"`
	Hours []HourlyCount `json:"hours"`
}

func (d *HoursDataset) Kind() Kind    { return KindBusinessHours }
func (d *HoursDataset) Title() string { return d.Label }

type PriceBucketCount struct {
	Bucket string `json:"bucket"`
	Count  int    `json:"count"`
}

// PriceDataset has every price bucket in display order, zeros included.
type PriceDataset struct {
	Label   string             `json:"title"`
	Buckets []PriceBucketCount `json:"buckets"`
}

func (d *PriceDataset) Kind() Kind    { return KindPriceRange }
func (d *PriceDataset) Title() string { return d.Label }
