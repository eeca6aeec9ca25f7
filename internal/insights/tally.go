package insights

import "sort"

const (
	brandCategoryTopN = 8
	placeCategoryTopN = 12
)

type CategoryCount struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
}

// Tally counts category occurrences across records and returns the topN most
// frequent, highest first. Equal counts keep first-encountered order. A
// non-positive topN returns every category.
func Tally(records []Record, topN int) []CategoryCount {
	index := make(map[string]int)
	var counts []CategoryCount

	for _, rec := range records {
		for _, cat := range rec.Categories {
			if i, ok := index[cat]; ok {
				counts[i].Count++
				continue
			}
			index[cat] = len(counts)
			counts = append(counts, CategoryCount{Category: cat, Count: 1})
		}
	}

	sort.SliceStable(counts, func(i, j int) bool {
		return counts[i].Count > counts[j].Count
	})

	if topN > 0 && len(counts) > topN {
		counts = counts[:topN]
	}
	if counts == nil {
		return []CategoryCount{}
	}
	return counts
}
