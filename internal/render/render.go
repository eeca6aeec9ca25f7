// Package render turns insight datasets into PNG charts or terminal tables.
package render

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"city-insights/internal/insights"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/go-analyze/charts"
)

const (
	TypeBar   = "bar"
	TypeLine  = "line"
	TypePie   = "pie"
	TypeTable = "table"

	DefaultWidth  = 800
	DefaultHeight = 400
)

// Chart is a flattened, render-ready view of one dataset.
type Chart struct {
	Kind   insights.Kind
	Type   string
	Title  string
	Labels []string
	Values []float64
}

// ratingBins are half-star histogram bins over 0..5.
var ratingBins = []string{
	"0.0-0.5", "0.5-1.0", "1.0-1.5", "1.5-2.0", "2.0-2.5",
	"2.5-3.0", "3.0-3.5", "3.5-4.0", "4.0-4.5", "4.5-5.0",
}

// FromDataset flattens ds into a Chart. ok is false for unknown datasets.
func FromDataset(ds insights.Dataset) (Chart, bool) {
	c := Chart{Kind: ds.Kind(), Title: ds.Title()}
	switch d := ds.(type) {
	case *insights.PopularityDataset:
		c.Type = TypeBar
		for _, e := range d.Entries {
			c.Labels = append(c.Labels, e.Brand)
			c.Values = append(c.Values, e.PopularityPct)
		}
	case *insights.CategoryDataset:
		c.Type = TypeBar
		if d.DatasetKind == insights.KindBrandCategories {
			c.Type = TypePie
		}
		for _, cc := range d.Categories {
			c.Labels = append(c.Labels, cc.Category)
			c.Values = append(c.Values, float64(cc.Count))
		}
	case *insights.RatingsDataset:
		c.Type = TypeBar
		c.Labels = append(c.Labels, ratingBins...)
		c.Values = make([]float64, len(ratingBins))
		for _, r := range d.Ratings {
			c.Values[ratingBin(r)]++
		}
	case *insights.DensityDataset:
		c.Type = TypeTable
		for _, p := range d.Points {
			c.Labels = append(c.Labels, fmt.Sprintf("%s (%d tags)", p.Name, p.TagCount))
			c.Values = append(c.Values, p.Rating)
		}
	case *insights.HoursDataset:
		c.Type = TypeBar
		for _, h := range d.Hours {
			c.Labels = append(c.Labels, fmt.Sprintf("%02d", h.Hour))
			c.Values = append(c.Values, float64(h.ActiveBusinesses))
		}
	case *insights.PriceDataset:
		c.Type = TypePie
		for _, b := range d.Buckets {
			c.Labels = append(c.Labels, b.Bucket)
			c.Values = append(c.Values, float64(b.Count))
		}
	default:
		return Chart{}, false
	}
	return c, true
}

func ratingBin(r float64) int {
	if math.IsNaN(r) {
		return 0
	}
	r = math.Max(0, math.Min(r, 5))
	i := int(r * 2)
	if i >= len(ratingBins) {
		return len(ratingBins) - 1
	}
	return i
}

// Charts flattens every dataset in result, in build order.
func Charts(result insights.Result) []Chart {
	out := make([]Chart, 0, len(result))
	for _, k := range insights.Kinds {
		ds, ok := result[k]
		if !ok {
			continue
		}
		if c, ok := FromDataset(ds); ok {
			out = append(out, c)
		}
	}
	return out
}

// RenderPNG draws c with go-analyze/charts. Table charts have no image form.
func RenderPNG(c Chart, width, height int) ([]byte, error) {
	if len(c.Values) == 0 {
		return nil, fmt.Errorf("chart %s has no values", c.Kind)
	}
	values := append([]float64(nil), c.Values...)

	switch c.Type {
	case TypeBar:
		return encode(c.Type)(charts.BarRender([][]float64{values},
			charts.TitleTextOptionFunc(c.Title),
			charts.XAxisLabelsOptionFunc(c.Labels),
			charts.DimensionsOptionFunc(width, height),
			charts.PNGOutputOptionFunc(),
		))
	case TypeLine:
		return encode(c.Type)(charts.LineRender([][]float64{values},
			charts.TitleTextOptionFunc(c.Title),
			charts.XAxisLabelsOptionFunc(c.Labels),
			charts.DimensionsOptionFunc(width, height),
			charts.PNGOutputOptionFunc(),
		))
	case TypePie:
		labels, values := nonZeroSlices(c.Labels, values)
		if len(values) == 0 {
			return nil, fmt.Errorf("chart %s has only empty slices", c.Kind)
		}
		return encode(c.Type)(charts.PieRender(values,
			charts.TitleTextOptionFunc(c.Title),
			charts.LegendLabelsOptionFunc(labels),
			charts.DimensionsOptionFunc(width, height),
			charts.PNGOutputOptionFunc(),
		))
	default:
		return nil, fmt.Errorf("unsupported chart type: %q", c.Type)
	}
}

// nonZeroSlices drops zero-valued pie slices.
func nonZeroSlices(labels []string, values []float64) ([]string, []float64) {
	var outLabels []string
	var outValues []float64
	for i, v := range values {
		if v <= 0 {
			continue
		}
		if i < len(labels) {
			outLabels = append(outLabels, labels[i])
		}
		outValues = append(outValues, v)
	}
	return outLabels, outValues
}

type painter interface {
	Bytes() ([]byte, error)
}

func encode(chartType string) func(painter, error) ([]byte, error) {
	return func(p painter, err error) ([]byte, error) {
		if err != nil {
			return nil, fmt.Errorf("rendering %s chart: %w", chartType, err)
		}
		buf, err := p.Bytes()
		if err != nil {
			return nil, fmt.Errorf("encoding %s chart PNG: %w", chartType, err)
		}
		return buf, nil
	}
}

// WritePNGs renders every image chart into dir as <dataset>.png and returns
// the written paths. Table charts are skipped.
func WritePNGs(dir string, result insights.Result) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create chart dir: %w", err)
	}
	var paths []string
	for _, c := range Charts(result) {
		if c.Type == TypeTable {
			continue
		}
		png, err := RenderPNG(c, DefaultWidth, DefaultHeight)
		if err != nil {
			return paths, err
		}
		path := filepath.Join(dir, string(c.Kind)+".png")
		if err := os.WriteFile(path, png, 0o644); err != nil {
			return paths, fmt.Errorf("write %s: %w", path, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// RenderTextTable formats c as a boxed two-column table, title on the line
// above. Cell widths follow terminal display width.
func RenderTextTable(c Chart) string {
	count := len(c.Labels)
	if len(c.Values) < count {
		count = len(c.Values)
	}
	if count == 0 {
		return ""
	}

	rows := make([][]string, count)
	for i := 0; i < count; i++ {
		rows[i] = []string{c.Labels[i], formatValue(c.Values[i])}
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		StyleFunc(func(row, col int) lipgloss.Style {
			if col == 1 {
				return valueCell
			}
			return labelCell
		}).
		Rows(rows...)

	if c.Title == "" {
		return t.String()
	}
	return c.Title + "\n" + t.String()
}

var (
	labelCell = lipgloss.NewStyle().Padding(0, 1)
	valueCell = lipgloss.NewStyle().Padding(0, 1).Align(lipgloss.Right)
)

// RenderText renders every dataset in result as tables separated by blank lines.
func RenderText(result insights.Result) string {
	var parts []string
	for _, c := range Charts(result) {
		if t := RenderTextTable(c); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, "\n\n")
}

func formatValue(v float64) string {
	if v == float64(int64(v)) {
		return strconv.FormatInt(int64(v), 10)
	}
	return strconv.FormatFloat(v, 'f', 1, 64)
}
