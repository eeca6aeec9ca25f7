package insights

import (
	"testing"

	"city-insights/internal/common/logger"
	"city-insights/internal/models"
)

// ==========================
// Test Helper Functions
// ==========================

type testLogger struct {
	t       *testing.T
	errors  []string
	omitted []string
}

func (tl *testLogger) Debug(msg string, fields map[string]interface{}) {
	if msg == "dataset omitted" {
		tl.omitted = append(tl.omitted, fields["dataset"].(string))
	}
	tl.t.Logf("DEBUG: %s %v", msg, fields)
}

func (tl *testLogger) Info(msg string, fields map[string]interface{}) {
	tl.t.Logf("INFO: %s %v", msg, fields)
}

func (tl *testLogger) Warn(msg string, fields map[string]interface{}) {
	tl.t.Logf("WARN: %s %v", msg, fields)
}

func (tl *testLogger) Error(msg string, fields map[string]interface{}) {
	tl.errors = append(tl.errors, msg)
	tl.t.Logf("ERROR: %s %v", msg, fields)
}

func (tl *testLogger) WithFields(fields map[string]interface{}) logger.Logger { return tl }
func (tl *testLogger) WithError(err error) logger.Logger                    { return tl }
func (tl *testLogger) With(fields map[string]interface{}) logger.Logger       { return tl }

func newTestLogger(t *testing.T) *testLogger {
	return &testLogger{t: t}
}

func brand(name string, popularity interface{}, tags ...string) models.Entity {
	e := models.Entity{"name": name, "tags": tagList(tags...)}
	if popularity != nil {
		e["popularity"] = popularity
	}
	return e
}

func place(name string, rating interface{}, tags ...string) models.Entity {
	e := models.Entity{"name": name, "tags": tagList(tags...)}
	if rating != nil {
		e["properties"] = map[string]interface{}{"business_rating": rating}
	}
	return e
}

func tagList(names ...string) []interface{} {
	out := make([]interface{}, 0, len(names))
	for _, n := range names {
		out = append(out, map[string]interface{}{"name": n})
	}
	return out
}

func records(tagSets ...[]string) []Record {
	out := make([]Record, 0, len(tagSets))
	for _, tags := range tagSets {
		out = append(out, Record{Name: "r", Categories: tags, TagCount: len(tags)})
	}
	return out
}

// ratedPlaces returns n places rated 3.0, 3.1, ... with one tag each.
func ratedPlaces(n int) []models.Entity {
	out := make([]models.Entity, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, place(string(rune('A'+i)), float64(30+i)/10, "Restaurant"))
	}
	return out
}
