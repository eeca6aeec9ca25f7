package insights

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var (
	ErrMissingValue = errors.New("value missing")
	ErrNotAvailable = errors.New("value not available")
	ErrUnparsable   = errors.New("value not numeric")
	ErrTypeMismatch = errors.New("unsupported value type")
)

// notAvailable is the placeholder the upstream API uses for unknown ratings.
const notAvailable = "N/A"

// ParseError reports why a raw field could not be read as a number.
type ParseError struct {
	Field string
	Value interface{}
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s %v: %v", e.Field, e.Value, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ParseRating reads a business rating. It never panics; callers treat any
// error as "no rating".
func ParseRating(raw interface{}) (float64, error) {
	return coerceFloat("business_rating", raw)
}

// ParsePopularity reads an entity popularity score.
func ParsePopularity(raw interface{}) (float64, error) {
	return coerceFloat("popularity", raw)
}

func coerceFloat(field string, raw interface{}) (float64, error) {
	fail := func(err error) (float64, error) {
		return 0, &ParseError{Field: field, Value: raw, Err: err}
	}

	var f float64
	switch v := raw.(type) {
	case nil:
		return fail(ErrMissingValue)
	case float64:
		f = v
	case float32:
		f = float64(v)
	case int:
		f = float64(v)
	case int8:
		f = float64(v)
	case int16:
		f = float64(v)
	case int32:
		f = float64(v)
	case int64:
		f = float64(v)
	case uint:
		f = float64(v)
	case uint8:
		f = float64(v)
	case uint16:
		f = float64(v)
	case uint32:
		f = float64(v)
	case uint64:
		f = float64(v)
	case json.Number:
		parsed, err := strconv.ParseFloat(string(v), 64)
		if err != nil {
			return fail(ErrUnparsable)
		}
		f = parsed
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return fail(ErrMissingValue)
		}
		if strings.EqualFold(s, notAvailable) {
			return fail(ErrNotAvailable)
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fail(ErrUnparsable)
		}
		f = parsed
	default:
		return fail(ErrTypeMismatch)
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return fail(ErrUnparsable)
	}
	return f, nil
}

// floatOr returns the parsed value or def when parsing failed.
func floatOr(v float64, err error, def float64) float64 {
	if err != nil {
		return def
	}
	return v
}
