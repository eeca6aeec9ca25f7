// internal/models/document.go
package models

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Document is one decoded response body from the recommendation API. The
// payload is loosely typed, so it stays a generic JSON object.
type Document map[string]interface{}

// Entity is one element of results.entities.
type Entity map[string]interface{}

// Tag is one element of an entity's tags list.
type Tag map[string]interface{}

// DecodeDocument parses raw JSON keeping numbers as json.Number.
func DecodeDocument(data []byte) (Document, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var doc Document
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	return doc, nil
}

// Entities returns results.entities. The boolean is false when the document
// does not have that shape at all; an empty list is still ok=true.
func (d Document) Entities() ([]Entity, bool) {
	if d == nil {
		return nil, false
	}
	results, ok := asObject(d["results"])
	if !ok {
		return nil, false
	}
	raw, ok := results["entities"].([]interface{})
	if !ok {
		return nil, false
	}

	out := make([]Entity, 0, len(raw))
	for _, item := range raw {
		if obj, ok := asObject(item); ok {
			out = append(out, Entity(obj))
		}
	}
	return out, true
}

// NewDocument wraps entities in the results.entities envelope.
func NewDocument(entities ...Entity) Document {
	list := make([]interface{}, 0, len(entities))
	for _, e := range entities {
		list = append(list, map[string]interface{}(e))
	}
	return Document{"results": map[string]interface{}{"entities": list}}
}

func (e Entity) Raw(key string) (interface{}, bool) {
	v, ok := e[key]
	return v, ok
}

// String returns the value at key when it is a string.
func (e Entity) String(key string) (string, bool) {
	s, ok := e[key].(string)
	return s, ok
}

// Properties returns the properties object, or nil.
func (e Entity) Properties() map[string]interface{} {
	props, _ := asObject(e["properties"])
	return props
}

// Property returns properties[key].
func (e Entity) Property(key string) (interface{}, bool) {
	props := e.Properties()
	if props == nil {
		return nil, false
	}
	v, ok := props[key]
	return v, ok
}

// Tags returns the well-formed tag objects; anything else in the list is skipped.
func (e Entity) Tags() []Tag {
	raw, ok := e["tags"].([]interface{})
	if !ok {
		return nil
	}
	out := make([]Tag, 0, len(raw))
	for _, item := range raw {
		if obj, ok := asObject(item); ok {
			out = append(out, Tag(obj))
		}
	}
	return out
}

// Name returns the tag name and whether the key held a string.
func (t Tag) Name() (string, bool) {
	s, ok := t["name"].(string)
	return s, ok
}

func asObject(v interface{}) (map[string]interface{}, bool) {
	switch obj := v.(type) {
	case map[string]interface{}:
		return obj, true
	case Document:
		return obj, true
	case Entity:
		return obj, true
	case Tag:
		return obj, true
	default:
		return nil, false
	}
}
