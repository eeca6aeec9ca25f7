package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"
)

// SchemaRegistrar accepts compiled input schemas; the validation package's
// Validator satisfies it.
type SchemaRegistrar interface {
	Register(name string, schema map[string]interface{}) error
}

func LoadRegistry(path string) (*ActivityRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read registry %s: %w", path, err)
	}
	return ParseRegistry(data)
}

func ParseRegistry(data []byte) (*ActivityRegistry, error) {
	var reg ActivityRegistry
	if err := json.Unmarshal(data, &reg); err != nil {
		return nil, fmt.Errorf("parse registry: %w", err)
	}
	seen := make(map[string]bool, len(reg.Activities))
	for _, a := range reg.Activities {
		if a.TaskType == "" {
			return nil, fmt.Errorf("activity %q has no taskType", a.ID)
		}
		if seen[a.TaskType] {
			return nil, fmt.Errorf("duplicate taskType %q", a.TaskType)
		}
		seen[a.TaskType] = true
	}
	return &reg, nil
}

// Find returns the activity with the given task type.
func (r *ActivityRegistry) Find(taskType string) (*Activity, bool) {
	for i := range r.Activities {
		if r.Activities[i].TaskType == taskType {
			return &r.Activities[i], true
		}
	}
	return nil, false
}

// ActivityTimeout parses the activity's timeout, falling back to def.
func (r *ActivityRegistry) ActivityTimeout(taskType string, def time.Duration) time.Duration {
	a, ok := r.Find(taskType)
	if !ok || a.Timeout == "" {
		return def
	}
	d, err := time.ParseDuration(a.Timeout)
	if err != nil || d <= 0 {
		return def
	}
	return d
}

// RegisterSchemas hands every activity input schema to v, keyed by task type.
func (r *ActivityRegistry) RegisterSchemas(v SchemaRegistrar) error {
	for _, a := range r.Activities {
		if len(a.InputSchema) == 0 {
			continue
		}
		if err := v.Register(a.TaskType, a.InputSchema); err != nil {
			return err
		}
	}
	return nil
}

// Check reports the first activity missing a field the worker manager and
// the API depend on.
func (r *ActivityRegistry) Check() error {
	if len(r.Activities) == 0 {
		return fmt.Errorf("registry contains no activities")
	}
	ids := make(map[string]bool, len(r.Activities))
	for _, a := range r.Activities {
		switch {
		case a.ID == "":
			return fmt.Errorf("activity %q has no id", a.TaskType)
		case ids[a.ID]:
			return fmt.Errorf("duplicate activity id %q", a.ID)
		case a.DisplayName == "":
			return fmt.Errorf("activity %s has no displayName", a.ID)
		case a.Category == "":
			return fmt.Errorf("activity %s has no category", a.ID)
		}
		ids[a.ID] = true
		if a.Timeout != "" {
			if _, err := time.ParseDuration(a.Timeout); err != nil {
				return fmt.Errorf("activity %s: timeout %q: %w", a.ID, a.Timeout, err)
			}
		}
	}
	return nil
}

// Set updates one editable field of the activity with the given id and
// stamps LastUpdated.
func (r *ActivityRegistry) Set(id, field, value string, now time.Time) error {
	var a *Activity
	for i := range r.Activities {
		if r.Activities[i].ID == id {
			a = &r.Activities[i]
			break
		}
	}
	if a == nil {
		return fmt.Errorf("activity %s not found", id)
	}

	switch field {
	case "status":
		a.ImplementationStatus = value
	case "version":
		a.Version = value
	case "description":
		a.Description = value
	case "timeout":
		if _, err := time.ParseDuration(value); err != nil {
			return fmt.Errorf("invalid timeout %q: %w", value, err)
		}
		a.Timeout = value
	case "retries":
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return fmt.Errorf("invalid retries %q", value)
		}
		a.Retries = n
	default:
		return fmt.Errorf("unknown field %q (status, version, description, timeout, retries)", field)
	}
	r.LastUpdated = now.UTC().Format(time.RFC3339)
	return nil
}

func (r *ActivityRegistry) Save(path string) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal registry: %w", err)
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}
