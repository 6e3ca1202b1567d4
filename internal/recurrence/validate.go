package recurrence

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// ErrInvalidRule matches any InvalidRuleError via errors.Is.
var ErrInvalidRule = errors.New("invalid recurrence rule")

// InvalidRuleError rejects a rule at task-creation time.
type InvalidRuleError struct {
	Reason string
}

func (e InvalidRuleError) Error() string {
	return fmt.Sprintf("invalid recurrence rule: %s", e.Reason)
}

func (e InvalidRuleError) Is(target error) bool {
	return target == ErrInvalidRule
}

// Validate reports whether r can be attached to a task.
func Validate(r Rule) error {
	if !r.Kind.IsValid() {
		return InvalidRuleError{Reason: fmt.Sprintf("unknown type %q", r.Kind)}
	}
	// A count of 0 is unbounded.
	if r.MaxOccurrences < 0 {
		return InvalidRuleError{Reason: "count must not be negative"}
	}
	switch r.Kind {
	case KindDaily:
		if r.Interval < 0 {
			return InvalidRuleError{Reason: "interval must be at least 1"}
		}
	case KindEveryNDays:
		if r.Interval < 1 {
			return InvalidRuleError{Reason: "interval must be at least 1"}
		}
	case KindWeekly:
		if len(r.Weekdays) == 0 {
			return InvalidRuleError{Reason: "weekly rule needs at least one weekday"}
		}
		for _, d := range r.Weekdays {
			if d < 0 || d > 6 {
				return InvalidRuleError{Reason: fmt.Sprintf("weekday %d out of range 0..6", d)}
			}
		}
	}
	return nil
}

const ruleSchemaURL = "https://focusquest.schemas.local/recurrence.schema.json"

const ruleSchemaJSON = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["type"],
  "additionalProperties": false,
  "properties": {
    "type": {"enum": ["one-time", "daily", "every_n_days", "weekly"]},
    "interval": {"type": "integer", "minimum": 0},
    "byweekday": {
      "type": "array",
      "items": {"type": "integer", "minimum": 0, "maximum": 6}
    },
    "count": {"type": ["integer", "null"], "minimum": 0}
  },
  "allOf": [
    {
      "if": {"properties": {"type": {"const": "weekly"}}},
      "then": {"required": ["byweekday"], "properties": {"byweekday": {"minItems": 1}}}
    },
    {
      "if": {"properties": {"type": {"const": "every_n_days"}}},
      "then": {"required": ["interval"]}
    }
  ]
}`

var ruleSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft2020
	if err := c.AddResource(ruleSchemaURL, strings.NewReader(ruleSchemaJSON)); err != nil {
		return nil, fmt.Errorf("recurrence schema load: %w", err)
	}
	compiled, err := c.Compile(ruleSchemaURL)
	if err != nil {
		return nil, fmt.Errorf("recurrence schema compile: %w", err)
	}
	return compiled, nil
})

// ParseJSON decodes an inbound recurrence object. A JSON null yields a nil rule.
func ParseJSON(data []byte) (*Rule, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}

	schema, err := ruleSchema()
	if err != nil {
		return nil, err
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, InvalidRuleError{Reason: err.Error()}
	}
	if err := schema.Validate(doc); err != nil {
		return nil, InvalidRuleError{Reason: err.Error()}
	}

	var r Rule
	if err := json.Unmarshal(trimmed, &r); err != nil {
		return nil, InvalidRuleError{Reason: err.Error()}
	}
	if err := Validate(r); err != nil {
		return nil, err
	}
	return &r, nil
}
