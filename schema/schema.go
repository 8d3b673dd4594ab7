// Package schema declares the required fields, defaults and value kinds of
// each persisted entity, and converts raw documents into models.
package schema

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"wanderlist/models"
	"wanderlist/store"
)

type Kind int

const (
	Any Kind = iota
	String
	Number
	Strings
	Time
)

type Field struct {
	Name     string
	Kind     Kind
	Required bool
	Default  any
}

type Schema struct {
	Entity string
	Fields []Field
}

// ValidationError lists the required fields a document lacks and the
// fields whose values could not be coerced to their declared kind.
type ValidationError struct {
	Entity  string
	Key     string
	Missing []string
	Invalid []string
}

func (e *ValidationError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, "missing "+strings.Join(e.Missing, ", "))
	}
	if len(e.Invalid) > 0 {
		parts = append(parts, "invalid "+strings.Join(e.Invalid, ", "))
	}
	key := ""
	if e.Key != "" {
		key = " " + strconv.Quote(e.Key)
	}
	return fmt.Sprintf("%s%s: %s", e.Entity, key, strings.Join(parts, "; "))
}

// Check returns a normalized copy of doc with defaults applied and values
// coerced, or a *ValidationError.
func (s Schema) Check(doc store.Document) (store.Document, error) {
	out := doc.Clone()
	verr := &ValidationError{Entity: s.Entity, Key: doc.String(store.KeyField)}

	for _, f := range s.Fields {
		v, present := out[f.Name]
		if present && isBlank(v) {
			present = false
		}
		if !present {
			switch {
			case f.Required:
				verr.Missing = append(verr.Missing, f.Name)
			case f.Default != nil:
				out[f.Name] = f.Default
			default:
				delete(out, f.Name)
			}
			continue
		}
		cv, ok := coerce(f.Kind, v)
		if !ok {
			verr.Invalid = append(verr.Invalid, f.Name)
			continue
		}
		out[f.Name] = cv
	}

	if len(verr.Missing) > 0 || len(verr.Invalid) > 0 {
		return nil, verr
	}
	return out, nil
}

// Decode checks doc against s and unmarshals it into T.
func Decode[T any](s Schema, doc store.Document) (T, error) {
	var out T
	clean, err := s.Check(doc)
	if err != nil {
		return out, err
	}
	raw, err := bson.Marshal(map[string]any(clean))
	if err != nil {
		return out, fmt.Errorf("encode %s: %w", s.Entity, err)
	}
	if err := bson.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("decode %s: %w", s.Entity, err)
	}
	return out, nil
}

// Encode turns a bson-tagged struct into a store document.
func Encode(v any) (store.Document, error) {
	raw, err := bson.Marshal(v)
	if err != nil {
		return nil, err
	}
	var m bson.M
	if err := bson.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	return store.Document(m), nil
}

func isBlank(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(t) == ""
	}
	return false
}

func coerce(k Kind, v any) (any, bool) {
	switch k {
	case String:
		switch t := v.(type) {
		case string:
			return strings.TrimSpace(t), true
		case int, int32, int64, float64:
			return fmt.Sprint(t), true
		}
		return nil, false
	case Number:
		switch t := v.(type) {
		case float64:
			return t, true
		case float32:
			return float64(t), true
		case int:
			return float64(t), true
		case int32:
			return float64(t), true
		case int64:
			return float64(t), true
		case string:
			f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
			return f, err == nil
		}
		return nil, false
	case Strings:
		return models.NormalizeKeywords(v), true
	case Time:
		switch t := v.(type) {
		case time.Time:
			return t, true
		case primitive.DateTime:
			return t.Time(), true
		case string:
			return parseTime(strings.TrimSpace(t))
		}
		return nil, false
	}
	return v, true
}

var timeLayouts = []string{time.RFC3339Nano, time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"}

func parseTime(s string) (any, bool) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return nil, false
}
