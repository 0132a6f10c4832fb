package docstore

import "time"

// Op names a filter comparison.
type Op string

const (
	OpEq       Op = "eq"
	OpIn       Op = "in"
	OpContains Op = "contains"
	OpSearch   Op = "search"
	OpGte      Op = "gte"
	OpLte      Op = "lte"
	OpMissing  Op = "missing"
	OpNotEmpty Op = "not_empty"
)

// Condition is one predicate over a document field.
type Condition struct {
	Field  string
	Op     Op
	Value  any
	Fields []string
}

// Filter is a conjunction of conditions.
type Filter []Condition

// Eq matches documents whose field equals v.
func Eq(field string, v any) Condition {
	return Condition{Field: field, Op: OpEq, Value: v}
}

// In matches documents whose string field is one of values.
func In(field string, values []string) Condition {
	return Condition{Field: field, Op: OpIn, Value: values}
}

// Contains matches documents whose array field holds v.
func Contains(field string, v any) Condition {
	return Condition{Field: field, Op: OpContains, Value: v}
}

// Search is a case-insensitive substring match across fields.
func Search(term string, fields ...string) Condition {
	return Condition{Op: OpSearch, Value: term, Fields: fields}
}

func Gte(field string, t time.Time) Condition {
	return Condition{Field: field, Op: OpGte, Value: t.UTC()}
}

func Lte(field string, t time.Time) Condition {
	return Condition{Field: field, Op: OpLte, Value: t.UTC()}
}

// Missing matches documents where the field is absent or null.
func Missing(field string) Condition {
	return Condition{Field: field, Op: OpMissing}
}

// NotEmpty matches documents whose array field has at least one element.
func NotEmpty(field string) Condition {
	return Condition{Field: field, Op: OpNotEmpty}
}

func (f Filter) validate() error {
	for _, cond := range f {
		if cond.Op == OpSearch {
			for _, field := range cond.Fields {
				if err := validateField(field); err != nil {
					return err
				}
			}
			continue
		}
		if err := validateField(cond.Field); err != nil {
			return err
		}
	}
	return nil
}

var timeFields = map[string]bool{
	"createdAt":  true,
	"updatedAt":  true,
	"resolvedAt": true,
	"closedAt":   true,
}
