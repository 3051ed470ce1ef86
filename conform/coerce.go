package conform

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/openrange/elkhorn/quality"
	"github.com/openrange/elkhorn/star"
)

// Date layouts accepted by the coercion layer, tried in order. Sources mix
// ISO dates and US-style slashed dates.
var dateLayouts = []string{
	"2006-01-02",
	"01/02/2006",
	time.RFC3339,
}

// coercer converts one staged record's untyped fields into typed values,
// collecting a blocking format violation for every field that cannot be
// coerced. Coercion never halts a batch: the record conforms with zero
// values and the violation excludes it from load.
type coercer struct {
	entity     star.Entity
	index      int
	rec        star.StagedRecord
	violations *[]quality.Violation
}

func (c *coercer) fail(field, detail string) {
	*c.violations = append(*c.violations, quality.Violation{
		Entity:   c.entity,
		Index:    c.index,
		Record:   c.rec.Ref(),
		Rule:     quality.RuleFormat,
		Severity: quality.SeverityBlocking,
		Message:  fmt.Sprintf("field %s: %s", field, detail),
	})
}

func (c *coercer) str(field string) string {
	return strings.TrimSpace(c.rec.String(field))
}

func (c *coercer) float(field string) float64 {
	v, ok := c.rec.Fields[field]
	if !ok || v == nil {
		return 0
	}
	f, ok := toFloat(v)
	if !ok {
		c.fail(field, fmt.Sprintf("cannot parse %q as a number", c.rec.String(field)))
		return 0
	}
	return f
}

func (c *coercer) int(field string) int64 {
	v, ok := c.rec.Fields[field]
	if !ok || v == nil {
		return 0
	}
	n, ok := toInt(v)
	if !ok {
		c.fail(field, fmt.Sprintf("cannot parse %q as an integer", c.rec.String(field)))
		return 0
	}
	return n
}

func (c *coercer) bool(field string) bool {
	v, ok := c.rec.Fields[field]
	if !ok || v == nil {
		return false
	}
	if b, ok := v.(bool); ok {
		return b
	}
	switch strings.ToLower(strings.TrimSpace(c.rec.String(field))) {
	case "true", "1", "yes":
		return true
	case "false", "0", "no", "":
		return false
	}
	c.fail(field, fmt.Sprintf("cannot parse %q as a boolean", c.rec.String(field)))
	return false
}

// date returns nil when the field is absent, so optional dates stay null.
func (c *coercer) date(field string) *time.Time {
	s := c.str(field)
	if s == "" {
		return nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC()
			return &t
		}
	}
	c.fail(field, fmt.Sprintf("cannot parse %q as a date", s))
	return nil
}

// requiredDate is like date but also blocks on an absent value; fact
// business dates cannot be null.
func (c *coercer) requiredDate(field string) time.Time {
	t := c.date(field)
	if t == nil {
		if c.str(field) == "" {
			c.fail(field, "required date is empty")
		}
		return time.Time{}
	}
	return *t
}

func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		return f, err == nil
	}
	return 0, false
}

func toInt(v any) (int64, bool) {
	switch x := v.(type) {
	case int64:
		return x, true
	case int:
		return int64(x), true
	case float64:
		// JSON numbers decode as float64; only accept whole values.
		if x == float64(int64(x)) {
			return int64(x), true
		}
		return 0, false
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(x), 10, 64)
		return n, err == nil
	}
	return 0, false
}

// jsonEncode renders a staged array field (threats, partner orgs) as a JSON
// string for storage. Non-array values wrap into a single-element array so
// malformed sources still conform.
func jsonEncode(v any) string {
	if v == nil {
		return "[]"
	}
	if s, ok := v.(string); ok {
		if strings.HasPrefix(strings.TrimSpace(s), "[") {
			return s
		}
		v = []any{s}
	}
	if _, ok := v.([]any); !ok {
		v = []any{v}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "[]"
	}
	return string(b)
}
