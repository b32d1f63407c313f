package dataset

import (
	"math"
	"sort"
	"strconv"
	"strings"
)

// Record is one immutable row of well measurements. Missing values are
// simply absent; NaN numerics and empty categories are treated as missing.
// The With* helpers return modified copies and never touch the receiver.
type Record struct {
	id  string
	num map[string]float64
	cat map[string]string
}

// NewRecord builds a record, copying the given maps.
func NewRecord(id string, numeric map[string]float64, categorical map[string]string) Record {
	r := Record{
		id:  id,
		num: make(map[string]float64, len(numeric)),
		cat: make(map[string]string, len(categorical)),
	}
	for k, v := range numeric {
		if !math.IsNaN(v) {
			r.num[k] = v
		}
	}
	for k, v := range categorical {
		if strings.TrimSpace(v) != "" {
			r.cat[k] = v
		}
	}
	return r
}

func (r Record) ID() string { return r.id }

// Number returns a numeric field. ok is false when the field is missing.
func (r Record) Number(name string) (float64, bool) {
	v, ok := r.num[name]
	return v, ok
}

// Category returns a categorical field. ok is false when the field is missing.
func (r Record) Category(name string) (string, bool) {
	v, ok := r.cat[name]
	return v, ok
}

// Has reports whether the field is present with either kind.
func (r Record) Has(name string) bool {
	if _, ok := r.num[name]; ok {
		return true
	}
	_, ok := r.cat[name]
	return ok
}

// Text renders a field for display and text-based writers.
func (r Record) Text(name string) (string, bool) {
	if v, ok := r.num[name]; ok {
		return strconv.FormatFloat(v, 'f', -1, 64), true
	}
	v, ok := r.cat[name]
	return v, ok
}

// Fields lists the present field names in sorted order.
func (r Record) Fields() []string {
	out := make([]string, 0, len(r.num)+len(r.cat))
	for k := range r.num {
		out = append(out, k)
	}
	for k := range r.cat {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Numbers returns a copy of the numeric values.
func (r Record) Numbers() map[string]float64 {
	out := make(map[string]float64, len(r.num))
	for k, v := range r.num {
		out[k] = v
	}
	return out
}

// Categories returns a copy of the categorical values.
func (r Record) Categories() map[string]string {
	out := make(map[string]string, len(r.cat))
	for k, v := range r.cat {
		out[k] = v
	}
	return out
}

// WithNumber returns a copy with the numeric field set. NaN removes it.
func (r Record) WithNumber(name string, v float64) Record {
	num := r.Numbers()
	if math.IsNaN(v) {
		delete(num, name)
	} else {
		num[name] = v
	}
	return Record{id: r.id, num: num, cat: r.cat}
}

// WithCategory returns a copy with the categorical field set. Empty removes it.
func (r Record) WithCategory(name, v string) Record {
	cat := r.Categories()
	if strings.TrimSpace(v) == "" {
		delete(cat, name)
	} else {
		cat[name] = v
	}
	return Record{id: r.id, num: r.num, cat: cat}
}

// Without returns a copy with the field removed.
func (r Record) Without(name string) Record {
	if !r.Has(name) {
		return r
	}
	return r.WithNumber(name, math.NaN()).WithCategory(name, "")
}
