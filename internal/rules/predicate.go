package rules

import (
	"strings"

	"github.com/FARIDDD123/FormationDamageManagerFCDD/internal/dataset"
)

// truth is three-valued: a leaf on a missing field is unknown.
type truth int8

const (
	unknown truth = iota
	no
	yes
)

type condition interface {
	eval(r dataset.Record) truth
	fields(dst []string) []string
}

type numLeaf struct {
	field string
	op    Op
	a, b  float64
	set   []float64
}

func (l numLeaf) eval(r dataset.Record) truth {
	v, ok := r.Number(l.field)
	if !ok {
		return unknown
	}
	var hit bool
	switch l.op {
	case OpGT:
		hit = v > l.a
	case OpGE:
		hit = v >= l.a
	case OpLT:
		hit = v < l.a
	case OpLE:
		hit = v <= l.a
	case OpEQ:
		hit = v == l.a
	case OpNE:
		hit = v != l.a
	case OpBetween:
		hit = v >= l.a && v <= l.b
	case OpIn, OpNotIn:
		for _, s := range l.set {
			if v == s {
				hit = true
				break
			}
		}
		if l.op == OpNotIn {
			hit = !hit
		}
	}
	return asTruth(hit)
}

func (l numLeaf) fields(dst []string) []string { return append(dst, l.field) }

type catLeaf struct {
	field  string
	op     Op
	values []string
}

func (l catLeaf) eval(r dataset.Record) truth {
	v, ok := r.Category(l.field)
	if !ok {
		return unknown
	}
	hit := false
	for _, s := range l.values {
		if strings.EqualFold(strings.TrimSpace(v), s) {
			hit = true
			break
		}
	}
	if l.op == OpNE || l.op == OpNotIn {
		hit = !hit
	}
	return asTruth(hit)
}

func (l catLeaf) fields(dst []string) []string { return append(dst, l.field) }

// undeclared is a leaf on a field the schema does not know. It never fires.
type undeclared struct{ field string }

func (undeclared) eval(dataset.Record) truth { return unknown }
func (u undeclared) fields(dst []string) []string { return append(dst, u.field) }

type allOf []condition

func (c allOf) eval(r dataset.Record) truth {
	out := yes
	for _, sub := range c {
		switch sub.eval(r) {
		case no:
			return no
		case unknown:
			out = unknown
		}
	}
	return out
}

func (c allOf) fields(dst []string) []string {
	for _, sub := range c {
		dst = sub.fields(dst)
	}
	return dst
}

type anyOf []condition

func (c anyOf) eval(r dataset.Record) truth {
	out := no
	for _, sub := range c {
		switch sub.eval(r) {
		case yes:
			return yes
		case unknown:
			out = unknown
		}
	}
	return out
}

func (c anyOf) fields(dst []string) []string {
	for _, sub := range c {
		dst = sub.fields(dst)
	}
	return dst
}

type notOf struct{ inner condition }

func (c notOf) eval(r dataset.Record) truth {
	switch c.inner.eval(r) {
	case yes:
		return no
	case no:
		return yes
	}
	return unknown
}

func (c notOf) fields(dst []string) []string { return c.inner.fields(dst) }

func asTruth(b bool) truth {
	if b {
		return yes
	}
	return no
}
