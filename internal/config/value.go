package config

import (
	"fmt"
	"math"
)

// Kind identifies which field of a Value is populated.
type Kind int

const (
	KindNull Kind = iota
	KindString
	KindInt
	KindFloat
	KindBool
	KindSeq
	KindMap
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindString:
		return "string"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	case KindSeq:
		return "sequence"
	case KindMap:
		return "mapping"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Value is a single configuration value. The zero Value is null.
type Value struct {
	kind Kind
	s    string
	i    int64
	f    float64
	b    bool
	seq  []Value
	doc  *Document
}

func Null() Value { return Value{} }
func String(s string) Value { return Value{kind: KindString, s: s} }
func Int(i int64) Value { return Value{kind: KindInt, i: i} }
func Float(f float64) Value { return Value{kind: KindFloat, f: f} }
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }
func Map(doc *Document) Value { return Value{kind: KindMap, doc: doc.Clone()} }

// Seq builds a sequence value. The items are copied.
func Seq(items ...Value) Value {
	out := make([]Value, len(items))
	for i, it := range items {
		out[i] = it.clone()
	}
	return Value{kind: KindSeq, seq: out}
}

func (v Value) Kind() Kind { return v.kind }

// IsScalar reports whether v is neither a sequence nor a mapping.
func (v Value) IsScalar() bool { return v.kind != KindSeq && v.kind != KindMap }

func (v Value) Str() (string, bool) { return v.s, v.kind == KindString }
func (v Value) Int() (int64, bool) { return v.i, v.kind == KindInt }
func (v Value) Float() (float64, bool) { return v.f, v.kind == KindFloat }
func (v Value) Bool() (bool, bool) { return v.b, v.kind == KindBool }

// Items returns a copy of the elements of a sequence, or nil.
func (v Value) Items() []Value {
	if v.kind != KindSeq {
		return nil
	}
	out := make([]Value, len(v.seq))
	for i, it := range v.seq {
		out[i] = it.clone()
	}
	return out
}

// Len is the number of elements of a sequence or keys of a mapping.
func (v Value) Len() int {
	switch v.kind {
	case KindSeq:
		return len(v.seq)
	case KindMap:
		return v.doc.Len()
	}
	return 0
}

// Doc returns a copy of a nested mapping, or nil.
func (v Value) Doc() *Document {
	if v.kind != KindMap {
		return nil
	}
	return v.doc.Clone()
}

// Equal compares two values structurally. NaN is equal to NaN so that
// decoded documents compare equal to the document they were encoded from.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindString:
		return v.s == o.s
	case KindInt:
		return v.i == o.i
	case KindFloat:
		if math.IsNaN(v.f) && math.IsNaN(o.f) {
			return true
		}
		return v.f == o.f
	case KindBool:
		return v.b == o.b
	case KindSeq:
		if len(v.seq) != len(o.seq) {
			return false
		}
		for i := range v.seq {
			if !v.seq[i].Equal(o.seq[i]) {
				return false
			}
		}
		return true
	case KindMap:
		return v.doc.Equal(o.doc)
	}
	return false
}

// Interface converts v into plain Go values: nil, string, int64, float64,
// bool, []any, or map[string]any. Mapping order is lost.
func (v Value) Interface() any {
	switch v.kind {
	case KindString:
		return v.s
	case KindInt:
		return v.i
	case KindFloat:
		return v.f
	case KindBool:
		return v.b
	case KindSeq:
		out := make([]any, len(v.seq))
		for i, it := range v.seq {
			out[i] = it.Interface()
		}
		return out
	case KindMap:
		out := make(map[string]any, v.doc.Len())
		for _, k := range v.doc.keys {
			out[k] = v.doc.values[k].Interface()
		}
		return out
	}
	return nil
}

func (v Value) String() string {
	switch v.kind {
	case KindNull:
		return "null"
	case KindString:
		return v.s
	case KindInt:
		return fmt.Sprint(v.i)
	case KindFloat:
		return fmt.Sprint(v.f)
	case KindBool:
		return fmt.Sprint(v.b)
	case KindSeq:
		return fmt.Sprint(v.Interface())
	case KindMap:
		return v.doc.String()
	}
	return ""
}

func (v Value) clone() Value {
	switch v.kind {
	case KindSeq:
		out := make([]Value, len(v.seq))
		for i, it := range v.seq {
			out[i] = it.clone()
		}
		v.seq = out
	case KindMap:
		v.doc = v.doc.Clone()
	}
	return v
}
