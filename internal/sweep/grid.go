package sweep

import (
	"fmt"
	"iter"
	"math/bits"
	"strings"

	"github.com/matsengrp/antigen/internal/config"
)

// Spec is an ordered set of swept parameters, each with a non-empty list
// of candidate values. Key order fixes the enumeration order of
// Combinations and the order of parts in directory names.
type Spec struct {
	keys   []string
	values [][]config.Value
}

// FromDocument builds a Spec from an edits document. A sequence entry is
// a list of candidates; a scalar entry is a single fixed candidate that
// still takes part in naming.
func FromDocument(doc *config.Document) (*Spec, error) {
	s := &Spec{}
	for _, key := range doc.Keys() {
		v, _ := doc.Get(key)

		var candidates []config.Value
		switch v.Kind() {
		case config.KindMap:
			return nil, &ValidationError{Key: key, Reason: "a mapping cannot be swept; list candidate values instead"}
		case config.KindSeq:
			candidates = v.Items()
			if len(candidates) == 0 {
				return nil, &ValidationError{Key: key, Reason: "empty candidate list"}
			}
			for i, c := range candidates {
				if !c.IsScalar() {
					return nil, &ValidationError{Key: key, Reason: fmt.Sprintf("candidate %d is a %s, not a scalar", i, c.Kind())}
				}
			}
		default:
			candidates = []config.Value{v}
		}

		s.keys = append(s.keys, key)
		s.values = append(s.values, candidates)
	}

	if _, err := s.Count(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Spec) Len() int { return len(s.keys) }

func (s *Spec) Keys() []string {
	out := make([]string, len(s.keys))
	copy(out, s.keys)
	return out
}

// Count is the number of Combinations, the product of the candidate list
// lengths. An empty Spec has exactly one Combination.
func (s *Spec) Count() (int, error) {
	n := uint64(1)
	for i, vs := range s.values {
		hi, lo := bits.Mul64(n, uint64(len(vs)))
		if hi != 0 || lo > uint64(maxInt) {
			return 0, &ValidationError{Key: s.keys[i], Reason: "too many combinations"}
		}
		n = lo
	}
	return int(n), nil
}

const maxInt = int(^uint(0) >> 1)

// Combinations enumerates the cartesian product of the candidate lists
// lazily, first key slowest and last key fastest. Each call starts over,
// and every run yields the same sequence. Repeated candidates are not
// removed.
func (s *Spec) Combinations() iter.Seq[Combination] {
	return func(yield func(Combination) bool) {
		idx := make([]int, len(s.keys))
		for n := 0; ; n++ {
			values := make([]config.Value, len(idx))
			for i, j := range idx {
				values[i] = s.values[i][j]
			}
			if !yield(Combination{Index: n, keys: s.keys, values: values}) {
				return
			}

			k := len(idx) - 1
			for ; k >= 0; k-- {
				idx[k]++
				if idx[k] < len(s.values[k]) {
					break
				}
				idx[k] = 0
			}
			if k < 0 {
				return
			}
		}
	}
}

// Combination binds every key of a Spec to one candidate value.
type Combination struct {
	// Index is the position in the enumeration order.
	Index int

	keys   []string // shared with the Spec, never written
	values []config.Value
}

func (c Combination) Len() int { return len(c.keys) }

func (c Combination) Keys() []string {
	out := make([]string, len(c.keys))
	copy(out, c.keys)
	return out
}

func (c Combination) Get(key string) (config.Value, bool) {
	for i, k := range c.keys {
		if k == key {
			return c.values[i], true
		}
	}
	return config.Value{}, false
}

// Document returns the combination as a fresh config document.
func (c Combination) Document() *config.Document {
	b := config.NewBuilder()
	for i, k := range c.keys {
		b.Set(k, c.values[i])
	}
	return b.Document()
}

// Apply returns base with every key of c overriding it. base is unchanged.
func (c Combination) Apply(base *config.Document) *config.Document {
	return base.Merge(c.Document())
}

// Equal compares keys and values but not Index.
func (c Combination) Equal(o Combination) bool {
	if len(c.keys) != len(o.keys) {
		return false
	}
	for i := range c.keys {
		if c.keys[i] != o.keys[i] || !c.values[i].Equal(o.values[i]) {
			return false
		}
	}
	return true
}

func (c Combination) String() string {
	var sb strings.Builder
	sb.WriteByte('{')
	for i, k := range c.keys {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(k)
		sb.WriteString(": ")
		sb.WriteString(FormatValue(c.values[i]))
	}
	sb.WriteByte('}')
	return sb.String()
}
