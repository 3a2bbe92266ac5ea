package sweep

import "iter"

// Entry pairs a Combination with its directory name.
type Entry struct {
	Dir         string
	Combination Combination
}

// maxPrealloc bounds the up-front allocation of a Plan. Larger sweeps grow
// as they are named, so an early failure costs little.
const maxPrealloc = 1 << 12

// Plan is the validated list of run directories of a Spec. Building a
// Plan names every Combination up front, so a naming collision is found
// before anything touches the filesystem.
type Plan struct {
	spec    *Spec
	entries []Entry
}

// NewPlan names every Combination of spec. It fails with a
// *NamingCollisionError if two Combinations share a name, and with a
// *ValidationError if a name is not a usable directory name.
func NewPlan(spec *Spec) (*Plan, error) {
	n, err := spec.Count()
	if err != nil {
		return nil, err
	}

	hint := min(n, maxPrealloc)
	p := &Plan{spec: spec, entries: make([]Entry, 0, hint)}
	seen := make(map[string]int, hint)
	for c := range spec.Combinations() {
		name := DirName(c)
		if err := checkName(name, c); err != nil {
			return nil, err
		}
		if prev, ok := seen[name]; ok {
			return nil, &NamingCollisionError{
				Dir:    name,
				First:  p.entries[prev].Combination,
				Second: c,
			}
		}
		seen[name] = len(p.entries)
		p.entries = append(p.entries, Entry{Dir: name, Combination: c})
	}
	return p, nil
}

func (p *Plan) Spec() *Spec { return p.spec }

func (p *Plan) Len() int { return len(p.entries) }

// Entries returns the entries in enumeration order.
func (p *Plan) Entries() []Entry {
	out := make([]Entry, len(p.entries))
	copy(out, p.entries)
	return out
}

// All iterates the entries in enumeration order.
func (p *Plan) All() iter.Seq[Entry] {
	return func(yield func(Entry) bool) {
		for _, e := range p.entries {
			if !yield(e) {
				return
			}
		}
	}
}

// Dirs returns the directory names in enumeration order.
func (p *Plan) Dirs() []string {
	out := make([]string, len(p.entries))
	for i, e := range p.entries {
		out[i] = e.Dir
	}
	return out
}
