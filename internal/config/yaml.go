package config

import (
	"bytes"
	"fmt"
	"math"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	tagNull  = "!!null"
	tagBool  = "!!bool"
	tagInt   = "!!int"
	tagFloat = "!!float"
	tagStr   = "!!str"
	tagSeq   = "!!seq"
	tagMap   = "!!map"
)

// Decode parses a YAML document whose top level is a mapping. Key order
// is preserved. An empty input decodes to an empty document.
func Decode(data []byte) (*Document, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, &ParseError{Err: err}
	}

	node := &root
	if node.Kind == yaml.DocumentNode {
		if len(node.Content) == 0 {
			return NewDocument(), nil
		}
		node = node.Content[0]
	}

	switch {
	case node.Kind == 0:
		return NewDocument(), nil
	case node.Kind == yaml.ScalarNode && node.ShortTag() == tagNull:
		return NewDocument(), nil
	case node.Kind != yaml.MappingNode:
		return nil, &ParseError{Line: node.Line, Column: node.Column, Err: ErrNotMapping}
	}

	d := &decoder{active: make(map[*yaml.Node]bool)}
	return d.mapping(node)
}

type decoder struct {
	// aliases currently being expanded, to reject self-referencing anchors
	active map[*yaml.Node]bool
}

func (d *decoder) value(n *yaml.Node) (Value, error) {
	switch n.Kind {
	case yaml.AliasNode:
		if d.active[n.Alias] {
			return Value{}, d.fail(n, fmt.Errorf("anchor %q contains itself", n.Value))
		}
		d.active[n.Alias] = true
		defer delete(d.active, n.Alias)
		return d.value(n.Alias)
	case yaml.ScalarNode:
		return d.scalar(n)
	case yaml.SequenceNode:
		items := make([]Value, 0, len(n.Content))
		for _, c := range n.Content {
			v, err := d.value(c)
			if err != nil {
				return Value{}, err
			}
			items = append(items, v)
		}
		return Value{kind: KindSeq, seq: items}, nil
	case yaml.MappingNode:
		doc, err := d.mapping(n)
		if err != nil {
			return Value{}, err
		}
		return Value{kind: KindMap, doc: doc}, nil
	}
	return Value{}, d.fail(n, fmt.Errorf("unsupported node kind %d", n.Kind))
}

func (d *decoder) scalar(n *yaml.Node) (Value, error) {
	switch n.ShortTag() {
	case tagNull:
		return Null(), nil
	case tagBool:
		var b bool
		if err := n.Decode(&b); err != nil {
			return Value{}, d.fail(n, err)
		}
		return Bool(b), nil
	case tagInt:
		var i int64
		if err := n.Decode(&i); err != nil {
			return Value{}, d.fail(n, fmt.Errorf("integer %q out of range", n.Value))
		}
		return Int(i), nil
	case tagFloat:
		var f float64
		if err := n.Decode(&f); err != nil {
			return Value{}, d.fail(n, err)
		}
		return Float(f), nil
	case tagStr:
		// Plain yes/no/on/off are booleans to the YAML 1.1 readers that
		// consume parameter files.
		if n.Style == 0 {
			if b, ok := oldBool(n.Value); ok {
				return Bool(b), nil
			}
		}
		return String(n.Value), nil
	default:
		// !!timestamp, !!binary and custom tags keep their text.
		return String(n.Value), nil
	}
}

func (d *decoder) mapping(n *yaml.Node) (*Document, error) {
	doc := NewDocument()
	for i := 0; i+1 < len(n.Content); i += 2 {
		kn, vn := n.Content[i], n.Content[i+1]
		if kn.Kind == yaml.AliasNode {
			kn = kn.Alias
		}
		if kn.Kind != yaml.ScalarNode {
			return nil, d.fail(kn, fmt.Errorf("mapping key must be a scalar"))
		}
		if doc.Has(kn.Value) {
			return nil, d.fail(kn, fmt.Errorf("%w %q", ErrDuplicateKey, kn.Value))
		}
		v, err := d.value(vn)
		if err != nil {
			return nil, err
		}
		doc.set(kn.Value, v)
	}
	return doc, nil
}

func (d *decoder) fail(n *yaml.Node, err error) error {
	return &ParseError{Line: n.Line, Column: n.Column, Err: err}
}

// Encode serializes a document as YAML with two-space indentation.
func Encode(doc *Document) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(mappingNode(doc)); err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	return buf.Bytes(), nil
}

func mappingNode(doc *Document) *yaml.Node {
	n := &yaml.Node{Kind: yaml.MappingNode, Tag: tagMap}
	for _, k := range doc.Keys() {
		n.Content = append(n.Content, stringNode(k), valueNode(doc.values[k]))
	}
	return n
}

func valueNode(v Value) *yaml.Node {
	switch v.kind {
	case KindString:
		return stringNode(v.s)
	case KindInt:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: tagInt, Value: strconv.FormatInt(v.i, 10)}
	case KindFloat:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: tagFloat, Value: yamlFloat(v.f)}
	case KindBool:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: tagBool, Value: strconv.FormatBool(v.b)}
	case KindSeq:
		n := &yaml.Node{Kind: yaml.SequenceNode, Tag: tagSeq}
		for _, it := range v.seq {
			n.Content = append(n.Content, valueNode(it))
		}
		return n
	case KindMap:
		return mappingNode(v.doc)
	}
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: tagNull, Value: "null"}
}

// stringNode quotes strings that YAML 1.1 readers would take for booleans.
func stringNode(s string) *yaml.Node {
	n := &yaml.Node{}
	n.SetString(s)
	if n.Style == 0 && isOldBool(s) {
		n.Style = yaml.DoubleQuotedStyle
	}
	return n
}

// oldBool resolves the YAML 1.1 boolean words that YAML 1.2 reads as
// strings, with the capitalizations PyYAML and SnakeYAML accept.
func oldBool(s string) (value, ok bool) {
	switch s {
	case "yes", "Yes", "YES", "on", "On", "ON":
		return true, true
	case "no", "No", "NO", "off", "Off", "OFF":
		return false, true
	}
	return false, false
}

func isOldBool(s string) bool {
	switch strings.ToLower(s) {
	case "y", "yes", "n", "no", "on", "off":
		return true
	}
	return false
}

// yamlFloat formats f so that YAML 1.1 and 1.2 readers both resolve it
// to a float: the mantissa always carries a dot (2.0, 1.0e-05).
func yamlFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return ".nan"
	case math.IsInf(f, 1):
		return ".inf"
	case math.IsInf(f, -1):
		return "-.inf"
	}
	s := FormatFloat(f)
	if i := strings.IndexByte(s, 'e'); i >= 0 && !strings.Contains(s[:i], ".") {
		s = s[:i] + ".0" + s[i:]
	}
	return s
}

// FormatFloat spells f in its shortest round-trip form. Decimal exponents in
// [-4, 16) use fixed notation with at least one fractional digit
// (1000000.0, 0.0001); others use the shortest scientific form (1e-05,
// 1.5e+16). Non-finite values are inf, -inf and nan.
func FormatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "nan"
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	}
	sci := strconv.FormatFloat(f, 'e', -1, 64)
	exp, _ := strconv.Atoi(sci[strings.IndexByte(sci, 'e')+1:])
	if exp < -4 || exp >= 16 {
		return sci
	}
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

// MarshalYAML lets a Document be embedded in other YAML structures with
// its key order intact.
func (d *Document) MarshalYAML() (any, error) {
	return mappingNode(d), nil
}

// UnmarshalYAML decodes a mapping node into d.
func (d *Document) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind != yaml.MappingNode {
		return &ParseError{Line: n.Line, Column: n.Column, Err: ErrNotMapping}
	}
	dec := &decoder{active: make(map[*yaml.Node]bool)}
	doc, err := dec.mapping(n)
	if err != nil {
		return err
	}
	*d = *doc
	return nil
}
