package sweep

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/matsengrp/antigen/internal/config"
)

// Separator joins keys and values in directory names.
const Separator = "_"

// maxNameLen is the common NAME_MAX of Linux and macOS filesystems.
const maxNameLen = 255

// FormatValue returns the canonical text of a scalar as used in
// directory names:
//
//	string  as is
//	int     base 10, e.g. 42, -3
//	float   config.FormatFloat: 2.0, 0.1, 1000000.0, 1e-05, 1e+16, inf, nan
//	bool    true, false
//	null    null
//
// Ints and floats never share a spelling, so a=1 and a=1.0 name
// different directories.
func FormatValue(v config.Value) string {
	switch v.Kind() {
	case config.KindString:
		s, _ := v.Str()
		return s
	case config.KindInt:
		i, _ := v.Int()
		return strconv.FormatInt(i, 10)
	case config.KindFloat:
		f, _ := v.Float()
		return config.FormatFloat(f)
	case config.KindBool:
		b, _ := v.Bool()
		return strconv.FormatBool(b)
	case config.KindNull:
		return "null"
	}
	return v.String()
}

// DirName builds the directory name of c: key and value pairs in Spec
// order, all joined by Separator, e.g. "a_1_c_3". The empty combination
// has the empty name.
func DirName(c Combination) string {
	var sb strings.Builder
	for i, k := range c.keys {
		if i > 0 {
			sb.WriteString(Separator)
		}
		sb.WriteString(k)
		sb.WriteString(Separator)
		sb.WriteString(FormatValue(c.values[i]))
	}
	return sb.String()
}

// checkName rejects names that would not form a single directory below
// the output root.
func checkName(name string, c Combination) error {
	for i, k := range c.keys {
		for _, part := range []string{k, FormatValue(c.values[i])} {
			if strings.ContainsAny(part, "/\\\x00") {
				return &ValidationError{Key: k, Reason: fmt.Sprintf("directory name %q contains a path separator or NUL", name)}
			}
		}
	}
	if len(name) > maxNameLen {
		return &ValidationError{Key: c.keys[len(c.keys)-1], Reason: fmt.Sprintf("directory name %q is longer than %d bytes", name, maxNameLen)}
	}
	return nil
}
