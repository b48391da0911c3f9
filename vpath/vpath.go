// Copyright (C) 2025 The uistream Authors. All Rights Reserved.

// Package vpath implements value paths, the addresses of nodes inside a
// parsed value. A path names the route from the root of a value to one of
// its descendants, one member name or array index per step:
//
//	root.items[2].name
//
// Member names that are not plain words are quoted: root['a b'].c.
//
// Paths are produced by the parser to identify the slot currently being
// streamed, and consumed by renderers and validators to address into the
// value. The Pattern type adds "*" wildcard steps for watching a class of
// nodes, e.g. root.items[*].name.
package vpath

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/siciyuan404/uistream/internal/escape"

	"go4.org/mem"
)

// A Step is a single step of a path: either an object member (Index < 0) or
// an array index.
type Step struct {
	Key   string // member name, for member steps
	Index int    // array index, or a negative value for member steps
}

// Field returns a member step for the given name.
func Field(name string) Step { return Step{Key: name, Index: -1} }

// Elem returns an array index step. It panics if i < 0.
func Elem(i int) Step {
	if i < 0 {
		panic(fmt.Sprintf("negative array index %d", i))
	}
	return Step{Index: i}
}

// IsIndex reports whether s is an array index step.
func (s Step) IsIndex() bool { return s.Index >= 0 }

func (s Step) append(buf *strings.Builder) {
	switch {
	case s.IsIndex():
		fmt.Fprintf(buf, "[%d]", s.Index)
	case plainRE.MatchString(s.Key):
		buf.WriteString(".")
		buf.WriteString(s.Key)
	default:
		q := string(escape.Quote(mem.S(s.Key)))
		fmt.Fprintf(buf, "['%s']", strings.ReplaceAll(q, "'", `\'`))
	}
}

// A Path is a parsed value path. The zero value addresses the root.
type Path []Step

func (p Path) String() string {
	var buf strings.Builder
	buf.WriteString("root")
	for _, s := range p {
		s.append(&buf)
	}
	return buf.String()
}

// Parse parses s as a value path.
func Parse(s string) (Path, error) {
	t, ok := strings.CutPrefix(s, "root")
	if !ok {
		return nil, errors.New("missing root marker")
	}
	var steps Path
	for t != "" {
		step, rest, err := parseStep(t, false)
		if err != nil {
			return nil, err
		}
		steps = append(steps, step)
		t = rest
	}
	return steps, nil
}

// wild marks a wildcard step inside a Pattern.
const wild = -2

func parseStep(s string, pattern bool) (_ Step, rest string, _ error) {
	if t, ok := strings.CutPrefix(s, "."); ok {
		if u, ok := strings.CutPrefix(t, "*"); ok && pattern {
			return Step{Key: "*", Index: wild}, u, nil
		}
		m := wordRE.FindString(t)
		if m == "" {
			return Step{}, s, errors.New("invalid member name")
		}
		return Field(m), t[len(m):], nil
	}
	if t, ok := strings.CutPrefix(s, "["); ok {
		if u, ok := strings.CutPrefix(t, "*]"); ok && pattern {
			return Step{Key: "*", Index: wild}, u, nil
		}
		if m := quoteRE.FindStringSubmatch(t); m != nil {
			name, err := escape.Unquote(mem.S(m[1]), false)
			if err != nil {
				return Step{}, s, err
			}
			return Field(string(name)), t[len(m[0]):], nil
		}
		if m := indexRE.FindStringSubmatch(t); m != nil {
			v, err := strconv.Atoi(m[1])
			if err != nil || v < 0 {
				return Step{}, s, fmt.Errorf("invalid index %q", m[1])
			}
			return Elem(v), t[len(m[0]):], nil
		}
		return Step{}, s, errors.New("invalid bracket step")
	}
	return Step{}, s, errors.New("invalid path step")
}

var (
	wordRE  = regexp.MustCompile(`^\w+`)
	plainRE = regexp.MustCompile(`^\w+$`)
	indexRE = regexp.MustCompile(`^(\d+)\]`)
	quoteRE = regexp.MustCompile(`^'((?:\\.|[^\\'])*)'\]`)
)

// A Pattern is a path that may contain "*" wildcard steps, each of which
// matches any single member name or array index.
type Pattern []Step

// ParsePattern parses s as a path pattern.
func ParsePattern(s string) (Pattern, error) {
	t, ok := strings.CutPrefix(s, "root")
	if !ok {
		return nil, errors.New("missing root marker")
	}
	var steps Pattern
	for t != "" {
		step, rest, err := parseStep(t, true)
		if err != nil {
			return nil, err
		}
		steps = append(steps, step)
		t = rest
	}
	return steps, nil
}

func (p Pattern) String() string {
	var buf strings.Builder
	buf.WriteString("root")
	for _, s := range p {
		if s.Index == wild {
			buf.WriteString(".*")
		} else {
			s.append(&buf)
		}
	}
	return buf.String()
}

// Match reports whether q matches the pattern exactly: the paths have the
// same length, and each step is equal or matched by a wildcard.
func (p Pattern) Match(q Path) bool {
	if len(p) != len(q) {
		return false
	}
	for i, s := range p {
		if s.Index == wild {
			continue
		}
		if s != q[i] {
			return false
		}
	}
	return true
}

// MatchPrefix reports whether the pattern matches a leading portion of q,
// i.e. whether q addresses the pattern's node or one of its descendants.
func (p Pattern) MatchPrefix(q Path) bool {
	return len(q) >= len(p) && p.Match(q[:len(p)])
}
