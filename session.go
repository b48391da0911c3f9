// Copyright (C) 2025 The uistream Authors. All Rights Reserved.

package uistream

import (
	"errors"
	"fmt"
	"maps"

	"github.com/siciyuan404/uistream/vpath"
)

// DefaultMaxDepth is the nesting depth limit applied to a new Session.
const DefaultMaxDepth = 100

// A Session incrementally parses one JSON value delivered as a sequence of
// text chunks. Each call to Parse appends a chunk and advances the parse as
// far as the available input allows, returning a best-effort Result; Finish
// declares the end of the stream and finalizes the value.
//
// A Session is a state machine owned by a single logical stream; it is not
// safe for concurrent use without external synchronization. Call Reset to
// reuse a session for a new stream.
type Session struct {
	buf       []byte // all input received so far
	pos       int    // cursor of the current parse pass
	consumed  int    // offset up to which input is durably processed
	line, col int    // location of consumed, 1-based

	stack    []*frame // open containers, innermost last
	root     any      // the completed root value, if rootDone
	rootDone bool

	err   *ParseError // terminal error; latched until Reset
	ended bool        // Finish has been called

	maxDepth int
	maxBuf   int
	strict   bool
	tcomma   bool
}

// NewSession constructs a new empty Session with default settings.
func NewSession() *Session {
	return &Session{line: 1, col: 1, maxDepth: DefaultMaxDepth}
}

// SetMaxDepth sets the maximum container nesting depth. Exceeding the limit
// is a terminal parse error. Values less than 1 restore the default.
func (s *Session) SetMaxDepth(n int) {
	if n < 1 {
		n = DefaultMaxDepth
	}
	s.maxDepth = n
}

// SetMaxBuffer limits the total number of buffered input bytes; exceeding it
// is a terminal parse error. A value of 0 (the default) means no limit. The
// buffer retains the whole stream for the life of the session, so callers
// holding sessions across long responses should set a cap.
func (s *Session) SetMaxBuffer(n int) { s.maxBuf = n }

// SetStrictEscapes configures string escape handling. By default unknown
// escape sequences pass the escaped character through literally, a
// deliberate tolerance for sloppily escaped model output. In strict mode
// they are terminal errors.
func (s *Session) SetStrictEscapes(ok bool) { s.strict = ok }

// AllowTrailingCommas configures the parser to allow (true) or reject
// (false) a trailing comma before the closing bracket of an object or array.
func (s *Session) AllowTrailingCommas(ok bool) { s.tcomma = ok }

// A Result is the outcome of one Parse or Finish call.
type Result struct {
	// Partial is true until the root value has fully closed.
	Partial bool

	// Value is the best current reconstruction of the root value, built from
	// map[string]any, []any, string, int64, float64, bool, and nil. Closed
	// subtrees are shared between successive Results; treat values as
	// read-only until the stream completes (or use Session.State for an
	// independent copy).
	Value any

	// PendingPath locates the container or slot currently being written,
	// e.g. "root.items[2].name". It is empty when the value is complete or
	// no input has arrived.
	PendingPath string

	// Err is set iff a terminal syntax error was detected. Once set the
	// session returns the same error from every call until Reset.
	Err *ParseError
}

// A ParseError describes a terminal syntax error and its exact location.
type ParseError struct {
	Message string
	Line    int // 1-based
	Column  int // 1-based byte offset in line
	Path    string
	Pos     int // absolute byte offset into the buffer
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("at %d:%d: %s (%s)", e.Line, e.Column, e.Message, e.Path)
}

// Parse appends text to the input and advances the parse as far as the
// available input allows. It never panics on malformed input: syntax errors
// are reported in the Result and latch the session until Reset.
func (s *Session) Parse(text string) Result {
	if s.err == nil && s.ended {
		s.failf(len(s.buf), "parse called after end of input")
	}
	if s.err != nil {
		return s.result()
	}
	s.buf = append(s.buf, text...)
	if s.maxBuf > 0 && len(s.buf) > s.maxBuf {
		s.failf(len(s.buf), "input exceeds %d-byte buffer limit", s.maxBuf)
		return s.result()
	}
	s.run(false)
	return s.result()
}

// Finish declares that no more chunks are coming. A number or keyword
// pending only because more characters might have followed is finalized; a
// value still open at end of stream (an unterminated string or container, or
// no value at all) is a terminal error, with Value still carrying the
// partial reconstruction.
func (s *Session) Finish() Result {
	if s.err != nil {
		return s.result()
	}
	if !s.ended {
		s.ended = true
		s.run(true)
	}
	if s.err == nil && !s.rootDone {
		if n := len(s.stack); n > 0 {
			s.failf(len(s.buf), "unexpected end of input: unclosed %v", s.stack[n-1].kind)
		} else if s.consumed < len(s.buf) {
			s.failf(len(s.buf), "unexpected end of input in value")
		} else {
			s.failf(len(s.buf), "unexpected end of input: no value")
		}
	}
	return s.result()
}

// Reset restores the session to its initial empty state, clearing any
// terminal error. Configuration settings are retained.
func (s *Session) Reset() {
	s.buf = nil
	s.pos, s.consumed = 0, 0
	s.line, s.col = 1, 1
	s.stack = nil
	s.root, s.rootDone = nil, false
	s.err = nil
	s.ended = false
}

// run drives the parse from the consumed offset until the input is exhausted,
// the root value completes, or a terminal error occurs. Resumption re-enters
// the top frame's own mode; the value dispatcher is only consulted at a
// frame's value position or for a fresh root. Frame modes are mutated only
// after the token they await has been fully consumed, so an interrupted
// parse resumes in exactly the state it suspended in.
func (s *Session) run(final bool) {
	s.pos = s.consumed
	for {
		if len(s.stack) == 0 {
			if !s.skipSpace() {
				return
			}
			if s.rootDone {
				s.failf(s.pos, "unexpected %q after value", s.buf[s.pos])
				return
			}
			v, pushed, err := s.value(final)
			if !s.check(err) {
				return
			}
			if !pushed {
				s.root, s.rootDone = v, true
			}
			continue
		}

		f := s.top()
		switch f.mode {
		case modeKey:
			if !s.skipSpace() {
				return
			}
			switch c := s.buf[s.pos]; {
			case c == '}':
				if len(f.obj) > 0 && !s.tcomma {
					s.failf(s.pos, `unexpected "}" after ","`)
					return
				}
				s.closeTop()
			case c == '"':
				key, end, err := scanString(s.buf, s.pos, s.strict)
				if !s.check(err) {
					return
				}
				s.pos = end
				s.commit()
				f.key, f.haveKey, f.mode = key, true, modeColon
			default:
				s.failf(s.pos, `unexpected %q, want key or "}"`, c)
				return
			}

		case modeColon:
			if !s.skipSpace() {
				return
			}
			if c := s.buf[s.pos]; c != ':' {
				s.failf(s.pos, `unexpected %q, want ":"`, c)
				return
			}
			s.pos++
			s.commit()
			f.mode = modeValue

		case modeValue:
			if !s.skipSpace() {
				return
			}
			if c := s.buf[s.pos]; f.kind == arrayFrame && c == ']' {
				if f.index > 0 && !s.tcomma {
					s.failf(s.pos, `unexpected "]" after ","`)
					return
				}
				s.closeTop()
				continue
			}
			v, pushed, err := s.value(final)
			if !s.check(err) {
				return
			}
			if !pushed {
				f.deliver(v)
			}

		case modeSep:
			if !s.skipSpace() {
				return
			}
			switch c := s.buf[s.pos]; {
			case c == ',':
				s.pos++
				s.commit()
				if f.kind == objectFrame {
					f.mode = modeKey
				} else {
					f.mode = modeValue
				}
			case c == f.closer():
				s.closeTop()
			default:
				s.failf(s.pos, "unexpected %q, want %q or %q", c, ',', f.closer())
				return
			}
		}
	}
}

// value dispatches on the next significant character: an opening bracket
// pushes a frame (pushed=true), anything else scans a leaf value.
// Precondition: s.pos < len(s.buf) and s.buf[s.pos] is not whitespace.
func (s *Session) value(final bool) (v any, pushed bool, err error) {
	switch c := s.buf[s.pos]; {
	case c == '{':
		return nil, true, s.push(objectFrame)
	case c == '[':
		return nil, true, s.push(arrayFrame)
	case c == '"':
		v, end, err := scanString(s.buf, s.pos, s.strict)
		if err != nil {
			return nil, false, err
		}
		s.pos = end
		s.commit()
		return v, false, nil
	case isNumStart(c):
		v, end, err := scanNumber(s.buf, s.pos, final)
		if err != nil {
			return nil, false, err
		}
		s.pos = end
		s.commit()
		return v, false, nil
	case c == 't' || c == 'f' || c == 'n':
		v, end, err := scanLiteral(s.buf, s.pos, final)
		if err != nil {
			return nil, false, err
		}
		s.pos = end
		s.commit()
		return v, false, nil
	default:
		return nil, false, scanErrf(s.pos, "unexpected %q, want value", c)
	}
}

// push opens a new container frame after checking the depth limit,
// consuming the opening bracket.
func (s *Session) push(kind frameKind) error {
	if len(s.stack) >= s.maxDepth {
		return scanErrf(s.pos, "maximum nesting depth exceeded (limit %d)", s.maxDepth)
	}
	s.pos++
	s.commit()
	s.stack = append(s.stack, newFrame(kind))
	return nil
}

// closeTop consumes the closing bracket of the top frame and delivers the
// finished container to its parent, or makes it the root.
func (s *Session) closeTop() {
	s.pos++
	s.commit()
	f := s.top()
	s.stack = s.stack[:len(s.stack)-1]
	v := f.finish()
	if len(s.stack) == 0 {
		s.root, s.rootDone = v, true
	} else {
		s.top().deliver(v)
	}
}

func (s *Session) top() *frame { return s.stack[len(s.stack)-1] }

// skipSpace consumes and commits whitespace, tracking line and column, and
// reports whether a significant character is available.
func (s *Session) skipSpace() bool {
	for s.pos < len(s.buf) && isSpace(s.buf[s.pos]) {
		s.pos++
	}
	s.commit()
	return s.pos < len(s.buf)
}

// commit advances the durable consumed offset to the current cursor,
// updating the line and column counters over the committed bytes. Scanners
// that report errMore never reach a commit, so consumed always rests at a
// token boundary and resumption rescans only the incomplete token.
func (s *Session) commit() {
	for _, b := range s.buf[s.consumed:s.pos] {
		if b == '\n' {
			s.line++
			s.col = 1
		} else {
			s.col++
		}
	}
	s.consumed = s.pos
}

// check classifies a scanner result: nil means the token completed, errMore
// suspends the parse with all state intact, and anything else is recorded as
// the session's terminal error.
func (s *Session) check(err error) bool {
	if err == nil {
		return true
	}
	if errors.Is(err, errMore) {
		return false
	}
	if se, ok := err.(*scanError); ok {
		s.failf(se.off, "%s", se.msg)
	} else {
		s.failf(s.pos, "%v", err)
	}
	return false
}

func (s *Session) failf(off int, format string, args ...any) {
	lc := s.lineColAt(off)
	s.err = &ParseError{
		Message: fmt.Sprintf(format, args...),
		Line:    lc.Line,
		Column:  lc.Column,
		Path:    s.pendingPath().String(),
		Pos:     off,
	}
}

// lineColAt computes the line and column of an offset at or beyond the
// consumed cursor.
func (s *Session) lineColAt(off int) LineCol {
	lc := LineCol{Line: s.line, Column: s.col}
	if off > len(s.buf) {
		off = len(s.buf)
	}
	for _, b := range s.buf[s.consumed:off] {
		if b == '\n' {
			lc.Line++
			lc.Column = 1
		} else {
			lc.Column++
		}
	}
	return lc
}

// pendingPath derives the path of the slot currently being written from the
// frame stack: each object frame contributes its pending key, each array
// frame awaiting a value contributes its next insertion index.
func (s *Session) pendingPath() vpath.Path {
	var p vpath.Path
	for _, f := range s.stack {
		if f.kind == objectFrame {
			if f.haveKey {
				p = append(p, vpath.Field(f.key))
			}
		} else if f.mode == modeValue {
			p = append(p, vpath.Elem(f.index))
		}
	}
	return p
}

// hasPending reports whether there is an unfinished value to point a path at.
func (s *Session) hasPending() bool {
	return len(s.stack) > 0 || (!s.rootDone && s.consumed < len(s.buf))
}

func (s *Session) result() Result {
	r := Result{Partial: !s.rootDone, Value: s.snapshot(), Err: s.err}
	if s.hasPending() {
		r.PendingPath = s.pendingPath().String()
	}
	return r
}

// snapshot composes the current best-effort value. The open spine of the
// stack is copied one level per frame so the returned containers are not
// mutated by later parsing; completed subtrees are shared, since nothing
// will write into them again.
func (s *Session) snapshot() any {
	if len(s.stack) == 0 {
		return s.root
	}
	var child any
	haveChild := false
	for i := len(s.stack) - 1; i >= 0; i-- {
		f := s.stack[i]
		if f.kind == objectFrame {
			m := make(map[string]any, len(f.obj)+1)
			maps.Copy(m, f.obj)
			if haveChild {
				m[f.key] = child
			}
			child = m
		} else {
			a := make([]any, len(f.arr), len(f.arr)+1)
			copy(a, f.arr)
			if haveChild {
				a = append(a, child)
			}
			child = a
		}
		haveChild = true
	}
	return child
}

// A State is a deep, independent snapshot of a session, safe to retain and
// inspect without aliasing live parser state.
type State struct {
	Buffer      string  // all input received so far
	Consumed    int     // durably processed offset
	Location    LineCol // line and column of the consumed offset
	Depth       int     // number of open containers
	PendingPath string
	Value       any
	Partial     bool
	Ended       bool // Finish has been called
	Err         *ParseError
}

// State returns a deep snapshot of the session. The returned value shares no
// mutable data with the session.
func (s *Session) State() State {
	st := State{
		Buffer:   string(s.buf),
		Consumed: s.consumed,
		Location: LineCol{Line: s.line, Column: s.col},
		Depth:    len(s.stack),
		Value:    deepCopy(s.snapshot()),
		Partial:  !s.rootDone,
		Ended:    s.ended,
	}
	if s.hasPending() {
		st.PendingPath = s.pendingPath().String()
	}
	if s.err != nil {
		e := *s.err
		st.Err = &e
	}
	return st
}

func deepCopy(v any) any {
	switch t := v.(type) {
	case map[string]any:
		m := make(map[string]any, len(t))
		for k, e := range t {
			m[k] = deepCopy(e)
		}
		return m
	case []any:
		a := make([]any, len(t))
		for i, e := range t {
			a[i] = deepCopy(e)
		}
		return a
	default:
		return v
	}
}

// Complete parses text as a single complete value: the one-shot equivalent
// of one Parse call followed by Finish.
func Complete(text string) (any, error) {
	s := NewSession()
	if r := s.Parse(text); r.Err != nil {
		return r.Value, r.Err
	}
	r := s.Finish()
	if r.Err != nil {
		return r.Value, r.Err
	}
	return r.Value, nil
}
