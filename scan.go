// Copyright (C) 2025 The uistream Authors. All Rights Reserved.

package uistream

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/siciyuan404/uistream/internal/escape"

	"go4.org/mem"
)

// errMore signals that the input so far is a valid prefix of a token, but the
// token is not yet complete. It never escapes the package: the session
// translates it into a partial Result.
var errMore = errors.New("more input required")

// A scanError reports a syntax error at an absolute buffer offset. The
// session decorates it with line, column, and path information.
type scanError struct {
	off int
	msg string
}

func (e *scanError) Error() string { return e.msg }

func scanErrf(off int, format string, args ...any) *scanError {
	return &scanError{off: off, msg: fmt.Sprintf(format, args...)}
}

// The leaf scanners below share a contract: given the whole input buffer and
// the start offset of a token, each returns the decoded value and the offset
// just past the token, or errMore if the buffer ends before the token can be
// completed, or a *scanError if the available input is already invalid. On
// errMore no input is considered consumed; the caller retries the whole token
// from the same offset once more input has arrived.

// scanString scans the quoted string starting at buf[pos].
// Precondition: buf[pos] == '"'.
func scanString(buf []byte, pos int, strict bool) (string, int, error) {
	i := pos + 1
	var esc bool
	for i < len(buf) {
		b := buf[i]
		switch {
		case esc:
			// Whatever follows a backslash is judged when the token is
			// decoded; here it only matters that the next byte cannot close
			// the string.
			esc = false
		case b == '\\':
			esc = true
		case b == '"':
			dec, err := escape.Unquote(mem.B(buf[pos+1:i]), strict)
			if err != nil {
				return "", i, scanErrf(pos, "invalid string: %v", err)
			}
			return string(dec), i + 1, nil
		case b < ' ':
			return "", i, scanErrf(i, "unescaped control %q in string", b)
		}
		i++
	}
	return "", i, errMore
}

// scanNumber scans the number starting at buf[pos]. Because a digit sequence
// ending at the buffer boundary may continue in the next chunk, the scan
// reports errMore whenever it runs off the end of the buffer in a state where
// further digits would be valid. Set final to declare that no more input is
// coming, which makes end-of-buffer a legitimate end of the number.
// Precondition: buf[pos] is '-' or a digit.
func scanNumber(buf []byte, pos int, final bool) (any, int, error) {
	i := pos
	if buf[i] == '-' {
		i++
	}

	// Integer part: at least one digit.
	ds := i
	for i < len(buf) && isDigit(buf[i]) {
		i++
	}
	if i == len(buf) && !final {
		return nil, i, errMore
	}
	if ds == i {
		if i == len(buf) {
			return nil, i, scanErrf(i, "unexpected end of number")
		}
		return nil, i, scanErrf(i, "got %q, want digit", buf[i])
	}

	// Extra leading zeroes are disallowed: 0.12 is OK, 01.2 is not.
	if hasExtraLeadingZeroes(buf[pos:i]) {
		return nil, i, scanErrf(pos, "extra leading zeroes")
	}

	// If a decimal point follows, consume a fractional part.
	var isFloat bool
	if i < len(buf) && buf[i] == '.' {
		i++
		ds := i
		for i < len(buf) && isDigit(buf[i]) {
			i++
		}
		if i == len(buf) && !final {
			return nil, i, errMore
		}
		if ds == i {
			return nil, i, scanErrf(i, "no digits after decimal point")
		}
		isFloat = true
	}

	// If an exponent follows, consume it.
	if i < len(buf) && (buf[i] == 'e' || buf[i] == 'E') {
		i++
		if i < len(buf) && (buf[i] == '-' || buf[i] == '+') {
			i++
		}
		ds := i
		for i < len(buf) && isDigit(buf[i]) {
			i++
		}
		if i == len(buf) && !final {
			return nil, i, errMore
		}
		if ds == i {
			return nil, i, scanErrf(i, "missing exponent digits")
		}
		isFloat = true
	}

	text := string(buf[pos:i])
	if !isFloat {
		if v, err := strconv.ParseInt(text, 10, 64); err == nil {
			return v, i, nil
		}
		// Out of int64 range; fall through to float.
	}
	v, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return nil, i, scanErrf(pos, "invalid number %q", text)
	}
	return v, i, nil
}

var keywords = []struct {
	name  mem.RO
	value any
}{
	{mem.S("true"), true},
	{mem.S("false"), false},
	{mem.S("null"), nil},
}

// scanLiteral scans the constant (true, false, null) starting at buf[pos].
// A strict nonempty prefix of a keyword at the end of the buffer reports
// errMore unless final is set; a complete keyword is complete even at the
// buffer boundary.
// Precondition: buf[pos] is 't', 'f', or 'n'.
func scanLiteral(buf []byte, pos int, final bool) (any, int, error) {
	i := pos
	for i < len(buf) && isNameByte(buf[i]) {
		i++
	}
	word := mem.B(buf[pos:i])
	for _, kw := range keywords {
		if word.Equal(kw.name) {
			return kw.value, i, nil
		}
	}
	if i == len(buf) && !final && word.Len() < 5 {
		for _, kw := range keywords {
			if word.Len() < kw.name.Len() && kw.name.SliceTo(word.Len()).Equal(word) {
				return nil, i, errMore
			}
		}
	}
	return nil, i, scanErrf(pos, "unknown constant %q", word.StringCopy())
}

func isSpace(b byte) bool    { return b == ' ' || b == '\r' || b == '\n' || b == '\t' }
func isDigit(b byte) bool    { return '0' <= b && b <= '9' }
func isNumStart(b byte) bool { return b == '-' || isDigit(b) }
func isNameByte(b byte) bool { return b >= 'a' && b <= 'z' }

// hasExtraLeadingZeroes reports whether the representation of an integer in
// buf has redundant leading zeroes, disallowed by the JSON grammar.
//
// OK: 0, 0.1, -1.0, -0.1 are all OK.
// Bad: -01, 01.2, -01.0, 00.1.
func hasExtraLeadingZeroes(buf []byte) bool {
	if buf[0] == '-' {
		buf = buf[1:] // skip leading sign
	}
	if buf[0] == '0' {
		// A leading zero is OK if it's the only digit.
		return len(buf) > 1
	}
	return false
}
