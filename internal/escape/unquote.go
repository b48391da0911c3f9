// Copyright (C) 2025 The uistream Authors. All Rights Reserved.

// Package escape handles quoting and unquoting of JSON strings.
package escape

import (
	"errors"
	"unicode/utf16"
	"unicode/utf8"

	"go4.org/mem"
)

// ErrUnknownEscape is reported by Unquote in strict mode when the character
// after a backslash does not begin a valid escape sequence.
var ErrUnknownEscape = errors.New("unknown escape sequence")

// Unquote decodes a byte slice containing the JSON encoding of a string. The
// input must have the enclosing double quotation marks already removed.
//
// Escape sequences are replaced with their unescaped equivalents. A \uXXXX
// escape that begins a UTF-16 surrogate pair is combined with the following
// \uXXXX escape when the two form a valid pair; an unpaired surrogate decodes
// to the Unicode replacement rune.
//
// When strict is false, an unknown escape passes the escaped character
// through literally, and a \u escape without four hex digits decodes to a
// literal "u". Model output is frequently sloppy about escaping, so this is
// the mode the parser runs in by default. When strict is true, both cases are
// reported as errors.
func Unquote(src mem.RO, strict bool) ([]byte, error) {
	dec := make([]byte, 0, src.Len())
	i := mem.IndexByte(src, '\\')
	if i < 0 {
		dec = mem.Append(dec, src)
		return dec, nil
	}

	putRune := func(r rune) {
		var buf [6]byte
		n := utf8.EncodeRune(buf[:], r)
		dec = append(dec, buf[:n]...)
	}
	for src.Len() != 0 {
		dec = mem.Append(dec, src.SliceTo(i))

		// Decode the rune after the backslash to figure out what to
		// substitute. The scanner guarantees the backslash is not the last
		// byte of the token, but check anyway so a caller handing us a bare
		// trailing escape gets an error rather than a panic.
		src = src.SliceFrom(i + 1)
		if src.Len() == 0 {
			return nil, errors.New("incomplete escape sequence")
		}
		r, n := mem.DecodeRune(src)
		if n == 0 {
			n++
		}

		src = src.SliceFrom(n)
		switch r {
		case '"', '\\', '/':
			dec = append(dec, byte(r))
		case 'b':
			dec = append(dec, '\b')
		case 'f':
			dec = append(dec, '\f')
		case 'n':
			dec = append(dec, '\n')
		case 'r':
			dec = append(dec, '\r')
		case 't':
			dec = append(dec, '\t')
		case 'u':
			v, rest, err := parseHex4(src)
			if err != nil {
				if strict {
					return nil, err
				}
				putRune('u') // pass the escaped character through
				break
			}
			src = rest
			if utf16.IsSurrogate(rune(v)) {
				v2, rest2, ok := nextSurrogate(src)
				if ok {
					if c := utf16.DecodeRune(rune(v), rune(v2)); c != utf8.RuneError {
						putRune(c)
						src = rest2
						break
					}
				}
				putRune(utf8.RuneError) // unpaired surrogate
				break
			}
			putRune(rune(v))
		default:
			if strict {
				return nil, ErrUnknownEscape
			}
			putRune(r) // pass the escaped character through
		}

		// Look for the next escape sequence, and if one is not found we can
		// blit the rest of the input and go home.
		i = mem.IndexByte(src, '\\')
		if i < 0 {
			dec = mem.Append(dec, src)
			break
		}
	}
	return dec, nil
}

// parseHex4 decodes four hex digits from the front of data, returning the
// value and the unconsumed remainder.
func parseHex4(data mem.RO) (int64, mem.RO, error) {
	if data.Len() < 4 {
		return 0, data, errors.New("incomplete Unicode escape")
	}
	var v int64
	for i := 0; i < 4; i++ {
		b := data.At(i)
		v <<= 4
		if '0' <= b && b <= '9' {
			v += int64(b - '0')
		} else if 'a' <= b && b <= 'f' {
			v += int64(b - 'a' + 10)
		} else if 'A' <= b && b <= 'F' {
			v += int64(b - 'A' + 10)
		} else {
			return 0, data, errors.New("invalid hex digit in Unicode escape")
		}
	}
	return v, data.SliceFrom(4), nil
}

// nextSurrogate decodes a \uXXXX escape from the front of data, as the
// candidate second half of a surrogate pair.
func nextSurrogate(data mem.RO) (int64, mem.RO, bool) {
	if data.Len() < 6 || data.At(0) != '\\' || data.At(1) != 'u' {
		return 0, data, false
	}
	v, rest, err := parseHex4(data.SliceFrom(2))
	if err != nil {
		return 0, data, false
	}
	return v, rest, true
}
