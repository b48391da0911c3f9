// Copyright (C) 2025 The uistream Authors. All Rights Reserved.

package uistream

// A frameKind distinguishes the two container types.
type frameKind byte

const (
	objectFrame frameKind = iota
	arrayFrame
)

func (k frameKind) String() string {
	if k == objectFrame {
		return "object"
	}
	return "array"
}

// A frameMode is the resume point of an open container. It is the
// authoritative record of what the frame expects next; it is never re-derived
// from the input, so a parse interrupted at any boundary re-enters exactly
// the state it left.
type frameMode byte

const (
	modeKey   frameMode = iota // object: expecting a key, or "}" if empty
	modeColon                  // object: expecting ":" after a key
	modeValue                  // expecting a value, or "]" if an empty array
	modeSep                    // expecting "," or the closing bracket
)

// A frame is one open container on the session stack. The frame owns its
// partial value until the container closes, at which point the finished value
// is delivered to the parent frame (or becomes the root).
type frame struct {
	kind frameKind
	mode frameMode

	obj     map[string]any // object frames
	key     string         // most recently parsed key, awaiting its value
	haveKey bool           // key is set (distinguishes the empty-string key)

	arr   []any // array frames
	index int   // next insertion index
}

func newFrame(kind frameKind) *frame {
	f := &frame{kind: kind, mode: modeValue}
	if kind == objectFrame {
		f.mode = modeKey
		f.obj = make(map[string]any)
	}
	return f
}

// deliver stores a completed value into the frame's pending slot and advances
// the frame to expect a separator or close.
func (f *frame) deliver(v any) {
	if f.kind == objectFrame {
		f.obj[f.key] = v
		f.haveKey = false
	} else {
		f.arr = append(f.arr, v)
		f.index++
	}
	f.mode = modeSep
}

// finish returns the completed container value.
func (f *frame) finish() any {
	if f.kind == objectFrame {
		return f.obj
	}
	if f.arr == nil {
		return []any{}
	}
	return f.arr
}

// closer returns the byte that closes the frame's container.
func (f *frame) closer() byte {
	if f.kind == objectFrame {
		return '}'
	}
	return ']'
}
