// Copyright (C) 2025 The uistream Authors. All Rights Reserved.

package uistream_test

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/siciyuan404/uistream"
)

func TestComplete(t *testing.T) {
	tests := []struct {
		input string
		want  any
	}{
		// Constants
		{`null`, nil},
		{`true`, true},
		{`false`, false},

		// Numbers
		{`0`, int64(0)},
		{`-15`, int64(-15)},
		{`2.5`, 2.5},
		{`5e+9`, 5e+9},
		{`-0.001E-2`, -0.001e-2},
		{`9223372036854775807`, int64(9223372036854775807)},
		{`9223372036854775808`, float64(9223372036854775808)}, // beyond int64

		// Strings
		{`""`, ""},
		{`"a b c"`, "a b c"},
		{`"a\nb\tc"`, "a\nb\tc"},
		{`"\"\\\/\b\f\n\r\t"`, "\"\\/\b\f\n\r\t"},
		{`"Aé"`, "Aé"},
		{`"😀"`, "\U0001f600"}, // surrogate pair

		// Containers
		{`[]`, []any{}},
		{`[1, 2, 3]`, []any{int64(1), int64(2), int64(3)}},
		{`{}`, map[string]any{}},
		{`{"a": true, "b": [null, 1, 0.5]}`, map[string]any{
			"a": true,
			"b": []any{nil, int64(1), 0.5},
		}},
		{` {"nested": {"deep": [{"x": "y"}]}} `, map[string]any{
			"nested": map[string]any{"deep": []any{map[string]any{"x": "y"}}},
		}},
	}
	for _, test := range tests {
		got, err := uistream.Complete(test.input)
		if err != nil {
			t.Errorf("Complete %#q: unexpected error: %v", test.input, err)
			continue
		}
		if diff := cmp.Diff(test.want, got); diff != "" {
			t.Errorf("Input: %#q\nValue: (-want, +got)\n%s", test.input, diff)
		}
	}
}

// TestChunking verifies that splitting the input at any point, including
// inside strings, escapes, numbers, and keywords, yields the same final
// value as parsing it whole.
func TestChunking(t *testing.T) {
	tests := []struct {
		input string
		want  any
	}{
		{`"abécd"`, "abécd"},
		{`"abécd"`, "abécd"},
		{`"😀"`, "\U0001f600"},
		{`"😀"`, "\U0001f600"},
		{`[true,false,null,-1.5e3]`, []any{true, false, nil, -1.5e3}},
		{`{"a":[1,2,{"b":null}],"c":"d\\e"}`, map[string]any{
			"a": []any{int64(1), int64(2), map[string]any{"b": nil}},
			"c": `d\e`,
		}},
		{"\n[ \"x\" ,\n  { \"y\" : \"z\" } ]\n", []any{"x", map[string]any{"y": "z"}}},
	}
	for _, test := range tests {
		// Two chunks, split at every possible point.
		for i := 1; i < len(test.input); i++ {
			s := uistream.NewSession()
			for _, part := range []string{test.input[:i], test.input[i:]} {
				if r := s.Parse(part); r.Err != nil {
					t.Fatalf("Input %#q split at %d: unexpected error: %v", test.input, i, r.Err)
				}
			}
			r := s.Finish()
			if r.Err != nil {
				t.Fatalf("Input %#q split at %d: Finish: %v", test.input, i, r.Err)
			}
			if r.Partial {
				t.Errorf("Input %#q split at %d: result is partial", test.input, i)
			}
			if diff := cmp.Diff(test.want, r.Value); diff != "" {
				t.Errorf("Input %#q split at %d: (-want, +got)\n%s", test.input, i, diff)
			}
		}

		// One byte at a time.
		s := uistream.NewSession()
		for i := 0; i < len(test.input); i++ {
			if r := s.Parse(test.input[i : i+1]); r.Err != nil {
				t.Fatalf("Input %#q byte %d: unexpected error: %v", test.input, i, r.Err)
			}
		}
		r := s.Finish()
		if r.Err != nil {
			t.Fatalf("Input %#q bytewise: Finish: %v", test.input, r.Err)
		}
		if diff := cmp.Diff(test.want, r.Value); diff != "" {
			t.Errorf("Input %#q bytewise: (-want, +got)\n%s", test.input, diff)
		}
	}
}

// TestPrefixPartial verifies that every proper prefix of a valid document
// parses without error and reports a partial result.
func TestPrefixPartial(t *testing.T) {
	const input = `{"items":[{"name":"widget","count":3},{"name":"gadget","count":null}]}`
	for i := 1; i < len(input); i++ {
		s := uistream.NewSession()
		r := s.Parse(input[:i])
		if r.Err != nil {
			t.Fatalf("Prefix %#q: unexpected error: %v", input[:i], r.Err)
		}
		if !r.Partial {
			t.Errorf("Prefix %#q: result is not partial", input[:i])
		}
	}
}

// TestResumeInObject pins the resume contract: input arriving after a comma
// must continue the open object's key position, not restart a fresh value.
func TestResumeInObject(t *testing.T) {
	s := uistream.NewSession()
	for _, chunk := range []string{`{"a":1,`, `"b`, `"`, `:`, `2}`} {
		if r := s.Parse(chunk); r.Err != nil {
			t.Fatalf("Parse %#q: unexpected error: %v", chunk, r.Err)
		}
	}
	r := s.Finish()
	want := map[string]any{"a": int64(1), "b": int64(2)}
	if diff := cmp.Diff(want, r.Value); diff != "" {
		t.Errorf("Value: (-want, +got)\n%s", diff)
	}
}

func TestPartialObject(t *testing.T) {
	s := uistream.NewSession()

	r := s.Parse(`{"a":1,`)
	if r.Err != nil {
		t.Fatalf("Parse: unexpected error: %v", r.Err)
	}
	if !r.Partial {
		t.Error("Parse: result is not partial")
	}
	if diff := cmp.Diff(map[string]any{"a": int64(1)}, r.Value); diff != "" {
		t.Errorf("Partial value: (-want, +got)\n%s", diff)
	}

	r = s.Parse(`"b":2}`)
	if r.Err != nil {
		t.Fatalf("Parse: unexpected error: %v", r.Err)
	}
	if r.Partial {
		t.Error("Parse: result is still partial")
	}
	if r.PendingPath != "" {
		t.Errorf("PendingPath: got %q, want empty", r.PendingPath)
	}
	want := map[string]any{"a": int64(1), "b": int64(2)}
	if diff := cmp.Diff(want, r.Value); diff != "" {
		t.Errorf("Value: (-want, +got)\n%s", diff)
	}
}

func TestPendingPath(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{``, ``},
		{`   `, ``},
		{`{`, `root`},
		{`[`, `root[0]`},
		{`"abc`, `root`},
		{`{"a":`, `root.a`},
		{`[1,`, `root[1]`},
		{`{"a":[1,2,{"b":`, `root.a[2].b`},
		{`{"key with space":[`, `root['key with space'][0]`},
		{`[{"x":[true,`, `root[0].x[1]`},
	}
	for _, test := range tests {
		s := uistream.NewSession()
		r := s.Parse(test.input)
		if r.Err != nil {
			t.Errorf("Parse %#q: unexpected error: %v", test.input, r.Err)
			continue
		}
		if r.PendingPath != test.want {
			t.Errorf("Parse %#q: pending path %q, want %q", test.input, r.PendingPath, test.want)
		}
	}
}

func TestDepthLimit(t *testing.T) {
	t.Run("AtLimit", func(t *testing.T) {
		input := strings.Repeat("[", 100) + strings.Repeat("]", 100)
		if _, err := uistream.Complete(input); err != nil {
			t.Errorf("Complete at depth 100: unexpected error: %v", err)
		}
	})
	t.Run("BeyondLimit", func(t *testing.T) {
		r := uistream.NewSession().Parse(strings.Repeat("[", 101))
		if r.Err == nil {
			t.Fatal("Parse at depth 101: no error reported")
		}
		if !strings.Contains(r.Err.Message, "maximum nesting depth") ||
			!strings.Contains(r.Err.Message, "100") {
			t.Errorf("Error does not name the limit: %v", r.Err)
		}
	})
	t.Run("BeyondLimitChunked", func(t *testing.T) {
		s := uistream.NewSession()
		var r uistream.Result
		for i := 0; i < 101; i++ {
			r = s.Parse("[")
		}
		if r.Err == nil {
			t.Fatal("Chunked parse at depth 101: no error reported")
		}
	})
	t.Run("Custom", func(t *testing.T) {
		s := uistream.NewSession()
		s.SetMaxDepth(3)
		if r := s.Parse(`[[[1]]]`); r.Err != nil {
			t.Errorf("Parse at depth 3: unexpected error: %v", r.Err)
		}
		s.Reset()
		if r := s.Parse(`[[[[`); r.Err == nil {
			t.Error("Parse at depth 4: no error reported")
		}
	})
}

func TestFinish(t *testing.T) {
	tests := []struct {
		input   string
		want    any    // checked only if errLike == ""
		errLike string // substring of the expected error, or ""
	}{
		{`42`, int64(42), ""},
		{`-3.25`, -3.25, ""},
		{`true`, true, ""},
		{`[1,2,3]`, []any{int64(1), int64(2), int64(3)}, ""},

		{``, nil, "no value"},
		{`   `, nil, "no value"},
		{`[1,2,3`, nil, "unclosed array"},
		{`{"a":1`, nil, "unclosed object"},
		{`{"a":`, nil, "unclosed object"},
		{`"abc`, nil, "end of input in value"},
		{`-`, nil, "unexpected end of number"},
		{`1.`, nil, "no digits after decimal point"},
		{`1e`, nil, "missing exponent digits"},
		{`1e+`, nil, "missing exponent digits"},
		{`tru`, nil, "unknown constant"},
	}
	for _, test := range tests {
		s := uistream.NewSession()
		if r := s.Parse(test.input); r.Err != nil {
			t.Errorf("Parse %#q: unexpected error: %v", test.input, r.Err)
			continue
		}
		r := s.Finish()
		if test.errLike != "" {
			if r.Err == nil {
				t.Errorf("Finish %#q: no error, want %q", test.input, test.errLike)
			} else if !strings.Contains(r.Err.Message, test.errLike) {
				t.Errorf("Finish %#q: error %q, want mention of %q", test.input, r.Err.Message, test.errLike)
			}
			continue
		}
		if r.Err != nil {
			t.Errorf("Finish %#q: unexpected error: %v", test.input, r.Err)
			continue
		}
		if r.Partial {
			t.Errorf("Finish %#q: result is partial", test.input)
		}
		if diff := cmp.Diff(test.want, r.Value); diff != "" {
			t.Errorf("Finish %#q: (-want, +got)\n%s", test.input, diff)
		}
	}
}

// TestFinishKeepsPartialValue verifies that flagging an open container at end
// of stream still reports the best-effort value parsed so far.
func TestFinishKeepsPartialValue(t *testing.T) {
	s := uistream.NewSession()
	if r := s.Parse(`[1,2,3`); r.Err != nil {
		t.Fatalf("Parse: unexpected error: %v", r.Err)
	}
	r := s.Finish()
	if r.Err == nil {
		t.Fatal("Finish: no error for unclosed array")
	}
	want := []any{int64(1), int64(2), int64(3)}
	if diff := cmp.Diff(want, r.Value); diff != "" {
		t.Errorf("Value: (-want, +got)\n%s", diff)
	}
}

func TestErrors(t *testing.T) {
	tests := []struct {
		input   string
		errLike string
	}{
		{`]`, "want value"},
		{`:`, "want value"},
		{`{"a":}`, "want value"},
		{`{1:2}`, "want key"},
		{`{"a"1}`, `want ":"`},
		{`[1 2]`, "want ','"},
		{`[1,]`, `unexpected "]"`},
		{`{"a":1,}`, `unexpected "}"`},
		{`01`, "extra leading zeroes"},
		{`1x`, "after value"},
		{`{"a":1}g`, "after value"},
		{`nulla`, "unknown constant"},
		{"\"a\x01\"", "unescaped control"},
	}
	for _, test := range tests {
		s := uistream.NewSession()
		r := s.Parse(test.input)
		if r.Err == nil {
			t.Errorf("Parse %#q: no error, want %q", test.input, test.errLike)
			continue
		}
		if !strings.Contains(r.Err.Message, test.errLike) {
			t.Errorf("Parse %#q: error %q, want mention of %q", test.input, r.Err.Message, test.errLike)
		}

		// A terminal error latches until Reset.
		if r2 := s.Parse(`null`); r2.Err == nil {
			t.Errorf("Parse %#q: error did not latch", test.input)
		} else if r2.Err.Message != r.Err.Message {
			t.Errorf("Parse %#q: latched error changed: %q then %q", test.input, r.Err.Message, r2.Err.Message)
		}
	}
}

func TestErrorLocation(t *testing.T) {
	s := uistream.NewSession()
	r := s.Parse("{\n  \"a\": x")
	if r.Err == nil {
		t.Fatal("Parse: no error reported")
	}
	if r.Err.Line != 2 || r.Err.Column != 8 {
		t.Errorf("Location: got %d:%d, want 2:8", r.Err.Line, r.Err.Column)
	}
	if r.Err.Pos != 9 {
		t.Errorf("Pos: got %d, want 9", r.Err.Pos)
	}
	if r.Err.Path != "root.a" {
		t.Errorf("Path: got %q, want %q", r.Err.Path, "root.a")
	}
}

func TestTrailingCommas(t *testing.T) {
	tests := []struct {
		input string
		want  any
	}{
		{`[1,2,]`, []any{int64(1), int64(2)}},
		{`{"a":1,}`, map[string]any{"a": int64(1)}},
		{`{"a":[1,],}`, map[string]any{"a": []any{int64(1)}}},
	}
	for _, test := range tests {
		s := uistream.NewSession()
		s.AllowTrailingCommas(true)
		if r := s.Parse(test.input); r.Err != nil {
			t.Errorf("Parse %#q: unexpected error: %v", test.input, r.Err)
			continue
		}
		r := s.Finish()
		if r.Err != nil {
			t.Errorf("Finish %#q: unexpected error: %v", test.input, r.Err)
			continue
		}
		if diff := cmp.Diff(test.want, r.Value); diff != "" {
			t.Errorf("Input %#q: (-want, +got)\n%s", test.input, diff)
		}
	}
}

func TestEscapeHandling(t *testing.T) {
	t.Run("LenientDefault", func(t *testing.T) {
		tests := []struct {
			input string
			want  string
		}{
			{`"\x\q"`, "xq"},       // unknown escapes pass through
			{`"\u12zz"`, "u12zz"},  // bad hex digits
			{`"\u00"`, "u00"},      // short hex run
			{`"\ud800"`, "\ufffd"}, // unpaired surrogate
		}
		for _, test := range tests {
			got, err := uistream.Complete(test.input)
			if err != nil {
				t.Errorf("Complete %#q: unexpected error: %v", test.input, err)
				continue
			}
			if diff := cmp.Diff(test.want, got); diff != "" {
				t.Errorf("Input %#q: (-want, +got)\n%s", test.input, diff)
			}
		}
	})
	t.Run("Strict", func(t *testing.T) {
		for _, input := range []string{`"\x"`, `"\u12zz"`, `"\u00"`} {
			s := uistream.NewSession()
			s.SetStrictEscapes(true)
			if r := s.Parse(input); r.Err == nil {
				t.Errorf("Parse %#q: no error in strict mode", input)
			}
		}
	})
}

func TestReset(t *testing.T) {
	s := uistream.NewSession()
	if r := s.Parse(`]`); r.Err == nil {
		t.Fatal("Parse: no error reported")
	}
	s.Reset()
	if r := s.Parse(`[true]`); r.Err != nil {
		t.Fatalf("Parse after Reset: unexpected error: %v", r.Err)
	}
	r := s.Finish()
	if diff := cmp.Diff([]any{true}, r.Value); diff != "" {
		t.Errorf("Value: (-want, +got)\n%s", diff)
	}
}

func TestParseAfterFinish(t *testing.T) {
	s := uistream.NewSession()
	s.Parse(`1`)
	if r := s.Finish(); r.Err != nil {
		t.Fatalf("Finish: unexpected error: %v", r.Err)
	}
	if r := s.Parse(`2`); r.Err == nil {
		t.Error("Parse after Finish: no error reported")
	}
}

func TestMaxBuffer(t *testing.T) {
	s := uistream.NewSession()
	s.SetMaxBuffer(4)
	if r := s.Parse(`[1,2,3]`); r.Err == nil {
		t.Error("Parse past buffer limit: no error reported")
	} else if !strings.Contains(r.Err.Message, "buffer limit") {
		t.Errorf("Error does not name the buffer limit: %v", r.Err)
	}
}

func TestState(t *testing.T) {
	s := uistream.NewSession()
	if r := s.Parse(`{"a":[1`); r.Err != nil {
		t.Fatalf("Parse: unexpected error: %v", r.Err)
	}

	st := s.State()
	if st.Buffer != `{"a":[1` {
		t.Errorf("Buffer: got %#q", st.Buffer)
	}
	if st.Consumed != 6 { // the trailing "1" may still grow
		t.Errorf("Consumed: got %d, want 6", st.Consumed)
	}
	if st.Depth != 2 {
		t.Errorf("Depth: got %d, want 2", st.Depth)
	}
	if st.PendingPath != "root.a[0]" {
		t.Errorf("PendingPath: got %q, want %q", st.PendingPath, "root.a[0]")
	}
	if !st.Partial || st.Ended || st.Err != nil {
		t.Errorf("Flags: partial=%v ended=%v err=%v", st.Partial, st.Ended, st.Err)
	}

	// The snapshot must be independent of the live session.
	st.Value.(map[string]any)["z"] = "mutated"
	s.Parse(`]}`)
	r := s.Finish()
	if r.Err != nil {
		t.Fatalf("Finish: unexpected error: %v", r.Err)
	}
	want := map[string]any{"a": []any{int64(1)}}
	if diff := cmp.Diff(want, r.Value); diff != "" {
		t.Errorf("Value: (-want, +got)\n%s", diff)
	}
}
