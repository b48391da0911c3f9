// Copyright (C) 2025 The uistream Authors. All Rights Reserved.

// Package uistream implements an incremental parser for JSON values arriving
// as a text stream, such as the output of a streaming language-model
// response. The parser produces a best-effort, continuously updated value
// before the stream completes, along with the path of the node currently
// being written.
//
// # Sessions
//
// A Session owns the state of one logical stream. Feed it chunks as they
// arrive, in arrival order, with no alignment requirements: a chunk boundary
// may fall inside a string, an escape sequence, a number, or a keyword.
//
//	s := uistream.NewSession()
//	for chunk := range chunks {
//	   r := s.Parse(chunk)
//	   if r.Err != nil {
//	      log.Fatalf("Parse failed: %v", r.Err)
//	   }
//	   render(r.Value, r.PendingPath)
//	}
//	r := s.Finish()
//
// Each Parse call returns a Result holding the partial value reconstructed
// so far. Partial remains true until the root value has fully closed. The
// session distinguishes input that is merely incomplete, which is not an
// error, from input that cannot be part of any valid continuation, which is
// a terminal error: after an error the session returns the same Result until
// Reset is called.
//
// Because a bare number or keyword at the end of the buffer cannot be told
// apart from one that is still streaming, the caller must declare the end of
// the stream explicitly by calling Finish. Finish finalizes any such
// trailing token and reports an error for a value still open at end of
// stream.
//
// # Paths
//
// Result.PendingPath locates the slot currently being streamed, in the form
// accepted by the vpath package:
//
//	root.items[2].name
//
// A live preview can use it to highlight the node under construction, and
// vpath.Pattern to watch for particular nodes.
package uistream
