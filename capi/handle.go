// Package capi is the foreign-callable construction interface: six
// (Kind, Geometry) constructors and destructors operating on opaque
// handles, plus an errno-style side channel for the calling language to
// retrieve the last error. It is the thinnest possible boundary layer —
// everything it does is validate inputs, translate columns into the
// generic field package's types, and manage the handle table.
package capi

import (
	"sync"
	"sync/atomic"
)

// Handle is an opaque reference to a built Field, safe to pass across a
// cgo or similar foreign boundary as a plain integer.
type Handle uintptr

var (
	nextHandle atomic.Uintptr
	registry   sync.Map // Handle -> any (always a *field.Field[P, G] for some P, G)
)

// register stores v under a freshly minted Handle. v is always
// *field.Field[P, G] for whichever instantiation called register; the
// registry itself is untyped because Go has no existential-type map.
func register(v any) Handle {
	h := Handle(nextHandle.Add(1))
	registry.Store(h, v)
	return h
}

// lookup retrieves the value registered under h if it exists and has
// exactly the requested type. A type mismatch (the handle exists but
// was built with a different Kind/Geometry instantiation) returns
// ok=false rather than the wrong value: this is what makes the
// cast-to-the-wrong-instantiation class of bug structurally impossible
// here, unlike a raw void* handle table.
func lookup[T any](h Handle) (T, bool) {
	var zero T
	v, ok := registry.Load(h)
	if !ok {
		return zero, false
	}
	t, ok := v.(T)
	if !ok {
		return zero, false
	}
	return t, true
}

// deleteHandle removes h from the registry if (and only if) it holds a
// value of type T, returning whether it did. Calling the destructor for
// the wrong (Kind, Geometry) pair is therefore a safe no-op instead of
// the type-confused free the foreign interface's C++ ancestor permitted.
func deleteHandle[T any](h Handle) bool {
	_, ok := lookup[T](h)
	if !ok {
		return false
	}
	registry.Delete(h)
	return true
}

// errorRecord is what LastError reports for a given caller token.
type errorRecord struct {
	Code int
	Msg  string
}

var lastErrors sync.Map // token int64 -> errorRecord

// setLastError records an error for token, overwriting any previous
// record. Passing code 0 clears it (used after a successful call).
func setLastError(token int64, code int, msg string) {
	if code == 0 {
		lastErrors.Delete(token)
		return
	}
	lastErrors.Store(token, errorRecord{Code: code, Msg: msg})
}

// LastError returns the most recent error recorded for token, or
// (0, "") if the token's last call succeeded or it has never been used.
// token stands in for the thread-local storage the original C++
// interface relied on: Go has no implicit per-OS-thread state tied to a
// goroutine, so the caller supplies whatever identifier it uses to
// correlate a call with its error (e.g. a per-request id).
func LastError(token int64) (code int, msg string) {
	v, ok := lastErrors.Load(token)
	if !ok {
		return 0, ""
	}
	r := v.(errorRecord)
	return r.Code, r.Msg
}

// Error codes for the LastError side channel. An all-zero-weight build
// is not an error — it succeeds with an empty Field — so it never gets
// a code here; the field package only logs it.
const (
	ErrCodeInvalidDimensions = 1
	ErrCodeInvalidParameter  = 2
	ErrCodeOutOfMemory       = 3
	errCodeUnknown           = -1
)
