// Package ref implements intrusive reference counting with weak
// observation. An object embeds RefCounted; Shared handles own it, Weak
// handles observe it without extending its lifetime. The counters live in a
// control block separate from the object, so a Weak handle can detect expiry
// after the object has been disposed.
//
// Shared and Weak values must not be duplicated by plain assignment; use
// Clone to take an additional reference. Moving a value (passing ownership)
// is fine as long as only one copy is ever Reset.
package ref

import (
	"sync/atomic"
)

// expired is the strong-count sentinel stored once the object has been
// disposed. It is distinct from zero so a concurrent Lock can tell "never
// referenced" apart from "destroyed".
const expired = -1

var nextID atomic.Uint64

// RefCount is the shared control block. The block stays reachable as long
// as any Weak handle points at it, regardless of the object's lifetime.
type RefCount struct {
	refs     atomic.Int32 // strong count, expired (-1) once disposed
	weakRefs atomic.Int32
	id       uint64 // opaque identity, stable for the object's lifetime
}

// Counted is satisfied by any pointer type embedding RefCounted. The
// unexported method seals the interface to such types.
type Counted interface {
	refCount() *RefCount

	// Dispose is invoked exactly once, when the last strong reference is
	// released. Types embedding RefCounted may shadow it to run teardown;
	// shadowing implementations should call the embedded Dispose last.
	Dispose()
}

// Referent constrains the pointer types usable with Shared and Weak.
type Referent interface {
	comparable
	Counted
}

// RefCounted is the embeddable half of the model. The zero value is ready
// to use; the control block is allocated on first reference.
type RefCounted struct {
	block atomic.Pointer[RefCount]
}

func (r *RefCounted) refCount() *RefCount {
	if b := r.block.Load(); b != nil {
		return b
	}
	b := &RefCount{id: nextID.Add(1)}
	if r.block.CompareAndSwap(nil, b) {
		return b
	}
	return r.block.Load()
}

// Dispose is the default no-op teardown.
func (r *RefCounted) Dispose() {}

// ID returns a stable opaque identity for the object, assigned on first
// use. Suitable as a map key where C++ engines would hash the pointer.
func (r *RefCounted) ID() uint64 { return r.refCount().id }

// Refs returns the current strong reference count. Negative means the
// object has been disposed.
func (r *RefCounted) Refs() int { return int(r.refCount().refs.Load()) }

// WeakRefs returns the current weak reference count.
func (r *RefCounted) WeakRefs() int { return int(r.refCount().weakRefs.Load()) }

// addStrong increments the strong count of a live object.
func addStrong(b *RefCount) {
	for {
		n := b.refs.Load()
		if n < 0 {
			panic("ref: strong reference to a disposed object")
		}
		if b.refs.CompareAndSwap(n, n+1) {
			return
		}
	}
}

// releaseStrong decrements the strong count; on the last release it stores
// the expiry sentinel before running Dispose, so Weak handles observing the
// object mid-teardown already see it as expired.
func releaseStrong[T Referent](p T) {
	b := p.refCount()
	for {
		n := b.refs.Load()
		if n <= 0 {
			panic("ref: strong release with no strong references held")
		}
		if n == 1 {
			if b.refs.CompareAndSwap(1, expired) {
				p.Dispose()
				return
			}
			continue
		}
		if b.refs.CompareAndSwap(n, n-1) {
			return
		}
	}
}

// releaseWeak decrements the weak count. When it reaches zero and the
// object is already expired, the control block has no remaining observers
// and is left for the collector; the accounting mirrors freeing it.
func releaseWeak(b *RefCount) {
	if b.weakRefs.Add(-1) < 0 {
		panic("ref: weak release with no weak references held")
	}
}
