package ref

// Shared is an owning handle. The zero value is null. Construction and
// Clone increment the strong count; Reset decrements it and disposes the
// object on the last release.
type Shared[T Referent] struct {
	ptr T
}

// NewShared takes a strong reference on p. A nil p yields a null handle.
func NewShared[T Referent](p T) Shared[T] {
	var zero T
	if p == zero {
		return Shared[T]{}
	}
	addStrong(p.refCount())
	return Shared[T]{ptr: p}
}

// newSharedOwned wraps p whose strong count has already been incremented
// by the caller (used by Weak.Lock and Detach).
func newSharedOwned[T Referent](p T) Shared[T] {
	return Shared[T]{ptr: p}
}

// IsNull reports whether the handle references nothing.
func (s Shared[T]) IsNull() bool {
	var zero T
	return s.ptr == zero
}

// Get returns the referenced object, or the zero pointer for a null handle.
func (s Shared[T]) Get() T { return s.ptr }

// MustGet returns the referenced object and panics on a null handle.
// Dereferencing null is a programming error, not a recoverable condition.
func (s Shared[T]) MustGet() T {
	if s.IsNull() {
		panic("ref: dereference of null Shared")
	}
	return s.ptr
}

// Clone takes an additional strong reference.
func (s Shared[T]) Clone() Shared[T] {
	return NewShared(s.ptr)
}

// Reset releases the reference and nulls the handle. Releasing the last
// strong reference disposes the object.
func (s *Shared[T]) Reset() {
	if s.IsNull() {
		return
	}
	p := s.ptr
	var zero T
	s.ptr = zero
	releaseStrong(p)
}

// Detach relinquishes ownership tracking and returns the raw pointer
// without disposing the object, leaving the net strong count unchanged: an
// extra reference covers the local release, then is dropped without the
// last-release path (the count cannot be 1 at that point). Intended for
// interop with externally managed lifetimes; use sparingly.
func (s *Shared[T]) Detach() T {
	p := s.ptr
	if s.IsNull() {
		return p
	}
	b := p.refCount()
	addStrong(b)
	s.Reset()
	b.refs.Add(-1)
	return p
}

// SharedAs converts between handle types of the same object family, the
// dynamic-cast equivalent. Failure yields a null handle and holds no
// reference.
func SharedAs[U Referent, T Referent](s Shared[T]) Shared[U] {
	if s.IsNull() {
		return Shared[U]{}
	}
	u, ok := any(s.ptr).(U)
	if !ok {
		return Shared[U]{}
	}
	return NewShared(u)
}

// Weak is a non-owning handle. It holds the control block separately from
// the object pointer so expiry is detectable without touching a disposed
// object.
type Weak[T Referent] struct {
	ptr   T
	block *RefCount
}

// NewWeak takes a weak reference on p. A nil p yields a null handle.
func NewWeak[T Referent](p T) Weak[T] {
	var zero T
	if p == zero {
		return Weak[T]{}
	}
	b := p.refCount()
	b.weakRefs.Add(1)
	return Weak[T]{ptr: p, block: b}
}

// Expired reports whether the handle is null or the object has been
// disposed.
func (w Weak[T]) Expired() bool {
	return w.block == nil || w.block.refs.Load() < 0
}

// Get returns the referenced object without taking ownership, or the zero
// pointer if expired. The caller must guarantee liveness for the duration
// of use by other means, typically single-goroutine ownership; prefer Lock
// when in doubt.
func (w Weak[T]) Get() T {
	var zero T
	if w.Expired() {
		return zero
	}
	return w.ptr
}

// Lock converts to a strong handle. It fails (null handle, false) if the
// object has expired; it never yields a reference to a disposed object.
func (w Weak[T]) Lock() (Shared[T], bool) {
	if w.block == nil {
		return Shared[T]{}, false
	}
	for {
		n := w.block.refs.Load()
		if n < 0 {
			return Shared[T]{}, false
		}
		if w.block.refs.CompareAndSwap(n, n+1) {
			return newSharedOwned(w.ptr), true
		}
	}
}

// Clone takes an additional weak reference.
func (w Weak[T]) Clone() Weak[T] {
	if w.block == nil {
		return Weak[T]{}
	}
	w.block.weakRefs.Add(1)
	return w
}

// Reset releases the weak reference and nulls the handle.
func (w *Weak[T]) Reset() {
	if w.block == nil {
		return
	}
	b := w.block
	var zero T
	w.ptr = zero
	w.block = nil
	releaseWeak(b)
}

// WeakAs converts between weak handle types, the dynamic-cast equivalent.
// A failed cast holds no reference: the weak increment is dropped.
func WeakAs[U Referent, T Referent](w Weak[T]) Weak[U] {
	if w.block == nil {
		return Weak[U]{}
	}
	u, ok := any(w.ptr).(U)
	if !ok {
		return Weak[U]{}
	}
	w.block.weakRefs.Add(1)
	return Weak[U]{ptr: u, block: w.block}
}
