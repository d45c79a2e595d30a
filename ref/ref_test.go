package ref

import (
	"testing"
)

// probe counts Dispose invocations
type probe struct {
	RefCounted
	disposed int
}

func (p *probe) Dispose() {
	p.disposed++
}

// TestDisposeOnLastStrongRelease verifies the object is disposed exactly
// once when the final strong reference drops, and not before
func TestDisposeOnLastStrongRelease(t *testing.T) {
	p := &probe{}
	s1 := NewShared(p)
	s2 := s1.Clone()

	if p.Refs() != 2 {
		t.Fatalf("Expected 2 strong refs, got %d", p.Refs())
	}

	s1.Reset()
	if p.disposed != 0 {
		t.Error("Object disposed while a strong reference remained")
	}

	s2.Reset()
	if p.disposed != 1 {
		t.Errorf("Expected exactly one Dispose, got %d", p.disposed)
	}
	if p.Refs() >= 0 {
		t.Errorf("Expected expiry sentinel after dispose, got refs=%d", p.Refs())
	}
}

// TestWeakExpiryAfterStrongRelease verifies a live weak reference observes
// expiry immediately and Lock fails
func TestWeakExpiryAfterStrongRelease(t *testing.T) {
	p := &probe{}
	s := NewShared(p)
	w := NewWeak(p)

	if w.Expired() {
		t.Fatal("Weak reported expired while object alive")
	}
	if locked, ok := w.Lock(); !ok || locked.Get() != p {
		t.Fatal("Lock failed on a live object")
	} else {
		locked.Reset()
	}

	s.Reset()

	if !w.Expired() {
		t.Error("Weak did not report expiry after last strong release")
	}
	if _, ok := w.Lock(); ok {
		t.Error("Lock succeeded on an expired object")
	}
	w.Reset()
}

// TestWeakBlockLifetime verifies the control block accounting is identical
// for strong-then-weak and weak-then-strong release orders
func TestWeakBlockLifetime(t *testing.T) {
	testCases := []struct {
		name       string
		weakFirst  bool
	}{
		{"StrongThenWeak", false},
		{"WeakThenStrong", true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			p := &probe{}
			s := NewShared(p)
			w := NewWeak(p)
			block := p.refCount()

			if tc.weakFirst {
				w.Reset()
				s.Reset()
			} else {
				s.Reset()
				w.Reset()
			}

			if got := block.refs.Load(); got != expired {
				t.Errorf("Expected refs=%d, got %d", expired, got)
			}
			if got := block.weakRefs.Load(); got != 0 {
				t.Errorf("Expected weakRefs=0, got %d", got)
			}
			if p.disposed != 1 {
				t.Errorf("Expected exactly one Dispose, got %d", p.disposed)
			}
		})
	}
}

// TestDetachNeutrality verifies Detach keeps the object alive and leaves
// the net strong count unchanged
func TestDetachNeutrality(t *testing.T) {
	p := &probe{}
	outer := NewShared(p)
	before := p.Refs()

	local := outer.Clone()
	raw := local.Detach()

	if raw != p {
		t.Fatal("Detach returned a different pointer")
	}
	if p.disposed != 0 {
		t.Error("Detach disposed the object")
	}
	if !local.IsNull() {
		t.Error("Detach left the local handle non-null")
	}
	if p.Refs() != before {
		t.Errorf("Expected net strong count %d after detach, got %d", before, p.Refs())
	}
	outer.Reset()
}

// TestDetachSoleReference verifies detaching the only strong reference does
// not dispose the object
func TestDetachSoleReference(t *testing.T) {
	p := &probe{}
	s := NewShared(p)
	raw := s.Detach()

	if raw != p || p.disposed != 0 {
		t.Fatal("Detach of the sole reference disposed the object")
	}
	if p.Refs() != 0 {
		t.Errorf("Expected refs=0 after sole detach, got %d", p.Refs())
	}
}

// TestNullHandles verifies null construction and nil-safe operations
func TestNullHandles(t *testing.T) {
	s := NewShared[*probe](nil)
	if !s.IsNull() {
		t.Error("NewShared(nil) produced a non-null handle")
	}
	s.Reset() // no-op

	w := NewWeak[*probe](nil)
	if !w.Expired() {
		t.Error("Null weak did not report expired")
	}
	if _, ok := w.Lock(); ok {
		t.Error("Lock succeeded on a null weak")
	}
	w.Reset() // no-op
}

// TestMustGetPanicsOnNull verifies null dereference is a fatal precondition
// violation
func TestMustGetPanicsOnNull(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("MustGet on null handle did not panic")
		}
	}()
	var s Shared[*probe]
	s.MustGet()
}

// base/derived pair for cast tests
type base struct {
	RefCounted
}

type derived struct {
	base
	tag int
}

// TestWeakCastFailureDropsIncrement verifies a failed weak cast holds no
// reference
func TestWeakCastFailureDropsIncrement(t *testing.T) {
	b := &base{}
	w := NewWeak(b)

	failed := WeakAs[*derived](w)
	if failed.block != nil {
		t.Error("Failed cast retained a control block")
	}
	if b.WeakRefs() != 1 {
		t.Errorf("Expected weakRefs=1 after failed cast, got %d", b.WeakRefs())
	}
	w.Reset()
	if b.WeakRefs() != 0 {
		t.Errorf("Expected weakRefs=0, got %d", b.WeakRefs())
	}
}

// TestSharedCastSameObject verifies a successful cast re-derives from the
// same control block
func TestSharedCastSameObject(t *testing.T) {
	d := &derived{tag: 7}
	s := NewShared(d)
	upcast := SharedAs[Counted](s)
	if upcast.IsNull() {
		t.Fatal("Upcast produced a null handle")
	}
	if d.Refs() != 2 {
		t.Errorf("Expected 2 strong refs after cast, got %d", d.Refs())
	}
	upcast.Reset()
	s.Reset()
}

// TestWeakGetHoldsNoReference verifies Get neither owns nor disposes: the
// count is untouched while alive and the zero pointer comes back once the
// object expires
func TestWeakGetHoldsNoReference(t *testing.T) {
	p := &probe{}
	w := NewWeak(p)

	if got := w.Get(); got != p {
		t.Fatal("Get returned a different pointer")
	}
	if p.Refs() != 0 || p.disposed != 0 {
		t.Errorf("Get changed ownership: refs=%d disposed=%d", p.Refs(), p.disposed)
	}

	s := NewShared(p)
	s.Reset()
	if got := w.Get(); got != nil {
		t.Error("Get returned a pointer to a disposed object")
	}
	w.Reset()
}

// TestOpaqueIdentity verifies IDs are stable and unique per object
func TestOpaqueIdentity(t *testing.T) {
	a := &probe{}
	b := &probe{}

	idA := a.ID()
	if a.ID() != idA {
		t.Error("ID not stable across calls")
	}
	if a.ID() == b.ID() {
		t.Error("Two objects share an ID")
	}
}
