package value

import "testing"

func TestTruthiness(t *testing.T) {
	nonTruthy := []Value{Void, Bool(false)}
	for _, v := range nonTruthy {
		if v.Truthy() {
			t.Fatalf("expected %v to be non-truthy", v.Tag())
		}
	}

	truthy := []Value{Bool(true), Int(0), Int(-1), Float(0), SymbolValue(Symbol{}), KeyValue(0)}
	for _, v := range truthy {
		if !v.Truthy() {
			t.Fatalf("expected %v to be truthy", v.Tag())
		}
	}
}

func TestFloatRoundTrip(t *testing.T) {
	for _, f := range []float64{0, 1.5, -4.5, 3.14159} {
		v := Float(f)
		if v.Tag() != TagFloat {
			t.Fatalf("expected TagFloat, got %v", v.Tag())
		}
		if v.AsFloat() != f {
			t.Fatalf("got %v, want %v", v.AsFloat(), f)
		}
	}
}

func TestSymbolStripOneQuote(t *testing.T) {
	s := Symbol{Quotes: 2, ID: 7}
	stripped := s.StripOneQuote()
	if stripped.Quotes != 1 || stripped.ID != 7 {
		t.Fatalf("got %+v, want quotes=1 id=7", stripped)
	}
}

func TestEqualDistinguishesTags(t *testing.T) {
	if Int(0).Equal(Bool(false)) {
		t.Fatalf("values of different tags must never compare equal")
	}
}

func TestEqualHeapTagsByHandleIdentity(t *testing.T) {
	m := NewManager()
	a := m.NewList(nil)
	b := m.NewList(nil)
	if a.Equal(b) {
		t.Fatalf("two distinct empty lists should not be Equal")
	}
	if !a.Equal(a) {
		t.Fatalf("a value must equal itself")
	}
}
