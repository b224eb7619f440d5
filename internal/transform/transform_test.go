package transform

import "testing"

func TestIdentityString(t *testing.T) {
	got := Identity().String()
	want := "1 0 0 0 0 1 0 0 0 0 1 0 0 0 0 1"
	if got != want {
		t.Fatalf("identity string: got %q want %q", got, want)
	}
}

func TestFromSliceRejectsWrongLength(t *testing.T) {
	if _, err := FromSlice(make([]float64, 12)); err == nil {
		t.Fatal("expected error for 12 values")
	}
	m, err := FromSlice([]float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16})
	if err != nil {
		t.Fatalf("FromSlice: %v", err)
	}
	if m.At(1, 2) != 7 {
		t.Fatalf("unexpected At(1,2): %v", m.At(1, 2))
	}
}

func TestTranslation(t *testing.T) {
	m := Translation(1.5, -2, 30)
	x, y, z := m.Translation()
	if x != 1.5 || y != -2 || z != 30 {
		t.Fatalf("unexpected translation: %v %v %v", x, y, z)
	}
	if m.At(3, 3) != 1 {
		t.Fatal("expected homogeneous row")
	}
}

func TestMatrixIsValueType(t *testing.T) {
	a := Identity()
	b := a
	b[3] = 42
	if a[3] != 0 {
		t.Fatal("copy aliased the original matrix")
	}
}

func TestStaticNotifiesSubscribers(t *testing.T) {
	src := NewStatic("Stylus")
	calls := 0
	sub := src.Subscribe(func() { calls++ })

	src.Set(Translation(1, 2, 3))
	if calls != 1 {
		t.Fatalf("expected 1 notification, got %d", calls)
	}
	m, err := src.Matrix()
	if err != nil {
		t.Fatalf("Matrix: %v", err)
	}
	if x, _, _ := m.Translation(); x != 1 {
		t.Fatalf("expected updated matrix, got %v", m)
	}

	sub.Unsubscribe()
	sub.Unsubscribe()
	src.Set(Identity())
	if calls != 1 {
		t.Fatalf("expected no notification after unsubscribe, got %d", calls)
	}
	if src.Subscribers() != 0 {
		t.Fatalf("expected 0 subscribers, got %d", src.Subscribers())
	}
}
