package clipboard

import "testing"

func TestMemory(t *testing.T) {
	var m Memory
	if got, n := m.Last(); got != "" || n != 0 {
		t.Errorf("Last() = %q, %d, want empty", got, n)
	}

	_ = m.Write("first")
	_ = m.Write("second")

	got, n := m.Last()
	if got != "second" || n != 2 {
		t.Errorf("Last() = %q, %d, want %q, 2", got, n, "second")
	}
}

func TestNop(t *testing.T) {
	if err := (Nop{}).Write("anything"); err != nil {
		t.Errorf("Nop.Write() = %v, want nil", err)
	}
}
