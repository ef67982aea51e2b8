package idgen

import "testing"

func TestNewReturnsUnusedID(t *testing.T) {
	used := map[string]bool{}
	id := New(func(id string) bool { return used[id] })
	if id == "" {
		t.Fatalf("expected a non-empty id")
	}
	used[id] = true

	id2 := New(func(id string) bool { return used[id] })
	if id2 == id {
		t.Fatalf("expected distinct ids, got %q twice", id)
	}
}

func TestNewGrowsLengthOnCollision(t *testing.T) {
	calls := 0
	id := New(func(string) bool {
		calls++
		return calls <= 3 // first three candidates "collide"
	})
	if id == "" {
		t.Fatalf("expected eventual success after collisions")
	}
	if calls < 4 {
		t.Fatalf("expected at least 4 attempts, got %d", calls)
	}
}

func TestNewPanicsAfterMaxAttempts(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic after exhausting attempts")
		}
	}()
	New(func(string) bool { return true })
}
