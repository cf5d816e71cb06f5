package memory

import (
	"sync"
	"testing"
	"time"

	"pdf-rag/internal/models"
)

func TestMemory_AppendOrder(t *testing.T) {
	m := New()
	m.Append("q1", "a1")
	m.Append("q2", "a2")

	turns := m.Turns()
	want := []models.Turn{
		{Role: models.RoleUser, Content: "q1"},
		{Role: models.RoleAssistant, Content: "a1"},
		{Role: models.RoleUser, Content: "q2"},
		{Role: models.RoleAssistant, Content: "a2"},
	}
	if len(turns) != len(want) {
		t.Fatalf("got %d turns, want %d", len(turns), len(want))
	}
	for i := range want {
		if turns[i] != want[i] {
			t.Errorf("turn %d: got %+v, want %+v", i, turns[i], want[i])
		}
	}
}

func TestMemory_TurnsIsCopy(t *testing.T) {
	m := New()
	m.Append("q", "a")
	turns := m.Turns()
	turns[0].Content = "changed"
	if m.Turns()[0].Content != "q" {
		t.Error("mutating the returned slice must not change memory")
	}
}

func TestMemory_Window(t *testing.T) {
	m := New()
	m.Append("q1", "a1")
	m.Append("q2", "a2")
	w := m.Window(2)
	if len(w) != 2 || w[0].Content != "q2" || w[1].Content != "a2" {
		t.Errorf("window: %+v", w)
	}
	if len(m.Window(10)) != 4 {
		t.Error("window larger than memory should return everything")
	}
	if m.Len() != 4 {
		t.Errorf("window must not trim memory, len=%d", m.Len())
	}
}

func TestMemory_WindowKeepsWholeExchanges(t *testing.T) {
	m := New()
	m.Append("q1", "a1")
	m.Append("q2", "a2")
	m.Append("q3", "a3")

	for _, n := range []int{1, 2, 3, 5} {
		w := m.Window(n)
		if len(w)%2 != 0 || w[0].Role != models.RoleUser {
			t.Errorf("window(%d) does not start on a user turn: %+v", n, w)
		}
	}
	if w := m.Window(3); len(w) != 2 || w[0].Content != "q3" {
		t.Errorf("window(3): %+v", w)
	}
	if w := m.Window(1); len(w) != 2 || w[0].Content != "q3" {
		t.Errorf("window(1): %+v", w)
	}
}

func TestMemory_ConcurrentAppend(t *testing.T) {
	m := New()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.Append("q", "a")
		}()
	}
	wg.Wait()
	turns := m.Turns()
	if len(turns) != 100 {
		t.Fatalf("got %d turns", len(turns))
	}
	for i := 0; i < len(turns); i += 2 {
		if turns[i].Role != models.RoleUser || turns[i+1].Role != models.RoleAssistant {
			t.Fatalf("exchange at %d was interleaved", i)
		}
	}
}

func TestStore_GetCreatesAndReuses(t *testing.T) {
	s := NewStore()
	a := s.Get("a")
	a.Memory.Append("q", "a")
	if s.Get("a").Memory.Len() != 2 {
		t.Error("same id should return the same session")
	}
	if s.Get("b").Memory.Len() != 0 {
		t.Error("different id should start empty")
	}
	if s.Get("").ID != DefaultSession {
		t.Error("empty id should map to the default session")
	}
	if s.Len() != 3 {
		t.Errorf("sessions: %d", s.Len())
	}
}

func TestStore_Sweep(t *testing.T) {
	s := NewStore()
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }
	s.Get("old")
	now = now.Add(time.Hour)
	s.Get("fresh")

	if removed := s.Sweep(30 * time.Minute); removed != 1 {
		t.Errorf("removed %d sessions, want 1", removed)
	}
	if _, ok := s.Lookup("old"); ok {
		t.Error("idle session should be gone")
	}
	if _, ok := s.Lookup("fresh"); !ok {
		t.Error("fresh session should remain")
	}
	if s.Sweep(0) != 0 {
		t.Error("zero ttl disables sweeping")
	}
}

func TestStore_Delete(t *testing.T) {
	s := NewStore()
	s.Get("x")
	s.Delete("x")
	if _, ok := s.Lookup("x"); ok {
		t.Error("session should be deleted")
	}
}
