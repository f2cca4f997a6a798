package worksheet

import "testing"

func TestCreateGetUpdateDelete(t *testing.T) {
	s := New("")

	w, err := s.Create("scratch", "SELECT 1", "SNOWGLOBE", "PUBLIC")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if w.ID == "" {
		t.Fatalf("expected generated ID")
	}

	got, ok := s.Get(w.ID)
	if !ok || got.SQLText != "SELECT 1" {
		t.Fatalf("Get returned %+v, %v", got, ok)
	}

	updated, err := s.Update(w.ID, "renamed", "")
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Name != "renamed" || updated.SQLText != "SELECT 1" {
		t.Fatalf("Update did not preserve unset fields: %+v", updated)
	}

	if err := s.Delete(w.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, ok := s.Get(w.ID); ok {
		t.Fatalf("expected worksheet to be gone after Delete")
	}

	if err := s.Delete("nonexistent"); err != nil {
		t.Fatalf("Delete of unknown ID should not error, got %v", err)
	}
}

func TestListNewestFirst(t *testing.T) {
	s := New("")

	a, _ := s.Create("a", "SELECT 1", "", "")
	b, _ := s.Create("b", "SELECT 2", "", "")
	if _, err := s.Update(a.ID, "", "SELECT 1 -- touched"); err != nil {
		t.Fatalf("Update: %v", err)
	}

	list := s.List()
	if len(list) != 2 {
		t.Fatalf("expected 2 worksheets, got %d", len(list))
	}
	if list[0].ID != a.ID {
		t.Fatalf("expected most-recently-updated worksheet (%s) first, got %s", a.ID, list[0].ID)
	}
	_ = b
}
