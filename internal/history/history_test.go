package history

import "testing"

func TestRecentNewestFirst(t *testing.T) {
	h := New(3)
	h.Append(Record{ID: "1"})
	h.Append(Record{ID: "2"})
	h.Append(Record{ID: "3"})

	recent := h.Recent(10)
	if len(recent) != 3 {
		t.Fatalf("expected 3 records, got %d", len(recent))
	}
	if recent[0].ID != "3" || recent[1].ID != "2" || recent[2].ID != "1" {
		t.Fatalf("expected newest-first order, got %+v", recent)
	}
}

func TestRecentWraparound(t *testing.T) {
	h := New(2)
	h.Append(Record{ID: "1"})
	h.Append(Record{ID: "2"})
	h.Append(Record{ID: "3"}) // evicts "1"

	recent := h.Recent(10)
	if len(recent) != 2 {
		t.Fatalf("expected 2 records after wraparound, got %d", len(recent))
	}
	if recent[0].ID != "3" || recent[1].ID != "2" {
		t.Fatalf("expected [3,2], got %+v", recent)
	}
}

func TestStatsCountersAndAverage(t *testing.T) {
	h := New(10)
	h.Append(Record{Success: true, DurationMs: 10})
	h.Append(Record{Success: false, DurationMs: 20})

	stats := h.Stats(2)
	if stats.TotalQueries != 2 || stats.SuccessfulQueries != 1 || stats.FailedQueries != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	if stats.AverageQueryDuration != 15 {
		t.Fatalf("expected average duration 15, got %v", stats.AverageQueryDuration)
	}
}
