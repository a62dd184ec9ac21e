package audit

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

var testTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func TestAppendAndReadAll(t *testing.T) {
	path := filepath.Join(t.TempDir(), "SOP-001.jsonl")

	if err := Append(path, Create("claude", "0.1", "Cleaning"), testTime); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := Append(path, Checkin("claude", "0.1"), testTime); err != nil {
		t.Fatalf("Append: %v", err)
	}

	events, err := ReadAll(path)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].Event != EventCreate || events[1].Event != EventCheckin {
		t.Fatalf("unexpected event order: %+v", events)
	}
}

func TestReadAllIsAppendOnlyOrder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "SOP-001.jsonl")
	events := []Event{
		Create("claude", "0.1", "Cleaning"),
		Checkin("claude", "0.1"),
		RouteReview("claude", "0.1", []string{"qa"}, "review", ""),
	}
	for _, e := range events {
		if err := Append(path, e, testTime); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	before, err := ReadAll(path)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if err := Append(path, Review("qa", "0.1", "RECOMMEND", "ok"), testTime); err != nil {
		t.Fatalf("Append: %v", err)
	}
	after, err := ReadAll(path)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if len(after) != len(before)+1 {
		t.Fatalf("expected append-only growth, before=%d after=%d", len(before), len(after))
	}
	for i := range before {
		if before[i].Event != after[i].Event {
			t.Fatalf("prefix event %d changed: %s vs %s", i, before[i].Event, after[i].Event)
		}
	}
}

func TestReadAllToleratesMalformedLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "SOP-001.jsonl")
	content := "{\"ts\":\"2026-03-01T12:00:00Z\",\"event\":\"CREATE\",\"user\":\"claude\",\"version\":\"0.1\",\"title\":\"Cleaning\"}\n" +
		"not json at all\n" +
		"\n" +
		"{\"ts\":\"2026-03-01T12:01:00Z\",\"event\":\"CHECKIN\",\"user\":\"claude\",\"version\":\"0.1\"}\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("setup: %v", err)
	}

	events, err := ReadAll(path)
	if err != nil {
		t.Fatalf("expected malformed lines to not fail the read, got %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 well-formed events to survive, got %d", len(events))
	}
}

func TestCommentsHiddenDuringReview(t *testing.T) {
	events := []Event{Review("qa", "0.1", "RECOMMEND", "looks good")}

	if got := Comments(events, "IN_REVIEW", ""); got != nil {
		t.Fatalf("expected hidden comments during IN_REVIEW, got %v", got)
	}
	if got := Comments(events, "REVIEWED", ""); len(got) != 1 {
		t.Fatalf("expected visible comments after REVIEWED, got %v", got)
	}
}

func TestCommentsFilterByVersion(t *testing.T) {
	events := []Event{
		Review("qa", "0.1", "RECOMMEND", "first pass"),
		Review("qa", "0.2", "RECOMMEND", "second pass"),
	}

	got := Comments(events, "REVIEWED", "0.2")
	if len(got) != 1 || got[0].Fields["comment"] != "second pass" {
		t.Fatalf("expected only v0.2 comment, got %+v", got)
	}
}
