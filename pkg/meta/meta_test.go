package meta

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeRaw(path, content string) error {
	return os.WriteFile(path, []byte(content), 0o644)
}

var testDate = time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

func TestWriteReadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "SOP-001.json")

	m := CreateInitial("SOP-001", "SOP", false, "claude", testDate)
	if err := Write(path, m); err != nil {
		t.Fatalf("Write: %v", err)
	}

	got, err := Read(path)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if got.DocID != "SOP-001" || got.Status != "DRAFT" || got.Version != "0.1" {
		t.Fatalf("round-trip mismatch: %+v", got)
	}
	if !got.CheckedOut || got.ResponsibleUser != "claude" {
		t.Fatalf("expected checked out to claude: %+v", got)
	}
}

func TestReadMissingFileIsNotError(t *testing.T) {
	got, err := Read(filepath.Join(t.TempDir(), "missing.json"))
	if err != nil {
		t.Fatalf("expected no error for missing file, got %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil metadata, got %+v", got)
	}
}

func TestCheckinRevertsCompletedReview(t *testing.T) {
	m := CreateInitial("SOP-001", "SOP", false, "claude", testDate)
	m = Route(m, "IN_REVIEW", []string{"qa"})
	m = ReviewComplete(m, "qa", "REVIEWED", "RECOMMEND")
	if m.Status != "REVIEWED" {
		t.Fatalf("expected REVIEWED after last reviewer, got %s", m.Status)
	}

	m.CheckedOut = true // simulate a checkout before editing again
	next := Checkin(m)
	if next.Status != "DRAFT" {
		t.Fatalf("expected checkin to revert REVIEWED to DRAFT, got %s", next.Status)
	}
	if len(next.PendingAssignees) != 0 {
		t.Fatalf("expected pending assignees cleared, got %v", next.PendingAssignees)
	}
	if next.CheckedOut {
		t.Fatal("expected checked_out cleared")
	}
}

func TestCheckinPreservesDraftStatus(t *testing.T) {
	m := CreateInitial("SOP-001", "SOP", false, "claude", testDate)
	next := Checkin(m)
	if next.Status != "DRAFT" {
		t.Fatalf("expected DRAFT to remain DRAFT, got %s", next.Status)
	}
}

func TestApprovalClearsOwnerAndSetsEffectiveVersion(t *testing.T) {
	m := CreateInitial("SOP-001", "SOP", false, "claude", testDate)
	m = Route(m, "IN_APPROVAL", []string{"qa"})
	next := Approval(m, "EFFECTIVE", "1.0", true)

	if next.Status != "EFFECTIVE" || next.Version != "1.0" || next.EffectiveVersion != "1.0" {
		t.Fatalf("unexpected approval result: %+v", next)
	}
	if next.ResponsibleUser != "" || next.CheckedOut {
		t.Fatalf("expected owner cleared: %+v", next)
	}
}

func TestUnknownKeysRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "SOP-001.json")
	if err := writeRaw(path, `{"doc_id":"SOP-001","doc_type":"SOP","version":"0.1","status":"DRAFT","executable":false,"checked_out":false,"pending_assignees":[],"from_a_future_version":"keep-me"}`); err != nil {
		t.Fatalf("writeRaw: %v", err)
	}

	m, err := Read(path)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if _, ok := m.Extra["from_a_future_version"]; !ok {
		t.Fatal("expected unknown key to be preserved")
	}

	if err := Write(path, m); err != nil {
		t.Fatalf("Write: %v", err)
	}
	m2, err := Read(path)
	if err != nil {
		t.Fatalf("re-Read: %v", err)
	}
	if _, ok := m2.Extra["from_a_future_version"]; !ok {
		t.Fatal("expected unknown key to survive a write/read cycle")
	}
}

func TestReadRejectsSchemaViolation(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "SOP-001.json")
	if err := writeRaw(path, `{"doc_id":"SOP-001","doc_type":"SOP","version":"0.1","status":"DRAFT","executable":false,"checked_out":"yes","pending_assignees":[]}`); err != nil {
		t.Fatalf("writeRaw: %v", err)
	}

	if _, err := Read(path); err == nil {
		t.Fatal("expected schema validation to reject checked_out: \"yes\"")
	}
}

func TestReadRejectsMissingRequiredField(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "SOP-001.json")
	if err := writeRaw(path, `{"doc_id":"SOP-001","doc_type":"SOP","version":"0.1","executable":false,"checked_out":false,"pending_assignees":[]}`); err != nil {
		t.Fatalf("writeRaw: %v", err)
	}

	if _, err := Read(path); err == nil {
		t.Fatal("expected schema validation to reject a metadata file missing status")
	}
}
