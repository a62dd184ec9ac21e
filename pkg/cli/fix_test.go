package cli

import (
	"fmt"
	"strings"
	"testing"

	"github.com/whharris917/qms-cli/pkg/docio"
)

// approveToEffective runs a fresh SOP through the full review/approval
// cycle and returns its docID once EFFECTIVE, mirroring the lifecycle in
// TestScenarioSOPFullLifecycle.
func approveToEffective(t *testing.T, dir string) string {
	t.Helper()
	res, err := Create(ctxFor(t, dir, "claude"), CreateOptions{DocType: "SOP", Title: "Fixable procedure"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	docID := res.DocID

	if err := Checkin(ctxFor(t, dir, "claude"), docID); err != nil {
		t.Fatalf("Checkin: %v", err)
	}
	if err := Route(ctxFor(t, dir, "claude"), docID, RouteOptions{Review: true, Assignees: []string{"qa"}}); err != nil {
		t.Fatalf("Route review: %v", err)
	}
	if err := Review(ctxFor(t, dir, "qa"), docID, OutcomeRecommend, "ok"); err != nil {
		t.Fatalf("Review: %v", err)
	}
	if err := Route(ctxFor(t, dir, "claude"), docID, RouteOptions{Approval: true, Assignees: []string{"qa"}}); err != nil {
		t.Fatalf("Route approval: %v", err)
	}
	if err := Approve(ctxFor(t, dir, "qa"), docID); err != nil {
		t.Fatalf("Approve: %v", err)
	}
	return docID
}

func TestFixFillsTodaysDateNotVersion(t *testing.T) {
	dir := newTestProject(t)
	docID := approveToEffective(t, dir)

	admin := ctxFor(t, dir, "lead")
	if err := admin.LoadDocument(docID); err != nil {
		t.Fatal(err)
	}
	parentID := ""
	effectivePath := admin.Project.EffectivePath(containerPath(admin.TypeInfo, parentID), docID, parentID, admin.TypeInfo.FolderPerDoc)

	fm, body, err := docio.ReadFile(effectivePath)
	if err != nil {
		t.Fatal(err)
	}
	fm["checked_out"] = true
	fm["responsible_user"] = "stray-owner"
	body = strings.Replace(body, "\n", "\nEffective Date: TBD\n", 1)
	if err := docio.WriteFile(effectivePath, fm, body); err != nil {
		t.Fatal(err)
	}

	if err := Fix(admin, docID); err != nil {
		t.Fatalf("Fix: %v", err)
	}

	fixedFM, fixedBody, err := docio.ReadFile(effectivePath)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := fixedFM["checked_out"]; ok {
		t.Error("checked_out should have been stripped")
	}
	if _, ok := fixedFM["responsible_user"]; ok {
		t.Error("responsible_user should have been stripped")
	}
	if strings.Contains(fixedBody, "TBD") {
		t.Errorf("TBD placeholder should have been replaced, body = %q", fixedBody)
	}
	want := fmt.Sprintf("Effective Date: %s", dateStr(today()))
	if !strings.Contains(fixedBody, want) {
		t.Errorf("body = %q, want it to contain %q", fixedBody, want)
	}
}

func TestFixRequiresAdministrator(t *testing.T) {
	dir := newTestProject(t)
	docID := approveToEffective(t, dir)

	if err := Fix(ctxFor(t, dir, "claude"), docID); err == nil {
		t.Fatal("expected Fix to be refused for a non-administrator")
	}
}

func TestFixRejectsNonEffectiveDocument(t *testing.T) {
	dir := newTestProject(t)
	res, err := Create(ctxFor(t, dir, "claude"), CreateOptions{DocType: "SOP", Title: "Still a draft"})
	if err != nil {
		t.Fatal(err)
	}

	if err := Fix(ctxFor(t, dir, "lead"), res.DocID); err == nil {
		t.Fatal("expected Fix to be refused for a DRAFT document")
	}
}
