package identity

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/whharris917/qms-cli/pkg/project"
	"github.com/whharris917/qms-cli/pkg/qmserrors"
)

func newProjectWithAgent(t *testing.T, user, group string) *project.Project {
	t.Helper()
	root := t.TempDir()
	dir := filepath.Join(root, ".claude", "agents")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	content := "---\ngroup: " + group + "\n---\n"
	if err := os.WriteFile(filepath.Join(dir, user+".md"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return &project.Project{Root: root}
}

func TestResolveHardcodedAdmin(t *testing.T) {
	p := &project.Project{Root: t.TempDir()}
	g, err := Resolve(p, "lead")
	if err != nil {
		t.Fatal(err)
	}
	if g != Administrator {
		t.Errorf("group = %q, want administrator", g)
	}
}

func TestResolveFromAgentFile(t *testing.T) {
	p := newProjectWithAgent(t, "alice", "quality")
	g, err := Resolve(p, "alice")
	if err != nil {
		t.Fatal(err)
	}
	if g != Quality {
		t.Errorf("group = %q, want quality", g)
	}
}

func TestResolveUnknownUser(t *testing.T) {
	p := &project.Project{Root: t.TempDir()}
	_, err := Resolve(p, "nobody")
	kind, ok := qmserrors.KindOf(err)
	if !ok || kind != qmserrors.UnknownUser {
		t.Errorf("kind = %v, ok=%v, want UnknownUser", kind, ok)
	}
}

func TestResolveInvalidGroup(t *testing.T) {
	p := newProjectWithAgent(t, "bob", "superuser")
	_, err := Resolve(p, "bob")
	kind, ok := qmserrors.KindOf(err)
	if !ok || kind != qmserrors.InvalidAgentGroup {
		t.Errorf("kind = %v, ok=%v, want InvalidAgentGroup", kind, ok)
	}
}

func TestGroupAtLeast(t *testing.T) {
	if !Administrator.AtLeast(Reviewer) {
		t.Error("administrator should satisfy reviewer requirement")
	}
	if Reviewer.AtLeast(Quality) {
		t.Error("reviewer should not satisfy quality requirement")
	}
	if !Quality.AtLeast(Quality) {
		t.Error("a group should satisfy its own requirement")
	}
}

func TestParseGroup(t *testing.T) {
	g, err := ParseGroup("initiator")
	if err != nil || g != Initiator {
		t.Fatalf("ParseGroup(initiator) = %v, %v", g, err)
	}
	if _, err := ParseGroup("bogus"); err == nil {
		t.Error("expected error for unknown group name")
	}
}

func TestRequireGroup(t *testing.T) {
	if err := RequireGroup(Administrator, "route", Initiator); err != nil {
		t.Errorf("administrator should satisfy initiator requirement: %v", err)
	}
	err := RequireGroup(Reviewer, "route", Initiator)
	kind, ok := qmserrors.KindOf(err)
	if !ok || kind != qmserrors.PermissionDenied {
		t.Errorf("kind = %v, ok=%v, want PermissionDenied", kind, ok)
	}
}

func TestRequireAnyGroup(t *testing.T) {
	if err := RequireAnyGroup(Quality, "review", Initiator, Quality, Reviewer); err != nil {
		t.Errorf("quality should be allowed: %v", err)
	}
	if err := RequireAnyGroup(Administrator, "review", Initiator, Quality, Reviewer); err != nil {
		t.Errorf("administrator should always be allowed: %v", err)
	}
	if err := RequireAnyGroup(Reviewer, "assign", Quality); err == nil {
		t.Error("expected PermissionDenied for a group outside the allowed set")
	}
}

func TestIsKnown(t *testing.T) {
	p := &project.Project{Root: t.TempDir()}
	if !IsKnown(p, "admin") {
		t.Error("admin should be known")
	}
	if IsKnown(p, "nobody") {
		t.Error("nobody should not be known")
	}
}
