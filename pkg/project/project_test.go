package project

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/whharris917/qms-cli/pkg/qmserrors"
)

func TestDiscoverByConfigFile(t *testing.T) {
	root := t.TempDir()
	mustWrite(t, filepath.Join(root, ConfigFileName), "{}")

	sub := filepath.Join(root, "a", "b", "c")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatal(err)
	}

	p, err := Discover(sub)
	if err != nil {
		t.Fatal(err)
	}
	if p.Root != root {
		t.Errorf("Root = %q, want %q", p.Root, root)
	}
}

func TestDiscoverByQMSDirFallback(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, qmsDirName), 0o755); err != nil {
		t.Fatal(err)
	}

	p, err := Discover(root)
	if err != nil {
		t.Fatal(err)
	}
	if p.Root != root {
		t.Errorf("Root = %q, want %q", p.Root, root)
	}
}

func TestDiscoverUninitialized(t *testing.T) {
	dir := t.TempDir()
	_, err := Discover(dir)
	if err == nil {
		t.Fatal("expected error for directory with no project markers")
	}
	kind, ok := qmserrors.KindOf(err)
	if !ok || kind != qmserrors.UninitializedProject {
		t.Errorf("kind = %v, ok=%v, want UninitializedProject", kind, ok)
	}
}

func TestDocDirNestedChildSharesParentFolder(t *testing.T) {
	p := &Project{Root: "/proj"}

	flat := p.DocDir("SOP", "SOP-001", "", false)
	if flat != p.TypeDir("SOP") {
		t.Errorf("flat DocDir = %q, want %q", flat, p.TypeDir("SOP"))
	}

	top := p.DocDir("CR", "CR-001", "", true)
	if top != filepath.Join(p.TypeDir("CR"), "CR-001") {
		t.Errorf("top-level DocDir = %q", top)
	}

	nested := p.DocDir("CR", "CR-001-TP-001", "CR-001", true)
	if nested != top {
		t.Errorf("nested DocDir = %q, want it to equal parent's DocDir %q", nested, top)
	}
}

func TestArchivePathEncodesVersion(t *testing.T) {
	p := &Project{Root: "/proj"}
	got := p.ArchivePath("SOP", "", "SOP-001", "1.0")
	want := filepath.Join(p.ArchiveDir("SOP", ""), "SOP-001-v1.0.md")
	if got != want {
		t.Errorf("ArchivePath = %q, want %q", got, want)
	}
}

func TestTaskFileNameDashesVersion(t *testing.T) {
	got := TaskFileName("SOP-001", "REVIEW", "1.2")
	want := "task-SOP-001-review-v1-2.md"
	if got != want {
		t.Errorf("TaskFileName = %q, want %q", got, want)
	}
}

func mustWrite(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}
