package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/whharris917/qms-cli/pkg/registry"
)

type fakeProjectPaths struct {
	root string
}

func (f fakeProjectPaths) TypeDir(typePath string) string {
	return filepath.Join(f.root, typePath)
}

func TestAllocateIDFlat(t *testing.T) {
	p := fakeProjectPaths{root: t.TempDir()}
	info := registry.TypeInfo{DocType: "CR", Path: "CR", Prefix: "CR", FolderPerDoc: true}

	mustMkdir(t, filepath.Join(p.TypeDir(info.Path), "CR-001"))
	mustMkdir(t, filepath.Join(p.TypeDir(info.Path), "CR-002"))

	got, err := allocateID(p, info, "", "")
	if err != nil {
		t.Fatal(err)
	}
	if got != "CR-003" {
		t.Errorf("allocateID = %q, want CR-003", got)
	}
}

func TestAllocateIDNestedUnderCR(t *testing.T) {
	p := fakeProjectPaths{root: t.TempDir()}
	tpInfo := registry.TypeInfo{DocType: "TP", Path: "CR", Prefix: "TP", FolderPerDoc: true, ParentType: "CR"}

	container := filepath.Join(p.TypeDir("CR"), "CR-014")
	mustMkdir(t, container)
	mustTouch(t, filepath.Join(container, "CR-014-TP-001.md"))

	got, err := allocateID(p, tpInfo, "CR-014", "")
	if err != nil {
		t.Fatal(err)
	}
	if got != "CR-014-TP-002" {
		t.Errorf("allocateID = %q, want CR-014-TP-002", got)
	}
}

func TestAllocateIDNestedTwoLevelsSharesRootFolder(t *testing.T) {
	p := fakeProjectPaths{root: t.TempDir()}
	erInfo := registry.TypeInfo{DocType: "ER", Path: "CR", Prefix: "ER", FolderPerDoc: true, ParentType: "TP"}

	// ER documents under a TP share the TP's own root CR folder, not a
	// subfolder named after the full TP id.
	container := filepath.Join(p.TypeDir("CR"), "CR-014")
	mustMkdir(t, container)
	mustTouch(t, filepath.Join(container, "CR-014-TP-001-ER-001.md"))

	got, err := allocateID(p, erInfo, "CR-014-TP-001", "")
	if err != nil {
		t.Fatal(err)
	}
	if got != "CR-014-TP-001-ER-002" {
		t.Errorf("allocateID = %q, want CR-014-TP-001-ER-002", got)
	}
}

func TestAllocateIDVarUnderINV(t *testing.T) {
	p := fakeProjectPaths{root: t.TempDir()}
	varInfo := registry.TypeInfo{DocType: "VAR", Path: "CR", Prefix: "VAR", FolderPerDoc: true, ParentType: "CR/INV"}

	// A VAR rooted under an investigation must land under QMS/INV/, not
	// the registry's static (CR-only) path.
	container := filepath.Join(p.TypeDir("INV"), "INV-003")
	mustMkdir(t, container)

	got, err := allocateID(p, varInfo, "INV-003", "")
	if err != nil {
		t.Fatal(err)
	}
	if got != "INV-003-VAR-001" {
		t.Errorf("allocateID = %q, want INV-003-VAR-001", got)
	}
}

func mustMkdir(t *testing.T, dir string) {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
}

func mustTouch(t *testing.T, path string) {
	t.Helper()
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
}
