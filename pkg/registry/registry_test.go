package registry

import (
	"testing"

	"github.com/whharris917/qms-cli/pkg/project"
)

func TestLoadBaseTypes(t *testing.T) {
	p := &project.Project{Root: t.TempDir()}
	r, err := Load(p)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	sop, ok := r.Lookup("SOP")
	if !ok || sop.Executable || sop.FolderPerDoc {
		t.Fatalf("SOP registry entry wrong: %+v ok=%v", sop, ok)
	}

	cr, ok := r.Lookup("CR")
	if !ok || !cr.Executable || !cr.FolderPerDoc {
		t.Fatalf("CR registry entry wrong: %+v ok=%v", cr, ok)
	}

	if _, ok := r.Lookup("NOPE"); ok {
		t.Fatal("expected unknown type to be absent")
	}
}

func TestAddNamespace(t *testing.T) {
	p := &project.Project{Root: t.TempDir()}
	r, err := Load(p)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if err := r.AddNamespace(p, "ACME"); err != nil {
		t.Fatalf("AddNamespace: %v", err)
	}

	rs, ok := r.Lookup("ACME-RS")
	if !ok || rs.Path != "SDLC-ACME" || !rs.Singleton {
		t.Fatalf("ACME-RS registry entry wrong: %+v ok=%v", rs, ok)
	}

	if err := r.AddNamespace(p, "ACME"); err == nil {
		t.Fatal("expected duplicate namespace registration to fail")
	}

	// reload from disk should pick up the persisted namespace
	r2, err := Load(p)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if _, ok := r2.Lookup("ACME-RTM"); !ok {
		t.Fatal("expected ACME-RTM to survive reload")
	}
}
