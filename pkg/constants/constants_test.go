package constants

import "testing"

func TestHardcodedAdminsContainsKnownRoots(t *testing.T) {
	want := map[string]bool{"lead": true, "admin": true}
	got := make(map[string]bool, len(HardcodedAdmins))
	for _, u := range HardcodedAdmins {
		got[u] = true
	}
	if len(got) != len(want) {
		t.Fatalf("HardcodedAdmins = %v, want exactly %v", HardcodedAdmins, want)
	}
	for u := range want {
		if !got[u] {
			t.Errorf("HardcodedAdmins missing %q", u)
		}
	}
}

func TestRootDirNameMatchesDefaultNamespace(t *testing.T) {
	// The storage root directory and the namespace every project gets
	// for free are the same literal by convention; a mismatch here would
	// mean QMS/ and the "QMS" namespace silently diverged.
	if RootDirName != DefaultNamespace {
		t.Errorf("RootDirName = %q, DefaultNamespace = %q, want equal", RootDirName, DefaultNamespace)
	}
}
