package cli

import (
	"testing"

	"github.com/whharris917/qms-cli/pkg/registry"
)

func TestContainerPath(t *testing.T) {
	cr := registry.TypeInfo{Path: "CR", FolderPerDoc: true}
	flat := registry.TypeInfo{Path: "SOP", FolderPerDoc: false}

	tests := []struct {
		name   string
		info   registry.TypeInfo
		rootID string
		want   string
	}{
		{"flat type ignores rootID", flat, "", "SOP"},
		{"top-level CR has no root", cr, "", "CR"},
		{"TP rooted under CR", cr, "CR-014", "CR"},
		{"VAR rooted under INV", cr, "INV-003", "INV"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := containerPath(tt.info, tt.rootID); got != tt.want {
				t.Errorf("containerPath(%+v, %q) = %q, want %q", tt.info, tt.rootID, got, tt.want)
			}
		})
	}
}
