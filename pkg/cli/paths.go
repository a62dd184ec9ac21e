package cli

import (
	"github.com/whharris917/qms-cli/pkg/registry"
	"github.com/whharris917/qms-cli/pkg/stringutil"
)

// containerPath resolves the actual QMS/ subdirectory a folder-per-doc
// document's files live under. For flat CR/INV documents rootID is
// empty and this is just the registered Path. For nested TP/ER/VAR
// documents the registry's static Path can't tell CR-rooted and
// INV-rooted children apart (VAR nests under either), so this instead
// infers it from rootID itself, which is always a bare "CR-NNN" or
// "INV-NNN" id.
func containerPath(info registry.TypeInfo, rootID string) string {
	if !info.FolderPerDoc || rootID == "" {
		return info.Path
	}
	if t, ok := stringutil.InferDocType(rootID); ok {
		return t
	}
	return info.Path
}
