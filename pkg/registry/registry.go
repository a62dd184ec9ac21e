// Package registry declares the set of known document types: their
// storage layout, executability, ID prefix, and (for SDLC types) the
// namespace they belong to. The registry is built once at startup by
// merging the static base set with the persisted dynamic namespace
// overlay, then passed explicitly — there is no package-level mutable
// registry.
package registry

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/whharris917/qms-cli/pkg/constants"
	"github.com/whharris917/qms-cli/pkg/project"
	"github.com/whharris917/qms-cli/pkg/qmserrors"
)

// TypeInfo describes one document type's storage and identity rules.
type TypeInfo struct {
	// DocType is the registry key (e.g. "SOP", "TP", "ACME-RS").
	DocType string
	// Path is the subdirectory under QMS/ this type's files live in.
	Path string
	// Executable marks types that pass through IN_EXECUTION.
	Executable bool
	// Prefix is the ID prefix used for generation/inference ("SOP", "CR").
	Prefix string
	// FolderPerDoc marks types stored one-subdirectory-per-document (CR, INV).
	FolderPerDoc bool
	// Singleton marks types with exactly one possible document ID (SDLC RS/RTM).
	Singleton bool
	// ParentType is non-empty for nested child document types (TP, ER,
	// VAR), marking that create requires --parent. It names the typical
	// owning type for documentation purposes only; the actual storage
	// container is resolved at runtime from the parent id itself (see
	// containerPath in pkg/cli), since VAR roots under either CR or INV.
	ParentType string
}

// Registry is the merged, queryable set of document types for one
// project. Construct with Load, never by hand.
type Registry struct {
	types      map[string]TypeInfo
	namespaces []string
}

// baseTypes is the static part of the registry — always present,
// independent of any project's persisted configuration.
var baseTypes = []TypeInfo{
	{DocType: "SOP", Path: "SOP", Executable: false, Prefix: "SOP"},
	{DocType: "CR", Path: "CR", Executable: true, Prefix: "CR", FolderPerDoc: true},
	{DocType: "INV", Path: "INV", Executable: true, Prefix: "INV", FolderPerDoc: true},
	{DocType: "TP", Path: "CR", Executable: false, Prefix: "TP", FolderPerDoc: true, ParentType: "CR"},
	{DocType: "ER", Path: "CR", Executable: false, Prefix: "ER", FolderPerDoc: true, ParentType: "TP"},
	{DocType: "VAR", Path: "CR", Executable: false, Prefix: "VAR", FolderPerDoc: true, ParentType: "CR/INV"},
	{DocType: "TEMPLATE", Path: "TEMPLATE", Executable: false, Prefix: "TEMPLATE"},
}

// builtinNamespaces are SDLC namespaces registered without needing a
// `namespace add` call.
var builtinNamespaces = []string{constants.DefaultNamespace}

// namespaceFile is the on-disk shape of the persisted namespace overlay:
// a map of namespace name to its (currently only) path field.
type namespaceFile map[string]struct {
	Path string `json:"path"`
}

// Load builds a Registry for the given project, merging the static base
// set with any namespaces persisted in sdlc_namespaces.json. A missing or
// unreadable overlay file is treated as "no custom namespaces" rather
// than an error — the registry always has at least the built-ins.
func Load(p *project.Project) (*Registry, error) {
	r := &Registry{types: make(map[string]TypeInfo)}
	for _, t := range baseTypes {
		r.types[t.DocType] = t
	}

	namespaces := append([]string{}, builtinNamespaces...)
	if data, err := os.ReadFile(p.NamespaceConfigPath()); err == nil {
		var persisted namespaceFile
		if json.Unmarshal(data, &persisted) == nil {
			for name := range persisted {
				namespaces = append(namespaces, name)
			}
		}
	}

	for _, ns := range namespaces {
		r.addNamespace(ns)
	}
	r.namespaces = namespaces
	return r, nil
}

func (r *Registry) addNamespace(ns string) {
	for _, suffix := range []string{"RS", "RTM"} {
		docType := ns + "-" + suffix
		r.types[docType] = TypeInfo{
			DocType:    docType,
			Path:       "SDLC-" + ns,
			Executable: false,
			Prefix:     "SDLC-" + ns + "-" + suffix,
			Singleton:  true,
		}
	}
}

// Lookup returns the TypeInfo for a known document type.
func (r *Registry) Lookup(docType string) (TypeInfo, bool) {
	t, ok := r.types[docType]
	return t, ok
}

// Namespaces returns all registered SDLC namespace names (built-in plus
// persisted), in no particular order.
func (r *Registry) Namespaces() []string {
	return append([]string{}, r.namespaces...)
}

// AddNamespace registers a new SDLC namespace in memory and persists it
// (merged over the built-ins, which are never written back out).
func (r *Registry) AddNamespace(p *project.Project, name string) error {
	if _, exists := r.types[name+"-RS"]; exists {
		return alreadyRegistered(name)
	}
	r.addNamespace(name)
	r.namespaces = append(r.namespaces, name)
	return r.persist(p)
}

func (r *Registry) persist(p *project.Project) error {
	custom := make(namespaceFile)
	for _, ns := range r.namespaces {
		if isBuiltin(ns) {
			continue
		}
		custom[ns] = struct {
			Path string `json:"path"`
		}{Path: "SDLC-" + ns}
	}

	data, err := json.MarshalIndent(custom, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Join(p.QMSDir(), ".meta"), 0o755); err != nil {
		return err
	}
	return os.WriteFile(p.NamespaceConfigPath(), data, 0o644)
}

func alreadyRegistered(name string) error {
	return qmserrors.New(qmserrors.DocumentAlreadyExists, "namespace %q already registered", name)
}

func isBuiltin(ns string) bool {
	for _, b := range builtinNamespaces {
		if b == ns {
			return true
		}
	}
	return false
}
