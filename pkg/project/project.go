// Package project resolves the QMS project root and computes every
// canonical path the rest of the system reads or writes. Nothing outside
// this package should concatenate a QMS path by hand; callers construct a
// *Project once and thread it through (per the design notes' "pass the
// root explicitly" guidance).
package project

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/whharris917/qms-cli/pkg/constants"
	"github.com/whharris917/qms-cli/pkg/logger"
	"github.com/whharris917/qms-cli/pkg/qmserrors"
)

var log = logger.New("project:paths")

// ConfigFileName is the project marker file — its presence at a directory
// defines that directory as the project root.
const ConfigFileName = "qms.config.json"

// qmsDirName is the fallback marker used when no config file is present
// (e.g. a tree migrated from an older layout).
const qmsDirName = constants.RootDirName

// Project is an immutable handle on a discovered QMS project root. All
// path-computing methods are pure functions of the root and their
// arguments.
type Project struct {
	Root string
}

// Discover walks from dir upward looking first for qms.config.json, then
// for a bare QMS/ directory. It returns UninitializedProject if neither is
// found before reaching the filesystem root.
func Discover(dir string) (*Project, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, qmserrors.Wrap(qmserrors.UninitializedProject, err, "resolve working directory")
	}

	if root, ok := walkUp(abs, func(d string) bool {
		_, err := os.Stat(filepath.Join(d, ConfigFileName))
		return err == nil
	}); ok {
		log.Printf("discovered project root via %s: %s", ConfigFileName, root)
		return &Project{Root: root}, nil
	}

	if root, ok := walkUp(abs, func(d string) bool {
		info, err := os.Stat(filepath.Join(d, qmsDirName))
		return err == nil && info.IsDir()
	}); ok {
		log.Printf("discovered project root via %s/: %s", qmsDirName, root)
		return &Project{Root: root}, nil
	}

	return nil, qmserrors.New(qmserrors.UninitializedProject, "no QMS project found in %s or any parent directory", abs).
		WithHint("run `qms init` to bootstrap a project here")
}

func walkUp(start string, found func(string) bool) (string, bool) {
	dir := start
	for {
		if found(dir) {
			return dir, true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}

// ConfigPath is the project marker file.
func (p *Project) ConfigPath() string {
	return filepath.Join(p.Root, ConfigFileName)
}

// QMSDir is the root of all document storage.
func (p *Project) QMSDir() string {
	return filepath.Join(p.Root, qmsDirName)
}

// TypeDir is the storage directory for a document type with the given
// registry path (e.g. "SOP", "SDLC-ACME").
func (p *Project) TypeDir(typePath string) string {
	return filepath.Join(p.QMSDir(), typePath)
}

// DocDir is the directory a document's own files live in. For
// folder-per-doc top-level types (CR, INV) this is a subdirectory named
// after the document itself; for their nested children (TP, ER, VAR)
// it is the same subdirectory as the owning parentID, per the "child
// documents stored inside the parent's folder" layout rule. For flat
// types it is just TypeDir. parentID is "" for top-level documents.
func (p *Project) DocDir(typePath, docID, parentID string, folderPerDoc bool) string {
	if !folderPerDoc {
		return p.TypeDir(typePath)
	}
	container := docID
	if parentID != "" {
		container = parentID
	}
	return filepath.Join(p.TypeDir(typePath), container)
}

// EffectivePath is the canonical location of a document's effective file.
func (p *Project) EffectivePath(typePath, docID, parentID string, folderPerDoc bool) string {
	return filepath.Join(p.DocDir(typePath, docID, parentID, folderPerDoc), docID+".md")
}

// DraftPath is the canonical location of a document's draft file.
func (p *Project) DraftPath(typePath, docID, parentID string, folderPerDoc bool) string {
	return filepath.Join(p.DocDir(typePath, docID, parentID, folderPerDoc), docID+"-draft.md")
}

// ArchiveDir is where retired/superseded versions of a document are kept.
// parentID is empty for top-level documents, or the owning CR/INV ID for
// nested child documents (TP, ER, VAR).
func (p *Project) ArchiveDir(typePath, parentID string) string {
	if parentID != "" {
		return filepath.Join(p.QMSDir(), ".archive", typePath, parentID)
	}
	return filepath.Join(p.QMSDir(), ".archive", typePath)
}

// ArchivePath is the path an outgoing version is copied to before being
// superseded.
func (p *Project) ArchivePath(typePath, parentID, docID, version string) string {
	return filepath.Join(p.ArchiveDir(typePath, parentID), docID+"-v"+version+".md")
}

// MetaPath is the metadata JSON file for a document.
func (p *Project) MetaPath(docType, docID string) string {
	return filepath.Join(p.QMSDir(), ".meta", docType, docID+".json")
}

// AuditPath is the append-only JSONL audit log for a document.
func (p *Project) AuditPath(docType, docID string) string {
	return filepath.Join(p.QMSDir(), ".audit", docType, docID+".jsonl")
}

// NamespaceConfigPath is the persisted store of custom SDLC namespaces.
func (p *Project) NamespaceConfigPath() string {
	return filepath.Join(p.QMSDir(), ".meta", "sdlc_namespaces.json")
}

// AgentFilePath is the per-user identity/group record.
func (p *Project) AgentFilePath(user string) string {
	return filepath.Join(p.Root, ".claude", "agents", user+".md")
}

// WorkspacePath is a user's private writable copy of a checked-out
// document.
func (p *Project) WorkspacePath(user, docID string) string {
	return filepath.Join(p.Root, ".claude", "users", user, "workspace", docID+".md")
}

// WorkspaceDir is a user's workspace directory, used for listing.
func (p *Project) WorkspaceDir(user string) string {
	return filepath.Join(p.Root, ".claude", "users", user, "workspace")
}

// InboxDir is a user's task inbox directory, used for listing.
func (p *Project) InboxDir(user string) string {
	return filepath.Join(p.Root, ".claude", "users", user, "inbox")
}

// TaskFileName encodes docID, workflow type, and version into a task
// filename, dashing the version's dot so it stays a single path segment.
func TaskFileName(docID, workflowType, version string) string {
	return "task-" + docID + "-" + strings.ToLower(workflowType) + "-v" + strings.ReplaceAll(version, ".", "-") + ".md"
}

// TaskPath is the full path to a specific task file in user's inbox.
func (p *Project) TaskPath(user, docID, workflowType, version string) string {
	return filepath.Join(p.InboxDir(user), TaskFileName(docID, workflowType, version))
}
