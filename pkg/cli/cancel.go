package cli

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/whharris917/qms-cli/pkg/identity"
	"github.com/whharris917/qms-cli/pkg/qmserrors"
	"github.com/whharris917/qms-cli/pkg/stringutil"
	"github.com/whharris917/qms-cli/pkg/workflow"
)

// Cancel permanently deletes a never-effective document (version < 1.0)
// and every trace of it: draft, metadata, audit log, workspace copy,
// and matching inbox tasks. Refuses on a version ≥ 1.0 document (use
// retire instead) or while checked out.
func Cancel(c *Context, docID string, confirm bool) error {
	if err := identity.RequireGroup(c.Group, "cancel", identity.Initiator); err != nil {
		return err
	}
	if err := c.LoadDocument(docID); err != nil {
		return err
	}
	if err := c.RequireOwner(); err != nil {
		return err
	}
	if workflow.Major(c.Meta.Version) >= 1 {
		return qmserrors.New(qmserrors.VersionTooHigh, "document %s is at version %s, cancel requires version < 1.0", docID, c.Meta.Version)
	}
	if c.Meta.CheckedOut {
		return qmserrors.New(qmserrors.CheckedOut, "document %s must be checked in before cancelling", docID).
			WithHint("run `checkin` first")
	}
	if !confirm {
		return qmserrors.New(qmserrors.InvalidTransition, "cancel requires --confirm").
			WithHint("re-run with --confirm once you're sure")
	}

	parentID := stringutil.ParentID(docID)
	draftPath := c.Project.DraftPath(containerPath(c.TypeInfo, parentID), docID, parentID, c.TypeInfo.FolderPerDoc)
	effectivePath := c.Project.EffectivePath(containerPath(c.TypeInfo, parentID), docID, parentID, c.TypeInfo.FolderPerDoc)
	removeIfExists(draftPath)
	removeIfExists(effectivePath)
	if c.TypeInfo.FolderPerDoc && parentID == "" {
		removeIfEmpty(c.Project.DocDir(containerPath(c.TypeInfo, parentID), docID, parentID, true))
	}

	removeIfExists(c.Project.MetaPath(c.DocType, docID))
	removeIfExists(c.Project.AuditPath(c.DocType, docID))
	removeIfExists(c.Project.WorkspacePath(c.User, docID))

	return removeMatchingInboxEntries(c, docID)
}

func removeIfExists(path string) {
	_ = os.Remove(path)
}

func removeIfEmpty(dir string) {
	entries, err := os.ReadDir(dir)
	if err == nil && len(entries) == 0 {
		_ = os.Remove(dir)
	}
}

func removeMatchingInboxEntries(c *Context, docID string) error {
	usersDir := filepath.Join(c.Project.Root, ".claude", "users")
	entries, err := os.ReadDir(usersDir)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	prefix := "task-" + docID + "-"
	for _, userEntry := range entries {
		if !userEntry.IsDir() {
			continue
		}
		inbox := c.Project.InboxDir(userEntry.Name())
		files, err := os.ReadDir(inbox)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return err
		}
		for _, f := range files {
			if strings.HasPrefix(f.Name(), prefix) {
				removeIfExists(filepath.Join(inbox, f.Name()))
			}
		}
	}
	return nil
}
