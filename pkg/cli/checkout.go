package cli

import (
	"os"
	"path/filepath"

	"github.com/whharris917/qms-cli/pkg/audit"
	"github.com/whharris917/qms-cli/pkg/docio"
	"github.com/whharris917/qms-cli/pkg/identity"
	"github.com/whharris917/qms-cli/pkg/meta"
	"github.com/whharris917/qms-cli/pkg/qmserrors"
	"github.com/whharris917/qms-cli/pkg/stringutil"
	"github.com/whharris917/qms-cli/pkg/workflow"
)

// Checkout opens a document for editing. From EFFECTIVE it archives the
// effective file and starts a new minor draft at {major}.1; from an
// existing draft it simply claims ownership (refusing if someone else
// already owns it) and copies it into the caller's workspace.
func Checkout(c *Context, docID string) error {
	if err := identity.RequireGroup(c.Group, "checkout", identity.Initiator); err != nil {
		return err
	}
	if err := c.LoadDocument(docID); err != nil {
		return err
	}

	m := c.Meta
	parentID := stringutil.ParentID(docID)

	if m.Status == "EFFECTIVE" {
		effectivePath := c.Project.EffectivePath(containerPath(c.TypeInfo, parentID), docID, parentID, c.TypeInfo.FolderPerDoc)
		archivePath := c.Project.ArchivePath(containerPath(c.TypeInfo, parentID), parentID, docID, m.Version)
		if err := copyFile(effectivePath, archivePath); err != nil {
			return err
		}

		newVersion := workflow.IncrementMinor(m.Version)
		draftPath := c.Project.DraftPath(containerPath(c.TypeInfo, parentID), docID, parentID, c.TypeInfo.FolderPerDoc)
		fm, body, err := docio.ReadFile(effectivePath)
		if err != nil {
			return err
		}
		if err := docio.WriteMinimal(draftPath, fm, body); err != nil {
			return err
		}
		if err := docio.WriteFile(c.Project.WorkspacePath(c.User, docID), fm, body); err != nil {
			return err
		}
		if _, err := os.Stat(effectivePath); err == nil {
			if err := os.Remove(effectivePath); err != nil {
				return err
			}
		}

		next := meta.Checkout(m, c.User, newVersion, today())
		next.Status = "DRAFT"
		if err := c.SaveMeta(next); err != nil {
			return err
		}
		return c.Append(audit.Checkout(c.User, next.Version, m.Version))
	}

	if !meta.CanUserModify(m, c.User) {
		return qmserrors.New(qmserrors.OwnershipDenied, "document %s is checked out by %s", docID, m.ResponsibleUser)
	}

	draftPath := c.Project.DraftPath(containerPath(c.TypeInfo, parentID), docID, parentID, c.TypeInfo.FolderPerDoc)
	fm, body, err := docio.ReadFile(draftPath)
	if err != nil {
		return err
	}
	if err := docio.WriteFile(c.Project.WorkspacePath(c.User, docID), fm, body); err != nil {
		return err
	}

	next := meta.Checkout(m, c.User, "", today())
	if err := c.SaveMeta(next); err != nil {
		return err
	}
	return c.Append(audit.Checkout(c.User, next.Version, ""))
}

func copyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	return os.WriteFile(dst, data, 0o644)
}
