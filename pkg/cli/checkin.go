package cli

import (
	"os"

	"github.com/whharris917/qms-cli/pkg/audit"
	"github.com/whharris917/qms-cli/pkg/docio"
	"github.com/whharris917/qms-cli/pkg/identity"
	"github.com/whharris917/qms-cli/pkg/meta"
	"github.com/whharris917/qms-cli/pkg/stringutil"
)

// Checkin takes the caller's workspace copy, rewrites the QMS draft with
// only the author-maintained fields retained, updates metadata, and
// removes the workspace copy.
func Checkin(c *Context, docID string) error {
	if err := identity.RequireGroup(c.Group, "checkin", identity.Initiator); err != nil {
		return err
	}
	if err := c.LoadDocument(docID); err != nil {
		return err
	}
	if err := c.RequireOwner(); err != nil {
		return err
	}
	if err := c.RequireCheckedOut(); err != nil {
		return err
	}

	workspacePath := c.Project.WorkspacePath(c.User, docID)
	fm, body, err := docio.ReadFile(workspacePath)
	if err != nil {
		return err
	}

	parentID := stringutil.ParentID(docID)
	draftPath := c.Project.DraftPath(containerPath(c.TypeInfo, parentID), docID, parentID, c.TypeInfo.FolderPerDoc)
	if err := docio.WriteMinimal(draftPath, fm, body); err != nil {
		return err
	}

	next := meta.Checkin(c.Meta)
	if err := c.SaveMeta(next); err != nil {
		return err
	}
	if err := c.Append(audit.Checkin(c.User, next.Version)); err != nil {
		return err
	}

	if err := os.Remove(workspacePath); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
