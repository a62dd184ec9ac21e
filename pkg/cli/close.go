package cli

import (
	"os"

	"github.com/whharris917/qms-cli/pkg/audit"
	"github.com/whharris917/qms-cli/pkg/docio"
	"github.com/whharris917/qms-cli/pkg/identity"
	"github.com/whharris917/qms-cli/pkg/stringutil"
	"github.com/whharris917/qms-cli/pkg/workflow"
)

// Close finalizes a post-approved executable document: writes the
// effective file, deletes the draft, and clears ownership.
func Close(c *Context, docID string) error {
	if err := identity.RequireGroup(c.Group, "close", identity.Initiator); err != nil {
		return err
	}
	if err := c.LoadDocument(docID); err != nil {
		return err
	}
	if err := c.RequireOwner(); err != nil {
		return err
	}
	if err := c.RequireStatus("POST_APPROVED"); err != nil {
		return err
	}

	t, err := workflow.Lookup(c.Meta.Status, workflow.ActionClose, c.TypeInfo.Executable, workflow.PostRelease)
	if err != nil {
		return err
	}

	parentID := stringutil.ParentID(docID)
	draftPath := c.Project.DraftPath(containerPath(c.TypeInfo, parentID), docID, parentID, c.TypeInfo.FolderPerDoc)
	effectivePath := c.Project.EffectivePath(containerPath(c.TypeInfo, parentID), docID, parentID, c.TypeInfo.FolderPerDoc)

	fm, body, err := docio.ReadFile(draftPath)
	if err != nil {
		return err
	}
	if err := docio.WriteMinimal(effectivePath, fm, body); err != nil {
		return err
	}
	if err := os.Remove(draftPath); err != nil && !os.IsNotExist(err) {
		return err
	}

	fromStatus := c.Meta.Status
	next := *c.Meta
	next.Status = t.To
	next.ResponsibleUser = ""
	next.CheckedOut = false
	next.CheckedOutDate = ""
	if err := c.SaveMeta(&next); err != nil {
		return err
	}
	if err := c.Append(audit.Close(c.User, next.Version)); err != nil {
		return err
	}
	return c.Append(audit.StatusChange(c.User, next.Version, fromStatus, next.Status))
}
