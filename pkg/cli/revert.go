package cli

import (
	"github.com/whharris917/qms-cli/pkg/audit"
	"github.com/whharris917/qms-cli/pkg/identity"
	"github.com/whharris917/qms-cli/pkg/qmserrors"
	"github.com/whharris917/qms-cli/pkg/workflow"
)

// Revert sends a post-release-reviewed executable document back into
// execution, recording the caller's reason.
func Revert(c *Context, docID, reason string) error {
	if err := identity.RequireGroup(c.Group, "revert", identity.Initiator); err != nil {
		return err
	}
	if err := c.LoadDocument(docID); err != nil {
		return err
	}
	if err := c.RequireOwner(); err != nil {
		return err
	}
	if err := c.RequireStatus("POST_REVIEWED"); err != nil {
		return err
	}
	if reason == "" {
		return qmserrors.New(qmserrors.CommentRequired, "revert requires --reason")
	}

	t, err := workflow.Lookup(c.Meta.Status, workflow.ActionRevert, c.TypeInfo.Executable, workflow.PostRelease)
	if err != nil {
		return err
	}

	fromStatus := c.Meta.Status
	next := *c.Meta
	next.Status = t.To
	if err := c.SaveMeta(&next); err != nil {
		return err
	}
	if err := c.Append(audit.Revert(c.User, next.Version, reason)); err != nil {
		return err
	}
	return c.Append(audit.StatusChange(c.User, next.Version, fromStatus, next.Status))
}
