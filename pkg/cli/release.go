package cli

import (
	"github.com/whharris917/qms-cli/pkg/audit"
	"github.com/whharris917/qms-cli/pkg/identity"
	"github.com/whharris917/qms-cli/pkg/workflow"
)

// Release moves an approved pre-execution document into IN_EXECUTION
// and flips its execution phase to post_release, a one-way transition.
func Release(c *Context, docID string) error {
	if err := identity.RequireGroup(c.Group, "release", identity.Initiator); err != nil {
		return err
	}
	if err := c.LoadDocument(docID); err != nil {
		return err
	}
	if err := c.RequireOwner(); err != nil {
		return err
	}
	if err := c.RequireStatus("PRE_APPROVED"); err != nil {
		return err
	}

	t, err := workflow.Lookup(c.Meta.Status, workflow.ActionRelease, c.TypeInfo.Executable, workflow.PreRelease)
	if err != nil {
		return err
	}

	fromStatus := c.Meta.Status
	next := *c.Meta
	next.Status = t.To
	next.ExecutionPhase = string(workflow.PostRelease)
	if err := c.SaveMeta(&next); err != nil {
		return err
	}
	if err := c.Append(audit.Release(c.User, next.Version)); err != nil {
		return err
	}
	return c.Append(audit.StatusChange(c.User, next.Version, fromStatus, next.Status))
}
