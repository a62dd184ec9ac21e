package cli

import (
	"github.com/whharris917/qms-cli/pkg/audit"
	"github.com/whharris917/qms-cli/pkg/identity"
	"github.com/whharris917/qms-cli/pkg/meta"
	"github.com/whharris917/qms-cli/pkg/qmserrors"
	"github.com/whharris917/qms-cli/pkg/tasks"
	"github.com/whharris917/qms-cli/pkg/workflow"
)

// Reject reverses an approval cycle back to the corresponding REVIEWED
// status, clearing pending assignees and every open approval task for
// the document across all inboxes. A comment is mandatory.
func Reject(c *Context, docID, comment string) error {
	if err := identity.RequireAnyGroup(c.Group, "reject", identity.Quality, identity.Reviewer); err != nil {
		return err
	}
	if err := c.LoadDocument(docID); err != nil {
		return err
	}
	if err := c.RequireAssigned(); err != nil {
		return err
	}
	if comment == "" {
		return qmserrors.New(qmserrors.CommentRequired, "reject requires --comment")
	}

	phase := workflow.InferPhase(c.Meta.Status)
	if c.Meta.ExecutionPhase != "" {
		phase = workflow.Phase(c.Meta.ExecutionPhase)
	}
	t, err := workflow.Lookup(c.Meta.Status, workflow.ActionReject, c.TypeInfo.Executable, phase)
	if err != nil {
		return err
	}

	fromStatus := c.Meta.Status
	pending := append([]string{}, c.Meta.PendingAssignees...)
	next := meta.Reject(c.Meta, t.To)
	if err := c.SaveMeta(next); err != nil {
		return err
	}
	if err := c.Append(audit.Reject(c.User, next.Version, comment)); err != nil {
		return err
	}
	if err := c.Append(audit.StatusChange(c.User, next.Version, fromStatus, t.To)); err != nil {
		return err
	}

	return tasks.DeleteAllApprovalTasks(c.Project, pending, docID)
}
