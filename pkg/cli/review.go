package cli

import (
	"github.com/whharris917/qms-cli/pkg/audit"
	"github.com/whharris917/qms-cli/pkg/identity"
	"github.com/whharris917/qms-cli/pkg/meta"
	"github.com/whharris917/qms-cli/pkg/qmserrors"
	"github.com/whharris917/qms-cli/pkg/tasks"
	"github.com/whharris917/qms-cli/pkg/workflow"
)

const (
	OutcomeRecommend       = "RECOMMEND"
	OutcomeUpdatesRequired = "UPDATES_REQUIRED"
)

// Review records the caller's outcome and comment as the REVIEW audit
// event — the only place comments live — removes them from the pending
// set, and fires the completion transition if they were the last
// pending reviewer. The caller's own task file for this doc is always
// deleted, whether or not they were the last to submit.
func Review(c *Context, docID, outcome, comment string) error {
	if err := identity.RequireAnyGroup(c.Group, "review", identity.Initiator, identity.Quality, identity.Reviewer); err != nil {
		return err
	}
	if err := c.LoadDocument(docID); err != nil {
		return err
	}
	if err := c.RequireAssigned(); err != nil {
		return err
	}
	if outcome != OutcomeRecommend && outcome != OutcomeUpdatesRequired {
		return qmserrors.New(qmserrors.CommentRequired, "--outcome must be %s or %s", OutcomeRecommend, OutcomeUpdatesRequired)
	}

	phase := workflow.InferPhase(c.Meta.Status)
	if c.Meta.ExecutionPhase != "" {
		phase = workflow.Phase(c.Meta.ExecutionPhase)
	}
	t, err := workflow.Lookup(c.Meta.Status, workflow.ActionReview, c.TypeInfo.Executable, phase)
	if err != nil {
		return err
	}

	newStatus := ""
	isLast := len(c.Meta.PendingAssignees) == 1 && c.Meta.PendingAssignees[0] == c.User
	if isLast {
		newStatus = t.To
	}

	fromStatus := c.Meta.Status
	next := meta.ReviewComplete(c.Meta, c.User, newStatus, outcome)
	if err := c.SaveMeta(next); err != nil {
		return err
	}
	if err := c.Append(audit.Review(c.User, next.Version, outcome, comment)); err != nil {
		return err
	}
	if isLast {
		if err := c.Append(audit.StatusChange(c.User, next.Version, fromStatus, newStatus)); err != nil {
			return err
		}
	}

	return tasks.DeleteForUser(c.Project, c.User, docID)
}
