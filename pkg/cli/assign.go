package cli

import (
	"github.com/whharris917/qms-cli/pkg/audit"
	"github.com/whharris917/qms-cli/pkg/identity"
	"github.com/whharris917/qms-cli/pkg/qmserrors"
	"github.com/whharris917/qms-cli/pkg/sliceutil"
	"github.com/whharris917/qms-cli/pkg/tasks"
)

var activeReviewOrApprovalStatuses = map[string]bool{
	"IN_REVIEW": true, "IN_PRE_REVIEW": true, "IN_POST_REVIEW": true,
	"IN_APPROVAL": true, "IN_PRE_APPROVAL": true, "IN_POST_APPROVAL": true,
}

// Assign adds users to a document's pending-assignee set mid-workflow
// and generates matching tasks for them; quality-group only.
func Assign(c *Context, docID string, users []string) error {
	if err := identity.RequireGroup(c.Group, "assign", identity.Quality); err != nil {
		return err
	}
	if err := c.LoadDocument(docID); err != nil {
		return err
	}
	if !activeReviewOrApprovalStatuses[c.Meta.Status] {
		return qmserrors.New(qmserrors.InvalidTransition, "document %s is %s, not in a review or approval state", docID, c.Meta.Status)
	}
	for _, u := range users {
		if !identity.IsKnown(c.Project, u) {
			return qmserrors.New(qmserrors.InvalidAssignee, "unknown user %s", u)
		}
	}

	merged := append([]string{}, c.Meta.PendingAssignees...)
	for _, u := range users {
		if !sliceutil.Contains(merged, u) {
			merged = append(merged, u)
		}
	}

	next := *c.Meta
	next.PendingAssignees = merged
	if err := c.SaveMeta(&next); err != nil {
		return err
	}
	if err := c.Append(audit.Assign(c.User, next.Version, users)); err != nil {
		return err
	}

	taskType, workflowType := taskKindFor(next.Status)
	cache := tasks.NewConfigCache(c.Project.Root)
	return tasks.Generate(c.Project, cache, taskType, workflowType, c.DocType, docID, c.User, dateStr(today()), next.Version, users, "")
}

func taskKindFor(status string) (tasks.TaskType, string) {
	switch status {
	case "IN_REVIEW":
		return tasks.TaskReview, "REVIEW"
	case "IN_PRE_REVIEW":
		return tasks.TaskReview, "PRE_REVIEW"
	case "IN_POST_REVIEW":
		return tasks.TaskReview, "POST_REVIEW"
	case "IN_APPROVAL":
		return tasks.TaskApproval, "APPROVAL"
	case "IN_PRE_APPROVAL":
		return tasks.TaskApproval, "PRE_APPROVAL"
	default:
		return tasks.TaskApproval, "POST_APPROVAL"
	}
}
