package cli

import (
	"github.com/google/uuid"

	"github.com/whharris917/qms-cli/pkg/audit"
	"github.com/whharris917/qms-cli/pkg/identity"
	"github.com/whharris917/qms-cli/pkg/meta"
	"github.com/whharris917/qms-cli/pkg/qmserrors"
	"github.com/whharris917/qms-cli/pkg/tasks"
	"github.com/whharris917/qms-cli/pkg/workflow"
)

// RouteOptions carries the flags a `route` invocation supplies.
type RouteOptions struct {
	Review    bool
	Approval  bool
	Assignees []string
	Retire    bool
}

// Route advances a checked-in document into a review or approval cycle,
// refusing if the caller doesn't own it, if it is checked out, or — for
// an approval route — if the most recently completed review did not
// recommend it.
func Route(c *Context, docID string, opt RouteOptions) error {
	if err := identity.RequireGroup(c.Group, "route", identity.Initiator); err != nil {
		return err
	}
	if err := c.LoadDocument(docID); err != nil {
		return err
	}
	if err := c.RequireOwner(); err != nil {
		return err
	}
	if err := c.RequireCheckedIn(); err != nil {
		return err
	}
	if len(opt.Assignees) == 0 {
		return qmserrors.New(qmserrors.InvalidAssignee, "route requires at least one --assignees user")
	}
	for _, u := range opt.Assignees {
		if !identity.IsKnown(c.Project, u) {
			return qmserrors.New(qmserrors.InvalidAssignee, "unknown user %s", u)
		}
	}

	m := c.Meta
	phase := workflow.InferPhase(m.Status)
	if m.ExecutionPhase != "" {
		phase = workflow.Phase(m.ExecutionPhase)
	}

	var action workflow.Action
	var workflowType string
	switch {
	case opt.Review:
		action = workflow.ActionRouteReview
		workflowType = reviewWorkflowType(m.Status, c.TypeInfo.Executable, phase)
	case opt.Approval:
		if m.LastReviewOutcome != "RECOMMEND" {
			return qmserrors.New(qmserrors.ApprovalGateClosed,
				"document %s cannot be routed to approval: last review outcome was %q", docID, m.LastReviewOutcome).
				WithHint("route for review again and obtain a RECOMMEND outcome first")
		}
		action = workflow.ActionRouteApproval
		workflowType = approvalWorkflowType(m.Status)
	default:
		return qmserrors.New(qmserrors.InvalidTransition, "route requires --review or --approval")
	}

	t, err := workflow.Lookup(m.Status, action, c.TypeInfo.Executable, phase)
	if err != nil {
		return err
	}

	if opt.Retire && opt.Approval {
		if err := workflow.RetirementPrecondition(m.Version); err != nil {
			return err
		}
	}

	next := meta.Route(m, t.To, opt.Assignees)
	if opt.Retire && opt.Approval {
		next.Retiring = true
	}
	if err := c.SaveMeta(next); err != nil {
		return err
	}

	if err := c.Append(audit.StatusChange(c.User, next.Version, m.Status, t.To)); err != nil {
		return err
	}

	// correlationID ties this routing event to the task files it spawns,
	// so a reviewer's inbox task can be traced back to the ROUTE_* entry
	// that created it even after the task file itself is deleted.
	correlationID := uuid.NewString()

	var routeEvent audit.Event
	taskType := tasks.TaskReview
	if opt.Approval {
		routeEvent = audit.RouteApproval(c.User, next.Version, opt.Assignees, workflowType, correlationID)
		taskType = tasks.TaskApproval
	} else {
		routeEvent = audit.RouteReview(c.User, next.Version, opt.Assignees, workflowType, correlationID)
	}
	if err := c.Append(routeEvent); err != nil {
		return err
	}

	cache := tasks.NewConfigCache(c.Project.Root)
	return tasks.Generate(c.Project, cache, taskType, workflowType, c.DocType, docID, c.User, dateStr(today()), next.Version, opt.Assignees, correlationID)
}

// reviewWorkflowType labels the review cycle for task rendering and the
// audit trail: REVIEW for non-executable documents, PRE_REVIEW/
// POST_REVIEW depending on phase for executable ones.
func reviewWorkflowType(status string, executable bool, phase workflow.Phase) string {
	if !executable {
		return "REVIEW"
	}
	if phase == workflow.PostRelease {
		return "POST_REVIEW"
	}
	return "PRE_REVIEW"
}

// approvalWorkflowType derives the approval cycle label from the
// reviewed status being left, mirroring reviewWorkflowType's pairing.
func approvalWorkflowType(fromStatus string) string {
	switch fromStatus {
	case "PRE_REVIEWED":
		return "PRE_APPROVAL"
	case "POST_REVIEWED":
		return "POST_APPROVAL"
	default:
		return "APPROVAL"
	}
}
