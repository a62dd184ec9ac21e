// Package workflow implements the document lifecycle state machine as a
// single declarative transition table — the sole source of truth for
// status changes. Callers look up a transition by (status, action,
// executable, phase); nothing in this package or its callers branches on
// status string comparisons to decide what happens next.
package workflow

import (
	"strconv"
	"strings"

	"github.com/whharris917/qms-cli/pkg/qmserrors"
)

// Action is one of the eight state-machine verbs.
type Action string

const (
	ActionRouteReview   Action = "ROUTE_REVIEW"
	ActionRouteApproval Action = "ROUTE_APPROVAL"
	ActionReview        Action = "REVIEW"
	ActionApprove       Action = "APPROVE"
	ActionReject        Action = "REJECT"
	ActionRelease       Action = "RELEASE"
	ActionRevert        Action = "REVERT"
	ActionClose         Action = "CLOSE"
)

// Phase is a document's execution half, meaningful only for executable
// types.
type Phase string

const (
	PreRelease  Phase = "pre_release"
	PostRelease Phase = "post_release"
)

// Transition is one row of the canonical table. ForExecutable is nil when
// the row applies regardless of executability; Phase is empty when the
// row applies regardless of phase.
type Transition struct {
	From             string
	Action           Action
	To               string
	ForExecutable    *bool
	Phase            Phase
	VersionBump      bool
	ArchivesVersion  bool
	ClearsOwner      bool
	RequiresAssignment bool
}

func boolPtr(b bool) *bool { return &b }

// Table is the canonical transition set from the workflow design: every
// status change in the system is one of these rows. Order is not
// significant; Lookup asserts at most one row matches any query.
var Table = []Transition{
	// Route review
	{From: "DRAFT", Action: ActionRouteReview, To: "IN_REVIEW", ForExecutable: boolPtr(false)},
	{From: "DRAFT", Action: ActionRouteReview, To: "IN_PRE_REVIEW", ForExecutable: boolPtr(true), Phase: PreRelease},
	{From: "DRAFT", Action: ActionRouteReview, To: "IN_POST_REVIEW", ForExecutable: boolPtr(true), Phase: PostRelease},
	{From: "IN_EXECUTION", Action: ActionRouteReview, To: "IN_POST_REVIEW", ForExecutable: boolPtr(true), Phase: PostRelease},

	// Route approval
	{From: "REVIEWED", Action: ActionRouteApproval, To: "IN_APPROVAL"},
	{From: "PRE_REVIEWED", Action: ActionRouteApproval, To: "IN_PRE_APPROVAL"},
	{From: "POST_REVIEWED", Action: ActionRouteApproval, To: "IN_POST_APPROVAL"},

	// Review completion
	{From: "IN_REVIEW", Action: ActionReview, To: "REVIEWED"},
	{From: "IN_PRE_REVIEW", Action: ActionReview, To: "PRE_REVIEWED"},
	{From: "IN_POST_REVIEW", Action: ActionReview, To: "POST_REVIEWED"},

	// Approve
	{From: "IN_APPROVAL", Action: ActionApprove, To: "EFFECTIVE", VersionBump: true, ArchivesVersion: true, ClearsOwner: true},
	{From: "IN_PRE_APPROVAL", Action: ActionApprove, To: "PRE_APPROVED", VersionBump: true, ArchivesVersion: true},
	{From: "IN_POST_APPROVAL", Action: ActionApprove, To: "POST_APPROVED", VersionBump: true, ArchivesVersion: true},

	// Reject
	{From: "IN_APPROVAL", Action: ActionReject, To: "REVIEWED"},
	{From: "IN_PRE_APPROVAL", Action: ActionReject, To: "PRE_REVIEWED"},
	{From: "IN_POST_APPROVAL", Action: ActionReject, To: "POST_REVIEWED"},

	// Release
	{From: "PRE_APPROVED", Action: ActionRelease, To: "IN_EXECUTION"},

	// Revert
	{From: "POST_REVIEWED", Action: ActionRevert, To: "IN_EXECUTION"},

	// Close
	{From: "POST_APPROVED", Action: ActionClose, To: "CLOSED", ClearsOwner: true},
}

// postReleaseStatuses infers a phase from status alone, used when metadata's
// explicit execution_phase is missing (legacy data). The explicit field
// always wins; this is strictly a fallback.
var postReleaseStatuses = map[string]bool{
	"IN_EXECUTION": true, "IN_POST_REVIEW": true, "POST_REVIEWED": true,
	"IN_POST_APPROVAL": true, "POST_APPROVED": true, "CLOSED": true,
}

// InferPhase derives a phase from status when no explicit phase is
// recorded.
func InferPhase(status string) Phase {
	if postReleaseStatuses[status] {
		return PostRelease
	}
	return PreRelease
}

// Lookup finds the single transition matching (from, action, executable,
// phase). If metadata's phase is empty, pass "" and the caller should
// have already applied InferPhase — Lookup does not infer on the
// caller's behalf, since it has no access to the metadata's explicit
// field to know whether inference is warranted.
func Lookup(from string, action Action, executable bool, phase Phase) (Transition, error) {
	var matches []Transition
	for _, t := range Table {
		if t.From != from || t.Action != action {
			continue
		}
		if t.ForExecutable != nil && *t.ForExecutable != executable {
			continue
		}
		if t.Phase != "" && t.Phase != phase {
			continue
		}
		matches = append(matches, t)
	}

	if len(matches) == 0 {
		return Transition{}, qmserrors.New(qmserrors.InvalidTransition,
			"no transition from %s via %s (executable=%v, phase=%s)", from, action, executable, phase)
	}
	if len(matches) > 1 {
		return Transition{}, qmserrors.New(qmserrors.InvalidTransition,
			"ambiguous transition from %s via %s (executable=%v, phase=%s): %d matches", from, action, executable, phase, len(matches))
	}
	return matches[0], nil
}

// IncrementMajor bumps a "N.X" version to "(N+1).0".
func IncrementMajor(version string) string {
	major, _ := splitVersion(version)
	return strconv.Itoa(major+1) + ".0"
}

// IncrementMinor bumps a "N.X" version to "N.(X+1)".
func IncrementMinor(version string) string {
	major, minor := splitVersion(version)
	return strconv.Itoa(major) + "." + strconv.Itoa(minor+1)
}

// IsMajorVersion reports whether version is an "N.0" form with N≥1 —
// i.e. the document has been effective at least once.
func IsMajorVersion(version string) bool {
	major, minor := splitVersion(version)
	return minor == 0 && major >= 1
}

// Major returns the major component of a "N.X" version string.
func Major(version string) int {
	major, _ := splitVersion(version)
	return major
}

func splitVersion(version string) (major, minor int) {
	parts := strings.SplitN(version, ".", 2)
	if len(parts) != 2 {
		return 0, 0
	}
	major = atoi(parts[0])
	minor = atoi(parts[1])
	return
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

// RetirementPrecondition enforces the explicit gate: only a document
// that has been effective at least once (major version ≥ 1) may be
// routed for retirement. This is the spec's adopted resolution of the
// "two conflicting retire-precondition notions" ambiguity — approval-gate
// state is irrelevant here.
func RetirementPrecondition(version string) error {
	major, _ := splitVersion(version)
	if major < 1 {
		return qmserrors.New(qmserrors.InvalidTransition,
			"retirement requires a document that has been effective at least once (version %s has never reached major ≥ 1)", version)
	}
	return nil
}
