// Package audit implements the append-only JSONL history log that is the
// system's source of truth for reconstruction and compliance review.
// Writes only ever append; there is no update or delete surface. Reads
// tolerate blank lines and malformed entries, logging a warning rather
// than failing, per the durability behavior of the original
// implementation this was ported from.
package audit

import (
	"bufio"
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/whharris917/qms-cli/pkg/logger"
	"github.com/whharris917/qms-cli/pkg/qmserrors"
)

var log = logger.New("audit:log")

// Event kinds, matching the taxonomy in the data model.
const (
	EventCreate       = "CREATE"
	EventCheckout     = "CHECKOUT"
	EventCheckin      = "CHECKIN"
	EventRouteReview  = "ROUTE_REVIEW"
	EventRouteApproval = "ROUTE_APPROVAL"
	EventAssign       = "ASSIGN"
	EventReview       = "REVIEW"
	EventApprove      = "APPROVE"
	EventReject       = "REJECT"
	EventEffective    = "EFFECTIVE"
	EventRelease      = "RELEASE"
	EventRevert       = "REVERT"
	EventClose        = "CLOSE"
	EventRetire       = "RETIRE"
	EventStatusChange = "STATUS_CHANGE"
)

// Event is one line of a document's audit log. Extra carries
// event-specific fields (outcome, comment, assignees, from_status,
// to_status, reason, title, from_version, ...) that vary by Event kind —
// modeling them as a flat map keeps every event kind's field set
// exactly as the wire contract defines it without an explosion of
// near-identical structs.
type Event struct {
	Timestamp string         `json:"ts"`
	Event     string         `json:"event"`
	User      string         `json:"user"`
	Version   string         `json:"version"`
	Fields    map[string]any `json:"-"`
}

// MarshalJSON flattens Fields alongside the fixed ts/event/user/version
// keys so the on-disk shape is a single flat object per the wire
// contract, not a nested "fields" object.
func (e Event) MarshalJSON() ([]byte, error) {
	out := map[string]any{
		"ts":      e.Timestamp,
		"event":   e.Event,
		"user":    e.User,
		"version": e.Version,
	}
	for k, v := range e.Fields {
		out[k] = v
	}
	return json.Marshal(out)
}

// UnmarshalJSON reconstructs Event, moving everything outside the fixed
// keys into Fields.
func (e *Event) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	e.Fields = make(map[string]any)
	for k, v := range raw {
		switch k {
		case "ts":
			e.Timestamp, _ = v.(string)
		case "event":
			e.Event, _ = v.(string)
		case "user":
			e.User, _ = v.(string)
		case "version":
			e.Version, _ = v.(string)
		default:
			e.Fields[k] = v
		}
	}
	return nil
}

// Now returns the current UTC instant at second precision, matching the
// `ts` field's ISO-8601 format.
func Now() time.Time {
	return time.Now().UTC().Truncate(time.Second)
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05Z")
}

// Path is the conventional audit log location for a document.
func Path(root, docType, docID string) string {
	return filepath.Join(root, "QMS", ".audit", docType, docID+".jsonl")
}

// Append writes one event to the end of the log, creating the file and
// its parent directory if necessary. The event's timestamp is stamped
// if not already set.
func Append(path string, e Event, at time.Time) error {
	if e.Timestamp == "" {
		e.Timestamp = formatTimestamp(at)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return qmserrors.Wrap(qmserrors.DocumentNotFound, err, "create audit directory")
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return qmserrors.Wrap(qmserrors.DocumentNotFound, err, "open audit log %s", path)
	}
	defer f.Close()

	data, err := json.Marshal(e)
	if err != nil {
		return qmserrors.Wrap(qmserrors.DocumentNotFound, err, "marshal audit event")
	}

	log.Printf("append %s event=%s user=%s version=%s", path, e.Event, e.User, e.Version)
	_, err = f.Write(append(data, '\n'))
	return err
}

// ReadAll reads every event in write order. Blank lines are skipped;
// malformed lines are logged and skipped rather than failing the read,
// so a single corrupted line never blocks access to the rest of the
// history.
func ReadAll(path string) ([]Event, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, qmserrors.Wrap(qmserrors.DocumentNotFound, err, "open audit log %s", path)
	}
	defer f.Close()

	var events []Event
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Bytes()
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		var e Event
		if err := json.Unmarshal(line, &e); err != nil {
			log.Printf("warning: malformed audit line %d in %s: %v", lineNo, path, err)
			continue
		}
		events = append(events, e)
	}
	if err := scanner.Err(); err != nil {
		return events, qmserrors.Wrap(qmserrors.DocumentNotFound, err, "scan audit log %s", path)
	}
	return events, nil
}

// reviewVisibilityStatuses are statuses during which comments stay
// hidden, so reviewers can't see each other's feedback mid-cycle.
var reviewVisibilityStatuses = map[string]bool{
	"IN_REVIEW": true, "IN_PRE_REVIEW": true, "IN_POST_REVIEW": true,
}

// Comments returns REVIEW and REJECT events carrying a non-empty comment,
// optionally filtered to one version. currentStatus gates visibility:
// while the document sits in an active review status, it returns empty —
// the visibility rule is enforced here, not in the store.
func Comments(events []Event, currentStatus string, version string) []Event {
	if reviewVisibilityStatuses[currentStatus] {
		return nil
	}
	var out []Event
	for _, e := range events {
		if e.Event != EventReview && e.Event != EventReject {
			continue
		}
		comment, _ := e.Fields["comment"].(string)
		if comment == "" {
			continue
		}
		if version != "" && e.Version != version {
			continue
		}
		out = append(out, e)
	}
	return out
}

// LatestVersionComments scopes Comments to exactly the given version,
// used to surface current-cycle feedback when composing a new revision.
func LatestVersionComments(events []Event, currentStatus string, version string) []Event {
	return Comments(events, currentStatus, version)
}

// Helper constructors for the most common event kinds, mirroring the
// field sets in the external-interfaces contract.

func Create(user, version, title string) Event {
	return Event{User: user, Version: version, Event: EventCreate, Fields: map[string]any{"title": title}}
}

func Checkout(user, version, fromVersion string) Event {
	fields := map[string]any{}
	if fromVersion != "" {
		fields["from_version"] = fromVersion
	}
	return Event{User: user, Version: version, Event: EventCheckout, Fields: fields}
}

func Checkin(user, version string) Event {
	return Event{User: user, Version: version, Event: EventCheckin, Fields: map[string]any{}}
}

// RouteReview logs a review routing event. correlationID, when non-empty,
// is carried into every task file Generate renders from this event so the
// two can be cross-referenced later.
func RouteReview(user, version string, assignees []string, reviewType, correlationID string) Event {
	return Event{User: user, Version: version, Event: EventRouteReview, Fields: map[string]any{
		"assignees": assignees, "review_type": reviewType, "correlation_id": correlationID,
	}}
}

// RouteApproval logs an approval routing event; see RouteReview for
// correlationID.
func RouteApproval(user, version string, assignees []string, approvalType, correlationID string) Event {
	return Event{User: user, Version: version, Event: EventRouteApproval, Fields: map[string]any{
		"assignees": assignees, "approval_type": approvalType, "correlation_id": correlationID,
	}}
}

func Assign(user, version string, assignees []string) Event {
	return Event{User: user, Version: version, Event: EventAssign, Fields: map[string]any{"assignees": assignees}}
}

func Review(user, version, outcome, comment string) Event {
	return Event{User: user, Version: version, Event: EventReview, Fields: map[string]any{
		"outcome": outcome, "comment": comment,
	}}
}

func Approve(user, version string) Event {
	return Event{User: user, Version: version, Event: EventApprove, Fields: map[string]any{}}
}

func Reject(user, version, comment string) Event {
	return Event{User: user, Version: version, Event: EventReject, Fields: map[string]any{"comment": comment}}
}

func Effective(user, version, fromVersion string) Event {
	fields := map[string]any{}
	if fromVersion != "" {
		fields["from_version"] = fromVersion
	}
	return Event{User: user, Version: version, Event: EventEffective, Fields: fields}
}

func Release(user, version string) Event {
	return Event{User: user, Version: version, Event: EventRelease, Fields: map[string]any{}}
}

func Revert(user, version, reason string) Event {
	return Event{User: user, Version: version, Event: EventRevert, Fields: map[string]any{"reason": reason}}
}

func Close(user, version string) Event {
	return Event{User: user, Version: version, Event: EventClose, Fields: map[string]any{}}
}

func Retire(user, version, fromVersion string) Event {
	fields := map[string]any{}
	if fromVersion != "" {
		fields["from_version"] = fromVersion
	}
	return Event{User: user, Version: version, Event: EventRetire, Fields: fields}
}

func StatusChange(user, version, fromStatus, toStatus string) Event {
	return Event{User: user, Version: version, Event: EventStatusChange, Fields: map[string]any{
		"from_status": fromStatus, "to_status": toStatus,
	}}
}
