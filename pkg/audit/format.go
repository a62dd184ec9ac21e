package audit

import (
	"fmt"
	"strings"
)

// FormatHistory renders a document's full event history as plain,
// human-readable lines — one per event — for the `history` query
// command. Each event kind gets a format tailored to its fields, mirroring
// the per-event-type rendering of the system this was ported from.
func FormatHistory(events []Event) string {
	if len(events) == 0 {
		return "No history recorded.\n"
	}

	var b strings.Builder
	for _, e := range events {
		b.WriteString(formatEventLine(e))
		b.WriteString("\n")
	}
	return b.String()
}

func formatEventLine(e Event) string {
	prefix := fmt.Sprintf("[%s] %s by %s (v%s)", e.Timestamp, e.Event, e.User, e.Version)
	switch e.Event {
	case EventCreate:
		title, _ := e.Fields["title"].(string)
		return fmt.Sprintf("%s — %q", prefix, title)
	case EventRouteReview, EventRouteApproval, EventAssign:
		assignees := stringSlice(e.Fields["assignees"])
		return fmt.Sprintf("%s — assignees: %s", prefix, strings.Join(assignees, ", "))
	case EventReview:
		outcome, _ := e.Fields["outcome"].(string)
		comment, _ := e.Fields["comment"].(string)
		if comment != "" {
			return fmt.Sprintf("%s — %s: %q", prefix, outcome, comment)
		}
		return fmt.Sprintf("%s — %s", prefix, outcome)
	case EventReject:
		comment, _ := e.Fields["comment"].(string)
		return fmt.Sprintf("%s — %q", prefix, comment)
	case EventRevert:
		reason, _ := e.Fields["reason"].(string)
		return fmt.Sprintf("%s — reason: %q", prefix, reason)
	case EventStatusChange:
		from, _ := e.Fields["from_status"].(string)
		to, _ := e.Fields["to_status"].(string)
		return fmt.Sprintf("%s — %s → %s", prefix, from, to)
	default:
		return prefix
	}
}

// FormatComments renders a filtered comment list (see Comments /
// LatestVersionComments) for the `comments` query command.
func FormatComments(events []Event) string {
	if len(events) == 0 {
		return "No comments.\n"
	}

	var b strings.Builder
	for _, e := range events {
		comment, _ := e.Fields["comment"].(string)
		label := "review"
		if e.Event == EventReject {
			label = "rejection"
		}
		fmt.Fprintf(&b, "[%s] %s (%s, v%s): %s\n", e.Timestamp, e.User, label, e.Version, comment)
	}
	return b.String()
}

func stringSlice(v any) []string {
	raw, ok := v.([]any)
	if !ok {
		if s, ok := v.([]string); ok {
			return s
		}
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
