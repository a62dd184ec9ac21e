package stringutil

import (
	"regexp"
	"strings"
)

// docIDPattern pairs a compiled ID-shape regex with the document type it
// identifies. Order matters: patterns are tried in sequence and the first
// match wins, most-specific first (an ER id also contains "-TP-", so ER
// must be checked before TP).
type docIDPattern struct {
	docType string
	re      *regexp.Regexp
}

var (
	sopPattern      = regexp.MustCompile(`^SOP-\d{3}$`)
	crPattern       = regexp.MustCompile(`^CR-\d{3}$`)
	invPattern      = regexp.MustCompile(`^INV-\d{3}$`)
	templatePattern = regexp.MustCompile(`^TEMPLATE-.+$`)
	erMarker        = "-ER-"
	tpMarker        = "-TP-"
	varMarker       = "-VAR-"
)

// InferDocType applies the fixed, order-sensitive pattern list from the
// document-ID inference rule: namespace singletons first (handled by the
// caller via namespace-aware patterns, see InferNamespacedDocType), then
// SOP, TEMPLATE, ER (before TP, since an ER id also contains "-TP-"), TP,
// VAR, CR, INV. Returns ok=false for unrecognized shapes.
func InferDocType(docID string) (docType string, ok bool) {
	switch {
	case sopPattern.MatchString(docID):
		return "SOP", true
	case templatePattern.MatchString(docID):
		return "TEMPLATE", true
	case strings.Contains(docID, erMarker):
		return "ER", true
	case strings.Contains(docID, tpMarker):
		return "TP", true
	case strings.Contains(docID, varMarker):
		return "VAR", true
	case crPattern.MatchString(docID):
		return "CR", true
	case invPattern.MatchString(docID):
		return "INV", true
	default:
		return "", false
	}
}

// ParentID extracts the top-level CR/INV container ID a nested document
// (TP, ER, VAR) physically lives under, e.g. "CR-001-TP-002" → "CR-001",
// and "CR-001-TP-002-ER-001" → "CR-001" — TP, ER, and VAR documents all
// share their root CR/INV's own folder rather than nesting one folder
// inside another, so this always walks back to the earliest marker, not
// just the immediately preceding one. Returns "" for top-level types,
// which have no parent marker at all.
func ParentID(docID string) string {
	best := -1
	for _, marker := range []string{erMarker, tpMarker, varMarker} {
		if idx := strings.Index(docID, marker); idx >= 0 && (best == -1 || idx < best) {
			best = idx
		}
	}
	if best == -1 {
		return ""
	}
	return docID[:best]
}

// InferNamespacedDocType matches SDLC singleton IDs of the form
// SDLC-{NS}-RS / SDLC-{NS}-RTM against the given set of registered
// namespaces, returning the namespace-qualified doc type (e.g. "ACME-RS").
func InferNamespacedDocType(docID string, namespaces []string) (docType string, ok bool) {
	for _, ns := range namespaces {
		for _, suffix := range []string{"RS", "RTM"} {
			if docID == "SDLC-"+ns+"-"+suffix {
				return ns + "-" + suffix, true
			}
		}
	}
	return "", false
}
