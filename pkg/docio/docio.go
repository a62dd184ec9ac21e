// Package docio reads and writes the frontmatter+markdown documents QMS
// stores on disk. It enforces the three-tier separation invariant: the
// minimal-write path keeps only author-maintained fields (title,
// revision_summary) in the on-disk frontmatter, so workflow state can
// never leak into a file a reviewer might hand-edit.
package docio

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/whharris917/qms-cli/pkg/qmserrors"
	"github.com/whharris917/qms-cli/pkg/stringutil"
)

const delimiter = "---"

// Frontmatter is a generic ordered-on-read key/value map. go-yaml decodes
// into map[string]any; key order from the source is not preserved by Go
// maps, so minimal writes always emit a fixed key order (title, then
// revision_summary) rather than attempting to preserve arbitrary input
// order, which the minimal-write contract doesn't require since it drops
// all other keys anyway.
type Frontmatter map[string]any

// ReadFile reads a document from path, splitting it into frontmatter and
// body. A file with no leading `---` delimited block is returned as
// (empty map, full content).
func ReadFile(path string) (Frontmatter, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", qmserrors.Wrap(qmserrors.DocumentNotFound, err, "read document %s", path)
	}
	return Parse(string(data))
}

// Parse splits raw document content into (frontmatter, body).
func Parse(content string) (Frontmatter, string, error) {
	if !strings.HasPrefix(content, delimiter) {
		return Frontmatter{}, content, nil
	}

	rest := content[len(delimiter):]
	rest = strings.TrimPrefix(rest, "\n")
	end := strings.Index(rest, "\n"+delimiter)
	if end < 0 {
		return Frontmatter{}, content, nil
	}

	yamlBlock := rest[:end]
	body := rest[end+len("\n"+delimiter):]
	body = strings.TrimPrefix(body, "\n")

	var fm Frontmatter
	if err := yaml.Unmarshal([]byte(yamlBlock), &fm); err != nil {
		return nil, "", qmserrors.Wrap(qmserrors.DocumentNotFound, err, "parse frontmatter")
	}
	if fm == nil {
		fm = Frontmatter{}
	}
	return fm, body, nil
}

// WriteFile serializes frontmatter+body back to path with every key in
// fm preserved (used for the caller's workspace copy before a checkin,
// not for QMS-stored documents — see WriteMinimal).
func WriteFile(path string, fm Frontmatter, body string) error {
	out, err := render(fm, body)
	if err != nil {
		return err
	}
	return writeAtomic(path, out)
}

// authorFields are the only frontmatter keys a minimal write retains.
var authorFields = []string{"title", "revision_summary"}

// WriteMinimal serializes only the recognized author-maintained fields,
// dropping everything else. This is the write path used for every
// QMS-stored document, enforcing invariant 6: on-disk frontmatter
// carries only title and optionally revision_summary. Workspace copies
// are written with WriteFile, which keeps every key it is given.
func WriteMinimal(path string, fm Frontmatter, body string) error {
	minimal := Frontmatter{}
	for _, key := range authorFields {
		if v, ok := fm[key]; ok {
			minimal[key] = v
		}
	}
	out, err := render(minimal, body)
	if err != nil {
		return err
	}
	return writeAtomic(path, out)
}

func render(fm Frontmatter, body string) (string, error) {
	var b strings.Builder
	if len(fm) > 0 {
		b.WriteString(delimiter)
		b.WriteString("\n")
		yamlBytes, err := yaml.MarshalWithOptions(orderedView(fm), yaml.UseLiteralStyleIfMultiline(true))
		if err != nil {
			return "", qmserrors.Wrap(qmserrors.DocumentNotFound, err, "marshal frontmatter")
		}
		b.Write(yamlBytes)
		b.WriteString(delimiter)
		b.WriteString("\n\n")
	}
	b.WriteString(stringutil.NormalizeWhitespace(body))
	return b.String(), nil
}

// orderedView produces a deterministic-order representation for the
// known author fields (title, then revision_summary); any other keys
// present (WriteFile's full-fidelity path) are appended after, sorted,
// so output is reproducible across runs.
func orderedView(fm Frontmatter) *yaml.MapSlice {
	seen := make(map[string]bool, len(fm))
	out := yaml.MapSlice{}
	for _, key := range authorFields {
		if v, ok := fm[key]; ok {
			out = append(out, yaml.MapItem{Key: key, Value: v})
			seen[key] = true
		}
	}
	var extra []string
	for k := range fm {
		if !seen[k] {
			extra = append(extra, k)
		}
	}
	sort.Strings(extra)
	for _, k := range extra {
		out = append(out, yaml.MapItem{Key: k, Value: fm[k]})
	}
	return &out
}

func writeAtomic(path string, content string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return qmserrors.Wrap(qmserrors.DocumentNotFound, err, "create document directory")
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, []byte(content), 0o644); err != nil {
		return qmserrors.Wrap(qmserrors.DocumentNotFound, err, "write document %s", path)
	}
	return os.Rename(tmp, path)
}

// templateNoticeStart/End delimit a comment block templates carry that
// instructs the author, stripped on first instantiation from a template.
const (
	templateNoticeStart = "<!-- TEMPLATE NOTICE"
	templateNoticeEnd    = "-->"
)

// StripTemplateNotice removes a leading HTML-comment notice block (if
// present) from freshly-instantiated template content.
func StripTemplateNotice(body string) string {
	trimmed := strings.TrimLeft(body, " \t\n")
	if !strings.HasPrefix(trimmed, templateNoticeStart) {
		return body
	}
	end := strings.Index(trimmed, templateNoticeEnd)
	if end < 0 {
		return body
	}
	rest := trimmed[end+len(templateNoticeEnd):]
	return strings.TrimLeft(rest, " \t\n")
}

// Substitute performs the two recognized template substitutions: {{TITLE}}
// and the type-prefixed placeholder ({type}-XXX, e.g. SOP-XXX) replaced
// with the real allocated docID.
func Substitute(body, title, typePrefix, docID string) string {
	body = strings.ReplaceAll(body, "{{TITLE}}", title)
	body = strings.ReplaceAll(body, typePrefix+"-XXX", docID)
	return body
}
