package cli

import (
	"os"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/whharris917/qms-cli/pkg/audit"
	"github.com/whharris917/qms-cli/pkg/docio"
	"github.com/whharris917/qms-cli/pkg/meta"
	"github.com/whharris917/qms-cli/pkg/qmserrors"
	"github.com/whharris917/qms-cli/pkg/stringutil"
)

// humanizeDate turns a stored YYYY-MM-DD date (the layout pkg/meta and
// pkg/tasks both stamp) into a relative string ("3 days ago") for
// display; an unparseable or empty date yields "" so callers can omit
// the field rather than show a placeholder.
func humanizeDate(date string) string {
	t, err := time.Parse("2006-01-02", date)
	if err != nil {
		return ""
	}
	return humanize.Time(t)
}

// Read returns the current on-disk content of a document: its draft if
// one exists, otherwise its effective file.
func Read(c *Context, docID string) (string, error) {
	if err := c.LoadDocument(docID); err != nil {
		return "", err
	}
	parentID := stringutil.ParentID(docID)
	draftPath := c.Project.DraftPath(containerPath(c.TypeInfo, parentID), docID, parentID, c.TypeInfo.FolderPerDoc)
	if _, body, err := docio.ReadFile(draftPath); err == nil {
		return body, nil
	}
	effectivePath := c.Project.EffectivePath(containerPath(c.TypeInfo, parentID), docID, parentID, c.TypeInfo.FolderPerDoc)
	_, body, err := docio.ReadFile(effectivePath)
	if err != nil {
		return "", qmserrors.New(qmserrors.DocumentNotFound, "no draft or effective file found for %s", docID)
	}
	return body, nil
}

// StatusView is the read-only projection of a document's current
// metadata, plus a relative rendering of CheckedOutDate for display.
type StatusView struct {
	*meta.Meta
	CheckedOutAge string `json:"checked_out_age,omitempty"`
}

// Status returns a document's current metadata for display.
func Status(c *Context, docID string) (*StatusView, error) {
	if err := c.LoadDocument(docID); err != nil {
		return nil, err
	}
	v := &StatusView{Meta: c.Meta}
	if c.Meta.CheckedOut {
		v.CheckedOutAge = humanizeDate(c.Meta.CheckedOutDate)
	}
	return v, nil
}

// History returns every audit event for a document in write order.
func History(c *Context, docID string) ([]audit.Event, error) {
	if err := c.LoadDocument(docID); err != nil {
		return nil, err
	}
	return audit.ReadAll(c.AuditPath)
}

// Comments returns the visible review/reject comments for a document,
// optionally scoped to one version.
func Comments(c *Context, docID, version string) ([]audit.Event, error) {
	if err := c.LoadDocument(docID); err != nil {
		return nil, err
	}
	events, err := audit.ReadAll(c.AuditPath)
	if err != nil {
		return nil, err
	}
	return audit.Comments(events, c.Meta.Status, version), nil
}

// LatestVersionComments returns the comments scoped to the document's
// current version, for composing a new revision's context without
// reviewers and initiators needing to know the version string.
func LatestVersionComments(c *Context, docID string) ([]audit.Event, error) {
	if err := c.LoadDocument(docID); err != nil {
		return nil, err
	}
	events, err := audit.ReadAll(c.AuditPath)
	if err != nil {
		return nil, err
	}
	return audit.LatestVersionComments(events, c.Meta.Status, c.Meta.Version), nil
}

// InboxEntry describes one task file in the caller's own inbox, with
// doc_id read back from the task's own frontmatter rather than parsed
// out of the filename, since a docID can itself contain dashes.
type InboxEntry struct {
	FileName string
	DocID    string
	TaskType string
	Age      string
}

// Inbox lists the caller's own pending task files. No cross-user access
// is permitted — the caller always sees only their own inbox.
func Inbox(c *Context) ([]InboxEntry, error) {
	dir := c.Project.InboxDir(c.User)
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var out []InboxEntry
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		fm, _, err := docio.ReadFile(dir + "/" + e.Name())
		if err != nil {
			continue
		}
		docID, _ := fm["doc_id"].(string)
		taskType, _ := fm["task_type"].(string)
		assignedDate, _ := fm["assigned_date"].(string)
		out = append(out, InboxEntry{FileName: e.Name(), DocID: docID, TaskType: taskType, Age: humanizeDate(assignedDate)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FileName < out[j].FileName })
	return out, nil
}

// WorkspaceEntry describes one checked-out document in a user's
// workspace.
type WorkspaceEntry struct {
	FileName string
	DocID    string
}

// Workspace lists the documents currently checked out into the
// caller's own workspace. Workspace filenames are exactly "<docId>.md",
// so the docID is recovered by trimming the extension.
func Workspace(c *Context) ([]WorkspaceEntry, error) {
	dir := c.Project.WorkspaceDir(c.User)
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var out []WorkspaceEntry
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		out = append(out, WorkspaceEntry{FileName: e.Name(), DocID: strings.TrimSuffix(e.Name(), ".md")})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FileName < out[j].FileName })
	return out, nil
}
