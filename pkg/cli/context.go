// Package cli implements the command layer: one small orchestration per
// CLI verb, built from pkg/project, pkg/registry, pkg/meta, pkg/audit,
// pkg/identity, pkg/workflow, pkg/docio, and pkg/tasks. Every command
// follows the same shape: resolve identity, check permission, load
// state, ask the workflow engine, mutate files in crash-safe order,
// then render a confirmation.
package cli

import (
	"time"

	"github.com/whharris917/qms-cli/pkg/audit"
	"github.com/whharris917/qms-cli/pkg/identity"
	"github.com/whharris917/qms-cli/pkg/meta"
	"github.com/whharris917/qms-cli/pkg/project"
	"github.com/whharris917/qms-cli/pkg/qmserrors"
	"github.com/whharris917/qms-cli/pkg/registry"
	"github.com/whharris917/qms-cli/pkg/sliceutil"
	"github.com/whharris917/qms-cli/pkg/stringutil"
)

// Context is the shared state every command builds from, mirroring the
// orchestration pattern's step 1–3 (identity, permission, document load).
// Commands that don't operate on a specific document (namespace, user,
// init) only populate the User/Group fields.
type Context struct {
	Project  *project.Project
	Registry *registry.Registry

	User  string
	Group identity.Group

	DocID     string
	DocType   string
	TypeInfo  registry.TypeInfo
	Meta      *meta.Meta
	AuditPath string
}

// NewContext resolves project discovery, registry load, and caller
// identity — the parts every command needs regardless of which document
// (if any) it then loads.
func NewContext(cwd, user string) (*Context, error) {
	p, err := project.Discover(cwd)
	if err != nil {
		return nil, err
	}
	reg, err := registry.Load(p)
	if err != nil {
		return nil, err
	}
	group, err := identity.Resolve(p, user)
	if err != nil {
		return nil, err
	}
	return &Context{Project: p, Registry: reg, User: user, Group: group}, nil
}

// LoadDocument resolves docID's type from the registry (inferring it if
// necessary), then loads its current metadata. DocumentNotFound is
// returned if no metadata exists yet.
func (c *Context) LoadDocument(docID string) error {
	docType, ok := stringutil.InferNamespacedDocType(docID, c.Registry.Namespaces())
	if !ok {
		docType, ok = stringutil.InferDocType(docID)
	}
	if !ok {
		return qmserrors.New(qmserrors.UnknownDocType, "cannot infer document type for %s", docID)
	}

	info, ok := c.Registry.Lookup(docType)
	if !ok {
		return qmserrors.New(qmserrors.UnknownDocType, "unregistered document type %s", docType)
	}

	m, err := meta.Read(c.Project.MetaPath(docType, docID))
	if err != nil {
		return err
	}
	if m == nil {
		return qmserrors.New(qmserrors.DocumentNotFound, "document %s not found", docID)
	}

	c.DocID = docID
	c.DocType = docType
	c.TypeInfo = info
	c.Meta = m
	c.AuditPath = c.Project.AuditPath(docType, docID)
	return nil
}

// SaveMeta persists metadata for the current document.
func (c *Context) SaveMeta(m *meta.Meta) error {
	c.Meta = m
	return meta.Write(c.Project.MetaPath(c.DocType, c.DocID), m)
}

// Append writes one audit event for the current document.
func (c *Context) Append(e audit.Event) error {
	return audit.Append(c.AuditPath, e, audit.Now())
}

// RequireOwner enforces the owner-only predicate: the caller must be the
// current owner, or ownership must be unset.
func (c *Context) RequireOwner() error {
	if meta.CanUserModify(c.Meta, c.User) {
		return nil
	}
	return qmserrors.New(qmserrors.OwnershipDenied, "document %s is owned by %s", c.DocID, c.Meta.ResponsibleUser)
}

// RequireAssigned enforces that the caller is in the pending-assignees
// set.
func (c *Context) RequireAssigned() error {
	if sliceutil.Contains(c.Meta.PendingAssignees, c.User) {
		return nil
	}
	return qmserrors.New(qmserrors.NotAssigned, "you are not a pending assignee for %s (pending: %v)", c.DocID, c.Meta.PendingAssignees)
}

// RequireCheckedIn enforces that a document is not currently checked out
// (used by route, which refuses on a checked-out document).
func (c *Context) RequireCheckedIn() error {
	if c.Meta.CheckedOut {
		return qmserrors.New(qmserrors.CheckedOut, "document %s is checked out by %s", c.DocID, c.Meta.ResponsibleUser).
			WithHint("run `checkin` first")
	}
	return nil
}

// RequireCheckedOut enforces that a document is currently checked out
// (used by checkin). It does not check who holds the checkout.
func (c *Context) RequireCheckedOut() error {
	if !c.Meta.CheckedOut {
		return qmserrors.New(qmserrors.NotCheckedOut, "document %s is not checked out", c.DocID)
	}
	return nil
}

// RequireStatus enforces that the document's current status is one of
// the given values.
func (c *Context) RequireStatus(allowed ...string) error {
	for _, s := range allowed {
		if c.Meta.Status == s {
			return nil
		}
	}
	return qmserrors.New(qmserrors.InvalidTransition, "document %s is %s, expected one of %v", c.DocID, c.Meta.Status, allowed)
}

func today() time.Time {
	return time.Now().UTC()
}

func dateStr(t time.Time) string {
	return t.Format("2006-01-02")
}
