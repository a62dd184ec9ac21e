package cli

import (
	"strings"

	"github.com/whharris917/qms-cli/pkg/audit"
	"github.com/whharris917/qms-cli/pkg/docio"
	"github.com/whharris917/qms-cli/pkg/identity"
	"github.com/whharris917/qms-cli/pkg/meta"
	"github.com/whharris917/qms-cli/pkg/qmserrors"
	"github.com/whharris917/qms-cli/pkg/stringutil"
)

// CreateOptions carries the arguments a `create` invocation supplies
// beyond the document type itself.
type CreateOptions struct {
	DocType      string
	Title        string
	ParentID     string // required for TP/ER/VAR
	TemplateName string // required for TEMPLATE
}

// CreateResult is what `create` reports back to the caller.
type CreateResult struct {
	DocID string
}

// Create allocates a fresh document ID, instantiates its draft from a
// template (or a minimal default body when none is installed), and
// records metadata with the caller as owner — the command layer's
// implementation of the create operation in the command pattern.
func Create(c *Context, opt CreateOptions) (*CreateResult, error) {
	if err := identity.RequireGroup(c.Group, "create", identity.Initiator); err != nil {
		return nil, err
	}

	info, ok := c.Registry.Lookup(opt.DocType)
	if !ok {
		return nil, qmserrors.New(qmserrors.UnknownDocType, "unregistered document type %s", opt.DocType)
	}
	if info.ParentType != "" && opt.ParentID == "" {
		return nil, qmserrors.New(qmserrors.DocumentNotFound, "%s requires --parent", opt.DocType)
	}

	docID, err := allocateID(c.Project, info, opt.ParentID, opt.TemplateName)
	if err != nil {
		return nil, err
	}

	existingMeta, err := meta.Read(c.Project.MetaPath(opt.DocType, docID))
	if err != nil {
		return nil, err
	}
	if existingMeta != nil {
		return nil, qmserrors.New(qmserrors.DocumentAlreadyExists, "document %s already exists", docID)
	}

	body := instantiateBody(c, opt.DocType, opt.Title, docID)

	rootID := opt.ParentID
	if root := stringutil.ParentID(opt.ParentID); root != "" {
		rootID = root
	}
	draftPath := c.Project.DraftPath(containerPath(info, rootID), docID, rootID, info.FolderPerDoc)
	fm := docio.Frontmatter{"title": opt.Title}
	if err := docio.WriteMinimal(draftPath, fm, body); err != nil {
		return nil, err
	}

	workspacePath := c.Project.WorkspacePath(c.User, docID)
	if err := docio.WriteFile(workspacePath, fm, body); err != nil {
		return nil, err
	}

	m := meta.CreateInitial(docID, opt.DocType, info.Executable, c.User, today())
	if err := meta.Write(c.Project.MetaPath(opt.DocType, docID), m); err != nil {
		return nil, err
	}

	auditPath := c.Project.AuditPath(opt.DocType, docID)
	if err := audit.Append(auditPath, audit.Create(c.User, m.Version, opt.Title), audit.Now()); err != nil {
		return nil, err
	}

	return &CreateResult{DocID: docID}, nil
}

// instantiateBody looks for an installed template at
// QMS/TEMPLATE/TEMPLATE-{docType}.md; when present its notice block is
// stripped and its placeholders substituted. When absent it falls back
// to a minimal heading, since template content itself is out of this
// system's scope.
func instantiateBody(c *Context, docType, title, docID string) string {
	info, ok := c.Registry.Lookup("TEMPLATE")
	if !ok {
		return "# " + title + "\n"
	}
	path := c.Project.EffectivePath(info.Path, "TEMPLATE-"+strings.ToUpper(docType), "", false)
	_, body, err := docio.ReadFile(path)
	if err != nil || body == "" {
		return "# " + title + "\n"
	}
	body = docio.StripTemplateNotice(body)
	return docio.Substitute(body, title, docType, docID)
}
