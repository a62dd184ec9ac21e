package cli

import (
	"fmt"
	"strings"

	"github.com/whharris917/qms-cli/pkg/docio"
	"github.com/whharris917/qms-cli/pkg/identity"
	"github.com/whharris917/qms-cli/pkg/qmserrors"
	"github.com/whharris917/qms-cli/pkg/stringutil"
)

// Fix is the administrator escape hatch for repairing rare on-disk
// drift in effective/closed documents: a leftover checked_out flag
// surviving in frontmatter, a stale version header in the body, or a
// TBD effective date placeholder. Metadata, not frontmatter, is always
// the source of truth for status — Fix never trusts the file it is
// repairing.
func Fix(c *Context, docID string) error {
	if err := identity.RequireGroup(c.Group, "fix", identity.Administrator); err != nil {
		return err
	}
	if err := c.LoadDocument(docID); err != nil {
		return err
	}
	if c.Meta.Status != "EFFECTIVE" && c.Meta.Status != "CLOSED" {
		return qmserrors.New(qmserrors.InvalidTransition, "fix only applies to EFFECTIVE or CLOSED documents, %s is %s", docID, c.Meta.Status)
	}

	parentID := stringutil.ParentID(docID)
	path := c.Project.EffectivePath(containerPath(c.TypeInfo, parentID), docID, parentID, c.TypeInfo.FolderPerDoc)
	fm, body, err := docio.ReadFile(path)
	if err != nil {
		return err
	}

	delete(fm, "checked_out")
	delete(fm, "responsible_user")
	body = realignVersionHeader(body, c.Meta.Version)
	body = strings.ReplaceAll(body, "Effective Date: TBD", fmt.Sprintf("Effective Date: %s", dateStr(today())))

	return docio.WriteMinimal(path, fm, body)
}

func realignVersionHeader(body, version string) string {
	lines := strings.SplitN(body, "\n", 2)
	if len(lines) == 0 {
		return body
	}
	if strings.HasPrefix(lines[0], "Version:") {
		rest := ""
		if len(lines) == 2 {
			rest = lines[1]
		}
		return fmt.Sprintf("Version: %s\n%s", version, rest)
	}
	return body
}
