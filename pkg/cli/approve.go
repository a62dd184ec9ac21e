package cli

import (
	"os"

	"github.com/whharris917/qms-cli/pkg/audit"
	"github.com/whharris917/qms-cli/pkg/docio"
	"github.com/whharris917/qms-cli/pkg/identity"
	"github.com/whharris917/qms-cli/pkg/meta"
	"github.com/whharris917/qms-cli/pkg/stringutil"
	"github.com/whharris917/qms-cli/pkg/tasks"
	"github.com/whharris917/qms-cli/pkg/workflow"
)

// Approve records the caller's approval and, once every pending
// assignee has approved, executes the approval transition: archiving
// the outgoing draft, bumping to the next major version, and — per the
// target status — writing the effective file, staying a draft for
// further workflow, retiring the document, or closing it.
func Approve(c *Context, docID string) error {
	if err := identity.RequireAnyGroup(c.Group, "approve", identity.Quality, identity.Reviewer); err != nil {
		return err
	}
	if err := c.LoadDocument(docID); err != nil {
		return err
	}
	if err := c.RequireAssigned(); err != nil {
		return err
	}

	phase := workflow.InferPhase(c.Meta.Status)
	if c.Meta.ExecutionPhase != "" {
		phase = workflow.Phase(c.Meta.ExecutionPhase)
	}
	t, err := workflow.Lookup(c.Meta.Status, workflow.ActionApprove, c.TypeInfo.Executable, phase)
	if err != nil {
		return err
	}

	isLast := len(c.Meta.PendingAssignees) == 1 && c.Meta.PendingAssignees[0] == c.User
	if !isLast {
		next := meta.ReviewComplete(c.Meta, c.User, "", "")
		if err := c.SaveMeta(next); err != nil {
			return err
		}
		if err := c.Append(audit.Approve(c.User, next.Version)); err != nil {
			return err
		}
		return tasks.DeleteForUser(c.Project, c.User, docID)
	}

	fromStatus := c.Meta.Status
	fromVersion := c.Meta.Version
	newVersion := workflow.IncrementMajor(fromVersion)
	parentID := stringutil.ParentID(docID)

	draftPath := c.Project.DraftPath(containerPath(c.TypeInfo, parentID), docID, parentID, c.TypeInfo.FolderPerDoc)
	archivePath := c.Project.ArchivePath(containerPath(c.TypeInfo, parentID), parentID, docID, fromVersion)
	if err := copyFile(draftPath, archivePath); err != nil {
		return err
	}

	if c.Meta.Retiring {
		return finishRetirement(c, docID, parentID, draftPath, fromStatus, fromVersion, newVersion)
	}

	toStatus := t.To
	next := meta.Approval(c.Meta, toStatus, newVersion, t.ClearsOwner)
	if toStatus == "EFFECTIVE" || toStatus == "CLOSED" {
		fm, body, err := docio.ReadFile(draftPath)
		if err != nil {
			return err
		}
		effectivePath := c.Project.EffectivePath(containerPath(c.TypeInfo, parentID), docID, parentID, c.TypeInfo.FolderPerDoc)
		if err := docio.WriteMinimal(effectivePath, fm, body); err != nil {
			return err
		}
		if err := os.Remove(draftPath); err != nil && !os.IsNotExist(err) {
			return err
		}
	}

	if err := c.SaveMeta(next); err != nil {
		return err
	}
	if err := c.Append(audit.Approve(c.User, fromVersion)); err != nil {
		return err
	}
	if err := c.Append(audit.StatusChange(c.User, newVersion, fromStatus, toStatus)); err != nil {
		return err
	}
	if toStatus == "EFFECTIVE" {
		if err := c.Append(audit.Effective(c.User, newVersion, fromVersion)); err != nil {
			return err
		}
	}

	return tasks.DeleteForUser(c.Project, c.User, docID)
}

// finishRetirement implements the retirement special case: the approved
// status is translated directly to RETIRED regardless of what the
// ordinary transition table says, the draft and any effective file are
// deleted (already archived), and the retiring flag is cleared.
func finishRetirement(c *Context, docID, parentID, draftPath, fromStatus, fromVersion, newVersion string) error {
	// Retirement archives the draft twice: once at its pre-bump version
	// (already done by the caller, same as every other approval) and
	// again at the final major version, since that version is never
	// written to an effective file for anyone to read later.
	retiredArchivePath := c.Project.ArchivePath(containerPath(c.TypeInfo, parentID), parentID, docID, newVersion)
	if err := copyFile(draftPath, retiredArchivePath); err != nil {
		return err
	}

	effectivePath := c.Project.EffectivePath(containerPath(c.TypeInfo, parentID), docID, parentID, c.TypeInfo.FolderPerDoc)
	if _, err := os.Stat(effectivePath); err == nil {
		if err := os.Remove(effectivePath); err != nil {
			return err
		}
	}
	if err := os.Remove(draftPath); err != nil && !os.IsNotExist(err) {
		return err
	}

	next := meta.Approval(c.Meta, "RETIRED", newVersion, true)
	next.Retiring = false
	if err := c.SaveMeta(next); err != nil {
		return err
	}
	if err := c.Append(audit.Approve(c.User, fromVersion)); err != nil {
		return err
	}
	if err := c.Append(audit.StatusChange(c.User, newVersion, fromStatus, "RETIRED")); err != nil {
		return err
	}
	if err := c.Append(audit.Retire(c.User, newVersion, fromVersion)); err != nil {
		return err
	}
	return tasks.DeleteForUser(c.Project, c.User, docID)
}
