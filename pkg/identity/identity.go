// Package identity resolves a user string to a permission group and
// answers command-level permission questions. Group membership comes
// from two sources merged at lookup time: a hardcoded administrator set
// built into the binary, and per-user agent files under
// .claude/agents/{user}.md whose YAML frontmatter carries a group.
package identity

import (
	"github.com/whharris917/qms-cli/pkg/constants"
	"github.com/whharris917/qms-cli/pkg/docio"
	"github.com/whharris917/qms-cli/pkg/project"
	"github.com/whharris917/qms-cli/pkg/qmserrors"
)

// Group is one of the four QMS roles, ordered from most to least
// privileged. A permission granted to group G is also granted to any
// group ranked higher.
type Group string

const (
	Administrator Group = "administrator"
	Initiator     Group = "initiator"
	Quality       Group = "quality"
	Reviewer      Group = "reviewer"
)

// rank gives each group a privilege level; higher outranks lower.
var rank = map[Group]int{
	Administrator: 3,
	Initiator:     2,
	Quality:       1,
	Reviewer:      0,
}

func (g Group) validKnown() bool {
	_, ok := rank[g]
	return ok
}

// AtLeast reports whether g satisfies a requirement of "at least
// required" in the group hierarchy.
func (g Group) AtLeast(required Group) bool {
	gr, ok1 := rank[g]
	rr, ok2 := rank[required]
	return ok1 && ok2 && gr >= rr
}

// hardcodedAdmins indexes constants.HardcodedAdmins for O(1) lookup.
var hardcodedAdmins = func() map[string]bool {
	m := make(map[string]bool, len(constants.HardcodedAdmins))
	for _, u := range constants.HardcodedAdmins {
		m[u] = true
	}
	return m
}()

// Resolve determines user's group: hardcoded admins first, then the
// agent file's frontmatter `group` key. Returns UnknownUser if neither
// source identifies the user, and InvalidAgentGroup if an agent file
// exists but names an unrecognized group.
func Resolve(p *project.Project, user string) (Group, error) {
	if hardcodedAdmins[user] {
		return Administrator, nil
	}

	fm, _, err := docio.ReadFile(p.AgentFilePath(user))
	if err != nil {
		return "", qmserrors.New(qmserrors.UnknownUser, "unknown user: %s", user).
			WithHint("register an agent file at .claude/agents/" + user + ".md with a `group` field")
	}

	raw, ok := fm["group"]
	if !ok {
		return "", qmserrors.New(qmserrors.InvalidAgentGroup, "agent file for %s has no group field", user)
	}
	groupStr, ok := raw.(string)
	if !ok {
		return "", qmserrors.New(qmserrors.InvalidAgentGroup, "agent file for %s has a non-string group field", user)
	}

	group := Group(groupStr)
	if !group.validKnown() {
		return "", qmserrors.New(qmserrors.InvalidAgentGroup, "agent file for %s names unknown group %q", user, groupStr)
	}
	return group, nil
}

// ParseGroup validates a user-supplied group name (e.g. from a --group
// flag) against the known set, returning InvalidAgentGroup if it isn't
// one of the four roles.
func ParseGroup(s string) (Group, error) {
	g := Group(s)
	if !g.validKnown() {
		return "", qmserrors.New(qmserrors.InvalidAgentGroup, "unknown group %q", s).
			WithHint("must be one of administrator, initiator, quality, reviewer")
	}
	return g, nil
}

// IsKnown reports whether user resolves to any group at all, without
// surfacing the specific error — used to validate assignee lists.
func IsKnown(p *project.Project, user string) bool {
	_, err := Resolve(p, user)
	return err == nil
}

// RequireGroup checks that actual satisfies a minimum group requirement,
// returning PermissionDenied if not.
func RequireGroup(actual Group, command string, required Group) error {
	if actual.AtLeast(required) {
		return nil
	}
	return qmserrors.New(qmserrors.PermissionDenied, "command %q requires %s or higher, you are %s", command, required, actual)
}

// RequireAnyGroup checks that actual is one of the groups in allowed, or
// is Administrator, which passes every such check (used for commands
// with an explicit set of acceptable groups rather than a hierarchy
// threshold). Other groups ranked above a listed group are not admitted.
func RequireAnyGroup(actual Group, command string, allowed ...Group) error {
	for _, g := range allowed {
		if actual == g {
			return nil
		}
	}
	// Administrators inherit every permission the hierarchy implies.
	if actual == Administrator {
		return nil
	}
	return qmserrors.New(qmserrors.PermissionDenied, "command %q requires one of %v, you are %s", command, allowed, actual)
}
