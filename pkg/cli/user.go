package cli

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/whharris917/qms-cli/pkg/identity"
	"github.com/whharris917/qms-cli/pkg/qmserrors"
)

// UserAdd registers a new agent file with the given group; administrator
// only. It refuses to overwrite an existing agent file.
func UserAdd(c *Context, user string, group identity.Group) error {
	if err := identity.RequireGroup(c.Group, "user --add", identity.Administrator); err != nil {
		return err
	}

	path := c.Project.AgentFilePath(user)
	if _, err := os.Stat(path); err == nil {
		return qmserrors.New(qmserrors.DocumentAlreadyExists, "agent file for %s already exists", user)
	}

	content := "---\ngroup: " + string(group) + "\n---\n"
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(content), 0o644)
}

// UserList enumerates every user with an agent file under
// .claude/agents/, alongside their resolved group.
func UserList(c *Context) ([]UserEntry, error) {
	dir := filepath.Join(c.Project.Root, ".claude", "agents")
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var out []UserEntry
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".md") {
			continue
		}
		user := strings.TrimSuffix(e.Name(), ".md")
		group, err := identity.Resolve(c.Project, user)
		if err != nil {
			continue
		}
		out = append(out, UserEntry{User: user, Group: group})
	}
	return out, nil
}

// UserEntry is one row of `user --list`.
type UserEntry struct {
	User  string
	Group identity.Group
}
