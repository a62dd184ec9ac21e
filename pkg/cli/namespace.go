package cli

import (
	"os"

	"github.com/whharris917/qms-cli/pkg/identity"
)

// NamespaceList returns every registered SDLC namespace.
func NamespaceList(c *Context) []string {
	return c.Registry.Namespaces()
}

// NamespaceAdd registers a new SDLC namespace, creating its storage
// directory; administrator only.
func NamespaceAdd(c *Context, name string) error {
	if err := identity.RequireGroup(c.Group, "namespace add", identity.Administrator); err != nil {
		return err
	}
	if err := c.Registry.AddNamespace(c.Project, name); err != nil {
		return err
	}
	return os.MkdirAll(c.Project.TypeDir("SDLC-"+name), 0o755)
}
