// Package constants holds the small set of fixed values shared across
// packages that would otherwise drift into inconsistent literals: the
// CLI's own name, the document storage root's directory name, and the
// administrator identities built into the binary independent of any
// agent file.
package constants

// CLIName is the command users invoke; used in hint text that tells a
// caller what to run next (e.g. "check your inbox: qms inbox").
const CLIName = "qms"

// RootDirName is the document storage root's directory name, the marker
// pkg/project walks parent directories looking for when no explicit
// config file is present.
const RootDirName = "QMS"

// DefaultNamespace is the namespace every project gets without an
// explicit `namespace add` call.
const DefaultNamespace = "QMS"

// HardcodedAdmins are the identities built into the binary as
// Administrator regardless of any agent file — the root accounts that
// always exist so a project is never unbootstrappable.
var HardcodedAdmins = []string{"lead", "admin"}
