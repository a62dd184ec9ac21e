package cli

import (
	"os"
	"path/filepath"

	"github.com/whharris917/qms-cli/pkg/config"
	"github.com/whharris917/qms-cli/pkg/project"
	"github.com/whharris917/qms-cli/pkg/qmserrors"
)

// Init bootstraps a fresh project at dir: the qms.config.json marker,
// the QMS/ storage skeleton for every base document type, and the
// hardcoded-administrator-only .claude/agents directory. It refuses to
// run twice against the same root.
func Init(dir string) error {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return err
	}
	marker := filepath.Join(abs, project.ConfigFileName)
	if _, err := os.Stat(marker); err == nil {
		return qmserrors.New(qmserrors.ExistingInfrastructure, "a project already exists at %s", abs)
	}

	cfg := config.New()
	if err := config.Write(marker, cfg); err != nil {
		return err
	}

	qmsDir := filepath.Join(abs, "QMS")
	for _, sub := range []string{"SOP", "CR", "INV", "TEMPLATE", "SDLC-QMS", ".meta", ".audit", ".archive"} {
		if err := os.MkdirAll(filepath.Join(qmsDir, sub), 0o755); err != nil {
			return err
		}
	}
	if err := os.MkdirAll(filepath.Join(abs, ".claude", "agents"), 0o755); err != nil {
		return err
	}
	return os.MkdirAll(filepath.Join(abs, ".claude", "users"), 0o755)
}
