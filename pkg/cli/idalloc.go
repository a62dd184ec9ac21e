package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/whharris917/qms-cli/pkg/registry"
	"github.com/whharris917/qms-cli/pkg/stringutil"
)

// allocateID implements the ID-generation rule from the project layout
// design: flat types scan their directory for max(existing)+1; nested
// types scan the parent's folder for the same pattern scoped to that
// parent; singleton SDLC types have a fixed ID; TEMPLATE is name-based.
func allocateID(p projectPaths, info registry.TypeInfo, parentID, templateName string) (string, error) {
	switch {
	case info.Singleton:
		return info.Prefix, nil
	case info.DocType == "TEMPLATE":
		return "TEMPLATE-" + strings.ToUpper(templateName), nil
	case info.ParentType != "":
		return nextChildID(p, info, parentID)
	default:
		return nextFlatID(p, info)
	}
}

// projectPaths is the subset of *project.Project this file needs,
// narrowed to keep allocation logic testable without a real Project.
type projectPaths interface {
	TypeDir(typePath string) string
}

func nextFlatID(p projectPaths, info registry.TypeInfo) (string, error) {
	re := regexp.MustCompile(`^` + regexp.QuoteMeta(info.Prefix) + `-(\d{3})`)
	max := 0
	entries, err := os.ReadDir(p.TypeDir(info.Path))
	if err != nil && !os.IsNotExist(err) {
		return "", err
	}
	for _, e := range entries {
		name := e.Name()
		if info.FolderPerDoc && !e.IsDir() {
			continue
		}
		if !info.FolderPerDoc {
			name = strings.TrimSuffix(strings.TrimSuffix(name, ".md"), "-draft")
		}
		if m := re.FindStringSubmatch(name); m != nil {
			n, _ := strconv.Atoi(m[1])
			if n > max {
				max = n
			}
		}
	}
	return fmt.Sprintf("%s-%03d", info.Prefix, max+1), nil
}

func nextChildID(p projectPaths, info registry.TypeInfo, parentID string) (string, error) {
	re := regexp.MustCompile(`^` + regexp.QuoteMeta(parentID) + `-` + regexp.QuoteMeta(info.Prefix) + `-(\d{3})`)
	max := 0
	// The physical container is always the root CR/INV folder: a TP's
	// parent (a CR ID) already is one, but an ER's parent (a TP ID) is
	// itself nested one level further, so its own root must be taken.
	container := parentID
	if root := stringutil.ParentID(parentID); root != "" {
		container = root
	}
	dir := filepath.Join(p.TypeDir(containerPath(info, container)), container)
	entries, err := os.ReadDir(dir)
	if err != nil && !os.IsNotExist(err) {
		return "", err
	}
	for _, e := range entries {
		if m := re.FindStringSubmatch(e.Name()); m != nil {
			n, _ := strconv.Atoi(m[1])
			if n > max {
				max = n
			}
		}
	}
	return fmt.Sprintf("%s-%s-%03d", parentID, info.Prefix, max+1), nil
}
