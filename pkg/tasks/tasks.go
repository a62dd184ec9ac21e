// Package tasks turns a routing event into task files delivered to
// assignee inboxes, rendered from a hierarchical prompt configuration
// cached in memory after first load.
package tasks

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/whharris917/qms-cli/pkg/constants"
	"github.com/whharris917/qms-cli/pkg/logger"
	"github.com/whharris917/qms-cli/pkg/project"
)

var log = logger.New("tasks:generator")

// TaskType distinguishes a review task from an approval task.
type TaskType string

const (
	TaskReview   TaskType = "REVIEW"
	TaskApproval TaskType = "APPROVAL"
)

// ChecklistItem is one row of a rendered checklist table.
type ChecklistItem struct {
	Category       string `yaml:"category"`
	Item           string `yaml:"item"`
	EvidencePrompt string `yaml:"evidence_prompt,omitempty"`
}

// AdditionalSection is an optional free-form block appended after the
// checklist and reminders.
type AdditionalSection struct {
	Title   string `yaml:"title"`
	Content string `yaml:"content"`
}

// PromptConfig is the decoded shape of a prompts/<kind>/... YAML file.
type PromptConfig struct {
	ChecklistItems     []ChecklistItem     `yaml:"checklist_items"`
	CriticalReminders  []string            `yaml:"critical_reminders"`
	AdditionalSections []AdditionalSection `yaml:"additional_sections"`
}

// promptsRoot is the directory external prompt templates live under,
// relative to the project root.
const promptsRoot = "prompts"

// configCache avoids re-reading the same prompt file across multiple
// tasks generated by one routing event; the fallback lookup is pure over
// this cache for the lifetime of one command invocation.
type configCache struct {
	root  string
	cache map[string]*PromptConfig
}

// NewConfigCache builds a cache rooted at the project's prompts/
// directory.
func NewConfigCache(projectRoot string) *configCache {
	return &configCache{root: filepath.Join(projectRoot, promptsRoot), cache: make(map[string]*PromptConfig)}
}

// Resolve looks up a prompt config by the fallback chain:
// (task,workflow,doctype) → (task,workflow,*) → (task,*,doctype) →
// (task,*,*) → a hardcoded minimal default, so a task can always be
// generated even with no prompt files installed at all.
func (c *configCache) Resolve(taskType TaskType, workflowType, docType string) *PromptConfig {
	kind := "review"
	if taskType == TaskApproval {
		kind = "approval"
	}

	wf := strings.ToLower(workflowType)
	dt := strings.ToLower(docType)

	candidates := []string{
		filepath.Join(c.root, kind, wf, dt+".yaml"),
		filepath.Join(c.root, kind, wf, "_default.yaml"),
		filepath.Join(c.root, kind, dt+".yaml"),
		filepath.Join(c.root, kind, "_default.yaml"),
	}

	for _, path := range candidates {
		if cfg := c.load(path); cfg != nil {
			return cfg
		}
	}
	return defaultConfig(kind)
}

func (c *configCache) load(path string) *PromptConfig {
	if cfg, ok := c.cache[path]; ok {
		return cfg
	}

	data, err := os.ReadFile(path)
	if err != nil {
		c.cache[path] = nil
		return nil
	}

	var cfg PromptConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		log.Printf("malformed prompt config %s: %v", path, err)
		c.cache[path] = nil
		return nil
	}
	c.cache[path] = &cfg
	return &cfg
}

func defaultConfig(kind string) *PromptConfig {
	if kind == "approval" {
		return &PromptConfig{
			ChecklistItems: []ChecklistItem{
				{Category: "General", Item: "Confirm the review comments were addressed."},
			},
			CriticalReminders: []string{"Approval bumps the document to its next major version."},
		}
	}
	return &PromptConfig{
		ChecklistItems: []ChecklistItem{
			{Category: "General", Item: "Read the document in full before recording an outcome."},
		},
		CriticalReminders: []string{"Use --comment to leave feedback visible once the review cycle completes."},
	}
}

// Task is the rendered unit delivered to one assignee's inbox.
type Task struct {
	TaskID        string
	TaskType      TaskType
	WorkflowType  string
	DocID         string
	AssignedBy    string
	AssignedDate  string
	Version       string
	Body          string
	CorrelationID string
}

// TaskID derives a stable identifier from docID, workflow type, and
// version — re-routing the same assignees overwrites the same task file
// under the same ID.
func TaskID(docID, workflowType, version string) string {
	return fmt.Sprintf("%s-%s-v%s", docID, strings.ToLower(workflowType), version)
}

// Generate renders one task per assignee for a routing event and writes
// it to that assignee's inbox. correlationID, when non-empty, is stamped
// into every rendered task's frontmatter so it can be traced back to the
// ROUTE_REVIEW/ROUTE_APPROVAL audit entry that created it.
func Generate(p *project.Project, cache *configCache, taskType TaskType, workflowType, docType, docID, assignedBy, assignedDate, version string, assignees []string, correlationID string) error {
	cfg := cache.Resolve(taskType, workflowType, docType)
	body := render(cfg, taskType, workflowType, docID)

	for _, user := range assignees {
		t := Task{
			TaskID:        TaskID(docID, workflowType, version),
			TaskType:      taskType,
			WorkflowType:  workflowType,
			DocID:         docID,
			AssignedBy:    assignedBy,
			AssignedDate:  assignedDate,
			Version:       version,
			Body:          body,
			CorrelationID: correlationID,
		}
		if err := write(p, user, t); err != nil {
			return err
		}
	}
	return nil
}

func render(cfg *PromptConfig, taskType TaskType, workflowType, docID string) string {
	var b strings.Builder
	verb := "review"
	if taskType == TaskApproval {
		verb = "approve"
	}

	label := "Review"
	if taskType == TaskApproval {
		label = "Approval"
	}
	fmt.Fprintf(&b, "# %s required: %s\n\n", label, docID)

	if len(cfg.ChecklistItems) > 0 {
		b.WriteString("## Checklist\n\n")
		b.WriteString("| Category | Item |\n|---|---|\n")
		for _, item := range cfg.ChecklistItems {
			fmt.Fprintf(&b, "| %s | %s |\n", item.Category, item.Item)
			if item.EvidencePrompt != "" {
				fmt.Fprintf(&b, "| | _Evidence: %s_ |\n", item.EvidencePrompt)
			}
		}
		b.WriteString("\n")
	}

	if len(cfg.CriticalReminders) > 0 {
		b.WriteString("## Critical reminders\n\n")
		for _, r := range cfg.CriticalReminders {
			fmt.Fprintf(&b, "- %s\n", r)
		}
		b.WriteString("\n")
	}

	for _, section := range cfg.AdditionalSections {
		fmt.Fprintf(&b, "## %s\n\n%s\n\n", section.Title, section.Content)
	}

	fmt.Fprintf(&b, "## Action\n\nRun `%s %s %s --comment \"...\"` to submit your %s.\n", constants.CLIName, verb, docID, workflowType)
	return b.String()
}

func write(p *project.Project, user string, t Task) error {
	path := p.TaskPath(user, t.DocID, t.WorkflowType, t.Version)
	fm := map[string]any{
		"task_id":       t.TaskID,
		"task_type":     string(t.TaskType),
		"workflow_type": t.WorkflowType,
		"doc_id":        t.DocID,
		"assigned_by":   t.AssignedBy,
		"assigned_date": t.AssignedDate,
		"version":       t.Version,
	}
	if t.CorrelationID != "" {
		fm["correlation_id"] = t.CorrelationID
	}

	yamlBytes, err := yaml.Marshal(fm)
	if err != nil {
		return err
	}

	var content strings.Builder
	content.WriteString("---\n")
	content.Write(yamlBytes)
	content.WriteString("---\n\n")
	content.WriteString(t.Body)

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(content.String()), 0o644)
}

// DeleteForUser removes a user's own task files matching docID (any
// workflow type/version), used by `review`/`approve` after submission.
func DeleteForUser(p *project.Project, user, docID string) error {
	return deleteMatching(p.InboxDir(user), docID)
}

// DeleteAllApprovalTasks removes every approval task for docID across
// all known users' inboxes, used by `reject`.
func DeleteAllApprovalTasks(p *project.Project, users []string, docID string) error {
	for _, user := range users {
		if err := deleteMatching(p.InboxDir(user), docID); err != nil {
			return err
		}
	}
	return nil
}

func deleteMatching(dir, docID string) error {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}

	prefix := "task-" + docID + "-"
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.HasPrefix(entry.Name(), prefix) {
			if err := os.Remove(filepath.Join(dir, entry.Name())); err != nil {
				return err
			}
		}
	}
	return nil
}
