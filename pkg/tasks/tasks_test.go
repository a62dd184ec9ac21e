package tasks

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/whharris917/qms-cli/pkg/project"
)

func TestGenerateWritesTaskPerAssignee(t *testing.T) {
	root := t.TempDir()
	p := &project.Project{Root: root}
	cache := NewConfigCache(root)

	err := Generate(p, cache, TaskReview, "REVIEW", "SOP", "SOP-001", "claude", "2026-03-01", "0.1", []string{"qa", "lead"}, "")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	for _, user := range []string{"qa", "lead"} {
		path := p.TaskPath(user, "SOP-001", "REVIEW", "0.1")
		if _, err := os.Stat(path); err != nil {
			t.Errorf("expected task file for %s: %v", user, err)
		}
	}
}

func TestGenerateUsesDefaultWhenNoPromptFiles(t *testing.T) {
	root := t.TempDir()
	p := &project.Project{Root: root}
	cache := NewConfigCache(root)

	if err := Generate(p, cache, TaskApproval, "APPROVAL", "SOP", "SOP-001", "claude", "2026-03-01", "1.0", []string{"qa"}, ""); err != nil {
		t.Fatalf("Generate: %v", err)
	}

	path := p.TaskPath("qa", "SOP-001", "APPROVAL", "1.0")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read task: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("expected non-empty task content")
	}
}

func TestDeleteForUserRemovesOnlyMatchingDoc(t *testing.T) {
	root := t.TempDir()
	p := &project.Project{Root: root}
	cache := NewConfigCache(root)

	if err := Generate(p, cache, TaskReview, "REVIEW", "SOP", "SOP-001", "claude", "2026-03-01", "0.1", []string{"qa"}, ""); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if err := Generate(p, cache, TaskReview, "REVIEW", "SOP", "SOP-002", "claude", "2026-03-01", "0.1", []string{"qa"}, ""); err != nil {
		t.Fatalf("Generate: %v", err)
	}

	if err := DeleteForUser(p, "qa", "SOP-001"); err != nil {
		t.Fatalf("DeleteForUser: %v", err)
	}

	entries, err := os.ReadDir(p.InboxDir("qa"))
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 1 || filepath.Base(entries[0].Name()) != "task-SOP-002-review-v0-1.md" {
		t.Fatalf("expected only SOP-002 task to remain, got %v", entries)
	}
}

func TestResolveFallsBackToDefault(t *testing.T) {
	cache := NewConfigCache(t.TempDir())
	cfg := cache.Resolve(TaskReview, "REVIEW", "SOP")
	if len(cfg.ChecklistItems) == 0 {
		t.Fatal("expected non-empty default checklist")
	}
}
