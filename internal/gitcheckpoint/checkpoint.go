// Package gitcheckpoint commits workspace changes to git after journal
// activity, so every session leaves a recoverable point in history. The
// workspace root must already be a git repository; otherwise checkpoints
// are skipped.
package gitcheckpoint

import (
	"fmt"
	"log/slog"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/qinolabs/qino/internal/models"
)

// Checkpointer shells out to git in the workspace root.
type Checkpointer struct {
	root   string
	logger *slog.Logger
}

// New creates a Checkpointer for the workspace at root.
func New(root string, logger *slog.Logger) *Checkpointer {
	return &Checkpointer{root: root, logger: logger}
}

// Enabled reports whether root is inside a git work tree.
func (c *Checkpointer) Enabled() bool {
	out, err := c.git("rev-parse", "--is-inside-work-tree")
	return err == nil && strings.TrimSpace(out) == "true"
}

// Commit stages everything and commits with message. A clean tree is not
// an error; the commit is simply skipped.
func (c *Checkpointer) Commit(message string) error {
	if _, err := c.git("add", "-A"); err != nil {
		return fmt.Errorf("gitcheckpoint: stage: %w", err)
	}

	status, err := c.git("status", "--porcelain")
	if err != nil {
		return fmt.Errorf("gitcheckpoint: status: %w", err)
	}
	if strings.TrimSpace(status) == "" {
		return nil
	}

	if _, err := c.git("commit", "-m", message); err != nil {
		return fmt.Errorf("gitcheckpoint: commit: %w", err)
	}
	return nil
}

// Subscriber returns a change subscriber that checkpoints on journal
// events. Wired behind the debounced notifier, bursts of journal writes
// collapse into one commit.
func (c *Checkpointer) Subscriber() func(models.FileChangeEvent) {
	return func(ev models.FileChangeEvent) {
		if ev.Kind != models.EventJournal {
			return
		}
		msg := fmt.Sprintf("checkpoint: journal update %s", time.Now().Format("2006-01-02 15:04"))
		if err := c.Commit(msg); err != nil {
			c.logger.Warn("git checkpoint failed", slog.String("error", err.Error()))
		}
	}
}

func (c *Checkpointer) git(args ...string) (string, error) {
	cmd := exec.Command("git", args...)
	cmd.Dir = filepath.Clean(c.root)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return string(out), fmt.Errorf("git %s: %v: %s", strings.Join(args, " "), err, strings.TrimSpace(string(out)))
	}
	return string(out), nil
}
