package fs

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/aretw0/quill/pkg/core"
)

// DefaultLockPoll is how often a contended lock is retried.
const DefaultLockPoll = 10 * time.Millisecond

// Locker is an advisory, file-based lock per entity. Every process writing to
// the same root must use it for the exclusion to hold.
//
// The lock file holds the PID of its owner. A lock whose owner is no longer
// running, or that is older than StaleAfter when set, is reclaimed.
type Locker struct {
	Dir        string // e.g. <root>/.quill/locks
	Poll       time.Duration
	StaleAfter time.Duration // 0 disables the age check
	Logger     *slog.Logger
}

// NewLocker creates a Locker keeping its lock files under the repository's system directory.
func NewLocker(repo *Repository) *Locker {
	return &Locker{
		Dir:    filepath.Join(repo.Path, repo.config.SystemDir, "locks"),
		Poll:   DefaultLockPoll,
		Logger: repo.config.Logger,
	}
}

// Lock acquires the lock file for entity. It blocks until the lock is acquired
// or ctx is done.
func (l *Locker) Lock(ctx context.Context, entity string) (func(), error) {
	if !filepath.IsLocal(entity) || filepath.Base(entity) != entity {
		return nil, fmt.Errorf("invalid entity name %q", entity)
	}
	if err := os.MkdirAll(l.Dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create lock directory: %w", err)
	}

	poll := l.Poll
	if poll <= 0 {
		poll = DefaultLockPoll
	}
	lockPath := filepath.Join(l.Dir, entity+".lock")

	for {
		// Try to create lock file atomically
		f, err := os.OpenFile(lockPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
		if err == nil {
			_, _ = f.WriteString(strconv.Itoa(os.Getpid()))
			f.Close()
			return func() {
				os.Remove(lockPath)
			}, nil
		}

		if !os.IsExist(err) {
			return nil, fmt.Errorf("failed to acquire lock: %w", err)
		}

		reclaimed, err := l.reclaimStale(lockPath)
		if err != nil {
			return nil, err
		}
		if reclaimed {
			continue
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("waiting for %s: %w", lockPath, ctx.Err())
		case <-time.After(poll):
		}
	}
}

// reclaimStale removes lockPath when its owner is gone or it has expired.
// The file is only removed if it still holds what was inspected, so a lock
// taken in between by another process survives.
func (l *Locker) reclaimStale(lockPath string) (bool, error) {
	data, err := os.ReadFile(lockPath)
	if errors.Is(err, os.ErrNotExist) {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to inspect lock: %w", err)
	}
	info, err := os.Stat(lockPath)
	if errors.Is(err, os.ErrNotExist) {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to inspect lock: %w", err)
	}

	reason := ""
	// An empty file is a lock still being written by its owner.
	if pid, err := strconv.Atoi(string(bytes.TrimSpace(data))); err == nil && pid > 0 && !processAlive(pid) {
		reason = fmt.Sprintf("owner %d is not running", pid)
	} else if l.StaleAfter > 0 && time.Since(info.ModTime()) > l.StaleAfter {
		reason = fmt.Sprintf("older than %s", l.StaleAfter)
	}
	if reason == "" {
		return false, nil
	}

	current, err := os.ReadFile(lockPath)
	if err != nil || !bytes.Equal(current, data) {
		return errors.Is(err, os.ErrNotExist), nil
	}
	if err := os.Remove(lockPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return false, fmt.Errorf("failed to remove stale lock: %w", err)
	}
	if l.Logger != nil {
		l.Logger.Warn("stale lock reclaimed", "path", lockPath, "reason", reason)
	}
	return true, nil
}

var _ core.Locker = (*Locker)(nil)
