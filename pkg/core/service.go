package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/aretw0/lifecycle"
	"github.com/bmatcuk/doublestar/v4"
)

// Config holds the collaborators of a Service.
type Config struct {
	Logger *slog.Logger
	// Locker adds cross-process exclusion on top of the in-process entity mutex.
	Locker Locker
}

// Service is the store facade. It assembles records from the sections on read
// and dispatches to the sections whose value changed on write.
//
// Writes to one entity are serialized; reads take no lock.
type Service struct {
	repo     Repository
	sections []Section
	local    *KeyedMutex
	locker   Locker
	logger   *slog.Logger

	mu       sync.RWMutex
	watchers int
}

// NewService creates a Service over repo. Sections are read and written in the given order.
func NewService(repo Repository, sections []Section, config Config) *Service {
	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Service{
		repo:     repo,
		sections: sections,
		local:    NewKeyedMutex(),
		locker:   config.Locker,
		logger:   logger,
	}
}

// Sections returns the configured sections.
func (s *Service) Sections() []Section {
	return slices.Clone(s.sections)
}

// ListEntities returns the entity names matching pattern (doublestar syntax).
// An empty pattern matches everything.
func (s *Service) ListEntities(ctx context.Context, pattern string) ([]string, error) {
	names, err := s.repo.ListEntities(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list entities: %w", err)
	}
	if pattern == "" {
		return names, nil
	}
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("invalid pattern %q: %w", pattern, doublestar.ErrBadPattern)
	}

	matched := names[:0]
	for _, name := range names {
		if ok, _ := doublestar.Match(pattern, name); ok {
			matched = append(matched, name)
		}
	}
	return matched, nil
}

// GetRecord assembles the record of entity from every section.
func (s *Service) GetRecord(ctx context.Context, entity string) (Record, error) {
	if err := s.ensureEntity(ctx, entity); err != nil {
		return Record{}, err
	}

	rec := Record{Name: entity}
	for _, sec := range s.sections {
		if err := sec.Fill(ctx, entity, &rec); err != nil {
			return Record{}, fmt.Errorf("failed to read section %s: %w", sec.Name(), err)
		}
	}
	return rec, nil
}

// SaveRecord persists the sections of rec that differ from what is stored.
// Each section's current value is re-read from disk right before the comparison.
func (s *Service) SaveRecord(ctx context.Context, rec Record) error {
	unlock, err := s.lock(ctx, rec.Name)
	if err != nil {
		return err
	}
	defer unlock()

	return s.save(ctx, rec)
}

func (s *Service) save(ctx context.Context, rec Record) error {
	if err := s.ensureEntity(ctx, rec.Name); err != nil {
		return err
	}

	for _, sec := range s.sections {
		if err := ctx.Err(); err != nil {
			return err
		}

		current := Record{Name: rec.Name}
		if err := sec.Fill(ctx, rec.Name, &current); err != nil {
			return fmt.Errorf("failed to read section %s: %w", sec.Name(), err)
		}

		if !sec.Changed(rec, current) {
			s.logger.Debug("section unchanged", "entity", rec.Name, "section", sec.Name())
			continue
		}

		if err := sec.Save(ctx, rec.Name, rec); err != nil {
			return fmt.Errorf("failed to save section %s: %w", sec.Name(), err)
		}
		s.logger.Info("section saved", "entity", rec.Name, "section", sec.Name())
	}
	return nil
}

// ResetRecord erases every section of entity. A failure stops the reset and
// leaves the remaining sections intact.
func (s *Service) ResetRecord(ctx context.Context, entity string) error {
	unlock, err := s.lock(ctx, entity)
	if err != nil {
		return err
	}
	defer unlock()

	if err := s.ensureEntity(ctx, entity); err != nil {
		return err
	}

	for _, sec := range s.sections {
		if err := sec.Reset(ctx, entity); err != nil {
			return fmt.Errorf("failed to reset section %s: %w", sec.Name(), err)
		}
	}
	s.logger.Info("record reset", "entity", entity)
	return nil
}

// SetAttribute stores value as the new content of a generated attribute and
// returns the attribute's version afterwards.
func (s *Service) SetAttribute(ctx context.Context, entity, attr, value string) (int, error) {
	vs, err := s.versioned()
	if err != nil {
		return 0, err
	}

	// Only the one attribute is carried, so stale copies of other
	// attributes cannot be written back.
	rec := Record{Name: entity}
	if err := rec.Blog.Set(attr, &value); err != nil {
		return 0, err
	}

	unlock, err := s.lock(ctx, entity)
	if err != nil {
		return 0, err
	}
	defer unlock()

	if err := s.save(ctx, rec); err != nil {
		return 0, err
	}
	n, err := vs.Version(ctx, entity, attr)
	if err != nil {
		return 0, err
	}
	s.logger.Info("attribute written", "entity", entity, "attr", attr, "version", n)
	return n, nil
}

// History returns every stored version of attr, oldest first.
func (s *Service) History(ctx context.Context, entity, attr string) ([]Version, error) {
	vs, err := s.versioned()
	if err != nil {
		return nil, err
	}
	if err := s.ensureEntity(ctx, entity); err != nil {
		return nil, err
	}
	return vs.History(ctx, entity, attr)
}

// ReadVersion returns version n of attr.
func (s *Service) ReadVersion(ctx context.Context, entity, attr string, n int) (string, bool, error) {
	vs, err := s.versioned()
	if err != nil {
		return "", false, err
	}
	if err := s.ensureEntity(ctx, entity); err != nil {
		return "", false, err
	}
	return vs.ReadVersion(ctx, entity, attr, n)
}

// Watch streams changes under the root whose root-relative path matches pattern,
// tagged with the owning section.
func (s *Service) Watch(ctx context.Context, pattern string) (<-chan Event, error) {
	w, ok := s.repo.(Watchable)
	if !ok {
		return nil, errors.New("repository does not support watching")
	}

	raw, err := w.Watch(ctx, pattern)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.watchers++
	s.mu.Unlock()

	out := make(chan Event)
	lifecycle.Go(ctx, func(ctx context.Context) error {
		defer close(out)
		defer func() {
			s.mu.Lock()
			s.watchers--
			s.mu.Unlock()
		}()

		for {
			select {
			case <-ctx.Done():
				return nil
			case e, ok := <-raw:
				if !ok {
					return nil
				}
				e.Section = s.sectionOf(e.Path)
				select {
				case out <- e:
				case <-ctx.Done():
					return nil
				}
			}
		}
	}, lifecycle.WithErrorHandler(func(err error) {
		s.logger.Error("watch relay failed", "error", err)
	}))

	return out, nil
}

func (s *Service) sectionOf(rel string) string {
	for _, sec := range s.sections {
		if sec.Owns(rel) {
			return sec.Name()
		}
	}
	return ""
}

func (s *Service) versioned() (VersionedSection, error) {
	for _, sec := range s.sections {
		if vs, ok := sec.(VersionedSection); ok {
			return vs, nil
		}
	}
	return nil, errors.New("no versioned section configured")
}

func (s *Service) ensureEntity(ctx context.Context, entity string) error {
	if entity == "" || strings.HasPrefix(entity, ".") || strings.ContainsAny(entity, `/\`) {
		return EntityNotFound(entity)
	}
	names, err := s.repo.ListEntities(ctx)
	if err != nil {
		return fmt.Errorf("failed to list entities: %w", err)
	}
	if _, found := slices.BinarySearch(names, entity); !found {
		return EntityNotFound(entity)
	}
	return nil
}

// lock acquires the in-process entity mutex and then, if configured, the
// cross-process lock.
func (s *Service) lock(ctx context.Context, entity string) (func(), error) {
	if entity == "" {
		return nil, EntityNotFound(entity)
	}

	unlockLocal, err := s.local.Lock(ctx, entity)
	if err != nil {
		return nil, fmt.Errorf("failed to lock entity %s: %w", entity, err)
	}
	if s.locker == nil {
		return unlockLocal, nil
	}

	unlockShared, err := s.locker.Lock(ctx, entity)
	if err != nil {
		unlockLocal()
		return nil, fmt.Errorf("failed to lock entity %s: %w", entity, err)
	}
	return func() {
		unlockShared()
		unlockLocal()
	}, nil
}
