// Package editor drives the generation workflow of a record on top of the store.
//
// Every step reads the record, asks a collaborator for the missing piece and
// saves a record carrying only that piece, so a step never rewrites another
// section.
package editor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/aretw0/quill/pkg/core"
)

var (
	// ErrMissingUploads is returned when a step needs uploads that are not in the entity directory.
	ErrMissingUploads = errors.New("missing uploads")

	// ErrAlreadyGenerated is returned by Generate for an attribute that already has a value.
	ErrAlreadyGenerated = errors.New("already generated")

	// ErrNoCollaborator is returned when the step's collaborator is not configured.
	ErrNoCollaborator = errors.New("collaborator not configured")
)

// Store is the part of core.Service the editor needs.
type Store interface {
	GetRecord(ctx context.Context, entity string) (core.Record, error)
	SaveRecord(ctx context.Context, rec core.Record) error
	SetAttribute(ctx context.Context, entity, attr, value string) (int, error)
}

// Config holds the collaborators. Any of them may be nil; the steps that need
// a missing one fail with ErrNoCollaborator.
type Config struct {
	Transcriber core.Transcriber
	Resumes     core.ResumeExtractor
	Thumbnails  core.ThumbnailGenerator
	Text        core.TextGenerator
	Logger      *slog.Logger
}

// Editor runs the generation steps for one entity at a time.
type Editor struct {
	store  Store
	config Config
	logger *slog.Logger
}

// New creates an Editor over store.
func New(store Store, config Config) *Editor {
	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Editor{store: store, config: config, logger: logger}
}

func missing(what []string) error {
	return fmt.Errorf("%w: %s", ErrMissingUploads, strings.Join(what, ", "))
}

func noCollaborator(name string) error {
	return fmt.Errorf("%w: %s", ErrNoCollaborator, name)
}

// load reads the record and checks the uploads every generation step needs.
func (e *Editor) load(ctx context.Context, entity string) (core.Record, error) {
	rec, err := e.store.GetRecord(ctx, entity)
	if err != nil {
		return core.Record{}, err
	}
	if m := rec.MissingUploads(); len(m) > 0 {
		return core.Record{}, missing(m)
	}
	return rec, nil
}

// ExtractResume fills the resume metadata from the uploaded resume, unless it already exists.
func (e *Editor) ExtractResume(ctx context.Context, entity string) error {
	rec, err := e.load(ctx, entity)
	if err != nil {
		return err
	}
	if rec.Metadata.Resume != nil {
		e.logger.Debug("resume already extracted", "entity", entity)
		return nil
	}
	if e.config.Resumes == nil {
		return noCollaborator("resume extractor")
	}

	e.logger.Info("extracting resume", "entity", entity)
	resume, err := e.config.Resumes.Extract(ctx, rec)
	if err != nil {
		return fmt.Errorf("failed to extract resume for %s: %w", entity, err)
	}
	return e.store.SaveRecord(ctx, core.Record{Name: entity, Metadata: core.Metadata{Resume: resume}})
}

// Transcribe fills the utterances and then the transcript, skipping whichever already exists.
func (e *Editor) Transcribe(ctx context.Context, entity string) error {
	rec, err := e.load(ctx, entity)
	if err != nil {
		return err
	}
	if rec.Metadata.Utterances != nil && rec.Metadata.Transcript != nil {
		e.logger.Debug("transcript already generated", "entity", entity)
		return nil
	}
	if e.config.Transcriber == nil {
		return noCollaborator("transcriber")
	}

	utterances := rec.Metadata.Utterances
	if utterances == nil {
		e.logger.Info("utterances not found, transcribing", "entity", entity, "audio", rec.Files.AudioFile)
		if utterances, err = e.config.Transcriber.Transcribe(ctx, rec.Files.AudioFile); err != nil {
			return fmt.Errorf("failed to transcribe %s: %w", entity, err)
		}
		if utterances == nil {
			return fmt.Errorf("failed to transcribe %s: no utterances returned", entity)
		}
		if err := e.store.SaveRecord(ctx, core.Record{Name: entity, Metadata: core.Metadata{Utterances: utterances}}); err != nil {
			return err
		}
	}

	if rec.Metadata.Transcript == nil {
		e.logger.Info("transcript not found, generating", "entity", entity)
		transcript, err := e.config.Transcriber.Annotate(ctx, *utterances)
		if err != nil {
			return fmt.Errorf("failed to annotate transcript for %s: %w", entity, err)
		}
		return e.store.SaveRecord(ctx, core.Record{Name: entity, Metadata: core.Metadata{Transcript: transcript}})
	}
	return nil
}

// EnrichGuest fills the guest profile, unless it already exists.
func (e *Editor) EnrichGuest(ctx context.Context, entity string) error {
	rec, err := e.store.GetRecord(ctx, entity)
	if err != nil {
		return err
	}
	if rec.Metadata.Guest != nil {
		return nil
	}
	if e.config.Resumes == nil {
		return noCollaborator("resume extractor")
	}

	e.logger.Info("enriching guest", "entity", entity)
	guest, err := e.config.Resumes.EnrichGuest(ctx, rec)
	if err != nil {
		return fmt.Errorf("failed to enrich guest for %s: %w", entity, err)
	}
	return e.store.SaveRecord(ctx, core.Record{Name: entity, Metadata: core.Metadata{Guest: guest}})
}

// GenerateThumbnails always regenerates the thumbnails. It needs the photo and the resume.
func (e *Editor) GenerateThumbnails(ctx context.Context, entity string) error {
	rec, err := e.store.GetRecord(ctx, entity)
	if err != nil {
		return err
	}

	var need []string
	if rec.Files.Photo == "" {
		need = append(need, "photo")
	}
	if rec.Files.ResumeFile == "" {
		need = append(need, "resume")
	}
	if len(need) > 0 {
		return missing(need)
	}
	if e.config.Thumbnails == nil {
		return noCollaborator("thumbnail generator")
	}

	e.logger.Info("generating thumbnails", "entity", entity)
	thumbs, err := e.config.Thumbnails.Generate(ctx, rec)
	if err != nil {
		return fmt.Errorf("failed to generate thumbnails for %s: %w", entity, err)
	}
	return e.store.SaveRecord(ctx, core.Record{Name: entity, Thumbnails: thumbs})
}

// Generate produces attr for the first time and returns its version.
// An attribute that already has a value is left alone and ErrAlreadyGenerated is returned.
func (e *Editor) Generate(ctx context.Context, entity, attr string) (int, error) {
	if !core.IsBlogAttribute(attr) {
		return 0, core.UnknownAttribute(attr)
	}
	rec, err := e.load(ctx, entity)
	if err != nil {
		return 0, err
	}
	if rec.Blog.Get(attr) != nil {
		return rec.Blog.Versions[attr], fmt.Errorf("%s for %s: %w", attr, entity, ErrAlreadyGenerated)
	}
	return e.generate(ctx, rec, attr)
}

func (e *Editor) generate(ctx context.Context, rec core.Record, attr string) (int, error) {
	if e.config.Text == nil {
		return 0, noCollaborator("text generator")
	}

	e.logger.Info("generating attribute", "entity", rec.Name, "attr", attr)
	text, err := e.config.Text.Generate(ctx, attr, rec)
	if err != nil {
		return 0, fmt.Errorf("failed to generate %s for %s: %w", attr, rec.Name, err)
	}
	return e.store.SetAttribute(ctx, rec.Name, attr, text)
}

// Revise rewrites attr following instructions and returns the new version.
// An attribute without a value is generated instead.
func (e *Editor) Revise(ctx context.Context, entity, attr, instructions string) (int, error) {
	if !core.IsBlogAttribute(attr) {
		return 0, core.UnknownAttribute(attr)
	}
	rec, err := e.load(ctx, entity)
	if err != nil {
		return 0, err
	}
	if rec.Blog.Get(attr) == nil {
		e.logger.Info("attribute not generated, generating it", "entity", entity, "attr", attr)
		return e.generate(ctx, rec, attr)
	}
	if e.config.Text == nil {
		return 0, noCollaborator("text generator")
	}

	e.logger.Info("revising attribute", "entity", entity, "attr", attr, "version", rec.Blog.Versions[attr])
	text, err := e.config.Text.Revise(ctx, attr, rec, instructions)
	if err != nil {
		return 0, fmt.Errorf("failed to revise %s for %s: %w", attr, entity, err)
	}
	return e.store.SetAttribute(ctx, entity, attr, text)
}

// GenerateAll runs every step in order, skipping whatever already exists.
func (e *Editor) GenerateAll(ctx context.Context, entity string) error {
	e.logger.Info("generating all", "entity", entity)

	steps := []func(context.Context, string) error{
		e.ExtractResume,
		e.Transcribe,
		e.EnrichGuest,
		e.GenerateThumbnails,
	}
	for _, step := range steps {
		if err := step(ctx, entity); err != nil {
			return err
		}
	}

	for _, attr := range core.BlogAttributes {
		if _, err := e.Generate(ctx, entity, attr); err != nil && !errors.Is(err, ErrAlreadyGenerated) {
			return err
		}
	}

	e.logger.Info("all generated", "entity", entity)
	return nil
}
