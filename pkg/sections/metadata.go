package sections

import (
	"context"
	"path"
	"strings"

	"github.com/aretw0/quill/pkg/core"
)

// MetadataSection is the name of the extracted metadata section.
const MetadataSection = "metadata"

const metadataDir = "metadata"

// Metadata stores each metadata field as <entity>/metadata/<field>.json.
// The transcript is mirrored as plain text for reading outside the tool.
type Metadata struct {
	repo core.Repository
}

// NewMetadata creates the metadata section.
func NewMetadata(repo core.Repository) *Metadata {
	return &Metadata{repo: repo}
}

func (h *Metadata) Name() string { return MetadataSection }

func (h *Metadata) path(entity, name string) string {
	return path.Join(entity, metadataDir, name)
}

// Get reads every metadata field; missing files leave the field nil.
func (h *Metadata) Get(ctx context.Context, entity string) (core.Metadata, error) {
	var (
		m   core.Metadata
		err error
	)

	p := h.path(entity, "resume.json")
	if m.Resume, err = getJSON[core.Resume](ctx, h.repo, p); err != nil {
		return core.Metadata{}, sectionError(entity, MetadataSection, p, err)
	}
	p = h.path(entity, "utterances.json")
	if m.Utterances, err = getJSON[core.Utterances](ctx, h.repo, p); err != nil {
		return core.Metadata{}, sectionError(entity, MetadataSection, p, err)
	}
	p = h.path(entity, "transcript.json")
	if m.Transcript, err = getJSON[core.Transcript](ctx, h.repo, p); err != nil {
		return core.Metadata{}, sectionError(entity, MetadataSection, p, err)
	}
	p = h.path(entity, "guest.json")
	if m.Guest, err = getJSON[core.Guest](ctx, h.repo, p); err != nil {
		return core.Metadata{}, sectionError(entity, MetadataSection, p, err)
	}
	return m, nil
}

func (h *Metadata) Fill(ctx context.Context, entity string, rec *core.Record) error {
	m, err := h.Get(ctx, entity)
	if err != nil {
		return err
	}
	rec.Metadata = m
	return nil
}

// Save writes the fields of rec that are set and differ from what is stored.
func (h *Metadata) Save(ctx context.Context, entity string, rec core.Record) error {
	current, err := h.Get(ctx, entity)
	if err != nil {
		return err
	}
	next := rec.Metadata

	ws, err := begin(ctx, h.repo)
	if err != nil {
		return sectionError(entity, MetadataSection, "", err)
	}
	if changedJSON(next.Resume, current.Resume) {
		ws.json(h.path(entity, "resume.json"), next.Resume)
	}
	if changedJSON(next.Utterances, current.Utterances) {
		ws.json(h.path(entity, "utterances.json"), next.Utterances)
	}
	if changedJSON(next.Transcript, current.Transcript) {
		ws.json(h.path(entity, "transcript.json"), next.Transcript)
		ws.text(h.path(entity, "transcript.txt"), next.Transcript.Text)
		ws.text(h.path(entity, "transcript.md"), next.Transcript.Text)
	}
	if changedJSON(next.Guest, current.Guest) {
		ws.json(h.path(entity, "guest.json"), next.Guest)
	}
	if err := ws.commit(ctx); err != nil {
		return sectionError(entity, MetadataSection, "", err)
	}
	return nil
}

func (h *Metadata) Changed(next, current core.Record) bool {
	n, c := next.Metadata, current.Metadata
	return changedJSON(n.Resume, c.Resume) ||
		changedJSON(n.Utterances, c.Utterances) ||
		changedJSON(n.Transcript, c.Transcript) ||
		changedJSON(n.Guest, c.Guest)
}

func (h *Metadata) Reset(ctx context.Context, entity string) error {
	if err := h.repo.RemoveAll(ctx, path.Join(entity, metadataDir)); err != nil {
		return sectionError(entity, MetadataSection, metadataDir, err)
	}
	return nil
}

func (h *Metadata) Owns(rel string) bool {
	return strings.HasPrefix(rel, metadataDir+"/")
}

var _ core.Section = (*Metadata)(nil)
