package sections_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/quill/pkg/core"
	"github.com/aretw0/quill/pkg/sections"
)

func TestMetadata_AbsentRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo, root := setupEntity(t, "acme")
	h := sections.NewMetadata(repo)

	m, err := h.Get(ctx, "acme")
	require.NoError(t, err)
	assert.Equal(t, core.Metadata{}, m)

	// Saving an all-absent value writes nothing at all.
	require.NoError(t, h.Save(ctx, "acme", core.Record{Name: "acme"}))
	assert.NoDirExists(t, filepath.Join(root, "acme", "metadata"))
}

func TestMetadata_SaveAndGet(t *testing.T) {
	ctx := context.Background()
	repo, root := setupEntity(t, "acme")
	h := sections.NewMetadata(repo)

	rec := core.Record{Name: "acme", Metadata: core.Metadata{
		Resume: &core.Resume{
			Name:        "Jane Doe",
			Studies:     []string{"MIT"},
			Experiences: []string{"Acme"},
			LinkedinURL: "https://linkedin.com/in/jane",
		},
		Transcript: &core.Transcript{Text: "Q: Hi\nA: Hello"},
	}}
	assert.True(t, h.Changed(rec, core.Record{}))
	require.NoError(t, h.Save(ctx, "acme", rec))

	got, err := h.Get(ctx, "acme")
	require.NoError(t, err)
	assert.Equal(t, rec.Metadata.Resume, got.Resume)
	assert.Equal(t, rec.Metadata.Transcript, got.Transcript)
	assert.Nil(t, got.Utterances)
	assert.Nil(t, got.Guest)

	for _, name := range []string{"transcript.txt", "transcript.md"} {
		data, err := os.ReadFile(filepath.Join(root, "acme", "metadata", name))
		require.NoError(t, err)
		assert.Equal(t, "Q: Hi\nA: Hello", string(data))
	}
}

func TestMetadata_NilDoesNotErase(t *testing.T) {
	ctx := context.Background()
	repo, _ := setupEntity(t, "acme")
	h := sections.NewMetadata(repo)

	guest := &core.Guest{FirstName: "Jane", Companies: []string{"Acme"}}
	require.NoError(t, h.Save(ctx, "acme", core.Record{Metadata: core.Metadata{Guest: guest}}))
	require.NoError(t, h.Save(ctx, "acme", core.Record{Metadata: core.Metadata{Transcript: &core.Transcript{Text: "t"}}}))

	got, err := h.Get(ctx, "acme")
	require.NoError(t, err)
	assert.Equal(t, guest, got.Guest)
	assert.Equal(t, "t", got.Transcript.Text)
}

func TestMetadata_UnchangedSaveWritesNothing(t *testing.T) {
	ctx := context.Background()
	repo, root := setupEntity(t, "acme")
	h := sections.NewMetadata(repo)

	rec := core.Record{Metadata: core.Metadata{Resume: &core.Resume{Name: "Jane"}}}
	require.NoError(t, h.Save(ctx, "acme", rec))

	path := filepath.Join(root, "acme", "metadata", "resume.json")
	past := time.Now().Add(-time.Hour).Truncate(time.Second)
	require.NoError(t, os.Chtimes(path, past, past))

	current := core.Record{}
	require.NoError(t, h.Fill(ctx, "acme", &current))
	assert.False(t, h.Changed(rec, current))
	require.NoError(t, h.Save(ctx, "acme", rec))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.True(t, info.ModTime().Equal(past), "resume.json was rewritten")
}

func TestMetadata_Corrupt(t *testing.T) {
	ctx := context.Background()
	repo, root := setupEntity(t, "acme")
	h := sections.NewMetadata(repo)

	touch(t, filepath.Join(root, "acme", "metadata", "utterances.json"), "{oops")

	_, err := h.Get(ctx, "acme")
	require.ErrorIs(t, err, core.ErrSectionCorrupt)

	var se *core.SectionError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "acme", se.Entity)
	assert.Equal(t, sections.MetadataSection, se.Section)
	assert.Equal(t, "acme/metadata/utterances.json", se.Path)
}

func TestMetadata_Reset(t *testing.T) {
	ctx := context.Background()
	repo, root := setupEntity(t, "acme")
	h := sections.NewMetadata(repo)

	require.NoError(t, h.Save(ctx, "acme", core.Record{Metadata: core.Metadata{Resume: &core.Resume{Name: "Jane"}}}))
	touch(t, filepath.Join(root, "acme", "cv.pdf"), "pdf")

	require.NoError(t, h.Reset(ctx, "acme"))
	assert.NoDirExists(t, filepath.Join(root, "acme", "metadata"))
	assert.FileExists(t, filepath.Join(root, "acme", "cv.pdf"))

	assert.True(t, h.Owns("metadata/transcript.md"))
	assert.False(t, h.Owns("content/title.txt"))
}
