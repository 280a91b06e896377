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

func saveTitle(t *testing.T, h *sections.Blog, title string) {
	t.Helper()
	rec := core.Record{Name: "acme", Blog: core.Blog{Title: core.Text(title)}}
	require.NoError(t, h.Save(context.Background(), "acme", rec))
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestBlog_Empty(t *testing.T) {
	ctx := context.Background()
	repo, _ := setupEntity(t, "acme")
	h := sections.NewBlog(repo)

	bl, err := h.Get(ctx, "acme")
	require.NoError(t, err)
	for _, attr := range core.BlogAttributes {
		assert.Nil(t, bl.Get(attr), attr)
		assert.Equal(t, 0, bl.Versions[attr], attr)
	}

	history, err := h.History(ctx, "acme", core.AttrTitle)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestBlog_VersionsAreMonotonic(t *testing.T) {
	ctx := context.Background()
	repo, root := setupEntity(t, "acme")
	h := sections.NewBlog(repo)
	dir := filepath.Join(root, "acme", "generated", "title")

	saveTitle(t, h, "First")
	saveTitle(t, h, "Second")
	saveTitle(t, h, "Third")

	assert.Equal(t, "First", readFile(t, filepath.Join(dir, "title_v1.txt")))
	assert.Equal(t, "Second", readFile(t, filepath.Join(dir, "title_v2.txt")))
	assert.Equal(t, "Third", readFile(t, filepath.Join(dir, "title_v3.txt")))
	assert.JSONEq(t, `{"version": 3}`, readFile(t, filepath.Join(dir, "version.json")))
	assert.Equal(t, "Third", readFile(t, filepath.Join(root, "acme", "content", "title.txt")))

	n, err := h.Version(ctx, "acme", core.AttrTitle)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	history, err := h.History(ctx, "acme", core.AttrTitle)
	require.NoError(t, err)
	assert.Equal(t, []core.Version{
		{Number: 1, Content: "First"},
		{Number: 2, Content: "Second"},
		{Number: 3, Content: "Third"},
	}, history)

	content, found, err := h.ReadVersion(ctx, "acme", core.AttrTitle, 2)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "Second", content)

	_, found, err = h.ReadVersion(ctx, "acme", core.AttrTitle, 4)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestBlog_UnchangedSaveWritesNothing(t *testing.T) {
	repo, root := setupEntity(t, "acme")
	h := sections.NewBlog(repo)

	saveTitle(t, h, "Same")

	paths := []string{
		filepath.Join(root, "acme", "generated", "title", "version.json"),
		filepath.Join(root, "acme", "generated", "title", "title_v1.txt"),
		filepath.Join(root, "acme", "content", "title.txt"),
	}
	past := time.Now().Add(-time.Hour).Truncate(time.Second)
	for _, p := range paths {
		require.NoError(t, os.Chtimes(p, past, past))
	}

	saveTitle(t, h, "Same")

	for _, p := range paths {
		info, err := os.Stat(p)
		require.NoError(t, err)
		assert.True(t, info.ModTime().Equal(past), "%s was rewritten", p)
	}
	assert.NoFileExists(t, filepath.Join(root, "acme", "generated", "title", "title_v2.txt"))
}

func TestBlog_AttributesAreIndependent(t *testing.T) {
	ctx := context.Background()
	repo, _ := setupEntity(t, "acme")
	h := sections.NewBlog(repo)

	saveTitle(t, h, "Title")
	require.NoError(t, h.Save(ctx, "acme", core.Record{Blog: core.Blog{
		Content:     core.Text("Body"),
		Description: core.Text("Desc"),
	}}))

	bl, err := h.Get(ctx, "acme")
	require.NoError(t, err)
	assert.Equal(t, "Title", *bl.Title)
	assert.Equal(t, "Body", *bl.Content)
	assert.Equal(t, "Desc", *bl.Description)
	assert.Nil(t, bl.Structure)
	assert.Equal(t, map[string]int{"structure": 0, "content": 1, "title": 1, "description": 1, "linkedin": 0}, bl.Versions)
}

func TestBlog_EmptyStringIsAValue(t *testing.T) {
	ctx := context.Background()
	repo, _ := setupEntity(t, "acme")
	h := sections.NewBlog(repo)

	saveTitle(t, h, "")

	bl, err := h.Get(ctx, "acme")
	require.NoError(t, err)
	require.NotNil(t, bl.Title)
	assert.Equal(t, "", *bl.Title)
	assert.Equal(t, 1, bl.Versions[core.AttrTitle])
}

func TestBlog_ConsistencyChecks(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name  string
		setup func(t *testing.T, root string)
	}{
		{
			name: "Dangling Pointer",
			setup: func(t *testing.T, root string) {
				require.NoError(t, os.Remove(filepath.Join(root, "acme", "generated", "title", "title_v2.txt")))
			},
		},
		{
			name: "Orphan Content",
			setup: func(t *testing.T, root string) {
				touch(t, filepath.Join(root, "acme", "generated", "title", "title_v3.txt"), "orphan")
			},
		},
		{
			name: "Diverged Mirror",
			setup: func(t *testing.T, root string) {
				touch(t, filepath.Join(root, "acme", "content", "title.txt"), "edited by hand")
			},
		},
		{
			name: "Missing Mirror",
			setup: func(t *testing.T, root string) {
				require.NoError(t, os.Remove(filepath.Join(root, "acme", "content", "title.txt")))
			},
		},
		{
			name: "Negative Pointer",
			setup: func(t *testing.T, root string) {
				touch(t, filepath.Join(root, "acme", "generated", "title", "version.json"), `{"version": -1}`)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, root := setupEntity(t, "acme")
			h := sections.NewBlog(repo)
			saveTitle(t, h, "v1")
			saveTitle(t, h, "v2")

			tt.setup(t, root)

			_, err := h.Get(ctx, "acme")
			assert.ErrorIs(t, err, core.ErrVersionMismatch)
			assert.NotErrorIs(t, err, core.ErrSectionCorrupt)

			var se *core.SectionError
			require.ErrorAs(t, err, &se)
			assert.Equal(t, sections.BlogSection, se.Section)

			// A save over an inconsistent attribute is refused.
			err = h.Save(ctx, "acme", core.Record{Blog: core.Blog{Title: core.Text("v3")}})
			assert.ErrorIs(t, err, core.ErrVersionMismatch)
		})
	}
}

func TestBlog_OrphanBeforeFirstVersion(t *testing.T) {
	ctx := context.Background()
	repo, root := setupEntity(t, "acme")
	h := sections.NewBlog(repo)

	touch(t, filepath.Join(root, "acme", "generated", "title", "title_v1.txt"), "orphan")

	_, err := h.Get(ctx, "acme")
	assert.ErrorIs(t, err, core.ErrVersionMismatch)
}

func TestBlog_MissingVersionKeyIsZero(t *testing.T) {
	ctx := context.Background()
	repo, root := setupEntity(t, "acme")
	h := sections.NewBlog(repo)

	touch(t, filepath.Join(root, "acme", "generated", "title", "version.json"), `{}`)

	n, err := h.Version(ctx, "acme", core.AttrTitle)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	saveTitle(t, h, "First")
	assert.Equal(t, "First", readFile(t, filepath.Join(root, "acme", "generated", "title", "title_v1.txt")))
}

func TestBlog_CorruptPointer(t *testing.T) {
	ctx := context.Background()
	repo, root := setupEntity(t, "acme")
	h := sections.NewBlog(repo)

	touch(t, filepath.Join(root, "acme", "generated", "content", "version.json"), `not json`)

	_, err := h.Get(ctx, "acme")
	assert.ErrorIs(t, err, core.ErrSectionCorrupt)
}

func TestBlog_UnknownAttribute(t *testing.T) {
	ctx := context.Background()
	repo, _ := setupEntity(t, "acme")
	h := sections.NewBlog(repo)

	_, err := h.History(ctx, "acme", "subtitle")
	assert.ErrorIs(t, err, core.ErrUnknownAttribute)
	_, _, err = h.ReadVersion(ctx, "acme", "subtitle", 1)
	assert.ErrorIs(t, err, core.ErrUnknownAttribute)
}

func TestBlog_Reset(t *testing.T) {
	ctx := context.Background()
	repo, root := setupEntity(t, "acme")
	h := sections.NewBlog(repo)

	saveTitle(t, h, "Title")
	touch(t, filepath.Join(root, "acme", "content", "square.png"), "png")

	require.NoError(t, h.Reset(ctx, "acme"))
	assert.NoDirExists(t, filepath.Join(root, "acme", "generated"))
	assert.NoFileExists(t, filepath.Join(root, "acme", "content", "title.txt"))
	assert.FileExists(t, filepath.Join(root, "acme", "content", "square.png"))

	// History restarts at 1.
	saveTitle(t, h, "Again")
	n, err := h.Version(ctx, "acme", core.AttrTitle)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestBlog_Owns(t *testing.T) {
	h := sections.NewBlog(nil)

	assert.True(t, h.Owns("generated/title/version.json"))
	assert.True(t, h.Owns("content/linkedin.txt"))
	assert.False(t, h.Owns("content/notes.txt"))
	assert.False(t, h.Owns("content/square.png"))
	assert.False(t, h.Owns("metadata/transcript.txt"))
}
