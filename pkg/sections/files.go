package sections

import (
	"context"
	"strings"

	"github.com/aretw0/quill/pkg/core"
)

// FilesSection is the name of the uploads section.
const FilesSection = "files"

type upload struct {
	field    func(*core.Files) *string
	suffixes []string
}

// uploads is tried in this order; the first matching suffix wins.
var uploads = []upload{
	{func(f *core.Files) *string { return &f.AudioFile }, []string{".m4a", ".mp3"}},
	{func(f *core.Files) *string { return &f.VideoFile }, []string{".mp4", ".mov"}},
	{func(f *core.Files) *string { return &f.ResumeFile }, []string{".pdf"}},
	{func(f *core.Files) *string { return &f.Portrait }, []string{"portrait.png", "portrait.jpeg", "portrait.jpg"}},
	{func(f *core.Files) *string { return &f.Photo }, []string{"photo.png", "photo.jpeg", "photo.jpg"}},
}

// Files locates the uploads dropped into the entity directory. Uploads are
// never written or removed by the store.
type Files struct {
	repo core.Repository
}

// NewFiles creates the uploads section.
func NewFiles(repo core.Repository) *Files {
	return &Files{repo: repo}
}

func (h *Files) Name() string { return FilesSection }

// Get resolves every upload to an absolute path, or "" when absent.
func (h *Files) Get(ctx context.Context, entity string) (core.Files, error) {
	var files core.Files
	for _, u := range uploads {
		path, found, err := h.repo.FindBySuffix(ctx, entity, u.suffixes)
		if err != nil {
			return core.Files{}, sectionError(entity, FilesSection, "", err)
		}
		if found {
			*u.field(&files) = path
		}
	}
	return files, nil
}

func (h *Files) Fill(ctx context.Context, entity string, rec *core.Record) error {
	files, err := h.Get(ctx, entity)
	if err != nil {
		return err
	}
	rec.Files = files
	return nil
}

// Save is a no-op: uploads are placed by hand.
func (h *Files) Save(ctx context.Context, entity string, rec core.Record) error { return nil }

func (h *Files) Changed(next, current core.Record) bool { return false }

// Reset is a no-op: a reset keeps the uploads so the record can be regenerated.
func (h *Files) Reset(ctx context.Context, entity string) error { return nil }

// Owns matches the files directly inside the entity directory.
func (h *Files) Owns(rel string) bool {
	return rel != "" && !strings.Contains(rel, "/")
}

var _ core.Section = (*Files)(nil)
