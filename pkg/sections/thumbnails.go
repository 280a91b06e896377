package sections

import (
	"context"
	"path"
	"strings"

	"github.com/aretw0/quill/pkg/core"
)

// ThumbnailsSection is the name of the thumbnails section.
const ThumbnailsSection = "thumbnails"

const (
	thumbnailsDir = "thumbnails"
	contentDir    = "content"
)

// The final rasters live with the published content; everything that
// produced them lives under thumbnails/.
const (
	photoNoBgFile       = thumbnailsDir + "/photo_no_bg.png"
	thumbnailTextFile   = thumbnailsDir + "/thumbnail_text.json"
	landscapeParamsFile = thumbnailsDir + "/landscape_params.json"
	squareParamsFile    = thumbnailsDir + "/square_params.json"
	landscapeFile       = contentDir + "/landscape.png"
	squareFile          = contentDir + "/square.png"
)

// Thumbnails stores the generated rasters and their parameters.
// Each field is compared and written on its own.
type Thumbnails struct {
	repo core.Repository
}

// NewThumbnails creates the thumbnails section.
func NewThumbnails(repo core.Repository) *Thumbnails {
	return &Thumbnails{repo: repo}
}

func (h *Thumbnails) Name() string { return ThumbnailsSection }

func (h *Thumbnails) Get(ctx context.Context, entity string) (core.Thumbnails, error) {
	var (
		t   core.Thumbnails
		err error
	)

	fail := func(rel string, err error) (core.Thumbnails, error) {
		return core.Thumbnails{}, sectionError(entity, ThumbnailsSection, path.Join(entity, rel), err)
	}

	if t.ThumbnailText, err = getJSON[core.ThumbnailText](ctx, h.repo, path.Join(entity, thumbnailTextFile)); err != nil {
		return fail(thumbnailTextFile, err)
	}
	if t.LandscapeParams, err = getJSON[core.ThumbnailParams](ctx, h.repo, path.Join(entity, landscapeParamsFile)); err != nil {
		return fail(landscapeParamsFile, err)
	}
	if t.SquareParams, err = getJSON[core.ThumbnailParams](ctx, h.repo, path.Join(entity, squareParamsFile)); err != nil {
		return fail(squareParamsFile, err)
	}
	if t.PhotoNoBg, _, err = h.repo.GetBinary(ctx, path.Join(entity, photoNoBgFile)); err != nil {
		return fail(photoNoBgFile, err)
	}
	if t.Landscape, _, err = h.repo.GetBinary(ctx, path.Join(entity, landscapeFile)); err != nil {
		return fail(landscapeFile, err)
	}
	if t.Square, _, err = h.repo.GetBinary(ctx, path.Join(entity, squareFile)); err != nil {
		return fail(squareFile, err)
	}
	return t, nil
}

func (h *Thumbnails) Fill(ctx context.Context, entity string, rec *core.Record) error {
	t, err := h.Get(ctx, entity)
	if err != nil {
		return err
	}
	rec.Thumbnails = t
	return nil
}

func (h *Thumbnails) Save(ctx context.Context, entity string, rec core.Record) error {
	current, err := h.Get(ctx, entity)
	if err != nil {
		return err
	}
	next := rec.Thumbnails

	ws, err := begin(ctx, h.repo)
	if err != nil {
		return sectionError(entity, ThumbnailsSection, "", err)
	}
	if changedJSON(next.ThumbnailText, current.ThumbnailText) {
		ws.json(path.Join(entity, thumbnailTextFile), next.ThumbnailText)
	}
	if changedJSON(next.LandscapeParams, current.LandscapeParams) {
		ws.json(path.Join(entity, landscapeParamsFile), next.LandscapeParams)
	}
	if changedJSON(next.SquareParams, current.SquareParams) {
		ws.json(path.Join(entity, squareParamsFile), next.SquareParams)
	}
	if changedBytes(next.PhotoNoBg, current.PhotoNoBg) {
		ws.binary(path.Join(entity, photoNoBgFile), next.PhotoNoBg)
	}
	if changedBytes(next.Landscape, current.Landscape) {
		ws.binary(path.Join(entity, landscapeFile), next.Landscape)
	}
	if changedBytes(next.Square, current.Square) {
		ws.binary(path.Join(entity, squareFile), next.Square)
	}
	if err := ws.commit(ctx); err != nil {
		return sectionError(entity, ThumbnailsSection, "", err)
	}
	return nil
}

func (h *Thumbnails) Changed(next, current core.Record) bool {
	n, c := next.Thumbnails, current.Thumbnails
	return changedJSON(n.ThumbnailText, c.ThumbnailText) ||
		changedJSON(n.LandscapeParams, c.LandscapeParams) ||
		changedJSON(n.SquareParams, c.SquareParams) ||
		changedBytes(n.PhotoNoBg, c.PhotoNoBg) ||
		changedBytes(n.Landscape, c.Landscape) ||
		changedBytes(n.Square, c.Square)
}

func (h *Thumbnails) Reset(ctx context.Context, entity string) error {
	for _, rel := range []string{thumbnailsDir, landscapeFile, squareFile} {
		if err := h.repo.RemoveAll(ctx, path.Join(entity, rel)); err != nil {
			return sectionError(entity, ThumbnailsSection, rel, err)
		}
	}
	return nil
}

func (h *Thumbnails) Owns(rel string) bool {
	return strings.HasPrefix(rel, thumbnailsDir+"/") || rel == landscapeFile || rel == squareFile
}

var _ core.Section = (*Thumbnails)(nil)
