package sections

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/aretw0/quill/pkg/core"
)

// BlogSection is the name of the generated text section.
const BlogSection = "blog"

const generatedDir = "generated"

// versionPointer is the content of version.json. A missing key reads as 0.
type versionPointer struct {
	Version int `json:"version"`
}

// Blog keeps every revision of the generated text attributes.
//
// For an attribute a at version N the layout is:
//
//	generated/a/a_v1.txt ... a_vN.txt   append-only history
//	generated/a/version.json            {"version": N}
//	content/a.txt                       copy of a_vN.txt
//
// A save stages all three writes in one batch, so a reader sees either the old
// or the new version unless the process dies during the final renames. Any such
// leftover is reported as ErrVersionMismatch on the next read.
type Blog struct {
	repo core.Repository
}

// NewBlog creates the versioned text section.
func NewBlog(repo core.Repository) *Blog {
	return &Blog{repo: repo}
}

func (h *Blog) Name() string { return BlogSection }

func (h *Blog) dir(entity, attr string) string {
	return path.Join(entity, generatedDir, attr)
}

func (h *Blog) pointerPath(entity, attr string) string {
	return path.Join(h.dir(entity, attr), "version.json")
}

func (h *Blog) versionPath(entity, attr string, n int) string {
	return path.Join(h.dir(entity, attr), fmt.Sprintf("%s_v%d.txt", attr, n))
}

func (h *Blog) mirrorPath(entity, attr string) string {
	return path.Join(entity, contentDir, attr+".txt")
}

func (h *Blog) fail(entity, rel string, err error) error {
	return sectionError(entity, BlogSection, rel, err)
}

// pointer returns the stored version of attr, 0 when it was never generated.
func (h *Blog) pointer(ctx context.Context, entity, attr string) (int, error) {
	p := h.pointerPath(entity, attr)
	var ptr versionPointer
	if _, err := h.repo.GetJSON(ctx, p, &ptr); err != nil {
		return 0, h.fail(entity, p, err)
	}
	if ptr.Version < 0 {
		return 0, h.fail(entity, p, mismatch("negative version %d", ptr.Version))
	}
	return ptr.Version, nil
}

// read returns the current value and version of attr after checking that the
// pointer, the history and the mirror agree.
func (h *Blog) read(ctx context.Context, entity, attr string) (*string, int, error) {
	n, err := h.pointer(ctx, entity, attr)
	if err != nil {
		return nil, 0, err
	}

	orphan := h.versionPath(entity, attr, n+1)
	exists, err := h.repo.Exists(ctx, orphan)
	if err != nil {
		return nil, 0, h.fail(entity, orphan, err)
	}
	if exists {
		return nil, 0, h.fail(entity, orphan, mismatch("%s is not referenced by version %d", path.Base(orphan), n))
	}

	if n == 0 {
		return nil, 0, nil
	}

	vp := h.versionPath(entity, attr, n)
	content, found, err := h.repo.GetText(ctx, vp)
	if err != nil {
		return nil, 0, h.fail(entity, vp, err)
	}
	if !found {
		return nil, 0, h.fail(entity, vp, mismatch("version %d has no content", n))
	}

	mp := h.mirrorPath(entity, attr)
	mirror, found, err := h.repo.GetText(ctx, mp)
	if err != nil {
		return nil, 0, h.fail(entity, mp, err)
	}
	if !found || mirror != content {
		return nil, 0, h.fail(entity, mp, mismatch("mirror does not match version %d", n))
	}

	return &content, n, nil
}

// Get reads every attribute and fills Versions.
func (h *Blog) Get(ctx context.Context, entity string) (core.Blog, error) {
	bl := core.Blog{Versions: make(map[string]int, len(core.BlogAttributes))}
	for _, attr := range core.BlogAttributes {
		value, n, err := h.read(ctx, entity, attr)
		if err != nil {
			return core.Blog{}, err
		}
		_ = bl.Set(attr, value)
		bl.Versions[attr] = n
	}
	return bl, nil
}

func (h *Blog) Fill(ctx context.Context, entity string, rec *core.Record) error {
	bl, err := h.Get(ctx, entity)
	if err != nil {
		return err
	}
	rec.Blog = bl
	return nil
}

// Save appends a new version for every attribute of rec that is set and
// differs from the current one.
func (h *Blog) Save(ctx context.Context, entity string, rec core.Record) error {
	current, err := h.Get(ctx, entity)
	if err != nil {
		return err
	}

	ws, err := begin(ctx, h.repo)
	if err != nil {
		return h.fail(entity, "", err)
	}
	for _, attr := range core.BlogAttributes {
		next := rec.Blog.Get(attr)
		if !changedText(next, current.Get(attr)) {
			continue
		}

		n := current.Versions[attr] + 1
		vp := h.versionPath(entity, attr, n)
		exists, err := h.repo.Exists(ctx, vp)
		if err != nil {
			_ = ws.batch.Rollback(ctx)
			return h.fail(entity, vp, err)
		}
		if exists {
			_ = ws.batch.Rollback(ctx)
			return h.fail(entity, vp, mismatch("version %d already exists", n))
		}

		ws.text(vp, *next)
		ws.json(h.pointerPath(entity, attr), versionPointer{Version: n})
		ws.text(h.mirrorPath(entity, attr), *next)
	}
	if err := ws.commit(ctx); err != nil {
		return h.fail(entity, "", err)
	}
	return nil
}

func changedText(next, current *string) bool {
	if next == nil {
		return false
	}
	return current == nil || *next != *current
}

func (h *Blog) Changed(next, current core.Record) bool {
	for _, attr := range core.BlogAttributes {
		if changedText(next.Blog.Get(attr), current.Blog.Get(attr)) {
			return true
		}
	}
	return false
}

// Reset drops the whole history and the mirrors.
func (h *Blog) Reset(ctx context.Context, entity string) error {
	if err := h.repo.RemoveAll(ctx, path.Join(entity, generatedDir)); err != nil {
		return h.fail(entity, generatedDir, err)
	}
	for _, attr := range core.BlogAttributes {
		mp := h.mirrorPath(entity, attr)
		if err := h.repo.RemoveAll(ctx, mp); err != nil {
			return h.fail(entity, mp, err)
		}
	}
	return nil
}

func (h *Blog) Owns(rel string) bool {
	if strings.HasPrefix(rel, generatedDir+"/") {
		return true
	}
	name, ok := strings.CutPrefix(rel, contentDir+"/")
	if !ok {
		return false
	}
	attr, ok := strings.CutSuffix(name, ".txt")
	return ok && core.IsBlogAttribute(attr)
}

// Version returns the current version of attr, 0 if it was never generated.
func (h *Blog) Version(ctx context.Context, entity, attr string) (int, error) {
	if !core.IsBlogAttribute(attr) {
		return 0, core.UnknownAttribute(attr)
	}
	_, n, err := h.read(ctx, entity, attr)
	return n, err
}

// History returns versions 1 through the current one, oldest first.
func (h *Blog) History(ctx context.Context, entity, attr string) ([]core.Version, error) {
	n, err := h.Version(ctx, entity, attr)
	if err != nil {
		return nil, err
	}

	versions := make([]core.Version, 0, n)
	for i := 1; i <= n; i++ {
		vp := h.versionPath(entity, attr, i)
		content, found, err := h.repo.GetText(ctx, vp)
		if err != nil {
			return nil, h.fail(entity, vp, err)
		}
		if !found {
			return nil, h.fail(entity, vp, mismatch("history has a gap at version %d of %d", i, n))
		}
		versions = append(versions, core.Version{Number: i, Content: content})
	}
	return versions, nil
}

// ReadVersion returns version n of attr. Versions outside 1 through the
// current one are reported as not found.
func (h *Blog) ReadVersion(ctx context.Context, entity, attr string, n int) (string, bool, error) {
	current, err := h.Version(ctx, entity, attr)
	if err != nil {
		return "", false, err
	}
	if n < 1 || n > current {
		return "", false, nil
	}

	vp := h.versionPath(entity, attr, n)
	content, found, err := h.repo.GetText(ctx, vp)
	if err != nil {
		return "", false, h.fail(entity, vp, err)
	}
	if !found {
		return "", false, h.fail(entity, vp, mismatch("history has a gap at version %d of %d", n, current))
	}
	return content, true, nil
}

var _ core.VersionedSection = (*Blog)(nil)
