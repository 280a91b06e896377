// Package quill is the composition root of the interview record store.
//
// A store is a directory. Every non-hidden subdirectory is one entity, a guest
// interview, holding the uploads (audio, video, resume, photos) and everything
// derived from them: extracted metadata, thumbnail parameters and rasters, and
// the generated blog text. The text attributes are versioned; every write
// stages the new version, its pointer and the plain mirror in one batch.
//
// Record persistence is split into sections. Saving a record only rewrites the
// sections whose content differs from what is on disk, and writes to one
// entity are serialized in process and, by default, across processes through
// lock files under the hidden system directory.
//
// Usage:
//
//	svc, err := quill.New("./interviews",
//		quill.WithAutoInit(true),
//		quill.WithLogger(logger),
//	)
//
//	rec, err := svc.GetRecord(ctx, "acme_interview")
//	version, err := svc.SetAttribute(ctx, "acme_interview", quill.AttrTitle, "A new title")
package quill
