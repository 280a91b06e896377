// Package sections implements the section handlers a record is split into.
//
// Each handler owns a fixed set of files under the entity directory and never
// touches another handler's files:
//
//	<entity>/*.mp3, *.pdf, photo.png ...   files (uploads, read only)
//	<entity>/metadata/<field>.json          metadata
//	<entity>/thumbnails/*, content/*.png    thumbnails
//	<entity>/generated/<attr>/...           blog (versioned)
//	<entity>/content/<attr>.txt             blog mirror of the current version
package sections

import "github.com/aretw0/quill/pkg/core"

// Default returns the four sections in the order records are read and written.
func Default(repo core.Repository) []core.Section {
	return []core.Section{
		NewFiles(repo),
		NewMetadata(repo),
		NewThumbnails(repo),
		NewBlog(repo),
	}
}
