// Package core holds the record model, the storage ports and the store facade.
package core

import (
	"fmt"
	"strings"
)

// Record is the aggregate of every section stored for one entity.
// It is never persisted as a whole; it is rebuilt from its sections on each read.
type Record struct {
	Name       string     `json:"name"`
	Files      Files      `json:"files"`
	Metadata   Metadata   `json:"metadata"`
	Thumbnails Thumbnails `json:"thumbnails"`
	Blog       Blog       `json:"blog"`
}

// Files references the uploads found in the entity directory.
// An empty path means the upload is absent.
type Files struct {
	AudioFile  string `json:"audio_file,omitempty"`
	VideoFile  string `json:"video_file,omitempty"`
	ResumeFile string `json:"resume_file,omitempty"`
	Portrait   string `json:"portrait,omitempty"`
	Photo      string `json:"photo,omitempty"`
}

// Metadata is the information extracted from the uploads.
type Metadata struct {
	Resume     *Resume     `json:"resume,omitempty"`
	Utterances *Utterances `json:"utterances,omitempty"`
	Transcript *Transcript `json:"transcript,omitempty"`
	Guest      *Guest      `json:"guest,omitempty"`
}

// Resume is the structured form of the uploaded resume.
type Resume struct {
	Name        string   `json:"name"`
	Studies     []string `json:"studies,omitempty"`
	Experiences []string `json:"experiences,omitempty"`
	LinkedinURL string   `json:"linkedin_url"`
}

func (r Resume) String() string {
	return fmt.Sprintf("Resume: %s\nStudies: %v\nExperiences: %v\nLinkedIn URL: %s",
		r.Name, r.Studies, r.Experiences, r.LinkedinURL)
}

// Word is a single timestamped token of an utterance.
type Word struct {
	Text       string  `json:"text"`
	Start      int     `json:"start"`
	End        int     `json:"end"`
	Confidence float64 `json:"confidence"`
	Speaker    string  `json:"speaker,omitempty"`
}

// Utterance is one speaker turn as returned by the transcription provider.
type Utterance struct {
	Confidence float64 `json:"confidence"`
	Start      int     `json:"start"`
	End        int     `json:"end"`
	Speaker    string  `json:"speaker"`
	Text       string  `json:"text"`
	Words      []Word  `json:"words,omitempty"`
}

// Utterances is the full diarized transcription.
type Utterances struct {
	Utterances []Utterance `json:"utterances,omitempty"`
}

// Transcript is the annotated plain-text transcript.
type Transcript struct {
	Text string `json:"text"`
}

func (t Transcript) String() string { return t.Text }

// Guest is the enriched guest profile used for thumbnails and prompts.
type Guest struct {
	FirstName    string   `json:"first_name"`
	Origin       string   `json:"origin,omitempty"`
	Companies    []string `json:"companies,omitempty"`
	Universities []string `json:"universities,omitempty"`
}

// ThumbnailText is the text rendered onto the thumbnails.
type ThumbnailText struct {
	FirstName    string   `json:"first_name"`
	Companies    []string `json:"companies,omitempty"`
	Universities []string `json:"universities,omitempty"`
}

// ThumbnailParams positions the text and portrait on one raster variant.
type ThumbnailParams struct {
	Height int `json:"height"`
	Width  int `json:"width"`

	CompaniesFontSize int `json:"companies_font_size"`
	CompaniesXOffset  int `json:"companies_x_offset"`
	CompaniesYOffset  int `json:"companies_y_offset"`

	UniversitiesFontSize int `json:"universities_font_size"`
	UniversitiesXOffset  int `json:"universities_x_offset"`
	UniversitiesYOffset  int `json:"universities_y_offset"`

	NameFontSize int `json:"name_font_size"`
	NameXOffset  int `json:"name_x_offset"`
	NameYOffset  int `json:"name_y_offset"`

	PortraitRatio   float64 `json:"portrait_ratio"`
	PortraitAlign   string  `json:"portrait_align"`
	PortraitXOffset int     `json:"portrait_x_offset"`
	PortraitYOffset int     `json:"portrait_y_offset"`
}

// Thumbnails holds the generated rasters and the parameters that produced them.
type Thumbnails struct {
	ThumbnailText   *ThumbnailText   `json:"thumbnail_text,omitempty"`
	PhotoNoBg       []byte           `json:"photo_no_bg,omitempty"`
	Landscape       []byte           `json:"landscape,omitempty"`
	LandscapeParams *ThumbnailParams `json:"landscape_params,omitempty"`
	Square          []byte           `json:"square,omitempty"`
	SquareParams    *ThumbnailParams `json:"square_params,omitempty"`
}

// Version is one persisted revision of a generated attribute.
type Version struct {
	Number  int    `json:"number"`
	Content string `json:"content"`
}

// MissingUploads lists the uploads required before anything can be generated.
func (r Record) MissingUploads() []string {
	var missing []string
	if r.Files.AudioFile == "" {
		missing = append(missing, "audio")
	}
	if r.Files.ResumeFile == "" {
		missing = append(missing, "resume")
	}
	if r.Files.Photo == "" {
		missing = append(missing, "photo")
	}
	return missing
}

// PublishBlockers lists everything that must exist before the record can be published.
func (r Record) PublishBlockers() []string {
	var blockers []string
	if r.Files.Photo == "" {
		blockers = append(blockers, "photo")
	}
	if len(r.Thumbnails.Landscape) == 0 {
		blockers = append(blockers, "landscape thumbnail")
	}
	if len(r.Thumbnails.Square) == 0 {
		blockers = append(blockers, "square thumbnail")
	}
	if r.Metadata.Resume == nil {
		blockers = append(blockers, "resume")
	}
	for _, attr := range []string{AttrTitle, AttrDescription, AttrContent, AttrLinkedin} {
		if v := r.Blog.Get(attr); v == nil || *v == "" {
			blockers = append(blockers, attr)
		}
	}
	return blockers
}

// Summary renders a short human readable status of the record.
func (r Record) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "File: %s\n", r.Name)

	b.WriteString("Metadata:\n")
	if r.Metadata.Resume != nil {
		fmt.Fprintf(&b, "- Resume: %s\n", r.Metadata.Resume.Name)
	} else {
		b.WriteString("- Resume: Not generated\n")
	}
	fmt.Fprintf(&b, "- Utterances: %s\n", generated(r.Metadata.Utterances != nil))
	fmt.Fprintf(&b, "- Transcript: %s\n", generated(r.Metadata.Transcript != nil))

	b.WriteString("\nThumbnails:\n")
	fmt.Fprintf(&b, "- Landscape: %s\n", generated(len(r.Thumbnails.Landscape) > 0))
	fmt.Fprintf(&b, "- Square: %s\n", generated(len(r.Thumbnails.Square) > 0))

	b.WriteString("\nBlog:\n")
	for _, attr := range BlogAttributes {
		v := r.Blog.Get(attr)
		if v == nil {
			fmt.Fprintf(&b, "- %s: Not generated\n", attr)
			continue
		}
		fmt.Fprintf(&b, "- %s (v%d): %s\n", attr, r.Blog.Versions[attr], preview(*v, 100))
	}
	return b.String()
}

// MarkdownDraft renders the publishable draft: title, description, the guest
// overview from the resume, the blog content and the LinkedIn post.
// Sections without a value are rendered empty.
func (r Record) MarkdownDraft() string {
	text := func(attr string) string {
		if v := r.Blog.Get(attr); v != nil {
			return strings.TrimSpace(*v)
		}
		return ""
	}
	overview := ""
	if r.Metadata.Resume != nil {
		overview = r.Metadata.Resume.String()
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", text(AttrTitle))
	if d := text(AttrDescription); d != "" {
		fmt.Fprintf(&b, "%s\n\n", d)
	}
	for _, part := range []struct{ heading, body string }{
		{"Overview", overview},
		{"Blog", text(AttrContent)},
		{"LinkedIn", text(AttrLinkedin)},
	} {
		fmt.Fprintf(&b, "---\n\n## %s\n\n", part.heading)
		if part.body != "" {
			fmt.Fprintf(&b, "%s\n\n", part.body)
		}
	}
	return strings.TrimRight(b.String(), "\n") + "\n"
}

func generated(ok bool) string {
	if ok {
		return "Generated"
	}
	return "Not generated"
}

func preview(s string, n int) string {
	s = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ").Replace(s)
	runes := []rune(s)
	if len(runes) > n {
		return string(runes[:n]) + "..."
	}
	return s
}

// EventType represents the type of change observed under the root.
type EventType string

const (
	EventCreate EventType = "CREATE"
	EventModify EventType = "MODIFY"
	EventDelete EventType = "DELETE"
)

// Event represents a change to one file of an entity.
type Event struct {
	Type      EventType `json:"type"`
	Entity    string    `json:"entity"`
	Section   string    `json:"section,omitempty"`
	Path      string    `json:"path"` // relative to the entity directory
	Timestamp int64     `json:"timestamp"`
}

func (e Event) String() string {
	return fmt.Sprintf("%s %s/%s [%s]", e.Type, e.Entity, e.Path, e.Section)
}
