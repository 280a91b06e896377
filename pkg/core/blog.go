package core

// Generated text attributes.
const (
	AttrStructure   = "structure"
	AttrContent     = "content"
	AttrTitle       = "title"
	AttrDescription = "description"
	AttrLinkedin    = "linkedin"
)

// BlogAttributes lists the versioned attributes in generation order.
var BlogAttributes = []string{AttrStructure, AttrContent, AttrTitle, AttrDescription, AttrLinkedin}

// Blog is the generated text section. A nil attribute has not been generated yet.
type Blog struct {
	Structure   *string `json:"structure,omitempty"`
	Content     *string `json:"content,omitempty"`
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Linkedin    *string `json:"linkedin,omitempty"`

	// Versions is the current version per attribute, filled on read.
	// It does not take part in change detection.
	Versions map[string]int `json:"versions,omitempty"`
}

// IsBlogAttribute reports whether attr names a generated attribute.
func IsBlogAttribute(attr string) bool {
	return blogField(&Blog{}, attr) != nil
}

// Get returns the value of attr, or nil if it is absent or unknown.
func (bl *Blog) Get(attr string) *string {
	if f := blogField(bl, attr); f != nil {
		return *f
	}
	return nil
}

// Set assigns attr. Unknown names fail with ErrUnknownAttribute.
func (bl *Blog) Set(attr string, value *string) error {
	f := blogField(bl, attr)
	if f == nil {
		return UnknownAttribute(attr)
	}
	*f = value
	return nil
}

func blogField(bl *Blog, attr string) **string {
	switch attr {
	case AttrStructure:
		return &bl.Structure
	case AttrContent:
		return &bl.Content
	case AttrTitle:
		return &bl.Title
	case AttrDescription:
		return &bl.Description
	case AttrLinkedin:
		return &bl.Linkedin
	}
	return nil
}

// Text returns a pointer to s, for building Blog values.
func Text(s string) *string { return &s }
