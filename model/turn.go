package model

// PartType identifies a ContentPart variant.
type PartType string

const (
	PartImage PartType = "image"
	PartText  PartType = "text"
)

// ContentPart is one element of a multi-part turn.
type ContentPart struct {
	Type     PartType
	Text     string
	MimeType string // image parts only
	Data     string // base64, image parts only
}

// DataURI returns the image reference for an image part.
func (p ContentPart) DataURI() string {
	return "data:" + p.MimeType + ";base64," + p.Data
}

// Turn is a message in the shape handed to a Provider. Plain turns carry
// Content; turns with an image carry Parts as [image, text] instead.
type Turn struct {
	Role    Role
	Content string
	Parts   []ContentPart
}

// HasParts reports whether the turn uses the multi-part form.
func (t Turn) HasParts() bool {
	return len(t.Parts) > 0
}

// Text returns the textual content of the turn regardless of its form.
func (t Turn) Text() string {
	if !t.HasParts() {
		return t.Content
	}
	for _, p := range t.Parts {
		if p.Type == PartText {
			return p.Text
		}
	}
	return ""
}

// ToTurns converts chat messages to provider turns, preserving order.
func ToTurns(messages []ChatMessage) []Turn {
	turns := make([]Turn, len(messages))
	for i, msg := range messages {
		if msg.Image == nil {
			turns[i] = Turn{Role: msg.Role, Content: msg.Content}
			continue
		}
		turns[i] = Turn{
			Role: msg.Role,
			Parts: []ContentPart{
				{Type: PartImage, MimeType: msg.Image.MimeType, Data: msg.Image.Data},
				{Type: PartText, Text: msg.Content},
			},
		}
	}
	return turns
}
