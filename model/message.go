package model

import "time"

// Role attributes a turn to one side of the conversation.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAssistant, RoleSystem:
		return true
	}
	return false
}

// ImageAttachment is a base64-encoded image riding alongside a single message.
type ImageAttachment struct {
	Data     string `json:"data"`
	MimeType string `json:"mimeType"`
	FileName string `json:"fileName,omitempty"`
}

// DataURI returns the attachment as a data: URI.
func (a ImageAttachment) DataURI() string {
	return "data:" + a.MimeType + ";base64," + a.Data
}

// ChatMessage is one conversational turn. Array position is authoritative
// for ordering; Timestamp is advisory only.
type ChatMessage struct {
	Role      Role             `json:"role"`
	Content   string           `json:"content"`
	Timestamp time.Time        `json:"timestamp,omitzero"`
	Image     *ImageAttachment `json:"image,omitempty"`
}

// ChatRequest is the body of POST /api/chat.
type ChatRequest struct {
	Messages []ChatMessage `json:"messages"`
}

// ErrorResponse is the JSON body returned with non-2xx statuses.
type ErrorResponse struct {
	Error string `json:"error"`
}
