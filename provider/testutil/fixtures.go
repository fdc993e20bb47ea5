package testutil

import (
	"encoding/base64"
	"time"

	"streamchat/model"
)

// TinyPNG is a 1x1 transparent PNG.
var TinyPNG = []byte{
	0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a, 0x00, 0x00, 0x00, 0x0d,
	0x49, 0x48, 0x44, 0x52, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01,
	0x08, 0x06, 0x00, 0x00, 0x00, 0x1f, 0x15, 0xc4, 0x89, 0x00, 0x00, 0x00,
	0x0d, 0x49, 0x44, 0x41, 0x54, 0x78, 0x9c, 0x63, 0x00, 0x01, 0x00, 0x00,
	0x05, 0x00, 0x01, 0x0d, 0x0a, 0x2d, 0xb4, 0x00, 0x00, 0x00, 0x00, 0x49,
	0x45, 0x4e, 0x44, 0xae, 0x42, 0x60, 0x82,
}

// TestMessages returns a sample conversation for testing
func TestMessages() []model.ChatMessage {
	return []model.ChatMessage{
		{
			Role:      model.RoleUser,
			Content:   "Hello, how are you?",
			Timestamp: time.Now(),
		},
		{
			Role:      model.RoleAssistant,
			Content:   "I'm doing well, thank you!",
			Timestamp: time.Now(),
		},
		{
			Role:      model.RoleUser,
			Content:   "Can you help me with a task?",
			Timestamp: time.Now(),
		},
	}
}

// SingleUserTurn returns a single user turn for simple tests
func SingleUserTurn(content string) []model.Turn {
	return []model.Turn{{Role: model.RoleUser, Content: content}}
}

// ImageTurn returns a user turn carrying TinyPNG and the given text
func ImageTurn(text string) model.Turn {
	return model.ToTurns([]model.ChatMessage{{
		Role:    model.RoleUser,
		Content: text,
		Image:   TestImage(),
	}})[0]
}

// TestImage returns TinyPNG as an attachment
func TestImage() *model.ImageAttachment {
	return &model.ImageAttachment{
		Data:     base64.StdEncoding.EncodeToString(TinyPNG),
		MimeType: "image/png",
		FileName: "pixel.png",
	}
}

// SystemTurn returns a system turn for testing
func SystemTurn(content string) model.Turn {
	return model.Turn{Role: model.RoleSystem, Content: content}
}
