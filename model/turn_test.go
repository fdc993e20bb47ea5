package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToTurns(t *testing.T) {
	img := &ImageAttachment{Data: "aGVsbG8=", MimeType: "image/png", FileName: "a.png"}
	turns := ToTurns([]ChatMessage{
		{Role: RoleSystem, Content: "be nice"},
		{Role: RoleUser, Content: "what is this?", Image: img},
		{Role: RoleAssistant, Content: "a cat"},
	})

	require.Len(t, turns, 3)

	assert.False(t, turns[0].HasParts())
	assert.Equal(t, "be nice", turns[0].Content)

	require.True(t, turns[1].HasParts())
	require.Len(t, turns[1].Parts, 2)
	assert.Equal(t, PartImage, turns[1].Parts[0].Type)
	assert.Equal(t, "data:image/png;base64,aGVsbG8=", turns[1].Parts[0].DataURI())
	assert.Equal(t, PartText, turns[1].Parts[1].Type)
	assert.Equal(t, "what is this?", turns[1].Text())
	assert.Empty(t, turns[1].Content)

	assert.Equal(t, RoleAssistant, turns[2].Role)
	assert.Equal(t, "a cat", turns[2].Text())
}

func TestStreamChunkJSON(t *testing.T) {
	tests := []struct {
		chunk StreamChunk
		want  string
	}{
		{TextChunk("Hel"), `{"type":"text","content":"Hel"}`},
		{DoneChunk(), `{"type":"done"}`},
		{ErrorChunk("boom"), `{"type":"error","error":"boom"}`},
	}

	for _, tt := range tests {
		t.Run(string(tt.chunk.Type), func(t *testing.T) {
			b, err := json.Marshal(tt.chunk)
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(b))
		})
	}
}

func TestRoleValid(t *testing.T) {
	assert.True(t, RoleUser.Valid())
	assert.True(t, RoleAssistant.Valid())
	assert.True(t, RoleSystem.Valid())
	assert.False(t, Role("tool").Valid())
	assert.False(t, Role("").Valid())
}

func TestChatMessageOmitsEmptyFields(t *testing.T) {
	b, err := json.Marshal(ChatMessage{Role: RoleUser, Content: "hi"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"role":"user","content":"hi"}`, string(b))
}
