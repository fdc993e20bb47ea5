package model

// ChunkType identifies a StreamChunk variant.
type ChunkType string

const (
	ChunkText  ChunkType = "text"
	ChunkDone  ChunkType = "done"
	ChunkError ChunkType = "error"
)

// StreamChunk is the unit of the server-to-client wire protocol.
// Content is set only for text chunks and Error only for error chunks.
type StreamChunk struct {
	Type    ChunkType `json:"type"`
	Content string    `json:"content,omitempty"`
	Error   string    `json:"error,omitempty"`
}

// TextChunk builds a text chunk carrying one fragment of assistant output.
func TextChunk(fragment string) StreamChunk {
	return StreamChunk{Type: ChunkText, Content: fragment}
}

// DoneChunk builds the terminal success chunk.
func DoneChunk() StreamChunk {
	return StreamChunk{Type: ChunkDone}
}

// ErrorChunk builds the terminal failure chunk.
func ErrorChunk(message string) StreamChunk {
	return StreamChunk{Type: ChunkError, Error: message}
}

// Terminal reports whether the chunk ends a stream.
func (c StreamChunk) Terminal() bool {
	return c.Type == ChunkDone || c.Type == ChunkError
}

// Known reports whether the chunk type is part of the protocol.
func (c StreamChunk) Known() bool {
	switch c.Type {
	case ChunkText, ChunkDone, ChunkError:
		return true
	}
	return false
}
