package model

// StreamChunk is one "data: " frame of the chat stream, shaped like an
// OpenAI chat completion chunk so any compatible client can read it.
type StreamChunk struct {
	ID      string        `json:"id,omitempty"`
	Object  string        `json:"object,omitempty"`
	Created int64         `json:"created,omitempty"`
	Model   string        `json:"model,omitempty"`
	Choices []ChunkChoice `json:"choices"`
}

// ChunkChoice carries one incremental delta.
type ChunkChoice struct {
	Index        int        `json:"index"`
	Delta        ChunkDelta `json:"delta"`
	FinishReason *string    `json:"finish_reason"`
}

// ChunkDelta is the text added by a chunk.
type ChunkDelta struct {
	Role    Role   `json:"role,omitempty"`
	Content string `json:"content,omitempty"`
}

// NewContentChunk wraps a token in a single-choice chunk.
func NewContentChunk(id, modelName string, created int64, content string) *StreamChunk {
	return &StreamChunk{
		ID:      id,
		Object:  "chat.completion.chunk",
		Created: created,
		Model:   modelName,
		Choices: []ChunkChoice{{Delta: ChunkDelta{Content: content}}},
	}
}
