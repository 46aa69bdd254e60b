package chunker

import (
	"context"
)

// Chunker splits text into embedding-sized pieces.
type Chunker interface {
	// Chunk splits text into chunks
	Chunk(ctx context.Context, text string) ([]*TextChunk, error)

	// ChunkSize returns the chunk size in tokens
	ChunkSize() int

	// ChunkOverlap returns the overlap between adjacent chunks in tokens
	ChunkOverlap() int
}

// TextChunk is one piece of a chunked document.
type TextChunk struct {
	Index      int    // chunk index, starting from 0
	Content    string // chunk text
	TokenCount int    // number of tokens in the chunk
	Start      int    // byte offset of the chunk in the original text
	End        int    // byte offset past the end of the chunk
}
