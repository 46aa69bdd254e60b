package chunker

import (
	"context"
	"fmt"

	"github.com/pkoukk/tiktoken-go"
)

// TokenChunker splits text on token boundaries with a sliding overlap.
type TokenChunker struct {
	encoding *tiktoken.Tiktoken
	size     int
	overlap  int
}

// TokenChunkerConfig configures the token chunker.
type TokenChunkerConfig struct {
	Size     int    // tokens per chunk
	Overlap  int    // tokens shared between adjacent chunks
	Encoding string // tiktoken encoding, defaults to cl100k_base
}

// NewTokenChunker creates a token chunker.
func NewTokenChunker(cfg *TokenChunkerConfig) (*TokenChunker, error) {
	if cfg == nil {
		cfg = &TokenChunkerConfig{
			Size:     512,
			Overlap:  50,
			Encoding: "cl100k_base",
		}
	}

	if cfg.Size <= 0 {
		return nil, fmt.Errorf("chunk size must be positive")
	}

	if cfg.Overlap < 0 {
		return nil, fmt.Errorf("chunk overlap cannot be negative")
	}

	if cfg.Overlap >= cfg.Size {
		return nil, fmt.Errorf("chunk overlap must be less than chunk size")
	}

	if cfg.Encoding == "" {
		cfg.Encoding = "cl100k_base"
	}

	encoding, err := tiktoken.GetEncoding(cfg.Encoding)
	if err != nil {
		return nil, fmt.Errorf("failed to get encoding: %w", err)
	}

	return &TokenChunker{
		encoding: encoding,
		size:     cfg.Size,
		overlap:  cfg.Overlap,
	}, nil
}

// Chunk splits text into token-bounded chunks.
func (c *TokenChunker) Chunk(ctx context.Context, text string) ([]*TextChunk, error) {
	if text == "" {
		return []*TextChunk{}, nil
	}

	tokens := c.encoding.Encode(text, nil, nil)
	totalTokens := len(tokens)

	if totalTokens == 0 {
		return []*TextChunk{}, nil
	}

	chunks := make([]*TextChunk, 0)
	chunkIndex := 0
	start := 0

	for start < totalTokens {
		end := start + c.size
		if end > totalTokens {
			end = totalTokens
		}

		chunkTokens := tokens[start:end]
		chunkText := c.encoding.Decode(chunkTokens)

		// byte offsets are recovered by decoding the token prefix
		textStart := 0
		textEnd := len(text)

		if start > 0 {
			beforeText := c.encoding.Decode(tokens[:start])
			textStart = len(beforeText)
		}

		if end < totalTokens {
			beforeAndCurrentText := c.encoding.Decode(tokens[:end])
			textEnd = len(beforeAndCurrentText)
		}

		chunks = append(chunks, &TextChunk{
			Index:      chunkIndex,
			Content:    chunkText,
			TokenCount: len(chunkTokens),
			Start:      textStart,
			End:        textEnd,
		})

		chunkIndex++

		start += c.size - c.overlap

		if c.size-c.overlap <= 0 {
			break
		}
	}

	return chunks, nil
}

// ChunkSize returns the chunk size in tokens.
func (c *TokenChunker) ChunkSize() int {
	return c.size
}

// ChunkOverlap returns the overlap between adjacent chunks in tokens.
func (c *TokenChunker) ChunkOverlap() int {
	return c.overlap
}
