package data

import (
	"context"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/lk2023060901/rag-search-gateway/internal/knowledge/models"
	"github.com/lk2023060901/rag-search-gateway/internal/pkg/logger"
	"github.com/lk2023060901/rag-search-gateway/internal/websearch/types"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// textSearchScore is the fixed relevance assigned to substring matches,
// which have no vector similarity to report.
const textSearchScore = 0.8

// snippetMaxBytes bounds the content excerpt in text-search results.
const snippetMaxBytes = 500

// DocumentRepo persists documents in Postgres and serves substring search.
type DocumentRepo struct {
	db     *gorm.DB
	logger *logger.Logger
}

// NewDocumentRepo creates a document repository.
func NewDocumentRepo(db *gorm.DB, lgr *logger.Logger) *DocumentRepo {
	if lgr == nil {
		lgr = logger.L()
	}
	return &DocumentRepo{
		db:     db,
		logger: lgr,
	}
}

// Create stores a document.
func (r *DocumentRepo) Create(ctx context.Context, doc *models.Document) error {
	if err := doc.Validate(); err != nil {
		return err
	}
	if doc.ID == uuid.Nil {
		doc.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(doc).Error; err != nil {
		return fmt.Errorf("failed to create document: %w", err)
	}
	return nil
}

// GetByID fetches a document.
func (r *DocumentRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Document, error) {
	var doc models.Document
	err := r.db.WithContext(ctx).First(&doc, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.ErrDocumentNotFound
		}
		return nil, fmt.Errorf("failed to get document: %w", err)
	}
	return &doc, nil
}

// List returns documents in a collection, newest first.
func (r *DocumentRepo) List(ctx context.Context, collection string, limit, offset int) ([]*models.Document, int64, error) {
	if limit <= 0 {
		limit = 20
	}

	var total int64
	query := r.db.WithContext(ctx).Model(&models.Document{}).Where("collection = ?", collection)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count documents: %w", err)
	}

	var docs []*models.Document
	err := query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&docs).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list documents: %w", err)
	}

	return docs, total, nil
}

// Delete removes a document.
func (r *DocumentRepo) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.Document{}, "id = ?", id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete document: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return models.ErrDocumentNotFound
	}
	return nil
}

// UpdateChunkCount records how many chunks a document produced.
func (r *DocumentRepo) UpdateChunkCount(ctx context.Context, id uuid.UUID, count int) error {
	return r.db.WithContext(ctx).Model(&models.Document{}).
		Where("id = ?", id).
		Update("chunk_count", count).Error
}

// SearchText matches documents whose title or content contains the query,
// case-insensitively. Matches get a fixed score since ILIKE carries no
// ranking signal.
func (r *DocumentRepo) SearchText(ctx context.Context, collection, query string, limit int) ([]*types.SearchResult, error) {
	if limit <= 0 {
		limit = 5
	}

	pattern := "%" + query + "%"
	var docs []*models.Document
	err := r.db.WithContext(ctx).
		Where("collection = ?", collection).
		Where("title ILIKE ? OR content ILIKE ?", pattern, pattern).
		Limit(limit).
		Find(&docs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to search documents: %w", err)
	}

	results := make([]*types.SearchResult, 0, len(docs))
	for i, doc := range docs {
		snippet := truncateSnippet(doc.Content, snippetMaxBytes)
		results = append(results, &types.SearchResult{
			Title:   doc.Title,
			Snippet: snippet,
			Source:  types.SourceKnowledgeBase,
			Rank:    i,
			Score:   types.ScoreOf(textSearchScore),
			Type:    types.TypeDocument,
		})
	}

	r.logger.Debug("text search finished",
		zap.String("collection", collection),
		zap.String("query", query),
		zap.Int("results", len(results)))

	return results, nil
}

// truncateSnippet cuts content to at most max bytes without splitting a
// multibyte rune.
func truncateSnippet(content string, max int) string {
	if len(content) <= max {
		return content
	}

	cut := max
	for cut > 0 && !utf8.RuneStart(content[cut]) {
		cut--
	}
	return content[:cut]
}
