package search

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/lk2023060901/rag-search-gateway/internal/knowledge"
	"github.com/lk2023060901/rag-search-gateway/internal/knowledge/data"
	"github.com/lk2023060901/rag-search-gateway/internal/knowledge/models"
	"github.com/lk2023060901/rag-search-gateway/internal/pkg/logger"
	"github.com/lk2023060901/rag-search-gateway/internal/pkg/response"
	"go.uber.org/zap"
)

// Handler exposes the search pipeline and document management over HTTP.
type Handler struct {
	service *Service
	docs    *data.DocumentRepo
	indexer *knowledge.Indexer
	logger  *logger.Logger
}

// NewHandler creates the HTTP handler. docs and indexer may be nil when the
// document endpoints are not wanted.
func NewHandler(service *Service, docs *data.DocumentRepo, indexer *knowledge.Indexer, lgr *logger.Logger) *Handler {
	if lgr == nil {
		lgr = logger.L()
	}
	return &Handler{
		service: service,
		docs:    docs,
		indexer: indexer,
		logger:  lgr,
	}
}

// RegisterRoutes mounts the API under the given group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/search", h.Search)
	rg.POST("/search/knowledge", h.KnowledgeSearch)
	rg.POST("/search/semantic", h.SemanticSearch)
	rg.GET("/search/providers", h.Providers)

	if h.docs != nil {
		rg.POST("/documents", h.CreateDocument)
		rg.GET("/documents", h.ListDocuments)
		rg.DELETE("/documents/:id", h.DeleteDocument)
	}
}

// Search handles POST /search.
func (h *Handler) Search(c *gin.Context) {
	var req SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "query is required")
		return
	}

	resp, err := h.service.Search(c.Request.Context(), &req)
	if err != nil {
		h.logger.Error("search failed",
			zap.String("query", req.Query),
			zap.Error(err))
		response.InternalError(c, "search failed")
		return
	}

	c.JSON(http.StatusOK, resp)
}

type knowledgeSearchRequest struct {
	Query          string  `json:"query" binding:"required"`
	Limit          int     `json:"limit"`
	ScoreThreshold float32 `json:"score_threshold"`
}

// KnowledgeSearch handles POST /search/knowledge.
func (h *Handler) KnowledgeSearch(c *gin.Context) {
	var req knowledgeSearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "query is required")
		return
	}

	results, cached, err := h.service.KnowledgeSearch(c.Request.Context(), req.Query, req.Limit)
	if err != nil {
		h.logger.Error("knowledge search failed",
			zap.String("query", req.Query),
			zap.Error(err))
		response.InternalError(c, "knowledge search failed")
		return
	}

	response.Success(c, gin.H{
		"query":   req.Query,
		"results": results,
		"total":   len(results),
		"cached":  cached,
	})
}

// SemanticSearch handles POST /search/semantic.
func (h *Handler) SemanticSearch(c *gin.Context) {
	var req knowledgeSearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "query is required")
		return
	}

	results, err := h.service.SemanticSearch(c.Request.Context(), req.Query, req.Limit, req.ScoreThreshold)
	if err != nil {
		h.logger.Error("semantic search failed",
			zap.String("query", req.Query),
			zap.Error(err))
		response.InternalError(c, "semantic search failed")
		return
	}

	response.Success(c, gin.H{
		"query":   req.Query,
		"results": results,
		"total":   len(results),
	})
}

// Providers handles GET /search/providers.
func (h *Handler) Providers(c *gin.Context) {
	response.Success(c, gin.H{
		"providers": h.service.Providers(),
	})
}

type createDocumentRequest struct {
	Title   string `json:"title" binding:"required"`
	Content string `json:"content" binding:"required"`
}

// CreateDocument handles POST /documents: the document is stored for text
// search and, when an indexer is configured, chunked and embedded into the
// vector index.
func (h *Handler) CreateDocument(c *gin.Context) {
	var req createDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "title and content are required")
		return
	}

	doc := &models.Document{
		Collection: h.service.Collection(),
		Title:      req.Title,
		Content:    req.Content,
	}

	if err := h.docs.Create(c.Request.Context(), doc); err != nil {
		h.logger.Error("failed to create document", zap.Error(err))
		response.InternalError(c, "failed to create document")
		return
	}

	chunks := 0
	if h.indexer != nil {
		n, err := h.indexer.IndexDocument(c.Request.Context(), doc.ID.String(), doc.Title, doc.Content)
		if err != nil {
			// the document is still text-searchable; vector indexing degraded
			h.logger.Warn("failed to index document",
				zap.String("document_id", doc.ID.String()),
				zap.Error(err))
		} else {
			chunks = n
			if err := h.docs.UpdateChunkCount(c.Request.Context(), doc.ID, n); err != nil {
				h.logger.Warn("failed to update chunk count",
					zap.String("document_id", doc.ID.String()),
					zap.Error(err))
			}
		}
	}

	response.Created(c, gin.H{
		"id":          doc.ID.String(),
		"title":       doc.Title,
		"chunk_count": chunks,
	})
}

// ListDocuments handles GET /documents.
func (h *Handler) ListDocuments(c *gin.Context) {
	limit := intQuery(c, "limit", 20)
	offset := intQuery(c, "offset", 0)

	docs, total, err := h.docs.List(c.Request.Context(), h.service.Collection(), limit, offset)
	if err != nil {
		h.logger.Error("failed to list documents", zap.Error(err))
		response.InternalError(c, "failed to list documents")
		return
	}

	items := make([]gin.H, 0, len(docs))
	for _, doc := range docs {
		items = append(items, gin.H{
			"id":          doc.ID.String(),
			"title":       doc.Title,
			"chunk_count": doc.ChunkCount,
			"created_at":  doc.CreatedAt,
		})
	}

	response.Success(c, gin.H{
		"documents": items,
		"total":     total,
	})
}

// DeleteDocument handles DELETE /documents/:id.
func (h *Handler) DeleteDocument(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid document id")
		return
	}

	if err := h.docs.Delete(c.Request.Context(), id); err != nil {
		if err == models.ErrDocumentNotFound {
			response.NotFound(c, "document not found")
			return
		}
		h.logger.Error("failed to delete document", zap.Error(err))
		response.InternalError(c, "failed to delete document")
		return
	}

	if h.indexer != nil {
		if err := h.indexer.RemoveDocument(c.Request.Context(), id.String()); err != nil {
			h.logger.Warn("failed to remove document vectors",
				zap.String("document_id", id.String()),
				zap.Error(err))
		}
	}

	response.Success(c, gin.H{"id": id.String()})
}

func intQuery(c *gin.Context, name string, def int) int {
	raw, ok := c.GetQuery(name)
	if !ok {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return def
	}
	return v
}
