package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lk2023060901/rag-search-gateway/internal/conf"
	"github.com/lk2023060901/rag-search-gateway/internal/data"
	"github.com/lk2023060901/rag-search-gateway/internal/knowledge"
	kbchunker "github.com/lk2023060901/rag-search-gateway/internal/knowledge/chunker"
	kbdata "github.com/lk2023060901/rag-search-gateway/internal/knowledge/data"
	kbembedding "github.com/lk2023060901/rag-search-gateway/internal/knowledge/embedding"
	kbstorage "github.com/lk2023060901/rag-search-gateway/internal/knowledge/storage"
	"github.com/lk2023060901/rag-search-gateway/internal/pkg/logger"
	"github.com/lk2023060901/rag-search-gateway/internal/search"
	"github.com/lk2023060901/rag-search-gateway/internal/server"
	"github.com/lk2023060901/rag-search-gateway/internal/websearch"
	"github.com/lk2023060901/rag-search-gateway/internal/websearch/provider"
	"go.uber.org/zap"
)

var (
	configFile = flag.String("config", "config.yaml", "config file path")
)

func main() {
	flag.Parse()

	// Load configuration
	config, err := conf.LoadConfig(*configFile)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log, err := logger.New(&config.Log)
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer log.Sync()

	if err := logger.InitGlobal(&config.Log); err != nil {
		log.Fatal("failed to initialize global logger", zap.Error(err))
	}

	log.Info("config loaded successfully")

	// Initialize data layer
	d, cleanup, err := data.NewData(config, log)
	if err != nil {
		log.Fatal("failed to initialize data layer", zap.Error(err))
	}
	defer cleanup()

	// Web search fan-out
	factory := provider.NewFactory()
	engine := websearch.NewEngine(config.Search.ProviderConfigs(), factory, log)

	// Embedding accessor: lazy so the process starts without credentials,
	// cached in Redis when available
	var embedder kbembedding.Embedder
	if config.Embedding.APIKey != "" {
		dimension := config.Embedding.Dimension
		if dimension == 0 {
			dimension = 1536
		}
		model := config.Embedding.Model
		if model == "" {
			model = "text-embedding-3-small"
		}

		embedder = kbembedding.NewLazyEmbedder(func() (kbembedding.Embedder, error) {
			base, err := kbembedding.NewOpenAIEmbedder(&kbembedding.OpenAIEmbedderConfig{
				APIKey:    config.Embedding.APIKey,
				BaseURL:   config.Embedding.BaseURL,
				Model:     config.Embedding.Model,
				Dimension: config.Embedding.Dimension,
			}, log)
			if err != nil {
				return nil, err
			}
			if d.RedisClient == nil {
				return base, nil
			}
			return kbembedding.NewCacheEmbedder(base, d.RedisClient, &kbembedding.CacheEmbedderConfig{
				TTL: config.Embedding.CacheTTL,
			}, log), nil
		}, dimension, model, log)
	} else {
		log.Warn("no embedding api key configured, semantic search and re-scoring disabled")
	}

	// Knowledge base
	collection := config.RAG.Collection
	if collection == "" {
		collection = "documents"
	}

	var retriever *knowledge.Retriever
	var indexer *knowledge.Indexer
	if d.MilvusClient != nil && embedder != nil {
		store := kbstorage.NewMilvusStore(d.MilvusClient, log)

		retriever, err = knowledge.NewRetriever(embedder, store, &knowledge.RetrieverConfig{
			Collection: collection,
		}, log)
		if err != nil {
			log.Fatal("failed to initialize retriever", zap.Error(err))
		}

		chunkerCfg := &kbchunker.TokenChunkerConfig{
			Size:    config.RAG.ChunkSize,
			Overlap: config.RAG.ChunkOverlap,
		}
		if chunkerCfg.Size == 0 {
			chunkerCfg.Size = 512
			chunkerCfg.Overlap = 50
		}
		tokenChunker, err := kbchunker.NewTokenChunker(chunkerCfg)
		if err != nil {
			log.Fatal("failed to initialize chunker", zap.Error(err))
		}

		indexer, err = knowledge.NewIndexer(tokenChunker, embedder, store, collection, log)
		if err != nil {
			log.Fatal("failed to initialize indexer", zap.Error(err))
		}
	}

	documentRepo := kbdata.NewDocumentRepo(d.DB, log)

	var cache *knowledge.SearchCache
	if d.RedisClient != nil {
		cache = knowledge.NewSearchCache(d.RedisClient, &knowledge.SearchCacheConfig{
			TTL: config.RAG.CacheTTL,
		}, log)
	}

	kbService, err := knowledge.NewService(retriever, documentRepo, cache, &knowledge.ServiceConfig{
		ScoreThreshold: config.RAG.ScoreThreshold,
	}, log)
	if err != nil {
		log.Fatal("failed to initialize knowledge service", zap.Error(err))
	}

	// Mixer and search pipeline
	mixer := search.NewMixer(embedder, log)
	searchService, err := search.NewService(engine, kbService, mixer, collection, log)
	if err != nil {
		log.Fatal("failed to initialize search service", zap.Error(err))
	}

	handler := search.NewHandler(searchService, documentRepo, indexer, log)
	httpServer := server.NewHTTPServer(config, log, handler, d)

	go func() {
		if err := httpServer.Start(); err != nil {
			log.Fatal("failed to start HTTP server", zap.Error(err))
		}
	}()

	log.Info("server started successfully")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := httpServer.Stop(ctx); err != nil {
		log.Error("HTTP server forced to shutdown", zap.Error(err))
	}

	log.Info("server exited")
}
