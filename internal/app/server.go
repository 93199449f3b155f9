package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/deepak-arjariya/wikisearch/internal/api"
	"github.com/deepak-arjariya/wikisearch/internal/config"
	"github.com/deepak-arjariya/wikisearch/internal/library"
	"github.com/deepak-arjariya/wikisearch/internal/logger"
	"github.com/deepak-arjariya/wikisearch/internal/search"
	"github.com/deepak-arjariya/wikisearch/internal/storage"
	"github.com/deepak-arjariya/wikisearch/internal/tagger"
	"github.com/deepak-arjariya/wikisearch/pkg/httpclient"
)

// Server is the wikisearch runtime. It owns the storage backend and the
// HTTP listener and coordinates a clean shutdown between them.
type Server struct {
	cfg        *config.Config
	store      storage.Store
	httpServer *http.Server
}

// NewServer builds the service runtime from config: storage backend,
// search provider, tag classifier, workflows and the HTTP router.
func NewServer(cfg *config.Config) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}

	store, err := storage.NewStore(cfg.StorageType, storage.Options{
		BBoltPath:   cfg.BBoltPath,
		SQLitePath:  cfg.SQLitePath,
		PostgresDSN: cfg.PostgresDSN,
	})
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}
	logger.InfoObj("storage initialized", "storage_config", map[string]any{
		"type": cfg.StorageType,
	})

	provider := search.NewWikipedia(httpclient.NewRestyClient(cfg.SearchTimeout), cfg.WikipediaAPIURL)

	classifier, err := buildClassifier(cfg)
	if err != nil {
		store.Close()
		return nil, err
	}
	logger.InfoObj("classifier initialized", "classifier_config", map[string]any{
		"type": cfg.ClassifierType,
	})

	auth, err := buildAuthenticator(cfg)
	if err != nil {
		store.Close()
		return nil, err
	}

	svc := library.NewService(store, provider, classifier, cfg.ClassifierTimeout)
	router := api.NewRouter(svc, auth)

	return &Server{
		cfg:   cfg,
		store: store,
		httpServer: &http.Server{
			Addr:    cfg.Addr,
			Handler: router,
		},
	}, nil
}

// Run serves HTTP until the context is cancelled, then drains in-flight
// requests and closes the store.
func (s *Server) Run(ctx context.Context) error {
	if s == nil || s.httpServer == nil {
		return fmt.Errorf("server is not initialized")
	}
	defer s.closeStore()

	errCh := make(chan error, 1)
	go func() {
		logger.InfoObj("http server listening", "addr", s.cfg.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}

func (s *Server) closeStore() {
	if s.store == nil {
		return
	}
	if err := s.store.Close(); err != nil {
		logger.ErrorObj("close storage failed", "error", err.Error())
	}
}

func buildClassifier(cfg *config.Config) (tagger.Classifier, error) {
	switch cfg.ClassifierType {
	case "openai":
		vocab, err := tagger.LoadVocabulary(cfg.VocabularyFile)
		if err != nil {
			return nil, fmt.Errorf("load vocabulary: %w", err)
		}
		client := httpclient.NewRestyClient(cfg.ClassifierTimeout)
		return tagger.NewOpenAI(client, cfg.OpenAIAPIURL, cfg.OpenAIAPIKey, cfg.OpenAIModel, vocab), nil
	case "static":
		return tagger.NewStatic(), nil
	default:
		return nil, fmt.Errorf("unsupported classifier_type %q", cfg.ClassifierType)
	}
}

func buildAuthenticator(cfg *config.Config) (api.Authenticator, error) {
	switch cfg.AuthMode {
	case "header":
		return api.HeaderAuthenticator{}, nil
	case "bearer":
		return api.NewBearerAuthenticator(cfg.JWTSecret), nil
	default:
		return nil, fmt.Errorf("unsupported auth_mode %q", cfg.AuthMode)
	}
}
