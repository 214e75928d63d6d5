package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/kirillkom/evidence-search/internal/config"
	"github.com/kirillkom/evidence-search/internal/core/domain"
	"github.com/kirillkom/evidence-search/internal/core/ports"
	"github.com/kirillkom/evidence-search/internal/core/usecase"
	"github.com/kirillkom/evidence-search/internal/infrastructure/embedding/ollama"
	lexpg "github.com/kirillkom/evidence-search/internal/infrastructure/lexical/postgres"
	"github.com/kirillkom/evidence-search/internal/infrastructure/queue/nats"
	"github.com/kirillkom/evidence-search/internal/infrastructure/resilience"
	"github.com/kirillkom/evidence-search/internal/infrastructure/vector/qdrant"
	"github.com/kirillkom/evidence-search/internal/observability/logging"
	"github.com/kirillkom/evidence-search/internal/observability/metrics"
)

type App struct {
	Config config.Config
	Logger *slog.Logger

	Policy   domain.HybridPolicy
	Searcher ports.EvidenceSearcher
	Events   ports.SearchEventPublisher
	Metrics  *metrics.SearchMetrics

	closeFn func()
}

func New(ctx context.Context, cfg config.Config) (*App, error) {
	logger := logging.NewJSONLogger("evidence-search", cfg.LogLevel)
	slog.SetDefault(logger)

	policy, err := cfg.SearchPolicy()
	if err != nil {
		return nil, fmt.Errorf("build search policy: %w", err)
	}

	executor := resilience.NewExecutor(resilience.DefaultConfig())
	searchMetrics := metrics.NewSearchMetrics("evidence-search")

	embedder := ollama.New(cfg.OllamaURL, cfg.OllamaEmbedModel, executor)
	semantic := qdrant.New(cfg.QdrantURL, cfg.QdrantCollection, embedder, executor)

	var lexical ports.LexicalSearcher
	var db *sql.DB
	if cfg.LexicalEnabled {
		db, err = lexpg.OpenDB(cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		searcher := lexpg.NewLexicalSearcher(db)
		if err := searcher.EnsureSchema(ctx); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("ensure lexical schema: %w", err)
		}
		lexical = searcher
	}

	var events ports.SearchEventPublisher
	var queue *nats.Publisher
	if cfg.EventsEnabled {
		queue, err = nats.New(cfg.NATSURL, cfg.NATSSubject)
		if err != nil {
			if db != nil {
				_ = db.Close()
			}
			return nil, fmt.Errorf("init event publisher: %w", err)
		}
		events = queue
	}

	searcher := usecase.NewHybridSearchUseCase(semantic, lexical, searchMetrics, logger)

	return &App{
		Config: cfg,
		Logger: logger,

		Policy:   policy,
		Searcher: searcher,
		Events:   events,
		Metrics:  searchMetrics,

		closeFn: func() {
			if queue != nil {
				queue.Close()
			}
			if db != nil {
				_ = db.Close()
			}
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
