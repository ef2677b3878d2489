package main

import (
	"context"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"
	"github.com/joho/godotenv"
	"github.com/justibot/justibot/internal/ai"
	"github.com/justibot/justibot/internal/cases"
	"github.com/justibot/justibot/internal/document"
	"github.com/justibot/justibot/internal/envstruct"
	"github.com/justibot/justibot/internal/errors"
	"github.com/justibot/justibot/internal/logging"
	"github.com/justibot/justibot/internal/pprofserver"
	"github.com/justibot/justibot/internal/repositories"
	"github.com/justibot/justibot/internal/sqlite"
	"google.golang.org/api/option"
)

type application struct {
	logger         *slog.Logger
	sessionManager *scs.SessionManager
	cases          *cases.Service
	documents      *document.Finalizer
	resolver       *ai.Resolver
	cfg            config
}

type config struct {
	// Addr is the address the HTTP server listens on. Use "localhost:0" for a random port.
	Addr string `env:"JUSTIBOT_ADDR" envDefault:"localhost:4000"`
	// PprofAddr enables the pprof server on a loopback address when set, e.g. "localhost:6060".
	PprofAddr string `env:"JUSTIBOT_PPROF_ADDR" envDefault:""`
	// SqliteURL is the path to the database file or ":memory:".
	SqliteURL string `env:"JUSTIBOT_SQLITE_URL" envDefault:"./justibot.sqlite3"`
	// AIProvider is "gemini" or "openai". The openai provider speaks to any OpenAI-compatible endpoint.
	AIProvider string `env:"JUSTIBOT_AI_PROVIDER" envDefault:"gemini"`
	AIAPIKey   string `env:"JUSTIBOT_AI_API_KEY"`
	AIBaseURL  string `env:"JUSTIBOT_AI_BASE_URL" envDefault:""`

	GenerationTimeout time.Duration `env:"JUSTIBOT_GENERATION_TIMEOUT" envDefault:"60s"`
	FinalizeTimeout   time.Duration `env:"JUSTIBOT_FINALIZE_TIMEOUT" envDefault:"30s"`
	WorkflowTimeout   time.Duration `env:"JUSTIBOT_WORKFLOW_TIMEOUT" envDefault:"90s"`

	// DocumentStore is "filesystem" or "s3".
	DocumentStore string `env:"JUSTIBOT_DOCUMENT_STORE" envDefault:"filesystem"`
	DocumentDir   string `env:"JUSTIBOT_DOCUMENT_DIR" envDefault:"./documents"`
	S3Bucket      string `env:"JUSTIBOT_S3_BUCKET" envDefault:""`
	S3Region      string `env:"JUSTIBOT_S3_REGION" envDefault:""`
	S3Endpoint    string `env:"JUSTIBOT_S3_ENDPOINT" envDefault:""`
	S3Prefix      string `env:"JUSTIBOT_S3_PREFIX" envDefault:"documents"`

	SessionLifetime time.Duration `env:"JUSTIBOT_SESSION_LIFETIME" envDefault:"12h"`
}

var (
	errUnknownProvider      = errors.NewSentinel("unknown AI provider")
	errUnknownDocumentStore = errors.NewSentinel("unknown document store")
)

func run(ctx context.Context, logger *slog.Logger, lookupEnv func(string) (string, bool)) error {
	var (
		cfg config
		err error
	)
	if err = envstruct.Populate(&cfg, lookupEnv); err != nil {
		return errors.Wrap(err, "populate config")
	}

	if cfg.PprofAddr != "" {
		pprofserver.Launch(ctx, cfg.PprofAddr, logger)
	}

	var db *sqlite.Database
	if db, err = sqlite.NewDatabase(ctx, cfg.SqliteURL, logger); err != nil {
		return errors.Wrap(err, "open db", slog.String("url", cfg.SqliteURL))
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			logger.LogAttrs(ctx, slog.LevelError, "failed to close db", errors.SlogError(closeErr))
		}
	}()

	var provider ai.Provider
	if provider, err = newProvider(ctx, cfg); err != nil {
		return errors.Wrap(err, "new AI provider", slog.String("provider", cfg.AIProvider))
	}

	var store document.Store
	if store, err = newDocumentStore(ctx, cfg); err != nil {
		return errors.Wrap(err, "new document store", slog.String("store", cfg.DocumentStore))
	}

	sessionManager := scs.New()
	sessionStore := sqlite3store.NewWithCleanupInterval(db.ReadWrite, 30*time.Minute) //nolint:mnd // 30 minutes
	defer sessionStore.StopCleanup()
	sessionManager.Store = sessionStore
	sessionManager.Lifetime = cfg.SessionLifetime
	sessionManager.Cookie.Name = "justibot_session"
	sessionManager.Cookie.Secure = true
	sessionManager.Cookie.SameSite = http.SameSiteLaxMode

	resolver := ai.NewResolver(provider, logger)
	generator := ai.NewGenerator(provider, resolver, logger)
	finalizer := document.NewFinalizer(store, logger)
	service := cases.NewService(
		repositories.NewCaseRepository(db, logger),
		generator,
		finalizer,
		cases.Config{GenerationTimeout: cfg.GenerationTimeout, FinalizeTimeout: cfg.FinalizeTimeout},
		logger,
	)

	app := application{
		logger:         logger,
		sessionManager: sessionManager,
		cases:          service,
		documents:      finalizer,
		resolver:       resolver,
		cfg:            cfg,
	}

	if err = app.configureAndStartServer(ctx, cfg.Addr); err != nil {
		return errors.Wrap(err, "start server")
	}

	return nil
}

func newProvider(ctx context.Context, cfg config) (ai.Provider, error) {
	switch cfg.AIProvider {
	case "openai":
		return ai.NewOpenAIProvider(cfg.AIAPIKey, cfg.AIBaseURL), nil
	case "gemini":
		var opts []option.ClientOption
		if cfg.AIBaseURL != "" {
			opts = append(opts, option.WithEndpoint(cfg.AIBaseURL))
		}
		p, err := ai.NewGeminiProvider(ctx, cfg.AIAPIKey, opts...)
		if err != nil {
			return nil, errors.Wrap(err, "new gemini provider")
		}
		go func() {
			<-ctx.Done()
			_ = p.Close()
		}()
		return p, nil
	default:
		return nil, errUnknownProvider
	}
}

func newDocumentStore(ctx context.Context, cfg config) (document.Store, error) {
	switch cfg.DocumentStore {
	case "filesystem":
		s, err := document.NewDirectoryStore(cfg.DocumentDir)
		if err != nil {
			return nil, errors.Wrap(err, "new directory store", slog.String("dir", cfg.DocumentDir))
		}
		return s, nil
	case "s3":
		client, err := document.NewS3Client(ctx, cfg.S3Region, cfg.S3Endpoint)
		if err != nil {
			return nil, errors.Wrap(err, "new s3 client")
		}
		return document.NewS3Store(client, cfg.S3Bucket, cfg.S3Prefix), nil
	default:
		return nil, errUnknownDocumentStore
	}
}

func main() {
	ctx := context.Background()
	loggerHandler := logging.NewContextHandler(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		AddSource:   false,
		Level:       slog.LevelDebug,
		ReplaceAttr: nil,
	}))
	logger := slog.New(loggerHandler)

	// The .env file is optional, the environment takes precedence over it.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logger.LogAttrs(ctx, slog.LevelError, "failed to load .env", errors.SlogError(err))
		os.Exit(1)
	}

	if err := run(ctx, logger, os.LookupEnv); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "failure starting application", errors.SlogError(err))
		os.Exit(1)
	}
}
