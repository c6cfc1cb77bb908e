package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"freelas-watch/internal/config"
	"freelas-watch/internal/db"
	"freelas-watch/internal/httpapi"
	"freelas-watch/internal/ledger"
	filestore "freelas-watch/internal/ledger/file"
	pgstore "freelas-watch/internal/ledger/postgres"
	redisstore "freelas-watch/internal/ledger/redis"
	sqlitestore "freelas-watch/internal/ledger/sqlite"
	"freelas-watch/internal/logging"
	"freelas-watch/internal/notify"
	"freelas-watch/internal/notify/discord"
	natsnotify "freelas-watch/internal/notify/nats"
	"freelas-watch/internal/notify/telegram"
	"freelas-watch/internal/providers/karlancer"
	"freelas-watch/internal/providers/ninetyninefreelas"
	"freelas-watch/internal/providers/ponisha"
	"freelas-watch/internal/providers/rss"
	"freelas-watch/internal/scheduler"
	"freelas-watch/internal/services/polling"
)

type Builder struct {
	cfg          *config.Config
	ensureSchema bool

	logger   *zap.Logger
	pool     *pgxpool.Pool
	store    ledger.Store
	notifier notify.Notifier
	sources  []polling.Source
	client   *http.Client

	scheduler *scheduler.Scheduler
	server    *http.Server
}

type BuilderOption func(*Builder)

func NewBuilder(cfg *config.Config, options ...BuilderOption) *Builder {
	builder := &Builder{
		cfg:          cfg,
		ensureSchema: true,
	}
	for _, option := range options {
		option(builder)
	}
	return builder
}

func WithEnsureSchema(enabled bool) BuilderOption {
	return func(b *Builder) {
		b.ensureSchema = enabled
	}
}

func WithLogger(logger *zap.Logger) BuilderOption {
	return func(b *Builder) {
		b.logger = logger
	}
}

func WithDBPool(pool *pgxpool.Pool) BuilderOption {
	return func(b *Builder) {
		b.pool = pool
	}
}

// WithLedgerStore overrides the store selected by LEDGER_STORE.
func WithLedgerStore(store ledger.Store) BuilderOption {
	return func(b *Builder) {
		b.store = store
	}
}

func WithNotifier(notifier notify.Notifier) BuilderOption {
	return func(b *Builder) {
		b.notifier = notifier
	}
}

func WithSources(sources []polling.Source) BuilderOption {
	return func(b *Builder) {
		b.sources = sources
	}
}

func WithHTTPClient(client *http.Client) BuilderOption {
	return func(b *Builder) {
		b.client = client
	}
}

func WithScheduler(scheduler *scheduler.Scheduler) BuilderOption {
	return func(b *Builder) {
		b.scheduler = scheduler
	}
}

func WithHTTPServer(server *http.Server) BuilderOption {
	return func(b *Builder) {
		b.server = server
	}
}

func (b *Builder) Build(ctx context.Context) (app *App, err error) {
	if b.cfg == nil {
		return nil, errors.New("config is required")
	}

	if b.logger == nil {
		b.logger, err = logging.New(b.cfg.LogLevel, b.cfg.LogFormat)
		if err != nil {
			return nil, err
		}
	}

	app = &App{Config: b.cfg, Logger: b.logger}
	defer func() {
		if err != nil {
			app.release()
		}
	}()

	if b.client == nil {
		b.client = &http.Client{Timeout: b.cfg.HTTPTimeout}
	}

	if b.sources == nil {
		if b.sources, err = b.buildSources(); err != nil {
			return app, err
		}
	}

	if b.store == nil {
		if b.store, err = b.buildStore(ctx, app); err != nil {
			return app, err
		}
	}
	app.Ledger = ledger.New(b.store, b.logger.Named("ledger"))
	if err = app.Ledger.Load(ctx); err != nil {
		return app, err
	}

	if b.notifier == nil {
		if b.notifier, err = b.buildNotifier(app); err != nil {
			return app, err
		}
	}
	app.Notifier = b.notifier

	app.Service = polling.NewService(
		app.Ledger,
		app.Notifier,
		b.sources,
		b.cfg.Keywords,
		b.logger.Named("polling"),
		polling.WithFetchConcurrency(b.cfg.FetchConcurrency),
	)

	if b.scheduler == nil {
		b.scheduler, err = scheduler.New(scheduler.Options{
			Interval:   b.cfg.PollInterval,
			Spec:       b.cfg.PollCron,
			RunOnStart: b.cfg.RunOnStart,
		}, app.Service, b.logger.Named("scheduler"))
		if err != nil {
			return app, err
		}
	}
	app.Scheduler = b.scheduler

	if b.server == nil {
		handler := httpapi.NewHandler(app.Service, app.Ledger)
		b.server = &http.Server{
			Addr:              ":" + b.cfg.HTTPPort,
			Handler:           handler.Router(),
			ReadHeaderTimeout: 5 * time.Second,
		}
	}
	app.Server = b.server

	return app, nil
}

func (b *Builder) buildSources() ([]polling.Source, error) {
	ua := b.cfg.UserAgent
	var sources []polling.Source
	for _, name := range b.cfg.Sources {
		switch name {
		case config.SourceNinetyNineFreelas:
			sources = append(sources, ninetyninefreelas.NewScraper(b.client, b.logger.Named("99freelas"), ua))
		case config.SourcePonisha:
			sources = append(sources, ponisha.NewScraper(b.client, b.logger.Named("ponisha"), ua))
		case config.SourceKarlancer:
			sources = append(sources, karlancer.NewScraper(b.client, b.logger.Named("karlancer"), ua))
		case config.SourceRSS:
			for _, feed := range b.cfg.RSSFeeds {
				src, err := rss.New(b.client, b.logger.Named("rss"), ua, feed)
				if err != nil {
					return nil, err
				}
				sources = append(sources, src)
			}
		default:
			return nil, fmt.Errorf("unknown source %q", name)
		}
	}
	return sources, nil
}

func (b *Builder) buildStore(ctx context.Context, app *App) (ledger.Store, error) {
	switch b.cfg.LedgerStore {
	case config.StoreMemory, "":
		return nil, nil
	case config.StoreFile:
		return filestore.Open(b.cfg.LedgerFile)
	case config.StoreSQLite:
		return sqlitestore.Open(ctx, b.cfg.LedgerSQLitePath)
	case config.StoreRedis:
		store := redisstore.New(redisstore.Options{
			Addr:     b.cfg.RedisAddr,
			Password: b.cfg.RedisPassword,
			DB:       b.cfg.RedisDB,
			Key:      b.cfg.RedisKey,
		})
		if err := store.Ping(ctx); err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		return store, nil
	case config.StorePostgres:
		return b.postgresStore(ctx, app)
	default:
		return nil, fmt.Errorf("unknown ledger store %q", b.cfg.LedgerStore)
	}
}

func (b *Builder) postgresStore(ctx context.Context, app *App) (*pgstore.Store, error) {
	if b.pool == nil {
		pool, err := db.NewPool(ctx, b.cfg.PostgresDSN())
		if err != nil {
			return nil, err
		}
		b.pool = pool
		app.ownsPool = true
	}
	app.Pool = b.pool

	store := pgstore.NewStore(b.pool)
	if b.ensureSchema {
		if err := store.Migrate(ctx); err != nil {
			return nil, err
		}
	}
	return store, nil
}

func (b *Builder) buildNotifier(app *App) (notify.Notifier, error) {
	switch b.cfg.Notifier {
	case config.NotifierDiscord:
		return discord.NewWebhook(b.cfg.DiscordWebhookURL, b.client, b.logger.Named("discord")), nil
	case config.NotifierTelegram:
		return telegram.NewSender(telegram.Options{
			Token:    b.cfg.TelegramToken,
			Chat:     b.cfg.TelegramChat,
			ThreadID: b.cfg.TelegramThreadID,
			Jalali:   b.cfg.TelegramJalali,
		}, b.logger.Named("telegram")), nil
	case config.NotifierNATS:
		publisher, err := natsnotify.Connect(b.cfg.NATSURL, b.cfg.NATSSubject, b.logger.Named("nats"))
		if err != nil {
			return nil, err
		}
		app.closers = append(app.closers, publisher.Close)
		return publisher, nil
	default:
		return nil, fmt.Errorf("unknown notifier %q", b.cfg.Notifier)
	}
}
