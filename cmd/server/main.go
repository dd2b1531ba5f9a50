package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/mamadbah2/swiftcheckout/internal/config"
	"github.com/mamadbah2/swiftcheckout/internal/domain/models"
	"github.com/mamadbah2/swiftcheckout/internal/repository/jsonfile"
	"github.com/mamadbah2/swiftcheckout/internal/repository/mongodb"
	"github.com/mamadbah2/swiftcheckout/internal/repository/sheets"
	"github.com/mamadbah2/swiftcheckout/internal/scheduler"
	"github.com/mamadbah2/swiftcheckout/internal/server/handlers"
	"github.com/mamadbah2/swiftcheckout/internal/server/router"
	checkoutsvc "github.com/mamadbah2/swiftcheckout/internal/service/checkout"
	reportingsvc "github.com/mamadbah2/swiftcheckout/internal/service/reporting"
	whatsappsvc "github.com/mamadbah2/swiftcheckout/internal/service/whatsapp"
	"github.com/mamadbah2/swiftcheckout/pkg/clients/anthropic"
	"github.com/mamadbah2/swiftcheckout/pkg/clients/gemini"
	whatsappclient "github.com/mamadbah2/swiftcheckout/pkg/clients/whatsapp"
	"github.com/mamadbah2/swiftcheckout/pkg/logger"
)

// historyStore is satisfied by both the MongoDB and the JSON file backends.
type historyStore interface {
	AppendRecord(ctx context.Context, record models.TransactionRecord) error
	ListRecords(ctx context.Context) ([]models.TransactionRecord, error)
	ClearHistory(ctx context.Context) error
}

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.New(cfg.LogLevel))
	defer func() { _ = baseLogger.Sync() }()

	zap.ReplaceGlobals(baseLogger)

	ctx := context.Background()

	history, closeHistory := openHistory(ctx, cfg.History, baseLogger)
	defer closeHistory()

	deps := checkoutsvc.Dependencies{
		Catalog: checkoutsvc.StaticCatalog(models.DefaultProducts()),
		History: history,
	}

	if cfg.Sheets.Enabled() {
		sheetsRepo, err := sheets.NewGoogleSheetRepository(ctx, cfg.Sheets, baseLogger.Named("repo.sheets"))
		if err != nil {
			baseLogger.Fatal("failed to init sheets repository", zap.Error(err))
		}
		deps.Catalog = sheets.NewCatalog(sheetsRepo, models.DefaultProducts(), baseLogger.Named("repo.catalog"))
		deps.Journal = sheets.NewSalesJournal(sheetsRepo)
		baseLogger.Info("google sheets catalog and sales journal enabled")
	}

	var narrator reportingsvc.Narrator
	if cfg.AI.AnthropicEnabled() {
		claude := anthropic.NewClient(anthropic.Config{
			APIKey:  cfg.AI.AnthropicKey,
			Model:   cfg.AI.AnthropicModel,
			Timeout: cfg.AI.Timeout,
		}, baseLogger.Named("clients.anthropic"))
		deps.Recognizer = claude
		deps.Pricer = claude
		deps.Advisor = claude
		narrator = claude
		baseLogger.Info("anthropic ai client enabled")
	} else {
		baseLogger.Warn("anthropic api key missing, product recognition and pricing disabled")
	}

	if cfg.AI.GeminiEnabled() {
		gem, err := gemini.NewClient(ctx, gemini.Config{
			APIKey:     cfg.AI.GeminiKey,
			Model:      cfg.AI.GeminiModel,
			ImageModel: cfg.AI.GeminiImageModel,
		}, baseLogger.Named("clients.gemini"))
		if err != nil {
			baseLogger.Fatal("failed to init gemini client", zap.Error(err))
		}
		deps.Voice = gem
		deps.Renderer = gem
		baseLogger.Info("gemini client enabled")
	} else {
		baseLogger.Warn("gemini api key missing, voice ordering and receipt images disabled")
	}

	var cache *reportingsvc.NarrativeCache
	if cfg.Cache.Enabled() {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.Cache.RedisAddr})
		defer func() { _ = rdb.Close() }()
		if err := rdb.Ping(ctx).Err(); err != nil {
			baseLogger.Warn("redis unreachable, narrative cache may miss", zap.Error(err))
		}
		cache = reportingsvc.NewNarrativeCache(rdb, cfg.Cache.NarrativeTTL)
	}

	reportingSvc := reportingsvc.NewService(history, narrator, cache, baseLogger.Named("svc.reporting"))
	checkoutSvc := checkoutsvc.NewService(checkoutsvc.Options{
		StoreName:       cfg.Store.Name,
		DefaultCurrency: cfg.Store.DefaultCurrency,
		AITimeout:       cfg.AI.Timeout,
	}, deps, baseLogger.Named("svc.checkout"))

	engine := router.New(
		handlers.NewCheckoutHandler(checkoutSvc, baseLogger.Named("handlers.checkout")),
		handlers.NewReportingHandler(reportingSvc, baseLogger.Named("handlers.reporting")),
		baseLogger.Named("router"),
	)

	if cfg.WhatsApp.DigestEnabled() {
		location, err := time.LoadLocation(cfg.Reporting.Timezone)
		if err != nil {
			baseLogger.Fatal("invalid reporting timezone", zap.Error(err))
		}
		messagingSvc := whatsappsvc.NewMetaWhatsAppService(whatsappclient.NewClient(cfg.WhatsApp), baseLogger.Named("svc.whatsapp"))
		sched := scheduler.NewScheduler(scheduler.Options{
			Schedule:  cfg.Reporting.CronSchedule,
			Location:  location,
			Recipient: cfg.WhatsApp.DigestRecipient,
		}, reportingSvc, messagingSvc, baseLogger.Named("scheduler"))
		if err := sched.Start(); err != nil {
			baseLogger.Fatal("failed to start scheduler", zap.Error(err))
		}
		defer sched.Stop()
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 2*cfg.AI.Timeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		baseLogger.Info("server starting", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			baseLogger.Fatal("http server crashed", zap.Error(err))
		}
	}()

	<-sigCtx.Done()
	baseLogger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		baseLogger.Error("graceful shutdown failed", zap.Error(err))
	}
	checkoutSvc.Wait()
}

func openHistory(ctx context.Context, cfg config.HistoryConfig, log *zap.Logger) (historyStore, func()) {
	if cfg.MongoEnabled() {
		repo, err := mongodb.NewHistoryRepository(ctx, cfg.MongoURI, cfg.MongoDBName)
		if err != nil {
			log.Fatal("failed to init mongodb repository", zap.Error(err))
		}
		log.Info("transaction history stored in mongodb", zap.String("db", cfg.MongoDBName))
		return repo, func() {
			if err := repo.Close(context.Background()); err != nil {
				log.Error("failed to close mongodb connection", zap.Error(err))
			}
		}
	}

	store, err := jsonfile.NewHistoryStore(cfg.File, log.Named("repo.history"))
	if err != nil {
		log.Fatal("failed to open history file", zap.Error(err))
	}
	log.Info("transaction history stored on disk", zap.String("path", cfg.File))
	return store, func() {}
}
