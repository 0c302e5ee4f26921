package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/xxxsen/common/logger"
	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/common/webapi"
	"go.uber.org/zap"

	"github.com/ndgo/studybot/internal/ai"
	"github.com/ndgo/studybot/internal/config"
	"github.com/ndgo/studybot/internal/db"
	"github.com/ndgo/studybot/internal/filestore"
	"github.com/ndgo/studybot/internal/handler"
	"github.com/ndgo/studybot/internal/index"
	"github.com/ndgo/studybot/internal/job"
	"github.com/ndgo/studybot/internal/lifecycle"
	"github.com/ndgo/studybot/internal/middleware"
	"github.com/ndgo/studybot/internal/repo"
	"github.com/ndgo/studybot/internal/retrieval"
	"github.com/ndgo/studybot/internal/router"
	"github.com/ndgo/studybot/internal/schedule"
	"github.com/ndgo/studybot/internal/service"
)

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "studybot",
		Short: "studybot backend server",
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run studybot server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if configPath == "" {
				return fmt.Errorf("--config is required")
			}
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			logger.Init(
				cfg.LogConfig.File,
				cfg.LogConfig.Level,
				int(cfg.LogConfig.FileCount),
				int(cfg.LogConfig.FileSize),
				int(cfg.LogConfig.KeepDays),
				cfg.LogConfig.Console,
			)
			logutil.GetLogger(context.Background()).Info("config loaded", zap.String("config", configPath))

			conn, err := db.Open(cfg.Database)
			if err != nil {
				return fmt.Errorf("open db: %w", err)
			}
			if err := db.ApplyMigrations(conn); err != nil {
				return fmt.Errorf("migrations: %w", err)
			}
			return runServer(cfg, conn)
		},
	}

	runCmd.Flags().StringVar(&configPath, "config", "", "path to config.json")
	rootCmd.AddCommand(runCmd)

	if err := rootCmd.Execute(); err != nil {
		logutil.GetLogger(context.Background()).Fatal("startup error", zap.Error(err))
	}
}

func buildEmbedder(cfg config.AIConfig) (ai.IEmbedder, error) {
	primaryProvider, err := ai.NewEmbedProvider(cfg.EmbedProvider, cfg.EmbedData)
	if err != nil {
		return nil, fmt.Errorf("init embed provider: %w", err)
	}
	primary := ai.NewEmbedder(primaryProvider, cfg.EmbedModel)
	if cfg.EmbedFallbackProvider == "" {
		return primary, nil
	}
	fallbackProvider, err := ai.NewEmbedProvider(cfg.EmbedFallbackProvider, cfg.EmbedFallbackData)
	if err != nil {
		return nil, fmt.Errorf("init fallback embed provider: %w", err)
	}
	fallback := ai.NewEmbedder(fallbackProvider, cfg.EmbedFallbackModel)
	return ai.NewGroupEmbedder([]ai.EmbedderEntry{
		{Name: cfg.EmbedModel, Embedder: primary},
		{Name: cfg.EmbedFallbackModel, Embedder: fallback},
	}), nil
}

func runServer(cfg *config.Config, conn *sql.DB) error {
	rootCtx := context.Background()
	logutil.GetLogger(rootCtx).Info(
		"starting server",
		zap.Int("port", cfg.Port),
		zap.String("file_store", cfg.FileStore.Type),
		zap.Int("embed_dim", cfg.AI.EmbedDim),
	)

	aiTimeout := time.Duration(cfg.AI.TimeoutSeconds) * time.Second

	fastProvider, err := ai.NewProvider(cfg.AI.Provider, cfg.AI.Data)
	if err != nil {
		return fmt.Errorf("init ai provider: %w", err)
	}
	fast := ai.NewGenerator(fastProvider, cfg.AI.FastModel)

	deepProvider, err := ai.NewProvider(cfg.AI.DeepProvider, cfg.AI.DeepData)
	if err != nil {
		return fmt.Errorf("init deep ai provider: %w", err)
	}
	deep := ai.NewGenerator(deepProvider, cfg.AI.DeepModel)

	embedder, err := buildEmbedder(cfg.AI)
	if err != nil {
		return err
	}

	docRepo := repo.NewDocumentRepo(conn)
	tempDocRepo := repo.NewTempDocumentRepo(conn)
	videoRepo := repo.NewVideoRepo(conn)
	permanentRepo := repo.NewPermanentChunkRepo(conn)
	temporaryRepo := repo.NewTemporaryChunkRepo(conn)
	transcriptRepo := repo.NewTranscriptChunkRepo(conn)
	chunkStore := repo.NewChunkStore(permanentRepo, temporaryRepo, transcriptRepo)

	idx := index.New(chunkStore, cfg.AI.EmbedDim)
	engine := retrieval.NewEngine(embedder, idx, chunkStore, cfg.Retrieval.TopN, aiTimeout)
	modelRouter := router.New(fast, deep, aiTimeout)

	store, err := filestore.New(cfg.FileStore)
	if err != nil {
		return fmt.Errorf("init file store: %w", err)
	}

	chunker := ai.NewChunker(0, 0)
	ingestService := service.NewIngestService(
		chunker, embedder,
		docRepo, tempDocRepo, videoRepo,
		permanentRepo, temporaryRepo, transcriptRepo,
		idx, aiTimeout,
	)
	askService := service.NewAskService(engine, modelRouter)

	sentinel := lifecycle.NewSentinel(cfg.Lifecycle.SentinelPath)
	recovery := lifecycle.NewCrashRecovery(sentinel, tempDocRepo, temporaryRepo, store, idx)

	retention := time.Duration(cfg.Lifecycle.TempRetentionMinutes) * time.Minute
	sweepJob := job.NewTempCleanupJob(tempDocRepo, temporaryRepo, store, idx, retention)
	backfillJob := job.NewEmbeddingBackfillJob(chunkStore, embedder, idx, 0)

	scheduler := schedule.NewCronScheduler()
	if err := scheduler.AddJob(sweepJob, cfg.Lifecycle.SweepCron); err != nil {
		return fmt.Errorf("schedule sweep: %w", err)
	}
	if err := scheduler.AddJob(backfillJob, cfg.Lifecycle.BackfillCron); err != nil {
		return fmt.Errorf("schedule backfill: %w", err)
	}

	deps := handler.RouterDeps{
		Ask:       handler.NewAskHandler(askService),
		Ingest:    handler.NewIngestHandler(ingestService, store),
		JWTSecret: []byte(cfg.JWTSecret),
	}

	extra := []gin.HandlerFunc{
		middleware.RequestID(),
		middleware.CORS(cfg.CORSAllowlist),
		gzip.Gzip(gzip.DefaultCompression),
	}
	if cfg.RateLimitSeconds > 0 {
		extra = append(extra, middleware.RateLimit(time.Duration(cfg.RateLimitSeconds)*time.Second))
	}

	webEngine, err := webapi.NewEngine(
		"/api/v1",
		fmt.Sprintf("0.0.0.0:%d", cfg.Port),
		webapi.WithRegister(func(group *gin.RouterGroup) {
			handler.RegisterRoutes(group, deps)
		}),
		webapi.WithExtraMiddlewares(extra...),
	)
	if err != nil {
		return fmt.Errorf("init web engine: %w", err)
	}
	logutil.GetLogger(rootCtx).Info("http server listening", zap.String("addr", fmt.Sprintf("0.0.0.0:%d", cfg.Port)))

	ctx, stop := signal.NotifyContext(rootCtx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	scheduler.Start(ctx)
	scheduler.RunOnceAfter(sweepJob, time.Minute)
	go recovery.Run(ctx)

	go func() {
		if err := webEngine.Run(); err != nil && err != http.ErrServerClosed {
			logutil.GetLogger(rootCtx).Error("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logutil.GetLogger(rootCtx).Info("server stopping...")
	scheduler.Stop()
	if err := sentinel.Mark(); err != nil {
		logutil.GetLogger(rootCtx).Error("write shutdown marker failed", zap.Error(err))
	}
	return nil
}
