package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nelsonsanch/Persontx-sub001/common/database"
	"github.com/nelsonsanch/Persontx-sub001/common/logger"
	"github.com/nelsonsanch/Persontx-sub001/common/mqtt"
	commonredis "github.com/nelsonsanch/Persontx-sub001/common/redis"
	"github.com/nelsonsanch/Persontx-sub001/internal/cache"
	"github.com/nelsonsanch/Persontx-sub001/internal/config"
	"github.com/nelsonsanch/Persontx-sub001/internal/evaluator"
	httpapi "github.com/nelsonsanch/Persontx-sub001/internal/http"
	"github.com/nelsonsanch/Persontx-sub001/internal/repository"
	"github.com/nelsonsanch/Persontx-sub001/internal/service"

	"github.com/spf13/cobra"
	"github.com/zoobzio/clockz"
	"go.uber.org/zap"
)

const serviceName = "asset-compliance"

// NewServeCommand 启动 HTTP 服务
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:          "serve",
		Short:        "Run the compliance HTTP service",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			return runServe(cmd.Context(), cfg, rootOpts)
		},
	}
}

func runServe(parent context.Context, cfg *config.Config, rootOpts *RootOptions) error {
	if cfg.TenantID == "" {
		return fmt.Errorf("TENANT_ID is required")
	}

	log, err := logger.NewLogger(cfg.Log.Level, cfg.Log.Format, serviceName)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer log.Sync()

	thresholds, err := evaluator.LoadThresholds(rootOpts.thresholdsPath(cfg.ThresholdsPath))
	if err != nil {
		return err
	}
	eval := evaluator.NewEvaluator(thresholds, log)

	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	// 存储：DB 未启用时使用内存 repo（仅用于联调）
	var repos repository.Repositories
	if cfg.DBEnabled {
		db, err := database.NewPostgresDB(&cfg.Database)
		if err != nil {
			return err
		}
		defer database.Close(db)
		if cfg.DBAutoMigrate {
			if err := repository.EnsureSchema(ctx, db); err != nil {
				return err
			}
			log.Info("Database schema ensured")
		}
		repos = repository.NewPostgresRepositories(db, log)
		log.Info("DB enabled for asset-compliance", zap.String("database", cfg.Database.Database))
	} else {
		repos = repository.NewMemoryStore().Repositories()
		log.Warn("DB disabled, using in-memory repositories")
	}

	opts := service.Options{ProposalTTL: cfg.Compliance.ProposalTTL}

	// 待确认提议与结果 Stream：Redis 不可用时提议退回进程内存储，不发布结果
	var kv cache.KV = cache.NewMemoryKV(clockz.RealClock)
	if cfg.RedisEnabled {
		client := commonredis.NewRedisClient(&cfg.Redis)
		if err := commonredis.Ping(ctx, client); err != nil {
			log.Warn("Redis enabled but connection failed, proposals kept in memory", zap.Error(err))
			_ = commonredis.Close(client)
		} else {
			defer commonredis.Close(client)
			kv = cache.NewRedisKV(client)
			opts.Publisher = service.NewStreamPublisher(client, cfg.Compliance.ResultStream, cfg.Compliance.StreamMaxLen, log)
		}
	}

	if cfg.MQTTEnabled {
		client, err := mqtt.NewClient(&cfg.MQTT, log)
		if err != nil {
			log.Warn("MQTT enabled but connection failed, alerts disabled", zap.Error(err))
		} else {
			defer client.Disconnect()
			opts.Notifier = service.NewMQTTNotifier(client, cfg.Compliance.AlertTopic, log)
		}
	}

	svc := service.NewComplianceService(cfg.TenantID, repos, eval, cache.NewProposalStore(kv), opts, log)

	router := httpapi.NewRouter(log)
	router.RegisterHealthRoutes()
	router.RegisterComplianceRoutes(httpapi.NewComplianceHandler(svc, log))

	srv := service.NewServer(cfg.HTTP.Addr, router, log)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	var serveErr error
	select {
	case <-sigCh:
	case <-ctx.Done():
	case serveErr = <-errCh:
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Stop(shutdownCtx); err != nil {
		log.Error("Failed to stop HTTP server", zap.Error(err))
	}
	return serveErr
}
