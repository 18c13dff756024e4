package svc

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	redisclient "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"oraclewatch/internal/application/port"
	"oraclewatch/internal/application/service"
	"oraclewatch/internal/application/usecase/monitor"
	"oraclewatch/internal/infrastructure/config"
	"oraclewatch/internal/infrastructure/factory"
	"oraclewatch/internal/infrastructure/metrics"
	"oraclewatch/internal/infrastructure/storage/composite"
	"oraclewatch/internal/infrastructure/storage/memory"
	pgrepo "oraclewatch/internal/infrastructure/storage/postgres"
	redisrepo "oraclewatch/internal/infrastructure/storage/redis"
	sqliterepo "oraclewatch/internal/infrastructure/storage/sqlite"
	"oraclewatch/internal/interfaces/console"
	"oraclewatch/internal/interfaces/httpapi"
	"oraclewatch/internal/interfaces/wsfeed"
)

type ServiceContext struct {
	Ctx    context.Context
	Config *config.Config

	// 基础设施层（第一层初始化）
	sources    []port.Source
	sqliteRepo *sqliterepo.Repo
	pgRepo     *pgrepo.Repo
	redisRepo  *redisrepo.Repo
	hub        *wsfeed.Hub

	alertLog   port.AlertLog
	localStore port.LocalAlertStore
	historyLog port.HistoryLog

	// 输出端口
	Sink port.Sink

	// 应用业务组件（依赖基础设施）
	Monitor  *monitor.Service
	Alerts   *service.AlertService
	History  *service.HistoryService
	recorder *service.HistoryRecorder
	server   *http.Server

	// 资源管理
	closerChain []func() error
}

// New 创建并初始化 ServiceContext
// 这是应用启动的唯一入口点，所有依赖初始化都在这里完成
func New(ctx context.Context, cfg *config.Config) (*ServiceContext, error) {
	sc := &ServiceContext{
		Ctx:         ctx,
		Config:      cfg,
		Sink:        console.NewSink(),
		closerChain: make([]func() error, 0),
	}

	// 初始化所有组件，按依赖顺序
	if err := sc.initializeComponents(); err != nil {
		// 清理已初始化的资源
		_ = sc.Close()
		return nil, err
	}
	return sc, nil
}

// initializeComponents 初始化所有应用组件
func (sc *ServiceContext) initializeComponents() error {
	sc.sources = factory.NewSources(sc.Config)
	if len(sc.sources) == 0 {
		return ErrNoSourcesEnabled
	}

	// 0. 存储层
	if err := sc.initializeStorage(); err != nil {
		return fmt.Errorf("%w: %w", ErrStorageInitFailed, err)
	}

	// 1. 实时推送
	if sc.Config.HTTP.Enabled {
		sc.hub = wsfeed.NewHub()
		sc.closerChain = append(sc.closerChain, sc.hub.Close)
	}

	// 2. 业务服务
	sc.Alerts = service.NewAlertService(sc.alertLog, sc.localStore)
	sc.History = service.NewHistoryService(sc.historyLog, sc.Config.History.MaxPoints)

	sc.Monitor = monitor.NewService(monitor.ServiceDeps{
		Sources:      sc.sources,
		PollInterval: sc.Config.PollInterval(),
		FetchTimeout: sc.Config.FetchTimeout(),
		Sink:         sc.Sink,
		Formatter:    monitor.NewFormatter(*sc.Config.App.Color),
		Prices:       service.NewPriceService(sc.latestCache()),
		Publisher:    sc.publisher(),
		Observer:     metrics.NewRecorder(),
	})

	if sc.Config.History.Enabled {
		sc.recorder = service.NewHistoryRecorder(sc.History, sc.Monitor.State(), sc.Config.History.Schedule)
	}

	if sc.Config.HTTP.Enabled {
		api := httpapi.New(httpapi.Deps{
			State:     sc.Monitor.State(),
			Refresher: sc.Monitor,
			Alerts:    sc.Alerts,
			History:   sc.History,
			Live:      sc.hub,
		})
		sc.server = &http.Server{
			Addr:              sc.Config.HTTP.Addr,
			Handler:           api.Handler(),
			ReadHeaderTimeout: 10 * time.Second,
		}
	}

	log.Info().
		Int("sources", len(sc.sources)).
		Bool("http", sc.server != nil).
		Bool("history", sc.recorder != nil).
		Msg("✓ All components initialized")
	return nil
}

// initializeStorage 初始化存储层 (SQLite / Postgres / Redis)，未启用的用内存实现代替
func (sc *ServiceContext) initializeStorage() error {
	st := sc.Config.Storage

	if st.SQLite.Enabled {
		if err := sc.initSQLite(); err != nil {
			return fmt.Errorf("sqlite initialization failed: %w", err)
		}
		sc.localStore = sc.sqliteRepo
	} else {
		log.Warn().Msg("sqlite disabled, local alert list is kept in memory")
		sc.localStore = memory.NewLocalAlertStore()
	}

	if st.Postgres.Enabled {
		if err := sc.initPostgres(); err != nil {
			return fmt.Errorf("postgres initialization failed: %w", err)
		}
		sc.alertLog = sc.pgRepo
		sc.historyLog = sc.pgRepo
	} else {
		log.Warn().Msg("postgres disabled, alert and history logs are kept in memory")
		sc.alertLog = memory.NewAlertLog()
		sc.historyLog = memory.NewHistoryLog()
	}

	if st.Redis.Enabled {
		if err := sc.initRedis(); err != nil {
			return fmt.Errorf("redis initialization failed: %w", err)
		}
	}
	return nil
}

// initRedis 初始化 Redis 连接
func (sc *ServiceContext) initRedis() error {
	cfg := sc.Config.Storage.Redis
	rdb := redisclient.NewClient(&redisclient.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// 测试连接
	ctx, cancel := context.WithTimeout(sc.Ctx, 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return fmt.Errorf("redis ping failed: %w", err)
	}

	ttl := time.Duration(cfg.TTLSeconds) * time.Second
	sc.redisRepo = redisrepo.New(rdb, cfg.Prefix, ttl, cfg.Stream, cfg.Channel)

	// 注册关闭回调
	sc.closerChain = append(sc.closerChain, func() error {
		log.Info().Msg("closing redis connection")
		return rdb.Close()
	})

	log.Info().
		Str("addr", cfg.Addr).
		Int("db", cfg.DB).
		Msg("✓ Redis initialized")
	return nil
}

// initSQLite 初始化 SQLite 数据库
func (sc *ServiceContext) initSQLite() error {
	repo, err := sqliterepo.New(sc.Config.Storage.SQLite.Path)
	if err != nil {
		return fmt.Errorf("sqlite repo creation failed: %w", err)
	}
	sc.sqliteRepo = repo

	sc.closerChain = append(sc.closerChain, func() error {
		log.Info().Msg("closing sqlite connection")
		return repo.Close()
	})

	log.Info().
		Str("path", sc.Config.Storage.SQLite.Path).
		Msg("✓ SQLite initialized")
	return nil
}

// initPostgres 初始化 Postgres 远端日志
func (sc *ServiceContext) initPostgres() error {
	ctx, cancel := context.WithTimeout(sc.Ctx, 10*time.Second)
	defer cancel()

	repo, err := pgrepo.New(ctx, sc.Config.Storage.Postgres.DSN)
	if err != nil {
		return err
	}
	sc.pgRepo = repo

	sc.closerChain = append(sc.closerChain, func() error {
		log.Info().Msg("closing postgres connection")
		return repo.Close()
	})

	log.Info().Msg("✓ Postgres initialized")
	return nil
}

func (sc *ServiceContext) latestCache() port.LatestCache {
	var caches []port.LatestCache
	if sc.sqliteRepo != nil {
		caches = append(caches, sc.sqliteRepo)
	}
	if sc.redisRepo != nil {
		caches = append(caches, sc.redisRepo)
	}
	if len(caches) == 0 {
		return monitor.NewNoopRepo()
	}
	return composite.NewCache(caches...)
}

func (sc *ServiceContext) publisher() port.ComparisonPublisher {
	var pubs []port.ComparisonPublisher
	if sc.redisRepo != nil {
		pubs = append(pubs, sc.redisRepo)
	}
	if sc.hub != nil {
		pubs = append(pubs, sc.hub)
	}
	if len(pubs) == 0 {
		return monitor.NewNoopPublisher()
	}
	return composite.NewPublisher(pubs...)
}

// Run 启动所有后台任务并阻塞直到 ctx 结束
func (sc *ServiceContext) Run(ctx context.Context) error {
	if sc.recorder != nil {
		if err := sc.recorder.Start(ctx); err != nil {
			return fmt.Errorf("history recorder: %w", err)
		}
	}

	go sc.resyncLoop(ctx)

	if sc.server != nil {
		go func() {
			log.Info().Str("addr", sc.server.Addr).Msg("http server listening")
			if err := sc.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error().Err(err).Msg("http server failed")
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = sc.server.Shutdown(shutdownCtx)
		}()
	}

	err := sc.Monitor.Run(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// resyncLoop 定期把 outbox 中未同步的告警补写到远端日志
func (sc *ServiceContext) resyncLoop(ctx context.Context) {
	ticker := time.NewTicker(sc.Config.ResyncInterval())
	defer ticker.Stop()

	for {
		if _, err := sc.Alerts.Resync(ctx); err != nil && ctx.Err() == nil {
			log.Warn().Err(err).Msg("alert resync failed")
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Close 关闭 ServiceContext 中的所有资源
// 按照相反的顺序关闭所有资源
func (sc *ServiceContext) Close() error {
	for i := len(sc.closerChain) - 1; i >= 0; i-- {
		if err := sc.closerChain[i](); err != nil {
			log.Error().Err(err).Msg("error closing resource")
		}
	}
	sc.closerChain = nil
	return nil
}
