package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"trendbet-bot/internal/api"
	"trendbet-bot/internal/betflow"
	"trendbet-bot/internal/birdeye"
	"trendbet-bot/internal/bot"
	"trendbet-bot/internal/chart"
	"trendbet-bot/internal/config"
	"trendbet-bot/internal/database"
	"trendbet-bot/internal/events"
	"trendbet-bot/internal/history"
	"trendbet-bot/internal/intent"
	"trendbet-bot/internal/leaderboard"
	"trendbet-bot/internal/logger"
	"trendbet-bot/internal/router"
	"trendbet-bot/internal/store"
	"trendbet-bot/internal/utils"
	"trendbet-bot/internal/worker"
)

func main() {
	cfg := config.LoadConfig()

	log, err := logger.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Connect(cfg, log)
	if err != nil {
		log.Fatal("could not connect to database", zap.Error(err))
	}
	sqlDB, err := db.DB()
	if err != nil {
		log.Fatal("could not access database handle", zap.Error(err))
	}
	defer func() { _ = sqlDB.Close() }()

	checks := map[string]api.HealthCheck{"database": sqlDB.PingContext}

	var (
		rdb   *redis.Client
		cache birdeye.Cache
	)
	if cfg.RedisEnabled {
		rdb, err = database.ConnectRedis(ctx, cfg, log)
		if err != nil {
			log.Fatal("could not connect to redis", zap.Error(err))
		}
		defer func() { _ = rdb.Close() }()
		cache = birdeye.NewRedisCache(rdb, cfg.TrendingCacheTTL)
		checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	}

	gateway := birdeye.NewClient(cfg.BirdeyeBaseURL, cfg.BirdeyeAgentID, cfg.BirdeyeRPS, cache, log.Named("birdeye"))

	users := store.NewGormStore(db)
	board := leaderboard.NewAggregator(users, users, cfg.LeaderboardMinBets, log.Named("leaderboard"))

	var publisher interface {
		betflow.Publisher
		Close() error
	} = events.Nop{}
	if len(cfg.KafkaBrokers) > 0 {
		eventLog := log.Named("events")
		publisher = events.NewKafkaPublisher(events.NewWriter(cfg.KafkaBrokers, eventLog), cfg.KafkaTopicBetPlaced, cfg.KafkaTopicBetResolved, eventLog)
		log.Info("publishing bet events", zap.Strings("brokers", cfg.KafkaBrokers))
	}
	defer func() { _ = publisher.Close() }()

	engine := betflow.NewEngine(users, gateway, board, log.Named("betflow"),
		betflow.WithHoldPeriod(cfg.BetHoldPeriod),
		betflow.WithPublisher(publisher),
	)

	var classifier intent.Classifier = intent.Disabled{}
	if cfg.OpenAIKey != "" {
		classifier = intent.NewOpenAIClassifier(cfg.OpenAIKey, cfg.OpenAIBaseURL, cfg.OpenAIModel, log.Named("intent"))
	}

	samples := history.NewGormStore(db)

	r := router.New(router.Deps{
		Users:           users,
		Engine:          engine,
		Gateway:         gateway,
		Leaderboard:     board,
		LeaderboardSize: cfg.LeaderboardSize,
		History:         samples,
		Charts:          chart.RenderLineChart,
		Classifier:      classifier,
	}, log.Named("router"))

	tg, err := bot.NewBot(cfg.BotToken, r, log.Named("bot"))
	if err != nil {
		log.Fatal("could not create telegram bot", zap.Error(err))
	}

	allow, err := utils.NewIPAllowList(cfg.AdminAllowedCIDRs)
	if err != nil {
		log.Fatal("invalid admin allow list", zap.Error(err))
	}
	admin := api.NewServer(cfg.HTTPPort, board, checks, allow, log.Named("api"))

	settler := worker.NewSettler(users, engine, rdb, tg, cfg.SettleInterval, log.Named("settler"))
	sampler := worker.NewSampler(gateway, samples, cfg.SampleInterval, log.Named("sampler"))

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return tg.Start(ctx) })
	g.Go(func() error { return admin.Start(ctx) })
	g.Go(func() error { settler.Start(ctx); return nil })
	g.Go(func() error { sampler.Start(ctx); return nil })

	log.Info("service started", zap.String("env", cfg.Env), zap.String("db_driver", cfg.DBDriver))
	if err := g.Wait(); err != nil {
		log.Error("service stopped with error", zap.Error(err))
		return
	}
	log.Info("service stopped")
}
