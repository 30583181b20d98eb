package main

import (
	"context"
	"flag"
	"hash/fnv"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"DevLink/config"
	"DevLink/data/database/mgo"
	"DevLink/data/database/pg"
	"DevLink/logger"
	mid "DevLink/middleware"
	"DevLink/module/feed"
	feedsrv "DevLink/module/feed/service"
	poststore "DevLink/module/post/store"
	socialstore "DevLink/module/social/store"
	"DevLink/service/eventbus"
	"DevLink/service/realtime"
	rthandlers "DevLink/service/realtime/handlers"
	"DevLink/service/storage"
	"DevLink/tools/ids"
	"DevLink/tools/security"
)

func main() {
	var cfgPath string
	flag.StringVar(&cfgPath, "config", "config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		logger.Warnf("config load failed (%v), using defaults", err)
		cfg = config.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ===== 基础设施 =====

	gen := ids.NewGenerator(nodeSeed(cfg.Server.NodeID))

	mongoCli, err := mgo.NewClient(ctx, cfg.Mongo)
	if err != nil {
		logger.Errorf("mongo connect failed: %v", err)
		os.Exit(1)
	}
	defer func() { _ = mongoCli.Close(context.Background()) }()

	pgPool, err := pg.NewPool(ctx, cfg.Postgres)
	if err != nil {
		logger.Errorf("postgres connect failed: %v", err)
		os.Exit(1)
	}
	defer pgPool.Close()

	// Redis is optional at startup: the cache layer degrades to misses when
	// it is down, so a failed ping is a warning, not an exit.
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		PoolSize: cfg.Redis.PoolSize,
	})
	pingCtx, pingCancel := context.WithTimeout(ctx, 3*time.Second)
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		logger.Warnf("redis unreachable, timeline cache degraded: %v", err)
	}
	pingCancel()
	defer func() { _ = rdb.Close() }()

	// ===== 组件装配 =====

	posts := poststore.NewPostStore(mongoCli.GetDB())
	if err := posts.EnsureIndexes(ctx); err != nil {
		logger.Warnf("ensure indexes: %v", err)
	}
	graph := socialstore.NewFollowStore(pgPool)
	cache := storage.NewTimelineCache(rdb, cfg.Feed.CacheTTL)

	hub := realtime.NewHub(realtime.HubConf{
		NodeID:        cfg.Server.NodeID,
		FanoutWorkers: cfg.Realtime.FanoutWorkers,
		FanoutQueue:   cfg.Realtime.FanoutQueue,
	})
	defer hub.Close()

	if cfg.Nats.Enabled {
		bridge, err := eventbus.NewBridge(cfg.Nats.URL, cfg.Nats.Subject, cfg.Server.NodeID, hub)
		if err != nil {
			logger.Errorf("nats bridge failed: %v", err)
			os.Exit(1)
		}
		defer bridge.Close()
		hub.SetRelay(bridge)
	}

	feedSvc := feedsrv.NewFeed(posts, graph, cache, hub, gen, feedsrv.Conf{
		DefaultPageSize: cfg.Feed.DefaultPageSize,
		MaxPageSize:     cfg.Feed.MaxPageSize,
	})

	jwtOpts := security.Options{Secret: []byte(cfg.JWT.Secret), Alg: cfg.JWT.Alg, TTL: cfg.JWT.TTL}

	disp := realtime.NewDispatcher()
	disp.Register(rthandlers.NewAuthHandler(jwtOpts))
	disp.Register(rthandlers.NewJoinHandler())
	disp.Register(rthandlers.NewLeaveHandler())
	disp.Register(rthandlers.NewTypingStartHandler())
	disp.Register(rthandlers.NewTypingStopHandler())
	disp.Register(rthandlers.NewPingHandler())

	wsSrv := realtime.NewServer(hub, disp, gen, realtime.ServerConf{
		SendQueueSize:  cfg.Realtime.SendQueueSize,
		InboxQueueSize: cfg.Realtime.InboxQueueSize,
	})

	// ===== 路由 =====

	r := gin.New()
	r.Use(gin.Recovery(), mid.CORS("*"))

	authed := r.Group("/", mid.Auth(jwtOpts))
	feed.NewHandler(feedSvc).Register(authed)

	r.GET("/ws", wsSrv.HandleWS)
	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	srv := &http.Server{Addr: cfg.Server.Addr, Handler: r}

	go func() {
		logger.Infof("server starting on %s node=%s", cfg.Server.Addr, cfg.Server.NodeID)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Errorf("listen: %v", err)
			cancel()
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-stop:
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shCtx, shCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shCancel()
	_ = srv.Shutdown(shCtx)
}

// nodeSeed folds the configured node ID into the snowflake node space.
func nodeSeed(nodeID string) int64 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(nodeID))
	return int64(h.Sum32() % 1024)
}
