package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/redis/go-redis/v9"

	"github.com/biodun42/NexThread/internal/api"
	"github.com/biodun42/NexThread/internal/auth"
	"github.com/biodun42/NexThread/internal/config"
	"github.com/biodun42/NexThread/internal/directory"
	"github.com/biodun42/NexThread/internal/events"
	"github.com/biodun42/NexThread/internal/logger"
	"github.com/biodun42/NexThread/internal/presence"
	"github.com/biodun42/NexThread/internal/store"
	"github.com/biodun42/NexThread/internal/uploader"
)

func main() {
	cfgPath := "config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("config load: %v", err)
	}

	zl, err := logger.New(cfg.App.Env)
	if err != nil {
		log.Fatalf("logger init: %v", err)
	}
	defer zl.Sync()

	ctx := context.Background()

	mongoClient, err := store.NewMongoClient(ctx, cfg.Mongo.URI)
	if err != nil {
		zl.Fatalw("mongo connect", "err", err)
	}
	defer mongoClient.Disconnect(context.Background())
	db := mongoClient.Database(cfg.Mongo.DB)
	accounts := store.NewMongoAccountStore(db.Collection(cfg.Mongo.Users), zl)
	messages := store.NewMongoMessageStore(db.Collection(cfg.Mongo.Messages), zl)

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer rdb.Close()
	cache := presence.NewCache(rdb, cfg.Redis.Prefix, cfg.PresenceTTL)

	pub := events.NewPublisher(cfg.Kafka.Brokers, cfg.Kafka.MessageTopic, cfg.Kafka.PresenceTopic, zl)
	defer pub.Close()

	var up *uploader.Uploader
	if cfg.S3.Bucket != "" {
		s3store, err := uploader.NewS3Store(ctx, cfg.S3.Region, cfg.S3.Bucket, cfg.S3.Endpoint, cfg.S3.PublicRead)
		if err != nil {
			zl.Fatalw("s3 init", "err", err)
		}
		up = uploader.New(s3store, zl)
	}

	var jv *auth.JWTValidator
	if strings.EqualFold(cfg.JWT.Alg, "RS256") {
		jv, err = auth.NewJWTValidatorRS256(cfg.JWT.PublicKeyPath)
	} else {
		jv, err = auth.NewJWTValidatorHS256(cfg.JWT.HSSecret)
	}
	if err != nil {
		zl.Fatalw("jwt validator init", "err", err)
	}

	app := api.NewServer(api.Deps{
		Accounts:   accounts,
		Messages:   messages,
		Uploader:   up,
		Cache:      cache,
		Events:     pub,
		JWT:        jv,
		Visibility: directory.Visibility(cfg.Directory.Visibility),
		Grace:      cfg.PresenceGrace,
		Log:        zl,
	})

	errs := make(chan error, 1)
	go func() {
		addr := ":" + cfg.App.PortString()
		zl.Infow("starting messenger service", "addr", addr)
		errs <- app.Listen(addr)
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case e := <-errs:
		zl.Fatalw("server error", "err", e)
	case s := <-sig:
		zl.Infow("signal received", "signal", s.String())
	}

	if err := app.ShutdownWithTimeout(cfg.ShutdownTimeout); err != nil {
		zl.Errorw("fiber shutdown", "err", err)
	}
	zl.Info("shutting down")
}
