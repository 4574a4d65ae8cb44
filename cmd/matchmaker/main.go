// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/caarlos0/env"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/dota2classic/matchmaker/pkg/balance"
	"github.com/dota2classic/matchmaker/pkg/config"
	"github.com/dota2classic/matchmaker/pkg/constants"
	"github.com/dota2classic/matchmaker/pkg/envelope"
	"github.com/dota2classic/matchmaker/pkg/events"
	"github.com/dota2classic/matchmaker/pkg/metrics"
	"github.com/dota2classic/matchmaker/pkg/playerinfo"
	"github.com/dota2classic/matchmaker/pkg/queue"
	"github.com/dota2classic/matchmaker/pkg/room"
	"github.com/dota2classic/matchmaker/pkg/scheduler"
	"github.com/dota2classic/matchmaker/pkg/storage"
)

func main() {
	logrus.SetFormatter(&logrus.JSONFormatter{})

	cfg := config.Config{}
	if err := env.Parse(&cfg); err != nil {
		logrus.WithError(err).Fatal("failed to parse configuration")
	}

	db, err := gorm.Open(postgres.Open(cfg.PostgresDSN), &gorm.Config{})
	if err != nil {
		logrus.WithError(err).Fatal("failed to connect to postgres")
	}
	stores := storage.NewGormStores(db)
	if err := stores.AutoMigrate(); err != nil {
		logrus.WithError(err).Fatal("failed to migrate schema")
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	publisher := events.NewRedisPublisher(redisClient)

	registry := prometheus.NewRegistry()
	mm := metrics.NewMetrics(registry)

	players := &playerinfo.StaticClient{}
	partyQueue := queue.NewPartyQueue(stores.Parties, stores.Rooms, players, publisher, time.Now)
	roomService := room.NewService(stores.Rooms, publisher, time.Now)
	readyCheck := room.NewReadyCheckService(stores.Rooms, partyQueue, publisher, mm, time.Now)

	table := scheduler.DefaultModeTable
	if cfg.SearchTimeBudgetMs > 0 {
		budget := time.Duration(cfg.SearchTimeBudgetMs) * time.Millisecond
		for i := range table {
			table[i].TimeBudget = budget
		}
	}

	workers := balance.NewWorkerPool(cfg.BalanceWorkerCount)
	defer workers.Close()

	sched := scheduler.NewMatchScheduler(
		stores.Settings,
		stores.Parties,
		partyQueue,
		roomService,
		workers,
		mm,
		table,
		time.Now,
	)

	rootScope := envelope.NewRootScope(context.Background(), "matchmaker", "")
	defer rootScope.Finish()

	if err := sched.OnStart(rootScope); err != nil {
		rootScope.Log.WithError(err).Fatal("failed to recover queue locks")
	}

	runner := cron.New(cron.WithChain(cron.Recover(cron.DefaultLogger)))
	cycleSpec := everyMs(cfg.CycleIntervalMs)
	if _, err := runner.AddFunc(cycleSpec, func() {
		scope := envelope.NewRootScope(context.Background(), "matchmaker.cycle", "")
		defer scope.Finish()
		sched.Cycle(scope, 0)
	}); err != nil {
		rootScope.Log.WithError(err).Fatal("failed to schedule matching cycle")
	}
	if _, err := runner.AddFunc(everyMs(cfg.ExpireIntervalMs), func() {
		scope := envelope.NewRootScope(context.Background(), "matchmaker.expire", "")
		defer scope.Finish()
		readyCheck.ExpireReadyChecks(scope, constants.ReadyCheckDuration)
	}); err != nil {
		rootScope.Log.WithError(err).Fatal("failed to schedule ready check sweep")
	}
	if _, err := runner.AddFunc("@every 1m", func() {
		scope := envelope.NewRootScope(context.Background(), "matchmaker.sweep", "")
		defer scope.Finish()
		partyQueue.SweepEmptyParties(scope)
	}); err != nil {
		rootScope.Log.WithError(err).Fatal("failed to schedule party sweep")
	}
	runner.Start()
	defer runner.Stop()

	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
		rootScope.Log.WithField("addr", cfg.MetricsAddr).Info("serving metrics")
		if err := http.ListenAndServe(cfg.MetricsAddr, mux); err != nil {
			rootScope.Log.WithError(err).Error("metrics endpoint exited")
		}
	}()

	rootScope.Log.Info("matchmaker started")

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	rootScope.Log.Info("shutting down")
}

func everyMs(ms int) string {
	d := time.Duration(ms) * time.Millisecond
	if d < time.Second {
		d = time.Second
	}
	return "@every " + d.String()
}
