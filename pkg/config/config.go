// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package config

type Config struct {
	PostgresDSN        string `env:"POSTGRES_DSN"          envDefault:"host=localhost user=matchmaker dbname=matchmaker sslmode=disable" envDocs:"postgres connection string"`
	RedisAddr          string `env:"REDIS_ADDR"            envDefault:"localhost:6379" envDocs:"redis host:port used for event fanout"`
	RedisPassword      string `env:"REDIS_PASSWORD"        envDefault:""               envDocs:"redis password"`
	CycleIntervalMs    int    `env:"CYCLE_INTERVAL_MS"     envDefault:"5000"           envDocs:"interval between scheduler cycle attempts"`
	ExpireIntervalMs   int    `env:"EXPIRE_INTERVAL_MS"    envDefault:"1000"           envDocs:"interval between ready check expiry sweeps"`
	SearchTimeBudgetMs int    `env:"SEARCH_TIME_BUDGET_MS" envDefault:"0"              envDocs:"balancer wall clock budget in ms (0 means use default from code)"`
	BalanceWorkerCount int    `env:"BALANCE_WORKER_COUNT"  envDefault:"1"              envDocs:"number of workers the balance search is offloaded to"`
	MetricsAddr        string `env:"METRICS_ADDR"          envDefault:":9100"          envDocs:"listen address for the prometheus endpoint"`
}
