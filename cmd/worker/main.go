package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/ceitcs/buildbook/internal/common"
	"github.com/ceitcs/buildbook/internal/config"
	"github.com/ceitcs/buildbook/internal/notify"
	"github.com/ceitcs/buildbook/internal/obs"
	"github.com/ceitcs/buildbook/internal/resilience"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := obs.NewLogger(cfg.ObsLogFormat, cfg.ObsLogLevel).With().Str("component", "worker").Logger()
	if cfg.RedisURL == "" {
		logger.Fatal().Msg("REDIS_URL is required for the worker")
	}
	redisOpt, err := asynq.ParseRedisURI(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse redis url")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	resilience.MustRegisterMetrics(cfg.ObsMetricsNamespace, nil)
	mail := &resilience.Mailer{
		Sender:      common.LogEmailSender{Logger: logger.With().Str("component", "mail").Logger(), From: cfg.NotifyEmailFrom},
		Breaker:     resilience.NewBreaker("mail", 5, 0.5, cfg.MailBreakerOpenFor).WithLogger(logger),
		MaxAttempts: cfg.MailMaxAttempts,
		BaseBackoff: cfg.MailRetryBase,
		Jitter:      0.2,
	}
	email := notify.EmailNotifier{
		Mail:         mail,
		Enabled:      cfg.NotifyEmailEnabled,
		TopicToggles: cfg.NotifyEmailTopics,
	}

	mux := asynq.NewServeMux()
	notify.EmailTaskHandler{Notifier: email, Logger: logger}.Register(mux)

	srv := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: cfg.WorkerConcurrency,
		Queues:      map[string]int{cfg.TaskQueue: 1},
		Logger:      asynqLogger{l: logger},
		ErrorHandler: asynq.ErrorHandlerFunc(func(_ context.Context, task *asynq.Task, err error) {
			logger.Warn().Err(err).Str("type", task.Type()).Msg("task failed")
		}),
	})

	logger.Info().Str("queue", cfg.TaskQueue).Int("concurrency", cfg.WorkerConcurrency).Msg("worker starting")
	if err := srv.Start(mux); err != nil {
		logger.Fatal().Err(err).Msg("start worker")
	}
	<-ctx.Done()
	srv.Shutdown()
	logger.Info().Msg("worker shutdown complete")
}

// asynqLogger routes asynq's internal logging through zerolog.
type asynqLogger struct {
	l zerolog.Logger
}

func (a asynqLogger) Debug(args ...interface{}) { a.l.Debug().Msg(fmt.Sprint(args...)) }
func (a asynqLogger) Info(args ...interface{})  { a.l.Info().Msg(fmt.Sprint(args...)) }
func (a asynqLogger) Warn(args ...interface{})  { a.l.Warn().Msg(fmt.Sprint(args...)) }
func (a asynqLogger) Error(args ...interface{}) { a.l.Error().Msg(fmt.Sprint(args...)) }
func (a asynqLogger) Fatal(args ...interface{}) { a.l.Fatal().Msg(fmt.Sprint(args...)) }
