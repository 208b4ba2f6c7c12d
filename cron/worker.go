package cron

import (
	"context"
	"log"
	"time"

	"lejio/config"
	"lejio/services/dunning"
	"lejio/services/subscription"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// Task types handled by the billing worker.
const (
	TypeProcessDunning             = "billing:process_dunning"
	TypeProcessSubscriptionBilling = "billing:process_subscription_billing"
)

func redisOpts() asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisQueueDB,
	}
}

// InitBillingWorker starts the async worker that executes the periodic
// sweeps, plus the scheduler that enqueues them: dunning on the configured
// interval, subscription billing on the configured cron expression.
func InitBillingWorker(dunningSvc dunning.Service, subscriptionSvc subscription.Service, logger *zap.Logger) {
	srv := asynq.NewServer(
		redisOpts(),
		asynq.Config{
			Concurrency: 2,
			Queues: map[string]int{
				"default": 1,
			},
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeProcessDunning, handleDunningTask(dunningSvc, logger))
	mux.HandleFunc(TypeProcessSubscriptionBilling, handleSubscriptionBillingTask(subscriptionSvc, logger))

	go func() {
		log.Println("[BillingWorker] Starting async worker...")
		const maxAttempts = 5

		for attempts := 1; attempts <= maxAttempts; attempts++ {
			if err := srv.Run(mux); err != nil {
				log.Printf("[BillingWorker] Attempt %d/%d failed to start worker: %v", attempts, maxAttempts, err)

				if attempts == maxAttempts {
					log.Fatal("[BillingWorker] Max retry attempts reached. Exiting.")
				}
				time.Sleep(time.Duration(attempts*2) * time.Second)
			} else {
				break
			}
		}
	}()

	go runScheduler(logger)
}

// runScheduler enqueues the sweep tasks on their cadence. Tasks are keyed
// by type so a slow sweep never stacks behind itself.
func runScheduler(logger *zap.Logger) {
	scheduler := asynq.NewScheduler(redisOpts(), &asynq.SchedulerOpts{
		Location: time.Local,
	})

	entries := map[string]string{
		TypeProcessDunning:             config.AppConfig.DunningInterval,
		TypeProcessSubscriptionBilling: config.AppConfig.BillingCron,
	}
	for taskType, spec := range entries {
		task := asynq.NewTask(taskType, nil)
		if _, err := scheduler.Register(spec, task, asynq.TaskID(taskType), asynq.MaxRetry(0)); err != nil {
			logger.Fatal("failed to register scheduled task",
				zap.String("task", taskType), zap.String("spec", spec), zap.Error(err))
		}
	}

	if err := scheduler.Run(); err != nil {
		logger.Fatal("billing scheduler stopped", zap.Error(err))
	}
}

func handleDunningTask(dunningSvc dunning.Service, logger *zap.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		sent, failed, err := dunningSvc.Dispatch(ctx)
		if err != nil {
			logger.Error("scheduled dunning sweep failed", zap.Error(err))
			return err
		}
		logger.Info("scheduled dunning sweep done",
			zap.Int("sent", sent), zap.Int("failed", failed))
		return nil
	}
}

func handleSubscriptionBillingTask(subscriptionSvc subscription.Service, logger *zap.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		created, err := subscriptionSvc.Advance(ctx)
		if err != nil {
			logger.Error("scheduled subscription billing failed", zap.Error(err))
			return err
		}
		logger.Info("scheduled subscription billing done",
			zap.Int("invoices_created", created))
		return nil
	}
}
