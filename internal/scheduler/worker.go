package scheduler

import (
	"context"
	"fmt"

	"property_service_backend/internal/notification"
	"property_service_backend/platform/config"
	"property_service_backend/platform/logger"

	"github.com/hibiken/asynq"
)

// Worker consumes staff alert tasks and hands them to the fanout.
type Worker struct {
	server    *asynq.Server
	mux       *asynq.ServeMux
	deliverer notification.Deliverer
	log       *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, deliverer notification.Deliverer, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 4
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queueName(cfg): 1,
		},
	})

	mux := asynq.NewServeMux()
	w := &Worker{
		server:    server,
		mux:       mux,
		deliverer: deliverer,
		log:       log,
	}

	mux.HandleFunc(TaskStaffAlert, w.handleStaffAlert)

	return w, nil
}

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}

// handleStaffAlert retries only when nobody was reached, so staff who
// already got the alert are not messaged twice.
func (w *Worker) handleStaffAlert(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseStaffAlertPayload(task)
	if err != nil {
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}

	report := w.deliverer.Deliver(ctx, payload.Job)
	if report.Delivered == 0 && report.Failed > 0 {
		return fmt.Errorf("staff alert %s not delivered to any of %d recipients", payload.Job.Payload.DisplayID, report.Attempted)
	}
	return nil
}
