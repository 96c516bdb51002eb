// Package scheduler carries staff notification jobs through Redis with asynq,
// so alerts survive an API restart and are delivered by a separate worker.
package scheduler

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"time"

	"property_service_backend/internal/notification"
	"property_service_backend/platform/config"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
)

const (
	staffAlertMaxRetry = 3
	staffAlertTimeout  = 2 * time.Minute
)

// Client enqueues staff alerts. It implements notification.Outbox.
type Client struct {
	client *asynq.Client
	queue  string
}

var _ notification.Outbox = (*Client)(nil)

func NewClient(cfg config.SchedulerConfig) (*Client, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	return &Client{
		client: asynq.NewClient(opt),
		queue:  queueName(cfg),
	}, nil
}

func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

// Enqueue submits one task per job. Every job is attempted; the returned
// error joins the individual failures.
func (c *Client) Enqueue(ctx context.Context, jobs ...notification.Job) error {
	if c == nil || c.client == nil {
		return errors.New("scheduler client not configured")
	}

	var errs []error
	for _, job := range jobs {
		task, err := NewStaffAlertTask(StaffAlertPayload{Job: job})
		if err != nil {
			errs = append(errs, err)
			continue
		}

		_, err = c.client.EnqueueContext(ctx, task,
			asynq.Queue(c.queue),
			asynq.MaxRetry(staffAlertMaxRetry),
			asynq.Timeout(staffAlertTimeout),
		)
		if err != nil {
			errs = append(errs, fmt.Errorf("enqueue %s %s: %w", job.Event, job.Payload.DisplayID, err))
		}
	}
	return errors.Join(errs...)
}

func queueName(cfg config.SchedulerConfig) string {
	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}
	return queue
}

func redisClientOpt(redisURL string, tlsInsecure bool) (asynq.RedisClientOpt, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return asynq.RedisClientOpt{}, err
	}

	var tlsConfig *tls.Config
	if opt.TLSConfig != nil {
		clone := opt.TLSConfig.Clone()
		if tlsInsecure {
			clone.InsecureSkipVerify = true
		}
		tlsConfig = clone
	} else if tlsInsecure {
		tlsConfig = &tls.Config{InsecureSkipVerify: true}
	}

	return asynq.RedisClientOpt{
		Addr:      opt.Addr,
		Password:  opt.Password,
		DB:        opt.DB,
		TLSConfig: tlsConfig,
	}, nil
}
