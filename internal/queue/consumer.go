// Package queue provides a durable, out-of-process entrypoint to the
// pipeline: an asynq task queue backed by Redis, adapted from the teacher's
// internal/queue/redis_consumer.go (an asynq.Server wrapping VideoProcessor)
// repointed from "process a video job" to "run one query through the
// pipeline and publish its SearchResult," for deployments that want a
// worker fleet rather than an in-process call.
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"github.com/adverant/videosearch/internal/models"
	"github.com/adverant/videosearch/internal/pipeline"
)

var logQueue = log.WithField("component", "queue")

// TaskTypeSearch is the asynq task type name for a pipeline run.
const TaskTypeSearch = "videosearch:process"

// resultTTL is how long a completed SearchResult stays readable in Redis.
const resultTTL = 24 * time.Hour

// JobPayload is the task payload: one query to run through the pipeline.
type JobPayload struct {
	JobID string `json:"jobId"`
	Query string `json:"query"`
}

// Producer enqueues search jobs onto the asynq queue.
type Producer struct {
	client *asynq.Client
}

// NewProducer builds a Producer against redisURL.
func NewProducer(redisURL string) (*Producer, error) {
	opt, err := asynq.ParseRedisURI(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	return &Producer{client: asynq.NewClient(opt)}, nil
}

// Enqueue submits a query for processing under jobID, the ID later used to
// look up its result.
func (p *Producer) Enqueue(ctx context.Context, jobID, query string) error {
	payload, err := json.Marshal(JobPayload{JobID: jobID, Query: query})
	if err != nil {
		return fmt.Errorf("marshaling job payload: %w", err)
	}
	task := asynq.NewTask(TaskTypeSearch, payload)
	_, err = p.client.EnqueueContext(ctx, task, asynq.Queue("videosearch:default"))
	return err
}

// Close releases the underlying asynq client.
func (p *Producer) Close() error { return p.client.Close() }

// Consumer runs pipeline jobs pulled off the asynq queue and publishes each
// SearchResult to Redis under "videosearch:result:<jobID>".
type Consumer struct {
	server   *asynq.Server
	pipeline *pipeline.Pipeline
	redis    *redis.Client
}

// ConsumerConfig configures a Consumer.
type ConsumerConfig struct {
	RedisURL    string
	Concurrency int
	Pipeline    *pipeline.Pipeline
}

// NewConsumer builds a Consumer, mirroring the teacher's
// NewRedisConsumer: parse the Redis URL, configure queue priorities and
// retry backoff, wire an error handler that logs rather than panics.
func NewConsumer(cfg ConsumerConfig) (*Consumer, error) {
	redisOpt, err := asynq.ParseRedisURI(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}

	server := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: cfg.Concurrency,
		Queues: map[string]int{
			"videosearch:critical": 6,
			"videosearch:default":  3,
			"videosearch:low":      1,
		},
		RetryDelayFunc: func(n int, err error, task *asynq.Task) time.Duration {
			return time.Duration(1<<uint(n)) * time.Minute
		},
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
			logQueue.WithError(err).WithField("task_type", task.Type()).Error("task failed")
		}),
	})

	opt, err := redisOptionsFromURI(cfg.RedisURL)
	if err != nil {
		return nil, err
	}

	return &Consumer{server: server, pipeline: cfg.Pipeline, redis: redis.NewClient(opt)}, nil
}

func redisOptionsFromURI(uri string) (*redis.Options, error) {
	return redis.ParseURL(uri)
}

// Start begins serving tasks; blocks until Stop is called or the server
// fails.
func (c *Consumer) Start() error {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskTypeSearch, c.handleSearchTask)
	logQueue.Info("starting videosearch worker")
	return c.server.Run(mux)
}

// Stop shuts the consumer down gracefully.
func (c *Consumer) Stop() {
	logQueue.Info("shutting down videosearch worker")
	c.server.Shutdown()
	c.redis.Close()
}

func (c *Consumer) handleSearchTask(ctx context.Context, task *asynq.Task) error {
	var job JobPayload
	if err := json.Unmarshal(task.Payload(), &job); err != nil {
		return fmt.Errorf("unmarshaling job payload: %w", err)
	}

	logQueue.WithField("job_id", job.JobID).Info("processing search job")
	result, err := c.pipeline.Run(ctx, job.Query)
	if err != nil {
		// Only ConfigError/CancellationSignal reach here (§7); asynq's own
		// retry/backoff policy governs whether the job is retried.
		return fmt.Errorf("pipeline run failed: %w", err)
	}

	if err := c.publishResult(ctx, job.JobID, result); err != nil {
		return fmt.Errorf("publishing result: %w", err)
	}
	return nil
}

func (c *Consumer) publishResult(ctx context.Context, jobID string, result models.SearchResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return err
	}
	key := fmt.Sprintf("videosearch:result:%s", jobID)
	return c.redis.Set(ctx, key, data, resultTTL).Err()
}

// FetchResult reads a previously published SearchResult back out of Redis.
func (c *Consumer) FetchResult(ctx context.Context, jobID string) (models.SearchResult, error) {
	key := fmt.Sprintf("videosearch:result:%s", jobID)
	data, err := c.redis.Get(ctx, key).Bytes()
	if err != nil {
		return models.SearchResult{}, err
	}
	var result models.SearchResult
	if err := json.Unmarshal(data, &result); err != nil {
		return models.SearchResult{}, err
	}
	return result, nil
}
