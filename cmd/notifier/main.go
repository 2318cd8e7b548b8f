package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/shirapay/shirapay/internal/config"
	"github.com/shirapay/shirapay/internal/events"
	"github.com/shirapay/shirapay/internal/model"
	"github.com/shirapay/shirapay/pkg/logger"
	"github.com/shirapay/shirapay/pkg/redis"
	"github.com/shirapay/shirapay/pkg/worker"
)

const notifierWorkers = 8

// The notifier consumes transaction status events from the Redis stream
// and fans them out to the pub/sub channels clients listen on: one per
// organization and one per transaction.
func main() {
	err := config.Load(argContainsEnvPath())
	if err != nil {
		logger.Error("failed to load config", "error", err)
		return
	}

	redisAdap, err := redis.NewRedisAdapter("default", config.Get().RedisUniversalKeyPrefix, &redis.Options{
		Addrs:      []string{config.Get().RedisAddr},
		ClientName: "notifier",
		DB:         config.Get().RedisDatabase,
		Username:   config.Get().RedisUsername,
		Password:   config.Get().RedisPassword,
	})
	if err != nil {
		logger.Error("failed connecting to redis", "error", err)
		return
	}

	stream, err := events.NewStream(redisAdap, events.StreamConfig{
		Name:              config.Get().EventStreamName,
		ConsumerGroup:     config.Get().EventStreamConsumerGroup,
		ConsumerName:      config.Get().EventStreamConsumerName,
		MaxDeliveries:     config.Get().EventStreamMaxRetries,
		VisibilityTimeout: config.Get().EventStreamVisibilityTimeout,
		PollInterval:      config.Get().EventStreamPollInterval,
		BatchSize:         config.Get().EventStreamBatchSize,
		MaxLen:            config.Get().EventStreamMaxLen,
	})
	if err != nil {
		logger.Error("failed creating event stream", "error", err)
		return
	}

	manager := worker.NewWorkerManager(1024, notifierWorkers, nil)
	manager.SetWorker(func(workerIndex int, job interface{}) {
		event, ok := job.(model.StatusEvent)
		if !ok {
			return
		}
		fanOut(redisAdap, event)
	})

	err = stream.Consume(func(ctx context.Context, msg *events.Message) error {
		var event model.StatusEvent
		if err := json.Unmarshal(msg.Data, &event); err != nil {
			// undecodable entries are acked away, redelivery cannot fix them
			logger.Error("dropping undecodable status event", "id", msg.ID, "error", err)
			return nil
		}
		manager.Enqueue(event)
		return nil
	})
	if err != nil {
		logger.Error("failed starting consumer", "error", err)
		return
	}

	logger.Info("notifier started",
		"stream", config.Get().EventStreamName,
		"group", config.Get().EventStreamConsumerGroup,
		"workers", notifierWorkers)

	// blocks until SIGTERM stops the pool
	_ = manager.Start()
	_ = stream.Stop(5 * time.Second)
}

func fanOut(adapter redis.RedisAdapter, event model.StatusEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		return
	}

	channels := []string{
		fmt.Sprintf("notify:txn:%s", event.TransactionID),
	}
	if event.OrganizationID != "" {
		channels = append(channels, fmt.Sprintf("notify:org:%s", event.OrganizationID))
	}

	for _, ch := range channels {
		if err := adapter.Client().Publish(context.Background(), ch, payload).Err(); err != nil {
			logger.Warn("failed to publish notification",
				"channel", ch,
				"transaction_id", event.TransactionID,
				"error", err)
		}
	}

	logger.Debug("notification fanned out",
		"transaction_id", event.TransactionID,
		"from", event.From,
		"to", event.To)
}

func argContainsEnvPath() string {
	for _, v := range os.Args {
		if strings.Contains(v, "--env=") {
			s := strings.Split(v, "=")
			if _, err := os.Open(s[1]); err != nil {
				logger.Error("failed to open the passed env file, got error" + err.Error())
				return ""
			}
			return s[1]
		}
	}
	return ""
}
