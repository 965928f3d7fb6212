package queue

import (
	"catalog/storefront/internal/domain/task"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

const (
	StreamPrefix  = "storefront:stream:"
	fieldTaskType = "task_type"
	fieldTaskData = "task_data"
)

// Message is one task read from a stream.
type Message struct {
	ID       string
	Stream   string
	TaskType string
	Data     []byte
}

type Queue interface {
	AddTask(ctx context.Context, task task.Task) (string, error) // Returns message ID
	GetTask(ctx context.Context, consumer, taskType string) (*Message, error)
	AckTask(ctx context.Context, msg *Message) error
	AutoClaim(ctx context.Context, consumer, taskType string, minIdleTime time.Duration) ([]*Message, error)
}

type RedisQueue struct {
	redisClient *redis.Client
	groupName   string
	block       time.Duration
}

// NewRedisQueue creates the streams and consumer group for every task type
// before any worker starts reading.
func NewRedisQueue(ctx context.Context, redisClient *redis.Client, groupName string, taskTypes ...string) (*RedisQueue, error) {
	q := &RedisQueue{
		redisClient: redisClient,
		groupName:   groupName,
		block:       5 * time.Second,
	}

	for _, taskType := range taskTypes {
		if err := q.createGroup(ctx, StreamPrefix+taskType); err != nil {
			return nil, fmt.Errorf("failed to create consumer group for %s: %w", taskType, err)
		}
	}

	log.Infof("✅ Streams for %v ready in group %s", taskTypes, groupName)
	return q, nil
}

func (q *RedisQueue) createGroup(ctx context.Context, stream string) error {
	err := q.redisClient.XGroupCreateMkStream(ctx, stream, q.groupName, "0").Err()
	if err != nil && strings.HasPrefix(err.Error(), "BUSYGROUP") {
		log.Debugf("Group %s already exists for stream %s", q.groupName, stream)
		return nil
	}
	return err
}

func (q *RedisQueue) AddTask(ctx context.Context, t task.Task) (string, error) {
	taskType := t.TaskType()
	streamName := StreamPrefix + taskType

	taskValue, err := t.TaskValue()
	if err != nil {
		return "", fmt.Errorf("failed to serialize task: %w", err)
	}

	messageID, err := q.redisClient.XAdd(ctx, &redis.XAddArgs{
		Stream: streamName,
		Values: map[string]interface{}{
			fieldTaskType: taskType,
			fieldTaskData: string(taskValue),
		},
	}).Result()
	if err != nil {
		return "", fmt.Errorf("failed to add task to Redis stream %s: %w", streamName, err)
	}

	log.Debugf("Added task %s to stream %s with message ID: %s", taskType, streamName, messageID)
	return messageID, nil
}

// GetTask blocks for a short while waiting for a new message; nil means none arrived.
func (q *RedisQueue) GetTask(ctx context.Context, consumer, taskType string) (*Message, error) {
	stream := StreamPrefix + taskType
	result, err := q.redisClient.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    q.groupName,
		Consumer: consumer,
		Streams:  []string{stream, ">"},
		Count:    1,
		Block:    q.block,
	}).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read from Redis stream %s: %w", stream, err)
	}

	if len(result) == 0 || len(result[0].Messages) == 0 {
		return nil, nil
	}

	return toMessage(stream, result[0].Messages[0])
}

func (q *RedisQueue) AckTask(ctx context.Context, msg *Message) error {
	return q.redisClient.XAck(ctx, msg.Stream, q.groupName, msg.ID).Err()
}

// AutoClaim takes over messages another consumer left pending for longer than minIdleTime.
func (q *RedisQueue) AutoClaim(ctx context.Context, consumer, taskType string, minIdleTime time.Duration) ([]*Message, error) {
	stream := StreamPrefix + taskType
	result, _, err := q.redisClient.XAutoClaim(ctx, &redis.XAutoClaimArgs{
		Stream:   stream,
		Group:    q.groupName,
		Consumer: consumer,
		MinIdle:  minIdleTime,
		Start:    "0-0",
		Count:    10,
	}).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("failed to claim messages from Redis stream %s: %w", stream, err)
	}

	messages := make([]*Message, 0, len(result))
	for _, raw := range result {
		msg, err := toMessage(stream, raw)
		if err != nil {
			log.Errorf("❌ Skipping claimed message %s: %v", raw.ID, err)
			continue
		}
		messages = append(messages, msg)
	}
	return messages, nil
}

func toMessage(stream string, raw redis.XMessage) (*Message, error) {
	taskType, ok := raw.Values[fieldTaskType].(string)
	if !ok {
		return nil, fmt.Errorf("invalid task type in message %s", raw.ID)
	}
	data, ok := raw.Values[fieldTaskData].(string)
	if !ok {
		return nil, fmt.Errorf("invalid task data in message %s", raw.ID)
	}
	return &Message{ID: raw.ID, Stream: stream, TaskType: taskType, Data: []byte(data)}, nil
}
