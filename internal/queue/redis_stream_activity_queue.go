package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go-gin-event-ticketing/internal/model"
	"go-gin-event-ticketing/pkg/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	StreamKey          = "tickets:activity"
	ConsumerGroupName  = "availability-workers"
	ConsumerNamePrefix = "worker"
	payloadField       = "activity"
	streamMaxLen       = 100000
)

// RedisStreamConfig 可注入的逾時與重試設定；nil 或零值時使用預設。
type RedisStreamConfig struct {
	ClaimMinIdleTime   time.Duration // PEL 中超過此時間才被 XAUTOCLAIM 領取
	MaxRetryCount      int           // 超過此次數視為毒藥消息並丟棄
	ReadGroupBlockTime time.Duration // XReadGroup 阻塞時間
}

func defaultRedisStreamConfig() RedisStreamConfig {
	return RedisStreamConfig{
		ClaimMinIdleTime:   5 * time.Second,
		MaxRetryCount:      5,
		ReadGroupBlockTime: 2 * time.Second,
	}
}

type RedisStreamActivityQueue struct {
	client       *redis.Client
	streamKey    string
	groupName    string
	consumerName string
	cfg          RedisStreamConfig
	log          *zap.Logger
}

// NewRedisStreamActivityQueue 建立 Redis Stream 版 ActivityQueue。config 可為 nil。
func NewRedisStreamActivityQueue(ctx context.Context, client *redis.Client, consumerID string, config *RedisStreamConfig) (*RedisStreamActivityQueue, error) {
	if consumerID == "" {
		consumerID = uuid.New().String()
	}
	cfg := defaultRedisStreamConfig()
	if config != nil {
		if config.ClaimMinIdleTime > 0 {
			cfg.ClaimMinIdleTime = config.ClaimMinIdleTime
		}
		if config.MaxRetryCount > 0 {
			cfg.MaxRetryCount = config.MaxRetryCount
		}
		if config.ReadGroupBlockTime > 0 {
			cfg.ReadGroupBlockTime = config.ReadGroupBlockTime
		}
	}
	q := &RedisStreamActivityQueue{
		client:       client,
		streamKey:    StreamKey,
		groupName:    ConsumerGroupName,
		consumerName: fmt.Sprintf("%s:%s", ConsumerNamePrefix, consumerID),
		cfg:          cfg,
		log:          logger.WithComponent("mq"),
	}
	if err := q.ensureConsumerGroup(ctx); err != nil {
		return nil, fmt.Errorf("ensure consumer group: %w", err)
	}
	return q, nil
}

func (q *RedisStreamActivityQueue) ensureConsumerGroup(ctx context.Context) error {
	err := q.client.XGroupCreateMkStream(ctx, q.streamKey, q.groupName, "0").Err()
	if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
		return err
	}
	return nil
}

func (q *RedisStreamActivityQueue) Publish(ctx context.Context, activity *model.TicketActivity) error {
	payload, err := json.Marshal(activity)
	if err != nil {
		return fmt.Errorf("marshal activity: %w", err)
	}
	err = q.client.XAdd(ctx, &redis.XAddArgs{
		Stream: q.streamKey,
		MaxLen: streamMaxLen,
		Approx: true,
		ID:     "*",
		Values: map[string]interface{}{payloadField: string(payload)},
	}).Err()
	if err != nil {
		return fmt.Errorf("xadd: %w", err)
	}
	return nil
}

func (q *RedisStreamActivityQueue) Subscribe(ctx context.Context) (<-chan Delivery, error) {
	out := make(chan Delivery)
	go func() {
		defer close(out)
		done := make(chan struct{})
		go func() {
			defer close(done)
			q.runAutoClaim(ctx, out)
		}()
		q.runReadLoop(ctx, out)
		<-done
	}()
	return out, nil
}

// runReadLoop 只讀新消息(">")；已投遞但未 ack 的由 XAUTOCLAIM 超時後領回
func (q *RedisStreamActivityQueue) runReadLoop(ctx context.Context, out chan<- Delivery) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
			q.readAndDeliver(ctx, out)
		}
	}
}

func (q *RedisStreamActivityQueue) readAndDeliver(ctx context.Context, out chan<- Delivery) {
	streams, err := q.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    q.groupName,
		Consumer: q.consumerName,
		Streams:  []string{q.streamKey, ">"},
		Count:    10,
		Block:    q.cfg.ReadGroupBlockTime,
	}).Result()

	if errors.Is(err, redis.Nil) {
		return
	}
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		q.log.Error("XReadGroup failed", zap.Error(err))
		select {
		case <-time.After(time.Second):
		case <-ctx.Done():
		}
		return
	}

	for _, stream := range streams {
		if stream.Stream != q.streamKey {
			continue
		}
		for _, msg := range stream.Messages {
			if !q.deliver(ctx, out, msg) {
				return
			}
		}
	}
}

// deliver 回傳 false 表示 ctx 已結束
func (q *RedisStreamActivityQueue) deliver(ctx context.Context, out chan<- Delivery, msg redis.XMessage) bool {
	d := q.newDelivery(ctx, msg)
	if d == nil {
		return true
	}
	select {
	case out <- *d:
		return true
	case <-ctx.Done():
		return false
	}
}

// shouldProcessMessage 毒藥消息直接 ack 丟棄
func (q *RedisStreamActivityQueue) shouldProcessMessage(ctx context.Context, messageID string) bool {
	n, err := q.retryCount(ctx, messageID)
	if err != nil {
		q.log.Warn("retry count lookup failed", zap.String("message_id", messageID), zap.Error(err))
		return true
	}
	if n >= q.cfg.MaxRetryCount {
		q.log.Warn("discard poison message",
			zap.String("message_id", messageID),
			zap.Int("retries", n),
			zap.Int("max_retries", q.cfg.MaxRetryCount),
		)
		_ = q.client.XAck(ctx, q.streamKey, q.groupName, messageID).Err()
		return false
	}
	return true
}

func (q *RedisStreamActivityQueue) retryCount(ctx context.Context, messageID string) (int, error) {
	pending, err := q.client.XPendingExt(ctx, &redis.XPendingExtArgs{
		Stream: q.streamKey,
		Group:  q.groupName,
		Start:  messageID,
		End:    messageID,
		Count:  1,
	}).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, err
	}
	if len(pending) == 0 {
		return 0, nil
	}
	return int(pending[0].RetryCount), nil
}

// runAutoClaim 定時用 XAUTOCLAIM 領取超時未處理的消息
func (q *RedisStreamActivityQueue) runAutoClaim(ctx context.Context, out chan<- Delivery) {
	ticker := time.NewTicker(q.cfg.ClaimMinIdleTime)
	defer ticker.Stop()
	startID := "0-0"

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			claimed, nextID, err := q.client.XAutoClaim(ctx, &redis.XAutoClaimArgs{
				Stream:   q.streamKey,
				Group:    q.groupName,
				Consumer: q.consumerName,
				MinIdle:  q.cfg.ClaimMinIdleTime,
				Count:    10,
				Start:    startID,
			}).Result()

			if err != nil && !errors.Is(err, redis.Nil) {
				if ctx.Err() == nil {
					q.log.Error("XAutoClaim failed", zap.Error(err))
				}
				continue
			}
			startID = "0-0"
			if nextID != "" {
				startID = nextID
			}

			for _, msg := range claimed {
				if !q.shouldProcessMessage(ctx, msg.ID) {
					continue
				}
				if !q.deliver(ctx, out, msg) {
					return
				}
			}
		}
	}
}

// newDelivery 從 Redis 消息組裝 Delivery（含 Ack/Nack），格式錯誤的消息直接 ack
func (q *RedisStreamActivityQueue) newDelivery(ctx context.Context, msg redis.XMessage) *Delivery {
	activity, err := decodeActivity(msg)
	if err != nil {
		q.log.Warn("invalid message, discarding", zap.String("message_id", msg.ID), zap.Error(err))
		_ = q.client.XAck(ctx, q.streamKey, q.groupName, msg.ID).Err()
		return nil
	}
	msgID := msg.ID
	return &Delivery{
		Data: activity,
		Ack: func() {
			if err := q.client.XAck(ctx, q.streamKey, q.groupName, msgID).Err(); err != nil {
				q.log.Error("XAck failed", zap.String("message_id", msgID), zap.Error(err))
			}
		},
		Nack: func(requeue bool) {
			if requeue {
				// 消息留在 PEL，等 ClaimMinIdleTime 後由 XAUTOCLAIM 領取，形成延遲重試
				q.log.Info("message nack(requeue), will retry",
					zap.String("message_id", msgID),
					zap.Duration("claim_min_idle", q.cfg.ClaimMinIdleTime),
				)
				return
			}
			if err := q.client.XAck(ctx, q.streamKey, q.groupName, msgID).Err(); err != nil {
				q.log.Error("XAck discard failed", zap.String("message_id", msgID), zap.Error(err))
			}
		},
	}
}

func decodeActivity(msg redis.XMessage) (*model.TicketActivity, error) {
	raw, ok := msg.Values[payloadField].(string)
	if !ok {
		return nil, fmt.Errorf("missing %s field", payloadField)
	}
	var activity model.TicketActivity
	if err := json.Unmarshal([]byte(raw), &activity); err != nil {
		return nil, fmt.Errorf("unmarshal activity: %w", err)
	}
	if !activity.Kind.IsValid() || activity.EventID <= 0 {
		return nil, fmt.Errorf("invalid activity kind=%q event_id=%d", activity.Kind, activity.EventID)
	}
	return &activity, nil
}
