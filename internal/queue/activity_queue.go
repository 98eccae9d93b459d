package queue

import (
	"context"

	"go-gin-event-ticketing/internal/model"
	"go-gin-event-ticketing/pkg/logger"

	"go.uber.org/zap"
)

type Delivery struct {
	Data *model.TicketActivity
	Ack  func()
	Nack func(requeue bool)
}

// ActivityQueue 已提交的票券異動。發送失敗不影響已提交的交易。
type ActivityQueue interface {
	// 發送異動到隊列
	Publish(ctx context.Context, activity *model.TicketActivity) error
	// 訂閱異動隊列，ctx 結束時關閉回傳的 channel
	Subscribe(ctx context.Context) (<-chan Delivery, error)
}

type MemoryActivityQueue struct {
	// 使用 Go channel 來模擬 MQ 隊列
	ch chan *model.TicketActivity
}

func NewMemoryActivityQueue(bufferSize int) *MemoryActivityQueue {
	if bufferSize <= 0 {
		bufferSize = 1
	}
	return &MemoryActivityQueue{
		ch: make(chan *model.TicketActivity, bufferSize),
	}
}

func (q *MemoryActivityQueue) Publish(ctx context.Context, activity *model.TicketActivity) error {
	select {
	case q.ch <- activity:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *MemoryActivityQueue) Subscribe(ctx context.Context) (<-chan Delivery, error) {
	out := make(chan Delivery)

	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case activity, ok := <-q.ch:
				if !ok {
					return
				}

				d := Delivery{
					Data: activity,
					Ack:  func() {},
					Nack: func(requeue bool) {
						if requeue {
							q.requeue(activity)
						}
					},
				}
				select {
				case out <- d:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}

// requeue 隊列已滿時丟棄，下一次異動仍會重新計算同一活動
func (q *MemoryActivityQueue) requeue(activity *model.TicketActivity) {
	select {
	case q.ch <- activity:
	default:
		logger.WithComponent("mq").Warn("queue full, dropping requeued activity",
			zap.String("request_id", activity.RequestID),
			zap.Int("event_id", activity.EventID),
		)
	}
}
