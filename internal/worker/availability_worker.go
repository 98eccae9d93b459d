package worker

import (
	"context"
	"time"

	"go-gin-event-ticketing/internal/metrics"
	"go-gin-event-ticketing/internal/queue"
	"go-gin-event-ticketing/pkg/logger"

	"go.uber.org/zap"
)

// 重新計算失敗時，退回隊列前等待的時間
const retryDelay = 500 * time.Millisecond

// AvailabilityRefresher 依活動重新計算剩餘容量並寫入快取
type AvailabilityRefresher interface {
	RefreshAvailability(ctx context.Context, eventID int) error
}

type AvailabilityWorker interface {
	// 訂閱異動隊列，ctx 結束時停止
	Start(ctx context.Context) error
	// Done 在消費迴圈結束後關閉
	Done() <-chan struct{}
}

type AvailabilityWorkerImpl struct {
	refresher AvailabilityRefresher
	queue     queue.ActivityQueue
	done      chan struct{}
	log       *zap.Logger
}

func NewAvailabilityWorker(refresher AvailabilityRefresher, q queue.ActivityQueue) AvailabilityWorker {
	return &AvailabilityWorkerImpl{
		refresher: refresher,
		queue:     q,
		done:      make(chan struct{}),
		log:       logger.WithComponent("availability_worker"),
	}
}

func (w *AvailabilityWorkerImpl) Start(ctx context.Context) error {
	deliveries, err := w.queue.Subscribe(ctx)
	if err != nil {
		return err
	}

	go func() {
		defer close(w.done)
		for d := range deliveries {
			w.handle(ctx, d)
		}
		w.log.Info("availability worker stopped")
	}()
	return nil
}

func (w *AvailabilityWorkerImpl) Done() <-chan struct{} {
	return w.done
}

func (w *AvailabilityWorkerImpl) handle(ctx context.Context, d queue.Delivery) {
	activity := d.Data
	kind := string(activity.Kind)

	if err := w.refresher.RefreshAvailability(ctx, activity.EventID); err != nil {
		w.log.Warn("refresh availability failed, requeueing",
			zap.String("request_id", activity.RequestID),
			zap.Int("event_id", activity.EventID),
			zap.Error(err),
		)
		metrics.ObserveActivity(kind, "retry")

		select {
		case <-time.After(retryDelay):
			d.Nack(true)
		case <-ctx.Done():
			d.Nack(true)
		}
		return
	}

	metrics.ObserveActivity(kind, "ok")
	d.Ack()
}
