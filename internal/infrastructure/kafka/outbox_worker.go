package kafka

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/DRSN-tech/pos-backend/internal/repository/pgdb"
	"github.com/DRSN-tech/pos-backend/internal/usecase"
	"github.com/DRSN-tech/pos-backend/pkg/e"
	"github.com/DRSN-tech/pos-backend/pkg/jitter"
	"github.com/DRSN-tech/pos-backend/pkg/logger"
	"github.com/jackc/pgx/v5"
	"github.com/segmentio/kafka-go"
)

// OutboxWorker доставляет события из outbox в Kafka. Новые события приходят
// через LISTEN/NOTIFY, при старте вычитываются оставшиеся с прошлого запуска.
type OutboxWorker struct {
	repo       usecase.OutboxRepository
	logger     logger.Logger
	producer   usecase.MessageProducer
	stop       chan struct{}
	stopOnce   sync.Once
	cancel     context.CancelFunc
	wg         sync.WaitGroup
	dbConnStr  string
	batchLimit int
	backoff    jitter.Backoff

	maxAttempts int           // после стольких неудачных отправок событие помечается failed
	staleAfter  time.Duration // событие в processing дольше этого срока считается брошенным
}

const (
	defaultMaxAttempts = 10
	defaultStaleAfter  = 5 * time.Minute
)

// errPermanentDelivery — Kafka отклонила событие, повторная отправка не поможет.
var errPermanentDelivery = errors.New("kafka rejected event")

func NewOutboxWorker(
	repo usecase.OutboxRepository,
	logger logger.Logger,
	producer usecase.MessageProducer,
	dbConnStr string,
	batchLimit int,
) *OutboxWorker {
	if batchLimit <= 0 {
		batchLimit = 10
	}

	return &OutboxWorker{
		repo:       repo,
		logger:     logger,
		producer:   producer,
		stop:       make(chan struct{}),
		dbConnStr:  dbConnStr,
		batchLimit: batchLimit,
		backoff:    jitter.NewBackoff(2*time.Second, 30*time.Second),

		maxAttempts: defaultMaxAttempts,
		staleAfter:  defaultStaleAfter,
	}
}

func (w *OutboxWorker) Start(ctx context.Context) {
	ctx, w.cancel = context.WithCancel(ctx)

	w.wg.Add(2)
	go func() {
		defer w.wg.Done()
		w.run(ctx)
	}()

	go func() {
		defer w.wg.Done()
		w.listenOutboxNotifications(ctx)
	}()
}

func (w *OutboxWorker) Stop() {
	w.stopOnce.Do(func() {
		close(w.stop)
		if w.cancel != nil {
			w.cancel()
		}
	})
	w.wg.Wait()
}

func (w *OutboxWorker) run(ctx context.Context) {
	w.logger.Infof("Draining pending outbox events on startup...")
	w.reclaimStale(ctx)
	w.drain(ctx)

	select {
	case <-ctx.Done():
	case <-w.stop:
	}
	w.logger.Infof("Outbox worker stopped")
}

func (w *OutboxWorker) listenOutboxNotifications(ctx context.Context) {
	var conn *pgx.Conn

	connect := func() error {
		var err error
		conn, err = pgx.Connect(ctx, w.dbConnStr)
		if err != nil {
			return e.Wrap("failed to connect for LISTEN", err)
		}

		if _, err = conn.Exec(ctx, "LISTEN "+pgdb.OutboxChannel); err != nil {
			conn.Close(ctx)
			conn = nil
			return e.Wrap("failed to LISTEN", err)
		}

		w.logger.Infof("Subscribed to '%s' channel", pgdb.OutboxChannel)
		return nil
	}

	attempt := 0
	for conn == nil {
		if err := connect(); err != nil {
			w.logger.Warnf("Outbox listener connect failed: %v", err)
			if w.sleep(ctx, attempt) != nil {
				return
			}
			attempt++
		}
	}
	defer func() {
		if conn != nil {
			conn.Close(context.WithoutCancel(ctx))
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stop:
			return
		default:
		}

		waitCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		notif, err := conn.WaitForNotification(waitCtx)
		cancel()

		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
				// Периодический опрос подбирает события, вернувшиеся в pending
				w.reclaimStale(ctx)
				w.drain(ctx)
				continue
			}

			w.logger.Warnf("Outbox listener connection lost: %v. Reconnecting...", err)
			conn.Close(ctx)
			conn = nil

			for attempt = 0; conn == nil; attempt++ {
				if w.sleep(ctx, attempt) != nil {
					return
				}
				if err := connect(); err != nil {
					w.logger.Warnf("Reconnect failed: %v", err)
				}
			}
			continue
		}

		if notif != nil && notif.Channel == pgdb.OutboxChannel {
			w.logger.Debugf("Received outbox notification, draining outbox events")
			w.drain(ctx)
		}
	}
}

// drain обрабатывает пачки, пока в outbox есть ожидающие события.
func (w *OutboxWorker) drain(ctx context.Context) {
	for {
		hasMore, err := w.processBatch(ctx)
		if err != nil {
			w.logger.Warnf("Batch processing failed: %v", err)
			return
		}
		if !hasMore {
			return
		}
	}
}

// processBatch возвращает true, если стоит запросить следующую пачку.
func (w *OutboxWorker) processBatch(ctx context.Context) (bool, error) {
	events, err := w.repo.GetAndMarkAsProcessing(ctx, w.batchLimit)
	if err != nil {
		return false, err
	}

	if len(events) == 0 {
		return false, nil
	}

	requeued := 0
	for _, event := range events {
		err := w.processEvent(ctx, event)
		if err == nil {
			if err := w.repo.MarkAsProcessed(ctx, event.ID); err != nil {
				w.logger.Warnf("mark processed failed: %v", err)
			}
			continue
		}

		if errors.Is(err, errPermanentDelivery) || event.Attempts+1 >= w.maxAttempts {
			w.logger.Errorf(err, "outbox event %s dropped after %d attempts", event.EventID, event.Attempts+1)
			if err := w.repo.MarkAsFailed(ctx, event.ID); err != nil {
				w.logger.Warnf("mark as failed: %v", err)
			}
			continue
		}

		requeued++
		w.logger.Warnf("outbox event %s not delivered: %v", event.EventID, err)
		if err := w.repo.MarkAsPending(ctx, event.ID); err != nil {
			w.logger.Warnf("return to pending failed: %v", err)
		}
	}

	// Если Kafka недоступна, не крутимся в цикле на тех же событиях
	if requeued == len(events) {
		return false, nil
	}

	return len(events) == w.batchLimit, nil
}

func (w *OutboxWorker) processEvent(ctx context.Context, event *usecase.OutboxEvent) error {
	if err := w.producer.WriteRawMessage(ctx, usecase.NewWriteRawMessageReq(event.ProductID, event.Payload)); err != nil {
		if isRetryableError(err) || ctx.Err() != nil {
			return e.Wrap("kafka temporarily unavailable", err)
		}
		return fmt.Errorf("%w: %w", errPermanentDelivery, err)
	}
	return nil
}

func (w *OutboxWorker) reclaimStale(ctx context.Context) {
	n, err := w.repo.ReclaimStale(ctx, w.staleAfter)
	if err != nil {
		w.logger.Warnf("reclaim stale outbox events failed: %v", err)
		return
	}
	if n > 0 {
		w.logger.Infof("Returned %d stale outbox events to pending", n)
	}
}

func (w *OutboxWorker) sleep(ctx context.Context, attempt int) error {
	sleepCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		select {
		case <-w.stop:
			cancel()
		case <-sleepCtx.Done():
		}
	}()

	return w.backoff.Sleep(sleepCtx, attempt)
}

func isRetryableError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var kafkaErr kafka.Error
	if errors.As(err, &kafkaErr) && kafkaErr.Temporary() {
		return true
	}
	errStr := strings.ToLower(err.Error())
	retryablePhrases := []string{
		"connection refused",
		"i/o timeout",
		"network is unreachable",
		"broker not available",
		"connection reset",
		"broken pipe",
		"no such host",
	}
	for _, phrase := range retryablePhrases {
		if strings.Contains(errStr, phrase) {
			return true
		}
	}
	return false
}
