package kafka

import (
	"context"
	"fmt"
	"time"

	"github.com/DRSN-tech/pos-backend/internal/cfg"
	"github.com/DRSN-tech/pos-backend/internal/usecase"
	"github.com/DRSN-tech/pos-backend/pkg/e"
	"github.com/DRSN-tech/pos-backend/pkg/logger"
	"github.com/jimlawless/whereami"
	"github.com/segmentio/kafka-go"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

type Producer struct {
	writer *kafka.Writer
	logger logger.Logger
	cfg    *cfg.KafkaCfg
}

func NewProducer(logger logger.Logger, cfg *cfg.KafkaCfg) *Producer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		BatchSize:    cfg.BatchLimit,
		BatchTimeout: 500 * time.Millisecond,
		WriteTimeout: 10 * time.Second,
		Completion: func(messages []kafka.Message, err error) {
			if err != nil {
				logger.Warnf("Kafka producer error: %s", err.Error())
			}
		},
	}

	return &Producer{
		writer: writer,
		logger: logger,
		cfg:    cfg,
	}
}

// WriteRawMessage отправляет уже сериализованное событие. Ключом сообщения служит id товара,
// поэтому события одного товара попадают в одну партицию.
func (p *Producer) WriteRawMessage(ctx context.Context, req *usecase.WriteRawMessageReq) error {
	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(req.ProductID),
		Value: req.Payload,
	})
}

func (p *Producer) EnsureTopic(timeout time.Duration) error {
	conn, err := kafka.Dial(p.cfg.NetworkMode, p.cfg.Brokers[0])
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}
	defer conn.Close()

	partitions, err := conn.ReadPartitions(p.cfg.Topic)
	if err == nil && len(partitions) > 0 {
		return nil
	}

	done := make(chan error, 1)
	go func() {
		done <- conn.CreateTopics(kafka.TopicConfig{
			Topic:             p.cfg.Topic,
			NumPartitions:     p.cfg.Partitions,
			ReplicationFactor: p.cfg.ReplicationFactor,
		})
	}()

	select {
	case err := <-done:
		if err != nil {
			return e.Wrap(whereami.WhereAmI(), fmt.Errorf("failed to create topic %s: %w", p.cfg.Topic, err))
		}
		return nil
	case <-time.After(timeout):
		_ = conn.Close()
		return e.Wrap(whereami.WhereAmI(), fmt.Errorf("timeout: %v, topic: %s", timeout, p.cfg.Topic))
	}
}

func (p *Producer) Close() error {
	return p.writer.Close()
}

// ProtoEncoder сериализует события в protobuf (google.protobuf.Struct).
type ProtoEncoder struct{}

func NewProtoEncoder() *ProtoEncoder {
	return &ProtoEncoder{}
}

func (ProtoEncoder) EncodeSaleRecorded(event *usecase.SaleRecordedEvent) ([]byte, error) {
	const op = "ProtoEncoder.EncodeSaleRecorded"

	msg, err := structpb.NewStruct(map[string]any{
		"event_id":      event.EventID,
		"event_type":    usecase.EventTypeSaleRecorded,
		"sale_id":       event.SaleID,
		"product_id":    event.ProductID,
		"quantity_sold": event.QuantitySold,
		"total_price":   event.TotalPrice,
		"created_at":    event.CreatedAt.UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	payload, err := proto.Marshal(msg)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	return payload, nil
}

// DecodeSaleRecorded — обратное преобразование для потребителей топика.
func DecodeSaleRecorded(payload []byte) (*usecase.SaleRecordedEvent, error) {
	const op = "kafka.DecodeSaleRecorded"

	var msg structpb.Struct
	if err := proto.Unmarshal(payload, &msg); err != nil {
		return nil, e.Wrap(op, err)
	}

	fields := msg.GetFields()
	createdAt, err := time.Parse(time.RFC3339Nano, fields["created_at"].GetStringValue())
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	// Числа в Struct хранятся как float64, суммы в центах укладываются в 2^53
	return &usecase.SaleRecordedEvent{
		EventID:      fields["event_id"].GetStringValue(),
		SaleID:       fields["sale_id"].GetStringValue(),
		ProductID:    fields["product_id"].GetStringValue(),
		QuantitySold: int64(fields["quantity_sold"].GetNumberValue()),
		TotalPrice:   int64(fields["total_price"].GetNumberValue()),
		CreatedAt:    createdAt,
	}, nil
}
