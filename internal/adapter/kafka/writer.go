package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/aforos-dashboard/internal/config"
	"github.com/couchcryptid/aforos-dashboard/internal/pipeline"
	"github.com/couchcryptid/aforos-dashboard/internal/presentation"
)

// messageWriter is the subset of *kafkago.Writer used here.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Writer publishes rendered panels to a Kafka topic, one message per view
// recomputed by a refresh. Messages are keyed by view so a compacted topic
// keeps the latest panel per region.
// Refresh sequence numbers restart with the process, so every message also
// carries the writer's instance ID.
// It implements pipeline.ViewSink.
type Writer struct {
	writer   messageWriter
	renderer *presentation.Renderer
	instance string
	logger   *slog.Logger
}

// NewWriter creates a Kafka producer for the configured views topic.
func NewWriter(cfg *config.Config, renderer *presentation.Renderer, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaViewsTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, renderer: renderer, instance: uuid.NewString(), logger: logger}
}

func (w *Writer) Name() string { return "kafka" }

// Publish renders the views changed by r and writes them in a single
// WriteMessages call.
func (w *Writer) Publish(ctx context.Context, r pipeline.Refresh) error {
	if len(r.Changed) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, 0, len(r.Changed))
	for _, name := range r.Changed {
		view, ok := r.Views[name]
		if !ok {
			continue
		}
		panel, err := w.renderer.Render(view)
		if err != nil {
			return err
		}
		msg, err := serializeToMessage(panel, r, w.instance)
		if err != nil {
			return err
		}
		msgs = append(msgs, msg)
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("write panels: %w", err)
	}
	w.logger.Debug("panels published", "seq", r.Seq, "count", len(msgs), "instance", w.instance)
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a panel into a Kafka message.
func serializeToMessage(panel presentation.Panel, r pipeline.Refresh, instance string) (kafkago.Message, error) {
	data, err := json.Marshal(panel)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize panel: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(panel.View),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "region", Value: []byte(panel.Region)},
			{Key: "seq", Value: []byte(strconv.FormatUint(r.Seq, 10))},
			{Key: "refreshed_at", Value: []byte(r.At.Format(time.RFC3339))},
			{Key: "instance", Value: []byte(instance)},
		},
	}, nil
}
