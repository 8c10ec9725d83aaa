//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"strconv"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"

	"github.com/couchcryptid/aforos-dashboard/internal/adapter/kafka"
	"github.com/couchcryptid/aforos-dashboard/internal/config"
	"github.com/couchcryptid/aforos-dashboard/internal/domain"
	"github.com/couchcryptid/aforos-dashboard/internal/observability"
	"github.com/couchcryptid/aforos-dashboard/internal/pipeline"
	"github.com/couchcryptid/aforos-dashboard/internal/presentation"
)

const testViewsTopic = "test-dashboard-views"

// publishedPanel holds a deserialized message read from the views topic.
type publishedPanel struct {
	Panel   presentation.Panel
	Key     string
	Headers map[string]string
}

func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()
	container, err := tckafka.Run(ctx, "confluentinc/confluent-local:7.5.0", tckafka.WithClusterID("aforos-test"))
	require.NoError(t, err, "start kafka container")
	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(container); err != nil {
			t.Logf("terminate kafka container: %v", err)
		}
	})

	brokers, err := container.Brokers(ctx)
	require.NoError(t, err, "kafka brokers")
	require.NotEmpty(t, brokers)
	return brokers[0]
}

func createTopic(t *testing.T, broker, topic string) {
	t.Helper()
	conn, err := kafkago.Dial("tcp", broker)
	require.NoError(t, err, "dial broker")
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err, "find controller")

	ctrl, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err, "dial controller")
	defer ctrl.Close()

	require.NoError(t, ctrl.CreateTopics(kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}), "create topic %s", topic)
}

func newConsumer(broker, topic string) *kafkago.Reader {
	return kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       topic,
		Partition:   0,
		StartOffset: kafkago.FirstOffset,
		MaxWait:     500 * time.Millisecond,
	})
}

// readPanel reads a single message from the views consumer and deserializes it.
func readPanel(ctx context.Context, t *testing.T, consumer *kafkago.Reader) publishedPanel {
	t.Helper()
	readCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	msg, err := consumer.ReadMessage(readCtx)
	require.NoError(t, err, "read from views topic")

	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	var panel presentation.Panel
	require.NoError(t, json.Unmarshal(msg.Value, &panel), "unmarshal panel message")

	return publishedPanel{Panel: panel, Key: string(msg.Key), Headers: headers}
}

func testDataset(t *testing.T) *domain.Dataset {
	t.Helper()
	ds, err := domain.Clean(domain.RawTable{
		Header: []string{"TIPO", "NUMERO", "NOMBRE", "AÑO", "MES", "AUTOS", "MOTOS", "AUTOBUS DE 2 EJES", "AUTOBUS DE 3 EJES", "CAMIONES DE 2 EJES"},
		Rows: [][]string{
			{"AUTOPISTA", "1", "MÉXICO-CUERNAVACA", "2023", "ENERO", "1,200", "40", "30", "50", "120"},
			{"AUTOPISTA", "1", "MÉXICO-CUERNAVACA", "2023", "FEBRERO", "1,100", "35", "", "45", "110"},
			{"PUENTE", "30", "TAMPICO", "2023", "ENERO", "300", "10", "5", "8", "40"},
			{"PUENTE", "30", "TAMPICO", "2024", "MARZO", "320", "12", "6", "9", "42"},
		},
	}, domain.DefaultSchema())
	require.NoError(t, err)
	return ds
}

// TestKafkaWriterPublishesPanels verifies the adapter layer: a refresh
// published through kafka.Writer arrives as one keyed message per view.
func TestKafkaWriterPublishesPanels(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testViewsTopic)

	ds := testDataset(t)
	engine := domain.NewEngine(ds, 0)
	state := domain.FilterState{Year: 2023, Month: 1, VehicleType: domain.VehicleAutos}
	refresh := pipeline.Refresh{
		Seq:     1,
		At:      time.Date(2026, time.March, 2, 12, 0, 0, 0, time.UTC),
		State:   state,
		Changed: domain.ViewNames(),
		Views:   map[domain.ViewName]domain.View{},
	}
	for _, name := range domain.ViewNames() {
		refresh.Views[name] = engine.Derive(name, state)
	}

	cfg := &config.Config{KafkaBrokers: []string{broker}, KafkaViewsTopic: testViewsTopic}
	writer := kafka.NewWriter(cfg, presentation.NewRenderer(ds), slog.New(slog.NewTextHandler(io.Discard, nil)))
	defer writer.Close()

	require.NoError(t, writer.Publish(ctx, refresh))

	consumer := newConsumer(broker, testViewsTopic)
	defer consumer.Close()

	got := make(map[string]publishedPanel)
	for range domain.ViewNames() {
		msg := readPanel(ctx, t, consumer)
		got[msg.Key] = msg
	}

	require.Len(t, got, 3)
	table := got[string(domain.ViewFilteredRows)]
	assert.Equal(t, string(presentation.RegionTable), table.Headers["region"])
	assert.Equal(t, "1", table.Headers["seq"])
	assert.Equal(t, "2026-03-02T12:00:00Z", table.Headers["refreshed_at"])
	assert.NotEmpty(t, table.Headers["instance"])
	require.NotNil(t, table.Panel.Table)
	assert.Len(t, table.Panel.Table.Rows, 2)

	series := got[string(domain.ViewHistoricalSeries)]
	require.NotNil(t, series.Panel.Chart)
	assert.Equal(t, []float64{1500, 1100, 320}, series.Panel.Chart.Data[0].Y)
}

// TestPipelineEndToEnd runs the pipeline with the Kafka sink attached and
// checks that a vehicle change publishes only the historical series.
func TestPipelineEndToEnd(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testViewsTopic)

	ds := testDataset(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	metrics := observability.NewMetricsForTesting()
	graph, err := pipeline.NewGraph()
	require.NoError(t, err)

	cfg := &config.Config{KafkaBrokers: []string{broker}, KafkaViewsTopic: testViewsTopic}
	writer := kafka.NewWriter(cfg, presentation.NewRenderer(ds), logger)
	defer writer.Close()

	deriver := pipeline.NewCachedDeriver(domain.NewEngine(ds, 0), graph, 16, metrics)
	initial := domain.FilterOptions(ds).Default()
	p := pipeline.New(deriver, graph, initial, []pipeline.ViewSink{writer}, logger, metrics, nil)

	runCtx, stop := context.WithCancel(ctx)
	done := make(chan error, 1)
	go func() { done <- p.Run(runCtx) }()
	defer func() {
		stop()
		<-done
	}()

	require.Eventually(t, func() bool { return p.CheckReadiness(ctx) == nil }, 30*time.Second, 100*time.Millisecond)

	consumer := newConsumer(broker, testViewsTopic)
	defer consumer.Close()

	// Initial render publishes every view.
	for range domain.ViewNames() {
		msg := readPanel(ctx, t, consumer)
		assert.Equal(t, "1", msg.Headers["seq"])
	}

	motos := domain.VehicleMotos
	refresh, err := p.Apply(ctx, domain.FilterChange{VehicleType: &motos})
	require.NoError(t, err)
	assert.Equal(t, []domain.ViewName{domain.ViewHistoricalSeries}, refresh.Changed)

	msg := readPanel(ctx, t, consumer)
	assert.Equal(t, string(domain.ViewHistoricalSeries), msg.Key)
	assert.Equal(t, "Histórico de MOTOS", msg.Panel.Chart.Layout.Title)
	assert.Equal(t, []float64{50, 35, 12}, msg.Panel.Chart.Data[0].Y)
}
