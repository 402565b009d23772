//go:build integration

package main_test

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	kafkamodule "github.com/testcontainers/testcontainers-go/modules/kafka"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/shareit/service-booking/internal/application"
	bookingDomain "github.com/shareit/service-booking/internal/domain/booking"
	userDomain "github.com/shareit/service-booking/internal/domain/user"
	"github.com/shareit/service-booking/internal/events"
	"github.com/shareit/service-booking/internal/platform/clock"
	"github.com/shareit/service-booking/internal/platform/database"
	"github.com/shareit/service-booking/internal/platform/kafka"
	"github.com/shareit/service-booking/internal/repository"
)

// testInfra is a migrated Postgres and a Kafka broker with both topics created.
type testInfra struct {
	DB      *gorm.DB
	Brokers []string
}

// bookingStack is the service layer wired against testInfra.
type bookingStack struct {
	Bookings *application.BookingService
	Items    *application.ItemService
	Users    *application.UserService
	Consumer *events.UserEventConsumer
}

func setupContainers(t *testing.T) *testInfra {
	t.Helper()
	ctx := context.Background()
	infra := &testInfra{DB: startPostgres(ctx, t), Brokers: startKafka(ctx, t)}
	createTopics(t, infra.Brokers, bookingDomain.TopicBookingEvents, userDomain.TopicUserEvents)
	return infra
}

func startPostgres(ctx context.Context, t *testing.T) *gorm.DB {
	t.Helper()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "shareit",
				"POSTGRES_PASSWORD": "shareit",
				"POSTGRES_DB":       "bookings",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err, "start postgres")
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("terminate postgres: %v", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	cfg := database.PostgresConfig{
		Host: host, Port: port.Port(),
		User: "shareit", Password: "shareit", DBName: "bookings", SSLMode: "disable",
	}
	require.NoError(t, database.RunMigrations(cfg.DatabaseURL(), zap.NewNop()), "apply migrations")

	db, err := database.Connect(cfg, zap.NewNop())
	require.NoError(t, err, "connect postgres")
	return db
}

func startKafka(ctx context.Context, t *testing.T) []string {
	t.Helper()
	container, err := kafkamodule.Run(ctx, "confluentinc/confluent-local:7.5.0")
	require.NoError(t, err, "start kafka")
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("terminate kafka: %v", err)
		}
	})

	brokers, err := container.Brokers(ctx)
	require.NoError(t, err)
	return brokers
}

// setupBookingStack wires repositories, services, a producer and the user
// consumer. The producer is closed on test cleanup.
func setupBookingStack(t *testing.T, infra *testInfra, clk clock.Clock) *bookingStack {
	t.Helper()
	logger := zap.NewNop()
	db := infra.DB

	bookings := repository.NewGormBookingRepository(db)
	items := repository.NewGormItemRepository(db)
	users := repository.NewGormUserRepository(db)
	comments := repository.NewGormCommentRepository(db)

	producer := kafka.NewProducer(infra.Brokers, logger)
	t.Cleanup(func() { _ = producer.Close() })

	userSvc := application.NewUserService(users, logger)
	return &bookingStack{
		Bookings: application.NewBookingService(bookings, items, users, producer, clk, logger),
		Items:    application.NewItemService(items, users, bookings, comments, clk, logger),
		Users:    userSvc,
		Consumer: events.NewUserEventConsumer(infra.Brokers, "it-"+uuid.NewString()[:8], userSvc, logger),
	}
}

// publishProfile emits a user.* event the way the account service does.
func publishProfile(t *testing.T, brokers []string, eventType string, p userDomain.ProfileEvent) {
	t.Helper()
	producer := kafka.NewProducer(brokers, zap.NewNop())
	defer func() { _ = producer.Close() }()

	ce, err := kafka.NewCloudEvent("service-account", eventType, p)
	require.NoError(t, err)
	require.NoError(t, producer.PublishEvent(context.Background(), userDomain.TopicUserEvents, p.UserID.String(), ce))
}

// waitForUser polls the user directory until the projection has caught up.
func waitForUser(t *testing.T, db *gorm.DB, id uuid.UUID, name string) {
	t.Helper()
	require.Eventually(t, func() bool {
		var row repository.UserModel
		return db.First(&row, "id = ?", id).Error == nil && row.Name == name
	}, 15*time.Second, 200*time.Millisecond, "user %s not projected", id)
}

// waitForLifecycleEvent scans booking.events from the beginning for an event
// of eventType about bookingID.
func waitForLifecycleEvent(t *testing.T, brokers []string, eventType string, bookingID uuid.UUID) bookingDomain.LifecycleEvent {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	reader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     brokers,
		GroupID:     "it-assert-" + uuid.NewString()[:8],
		Topic:       bookingDomain.TopicBookingEvents,
		StartOffset: kafkago.FirstOffset,
	})
	defer func() { _ = reader.Close() }()

	for {
		msg, err := reader.ReadMessage(ctx)
		if ctx.Err() != nil {
			t.Fatalf("no %s event for booking %s", eventType, bookingID)
		}
		if err != nil {
			continue
		}
		ce, err := kafka.ParseCloudEvent(msg.Value)
		if err != nil || ce.Type != eventType {
			continue
		}
		var evt bookingDomain.LifecycleEvent
		if ce.ParseData(&evt) == nil && evt.BookingID == bookingID {
			require.Equal(t, bookingID.String(), string(msg.Key), "lifecycle events are keyed by booking")
			return evt
		}
	}
}

// createTopics creates topics through the controller so the first publish
// does not race auto-creation.
func createTopics(t *testing.T, brokers []string, topics ...string) {
	t.Helper()
	conn, err := kafkago.Dial("tcp", brokers[0])
	require.NoError(t, err)
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err)
	ctrl, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err)
	defer ctrl.Close()

	configs := make([]kafkago.TopicConfig, 0, len(topics))
	for _, topic := range topics {
		configs = append(configs, kafkago.TopicConfig{Topic: topic, NumPartitions: 1, ReplicationFactor: 1})
	}
	require.NoError(t, ctrl.CreateTopics(configs...), fmt.Sprintf("create topics %v", topics))
	time.Sleep(time.Second)
}
