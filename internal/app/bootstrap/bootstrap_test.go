package bootstrap

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/sms-booking-bot/internal/calendar"
	appconfig "github.com/wolfman30/sms-booking-bot/internal/config"
	"github.com/wolfman30/sms-booking-bot/internal/location"
	"github.com/wolfman30/sms-booking-bot/internal/lock"
	"github.com/wolfman30/sms-booking-bot/internal/messaging"
	"github.com/wolfman30/sms-booking-bot/internal/notify"
	"github.com/wolfman30/sms-booking-bot/internal/store"
	"github.com/wolfman30/sms-booking-bot/pkg/logging"
)

func TestBuildRequiresConfig(t *testing.T) {
	if _, err := Build(context.Background(), nil, nil, prometheus.NewRegistry(), logging.Discard()); err == nil {
		t.Fatalf("expected error for nil config")
	}
}

func TestBuildInMemory(t *testing.T) {
	cfg := &appconfig.Config{ProviderName: "Mia", DepositMandatoryAmount: 150}

	app, err := Build(context.Background(), cfg, nil, prometheus.NewRegistry(), logging.Discard())
	require.NoError(t, err)
	defer app.Close()

	assert.IsType(t, &store.MemoryStore{}, app.Store)
	assert.IsType(t, &messaging.LogSender{}, app.Sender)
	assert.NotNil(t, app.Engine)
	assert.NotNil(t, app.Dispatcher)
	assert.Empty(t, app.HealthChecks())

	reply, err := app.Engine.Respond(context.Background(), "+61400000000", "hi")
	require.NoError(t, err)
	assert.Contains(t, reply, "Adelaide")
}

func TestBuildWithRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := &appconfig.Config{RedisAddr: mr.Addr(), UseRedisLocks: true, DepositMandatoryAmount: 100}

	app, err := Build(context.Background(), cfg, nil, prometheus.NewRegistry(), logging.Discard())
	require.NoError(t, err)
	defer app.Close()

	require.NotNil(t, app.Redis)
	checks := app.HealthChecks()
	require.Contains(t, checks, "redis")
	assert.NoError(t, checks["redis"].Ping(context.Background()))
}

func TestBuildRedisClientDisabledOrUnreachable(t *testing.T) {
	logger := logging.Discard()
	assert.Nil(t, BuildRedisClient(context.Background(), &appconfig.Config{}, logger, true))
	assert.Nil(t, BuildRedisClient(context.Background(), &appconfig.Config{RedisAddr: "127.0.0.1:1"}, logger, true))
	assert.NotNil(t, BuildRedisClient(context.Background(), &appconfig.Config{RedisAddr: "127.0.0.1:1"}, logger, false))
}

func TestConnectPostgresPoolEmptyURLReturnsNil(t *testing.T) {
	pool, err := ConnectPostgresPool(context.Background(), "")
	require.NoError(t, err)
	assert.Nil(t, pool)
}

func TestBuildStoreWithoutPool(t *testing.T) {
	assert.IsType(t, &store.MemoryStore{}, BuildStore(nil, &appconfig.Config{}, logging.Discard()))
}

func TestBuildLocker(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := &appconfig.Config{RedisAddr: mr.Addr(), UseRedisLocks: true}
	client := BuildRedisClient(context.Background(), cfg, logging.Discard(), false)

	assert.IsType(t, &lock.RedisLocker{}, BuildLocker(cfg, client, logging.Discard()))
	assert.IsType(t, &lock.LocalLocker{}, BuildLocker(cfg, nil, logging.Discard()))
	assert.IsType(t, &lock.LocalLocker{}, BuildLocker(&appconfig.Config{}, client, logging.Discard()))
}

func TestBuildLocationRegistryLoadsFromRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := &appconfig.Config{RedisAddr: mr.Addr()}
	client := BuildRedisClient(context.Background(), cfg, logging.Discard(), false)

	saved := location.Default()
	saved.City = "Perth"
	saved.Timezone = location.TimezoneFor("Perth")
	require.NoError(t, location.NewRedisStore(client).SaveLocation(context.Background(), saved))

	registry := BuildLocationRegistry(context.Background(), client, nil, logging.Discard())
	assert.Equal(t, "Perth", registry.Current().City)
}

func TestBuildSender(t *testing.T) {
	assert.IsType(t, &messaging.LogSender{}, BuildSender(&appconfig.Config{TwilioAccountSID: "AC1"}, nil, logging.Discard()))

	cfg := &appconfig.Config{TwilioAccountSID: "AC1", TwilioAuthToken: "tok", TwilioFromNumber: "+61400000009"}
	assert.IsType(t, &messaging.TwilioSender{}, BuildSender(cfg, nil, logging.Discard()))
}

func TestBuildEmailSender(t *testing.T) {
	logger := logging.Discard()

	assert.Nil(t, BuildEmailSender(&appconfig.Config{EmailProvider: "sendgrid"}, nil, logger))
	assert.Nil(t, BuildEmailSender(&appconfig.Config{OperatorEmail: "op@example.com", EmailProvider: "sendgrid"}, nil, logger))
	assert.Nil(t, BuildEmailSender(&appconfig.Config{OperatorEmail: "op@example.com", EmailProvider: "ses"}, nil, logger))

	sg := BuildEmailSender(&appconfig.Config{OperatorEmail: "op@example.com", EmailProvider: "sendgrid", SendGridAPIKey: "SG.key"}, nil, logger)
	assert.IsType(t, &notify.SendGridSender{}, sg)

	stub := BuildEmailSender(&appconfig.Config{OperatorEmail: "op@example.com", EmailProvider: "stub"}, nil, logger)
	assert.IsType(t, &notify.StubEmailSender{}, stub)
}

func TestBuildPolisher(t *testing.T) {
	logger := logging.Discard()
	assert.Nil(t, BuildPolisher(context.Background(), &appconfig.Config{PolishEnabled: false, OpenAIAPIKey: "sk"}, nil, logger))
	assert.Nil(t, BuildPolisher(context.Background(), &appconfig.Config{PolishEnabled: true}, nil, logger))
	assert.Nil(t, BuildPolisher(context.Background(), &appconfig.Config{PolishEnabled: true, BedrockModelID: "anthropic.claude"}, nil, logger))
	assert.NotNil(t, BuildPolisher(context.Background(), &appconfig.Config{PolishEnabled: true, OpenAIAPIKey: "sk"}, nil, logger))
}

func TestBuildCalendarWithoutCredentials(t *testing.T) {
	assert.Equal(t, calendar.NoopService{}, BuildCalendar(context.Background(), &appconfig.Config{GoogleCalendarID: "cal"}, logging.Discard()))
}

func TestNeedsAWS(t *testing.T) {
	assert.False(t, NeedsAWS(&appconfig.Config{}))
	assert.True(t, NeedsAWS(&appconfig.Config{BedrockModelID: "m"}))
	assert.True(t, NeedsAWS(&appconfig.Config{EmailProvider: "ses"}))
}
