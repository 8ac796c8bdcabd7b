package tpms

import (
	"testing"
	"time"

	"github.com/barnybug/djtpms/config"
	"github.com/barnybug/djtpms/pubsub/dummy"
	"github.com/barnybug/djtpms/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInterfaces(t *testing.T) {
	var _ services.Service = (*Service)(nil)
	var _ services.ServiceInit = (*Service)(nil)
	var _ services.Queryable = (*Service)(nil)
	var _ services.Flags = (*Service)(nil)
}

const frontLeft = `{"topic":"tpms","timestamp":"2026-10-19 12:00:00.000000","source":"tpms.0c:3d:5e:4e:8b:8a","battery_voltage":3.1,"temp":29,"pressure_abs":324,"pressure":223,"rssi":-74}`
const unknown = `{"topic":"tpms","timestamp":"2026-10-19 12:00:30.000000","source":"tpms.11:22:33:44:55:66","battery_voltage":3,"temp":30,"pressure_abs":298,"pressure":197,"rssi":-80}`

func setup() (*Service, *dummy.Publisher) {
	services.SetConfig(config.ExampleConfig)
	em := &dummy.Publisher{}
	services.Publisher = em
	now = func() time.Time { return time.Date(2026, 10, 19, 12, 1, 0, 0, time.UTC) }
	return &Service{restart: make(chan struct{}, 1)}, em
}

func TestHandle(t *testing.T) {
	service, em := setup()
	ev := service.handle([]byte(frontLeft))
	require.NotNil(t, ev)
	assert.Equal(t, "tpms", ev.Topic)
	assert.Equal(t, "tyre.front_left", ev.Device())
	assert.Equal(t, int64(223), ev.IntField("pressure"))
	require.Len(t, em.Events, 1)
	assert.True(t, em.Events[0].Published.Set(), "already published")

	ev = service.handle([]byte(unknown))
	require.NotNil(t, ev)
	assert.Equal(t, "", ev.Device())
}

func TestHandleIgnored(t *testing.T) {
	service, em := setup()
	assert.Nil(t, service.handle(nil))
	assert.Nil(t, service.handle([]byte("Started scanning")))
	assert.Nil(t, service.handle([]byte("{broken")))
	assert.Nil(t, service.handle([]byte(`{"topic":"tpms"}`)))
	assert.Empty(t, em.Events)
}

func TestQueryStatus(t *testing.T) {
	service, _ := setup()
	assert.Equal(t, "No readings", service.queryStatus(services.Question{Verb: "status"}))

	service.handle([]byte(unknown))
	service.handle([]byte(frontLeft))
	expected := "tpms.11:22:33:44:55:66: 197kPa (298kPa abs) 30°C 3.0V 30s ago\n" +
		"tyre.front_left: 223kPa (324kPa abs) 29°C 3.1V 1m ago"
	assert.Equal(t, expected, service.queryStatus(services.Question{Verb: "status"}))

	assert.Equal(t, "tyre.front_left: 223kPa (324kPa abs) 29°C 3.1V 1m ago",
		service.queryStatus(services.Question{Verb: "status", Args: "front_left"}))
	assert.Equal(t, "No readings for rear",
		service.queryStatus(services.Question{Verb: "status", Args: "rear"}))
}

func TestQueryHandlers(t *testing.T) {
	service, _ := setup()
	handlers := service.QueryHandlers()
	assert.Contains(t, handlers, "status")
	assert.Contains(t, handlers["help"](services.Question{}).Text, "status")
}

func TestConfigChanged(t *testing.T) {
	service, _ := setup()
	service.settings = config.ExampleConfig.Tpms

	service.configChanged(config.ExampleConfig)
	assert.Empty(t, service.restart)

	changed := *config.ExampleConfig
	changed.Tpms.Window.Duration = time.Minute
	service.configChanged(&changed)
	service.configChanged(&changed)
	assert.Len(t, service.restart, 1)
	assert.Equal(t, time.Minute, service.settings.Window.Duration)

	<-service.restart
	other := changed
	other.Tpms.Name = "OTHER"
	service.configChanged(&other)
	assert.Len(t, service.restart, 1)
}
