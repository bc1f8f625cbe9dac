package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/energyplan/core/metrics"
	coremqtt "github.com/kilianp07/energyplan/core/mqtt"
)

type published struct {
	topic    string
	qos      byte
	retained bool
	payload  []byte
}

// mockClient implements pahoClient for tests
type mockClient struct {
	opts        *paho.ClientOptions
	published   []published
	publishErrs []error
	connectErr  error
	connected   bool
}

func (m *mockClient) IsConnected() bool { return m.connected }
func (m *mockClient) Connect() paho.Token {
	if m.connectErr != nil {
		return &dummyToken{err: m.connectErr}
	}
	m.connected = true
	if m.opts != nil && m.opts.OnConnect != nil {
		m.opts.OnConnect(nil)
	}
	return &dummyToken{}
}
func (m *mockClient) Disconnect(uint) { m.connected = false }
func (m *mockClient) Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token {
	m.published = append(m.published, published{topic, qos, retained, payload.([]byte)})
	if len(m.publishErrs) > 0 {
		err := m.publishErrs[0]
		m.publishErrs = m.publishErrs[1:]
		return &dummyToken{err: err}
	}
	return &dummyToken{}
}

type dummyToken struct{ err error }

func (d dummyToken) Wait() bool                     { return true }
func (d dummyToken) WaitTimeout(time.Duration) bool { return true }
func (d dummyToken) Done() <-chan struct{}          { ch := make(chan struct{}); close(ch); return ch }
func (d dummyToken) Error() error                   { return d.err }

func withMock(t *testing.T, mc *mockClient) {
	t.Helper()
	old := newMQTTClient
	newMQTTClient = func(o *paho.ClientOptions) pahoClient { mc.opts = o; return mc }
	t.Cleanup(func() { newMQTTClient = old })
}

func schedule() metrics.ScheduleEvent {
	return metrics.ScheduleEvent{
		PlanID: "plan-1",
		Start:  time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
		Series: map[string]map[string][]float64{
			"grid":    {"import": {1, 2}, "export": {0, 0}},
			"battery": {"soc": {5, 6}},
		},
	}
}

func TestPublishSchedule(t *testing.T) {
	mc := &mockClient{}
	withMock(t, mc)
	pub, err := NewSchedulePublisher(Config{Broker: "tcp://localhost:1883", TopicPrefix: "home/plan/", QoS: 1, Retain: true})
	require.NoError(t, err)

	require.NoError(t, pub.PublishSchedule(context.Background(), schedule()))
	require.Len(t, mc.published, 3)
	topics := []string{mc.published[0].topic, mc.published[1].topic, mc.published[2].topic}
	assert.Equal(t, []string{"home/plan/battery/soc", "home/plan/grid/export", "home/plan/grid/import"}, topics)
	assert.Equal(t, byte(1), mc.published[0].qos)
	assert.True(t, mc.published[0].retained)

	var msg SeriesMessage
	require.NoError(t, json.Unmarshal(mc.published[2].payload, &msg))
	assert.Equal(t, "plan-1", msg.PlanID)
	assert.Equal(t, "grid", msg.Device)
	assert.Equal(t, "import", msg.Role)
	assert.Equal(t, int64(3600), msg.StepSeconds)
	assert.Equal(t, []float64{1, 2}, msg.Values)

	pub.Close()
	assert.False(t, mc.connected)
}

func TestPublishRetries(t *testing.T) {
	mc := &mockClient{publishErrs: []error{fmt.Errorf("net fail"), nil}}
	withMock(t, mc)
	pub, err := NewSchedulePublisher(Config{Broker: "tcp://localhost:1883", MaxRetries: 1, BackoffMS: 1})
	require.NoError(t, err)

	ev := schedule()
	ev.Series = map[string]map[string][]float64{"grid": {"import": {1}}}
	require.NoError(t, pub.RecordSchedule(ev))
	assert.Len(t, mc.published, 2)
}

func TestPublishGivesUp(t *testing.T) {
	fail := errors.New("net fail")
	mc := &mockClient{publishErrs: []error{fail, fail, fail}}
	withMock(t, mc)
	pub, err := NewSchedulePublisher(Config{Broker: "tcp://localhost:1883", MaxRetries: 1, BackoffMS: 1})
	require.NoError(t, err)

	err = pub.PublishSchedule(context.Background(), schedule())
	assert.ErrorIs(t, err, coremqtt.ErrPublish)
	assert.Len(t, mc.published, 2, "stops after the first undeliverable series")
}

func TestConnectError(t *testing.T) {
	mc := &mockClient{connectErr: errors.New("refused")}
	withMock(t, mc)
	_, err := NewSchedulePublisher(Config{Broker: "tcp://localhost:1883"})
	assert.EqualError(t, err, "refused")
}

func TestLWTConfigured(t *testing.T) {
	mc := &mockClient{}
	withMock(t, mc)
	pub, err := NewSchedulePublisher(Config{Broker: "tcp://localhost:1883", ClientID: "id", LWTTopic: "lwt", LWTPayload: "bye", LWTQoS: 1})
	require.NoError(t, err)
	assert.True(t, mc.opts.WillEnabled)
	assert.Equal(t, "lwt", mc.opts.WillTopic)
	assert.Equal(t, "bye", string(mc.opts.WillPayload))
	pub.Close()
	assert.Empty(t, mc.published)
}

func TestConfigDefaults(t *testing.T) {
	var c Config
	assert.False(t, c.Enabled())
	c.SetDefaults()
	assert.Equal(t, "energyplan", c.TopicPrefix)
	assert.NotEmpty(t, c.ClientID)
	assert.Equal(t, 3, c.MaxRetries)
	assert.NoError(t, c.Validate())
	c.QoS = 3
	assert.Error(t, c.Validate())
}
