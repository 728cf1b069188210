package mqtt

import (
	"fmt"
	"log"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/sweeney/radmon/internal/logic"
)

// offlineCapacity bounds the messages kept while disconnected.
const offlineCapacity = 256

// Options configures a RealPublisher.
type Options struct {
	Broker   string
	ClientID string

	// OnConnectionChange, if set, is called on every connect and connection loss.
	OnConnectionChange func(connected bool)
}

// RealPublisher publishes to an actual MQTT broker. Messages published while
// the connection is down are queued and replayed on reconnect.
type RealPublisher struct {
	client paho.Client

	mu      sync.Mutex
	offline *offlineQueue
}

// NewRealPublisher creates a publisher connected to the given broker.
func NewRealPublisher(o Options) (*RealPublisher, error) {
	p := &RealPublisher{offline: newOfflineQueue(offlineCapacity)}

	will, _ := FormatSystemPayload(SystemEvent{Timestamp: time.Now(), Event: EventOffline})
	opts := paho.NewClientOptions().
		AddBroker(o.Broker).
		SetClientID(o.ClientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetWill(TopicSystem, string(will), 1, true).
		SetOnConnectHandler(func(c paho.Client) {
			if o.OnConnectionChange != nil {
				o.OnConnectionChange(true)
			}
			p.replay(c)
		}).
		SetConnectionLostHandler(func(_ paho.Client, err error) {
			log.Printf("mqtt: connection lost: %v", err)
			if o.OnConnectionChange != nil {
				o.OnConnectionChange(false)
			}
		})

	p.client = paho.NewClient(opts)
	token := p.client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		return nil, fmt.Errorf("connection timeout")
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect to broker: %w", err)
	}

	return p, nil
}

// replay publishes everything queued while offline.
func (p *RealPublisher) replay(c paho.Client) {
	p.mu.Lock()
	msgs := p.offline.drainAll()
	p.mu.Unlock()

	if len(msgs) > 0 {
		log.Printf("mqtt: replaying %d queued messages", len(msgs))
	}
	for _, m := range msgs {
		token := c.Publish(m.topic, m.qos, m.retained, m.payload)
		if !token.WaitTimeout(5*time.Second) || token.Error() != nil {
			log.Printf("mqtt: replay to %s failed: %v", m.topic, token.Error())
		}
	}

	payload, _ := FormatSystemPayload(SystemEvent{Timestamp: time.Now(), Event: EventReconnected})
	c.Publish(TopicSystem, 1, true, payload)
}

// IsConnected reports whether the broker connection is up.
func (p *RealPublisher) IsConnected() bool {
	return p.client.IsConnectionOpen()
}

func (p *RealPublisher) publish(topic string, qos byte, retained bool, payload []byte) error {
	if !p.client.IsConnectionOpen() {
		p.mu.Lock()
		p.offline.push(bufferedMsg{topic: topic, payload: payload, qos: qos, retained: retained})
		p.mu.Unlock()
		return nil
	}

	token := p.client.Publish(topic, qos, retained, payload)
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("publish %s: timeout", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	return nil
}

// PublishReading sends the displayed reading. QoS 0, retained so new
// subscribers see the current value.
func (p *RealPublisher) PublishReading(r logic.Reading) error {
	payload, err := FormatReading(r)
	if err != nil {
		return fmt.Errorf("format reading: %w", err)
	}
	return p.publish(TopicReading, 0, true, payload)
}

// PublishAlarm sends an alarm edge at QoS 1.
func (p *RealPublisher) PublishAlarm(e logic.AlarmEvent) error {
	payload, err := FormatAlarm(e)
	if err != nil {
		return fmt.Errorf("format alarm: %w", err)
	}
	return p.publish(TopicAlarm, 1, false, payload)
}

// PublishLog sends a log entry at QoS 1.
func (p *RealPublisher) PublishLog(e logic.LogEntry) error {
	payload, err := FormatLog(e)
	if err != nil {
		return fmt.Errorf("format log: %w", err)
	}
	return p.publish(TopicLog, 1, false, payload)
}

// PublishSystem sends a system lifecycle event at QoS 1.
func (p *RealPublisher) PublishSystem(event SystemEvent) error {
	payload, err := FormatSystemPayload(event)
	if err != nil {
		return fmt.Errorf("format system payload: %w", err)
	}
	return p.publish(TopicSystem, 1, event.Retained, payload)
}

// Close disconnects from the broker.
func (p *RealPublisher) Close() error {
	p.client.Disconnect(1000) // 1 second timeout
	return nil
}
