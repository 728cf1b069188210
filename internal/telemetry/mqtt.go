package telemetry

import (
	"context"
	"fmt"
	"log"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
)

// DefaultTopic carries raw detector frames bridged onto MQTT.
const DefaultTopic = "radiation/detector/raw"

// MQTTSource subscribes to a topic whose payloads are raw frames.
type MQTTSource struct {
	Broker   string
	Topic    string
	ClientID string
}

// Run subscribes and forwards payloads until ctx is cancelled.
func (s MQTTSource) Run(ctx context.Context, frames chan<- string) error {
	topic := s.Topic
	if topic == "" {
		topic = DefaultTopic
	}
	opts := paho.NewClientOptions().
		AddBroker(s.Broker).
		SetClientID(s.ClientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second)

	handler := func(_ paho.Client, msg paho.Message) {
		select {
		case frames <- string(msg.Payload()):
		case <-ctx.Done():
		}
	}
	// Resubscribe after every (re)connect; the session is not persistent.
	opts.SetOnConnectHandler(func(c paho.Client) {
		token := c.Subscribe(topic, 0, handler)
		token.Wait()
		if err := token.Error(); err != nil {
			log.Printf("telemetry: subscribe %s failed: %v", topic, err)
			return
		}
		log.Printf("telemetry: subscribed to %s", topic)
	})

	client := paho.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		return fmt.Errorf("connect to broker %s: timeout", s.Broker)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("connect to broker %s: %w", s.Broker, err)
	}

	<-ctx.Done()
	client.Disconnect(1000)
	return ctx.Err()
}
