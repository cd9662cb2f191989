package ingest

import (
	"context"
	"fmt"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"

	"puritygrid-backend/config"
	"puritygrid-backend/internal/parse"
)

// Subscriber feeds readings published over MQTT into the pipeline.
type Subscriber struct {
	cfg      config.MQTTConfig
	client   mqtt.Client
	pipeline *Pipeline
	log      zerolog.Logger
	now      func() time.Time
}

// NewSubscriber creates a subscriber. Connect must be called before Subscribe.
func NewSubscriber(cfg config.MQTTConfig, pipeline *Pipeline, log zerolog.Logger) *Subscriber {
	s := &Subscriber{
		cfg:      cfg,
		pipeline: pipeline,
		log:      log.With().Str("component", "mqtt").Logger(),
		now:      time.Now,
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(cfg.ClientID)
	opts.SetUsername(cfg.Username)
	opts.SetPassword(cfg.Password)
	opts.SetAutoReconnect(true)
	opts.SetKeepAlive(60 * time.Second)
	opts.SetPingTimeout(10 * time.Second)
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		s.log.Warn().Err(err).Msg("connection to broker lost")
	})
	s.client = mqtt.NewClient(opts)
	return s
}

// Connect connects to the broker.
func (s *Subscriber) Connect() error {
	if token := s.client.Connect(); token.Wait() && token.Error() != nil {
		return fmt.Errorf("failed to connect to MQTT broker: %w", token.Error())
	}
	s.log.Info().Str("broker", s.cfg.Broker).Msg("connected to MQTT broker")
	return nil
}

// Subscribe starts consuming the telemetry topic. Messages are processed with
// ctx until it is cancelled.
func (s *Subscriber) Subscribe(ctx context.Context) error {
	token := s.client.Subscribe(s.cfg.Topic, s.cfg.QoS, func(_ mqtt.Client, msg mqtt.Message) {
		if ctx.Err() != nil {
			return
		}
		s.HandleMessage(ctx, msg.Topic(), msg.Payload())
	})
	if token.Wait() && token.Error() != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", s.cfg.Topic, token.Error())
	}
	s.log.Info().Str("topic", s.cfg.Topic).Msg("subscribed to telemetry topic")
	return nil
}

// HandleMessage decodes one published payload. Records without a device id
// take it from the topic.
func (s *Subscriber) HandleMessage(ctx context.Context, topic string, payload []byte) {
	raws, err := DecodeBatch(payload)
	if err != nil {
		s.log.Warn().Err(err).Str("topic", topic).Msg("dropping undecodable message")
		return
	}

	if id := DeviceIDFromTopic(topic); id != "" {
		for i := range raws {
			if strings.TrimSpace(string(raws[i].DeviceID)) == "" {
				raws[i].DeviceID = parse.Field(id)
			}
		}
	}

	if _, err := s.pipeline.Process(ctx, s.now().UTC(), raws); err != nil {
		s.log.Error().Err(err).Str("topic", topic).Msg("failed to process message")
	}
}

// DeviceIDFromTopic returns the segment after "purifiers/" in a topic such
// as purifiers/223/telemetry.
func DeviceIDFromTopic(topic string) string {
	parts := strings.Split(topic, "/")
	for i := 0; i+1 < len(parts); i++ {
		if parts[i] == "purifiers" {
			return parts[i+1]
		}
	}
	return ""
}

// Close unsubscribes and disconnects.
func (s *Subscriber) Close() {
	if s.client.IsConnected() {
		s.client.Unsubscribe(s.cfg.Topic).WaitTimeout(time.Second)
		s.client.Disconnect(250)
	}
}
