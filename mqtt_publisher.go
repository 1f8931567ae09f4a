package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// MQTTPublisher publishes spot batches as they decode and gathered
// Prometheus metrics on a fixed interval.
type MQTTPublisher struct {
	client mqtt.Client
	config *MQTTConfig
}

func generateClientID() string {
	bytes := make([]byte, 8)
	rand.Read(bytes)
	return "ft8skimmer_" + hex.EncodeToString(bytes)
}

// NewMQTTPublisher connects to the broker with auto-reconnect.
func NewMQTTPublisher(config *MQTTConfig) (*MQTTPublisher, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(config.Broker)
	opts.SetClientID(generateClientID())

	if config.Username != "" {
		opts.SetUsername(config.Username)
	}
	if config.Password != "" {
		opts.SetPassword(config.Password)
	}

	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(10 * time.Second)
	opts.SetKeepAlive(60 * time.Second)
	opts.SetPingTimeout(10 * time.Second)

	opts.SetOnConnectHandler(func(client mqtt.Client) {
		log.Println("[MQTT] Connected to broker")
	})
	opts.SetConnectionLostHandler(func(client mqtt.Client, err error) {
		log.Printf("[MQTT] Connection lost: %v", err)
	})

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("failed to connect to MQTT broker: %w", token.Error())
	}
	log.Printf("[MQTT] Connected to broker: %s", config.Broker)

	return &MQTTPublisher{client: client, config: config}, nil
}

// PublishBatch publishes one cycle's spots: the whole batch on .../cycle
// and each spot individually on .../spot.
func (mp *MQTTPublisher) PublishBatch(batch *CycleBatch) {
	payload, err := json.Marshal(batch)
	if err != nil {
		log.Printf("[MQTT] Failed to marshal batch: %v", err)
		return
	}
	mp.publish(mp.config.TopicPrefix+"/cycle", payload)

	for i := range batch.Spots {
		spotPayload, err := json.Marshal(&batch.Spots[i])
		if err != nil {
			continue
		}
		mp.publish(mp.config.TopicPrefix+"/spot", spotPayload)
	}
}

// StartMetricsPublisher periodically gathers the Prometheus registry and
// publishes every ft8_ metric to its own topic. Runs until ctx is done.
func (mp *MQTTPublisher) StartMetricsPublisher(ctx context.Context) {
	interval := time.Duration(mp.config.PublishInterval) * time.Second
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	mp.publishMetrics()
	for {
		select {
		case <-ctx.Done():
			mp.client.Disconnect(250)
			log.Println("[MQTT] Metrics publisher stopped")
			return
		case <-ticker.C:
			mp.publishMetrics()
		}
	}
}

func (mp *MQTTPublisher) publishMetrics() {
	families, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		log.Printf("[MQTT] Failed to gather metrics: %v", err)
		return
	}

	metrics := make(map[string]float64)
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			value, ok := extractMetricValue(m)
			if !ok {
				continue
			}
			name := mf.GetName()
			for _, label := range m.GetLabel() {
				if label.GetName() != "band" {
					name += "_" + label.GetValue()
				}
			}
			metrics[name] = value
		}
	}

	payload, err := json.Marshal(map[string]interface{}{
		"timestamp": time.Now().Unix(),
		"metrics":   metrics,
	})
	if err != nil {
		return
	}
	mp.publish(mp.config.TopicPrefix+"/metrics", payload)
}

// extractMetricValue pulls the scalar out of whichever metric type is set.
func extractMetricValue(m *dto.Metric) (float64, bool) {
	switch {
	case m.GetGauge() != nil:
		return m.GetGauge().GetValue(), true
	case m.GetCounter() != nil:
		return m.GetCounter().GetValue(), true
	case m.GetUntyped() != nil:
		return m.GetUntyped().GetValue(), true
	case m.GetHistogram() != nil:
		h := m.GetHistogram()
		if h.GetSampleCount() == 0 {
			return 0, true
		}
		return h.GetSampleSum() / float64(h.GetSampleCount()), true
	}
	return 0, false
}

func (mp *MQTTPublisher) publish(topic string, payload []byte) {
	token := mp.client.Publish(topic, 0, false, payload)
	go func() {
		if token.Wait() && token.Error() != nil {
			log.Printf("[MQTT] Publish to %s failed: %v", topic, token.Error())
		}
	}()
}
