package app

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/kev-in-ta/CARISPAWProject/internal/acquisition"
	"github.com/kev-in-ta/CARISPAWProject/internal/imu"
	"github.com/kev-in-ta/CARISPAWProject/internal/orientation"
)

// DefaultQueueSize bounds each device's publish queue.
const DefaultQueueSize = 1024

// Sink delivers one encoded message.
type Sink func(topic string, retained bool, payload []byte) error

// MQTTSink publishes at QoS 0 through client.
func MQTTSink(client mqtt.Client, timeout time.Duration) Sink {
	return func(topic string, retained bool, payload []byte) error {
		token := client.Publish(topic, 0, retained, payload)
		if !token.WaitTimeout(timeout) {
			return fmt.Errorf("publish %s: timed out", topic)
		}
		return token.Error()
	}
}

// StatusMessage is the payload of <prefix>/<device>/status.
type StatusMessage struct {
	Device string             `json:"device"`
	Status acquisition.Status `json:"status"`
	Time   string             `json:"time"`
}

type publishEvent struct {
	topic    string
	retained bool
	payload  any
}

// Publisher is an acquisition.Observer that forwards session events to a
// Sink. Each device gets its own queue and goroutine so a slow broker never
// stalls a session; when a queue is full the event is dropped.
type Publisher struct {
	prefix    string
	sink      Sink
	queueSize int

	mu     sync.Mutex
	queues map[string]chan publishEvent
	closed bool
	wg     sync.WaitGroup

	dropped atomic.Uint64
}

func NewPublisher(prefix string, sink Sink, queueSize int) *Publisher {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	return &Publisher{
		prefix:    prefix,
		sink:      sink,
		queueSize: queueSize,
		queues:    make(map[string]chan publishEvent),
	}
}

func (p *Publisher) topic(device, kind string) string {
	if p.prefix == "" {
		return device + "/" + kind
	}
	return p.prefix + "/" + device + "/" + kind
}

func (p *Publisher) OnStatus(device string, status acquisition.Status) {
	p.enqueue(device, publishEvent{
		topic:    p.topic(device, "status"),
		retained: true,
		payload:  StatusMessage{Device: device, Status: status, Time: time.Now().Format(time.RFC3339)},
	})
}

func (p *Publisher) OnSample(device string, s imu.Sample) {
	p.enqueue(device, publishEvent{
		topic:   p.topic(device, "sample"),
		payload: s,
	})
	p.enqueue(device, publishEvent{
		topic:    p.topic(device, "pose"),
		retained: true,
		payload:  orientation.Pose{Roll: s.Roll, Pitch: s.Pitch, Yaw: s.Heading},
	})
}

func (p *Publisher) OnRate(r acquisition.RateReport) {
	p.enqueue(r.Device, publishEvent{
		topic:    p.topic(r.Device, "rate"),
		retained: true,
		payload:  r,
	})
}

// Dropped counts events discarded because a queue was full.
func (p *Publisher) Dropped() uint64 { return p.dropped.Load() }

func (p *Publisher) enqueue(device string, ev publishEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	q, ok := p.queues[device]
	if !ok {
		q = make(chan publishEvent, p.queueSize)
		p.queues[device] = q
		p.wg.Add(1)
		go p.drain(q)
	}
	select {
	case q <- ev:
	default:
		if p.dropped.Add(1)%1000 == 1 {
			log.Printf("mqtt: queue for %s full, dropping events", device)
		}
	}
}

func (p *Publisher) drain(q chan publishEvent) {
	defer p.wg.Done()
	for ev := range q {
		payload, err := json.Marshal(ev.payload)
		if err != nil {
			log.Printf("mqtt: json marshal error (%s): %v", ev.topic, err)
			continue
		}
		if err := p.sink(ev.topic, ev.retained, payload); err != nil {
			log.Printf("mqtt: publish error (%s): %v", ev.topic, err)
		}
	}
}

// Close stops accepting events and waits until every queued event has
// been handed to the sink.
func (p *Publisher) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	for _, q := range p.queues {
		close(q)
	}
	p.mu.Unlock()
	p.wg.Wait()
	return nil
}

// ConnectMQTT connects a paho client the way every binary here does.
func ConnectMQTT(broker, clientID string) (mqtt.Client, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectTimeout(5 * time.Second)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("MQTT connect error: %w", token.Error())
	}
	log.Printf("mqtt: connected to broker at %s as %s", broker, clientID)
	return client, nil
}
