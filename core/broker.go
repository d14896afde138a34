package core

import (
	"encoding/json"
	"log"
	"time"

	"github.com/nats-io/nats.go"
)

// NATS subjects for launchpad lifecycle events.
const (
	SubjectAgentCreated = "agents.created"
	SubjectAgentRun     = "agents.run.completed"
	SubjectPurchase     = "store.purchases"
)

// NATSBroker encapsulates a NATS connection.
type NATSBroker struct {
	Conn *nats.Conn
}

// NewNATSBroker creates a new NATSBroker connected to the provided URL.
func NewNATSBroker(url string) (*NATSBroker, error) {
	nc, err := nats.Connect(url,
		nats.Timeout(10*time.Second),
	)
	if err != nil {
		return nil, err
	}
	return &NATSBroker{Conn: nc}, nil
}

// Publish sends data on the provided subject. Safe to call on a nil broker;
// events are simply dropped when messaging is not configured.
func (b *NATSBroker) Publish(subject string, data []byte) error {
	if b == nil || b.Conn == nil {
		return nil
	}
	return b.Conn.Publish(subject, data)
}

// PublishJSON marshals the payload and publishes it on the subject.
func (b *NATSBroker) PublishJSON(subject string, payload any) error {
	if b == nil || b.Conn == nil {
		return nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return b.Conn.Publish(subject, data)
}

// Subscribe registers a callback for a specific subject.
func (b *NATSBroker) Subscribe(subject string, cb nats.MsgHandler) error {
	_, err := b.Conn.Subscribe(subject, cb)
	return err
}

// Close gracefully closes the connection.
func (b *NATSBroker) Close() {
	if b == nil || b.Conn == nil {
		return
	}
	b.Conn.Close()
}

// Global instance of the NATS broker.
var NatsBrokerInstance *NATSBroker

// SetupNATS initializes the global NATS broker. Call this function at
// startup. The launchpad works without messaging, so a failed connection is
// logged rather than fatal.
func SetupNATS(url string) {
	broker, err := NewNATSBroker(url)
	if err != nil {
		log.Printf("Warning: failed to connect to NATS at %s: %v (events disabled)", url, err)
		return
	}
	NatsBrokerInstance = broker
	log.Printf("Connected to NATS at %s", url)
}
