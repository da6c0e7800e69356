// Package events publishes transaction lifecycle events so downstream
// consumers (notifications, analytics) can react without coupling to the
// ledger.
package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/alicelovescake/cashapp/internal/models"
)

// TransactionEvent is the wire shape published after a ledger operation
// creates or finalizes a transaction.
type TransactionEvent struct {
	TransactionID     uuid.UUID                `json:"transaction_id"`
	SenderUsername    string                   `json:"sender_username"`
	RecipientUsername string                   `json:"recipient_username"`
	Amount            decimal.Decimal          `json:"amount"`
	Status            models.TransactionStatus `json:"status"`
	Operation         string                   `json:"operation"`
	Timestamp         time.Time                `json:"timestamp"`
}

// Publisher emits transaction events. Implementations must be safe for
// concurrent use.
type Publisher interface {
	PublishTransaction(ev TransactionEvent) error
	Close()
}

// NATSPublisher publishes events to NATS on transactions.<status>.
type NATSPublisher struct {
	nc     *nats.Conn
	logger *logrus.Logger
}

// NewNATSPublisher connects to the NATS server at url.
func NewNATSPublisher(url string, logger *logrus.Logger) (*NATSPublisher, error) {
	nc, err := nats.Connect(url)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	return &NATSPublisher{nc: nc, logger: logger}, nil
}

// PublishTransaction marshals and publishes the event. Publish failures
// are logged and returned but never block the ledger operation that
// produced the event.
func (p *NATSPublisher) PublishTransaction(ev TransactionEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	subject := "transactions." + string(ev.Status)
	if err := p.nc.Publish(subject, data); err != nil {
		p.logger.WithError(err).WithField("subject", subject).Warn("publish transaction event")
		return err
	}
	return nil
}

// Close drains the connection.
func (p *NATSPublisher) Close() {
	p.nc.Drain()
}

// NoopPublisher drops events. Used when no NATS server is configured and
// in tests.
type NoopPublisher struct{}

func (NoopPublisher) PublishTransaction(TransactionEvent) error { return nil }
func (NoopPublisher) Close()                                    {}

// FromTransaction builds the event for a transaction produced by the
// named operation.
func FromTransaction(tx *models.Transaction, operation string) TransactionEvent {
	return TransactionEvent{
		TransactionID:     tx.ID(),
		SenderUsername:    tx.SenderUsername(),
		RecipientUsername: tx.RecipientUsername(),
		Amount:            tx.Amount(),
		Status:            tx.Status(),
		Operation:         operation,
		Timestamp:         time.Now().UTC(),
	}
}
