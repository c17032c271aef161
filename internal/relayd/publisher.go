package relayd

import (
	"encoding/json"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github/chapool/go-chapay/internal/config"
)

// SponsorshipEvent is published per countersigned envelope so downstream
// services (billing, analytics) can follow sponsorship activity.
type SponsorshipEvent struct {
	TxHash   string    `json:"txHash"`
	Sender   string    `json:"sender"`
	FeePayer string    `json:"feePayer"`
	FeeToken string    `json:"feeToken,omitempty"`
	ChainID  uint64    `json:"chainId"`
	Time     time.Time `json:"time"`
}

// Publisher emits sponsorship events.
type Publisher interface {
	PublishSponsorship(ev SponsorshipEvent)
	Close()
}

type natsPublisher struct {
	conn    *nats.Conn
	subject string
}

// NewNATSPublisher connects to the configured NATS server.
func NewNATSPublisher(cfg config.NATS) (Publisher, error) {
	conn, err := nats.Connect(cfg.URL, nats.Name("chapay-relayd"))
	if err != nil {
		return nil, errors.Wrapf(err, "connecting to NATS at %s", cfg.URL)
	}

	log.Info().Str("url", cfg.URL).Str("subject", cfg.Subject).Msg("Connected to NATS")

	return &natsPublisher{conn: conn, subject: cfg.Subject}, nil
}

func (p *natsPublisher) PublishSponsorship(ev SponsorshipEvent) {
	data, err := json.Marshal(ev)
	if err != nil {
		log.Error().Err(err).Msg("Failed to encode sponsorship event")
		return
	}
	if err := p.conn.Publish(p.subject, data); err != nil {
		log.Error().Err(err).Msg("Failed to publish sponsorship event")
	}
}

func (p *natsPublisher) Close() {
	if err := p.conn.Drain(); err != nil {
		log.Error().Err(err).Msg("Failed to drain NATS connection")
	}
}

// nopPublisher drops all events. Used when NATS is disabled.
type nopPublisher struct{}

func NewNopPublisher() Publisher { return nopPublisher{} }

func (nopPublisher) PublishSponsorship(SponsorshipEvent) {}
func (nopPublisher) Close()                              {}
