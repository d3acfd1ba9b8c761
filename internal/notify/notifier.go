// Package notify dispatches one-time passcodes over out-of-band channels
// (email, SMS). Dispatch is fire-and-forget: always attempt, never block
// the caller, report failure only to the log.
package notify

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// Channel names the out-of-band transport for a dispatch.
type Channel string

const (
	ChannelEmail Channel = "email"
	ChannelSMS   Channel = "sms"
)

// Dispatcher delivers one-time passcodes to a user's contact address.
type Dispatcher interface {
	DispatchOTP(contact string, channel Channel, code string)
}

// otpEvent is the payload published for downstream delivery workers.
type otpEvent struct {
	Contact  string `json:"contact"`
	Channel  string `json:"channel"`
	Code     string `json:"code"`
	IssuedAt string `json:"issued_at"`
}

// NATSDispatcher publishes dispatch requests to a NATS subject per
// channel; delivery workers downstream own the actual email/SMS sending.
type NATSDispatcher struct {
	nc  *nats.Conn
	log *zap.Logger
}

func NewNATSDispatcher(url string, log *zap.Logger) (*NATSDispatcher, error) {
	nc, err := nats.Connect(url,
		nats.Name("voxchat-notify"),
		nats.Timeout(5*time.Second),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	return &NATSDispatcher{nc: nc, log: log}, nil
}

var _ Dispatcher = (*NATSDispatcher)(nil)

func (d *NATSDispatcher) DispatchOTP(contact string, channel Channel, code string) {
	event := otpEvent{
		Contact:  contact,
		Channel:  string(channel),
		Code:     code,
		IssuedAt: time.Now().UTC().Format(time.RFC3339),
	}
	go func() {
		body, err := json.Marshal(event)
		if err != nil {
			d.log.Warn("encode otp event", zap.Error(err))
			return
		}
		subject := "notify.otp." + string(channel)
		if err := d.nc.Publish(subject, body); err != nil {
			d.log.Warn("publish otp event",
				zap.String("subject", subject), zap.Error(err))
		}
	}()
}

func (d *NATSDispatcher) Close() {
	d.nc.Close()
}

// LogDispatcher writes codes to the log. Development use only.
type LogDispatcher struct {
	log *zap.Logger
}

func NewLogDispatcher(log *zap.Logger) *LogDispatcher {
	return &LogDispatcher{log: log}
}

var _ Dispatcher = (*LogDispatcher)(nil)

func (d *LogDispatcher) DispatchOTP(contact string, channel Channel, code string) {
	d.log.Info("otp dispatch",
		zap.String("contact", contact),
		zap.String("channel", string(channel)),
		zap.String("code", code),
	)
}
