package consumers

import (
	"errors"
	"log/slog"

	"github.com/nats-io/stan.go"
)

// errPoison - сообщение, которое никогда не обработается; его подтверждаем, чтобы не крутить redelivery
var errPoison = errors.New("malformed message")

// ack подтверждает успешные и битые сообщения; остальные ошибки ждут redelivery после AckWait
func (h *Handlers) ack(m *stan.Msg, err error) {
	if err != nil {
		slog.Error("Failed to handle message", "subject", m.Subject, "error", err)
		if !errors.Is(err, errPoison) {
			return
		}
	}

	if ackErr := m.Ack(); ackErr != nil {
		slog.Error("Failed to ack message", "subject", m.Subject, "error", ackErr)
	}
}
