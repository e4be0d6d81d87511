// Package notificator fans operational alerts out to SNS and Telegram.
// Alerts are advisory; a delivery failure must never take the bot down,
// so every channel call runs behind panic recovery and errors only log.
package notificator

import (
	"runtime/debug"

	"github.com/core-coin/gutta/pkg/logger"
)

// Channel is one delivery target for alerts.
type Channel interface {
	Send(subject, body string)
}

// Notificator implements models.AlertSink over every configured channel.
type Notificator struct {
	logger   *logger.Logger
	channels []Channel
}

func NewNotificator(logger *logger.Logger, channels ...Channel) *Notificator {
	active := make([]Channel, 0, len(channels))
	for _, c := range channels {
		if c != nil {
			active = append(active, c)
		}
	}
	return &Notificator{logger: logger, channels: active}
}

// safeCall runs a function with panic recovery (synchronous, no goroutine spawning)
func (n *Notificator) safeCall(fn func(), context string) {
	defer func() {
		if r := recover(); r != nil {
			n.logger.Error("Function panicked",
				"context", context,
				"panic", r,
				"stack", string(debug.Stack()))
		}
	}()
	fn()
}

// Notify delivers one alert to every channel. Fire-and-forget.
func (n *Notificator) Notify(subject, body string) {
	for _, c := range n.channels {
		c := c
		n.safeCall(func() { c.Send(subject, body) }, "alertNotification")
	}
}
