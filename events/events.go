// Package events delivers ledger notifications to external consumers.
package events

import (
	"context"

	"github.com/nspcc-dev/neo-go/pkg/core/state"
	"go.uber.org/zap"
)

// Publisher delivers notifications produced by a committed ledger operation.
type Publisher interface {
	Publish(ctx context.Context, events []state.NotificationEvent) error
}

// LogPublisher writes notifications into the log.
type LogPublisher struct {
	log *zap.Logger
}

// NewLogPublisher returns Publisher writing notifications into the given log
// at info level.
func NewLogPublisher(l *zap.Logger) *LogPublisher {
	return &LogPublisher{log: l}
}

// Publish implements Publisher.
func (x *LogPublisher) Publish(_ context.Context, events []state.NotificationEvent) error {
	for i := range events {
		x.log.Info("notification",
			zap.Stringer("contract", events[i].ScriptHash),
			zap.String("name", events[i].Name),
			zap.Any("params", events[i].Item.Value()),
		)
	}
	return nil
}

// Multi fans notifications out to several publishers. Publishing stops at
// the first failure.
type Multi []Publisher

// Publish implements Publisher.
func (x Multi) Publish(ctx context.Context, events []state.NotificationEvent) error {
	for i := range x {
		if err := x[i].Publish(ctx, events); err != nil {
			return err
		}
	}
	return nil
}
