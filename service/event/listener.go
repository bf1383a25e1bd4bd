package event

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"
)

type Listener[T any] struct {
	publisher *Publisher[T]
	handler   func(*Event[T])
	logger    logrus.FieldLogger
	cancel    context.CancelFunc
	done      chan struct{}
}

func NewListener[T any](publisher *Publisher[T], handler func(*Event[T]), logger logrus.FieldLogger) *Listener[T] {
	return &Listener[T]{
		publisher: publisher,
		handler:   handler,
		logger:    logger,
		done:      make(chan struct{}),
	}
}

// Stop cancels the consuming goroutine and waits for it to exit.
func (l *Listener[T]) Stop() {
	if l.cancel == nil {
		return
	}
	l.cancel()
	<-l.done
}

func (l *Listener[T]) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	l.cancel = cancel
	go func() {
		defer close(l.done)
		for {
			event, err := l.publisher.Consume(ctx)
			if err != nil {
				if errors.Is(err, context.Canceled) {
					return
				}
				l.logger.WithError(err).Warn("failed to consume event")
				continue
			}
			if event != nil {
				l.handler(event)
			}
		}
	}()
}
