package notify

import (
	"context"
	"fmt"
	"sync"
	"time"

	"shopfront/internal/config"
	applog "shopfront/internal/log"
)

// Dispatcher queues messages and delivers them from a single worker, so a
// slow mail server or broker never holds up a request.
type Dispatcher struct {
	sender  Sender
	inbox   chan Message
	timeout time.Duration

	once sync.Once
	done chan struct{}
}

func NewDispatcher(sender Sender, buf int) *Dispatcher {
	if buf <= 0 {
		buf = 1
	}
	d := &Dispatcher{
		sender:  sender,
		inbox:   make(chan Message, buf),
		timeout: 15 * time.Second,
		done:    make(chan struct{}),
	}
	go d.run()
	return d
}

func (d *Dispatcher) run() {
	defer close(d.done)
	for m := range d.inbox {
		d.deliver(m)
	}
}

func (d *Dispatcher) deliver(m Message) {
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()
	if err := d.sender.Send(ctx, m); err != nil {
		applog.BgError("notify.send.fail", err, map[string]any{
			"kind":           m.Kind,
			"correlation_id": m.CorrelationID,
		})
	}
}

// Notify enqueues m. When the queue is full the message is dropped and
// logged.
func (d *Dispatcher) Notify(m Message) {
	defer func() {
		// send on closed channel after Close
		if recover() != nil {
			applog.BgError("notify.drop", fmt.Errorf("dispatcher closed"), map[string]any{"kind": m.Kind})
		}
	}()
	select {
	case d.inbox <- m:
	default:
		applog.BgError("notify.drop", fmt.Errorf("queue full"), map[string]any{
			"kind":           m.Kind,
			"correlation_id": m.CorrelationID,
		})
	}
}

// Close stops accepting messages and waits for the queue to drain or ctx to
// expire, then closes the sender.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.once.Do(func() { close(d.inbox) })
	select {
	case <-d.done:
	case <-ctx.Done():
		return ctx.Err()
	}
	return d.sender.Close()
}

// NewSender picks the sender named by cfg.NotifyDriver.
func NewSender(cfg config.Config) (Sender, error) {
	switch cfg.NotifyDriver {
	case "", "log":
		return LogSender{}, nil
	case "smtp":
		return NewSMTPSender(SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.SMTPFrom,
		})
	case "kafka":
		return NewKafkaSender(cfg.KafkaBrokers, cfg.KafkaTopic), nil
	case "amqp":
		return NewAMQPSender(cfg.AMQPURL, cfg.AMQPQueue)
	default:
		return nil, fmt.Errorf("notify: unknown driver %q", cfg.NotifyDriver)
	}
}
