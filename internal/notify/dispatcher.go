package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/BearBump/SyncBox/internal/broker/messages"
)

const (
	defaultBuffer  = 256
	publishTimeout = 5 * time.Second
)

type Publisher interface {
	PublishOrderNotification(ctx context.Context, ev messages.OrderNotification) error
}

// Dispatcher — fire-and-forget очередь уведомлений. Переполнение буфера
// роняет событие, а не запрос синхронизации.
type Dispatcher struct {
	pub Publisher
	ch  chan messages.OrderNotification

	wg      sync.WaitGroup
	once    sync.Once
	dropped int64
	mu      sync.Mutex
}

func NewDispatcher(pub Publisher, buffer int) *Dispatcher {
	if buffer <= 0 {
		buffer = defaultBuffer
	}
	return &Dispatcher{
		pub: pub,
		ch:  make(chan messages.OrderNotification, buffer),
	}
}

func (d *Dispatcher) Start(ctx context.Context) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-d.ch:
				if !ok {
					return
				}
				d.publish(ev)
			}
		}
	}()
}

// Enqueue не блокирует: полный буфер — событие теряется с warn в логе.
func (d *Dispatcher) Enqueue(ev messages.OrderNotification) {
	select {
	case d.ch <- ev:
	default:
		d.mu.Lock()
		d.dropped++
		n := d.dropped
		d.mu.Unlock()
		slog.Warn("notification dropped, buffer full",
			"kind", ev.Kind,
			"order_number", ev.OrderNumber,
			"dropped_total", n,
		)
	}
}

func (d *Dispatcher) Dropped() int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dropped
}

// Close закрывает очередь и дожидается, пока воркер дольёт остаток.
func (d *Dispatcher) Close() {
	d.once.Do(func() { close(d.ch) })
	d.wg.Wait()
}

func (d *Dispatcher) publish(ev messages.OrderNotification) {
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	if err := d.pub.PublishOrderNotification(ctx, ev); err != nil {
		slog.Error("publish notification",
			"kind", ev.Kind,
			"order_number", ev.OrderNumber,
			"error", err.Error(),
		)
	}
}
