// Package watcher реализует живые подписки на коллекции документного хранилища.
//
// Watcher слушает ленту изменений хранилища и для каждой подписки держит
// актуальный снимок коллекции: колбэк получает полный список документов сразу
// после подписки и затем после каждого изменения коллекции. Подписок может
// быть сколько угодно, каждая освобождается своей функцией отписки.
package watcher

import (
	"context"
	"log/slog"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/magabrotheeeer/institute-app/internal/lib/sl"
	"github.com/magabrotheeeer/institute-app/internal/storage"
)

var activeSubscriptions = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "institute_watcher_active_subscriptions",
	Help: "Number of live collection subscriptions.",
})

// Snapshot — колбэк подписки: полный текущий список документов коллекции.
// Для одной подписки колбэки вызываются последовательно, из одной горутины.
type Snapshot func(docs []storage.Document)

type subscription struct {
	id         int
	collection string
	fn         Snapshot
}

// Watcher раздаёт снимки коллекций подписчикам.
type Watcher struct {
	store storage.Store
	log   *slog.Logger

	mu     sync.Mutex
	subs   map[int]*subscription
	nextID int

	cancel  context.CancelFunc
	done    chan struct{}
	started bool
}

// New создает Watcher поверх хранилища.
func New(store storage.Store, log *slog.Logger) *Watcher {
	return &Watcher{
		store: store,
		log:   log,
		subs:  make(map[int]*subscription),
	}
}

// Start запускает цикл прослушивания ленты изменений.
// Повторный запуск уже работающего Watcher — ошибка использования.
func (w *Watcher) Start(ctx context.Context) error {
	const op = "watcher.Start"

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.started {
		return nil
	}

	ctx, cancel := context.WithCancel(ctx)
	changes, err := w.store.Changes(ctx)
	if err != nil {
		cancel()
		return err
	}
	w.cancel = cancel
	w.done = make(chan struct{})
	w.started = true

	go w.run(ctx, changes)
	w.log.Info("collection watcher started", slog.String("op", op))
	return nil
}

// Close останавливает цикл и снимает все подписки.
func (w *Watcher) Close() {
	w.mu.Lock()
	if !w.started {
		w.mu.Unlock()
		return
	}
	cancel, done := w.cancel, w.done
	w.started = false
	for id := range w.subs {
		delete(w.subs, id)
		activeSubscriptions.Dec()
	}
	w.mu.Unlock()

	cancel()
	<-done
}

// Subscribe регистрирует подписку на коллекцию и немедленно доставляет
// текущий снимок. Возвращённая функция снимает подписку; после её вызова
// колбэк больше не вызывается.
func (w *Watcher) Subscribe(ctx context.Context, collection string, fn Snapshot) (func(), error) {
	const op = "watcher.Subscribe"

	docs, err := w.store.List(ctx, collection)
	if err != nil {
		return nil, err
	}

	w.mu.Lock()
	w.nextID++
	sub := &subscription{id: w.nextID, collection: collection, fn: fn}
	w.subs[sub.id] = sub
	w.mu.Unlock()
	activeSubscriptions.Inc()

	w.log.Info("subscribed", slog.String("op", op), sl.Collection(collection))

	// Первый снимок уходит до возврата, последующие — из цикла run.
	fn(docs)

	var once sync.Once
	unsubscribe := func() {
		once.Do(func() {
			w.mu.Lock()
			if _, ok := w.subs[sub.id]; ok {
				delete(w.subs, sub.id)
				activeSubscriptions.Dec()
			}
			w.mu.Unlock()
		})
	}
	return unsubscribe, nil
}

// run перечитывает коллекцию после каждого сигнала изменения и
// рассылает снимок всем её подписчикам.
func (w *Watcher) run(ctx context.Context, changes <-chan string) {
	const op = "watcher.run"
	defer close(w.done)

	for {
		select {
		case <-ctx.Done():
			return
		case collection, ok := <-changes:
			if !ok {
				return
			}
			w.fanOut(ctx, collection)
		}
	}
}

func (w *Watcher) fanOut(ctx context.Context, collection string) {
	const op = "watcher.fanOut"

	w.mu.Lock()
	var targets []*subscription
	for _, sub := range w.subs {
		if sub.collection == collection {
			targets = append(targets, sub)
		}
	}
	w.mu.Unlock()
	if len(targets) == 0 {
		return
	}

	docs, err := w.store.List(ctx, collection)
	if err != nil {
		w.log.Error("failed to refresh collection", slog.String("op", op),
			sl.Collection(collection), sl.Err(err))
		return
	}

	for _, sub := range targets {
		w.mu.Lock()
		_, alive := w.subs[sub.id]
		w.mu.Unlock()
		if alive {
			sub.fn(docs)
		}
	}
}
