package notify

import (
	"log/slog"
	"sync"
)

// Hub はプロセス内のブロードキャスト通知を提供する。
// ローカルモードのNotifier兼Publisher実装。
//
// 配信はfire-and-forget: 購読者ごとに独立したゴルーチンで配信するため、
// 1つの購読者の遅延やpanicが他の購読者や書き込み側の成功に影響しない。
type Hub struct {
	mu       sync.Mutex
	nextID   int
	subs     map[int]func(collection string)
	recorder NotificationRecorder
}

// NewHub はHubを生成する。
func NewHub() *Hub {
	return &Hub{
		subs: make(map[int]func(collection string)),
	}
}

// SetRecorder は通知配信のメトリクス記録先を設定する。
// 設定しない場合、配信は記録されない。
func (h *Hub) SetRecorder(rec NotificationRecorder) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.recorder = rec
}

// Subscribe はコールバックを登録し、購読解除関数を返す。
// 購読解除関数は複数回呼んでも安全。
func (h *Hub) Subscribe(fn func(collection string)) func() {
	h.mu.Lock()
	defer h.mu.Unlock()

	id := h.nextID
	h.nextID++
	h.subs[id] = fn

	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		delete(h.subs, id)
	}
}

// Publish は全購読者に変更を通知する。
// 各購読者への配信は非同期で行われ、Publish自体はブロックしない。
func (h *Hub) Publish(collection string) {
	h.mu.Lock()
	fns := make([]func(string), 0, len(h.subs))
	for _, fn := range h.subs {
		fns = append(fns, fn)
	}
	rec := h.recorder
	h.mu.Unlock()

	if rec != nil {
		rec.RecordNotification(collection)
	}

	for _, fn := range fns {
		go func(fn func(string)) {
			defer func() {
				if rec := recover(); rec != nil {
					slog.Error("change notification subscriber panicked",
						slog.Any("panic", rec),
						slog.String("collection", collection),
					)
				}
			}()
			fn(collection)
		}(fn)
	}
}

var _ Notifier = (*Hub)(nil)
var _ Publisher = (*Hub)(nil)
var _ RecorderSetter = (*Hub)(nil)
