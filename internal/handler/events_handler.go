package handler

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// ChangeSubscriber は変更通知の購読インターフェース。
// コールバックは変更のあったコレクション名を受け取る。
type ChangeSubscriber interface {
	SubscribeToChanges(fn func(collection string)) func()
}

// EventsHandler はServer-Sent Eventsで変更通知をクライアントへ配信する。
// イベントはコレクション名のみを運び、エンティティデータは含まない。
// クライアントは通知を合図に該当コレクションを再フェッチする。
type EventsHandler struct {
	subscriber ChangeSubscriber
	keepalive  time.Duration
}

// NewEventsHandler はEventsHandlerを生成する。
func NewEventsHandler(subscriber ChangeSubscriber) *EventsHandler {
	return &EventsHandler{
		subscriber: subscriber,
		keepalive:  25 * time.Second,
	}
}

// changeEvent はSSEのdataフィールドに載せるペイロード。
type changeEvent struct {
	Collection string `json:"collection"`
}

// Stream は変更通知のSSEストリームを開始する。
// GET /api/events
func (h *EventsHandler) Stream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	// 通知コールバックはnotifier側のゴルーチンから呼ばれるため、
	// チャネル経由でこのハンドラーのゴルーチンへ渡す。
	// 遅いクライアントでバッファが溢れた場合は通知を捨てる:
	// 配信はat-least-onceであり、後続の通知で再フェッチが起きる。
	events := make(chan string, 16)
	unsubscribe := h.subscriber.SubscribeToChanges(func(collection string) {
		select {
		case events <- collection:
		default:
		}
	})
	defer unsubscribe()

	ticker := time.NewTicker(h.keepalive)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case collection := <-events:
			data, err := json.Marshal(changeEvent{Collection: collection})
			if err != nil {
				slog.Error("failed to marshal change event", slog.String("error", err.Error()))
				continue
			}
			fmt.Fprintf(w, "event: change\ndata: %s\n\n", data)
			flusher.Flush()
		case <-ticker.C:
			// 接続維持のためのコメント行
			fmt.Fprint(w, ": keepalive\n\n")
			flusher.Flush()
		}
	}
}
