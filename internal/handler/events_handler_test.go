package handler

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
)

// --- モック定義 ---

// fakeChangeSubscriber はChangeSubscriberのモック実装。
// 登録されたコールバックを保持し、テストから任意のタイミングで発火できる。
type fakeChangeSubscriber struct {
	mu           sync.Mutex
	callback     func(collection string)
	unsubscribed bool
}

func (f *fakeChangeSubscriber) SubscribeToChanges(fn func(collection string)) func() {
	f.mu.Lock()
	f.callback = fn
	f.mu.Unlock()
	return func() {
		f.mu.Lock()
		f.unsubscribed = true
		f.mu.Unlock()
	}
}

func (f *fakeChangeSubscriber) fire(collection string) {
	f.mu.Lock()
	fn := f.callback
	f.mu.Unlock()
	if fn != nil {
		fn(collection)
	}
}

func (f *fakeChangeSubscriber) subscribed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.callback != nil
}

func (f *fakeChangeSubscriber) isUnsubscribed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.unsubscribed
}

// sseRecorder はストリーミング応答をゴルーチン越しに安全へ読み出すための
// http.ResponseWriter実装。httptest.ResponseRecorderはハンドラーの書き込みと
// テスト側の読み出しを並行に行えないため使えない。
type sseRecorder struct {
	mu         sync.Mutex
	header     http.Header
	buf        bytes.Buffer
	statusCode int
}

func newSSERecorder() *sseRecorder {
	return &sseRecorder{header: make(http.Header)}
}

func (r *sseRecorder) Header() http.Header {
	return r.header
}

func (r *sseRecorder) Write(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.buf.Write(p)
}

func (r *sseRecorder) WriteHeader(statusCode int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statusCode = statusCode
}

func (r *sseRecorder) Flush() {}

func (r *sseRecorder) body() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.buf.String()
}

func (r *sseRecorder) status() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.statusCode
}

// waitUntil は条件が真になるまで最大2秒ポーリングするヘルパー。
func waitUntil(t *testing.T, cond func() bool, message string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal(message)
}

// --- GET /api/events テスト ---

func TestEventsHandler_Stream_DeliversChangeEvents(t *testing.T) {
	subscriber := &fakeChangeSubscriber{}
	h := NewEventsHandler(subscriber)

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, "/api/events", nil).WithContext(ctx)
	w := newSSERecorder()

	done := make(chan struct{})
	go func() {
		defer close(done)
		h.Stream(w, req)
	}()

	waitUntil(t, subscriber.subscribed, "subscription not registered")

	subscriber.fire("tasks")
	waitUntil(t, func() bool {
		return strings.Contains(w.body(), `data: {"collection":"tasks"}`)
	}, "change event not delivered")

	subscriber.fire("elderly_profiles")
	waitUntil(t, func() bool {
		return strings.Contains(w.body(), `data: {"collection":"elderly_profiles"}`)
	}, "second change event not delivered")

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("handler did not return after context cancel")
	}

	if w.status() != http.StatusOK {
		t.Errorf("status = %d, want %d", w.status(), http.StatusOK)
	}
	if got := w.Header().Get("Content-Type"); got != "text/event-stream" {
		t.Errorf("Content-Type = %q, want %q", got, "text/event-stream")
	}
	if got := w.Header().Get("Cache-Control"); got != "no-cache" {
		t.Errorf("Cache-Control = %q, want %q", got, "no-cache")
	}

	// イベント名が付与され、ペイロードはコレクション名のみであること
	if !strings.Contains(w.body(), "event: change\n") {
		t.Errorf("body missing event field: %s", w.body())
	}
}

func TestEventsHandler_Stream_UnsubscribesOnDisconnect(t *testing.T) {
	subscriber := &fakeChangeSubscriber{}
	h := NewEventsHandler(subscriber)

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, "/api/events", nil).WithContext(ctx)
	w := newSSERecorder()

	done := make(chan struct{})
	go func() {
		defer close(done)
		h.Stream(w, req)
	}()

	waitUntil(t, subscriber.subscribed, "subscription not registered")

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("handler did not return after context cancel")
	}

	if !subscriber.isUnsubscribed() {
		t.Error("expected unsubscribe on client disconnect")
	}
}

func TestEventsHandler_Stream_SendsKeepalive(t *testing.T) {
	subscriber := &fakeChangeSubscriber{}
	h := NewEventsHandler(subscriber)
	h.keepalive = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/api/events", nil).WithContext(ctx)
	w := newSSERecorder()

	done := make(chan struct{})
	go func() {
		defer close(done)
		h.Stream(w, req)
	}()

	waitUntil(t, func() bool {
		return strings.Contains(w.body(), ": keepalive")
	}, "keepalive comment not sent")

	cancel()
	<-done
}

func TestEventsHandler_Stream_StreamingUnsupported(t *testing.T) {
	h := NewEventsHandler(&fakeChangeSubscriber{})

	req := httptest.NewRequest(http.MethodGet, "/api/events", nil)
	w := &nonFlushingWriter{header: make(http.Header)}

	h.Stream(w, req)

	if w.statusCode != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", w.statusCode, http.StatusInternalServerError)
	}
}

// nonFlushingWriter はhttp.Flusherを実装しないResponseWriter。
type nonFlushingWriter struct {
	header     http.Header
	statusCode int
}

func (w *nonFlushingWriter) Header() http.Header { return w.header }

func (w *nonFlushingWriter) Write(p []byte) (int, error) { return len(p), nil }

func (w *nonFlushingWriter) WriteHeader(statusCode int) { w.statusCode = statusCode }
