package notify

import (
	"log/slog"
	"time"

	"github.com/lib/pq"
)

// pgChannel はサーバープッシュ通知用の論理チャンネル名。
// マイグレーションで作成されるトリガーが、追跡対象3テーブルの
// INSERT/UPDATE/DELETEごとにテーブル名をペイロードとしてNOTIFYする。
const pgChannel = "caresync_changes"

// PgListener はPostgreSQLのLISTEN/NOTIFYによるサーバープッシュ通知を購読する。
// リモートモードのNotifier実装。全テーブルの変更が単一チャンネルに集約される。
type PgListener struct {
	listener *pq.Listener
	hub      *Hub
	done     chan struct{}
}

// NewPgListener はdatabaseURLに対するリスナーを生成し、受信ループを開始する。
// 切断時はpq.Listenerが自動再接続する。再接続までの間に発生した変更は
// 失われうるため、再接続イベントでも1回通知して購読者に再フェッチさせる。
func NewPgListener(databaseURL string) (*PgListener, error) {
	hub := NewHub()
	done := make(chan struct{})

	listener := pq.NewListener(databaseURL, 2*time.Second, time.Minute,
		func(event pq.ListenerEventType, err error) {
			if err != nil {
				slog.Error("change listener event",
					slog.Int("event", int(event)),
					slog.String("error", err.Error()),
				)
			}
		},
	)

	if err := listener.Listen(pgChannel); err != nil {
		listener.Close()
		return nil, err
	}

	l := &PgListener{
		listener: listener,
		hub:      hub,
		done:     done,
	}

	go l.run()

	return l, nil
}

// run は受信ループ。通知のペイロード（テーブル名）をそのままHubに流す。
func (l *PgListener) run() {
	for {
		select {
		case <-l.done:
			return
		case n, ok := <-l.listener.Notify:
			if !ok {
				return
			}
			// nilは再接続直後に送られる。取りこぼしがありうるため全コレクションを通知する。
			if n == nil {
				l.hub.Publish(CollectionUsers)
				l.hub.Publish(CollectionElderly)
				l.hub.Publish(CollectionTasks)
				continue
			}
			l.hub.Publish(n.Extra)
		case <-time.After(90 * time.Second):
			// 長時間通知がない場合は接続の生存確認を行う
			go func() {
				if err := l.listener.Ping(); err != nil {
					slog.Error("change listener ping failed", slog.String("error", err.Error()))
				}
			}()
		}
	}
}

// Subscribe はコールバックを登録し、購読解除関数を返す。
func (l *PgListener) Subscribe(fn func(collection string)) func() {
	return l.hub.Subscribe(fn)
}

// SetRecorder は通知配信のメトリクス記録先を設定する。
func (l *PgListener) SetRecorder(rec NotificationRecorder) {
	l.hub.SetRecorder(rec)
}

// Close は受信ループを停止し、リスナー接続を閉じる。
func (l *PgListener) Close() error {
	close(l.done)
	return l.listener.Close()
}

var _ Notifier = (*PgListener)(nil)
var _ RecorderSetter = (*PgListener)(nil)
