// Package notify は「何かが変わった」ことを購読者に伝える変更通知を提供する。
//
// 通知はペイロードを運ばない。購読者は差分を受け取るのではなく、
// 通知を合図に再フェッチする。これにより順序保証やマージ処理が不要になる。
// 配信はat-least-once。同一の書き込みに対し複数回通知されることがある。
package notify

// Notifier は変更通知の購読インターフェース。
// Subscribeはコレクション名（users / elderly_profiles / tasks）を受け取るコールバックを
// 登録し、購読解除関数を返す。配信順序は保証されない。
type Notifier interface {
	Subscribe(fn func(collection string)) (unsubscribe func())
}

// NotificationRecorder は変更通知の配信をメトリクスとして記録する。
type NotificationRecorder interface {
	RecordNotification(collection string)
}

// RecorderSetter は通知メトリクスの記録先を起動時に差し込める実装。
// HubとPgListenerが実装する。
type RecorderSetter interface {
	SetRecorder(rec NotificationRecorder)
}

// Publisher は変更通知の発行インターフェース。
// ローカルモードではストアアダプタが書き込み成功ごとに発行する。
// リモートモードではデータベーストリガーが発行するため、アプリ側からは発行しない。
type Publisher interface {
	Publish(collection string)
}

// 通知対象のコレクション名。リモートモードではテーブル名と一致させる。
const (
	CollectionUsers   = "users"
	CollectionElderly = "elderly_profiles"
	CollectionTasks   = "tasks"
)
