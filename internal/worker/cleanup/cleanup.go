// Package cleanup は期限切れセッションの自動削除ジョブを提供する。
// 有効期間を超過したセッション行を日次バッチで削除する。
// Cookieの期限は切れてもサーバー側の行は残るため、定期的な掃除が必要になる。
// リモートモード専用（ローカルモードのセッションはファイルと共に破棄される）。
package cleanup

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"
)

// Executor はSQLのExecContextを抽象化するインターフェース。
// *sql.DB や *sql.Tx を受け付けることができる。
type Executor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// SessionCleanupJob は期限切れセッションの自動削除ジョブ。
// 日次実行のバッチジョブとして設計されており、冪等な削除処理を保証する。
type SessionCleanupJob struct {
	db     Executor
	logger *slog.Logger
	MaxAge time.Duration // セッションの有効期間
}

// NewSessionCleanupJob は新しいSessionCleanupJobを生成する。
// maxAgeSecondsはセッションの有効期間（秒）を指定する。
func NewSessionCleanupJob(db Executor, logger *slog.Logger, maxAgeSeconds int) *SessionCleanupJob {
	return &SessionCleanupJob{
		db:     db,
		logger: logger,
		MaxAge: time.Duration(maxAgeSeconds) * time.Second,
	}
}

// Run は有効期間を超過したセッションを削除する。
// created_atがMaxAgeより古い行をDELETEする。
// 冪等: 削除対象がない場合でもエラーにならない。
func (j *SessionCleanupJob) Run(ctx context.Context) error {
	start := time.Now()

	interval := fmt.Sprintf("%d seconds", int(j.MaxAge.Seconds()))

	query := `DELETE FROM sessions WHERE created_at < now() - $1::interval`
	result, err := j.db.ExecContext(ctx, query, interval)
	if err != nil {
		j.logger.Error("セッションクリーンアップジョブの実行に失敗しました",
			slog.String("error", err.Error()),
			slog.Duration("max_age", j.MaxAge),
		)
		return fmt.Errorf("セッションクリーンアップの実行に失敗: %w", err)
	}

	deletedCount, err := result.RowsAffected()
	if err != nil {
		j.logger.Error("削除件数の取得に失敗しました",
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("削除件数の取得に失敗: %w", err)
	}

	duration := time.Since(start)
	j.logger.Info("セッションクリーンアップジョブが完了しました",
		slog.Int64("deleted_count", deletedCount),
		slog.Duration("max_age", j.MaxAge),
		slog.Float64("duration_ms", float64(duration.Milliseconds())),
	)

	return nil
}

// Start は日次でRunを繰り返し実行する。起動直後に1回実行し、
// 以降は24時間ごとに実行する。ctxのキャンセルで停止する。
func (j *SessionCleanupJob) Start(ctx context.Context) {
	if err := j.Run(ctx); err != nil {
		j.logger.Error("session cleanup failed", slog.String("error", err.Error()))
	}

	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := j.Run(ctx); err != nil {
				j.logger.Error("session cleanup failed", slog.String("error", err.Error()))
			}
		}
	}
}
