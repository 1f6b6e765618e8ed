// Package cleanup は期限切れセッションの定期削除ジョブを提供する。
// セッションの有効性は検証時に有効期限で判定されるため、削除は容量管理のためだけに行う。
package cleanup

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/hitoshi/oralarith/internal/metrics"
)

// Executor はSQLのExecContextを抽象化するインターフェース。
// *sql.DB や *sql.Tx を受け付けることができる。
type Executor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// SessionSweeper は期限切れセッションの削除ジョブ。
// 冪等であり、削除対象がない場合や複数ワーカーからの同時実行でもエラーにならない。
type SessionSweeper struct {
	db      Executor
	logger  *slog.Logger
	metrics metrics.MetricsCollector
	now     func() time.Time
}

// NewSessionSweeper は新しいSessionSweeperを生成する。
func NewSessionSweeper(db Executor, logger *slog.Logger, mc metrics.MetricsCollector) *SessionSweeper {
	if mc == nil {
		mc = metrics.NopCollector{}
	}
	return &SessionSweeper{
		db:      db,
		logger:  logger,
		metrics: mc,
		now:     time.Now,
	}
}

// Run は期限切れのセッションを削除する。
// 検証側は now >= expiration で期限切れと判定するため、同じ境界で削除する。
func (s *SessionSweeper) Run(ctx context.Context) error {
	start := time.Now()
	cutoff := s.now().Unix()

	result, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE expiration <= $1`, cutoff)
	if err != nil {
		s.logger.Error("期限切れセッションの削除に失敗しました",
			slog.String("error", err.Error()),
			slog.Int64("cutoff", cutoff),
		)
		return fmt.Errorf("期限切れセッションの削除に失敗: %w", err)
	}

	deletedCount, err := result.RowsAffected()
	if err != nil {
		s.logger.Error("削除件数の取得に失敗しました",
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("削除件数の取得に失敗: %w", err)
	}

	s.metrics.RecordSessionsEvicted(deletedCount)

	s.logger.Info("期限切れセッションの削除が完了しました",
		slog.Int64("deleted_count", deletedCount),
		slog.Int64("cutoff", cutoff),
		slog.Float64("duration_ms", float64(time.Since(start).Milliseconds())),
	)

	return nil
}

// Start はintervalごとにRunを実行する。起動直後にも1回実行する。
// コンテキストがキャンセルされるまで実行を継続する。
func (s *SessionSweeper) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.logger.Info("セッションスイーパーを開始しました",
		slog.Duration("interval", interval),
	)

	// エラーはRun内でログ出力済みのため、ループは継続する
	_ = s.Run(ctx)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("セッションスイーパーを停止しました")
			return
		case <-ticker.C:
			_ = s.Run(ctx)
		}
	}
}
