// Package cleanup は期限切れセッションの定期削除ジョブを提供する。
// セッションの検索は期限切れ行を無視するため、削除はストレージの回収のみを目的とする。
package cleanup

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hitoshi/linkman/internal/metrics"
)

// SessionPurger は期限切れセッションを削除し、削除件数を返すインターフェース。
type SessionPurger interface {
	DeleteExpired(ctx context.Context) (int64, error)
}

// Job は期限切れセッションの削除ジョブ。冪等で、削除対象がなくてもエラーにならない。
type Job struct {
	purger  SessionPurger
	logger  *slog.Logger
	metrics metrics.MetricsCollector
	now     func() time.Time
}

// NewJob はJobを生成する。collectorがnilの場合は記録しない。
func NewJob(purger SessionPurger, logger *slog.Logger, collector metrics.MetricsCollector) *Job {
	if collector == nil {
		collector = metrics.Nop{}
	}
	return &Job{
		purger:  purger,
		logger:  logger,
		metrics: collector,
		now:     time.Now,
	}
}

// Run は期限切れセッションを1回削除する。
func (j *Job) Run(ctx context.Context) error {
	start := j.now()

	n, err := j.purger.DeleteExpired(ctx)
	if err != nil {
		j.logger.Error("session cleanup failed", slog.String("error", err.Error()))
		return fmt.Errorf("failed to purge expired sessions: %w", err)
	}

	j.metrics.RecordSessionsPurged(n)
	j.logger.Info("session cleanup completed",
		slog.Int64("deleted_count", n),
		slog.Float64("duration_ms", float64(j.now().Sub(start).Milliseconds())),
	)
	return nil
}

// Start は起動直後に1回、以後interval間隔でRunを実行する。
// ctxがキャンセルされるまでブロックする。個々の失敗はログに記録して継続する。
func (j *Job) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	j.logger.Info("session cleanup started", slog.Duration("interval", interval))

	_ = j.Run(ctx)
	for {
		select {
		case <-ctx.Done():
			j.logger.Info("session cleanup stopped")
			return
		case <-ticker.C:
			_ = j.Run(ctx)
		}
	}
}
