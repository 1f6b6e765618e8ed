package repository

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"

	"github.com/hitoshi/oralarith/internal/model"
)

// wrapErr はストレージ層のエラーに操作名を付与する。
// 接続断やタイムアウトなど到達性の問題はREPOSITORY_UNAVAILABLEとして返す。
func wrapErr(op string, err error) error {
	wrapped := fmt.Errorf("%s: %w", op, err)
	if isUnavailable(err) {
		return model.NewRepositoryUnavailableError(wrapped)
	}
	return wrapped
}

// isUnavailable はエラーがストレージへの到達不能を示すかを判定する。
func isUnavailable(err error) bool {
	if errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, sql.ErrConnDone) ||
		errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
