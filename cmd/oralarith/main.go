// Command oralarith は暗算練習アプリのバックエンドを起動する。
//
// サブコマンド:
//
//	serve       APIサーバー（デフォルト）
//	worker      期限切れセッションの定期削除
//	migrate     データベースマイグレーションの適用
//	healthcheck /health への疎通確認（distrolessイメージ用）
package main

import (
	"fmt"
	"os"

	"github.com/hitoshi/oralarith/internal/app"
)

func main() {
	if err := app.Run(os.Stdout, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "oralarith: %v\n", err)
		os.Exit(1)
	}
}
