package app

// Command はoralarithバイナリのサブコマンド。
type Command string

const (
	CommandServe       Command = "serve"       // HTTP API
	CommandWorker      Command = "worker"      // 期限切れセッションの掃除
	CommandMigrate     Command = "migrate"     // スキーマ適用
	CommandHealthcheck Command = "healthcheck" // distrolessイメージ用の/healthプローブ
)

var knownCommands = map[string]Command{
	string(CommandServe):       CommandServe,
	string(CommandWorker):      CommandWorker,
	string(CommandMigrate):     CommandMigrate,
	string(CommandHealthcheck): CommandHealthcheck,
}

// ParseCommand は先頭の引数をサブコマンドとして解釈する。
// 引数なしはserve。未知のサブコマンドもserveとして扱い、okにfalseを返す。
func ParseCommand(args []string) (cmd Command, ok bool) {
	if len(args) == 0 {
		return CommandServe, true
	}
	if c, found := knownCommands[args[0]]; found {
		return c, true
	}
	return CommandServe, false
}
