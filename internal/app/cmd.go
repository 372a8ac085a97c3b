package app

// Command はlinkmanバイナリのサブコマンド。
type Command string

const (
	CommandServe   Command = "serve"   // HTTPサーバー（既定）
	CommandWorker  Command = "worker"  // 期限切れセッションの定期削除
	CommandMigrate Command = "migrate" // users/identities/sessionsのマイグレーション適用
	// CommandHealthcheck はdistrolessイメージのHEALTHCHECKから呼ばれる。
	// シェルがないため、バイナリ自身が/healthを叩く。
	CommandHealthcheck Command = "healthcheck"
)

var commands = map[string]Command{
	string(CommandServe):       CommandServe,
	string(CommandWorker):      CommandWorker,
	string(CommandMigrate):     CommandMigrate,
	string(CommandHealthcheck): CommandHealthcheck,
}

// ParseCommand は先頭の引数をサブコマンドとして解釈する。
// 省略時と未知の値はserveとする。2番目以降の引数は見ない。
func ParseCommand(args []string) Command {
	if len(args) == 0 {
		return CommandServe
	}
	if cmd, ok := commands[args[0]]; ok {
		return cmd
	}
	return CommandServe
}
