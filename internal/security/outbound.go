// Package security はアプリケーションのセキュリティ機能を提供する。
package security

import (
	"net/http"
	"time"

	"github.com/doyensec/safeurl"
)

// NewOutboundClient はIdPなど外部サービスへの通信に使うHTTPクライアントを生成する。
// httpsの443番ポートのみ許可する。
// プライベートIP、ループバック、リンクローカル、メタデータIPへの接続は
// safeurlがDNS解決後のIPアドレスで検証してブロックする。
func NewOutboundClient(timeout time.Duration) *http.Client {
	config := safeurl.GetConfigBuilder().
		SetTimeout(timeout).
		SetAllowedSchemes("https").
		SetAllowedPorts(443).
		Build()

	return safeurl.Client(config).Client
}
