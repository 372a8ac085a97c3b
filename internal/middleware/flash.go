package middleware

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gorilla/sessions"
)

const (
	flashSessionName = "linkman_flash"
	flashMaxAge      = 300
)

// FlashStore はリダイレクト後に一度だけ表示するメッセージを署名付きCookieで保持する。
type FlashStore struct {
	store *sessions.CookieStore
}

// NewFlashStore はFlashStoreを生成する。secretはCookieの署名鍵。
func NewFlashStore(secret []byte, secure bool, domain string) *FlashStore {
	store := sessions.NewCookieStore(secret)
	store.Options = &sessions.Options{
		Path:     "/",
		Domain:   domain,
		MaxAge:   flashMaxAge,
		Secure:   secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	return &FlashStore{store: store}
}

// Add はメッセージを追加する。レスポンスヘッダーを書き込む前に呼び出すこと。
func (f *FlashStore) Add(w http.ResponseWriter, r *http.Request, message string) error {
	session := f.session(r)
	session.AddFlash(message)
	if err := session.Save(r, w); err != nil {
		return fmt.Errorf("failed to save flash: %w", err)
	}
	return nil
}

// Pop は保持しているメッセージを取り出して消去する。
func (f *FlashStore) Pop(w http.ResponseWriter, r *http.Request) ([]string, error) {
	session := f.session(r)
	flashes := session.Flashes()
	if len(flashes) == 0 {
		return []string{}, nil
	}
	if err := session.Save(r, w); err != nil {
		return nil, fmt.Errorf("failed to clear flash: %w", err)
	}

	messages := make([]string, 0, len(flashes))
	for _, v := range flashes {
		if s, ok := v.(string); ok {
			messages = append(messages, s)
		}
	}
	return messages, nil
}

// session は署名検証に失敗したCookieを破棄し、空のセッションを返す。
func (f *FlashStore) session(r *http.Request) *sessions.Session {
	session, err := f.store.Get(r, flashSessionName)
	if err != nil {
		slog.Warn("discarding invalid flash cookie", slog.String("error", err.Error()))
	}
	return session
}
