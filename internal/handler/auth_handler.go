// Package handler はHTTPハンドラーを提供する。
package handler

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"log/slog"
	"net/http"

	"github.com/hitoshi/linkman/internal/auth"
	"github.com/hitoshi/linkman/internal/middleware"
	"github.com/hitoshi/linkman/internal/model"
	"github.com/hitoshi/linkman/internal/password"
)

const (
	oauthStateCookie = "oauth_state"
	oauthStateMaxAge = 600 // 10分

	msgAccountExists      = "account already exists"
	msgInvalidCredentials = "invalid email or password"
	msgOAuthFailed        = "sign-in with Google failed"
	msgPasswordTooLong    = "The password field may not be greater than 72 bytes."
)

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	GetLoginURL(state string) string
	SignUp(ctx context.Context, in auth.SignUpInput) (*model.Session, error)
	SignIn(ctx context.Context, email, password string) (*model.Session, error)
	HandleCallback(ctx context.Context, code string) (*model.Session, error)
	Logout(ctx context.Context, sessionID string) error
}

// FlashMessenger はリダイレクト先で一度だけ表示するメッセージを保持する。
type FlashMessenger interface {
	Add(w http.ResponseWriter, r *http.Request, message string) error
	Pop(w http.ResponseWriter, r *http.Request) ([]string, error)
}

// AuthHandlerConfig は認証ハンドラーの設定。
type AuthHandlerConfig struct {
	CookieDomain  string
	CookieSecure  bool
	SessionMaxAge int // セッションCookieの有効期間（秒）

	LandingPath string // ログアウト後とOAuth失敗時の遷移先
	SignInPath  string
	SignUpPath  string
	HomePath    string // 認証成功時の遷移先
}

func (c AuthHandlerConfig) withDefaults() AuthHandlerConfig {
	if c.LandingPath == "" {
		c.LandingPath = "/"
	}
	if c.SignInPath == "" {
		c.SignInPath = "/signin"
	}
	if c.SignUpPath == "" {
		c.SignUpPath = "/signup"
	}
	if c.HomePath == "" {
		c.HomePath = "/links"
	}
	return c
}

// AuthHandler はサインアップ、サインイン、OAuth、ログアウトのHTTPハンドラー。
type AuthHandler struct {
	service AuthServiceInterface
	flash   FlashMessenger
	config  AuthHandlerConfig
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(service AuthServiceInterface, flash FlashMessenger, config AuthHandlerConfig) *AuthHandler {
	return &AuthHandler{
		service: service,
		flash:   flash,
		config:  config.withDefaults(),
	}
}

// SignUp はローカルユーザーを登録してログインさせる。
// POST /signup (fullname, email, password)
func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	form, err := parseSignUpForm(r)
	if err != nil {
		h.redirectWithFlash(w, r, h.config.SignUpPath, "invalid input")
		return
	}
	if messages := validationMessages(form); messages != nil {
		h.redirectWithFlash(w, r, h.config.SignUpPath, messages...)
		return
	}

	session, err := h.service.SignUp(r.Context(), auth.SignUpInput{
		Fullname: form.Fullname,
		Email:    form.Email,
		Password: form.Password,
	})
	if errors.Is(err, model.ErrEmailTaken) {
		h.redirectWithFlash(w, r, h.config.SignUpPath, msgAccountExists)
		return
	}
	if errors.Is(err, password.ErrTooLong) {
		h.redirectWithFlash(w, r, h.config.SignUpPath, msgPasswordTooLong)
		return
	}
	if err != nil {
		slog.Error("sign-up failed", slog.String("error", err.Error()))
		middleware.WriteInternalServerError(w)
		return
	}

	h.setSessionCookie(w, session.ID)
	http.Redirect(w, r, h.config.HomePath, http.StatusFound)
}

// SignIn はメールアドレスとパスワードで認証する。
// 拒否理由は区別せず同じメッセージを表示する。
// POST /signin (email, password)
func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	form, err := parseSignInForm(r)
	if err != nil || validationMessages(form) != nil {
		h.redirectWithFlash(w, r, h.config.SignInPath, msgInvalidCredentials)
		return
	}

	session, err := h.service.SignIn(r.Context(), form.Email, form.Password)
	if errors.Is(err, model.ErrInvalidCredentials) {
		h.redirectWithFlash(w, r, h.config.SignInPath, msgInvalidCredentials)
		return
	}
	if err != nil {
		slog.Error("sign-in failed", slog.String("error", err.Error()))
		middleware.WriteInternalServerError(w)
		return
	}

	h.setSessionCookie(w, session.ID)
	http.Redirect(w, r, h.config.HomePath, http.StatusFound)
}

// GoogleLogin はGoogle OAuthフローを開始する。
// GET /auth/google
func (h *AuthHandler) GoogleLogin(w http.ResponseWriter, r *http.Request) {
	state, err := generateState()
	if err != nil {
		slog.Error("failed to generate oauth state", slog.String("error", err.Error()))
		middleware.WriteInternalServerError(w)
		return
	}

	// stateをCookieに保存（CSRF対策）
	http.SetCookie(w, &http.Cookie{
		Name:     oauthStateCookie,
		Value:    state,
		Path:     "/",
		MaxAge:   oauthStateMaxAge,
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, h.service.GetLoginURL(state), http.StatusFound)
}

// GoogleCallback はOAuthコールバックを処理する。
// 同じメールアドレスのアカウントが既に存在する場合は自動連携せずサインインページに戻す。
// GET /auth/google/callback?code=xxx&state=yyy
func (h *AuthHandler) GoogleCallback(w http.ResponseWriter, r *http.Request) {
	state := r.URL.Query().Get("state")
	stateCookie, err := r.Cookie(oauthStateCookie)
	h.clearCookie(w, oauthStateCookie, "")
	if err != nil || state == "" || stateCookie.Value != state {
		slog.Warn("oauth state mismatch")
		http.Redirect(w, r, h.config.LandingPath, http.StatusFound)
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		slog.Warn("oauth callback without code",
			slog.String("oauth_error", r.URL.Query().Get("error")),
		)
		http.Redirect(w, r, h.config.LandingPath, http.StatusFound)
		return
	}

	session, err := h.service.HandleCallback(r.Context(), code)
	if errors.Is(err, model.ErrEmailTaken) {
		h.redirectWithFlash(w, r, h.config.SignInPath, msgAccountExists)
		return
	}
	if err != nil {
		slog.Error("oauth callback failed", slog.String("error", err.Error()))
		h.redirectWithFlash(w, r, h.config.LandingPath, msgOAuthFailed)
		return
	}

	h.setSessionCookie(w, session.ID)
	http.Redirect(w, r, h.config.HomePath, http.StatusFound)
}

// Logout はセッションを破棄する。
// GET /logout, POST /logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if sessionID := middleware.SessionIDFromRequest(r); sessionID != "" {
		if err := h.service.Logout(r.Context(), sessionID); err != nil {
			// ログアウト失敗してもCookieはクリアする
			slog.Error("failed to logout", slog.String("error", err.Error()))
		}
	}

	h.clearCookie(w, middleware.SessionCookieName, h.config.CookieDomain)
	http.Redirect(w, r, h.config.LandingPath, http.StatusFound)
}

// Me は現在のログインユーザー情報を返す。
// GET /auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}
	writeJSON(w, http.StatusOK, newUserSummary(user))
}

func (h *AuthHandler) redirectWithFlash(w http.ResponseWriter, r *http.Request, to string, messages ...string) {
	for _, msg := range messages {
		if err := h.flash.Add(w, r, msg); err != nil {
			slog.Error("failed to store flash message", slog.String("error", err.Error()))
			break
		}
	}
	http.Redirect(w, r, to, http.StatusFound)
}

func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, sessionID string) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    sessionID,
		Path:     "/",
		Domain:   h.config.CookieDomain,
		MaxAge:   h.config.SessionMaxAge,
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *AuthHandler) clearCookie(w http.ResponseWriter, name, domain string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		Domain:   domain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

// generateState はCSRF対策用のランダムなstate値を生成する。
func generateState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
