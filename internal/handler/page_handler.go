package handler

import (
	"log/slog"
	"net/http"

	"github.com/hitoshi/linkman/internal/middleware"
)

// pageResponse はビュー描画側に渡すページデータ。
type pageResponse struct {
	Page      string       `json:"page"`
	Messages  []string     `json:"messages"`
	CSRFToken string       `json:"csrf_token"`
	User      *userSummary `json:"user,omitempty"`
}

// PageHandler はサインイン、サインアップ、リンク一覧ページのデータを返す。
// HTMLの描画は行わない。
type PageHandler struct {
	flash FlashMessenger
}

// NewPageHandler はPageHandlerを生成する。
func NewPageHandler(flash FlashMessenger) *PageHandler {
	return &PageHandler{flash: flash}
}

// SignIn はサインインページのデータを返す。
// GET /signin
func (h *PageHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "signin")
}

// SignUp はサインアップページのデータを返す。
// GET /signup
func (h *PageHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "signup")
}

// Links はリンク一覧ページのデータを返す。認証済みユーザーのみ。
// GET /links
func (h *PageHandler) Links(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "links")
}

func (h *PageHandler) render(w http.ResponseWriter, r *http.Request, page string) {
	messages, err := h.flash.Pop(w, r)
	if err != nil {
		slog.Warn("failed to read flash messages", slog.String("error", err.Error()))
		messages = []string{}
	}

	resp := pageResponse{
		Page:      page,
		Messages:  messages,
		CSRFToken: middleware.CSRFToken(r.Context()),
	}
	if user, ok := middleware.UserFromContext(r.Context()); ok {
		summary := newUserSummary(user)
		resp.User = &summary
	}

	writeJSON(w, http.StatusOK, resp)
}
