package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"

	"github.com/hitoshi/linkman/internal/auth"
	"github.com/hitoshi/linkman/internal/model"
)

// --- モック定義 ---

type mockAuthService struct {
	getLoginURLFn    func(state string) string
	signUpFn         func(ctx context.Context, in auth.SignUpInput) (*model.Session, error)
	signInFn         func(ctx context.Context, email, password string) (*model.Session, error)
	handleCallbackFn func(ctx context.Context, code string) (*model.Session, error)
	logoutFn         func(ctx context.Context, sessionID string) error

	signUpCalls int
	signInCalls int
	callbacks   int
}

func (m *mockAuthService) GetLoginURL(state string) string {
	if m.getLoginURLFn != nil {
		return m.getLoginURLFn(state)
	}
	return "https://accounts.google.com/o/oauth2/auth?state=" + state
}

func (m *mockAuthService) SignUp(ctx context.Context, in auth.SignUpInput) (*model.Session, error) {
	m.signUpCalls++
	if m.signUpFn != nil {
		return m.signUpFn(ctx, in)
	}
	return &model.Session{ID: "session-signup"}, nil
}

func (m *mockAuthService) SignIn(ctx context.Context, email, password string) (*model.Session, error) {
	m.signInCalls++
	if m.signInFn != nil {
		return m.signInFn(ctx, email, password)
	}
	return &model.Session{ID: "session-signin"}, nil
}

func (m *mockAuthService) HandleCallback(ctx context.Context, code string) (*model.Session, error) {
	m.callbacks++
	if m.handleCallbackFn != nil {
		return m.handleCallbackFn(ctx, code)
	}
	return &model.Session{ID: "session-oauth"}, nil
}

func (m *mockAuthService) Logout(ctx context.Context, sessionID string) error {
	if m.logoutFn != nil {
		return m.logoutFn(ctx, sessionID)
	}
	return nil
}

// memoryFlash はリクエストをまたいでメッセージを保持するFlashMessenger。
type memoryFlash struct {
	mu       sync.Mutex
	messages []string
	addErr   error
}

func (f *memoryFlash) Add(w http.ResponseWriter, r *http.Request, message string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.addErr != nil {
		return f.addErr
	}
	f.messages = append(f.messages, message)
	return nil
}

func (f *memoryFlash) Pop(w http.ResponseWriter, r *http.Request) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := f.messages
	f.messages = nil
	if out == nil {
		out = []string{}
	}
	return out, nil
}

type mockUserService struct {
	withdrawFn func(ctx context.Context, userID string) error
}

func (m *mockUserService) Withdraw(ctx context.Context, userID string) error {
	if m.withdrawFn != nil {
		return m.withdrawFn(ctx, userID)
	}
	return nil
}

// --- ヘルパー ---

func postForm(path string, values url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func findCookie(resp *http.Response, name string) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

var (
	_ AuthServiceInterface = (*mockAuthService)(nil)
	_ FlashMessenger       = (*memoryFlash)(nil)
	_ UserServiceInterface = (*mockUserService)(nil)
)
