package middleware

import (
	"net/http"

	"github.com/hitoshi/linkman/internal/model"
)

// Decision はアクセスガードの判定結果。
// Permitがfalseの場合、Redirectに遷移先が設定される。
type Decision struct {
	Permit   bool
	Redirect string
}

// AccessGuard は解決済みのセッション状態からアクセス可否を判定する。
type AccessGuard struct {
	signInPath string
	homePath   string
}

// NewAccessGuard はAccessGuardを生成する。
// signInPathは未認証時の遷移先、homePathは認証済みで匿名専用ページに来た場合の遷移先。
func NewAccessGuard(signInPath, homePath string) *AccessGuard {
	return &AccessGuard{signInPath: signInPath, homePath: homePath}
}

// RequireAuthenticated は匿名であればサインインページへのリダイレクトを返す。
func (g *AccessGuard) RequireAuthenticated(user *model.User) Decision {
	if user == nil {
		return Decision{Redirect: g.signInPath}
	}
	return Decision{Permit: true}
}

// RequireAnonymous は認証済みであればアプリケーションのホームへのリダイレクトを返す。
func (g *AccessGuard) RequireAnonymous(user *model.User) Decision {
	if user != nil {
		return Decision{Redirect: g.homePath}
	}
	return Decision{Permit: true}
}

// Authenticated は認証済みリクエストのみを通すミドルウェアを返す。
// SessionMiddlewareの後に配置すること。
func (g *AccessGuard) Authenticated() func(next http.Handler) http.Handler {
	return g.middleware(g.RequireAuthenticated)
}

// Anonymous は匿名リクエストのみを通すミドルウェアを返す。
func (g *AccessGuard) Anonymous() func(next http.Handler) http.Handler {
	return g.middleware(g.RequireAnonymous)
}

// AuthenticatedAPI はAPI向けの認証必須ミドルウェアを返す。
// リダイレクトの代わりに401の統一エラーレスポンスを返す。
func (g *AccessGuard) AuthenticatedAPI() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, _ := UserFromContext(r.Context())
			if !g.RequireAuthenticated(user).Permit {
				WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (g *AccessGuard) middleware(decide func(*model.User) Decision) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, _ := UserFromContext(r.Context())
			d := decide(user)
			if !d.Permit {
				http.Redirect(w, r, d.Redirect, http.StatusFound)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
