// Package model はドメインモデルを定義する。
package model

import "time"

// User は認証可能な利用者を表す。
// IDはユーザー作成時に一度だけ採番され、以後変更されない。
type User struct {
	ID           string
	Email        string
	Fullname     string
	PasswordHash string
	// ProviderID は外部IdPのsubject ID。ローカル登録ユーザーでは空。
	ProviderID string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// HasProvider はユーザーが外部IdPに紐付いているかを返す。
func (u *User) HasProvider() bool {
	return u.ProviderID != ""
}

// Identity は外部IdPとの紐付け情報を表す。
// (provider, provider_user_id) は全ユーザーで一意。
type Identity struct {
	ID             string
	UserID         string
	Provider       string
	ProviderUserID string
	CreatedAt      time.Time
}

// Session はユーザーのログインセッションを表す。
// 永続化されるユーザー情報はUserIDのみで、その他の属性はリクエストごとに再取得する。
type Session struct {
	ID        string
	UserID    string
	ExpiresAt time.Time
	CreatedAt time.Time
}
