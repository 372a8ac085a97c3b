// Package password はパスワードの一方向ハッシュ化と検証を提供する。
package password

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// MaxBytes はbcryptが扱える平文の最大バイト数。
// 文字数ではなくUTF-8のバイト数で数える。
const MaxBytes = 72

// ErrTooLong は平文がMaxBytesを超えていることを表す。
var ErrTooLong = errors.New("password exceeds 72 bytes")

// randomSecretBytes はOAuthユーザー用ランダム値のバイト長（160bit）。
const randomSecretBytes = 20

// Hasher はbcryptによるパスワードハッシャー。
// ゴルーチン間で共有して安全に使用できる。
type Hasher struct {
	cost int
}

// NewHasher はHasherを生成する。
// costがbcryptの許容範囲外の場合はbcrypt.DefaultCostを使用する。
func NewHasher(cost int) *Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Hasher{cost: cost}
}

// Hash は平文をソルト付きでハッシュ化する。
// 同じ平文でも呼び出しごとに異なるダイジェストを返す。
func (h *Hasher) Hash(plaintext string) (string, error) {
	if len(plaintext) > MaxBytes {
		return "", fmt.Errorf("failed to hash password: %w", ErrTooLong)
	}
	digest, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(digest), nil
}

// Verify は平文がダイジェストの元の入力であるかを検証する。
// 比較は定数時間で行われる。不正な形式のダイジェストはfalseとして扱う。
// bcryptは先頭72バイトしか比較しないため、Hashが受け付けない長さの平文は常にfalseとする。
func (h *Hasher) Verify(plaintext, digest string) bool {
	if digest == "" || len(plaintext) > MaxBytes {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plaintext)) == nil
}

// RandomSecret は暗号的に安全な160bitのランダム値を16進文字列で返す。
// OAuthで作成したアカウントの利用者に公開しないパスワード元値として使う。
func RandomSecret() (string, error) {
	b := make([]byte, randomSecretBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate random secret: %w", err)
	}
	return hex.EncodeToString(b), nil
}
