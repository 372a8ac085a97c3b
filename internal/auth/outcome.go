package auth

import (
	"fmt"

	"github.com/hitoshi/linkman/internal/model"
)

// OutcomeKind は認証試行の結果の種別。
type OutcomeKind int

const (
	// OutcomeAuthenticated は認証に成功したことを表す。
	OutcomeAuthenticated OutcomeKind = iota + 1
	// OutcomeRejected は利用者が訂正可能な理由で認証を拒否したことを表す。
	OutcomeRejected
	// OutcomeError はストア障害などの基盤エラーを表す。
	OutcomeError
)

// String はメトリクスやログのラベルに使う文字列を返す。
func (k OutcomeKind) String() string {
	switch k {
	case OutcomeAuthenticated:
		return "authenticated"
	case OutcomeRejected:
		return "rejected"
	case OutcomeError:
		return "error"
	default:
		return "unknown"
	}
}

// RejectReason は認証拒否の理由。
// ログと監査のためだけに区別し、利用者には同一のメッセージを見せる。
type RejectReason string

const (
	ReasonNoSuchUser      RejectReason = "no_such_user"
	ReasonWrongCredential RejectReason = "wrong_credential"
)

// Outcome は認証試行の結果。Kindに応じてUser、Reason、Errのいずれかのみが設定される。
type Outcome struct {
	Kind   OutcomeKind
	User   *model.User
	Reason RejectReason
	Err    error
	// Created は認証の過程でユーザーを新規作成した場合にtrue。
	Created bool
}

// Authenticated は認証成功の結果を生成する。
func Authenticated(user *model.User) Outcome {
	return Outcome{Kind: OutcomeAuthenticated, User: user}
}

// Rejected は認証拒否の結果を生成する。
func Rejected(reason RejectReason) Outcome {
	return Outcome{Kind: OutcomeRejected, Reason: reason}
}

// Failed は基盤エラーの結果を生成する。
func Failed(err error) Outcome {
	return Outcome{Kind: OutcomeError, Err: err}
}

func (o Outcome) String() string {
	switch o.Kind {
	case OutcomeAuthenticated:
		return fmt.Sprintf("authenticated(%s)", o.User.ID)
	case OutcomeRejected:
		return fmt.Sprintf("rejected(%s)", o.Reason)
	case OutcomeError:
		return fmt.Sprintf("error(%v)", o.Err)
	default:
		return "unknown"
	}
}
