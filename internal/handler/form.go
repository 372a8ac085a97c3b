package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

// signUpForm はPOST /signupのフォーム入力。
// パスワード上限はbcryptの入力上限（password.MaxBytes）に合わせてバイト数で検証する。
type signUpForm struct {
	Fullname string `validate:"required,max=255"`
	Email    string `validate:"required,email,max=255"`
	Password string `validate:"required,min=8,maxbytes=72"`
}

// signInForm はPOST /signinのフォーム入力。
type signInForm struct {
	Email    string `validate:"required,email,max=255"`
	Password string `validate:"required,maxbytes=72"`
}

var validate = newValidator()

// newValidator はmaxbytesタグを登録したvalidatorを返す。
// 組み込みのmaxは文字数を数えるため、バイト数の上限にはmaxbytesを使う。
func newValidator() *validator.Validate {
	v := validator.New()
	if err := v.RegisterValidation("maxbytes", validateMaxBytes); err != nil {
		panic(fmt.Sprintf("failed to register maxbytes validation: %v", err))
	}
	return v
}

func validateMaxBytes(fl validator.FieldLevel) bool {
	limit, err := strconv.Atoi(fl.Param())
	if err != nil {
		return false
	}
	return len(fl.Field().String()) <= limit
}

func parseSignUpForm(r *http.Request) (signUpForm, error) {
	if err := r.ParseForm(); err != nil {
		return signUpForm{}, fmt.Errorf("failed to parse form: %w", err)
	}
	return signUpForm{
		Fullname: strings.TrimSpace(r.PostForm.Get("fullname")),
		Email:    strings.TrimSpace(r.PostForm.Get("email")),
		Password: r.PostForm.Get("password"),
	}, nil
}

func parseSignInForm(r *http.Request) (signInForm, error) {
	if err := r.ParseForm(); err != nil {
		return signInForm{}, fmt.Errorf("failed to parse form: %w", err)
	}
	return signInForm{
		Email:    strings.TrimSpace(r.PostForm.Get("email")),
		Password: r.PostForm.Get("password"),
	}, nil
}

// validationMessages はフォームの検証エラーを表示用メッセージに変換する。
// 検証に成功した場合はnilを返す。
func validationMessages(form any) []string {
	err := validate.Struct(form)
	if err == nil {
		return nil
	}

	errs, ok := err.(validator.ValidationErrors)
	if !ok {
		return []string{"invalid input"}
	}

	messages := make([]string, 0, len(errs))
	for _, e := range errs {
		field := strings.ToLower(e.Field())
		switch e.Tag() {
		case "required":
			messages = append(messages, fmt.Sprintf("The %s field is required.", field))
		case "email":
			messages = append(messages, fmt.Sprintf("The %s field must be a valid email address.", field))
		case "min":
			messages = append(messages, fmt.Sprintf("The %s field must be at least %s characters long.", field, e.Param()))
		case "max":
			messages = append(messages, fmt.Sprintf("The %s field may not be greater than %s characters.", field, e.Param()))
		case "maxbytes":
			messages = append(messages, fmt.Sprintf("The %s field may not be greater than %s bytes.", field, e.Param()))
		default:
			messages = append(messages, fmt.Sprintf("The %s field is invalid.", field))
		}
	}
	return messages
}
