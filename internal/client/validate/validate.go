// Package validate checks user input before it is sent to the backend.
// Failures are *Error values whose text is shown to the user as is.
package validate

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/dmitrijs2005/cuponcode/internal/common"
	"github.com/go-playground/validator/v10"
)

const (
	DefaultMinPasswordLength = 8
	DefaultOTPLength         = 6
	MinUsernameLength        = 3

	// msgTag names the struct tag holding the message for a failing field.
	msgTag = "msg"
)

// Error is a local validation failure.
type Error struct {
	Message string
}

func (e *Error) Error() string { return e.Message }

// Fail returns an *Error carrying msg.
func Fail(msg string) error {
	return &Error{Message: msg}
}

// IsError reports whether err is a local validation failure.
func IsError(err error) bool {
	var ve *Error
	return errors.As(err, &ve)
}

// Validator wraps go-playground/validator with the client's rules.
type Validator struct {
	v           *validator.Validate
	minPassword int
	otpLength   int
}

// New returns a Validator. Non-positive arguments fall back to the defaults.
func New(minPassword, otpLength int) *Validator {
	if minPassword <= 0 {
		minPassword = DefaultMinPasswordLength
	}
	if otpLength <= 0 {
		otpLength = DefaultOTPLength
	}

	v := validator.New(validator.WithRequiredStructEnabled())
	// "numeric" also accepts signs and decimals, an OTP is digits only
	_ = v.RegisterValidation("digits", func(fl validator.FieldLevel) bool {
		for _, r := range fl.Field().String() {
			if r < '0' || r > '9' {
				return false
			}
		}
		return true
	})

	return &Validator{v: v, minPassword: minPassword, otpLength: otpLength}
}

func (v *Validator) MinPasswordLength() int { return v.minPassword }
func (v *Validator) OTPLength() int         { return v.otpLength }

// Required fails with "Please fill in all fields" when any value is empty.
func (v *Validator) Required(values ...string) error {
	for _, s := range values {
		if v.v.Var(s, "required") != nil {
			return Fail(common.MsgFillAllFields)
		}
	}
	return nil
}

func (v *Validator) Email(email string) error {
	if v.v.Var(email, "required,email") != nil {
		return Fail(common.MsgInvalidEmail)
	}
	return nil
}

func (v *Validator) Username(username string) error {
	if v.v.Var(username, fmt.Sprintf("min=%d", MinUsernameLength)) != nil {
		return Fail(common.MsgUsernameTooShort)
	}
	return nil
}

func (v *Validator) Password(password string) error {
	if v.v.Var(password, fmt.Sprintf("min=%d", v.minPassword)) != nil {
		return Fail(common.PasswordTooShort(v.minPassword))
	}
	return nil
}

// Match fails with msg unless a and b are equal.
func (v *Validator) Match(a, b, msg string) error {
	if v.v.VarWithValue(a, b, "eqfield") != nil {
		return Fail(msg)
	}
	return nil
}

// OTP requires exactly OTPLength ASCII digits.
func (v *Validator) OTP(code string) error {
	if v.v.Var(code, fmt.Sprintf("len=%d,digits", v.otpLength)) != nil {
		return Fail(common.MsgIncompleteOTP)
	}
	return nil
}

// Struct validates s by its `validate` tags. The first failing field is
// reported with the text of its `msg` tag.
func (v *Validator) Struct(s any) error {
	err := v.v.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}

	fe := verrs[0]
	t := reflect.TypeOf(s)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if f, ok := t.FieldByName(fe.StructField()); ok {
		if msg := f.Tag.Get(msgTag); msg != "" {
			return Fail(msg)
		}
	}
	return Fail(fmt.Sprintf("%s is invalid", fe.Field()))
}
