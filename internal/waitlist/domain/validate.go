package domain

import (
	"errors"
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	// MinNameRunes is the shortest accepted name.
	MinNameRunes = 2
	// MaxDescriptionRunes caps the free-text expectations field.
	MaxDescriptionRunes = 500
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// FieldKind identifies which per-field rule applies.
type FieldKind string

const (
	FieldName        FieldKind = "name"
	FieldEmail       FieldKind = "email"
	FieldDescription FieldKind = "description"
	FieldOther       FieldKind = ""
)

// FieldResult is the outcome of validating a single input.
type FieldResult struct {
	Valid   bool
	Message string
}

const (
	msgFieldName        = "Имя должно содержать минимум 2 символа"
	msgFieldEmail       = "Введите корректный email"
	msgFieldDescription = "Описание не должно превышать 500 символов"

	msgFormRole  = "Пожалуйста, выберите вашу роль (Студент, Родитель или Компания)"
	msgFormName  = "Пожалуйста, укажите ваше имя (минимум 2 символа)"
	msgFormEmail = "Пожалуйста, укажите корректный email"
	msgFormHuman = "Пожалуйста, подтвердите, что вы не робот"
	msgFormBot   = "Проверка на бота не пройдена. Пожалуйста, попробуйте еще раз."
)

// ValidateField applies the inline rule for kind to the trimmed value.
func ValidateField(kind FieldKind, value string) FieldResult {
	value = strings.TrimSpace(value)
	switch kind {
	case FieldEmail:
		if !IsEmail(value) {
			return FieldResult{Message: msgFieldEmail}
		}
	case FieldName:
		if utf8.RuneCountInString(value) < MinNameRunes {
			return FieldResult{Message: msgFieldName}
		}
	case FieldDescription:
		if utf8.RuneCountInString(value) > MaxDescriptionRunes {
			return FieldResult{Message: msgFieldDescription}
		}
	}
	return FieldResult{Valid: true}
}

// IsEmail reports whether value has the local@domain.tld shape.
func IsEmail(value string) bool {
	return emailPattern.MatchString(value)
}

// FormError is a whole-form failure. Message is shown to the visitor verbatim.
type FormError struct {
	Field   string
	Message string
	err     error
}

func (e *FormError) Error() string {
	return e.Message
}

func (e *FormError) Unwrap() error {
	return e.err
}

var (
	// ErrInvalidForm is wrapped by every validation FormError.
	ErrInvalidForm = errors.New("invalid form")
	// ErrBotDetected is wrapped by the FormError returned for rejected bots.
	ErrBotDetected = errors.New("bot detected")
)

func formError(field, message string) *FormError {
	return &FormError{Field: field, Message: message, err: ErrInvalidForm}
}

// BotError is the FormError reported when the bot filter rejects a record.
func BotError() *FormError {
	return &FormError{Field: "human", Message: msgFormBot, err: ErrBotDetected}
}

// ValidateForm runs the submit-time checks in the order the form reports them.
func ValidateForm(input FormInput) error {
	if _, ok := ParseRole(input.Role); !ok {
		return formError("role", msgFormRole)
	}
	if !ValidateField(FieldName, input.Name).Valid {
		return formError("name", msgFormName)
	}
	if !ValidateField(FieldEmail, input.Email).Valid {
		return formError("email", msgFormEmail)
	}
	if res := ValidateField(FieldDescription, input.Description); !res.Valid {
		return formError("description", res.Message)
	}
	if !input.Human {
		return formError("human", msgFormHuman)
	}
	return nil
}
