package config

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"

	apperrors "github.com/darkkaiser/resale-watcher/internal/pkg/errors"
	"github.com/go-playground/validator/v10"
)

// validate is the validator instance shared by every configuration check.
var validate = newValidator()

// telegramBotTokenRegex matches a Telegram bot token
// (e.g. 123456:ABC-DEF1234ghIkl-zyx57W2v1u123ew11).
var telegramBotTokenRegex = regexp.MustCompile(`^\d{3,20}:[a-zA-Z0-9_-]{30,50}$`)

// newValidator builds a validator instance with the custom checks registered.
func newValidator() *validator.Validate {
	v := validator.New()

	// Report JSON names (e.g. bot_token) instead of Go field names
	// (e.g. BotToken) in validation error messages.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	if err := v.RegisterValidation("telegram_bot_token", validateTelegramBotToken); err != nil {
		panic(fmt.Sprintf("fatal initialization error: failed to register the 'telegram_bot_token' validation: %v", err))
	}

	return v
}

// validateTelegramBotToken reports whether the field holds a string in the
// Telegram bot token format: a numeric identifier and a secret separated by
// a colon.
func validateTelegramBotToken(fl validator.FieldLevel) bool {
	return telegramBotTokenRegex.MatchString(fl.Field().String())
}

// checkStruct validates a structure and converts the first validator error
// into a readable message scoped by contextName.
func checkStruct(s interface{}, contextName string) error {
	if err := validate.Struct(s); err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			firstErr := validationErrors[0]

			switch firstErr.Tag() {
			case "unique":
				return apperrors.New(apperrors.InvalidInput, fmt.Sprintf("%s contains a duplicate value in '%s': '%v'", contextName, firstErr.Field(), firstErr.Value()))
			case "telegram_bot_token":
				return apperrors.New(apperrors.InvalidInput, fmt.Sprintf("%s has a malformed bot token(%s); the expected format is '<digits>:<secret>'", contextName, firstErr.Field()))
			}

			return apperrors.New(apperrors.InvalidInput, fmt.Sprintf("%s has an invalid setting: %s (constraint: %s)", contextName, firstErr.Field(), firstErr.Tag()))
		}
		return apperrors.Wrap(err, apperrors.InvalidInput, fmt.Sprintf("validation of %s failed", contextName))
	}
	return nil
}

// checkUniqueField verifies that a field is unique across a slice.
func checkUniqueField(data interface{}, fieldName, contextName string) error {
	if err := validate.Var(data, "unique="+fieldName); err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			for _, fieldErr := range validationErrors {
				if fieldErr.Tag() == "unique" {
					return apperrors.New(apperrors.InvalidInput, fmt.Sprintf("a duplicate %s ID exists: '%v'", contextName, fieldErr.Value()))
				}
			}
		}
		return apperrors.Wrap(err, apperrors.InvalidInput, fmt.Sprintf("uniqueness validation of %s failed", contextName))
	}
	return nil
}
