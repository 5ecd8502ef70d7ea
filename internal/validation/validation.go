// Package validation проверяет входные данные HTTP-запросов.
package validation

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
)

// DateLayout задаёт формат дат во входных данных.
const DateLayout = "2006-01-02"

var (
	once     sync.Once
	validate *validator.Validate
)

func instance() *validator.Validate {
	once.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		_ = validate.RegisterValidation("date", func(fl validator.FieldLevel) bool {
			return IsValidDate(fl.Field().String())
		})
	})
	return validate
}

// IsValidDate проверяет, что строка является календарной датой в формате YYYY-MM-DD.
func IsValidDate(s string) bool {
	_, err := time.Parse(DateLayout, s)
	return err == nil
}

// Struct проверяет структуру по тегам validate и возвращает ошибку с перечнем
// неверных полей.
func Struct(v any) error {
	err := instance().Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fmt.Sprintf("%s: %s", fe.Field(), fe.Tag()))
	}
	return fmt.Errorf("invalid fields: %s", strings.Join(fields, ", "))
}
