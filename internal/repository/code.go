package repository

import "github.com/google/uuid"

const (
	confirmationAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	confirmationLength   = 8
	// maxCodeAttempts ограничивает число перегенераций кода при коллизии.
	maxCodeAttempts = 5
)

// newConfirmationCode возвращает код подтверждения из заглавных латинских букв и цифр.
func newConfirmationCode() string {
	id := uuid.New()
	code := make([]byte, confirmationLength)
	for i := range code {
		code[i] = confirmationAlphabet[int(id[i])%len(confirmationAlphabet)]
	}
	return string(code)
}
