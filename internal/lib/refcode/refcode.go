// Package refcode генерирует реферальные коды пользователей.
package refcode

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// Len длина реферального кода в байтах до hex-кодирования.
const Len = 6

// Generate возвращает случайный реферальный код из 12 hex-символов.
// Уникальность обеспечивается ограничением в базе; при коллизии
// вызывающая сторона генерирует код повторно.
func Generate() (string, error) {
	const op = "refcode.Generate"
	buf := make([]byte, Len)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return hex.EncodeToString(buf), nil
}
