// Package tokenamount конвертирует человекочитаемые десятичные суммы
// токенов в целые наименьшие единицы и обратно. Вся арифметика ведётся
// на math/big: плавающая точка при 6-18 знаках после запятой теряет
// точность и даёт ложные несовпадения при сверке платежей.
package tokenamount

import (
	"fmt"
	"math/big"
	"strings"
)

// ToSmallestUnit переводит десятичную строку в наименьшие единицы токена.
// Дробная часть дополняется нулями или усекается до decimals знаков.
func ToSmallestUnit(amount string, decimals int) (*big.Int, error) {
	const op = "tokenamount.ToSmallestUnit"
	if decimals < 0 {
		return nil, fmt.Errorf("%s: negative decimals %d", op, decimals)
	}
	s := strings.TrimSpace(amount)
	if s == "" || strings.HasPrefix(s, "-") {
		return nil, fmt.Errorf("%s: invalid amount %q", op, amount)
	}

	intPart, fracPart, _ := strings.Cut(s, ".")
	if intPart == "" {
		intPart = "0"
	}
	if len(fracPart) > decimals {
		fracPart = fracPart[:decimals]
	} else {
		fracPart += strings.Repeat("0", decimals-len(fracPart))
	}

	whole, ok := new(big.Int).SetString(intPart, 10)
	if !ok {
		return nil, fmt.Errorf("%s: invalid amount %q", op, amount)
	}
	pow := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	whole.Mul(whole, pow)

	if fracPart != "" {
		frac, ok := new(big.Int).SetString(fracPart, 10)
		if !ok {
			return nil, fmt.Errorf("%s: invalid amount %q", op, amount)
		}
		whole.Add(whole, frac)
	}
	return whole, nil
}

// FromSmallestUnit переводит наименьшие единицы обратно в каноническую
// десятичную строку без хвостовых нулей.
func FromSmallestUnit(value *big.Int, decimals int) string {
	if decimals <= 0 {
		return value.String()
	}
	pow := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	whole, frac := new(big.Int).QuoRem(value, pow, new(big.Int))

	fracStr := strings.TrimRight(fmt.Sprintf("%0*s", decimals, frac.String()), "0")
	if fracStr == "" {
		return whole.String()
	}
	return whole.String() + "." + fracStr
}

// AddressTopic формирует 32-байтовый топик лога из адреса:
// нижний регистр, без префикса 0x, слева дополнен нулями до 64 hex-символов.
// У адреса длиннее 64 символов остаются младшие 64: так такой адрес
// заведомо не совпадёт с настоящим топиком и сверка провалится.
func AddressTopic(address string) string {
	a := strings.TrimPrefix(strings.ToLower(address), "0x")
	if len(a) >= 64 {
		return "0x" + a[len(a)-64:]
	}
	return "0x" + strings.Repeat("0", 64-len(a)) + a
}
