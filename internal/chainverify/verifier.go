// Package chainverify подтверждает платежи по данным блокчейна.
//
// Платформа поддерживает две сети: EVM (скан логов ERC-20 Transfer по
// квитанции транзакции через JSON-RPC) и TRON (проверка статуса и
// событий TRC-20 через HTTP-эксплорер). Верификатор отвечает на один
// вопрос: был ли перевод ровно заявленной суммы токена с кошелька
// покупателя на адрес казначейства.
package chainverify

import (
	"context"
	"math/big"
)

// TransferTopic канонический топик события ERC-20 Transfer(address,address,uint256).
const TransferTopic = "0xddf252ad1be2c89b69c2b068fc378daa952ba7f163c4a11628f55a4df523b3ef"

// VerifyRequest параметры сверки платежа.
type VerifyRequest struct {
	TxHash         string
	TokenAddress   string
	FromAddress    string
	ToAddress      string
	ExpectedAmount *big.Int // В наименьших единицах токена, сравнение строгое
}

// Verifier подтверждает перевод токена по данным сети.
//
// Возвращаемое (false, nil) означает "платёж не подтверждён" независимо
// от причины: несовпадение данных и недоступность RPC/эксплорера для
// вызывающей стороны неразличимы, клиент в обоих случаях повторяет
// запрос с тем же хэшем.
type Verifier interface {
	VerifyTransfer(ctx context.Context, req VerifyRequest) (bool, error)
}
