package chainverify

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/magabrotheeeer/crypto-subscription-platform/internal/lib/sl"
	"github.com/magabrotheeeer/crypto-subscription-platform/internal/lib/tokenamount"
)

// ReceiptFetcher часть ethclient.Client, нужная верификатору.
type ReceiptFetcher interface {
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
}

// EVMVerifier сверяет платёж по квитанции транзакции из JSON-RPC.
type EVMVerifier struct {
	client  ReceiptFetcher
	log     *slog.Logger
	timeout time.Duration
}

// NewEVMVerifier подключается к JSON-RPC провайдеру по rpcURL.
func NewEVMVerifier(rpcURL string, log *slog.Logger) (*EVMVerifier, error) {
	const op = "chainverify.NewEVMVerifier"
	client, err := ethclient.Dial(rpcURL)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return NewEVMVerifierWithClient(client, log), nil
}

// NewEVMVerifierWithClient создает верификатор поверх готового клиента.
func NewEVMVerifierWithClient(client ReceiptFetcher, log *slog.Logger) *EVMVerifier {
	return &EVMVerifier{
		client:  client,
		log:     log,
		timeout: 10 * time.Second,
	}
}

// VerifyTransfer получает квитанцию по хэшу, требует успешного статуса
// и ищет в логах событие Transfer с точным совпадением контракта,
// отправителя, получателя и суммы.
func (v *EVMVerifier) VerifyTransfer(ctx context.Context, req VerifyRequest) (bool, error) {
	const op = "chainverify.EVMVerifier.VerifyTransfer"
	ctx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	receipt, err := v.client.TransactionReceipt(ctx, common.HexToHash(req.TxHash))
	if err != nil {
		v.log.Warn("failed to fetch transaction receipt", sl.Op(op), sl.Err(err))
		return false, nil
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		v.log.Info("transaction not successful", sl.Op(op), slog.String("tx_hash", req.TxHash))
		return false, nil
	}

	return matchTransferLog(receipt.Logs, req), nil
}

// matchTransferLog ищет лог ERC-20 Transfer, точно совпадающий с запросом.
// Сумма сравнивается как целое число, допусков нет.
func matchTransferLog(logs []*types.Log, req VerifyRequest) bool {
	token := common.HexToAddress(req.TokenAddress)
	fromTopic := common.HexToHash(tokenamount.AddressTopic(req.FromAddress))
	toTopic := common.HexToHash(tokenamount.AddressTopic(req.ToAddress))

	for _, lg := range logs {
		if lg.Address != token {
			continue
		}
		if len(lg.Topics) < 3 {
			continue
		}
		if !strings.EqualFold(lg.Topics[0].Hex(), TransferTopic) {
			continue
		}
		if lg.Topics[1] != fromTopic || lg.Topics[2] != toTopic {
			continue
		}
		value := new(big.Int).SetBytes(lg.Data)
		if value.Cmp(req.ExpectedAmount) == 0 {
			return true
		}
	}
	return false
}
