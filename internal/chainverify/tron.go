package chainverify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math/big"
	"net/http"
	"time"

	"github.com/magabrotheeeer/crypto-subscription-platform/internal/lib/sl"
)

// TronVerifier сверяет платёж через HTTP API эксплорера (TronGrid).
// Делает два последовательных запроса: статус транзакции и список
// её событий.
type TronVerifier struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	log        *slog.Logger
}

// NewTronVerifier создает верификатор для заданного базового URL.
// apiKey опционален и передается заголовком TRON-PRO-API-KEY.
func NewTronVerifier(baseURL, apiKey string, log *slog.Logger) *TronVerifier {
	return &TronVerifier{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		log:        log,
	}
}

type tronTxResponse struct {
	Ret []struct {
		ContractRet string `json:"contractRet"`
	} `json:"ret"`
}

type tronEventsResponse struct {
	Data []struct {
		EventName       string `json:"event_name"`
		ContractAddress string `json:"contract_address"`
		Result          struct {
			From  string `json:"from"`
			To    string `json:"to"`
			Value string `json:"value"`
		} `json:"result"`
	} `json:"data"`
}

// VerifyTransfer требует contractRet == SUCCESS и наличия события
// Transfer с точным совпадением контракта, отправителя, получателя и
// суммы. Любая ошибка HTTP или декодирования — неподтверждённый платёж.
func (v *TronVerifier) VerifyTransfer(ctx context.Context, req VerifyRequest) (bool, error) {
	const op = "chainverify.TronVerifier.VerifyTransfer"

	var tx tronTxResponse
	if ok := v.getJSON(ctx, fmt.Sprintf("%s/v1/transactions/%s", v.baseURL, req.TxHash), &tx); !ok {
		return false, nil
	}
	if len(tx.Ret) == 0 || tx.Ret[0].ContractRet != "SUCCESS" {
		v.log.Info("tron transaction not successful", sl.Op(op), slog.String("tx_hash", req.TxHash))
		return false, nil
	}

	var events tronEventsResponse
	if ok := v.getJSON(ctx, fmt.Sprintf("%s/v1/transactions/%s/events", v.baseURL, req.TxHash), &events); !ok {
		return false, nil
	}

	for _, ev := range events.Data {
		if ev.EventName != "Transfer" {
			continue
		}
		if ev.ContractAddress != req.TokenAddress {
			continue
		}
		if ev.Result.From != req.FromAddress || ev.Result.To != req.ToAddress {
			continue
		}
		value, ok := new(big.Int).SetString(ev.Result.Value, 10)
		if ok && value.Cmp(req.ExpectedAmount) == 0 {
			return true, nil
		}
	}
	return false, nil
}

func (v *TronVerifier) getJSON(ctx context.Context, url string, out any) bool {
	const op = "chainverify.TronVerifier.getJSON"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		v.log.Warn("failed to build explorer request", sl.Op(op), sl.Err(err))
		return false
	}
	if v.apiKey != "" {
		req.Header.Set("TRON-PRO-API-KEY", v.apiKey)
	}

	resp, err := v.httpClient.Do(req)
	if err != nil {
		v.log.Warn("explorer request failed", sl.Op(op), sl.Err(err))
		return false
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			v.log.Warn("failed to close explorer response", sl.Op(op), sl.Err(closeErr))
		}
	}()

	if resp.StatusCode != http.StatusOK {
		v.log.Warn("explorer returned unexpected status", sl.Op(op), slog.Int("status", resp.StatusCode))
		return false
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		v.log.Warn("failed to decode explorer response", sl.Op(op), sl.Err(err))
		return false
	}
	return true
}
