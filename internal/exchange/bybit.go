package exchange

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/shopspring/decimal"

	"github.com/cokechen1108-source/crypto-pnl/internal/models"
	"github.com/cokechen1108-source/crypto-pnl/pkg/ratelimit"
	"github.com/cokechen1108-source/crypto-pnl/pkg/retry"
)

const (
	bybitBaseURL    = "https://api.bybit.com"
	bybitRecvWindow = "5000"

	// Bybit v5 отдаёт торговую историю окнами не шире 7 суток
	bybitWindow = 7 * 24 * time.Hour

	bybitPageLimit = "100"
)

// json декодер для биржевых ответов; jsoniter заметно быстрее стандартного
// encoding/json на больших страницах истории
var jsonFast = jsoniter.ConfigCompatibleWithStandardLibrary

// Bybit реализует HistorySource для Bybit v5 (unified account, linear perpetuals)
type Bybit struct {
	apiKey    string
	secretKey string
	accountID string

	httpClient *http.Client
	limiter    *ratelimit.RateLimiter
}

// NewBybit создает новый источник истории Bybit.
// Использует глобальный HTTP клиент с connection pooling.
func NewBybit(accountID, apiKey, secretKey string) *Bybit {
	return &Bybit{
		apiKey:     apiKey,
		secretKey:  secretKey,
		accountID:  accountID,
		httpClient: GetGlobalHTTPClient().GetClient(),
		// лимит Bybit на приватные endpoint'ы истории - 10 rps
		limiter: ratelimit.New(8, 8),
	}
}

func (b *Bybit) Name() string {
	return models.ExchangeBybit
}

// sign создает подпись для запроса к Bybit API v5
func (b *Bybit) sign(timestamp string, params string) string {
	message := timestamp + b.apiKey + bybitRecvWindow + params
	h := hmac.New(sha256.New, []byte(b.secretKey))
	h.Write([]byte(message))
	return hex.EncodeToString(h.Sum(nil))
}

// doRequest выполняет подписанный GET запрос к Bybit API
func (b *Bybit) doRequest(ctx context.Context, endpoint string, params map[string]string) ([]byte, error) {
	if err := b.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	query := url.Values{}
	for k, v := range params {
		query.Set(k, v)
	}
	encoded := query.Encode()

	reqURL := bybitBaseURL + endpoint
	if encoded != "" {
		reqURL += "?" + encoded
	}

	var body []byte
	err := retry.Do(ctx, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return err
		}

		timestamp := strconv.FormatInt(time.Now().UnixMilli(), 10)
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-BAPI-API-KEY", b.apiKey)
		req.Header.Set("X-BAPI-SIGN", b.sign(timestamp, encoded))
		req.Header.Set("X-BAPI-TIMESTAMP", timestamp)
		req.Header.Set("X-BAPI-RECV-WINDOW", bybitRecvWindow)

		resp, err := b.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		body, err = io.ReadAll(resp.Body)
		if err != nil {
			return err
		}

		var baseResp struct {
			RetCode int    `json:"retCode"`
			RetMsg  string `json:"retMsg"`
		}
		if err := jsonFast.Unmarshal(body, &baseResp); err != nil {
			return err
		}
		if baseResp.RetCode != 0 {
			return &SourceError{
				Exchange: "bybit",
				Code:     strconv.Itoa(baseResp.RetCode),
				Message:  baseResp.RetMsg,
			}
		}
		return nil
	}, retry.NetworkConfig())
	if err != nil {
		return nil, err
	}

	return body, nil
}

// bybitExecution - одна запись из /v5/execution/list
type bybitExecution struct {
	ExecID      string `json:"execId"`
	Symbol      string `json:"symbol"`
	Side        string `json:"side"` // Buy, Sell
	OrderID     string `json:"orderId"`
	ExecPrice   string `json:"execPrice"`
	ExecQty     string `json:"execQty"`
	ExecFee     string `json:"execFee"`
	FeeCurrency string `json:"feeCurrency"`
	ExecTime    string `json:"execTime"` // миллисекунды
}

// FetchExecutions загружает филлы линейных перпетуалов начиная с since.
// История запрашивается окнами по 7 суток (ограничение Bybit), внутри
// окна - cursor-пагинация. Окна смежные, поэтому записи на границе
// дедуплицируются по execId.
func (b *Bybit) FetchExecutions(ctx context.Context, since time.Time, symbols []string) ([]*models.RawExecution, error) {
	wanted := symbolSet(symbols)
	seen := make(map[string]struct{})

	var out []*models.RawExecution

	now := time.Now()
	for winStart := since; winStart.Before(now); winStart = winStart.Add(bybitWindow) {
		winEnd := winStart.Add(bybitWindow)
		if winEnd.After(now) {
			winEnd = now
		}

		cursor := ""
		for {
			params := map[string]string{
				"category":  "linear",
				"startTime": strconv.FormatInt(winStart.UnixMilli(), 10),
				"endTime":   strconv.FormatInt(winEnd.UnixMilli(), 10),
				"limit":     bybitPageLimit,
			}
			if cursor != "" {
				params["cursor"] = cursor
			}

			body, err := b.doRequest(ctx, "/v5/execution/list", params)
			if err != nil {
				return nil, err
			}

			var resp struct {
				Result struct {
					List           []bybitExecution `json:"list"`
					NextPageCursor string           `json:"nextPageCursor"`
				} `json:"result"`
			}
			if err := jsonFast.Unmarshal(body, &resp); err != nil {
				return nil, err
			}

			for _, raw := range resp.Result.List {
				if _, dup := seen[raw.ExecID]; dup {
					continue
				}
				exec, err := b.convertExecution(raw)
				if err != nil {
					// пропускаем нечитаемую запись, остальная страница валидна
					continue
				}
				if wanted != nil {
					if _, ok := wanted[exec.Symbol]; !ok {
						continue
					}
				}
				if !exec.ExecutedAt.After(since) {
					continue
				}
				seen[raw.ExecID] = struct{}{}
				out = append(out, exec)
			}

			cursor = resp.Result.NextPageCursor
			if cursor == "" {
				break
			}
		}
	}

	sortExecutions(out)
	return out, nil
}

// convertExecution нормализует запись Bybit к нашей модели
func (b *Bybit) convertExecution(raw bybitExecution) (*models.RawExecution, error) {
	price, err := decimal.NewFromString(raw.ExecPrice)
	if err != nil {
		return nil, err
	}
	amount, err := decimal.NewFromString(raw.ExecQty)
	if err != nil {
		return nil, err
	}

	ms, err := strconv.ParseInt(raw.ExecTime, 10, 64)
	if err != nil {
		return nil, err
	}

	side := models.ExecutionSideBuy
	if strings.EqualFold(raw.Side, "Sell") {
		side = models.ExecutionSideSell
	}

	exec := &models.RawExecution{
		AccountID:       b.accountID,
		ExchangeTradeID: raw.ExecID,
		Symbol:          raw.Symbol,
		MarketType:      models.MarketTypeSwap,
		Side:            side,
		Price:           price,
		Amount:          amount,
		FeeCurrency:     raw.FeeCurrency,
		OrderID:         raw.OrderID,
		ExecutedAt:      time.UnixMilli(ms).UTC(),
	}

	if raw.ExecFee != "" {
		fee, err := decimal.NewFromString(raw.ExecFee)
		if err == nil && !fee.IsZero() {
			exec.Fee = decimal.NullDecimal{Decimal: fee, Valid: true}
		}
	}

	return exec, nil
}

// bybitTransaction - одна запись из /v5/account/transaction-log
type bybitTransaction struct {
	ID              string `json:"id"`
	Symbol          string `json:"symbol"`
	Type            string `json:"type"`
	Funding         string `json:"funding"`
	FeeRate         string `json:"feeRate"`
	TransactionTime string `json:"transactionTime"`
}

// FetchFunding загружает фандинговые списания из журнала транзакций.
// Bybit пишет фандинг как транзакции типа SETTLEMENT; положительное
// значение funding - начисление на аккаунт, отрицательное - списание.
func (b *Bybit) FetchFunding(ctx context.Context, since time.Time) ([]*models.RawFunding, error) {
	var out []*models.RawFunding
	seen := make(map[string]struct{})

	now := time.Now()
	for winStart := since; winStart.Before(now); winStart = winStart.Add(bybitWindow) {
		winEnd := winStart.Add(bybitWindow)
		if winEnd.After(now) {
			winEnd = now
		}

		cursor := ""
		for {
			params := map[string]string{
				"accountType": "UNIFIED",
				"category":    "linear",
				"type":        "SETTLEMENT",
				"startTime":   strconv.FormatInt(winStart.UnixMilli(), 10),
				"endTime":     strconv.FormatInt(winEnd.UnixMilli(), 10),
				"limit":       "50",
			}
			if cursor != "" {
				params["cursor"] = cursor
			}

			body, err := b.doRequest(ctx, "/v5/account/transaction-log", params)
			if err != nil {
				return nil, err
			}

			var resp struct {
				Result struct {
					List           []bybitTransaction `json:"list"`
					NextPageCursor string             `json:"nextPageCursor"`
				} `json:"result"`
			}
			if err := jsonFast.Unmarshal(body, &resp); err != nil {
				return nil, err
			}

			for _, raw := range resp.Result.List {
				if _, dup := seen[raw.ID]; dup {
					continue
				}
				funding, err := b.convertFunding(raw)
				if err != nil {
					continue
				}
				if !funding.FundingAt.After(since) {
					continue
				}
				seen[raw.ID] = struct{}{}
				out = append(out, funding)
			}

			cursor = resp.Result.NextPageCursor
			if cursor == "" {
				break
			}
		}
	}

	sortFunding(out)
	return out, nil
}

func (b *Bybit) convertFunding(raw bybitTransaction) (*models.RawFunding, error) {
	fee, err := decimal.NewFromString(raw.Funding)
	if err != nil {
		return nil, err
	}

	ms, err := strconv.ParseInt(raw.TransactionTime, 10, 64)
	if err != nil {
		return nil, err
	}

	funding := &models.RawFunding{
		AccountID:  b.accountID,
		Symbol:     raw.Symbol,
		FundingFee: fee,
		FundingAt:  time.UnixMilli(ms).UTC(),
	}

	if raw.FeeRate != "" {
		rate, err := decimal.NewFromString(raw.FeeRate)
		if err == nil {
			funding.FundingRate = decimal.NullDecimal{Decimal: rate, Valid: true}
		}
	}

	return funding, nil
}

func (b *Bybit) Close() error {
	// соединения принадлежат глобальному пулу, закрывать нечего
	return nil
}

// symbolSet превращает срез символов в множество; nil при пустом срезе
func symbolSet(symbols []string) map[string]struct{} {
	if len(symbols) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(symbols))
	for _, s := range symbols {
		set[strings.ToUpper(s)] = struct{}{}
	}
	return set
}

// sortExecutions сортирует филлы по времени исполнения по возрастанию.
// Сортировка стабильная: при равных таймстампах сохраняется порядок,
// в котором биржа вернула записи.
func sortExecutions(execs []*models.RawExecution) {
	sort.SliceStable(execs, func(i, j int) bool {
		return execs[i].ExecutedAt.Before(execs[j].ExecutedAt)
	})
}

// sortFunding сортирует записи фандинга по времени по возрастанию
func sortFunding(items []*models.RawFunding) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].FundingAt.Before(items[j].FundingAt)
	})
}
