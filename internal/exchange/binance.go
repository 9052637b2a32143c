package exchange

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cokechen1108-source/crypto-pnl/internal/models"
	"github.com/cokechen1108-source/crypto-pnl/pkg/ratelimit"
	"github.com/cokechen1108-source/crypto-pnl/pkg/retry"
)

const (
	binanceBaseURL    = "https://fapi.binance.com"
	binanceRecvWindow = "5000"

	// userTrades ограничен интервалом в 7 суток на запрос
	binanceWindow = 7 * 24 * time.Hour

	binancePageLimit = 1000
)

// Binance реализует HistorySource для Binance USDⓈ-M futures.
//
// Особенность API: /fapi/v1/userTrades требует обязательный параметр symbol,
// поэтому при пустом списке символов источник сначала перечисляет символы
// через журнал доходов (/fapi/v1/income), а затем выкачивает историю
// по каждому символу отдельно.
type Binance struct {
	apiKey    string
	secretKey string
	accountID string

	httpClient *http.Client
	limiter    *ratelimit.RateLimiter
}

// NewBinance создает новый источник истории Binance USDⓈ-M
func NewBinance(accountID, apiKey, secretKey string) *Binance {
	return &Binance{
		apiKey:     apiKey,
		secretKey:  secretKey,
		accountID:  accountID,
		httpClient: GetGlobalHTTPClient().GetClient(),
		// weight-лимиты Binance жёстче на income, держим запас
		limiter: ratelimit.New(5, 5),
	}
}

func (b *Binance) Name() string {
	return models.ExchangeBinance
}

// sign подписывает query string ключом аккаунта
func (b *Binance) sign(query string) string {
	h := hmac.New(sha256.New, []byte(b.secretKey))
	h.Write([]byte(query))
	return hex.EncodeToString(h.Sum(nil))
}

// doRequest выполняет подписанный GET запрос к Binance futures API
func (b *Binance) doRequest(ctx context.Context, endpoint string, params map[string]string) ([]byte, error) {
	if err := b.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	var body []byte
	err := retry.Do(ctx, func() error {
		query := url.Values{}
		for k, v := range params {
			query.Set(k, v)
		}
		query.Set("timestamp", strconv.FormatInt(time.Now().UnixMilli(), 10))
		query.Set("recvWindow", binanceRecvWindow)

		encoded := query.Encode()
		reqURL := binanceBaseURL + endpoint + "?" + encoded + "&signature=" + b.sign(encoded)

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return err
		}
		req.Header.Set("X-MBX-APIKEY", b.apiKey)

		resp, err := b.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		body, err = io.ReadAll(resp.Body)
		if err != nil {
			return err
		}

		if resp.StatusCode != http.StatusOK {
			var apiErr struct {
				Code int    `json:"code"`
				Msg  string `json:"msg"`
			}
			_ = jsonFast.Unmarshal(body, &apiErr)
			return &SourceError{
				Exchange: "binance",
				Code:     strconv.Itoa(apiErr.Code),
				Message:  apiErr.Msg,
			}
		}
		return nil
	}, retry.NetworkConfig())
	if err != nil {
		return nil, err
	}

	return body, nil
}

// binanceTrade - одна запись из /fapi/v1/userTrades
type binanceTrade struct {
	ID              int64  `json:"id"`
	OrderID         int64  `json:"orderId"`
	Symbol          string `json:"symbol"`
	Side            string `json:"side"` // BUY, SELL
	Price           string `json:"price"`
	Qty             string `json:"qty"`
	Commission      string `json:"commission"`
	CommissionAsset string `json:"commissionAsset"`
	Time            int64  `json:"time"` // миллисекунды
}

// FetchExecutions загружает филлы по каждому символу отдельно.
// При пустом symbols символы определяются из журнала доходов.
func (b *Binance) FetchExecutions(ctx context.Context, since time.Time, symbols []string) ([]*models.RawExecution, error) {
	if len(symbols) == 0 {
		discovered, err := b.discoverSymbols(ctx, since)
		if err != nil {
			return nil, err
		}
		symbols = discovered
	}

	var out []*models.RawExecution
	for _, symbol := range symbols {
		execs, err := b.fetchSymbolExecutions(ctx, symbol, since)
		if err != nil {
			return nil, err
		}
		out = append(out, execs...)
	}

	sortExecutions(out)
	return out, nil
}

// fetchSymbolExecutions выкачивает историю одного символа окнами по 7 суток,
// внутри окна - пагинация по fromId
func (b *Binance) fetchSymbolExecutions(ctx context.Context, symbol string, since time.Time) ([]*models.RawExecution, error) {
	var out []*models.RawExecution

	now := time.Now()
	for winStart := since; winStart.Before(now); winStart = winStart.Add(binanceWindow) {
		winEnd := winStart.Add(binanceWindow)
		if winEnd.After(now) {
			winEnd = now
		}

		fromID := int64(-1)
		for {
			params := map[string]string{
				"symbol": symbol,
				"limit":  strconv.Itoa(binancePageLimit),
			}
			if fromID >= 0 {
				// fromId и временное окно взаимоисключающие
				params["fromId"] = strconv.FormatInt(fromID, 10)
			} else {
				params["startTime"] = strconv.FormatInt(winStart.UnixMilli(), 10)
				params["endTime"] = strconv.FormatInt(winEnd.UnixMilli(), 10)
			}

			body, err := b.doRequest(ctx, "/fapi/v1/userTrades", params)
			if err != nil {
				return nil, err
			}

			var page []binanceTrade
			if err := jsonFast.Unmarshal(body, &page); err != nil {
				return nil, err
			}

			for _, raw := range page {
				executedAt := time.UnixMilli(raw.Time).UTC()
				if !executedAt.After(since) || executedAt.After(winEnd) {
					continue
				}
				exec, err := b.convertTrade(raw)
				if err != nil {
					continue
				}
				out = append(out, exec)
			}

			if len(page) < binancePageLimit {
				break
			}
			last := page[len(page)-1]
			if time.UnixMilli(last.Time).After(winEnd) {
				break
			}
			fromID = last.ID + 1
		}
	}

	return out, nil
}

func (b *Binance) convertTrade(raw binanceTrade) (*models.RawExecution, error) {
	price, err := decimal.NewFromString(raw.Price)
	if err != nil {
		return nil, err
	}
	amount, err := decimal.NewFromString(raw.Qty)
	if err != nil {
		return nil, err
	}

	side := models.ExecutionSideBuy
	if raw.Side == "SELL" {
		side = models.ExecutionSideSell
	}

	exec := &models.RawExecution{
		AccountID:       b.accountID,
		ExchangeTradeID: strconv.FormatInt(raw.ID, 10),
		Symbol:          raw.Symbol,
		MarketType:      models.MarketTypeSwap,
		Side:            side,
		Price:           price,
		Amount:          amount,
		FeeCurrency:     raw.CommissionAsset,
		OrderID:         strconv.FormatInt(raw.OrderID, 10),
		ExecutedAt:      time.UnixMilli(raw.Time).UTC(),
	}

	if raw.Commission != "" {
		fee, err := decimal.NewFromString(raw.Commission)
		if err == nil && !fee.IsZero() {
			exec.Fee = decimal.NullDecimal{Decimal: fee, Valid: true}
		}
	}

	return exec, nil
}

// binanceIncome - одна запись из /fapi/v1/income
type binanceIncome struct {
	Symbol     string `json:"symbol"`
	IncomeType string `json:"incomeType"`
	Income     string `json:"income"`
	Time       int64  `json:"time"`
	TranID     int64  `json:"tranId"`
}

// discoverSymbols перечисляет символы, по которым у аккаунта была
// активность, через журнал доходов
func (b *Binance) discoverSymbols(ctx context.Context, since time.Time) ([]string, error) {
	set := make(map[string]struct{})

	err := b.walkIncome(ctx, since, "", func(rec binanceIncome) {
		if rec.Symbol != "" {
			set[rec.Symbol] = struct{}{}
		}
	})
	if err != nil {
		return nil, err
	}

	symbols := make([]string, 0, len(set))
	for s := range set {
		symbols = append(symbols, s)
	}
	return symbols, nil
}

// FetchFunding загружает фандинг из журнала доходов (incomeType=FUNDING_FEE).
// Отрицательный income - списание с аккаунта.
func (b *Binance) FetchFunding(ctx context.Context, since time.Time) ([]*models.RawFunding, error) {
	var out []*models.RawFunding
	seen := make(map[int64]struct{})

	err := b.walkIncome(ctx, since, "FUNDING_FEE", func(rec binanceIncome) {
		if _, dup := seen[rec.TranID]; dup {
			return
		}
		fee, err := decimal.NewFromString(rec.Income)
		if err != nil {
			return
		}
		seen[rec.TranID] = struct{}{}
		out = append(out, &models.RawFunding{
			AccountID:  b.accountID,
			Symbol:     rec.Symbol,
			FundingFee: fee,
			FundingAt:  time.UnixMilli(rec.Time).UTC(),
		})
	})
	if err != nil {
		return nil, err
	}

	sortFunding(out)
	return out, nil
}

// walkIncome обходит журнал доходов окнами по 7 суток и вызывает fn
// для каждой записи новее since
func (b *Binance) walkIncome(ctx context.Context, since time.Time, incomeType string, fn func(binanceIncome)) error {
	now := time.Now()
	for winStart := since; winStart.Before(now); winStart = winStart.Add(binanceWindow) {
		winEnd := winStart.Add(binanceWindow)
		if winEnd.After(now) {
			winEnd = now
		}

		// страница сдвигается по времени последней записи: journal
		// не поддерживает курсоры
		pageStart := winStart
		for {
			params := map[string]string{
				"startTime": strconv.FormatInt(pageStart.UnixMilli(), 10),
				"endTime":   strconv.FormatInt(winEnd.UnixMilli(), 10),
				"limit":     strconv.Itoa(binancePageLimit),
			}
			if incomeType != "" {
				params["incomeType"] = incomeType
			}

			body, err := b.doRequest(ctx, "/fapi/v1/income", params)
			if err != nil {
				return err
			}

			var page []binanceIncome
			if err := jsonFast.Unmarshal(body, &page); err != nil {
				return err
			}

			for _, rec := range page {
				if time.UnixMilli(rec.Time).After(since) {
					fn(rec)
				}
			}

			if len(page) < binancePageLimit {
				break
			}
			lastAt := time.UnixMilli(page[len(page)-1].Time)
			if !lastAt.After(pageStart) {
				// защита от зацикливания на страницах с одинаковым временем
				lastAt = pageStart.Add(time.Millisecond)
			}
			pageStart = lastAt
		}
	}
	return nil
}

func (b *Binance) Close() error {
	return nil
}
