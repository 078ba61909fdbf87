package yahoo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/newthinker/swingdesk/internal/collector"
	"github.com/newthinker/swingdesk/internal/core"
	"github.com/tidwall/gjson"
)

const (
	chartURL   = "https://query1.finance.yahoo.com/v8/finance/chart"
	summaryURL = "https://query2.finance.yahoo.com/v10/finance/quoteSummary"

	summaryModules = "price,summaryDetail,calendarEvents"
	userAgent      = "Mozilla/5.0 (compatible; swingdesk/1.0)"
)

// Yahoo implements the Yahoo Finance collector
type Yahoo struct {
	client     *http.Client
	config     collector.Config
	chartURL   string
	summaryURL string
}

// Option customizes the collector.
type Option func(*Yahoo)

// WithBaseURLs points the collector at alternative chart and quoteSummary endpoints.
func WithBaseURLs(chart, summary string) Option {
	return func(y *Yahoo) {
		y.chartURL = chart
		y.summaryURL = summary
	}
}

// WithHTTPClient replaces the default client.
func WithHTTPClient(c *http.Client) Option {
	return func(y *Yahoo) {
		y.client = c
	}
}

// New creates a new Yahoo collector
func New(opts ...Option) *Yahoo {
	y := &Yahoo{
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		chartURL:   chartURL,
		summaryURL: summaryURL,
	}
	for _, opt := range opts {
		opt(y)
	}
	return y
}

func (y *Yahoo) Name() string {
	return "yahoo"
}

func (y *Yahoo) SupportedMarkets() []core.Market {
	return []core.Market{core.MarketUS, core.MarketUK, core.MarketEU, core.MarketHK}
}

func (y *Yahoo) Init(cfg collector.Config) error {
	y.config = cfg
	if cfg.Timeout > 0 {
		y.client.Timeout = cfg.Timeout
	}
	return nil
}

// FetchHistory fetches daily OHLCV bars adjusted for splits and dividends.
func (y *Yahoo) FetchHistory(ctx context.Context, symbol string, start, end time.Time) ([]core.OHLCV, error) {
	ticker, err := core.NormalizeTicker(symbol)
	if err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("interval", "1d")
	q.Set("period1", fmt.Sprint(start.Unix()))
	q.Set("period2", fmt.Sprint(end.Unix()))
	q.Set("events", "div,splits")

	r, err := y.chart(ctx, ticker, q)
	if err != nil {
		return nil, err
	}
	if r == nil || len(r.Indicators.Quote) == 0 {
		return []core.OHLCV{}, nil
	}

	quotes := r.Indicators.Quote[0]
	var adjusted []*float64
	if len(r.Indicators.AdjClose) > 0 {
		adjusted = r.Indicators.AdjClose[0].AdjClose
	}

	data := make([]core.OHLCV, 0, len(r.Timestamp))
	for i, ts := range r.Timestamp {
		last := value(quotes.Close, i)
		if last == nil || *last == 0 {
			continue // Skip missing sessions
		}
		ratio := 1.0
		if adj := value(adjusted, i); adj != nil {
			ratio = *adj / *last
		}

		bar := core.OHLCV{
			Symbol: ticker,
			Open:   orDefault(value(quotes.Open, i), *last) * ratio,
			High:   orDefault(value(quotes.High, i), *last) * ratio,
			Low:    orDefault(value(quotes.Low, i), *last) * ratio,
			Close:  *last * ratio,
			Time:   time.Unix(ts, 0).UTC(),
		}
		if v := value(quotes.Volume, i); v != nil {
			bar.Volume = *v
		}
		data = append(data, bar)
	}

	return core.NormalizeSeries(data), nil
}

// chart fetches one chart result. A response without results yields nil.
func (y *Yahoo) chart(ctx context.Context, ticker string, q url.Values) (*chartResult, error) {
	endpoint := fmt.Sprintf("%s/%s?%s", y.chartURL, url.PathEscape(ticker), q.Encode())
	body, err := y.get(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	var result chartResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, core.WrapError(core.ErrUpstreamFailure, fmt.Errorf("decoding chart: %w", err))
	}
	if result.Chart.Error != nil {
		return nil, core.WrapError(core.ErrMissingData, fmt.Errorf("yahoo error: %s", result.Chart.Error.Description))
	}
	if len(result.Chart.Result) == 0 {
		return nil, nil
	}
	return &result.Chart.Result[0], nil
}

// FetchFundamental fetches company name, currency, valuation and dividend
// calendar. Fields the provider omits stay unset.
func (y *Yahoo) FetchFundamental(ctx context.Context, symbol string) (*core.Fundamental, error) {
	ticker, err := core.NormalizeTicker(symbol)
	if err != nil {
		return nil, err
	}

	f, err := y.summary(ctx, ticker)
	if err == nil || !errors.Is(err, core.ErrUpstreamFailure) {
		return f, err
	}

	// quoteSummary is often refused without a session cookie; the chart
	// metadata still carries the name and trading currency.
	meta, metaErr := y.chartMeta(ctx, ticker)
	if metaErr != nil || meta.Currency == "" {
		return nil, err
	}
	return &core.Fundamental{
		Symbol:    ticker,
		ShortName: meta.ShortName,
		LongName:  meta.LongName,
		Currency:  meta.Currency,
		FetchedAt: time.Now(),
	}, nil
}

func (y *Yahoo) chartMeta(ctx context.Context, ticker string) (*chartMeta, error) {
	q := url.Values{}
	q.Set("interval", "1d")
	q.Set("range", "5d")
	r, err := y.chart(ctx, ticker, q)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, core.WrapError(core.ErrMissingData, fmt.Errorf("no chart for %s", ticker))
	}
	return &r.Meta, nil
}

func (y *Yahoo) summary(ctx context.Context, ticker string) (*core.Fundamental, error) {
	endpoint := fmt.Sprintf("%s/%s?modules=%s", y.summaryURL, url.PathEscape(ticker), url.QueryEscape(summaryModules))
	body, err := y.get(ctx, endpoint)
	if err != nil {
		return nil, err
	}
	if !gjson.ValidBytes(body) {
		return nil, core.WrapError(core.ErrUpstreamFailure, fmt.Errorf("invalid quoteSummary payload"))
	}

	root := gjson.ParseBytes(body)
	if msg := root.Get("quoteSummary.error.description"); msg.Exists() {
		return nil, core.WrapError(core.ErrMissingData, fmt.Errorf("yahoo error: %s", msg.String()))
	}

	res := root.Get("quoteSummary.result.0")
	if !res.Exists() {
		return nil, core.WrapError(core.ErrMissingData, fmt.Errorf("no fundamentals for %s", ticker))
	}

	return parseSummary(ticker, res), nil
}

func parseSummary(ticker string, res gjson.Result) *core.Fundamental {
	return &core.Fundamental{
		Symbol:         ticker,
		ShortName:      res.Get("price.shortName").String(),
		LongName:       res.Get("price.longName").String(),
		Currency:       res.Get("price.currency").String(),
		MarketCap:      optional(res, "price.marketCap.raw", "summaryDetail.marketCap.raw"),
		TrailingPE:     optional(res, "summaryDetail.trailingPE.raw"),
		ForwardPE:      optional(res, "summaryDetail.forwardPE.raw", "defaultKeyStatistics.forwardPE.raw"),
		DividendYield:  optional(res, "summaryDetail.dividendYield.raw", "summaryDetail.trailingAnnualDividendYield.raw"),
		ExDividendDate: timestamp(res, "calendarEvents.exDividendDate.raw", "summaryDetail.exDividendDate.raw"),
		DividendDate:   timestamp(res, "calendarEvents.dividendDate.raw"),
		FetchedAt:      time.Now(),
	}
}

// optional returns the first numeric value found at paths.
func optional(res gjson.Result, paths ...string) *float64 {
	for _, p := range paths {
		v := res.Get(p)
		if v.Exists() && v.Type == gjson.Number {
			f := v.Float()
			return &f
		}
	}
	return nil
}

// timestamp returns the first positive unix timestamp found at paths.
func timestamp(res gjson.Result, paths ...string) time.Time {
	for _, p := range paths {
		if v := res.Get(p); v.Exists() && v.Int() > 0 {
			return time.Unix(v.Int(), 0).UTC()
		}
	}
	return time.Time{}
}

func (y *Yahoo) get(ctx context.Context, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := y.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
			return nil, core.WrapError(core.ErrCollectorTimeout, err)
		}
		return nil, core.WrapError(core.ErrUpstreamFailure, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return nil, core.WrapError(core.ErrUpstreamFailure, fmt.Errorf("reading response: %w", err))
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, core.WrapError(core.ErrMissingData, fmt.Errorf("unknown symbol (status %d)", resp.StatusCode))
	case resp.StatusCode != http.StatusOK:
		return nil, core.WrapError(core.ErrUpstreamFailure, fmt.Errorf("unexpected status: %d", resp.StatusCode))
	}
	return body, nil
}

func isTimeout(err error) bool {
	var t interface{ Timeout() bool }
	return errors.As(err, &t) && t.Timeout()
}

func value[T any](s []*T, i int) *T {
	if i >= len(s) {
		return nil
	}
	return s[i]
}

func orDefault(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}

// Yahoo API response types
type chartResponse struct {
	Chart struct {
		Result []chartResult `json:"result"`
		Error  *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

type chartResult struct {
	Meta       chartMeta  `json:"meta"`
	Timestamp  []int64    `json:"timestamp"`
	Indicators indicators `json:"indicators"`
}

type chartMeta struct {
	Currency  string `json:"currency"`
	ShortName string `json:"shortName"`
	LongName  string `json:"longName"`
}

type indicators struct {
	Quote    []quoteIndicator `json:"quote"`
	AdjClose []struct {
		AdjClose []*float64 `json:"adjclose"`
	} `json:"adjclose"`
}

type quoteIndicator struct {
	Open   []*float64 `json:"open"`
	High   []*float64 `json:"high"`
	Low    []*float64 `json:"low"`
	Close  []*float64 `json:"close"`
	Volume []*int64   `json:"volume"`
}
