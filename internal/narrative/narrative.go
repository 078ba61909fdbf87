// Package narrative turns a classified signal into a short commentary. The
// fixed conclusion text is always the fallback.
package narrative

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/newthinker/swingdesk/internal/core"
	"github.com/newthinker/swingdesk/internal/indicator"
	"github.com/newthinker/swingdesk/internal/llm"
	"github.com/newthinker/swingdesk/internal/strategy"
	"go.uber.org/zap"
)

const systemPrompt = `You are a swing-trading assistant on a stock dashboard.
Given a ticker's latest technical indicators and the dashboard's signal,
write two or three plain sentences explaining the signal. Do not contradict
the signal and do not give price targets.`

// Narrator produces commentary for the symbol page.
type Narrator struct {
	provider llm.Provider
	timeout  time.Duration
	logger   *zap.Logger
}

// New creates a narrator. A nil provider disables LLM commentary.
func New(provider llm.Provider, timeout time.Duration, logger *zap.Logger) *Narrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Narrator{provider: provider, timeout: timeout, logger: logger}
}

// Enabled reports whether an LLM provider is configured.
func (n *Narrator) Enabled() bool {
	return n != nil && n.provider != nil
}

// Commentary returns the LLM commentary for sig, or the fixed conclusion
// when the provider is disabled, fails or returns nothing.
func (n *Narrator) Commentary(ctx context.Context, company string, sig core.Signal, row indicator.Row) string {
	fallback := strategy.Conclusion(sig.Action)
	if !n.Enabled() || sig.Action == core.ActionUnavailable {
		return fallback
	}

	ctx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()

	resp, err := n.provider.Chat(ctx, llm.ChatRequest{
		SystemPrompt: systemPrompt,
		Messages:     []llm.Message{llm.UserMessage(Prompt(company, sig, row))},
		Temperature:  0.3,
	})
	if err != nil {
		n.logger.Warn("commentary failed, using conclusion",
			zap.String("provider", n.provider.Name()),
			zap.String("ticker", sig.Symbol),
			zap.Error(err),
		)
		return fallback
	}
	text := strings.TrimSpace(resp.Content)
	if text == "" {
		return fallback
	}
	return text
}

// Prompt renders the indicator facts the commentary is grounded on.
func Prompt(company string, sig core.Signal, row indicator.Row) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Ticker: %s (%s)\n", sig.Symbol, company)
	fmt.Fprintf(&b, "Signal: %s, strength %d\n", sig.Action.Label(), sig.Strength)
	fmt.Fprintf(&b, "Close: %.2f, trend: %s (200-day SMA %.2f)\n", row.Close, row.Trend, row.SMALong)
	fmt.Fprintf(&b, "EMA20: %.2f, RSI14: %.1f\n", row.EMAShort, row.RSI)
	fmt.Fprintf(&b, "MACD line: %.3f, signal: %.3f\n", row.MACDLine, row.MACDSignal)
	fmt.Fprintf(&b, "Bollinger bands: %.2f - %.2f\n", row.BBLow, row.BBHigh)
	fmt.Fprintf(&b, "Volume: %.0f vs 20-day average %.0f\n", row.Volume, row.VolumeSMA)
	fmt.Fprintf(&b, "Dashboard conclusion: %s\n", strategy.Conclusion(sig.Action))
	return b.String()
}
