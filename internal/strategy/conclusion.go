package strategy

import "github.com/newthinker/swingdesk/internal/core"

var conclusions = map[core.Action]string{
	core.ActionStrongBuy: "This stock is a strong candidate for swing trading with a bullish trend, low RSI indicating oversold conditions, and high volume confirming momentum. " +
		"The best decision is to enter a long position for potential upward movement, targeting quick profits within days to weeks.",
	core.ActionBuy: "This stock shows a bullish trend with moderate RSI and high volume, making it a good swing trading opportunity for a potential upward move. " +
		"The best decision is to consider entering a long position, but monitor for additional confirmation before acting.",
	core.ActionHold: "This stock is currently neutral for swing trading, showing no strong short-term momentum or trend. " +
		"The best decision is to hold off on trading until a clearer bullish or bearish signal emerges, or monitor for volatility breakouts using Bollinger Bands.",
	core.ActionStrongHold: "This stock is in an uptrend but overbought (high RSI), suggesting caution for swing trading. " +
		"The best decision is to hold or wait for a pullback or volume confirmation before entering a position, as it may be nearing a resistance level.",
	core.ActionSell: "This stock shows a bearish trend with moderate RSI and high volume, making it a good swing trading opportunity for a potential downward move. " +
		"The best decision is to consider entering a short position, but monitor for additional confirmation before acting.",
	core.ActionStrongSell: "This stock is a strong candidate for swing trading with a bearish trend, high RSI indicating overbought conditions, and high volume confirming momentum. " +
		"The best decision is to enter a short position for potential downward movement, targeting quick profits within days to weeks.",
	core.ActionUnavailable: "Data unavailable for analysis. Unable to provide a trading recommendation.",
}

const unexpectedConclusion = "Unexpected signal encountered. Please review the data for accuracy."

// Conclusion returns the fixed swing-trading recommendation for an action.
func Conclusion(a core.Action) string {
	if text, ok := conclusions[a]; ok {
		return text
	}
	return unexpectedConclusion
}
