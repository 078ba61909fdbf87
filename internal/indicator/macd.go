package indicator

// MACD calculates the MACD line (EMA fast - EMA slow) and its signal line
// (EMA of the MACD line). Both slices are aligned to the end of values:
// line has len(values)-slow+1 entries, signal has len(line)-signalPeriod+1.
func MACD(values []float64, fast, slow, signalPeriod int) (line, signal []float64) {
	if fast <= 0 || slow <= fast || signalPeriod <= 0 || len(values) < slow {
		return []float64{}, []float64{}
	}

	fastEMA := EMA(values, fast)
	slowEMA := EMA(values, slow)

	// fastEMA starts slow-fast bars earlier than slowEMA
	offset := slow - fast
	line = make([]float64, len(slowEMA))
	for j := range slowEMA {
		line[j] = fastEMA[j+offset] - slowEMA[j]
	}

	return line, EMA(line, signalPeriod)
}
