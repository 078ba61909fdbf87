package indicator

// RSI calculates the Wilder-smoothed Relative Strength Index.
// The first average gain/loss is the simple mean of the first period changes.
// Returns slice of length: len(values) - period; the first value belongs to
// values[period].
func RSI(values []float64, period int) []float64 {
	if period <= 0 || len(values) < period+1 {
		return []float64{}
	}

	result := make([]float64, 0, len(values)-period)

	var avgGain, avgLoss float64
	for i := 1; i <= period; i++ {
		gain, loss := split(values[i] - values[i-1])
		avgGain += gain
		avgLoss += loss
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)
	result = append(result, rsiValue(avgGain, avgLoss))

	for i := period + 1; i < len(values); i++ {
		gain, loss := split(values[i] - values[i-1])
		avgGain = (avgGain*float64(period-1) + gain) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)
		result = append(result, rsiValue(avgGain, avgLoss))
	}

	return result
}

func split(change float64) (gain, loss float64) {
	if change > 0 {
		return change, 0
	}
	return 0, -change
}

func rsiValue(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs)
}
