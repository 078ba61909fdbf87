package indicator

import "math"

// SMA calculates Simple Moving Average
// Returns slice of length: len(values) - period + 1
func SMA(values []float64, period int) []float64 {
	if period <= 0 || len(values) < period {
		return []float64{}
	}

	result := make([]float64, 0, len(values)-period+1)

	// Calculate first SMA
	var sum float64
	for i := 0; i < period; i++ {
		sum += values[i]
	}
	result = append(result, sum/float64(period))

	// Rolling calculation
	for i := period; i < len(values); i++ {
		sum = sum - values[i-period] + values[i]
		result = append(result, sum/float64(period))
	}

	return result
}

// EMA calculates Exponential Moving Average with smoothing 2/(period+1),
// seeded with the SMA of the first period values.
// Returns slice of length: len(values) - period + 1
func EMA(values []float64, period int) []float64 {
	if period <= 0 || len(values) < period {
		return []float64{}
	}

	result := make([]float64, 0, len(values)-period+1)
	multiplier := 2.0 / float64(period+1)

	// Start with SMA as first EMA value
	var sum float64
	for i := 0; i < period; i++ {
		sum += values[i]
	}
	ema := sum / float64(period)
	result = append(result, ema)

	// Calculate EMA for remaining values
	for i := period; i < len(values); i++ {
		ema = (values[i]-ema)*multiplier + ema
		result = append(result, ema)
	}

	return result
}

// StdDev calculates the rolling population standard deviation.
// Returns slice of length: len(values) - period + 1
func StdDev(values []float64, period int) []float64 {
	means := SMA(values, period)
	if len(means) == 0 {
		return []float64{}
	}

	result := make([]float64, len(means))
	for j, mean := range means {
		var variance float64
		for _, v := range values[j : j+period] {
			variance += (v - mean) * (v - mean)
		}
		result[j] = math.Sqrt(variance / float64(period))
	}
	return result
}
