package indicator

// Bands holds Bollinger Band series aligned to the end of the input.
type Bands struct {
	Upper  []float64
	Middle []float64
	Lower  []float64
}

// Bollinger calculates Bollinger Bands: SMA(period) ± k population standard
// deviations. Each series has len(values) - period + 1 entries.
func Bollinger(values []float64, period int, k float64) Bands {
	middle := SMA(values, period)
	std := StdDev(values, period)

	b := Bands{
		Upper:  make([]float64, len(middle)),
		Middle: middle,
		Lower:  make([]float64, len(middle)),
	}
	for j := range middle {
		b.Upper[j] = middle[j] + k*std[j]
		b.Lower[j] = middle[j] - k*std[j]
	}
	return b
}

// BandWidth returns the Bollinger band width as a percentage of the middle band.
func BandWidth(values []float64, period int, k float64) []float64 {
	b := Bollinger(values, period, k)
	result := make([]float64, 0, len(b.Middle))
	for j, mid := range b.Middle {
		if mid == 0 {
			result = append(result, 0)
			continue
		}
		result = append(result, (b.Upper[j]-b.Lower[j])/mid*100)
	}
	return result
}
