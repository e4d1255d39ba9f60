package market

import "math"

// Mean returns the arithmetic mean of prices; zero for an empty slice.
func Mean(prices []float64) float64 {
	if len(prices) == 0 {
		return 0
	}
	sum := 0.0
	for _, p := range prices {
		sum += p
	}
	return sum / float64(len(prices))
}

// Std returns the population standard deviation of prices.
func Std(prices []float64) float64 {
	if len(prices) < 2 {
		return 0
	}
	m := Mean(prices)
	ss := 0.0
	for _, p := range prices {
		d := p - m
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(prices)))
}

// StepVolatility is the mean absolute step-to-step percent move over
// the most recent n samples of h.
func StepVolatility(h *History, n int) float64 {
	if h == nil {
		return 0
	}
	return stepVolatility(h.Tail(n))
}

func stepVolatility(window []float64) float64 {
	if len(window) < 2 {
		return 0
	}
	sum := 0.0
	for i := 1; i < len(window); i++ {
		sum += math.Abs(window[i]-window[i-1]) / window[i-1] * 100
	}
	return sum / float64(len(window))
}

// RealizedVolatility is the annualized standard deviation of
// step-to-step returns over the whole buffer, assuming hourly samples.
func RealizedVolatility(h *History) float64 {
	if h == nil || h.Len() < 2 {
		return 0
	}
	prices := h.Prices()
	returns := make([]float64, 0, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		returns = append(returns, prices[i]/prices[i-1]-1)
	}
	return Std(returns) * math.Sqrt(365*24)
}
