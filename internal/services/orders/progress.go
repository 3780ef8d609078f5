package orders

import "time"

const day = 24 * time.Hour

// ProgressRatio is the share of the expected transit window already elapsed, in [0,1].
// Both durations are counted in whole days and a window of zero or fewer days yields 1.
// A missing date stands for now: no shipping date means nothing has elapsed yet.
func ProgressRatio(shippingDate, estimatedDeliveryDateMax, now time.Time) float64 {
	if shippingDate.IsZero() {
		shippingDate = now
	}
	if estimatedDeliveryDateMax.IsZero() {
		estimatedDeliveryDateMax = now
	}
	span := wholeDays(estimatedDeliveryDateMax.Sub(shippingDate))
	if span <= 0 {
		return 1
	}
	elapsed := wholeDays(now.Sub(shippingDate))

	r := float64(elapsed) / float64(span)
	switch {
	case r < 0:
		return 0
	case r > 1:
		return 1
	default:
		return r
	}
}

// wholeDays truncates toward zero.
func wholeDays(d time.Duration) int64 {
	return int64(d / day)
}
