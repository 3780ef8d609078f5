package orders

import (
	"strings"

	"github.com/BearBump/ParcelBox/internal/models"
)

// BucketAll is the synthetic tab that holds every order.
const BucketAll = "All Shipments"

// Buckets lists the filter tabs in display order.
var Buckets = []string{
	BucketAll,
	models.OrderStatusTransit,
	models.OrderStatusDelivered,
	models.OrderStatusUnknown,
}

func StatusCount(orders []models.Order, bucket string) int {
	if bucket == BucketAll {
		return len(orders)
	}
	n := 0
	for _, o := range orders {
		if o.Status == bucket {
			n++
		}
	}
	return n
}

func Counts(orders []models.Order) map[string]int {
	out := make(map[string]int, len(Buckets))
	for _, b := range Buckets {
		out[b] = StatusCount(orders, b)
	}
	return out
}

// Filter keeps orders whose tracking number or label contains search (case-insensitive)
// and whose status matches bucket. An empty bucket means BucketAll.
func Filter(orders []models.Order, search, bucket string) []models.Order {
	search = strings.ToLower(strings.TrimSpace(search))
	out := make([]models.Order, 0, len(orders))
	for _, o := range orders {
		if search != "" &&
			!strings.Contains(strings.ToLower(o.TrackingNumber), search) &&
			!strings.Contains(strings.ToLower(o.Label), search) {
			continue
		}
		if bucket != "" && bucket != BucketAll && o.Status != bucket {
			continue
		}
		out = append(out, o)
	}
	return out
}
