package risk

import "fmt"

// Limits caps exposure per dispatch. Zero values disable a limit.
type Limits struct {
	MaxBuySOL   float64
	MaxInFlight int
}

// AllowBuy reports whether a buy of amountSOL is within the per-trade cap.
func (l Limits) AllowBuy(amountSOL float64) bool {
	return l.MaxBuySOL <= 0 || amountSOL <= l.MaxBuySOL
}

// AllowInFlight reports whether another task may start while outstanding are running.
func (l Limits) AllowInFlight(outstanding int) bool {
	return l.MaxInFlight <= 0 || outstanding < l.MaxInFlight
}

// Check returns a short reason when a dispatch must be refused, or "" when it may proceed.
// Sells are never refused: they only reduce exposure.
func (l Limits) Check(buy bool, amountSOL float64, outstanding int) string {
	if !buy {
		return ""
	}
	if !l.AllowInFlight(outstanding) {
		return fmt.Sprintf("%d trades in flight", outstanding)
	}
	if !l.AllowBuy(amountSOL) {
		return fmt.Sprintf("buy %g SOL above limit %g", amountSOL, l.MaxBuySOL)
	}
	return ""
}
