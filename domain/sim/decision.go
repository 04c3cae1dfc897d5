package sim

// Decide applies the significance threshold to a p-value.
// The inequality is strict: p == alpha fails to reject.
func Decide(pValue, alpha float64) bool {
	return pValue < alpha
}
