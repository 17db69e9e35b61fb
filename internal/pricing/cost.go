package pricing

// Cost returns the USD cost of an exchange. It reports false when either
// token count is unavailable. Negative counts are treated as zero.
func Cost(m Model, inputTokens, outputTokens *int) (float64, bool) {
	if inputTokens == nil || outputTokens == nil {
		return 0, false
	}
	in := float64(max(*inputTokens, 0))
	out := float64(max(*outputTokens, 0))
	return in/1_000_000*m.InputCostPerMillion + out/1_000_000*m.OutputCostPerMillion, true
}

// CostOf is Cost for counts that are known to be present.
func CostOf(m Model, inputTokens, outputTokens int) float64 {
	c, _ := Cost(m, &inputTokens, &outputTokens)
	return c
}
