package stats

func computeDerived(total ValueSet) DerivedSet {
	var derived DerivedSet

	derived[DerivedMoveSpeed] = clamp(total[StatSwimSpeed], 0, maxSwimSpeed)
	derived[DerivedRadius] = avatarHalfSize * clamp(total[StatSizeScale], minSizeScale, maxSizeScale)
	derived[DerivedScoreFactor] = clamp(total[StatScoreMultiplier], 0, maxScoreMultiplier)

	return derived
}

func clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
