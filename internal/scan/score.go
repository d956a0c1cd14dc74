package scan

// Score combines one implied and one realized volatility into the anomaly
// measures: gap = iv - rv and score = iv/rv - 1. Both are absent when either
// input is absent or rv is zero. Higher score means options priced rich
// against recent realized movement.
func Score(iv, rv *float64) (gap, score *float64) {
	if iv == nil || rv == nil || *rv == 0 {
		return nil, nil
	}
	g := *iv - *rv
	s := *iv / *rv - 1
	return &g, &s
}
