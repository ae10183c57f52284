package layout

// collapseMargins returns the collapsed value of two adjoining vertical
// margins: the larger of two positives, the more negative of two
// negatives, otherwise their sum.
func collapseMargins(a, b float64) float64 {
	if a >= 0 && b >= 0 {
		if a > b {
			return a
		}
		return b
	}
	if a < 0 && b < 0 {
		if a < b {
			return a
		}
		return b
	}
	return a + b
}

// collapsesThrough reports an empty block whose own top and bottom
// margins adjoin, so both fold into the surrounding margin.
func collapsesThrough(b *Box) bool {
	if b.Kind != BlockBox {
		return false
	}
	if b.Border.Vertical() > 0 || b.Padding.Vertical() > 0 {
		return false
	}
	return b.Height <= epsilon
}
