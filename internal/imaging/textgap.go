package imaging

// Text-gap detection defaults. The expected layout, scanning inward from an
// edge of the trimmed photo, is: sparse caption/watermark text, a blank gap,
// then dense photo content.
const (
	DefaultBorderDiffThreshold = 30
	DefaultContentFraction     = 0.3
	DefaultMinGapPx            = 10
)

// findTextGapFromEdge walks a 1D density profile from one edge inward,
// looking for the text → gap → photo pattern.
//
// Returns (gapWidth, denseStart) when the pattern is present, (0, 0)
// otherwise. Ambiguous signals (a too-small gap, or no sparse content
// before it) are rejected in favor of treating the region as border.
func findTextGapFromEdge(density []float64, contentFraction float64, minGapPx int) (int, int) {
	denseStart := -1
	for i, d := range density {
		if d >= contentFraction {
			denseStart = i
			break
		}
	}
	if denseStart < 0 || denseStart < minGapPx {
		return 0, 0
	}

	// Walk backward from the dense content to the last nonzero-density
	// index; the gap starts just after it.
	gapStart := -1
	for i := denseStart - 1; i >= 0; i-- {
		if density[i] > 0 {
			gapStart = i + 1
			break
		}
	}
	if gapStart < 0 {
		// Zero density all the way to the edge: no text before the gap.
		return 0, 0
	}

	gapWidth := denseStart - gapStart
	if gapWidth < minGapPx {
		return 0, 0
	}

	// Require genuinely sparse marks before the gap, a text signature
	// rather than noise.
	hasText := false
	for i := 0; i < gapStart; i++ {
		if density[i] > 0 && density[i] < contentFraction {
			hasText = true
			break
		}
	}
	if !hasText {
		return 0, 0
	}

	return gapWidth, denseStart
}

// detectTextPadding finds text/watermark bands near the edges of a trimmed
// photo. It builds a binary content mask (pixels differing from the border
// gray value by more than diffThreshold) and inspects the column and row
// density profiles from all four edges.
//
// The first result holds per-edge gap widths (border widening to keep the
// text); the second holds per-edge dense-start offsets (cropping to drop it).
func detectTextPadding(g *Gray, borderGray int, diffThreshold int, contentFraction float64, minGapPx int) (Edges, Edges) {
	w, h := g.W, g.H

	colDensity := make([]float64, w)
	rowDensity := make([]float64, h)
	for y := 0; y < h; y++ {
		row := g.Pix[y*w : (y+1)*w]
		for x, p := range row {
			if abs(int(p)-borderGray) > diffThreshold {
				colDensity[x]++
				rowDensity[y]++
			}
		}
	}
	for x := range colDensity {
		colDensity[x] /= float64(h)
	}
	for y := range rowDensity {
		rowDensity[y] /= float64(w)
	}

	leftGap, leftDense := findTextGapFromEdge(colDensity, contentFraction, minGapPx)
	rightGap, rightDense := findTextGapFromEdge(reversed(colDensity), contentFraction, minGapPx)
	topGap, topDense := findTextGapFromEdge(rowDensity, contentFraction, minGapPx)
	bottomGap, bottomDense := findTextGapFromEdge(reversed(rowDensity), contentFraction, minGapPx)

	padding := Edges{Top: topGap, Bottom: bottomGap, Left: leftGap, Right: rightGap}
	crop := Edges{Top: topDense, Bottom: bottomDense, Left: leftDense, Right: rightDense}
	return padding, crop
}

func reversed(in []float64) []float64 {
	out := make([]float64, len(in))
	for i, v := range in {
		out[len(in)-1-i] = v
	}
	return out
}
