package imaging

// TrimOptions configures border trimming.
type TrimOptions struct {
	// BorderPx is the uniform border width re-added after trimming.
	BorderPx int
	// UniformityThreshold is the max row/column grayscale std for a line
	// to still count as border.
	UniformityThreshold float64
	// IncludeText widens the border to keep detected caption text instead
	// of cropping it away.
	IncludeText bool
}

func DefaultTrimOptions() TrimOptions {
	return TrimOptions{BorderPx: 5, UniformityThreshold: 10, IncludeText: true}
}

// Edges carries one pixel amount per image edge.
type Edges struct {
	Top, Bottom, Left, Right int
}

// TrimResult is the trimmed image together with the amounts cropped from
// the original and the amounts re-added as border.
type TrimResult struct {
	Image   Image
	Trimmed Edges
	Added   Edges
}

// TrimAndAddBorder finds the content bounding box inside a uniform border,
// handles caption text near the edges, and re-applies a constant border in
// the original border color.
//
// Rows are scanned from the top: the first row whose grayscale std exceeds
// the uniformity threshold marks the content top; bottom/left/right scans
// are symmetric. A fully uniform image has no detectable content boundary
// and is returned unchanged.
func TrimAndAddBorder(img Image, opts TrimOptions) TrimResult {
	g := Grayscale(img)
	w, h := g.W, g.H

	top := -1
	for y := 0; y < h; y++ {
		if popStdDev(g.Pix[y*w:(y+1)*w]) > opts.UniformityThreshold {
			top = y
			break
		}
	}
	if top < 0 {
		return TrimResult{Image: img}
	}

	bottom := h - 1
	for y := h - 1; y >= 0; y-- {
		if popStdDev(g.Pix[y*w:(y+1)*w]) > opts.UniformityThreshold {
			bottom = y
			break
		}
	}

	left := 0
	for x := 0; x < w; x++ {
		if popStdDev(g.column(x)) > opts.UniformityThreshold {
			left = x
			break
		}
	}

	right := w - 1
	for x := w - 1; x >= 0; x-- {
		if popStdDev(g.column(x)) > opts.UniformityThreshold {
			right = x
			break
		}
	}

	// The top-left corner rectangle is guaranteed to lie inside the
	// original border; its mean becomes the new border fill color.
	sample := Crop(img, 0, 0, maxInt(left, 1), maxInt(top, 1))

	cropped := Crop(img, left, top, right+1, bottom+1)
	trimmed := Edges{Top: top, Bottom: h - 1 - bottom, Left: left, Right: w - 1 - right}

	borderGray := int(mean(Grayscale(sample).Pix))
	padding, textCrop := detectTextPadding(
		Grayscale(cropped), borderGray,
		DefaultBorderDiffThreshold, DefaultContentFraction, DefaultMinGapPx,
	)

	var added Edges
	if opts.IncludeText {
		// Widen the border enough to keep any caption/watermark band.
		added = Edges{
			Top:    maxInt(opts.BorderPx, padding.Top),
			Bottom: maxInt(opts.BorderPx, padding.Bottom),
			Left:   maxInt(opts.BorderPx, padding.Left),
			Right:  maxInt(opts.BorderPx, padding.Right),
		}
	} else {
		// Crop the text bands away first, when that leaves a valid image.
		cw, ch := cropped.Size()
		if ch-textCrop.Top-textCrop.Bottom > 0 && cw-textCrop.Left-textCrop.Right > 0 {
			cropped = Crop(cropped, textCrop.Left, textCrop.Top, cw-textCrop.Right, ch-textCrop.Bottom)
			trimmed.Top += textCrop.Top
			trimmed.Bottom += textCrop.Bottom
			trimmed.Left += textCrop.Left
			trimmed.Right += textCrop.Right
		}
		added = Edges{Top: opts.BorderPx, Bottom: opts.BorderPx, Left: opts.BorderPx, Right: opts.BorderPx}
	}

	return TrimResult{
		Image:   padConstant(cropped, added, sample),
		Trimmed: trimmed,
		Added:   added,
	}
}

// padConstant surrounds the image with a border filled with the mean color
// of the sampled border region.
func padConstant(img Image, e Edges, sample Image) Image {
	w, h := img.Size()
	ow := w + e.Left + e.Right
	oh := h + e.Top + e.Bottom

	switch v := img.(type) {
	case *Gray:
		fill := uint8(mean(Grayscale(sample).Pix))
		out := NewGray(ow, oh)
		for i := range out.Pix {
			out.Pix[i] = fill
		}
		for y := 0; y < h; y++ {
			copy(out.Pix[(y+e.Top)*ow+e.Left:(y+e.Top)*ow+e.Left+w], v.Pix[y*w:(y+1)*w])
		}
		return out
	case *Color:
		r, g, b := meanColor(sample)
		out := NewColor(ow, oh)
		for i := 0; i < ow*oh; i++ {
			out.Pix[i*3] = r
			out.Pix[i*3+1] = g
			out.Pix[i*3+2] = b
		}
		for y := 0; y < h; y++ {
			copy(out.Pix[((y+e.Top)*ow+e.Left)*3:((y+e.Top)*ow+e.Left+w)*3], v.Pix[y*w*3:(y+1)*w*3])
		}
		return out
	}
	panic("imaging: unknown image variant")
}

// meanColor averages each channel of a sample region. Gray samples yield an
// achromatic color.
func meanColor(sample Image) (uint8, uint8, uint8) {
	switch v := sample.(type) {
	case *Gray:
		m := uint8(mean(v.Pix))
		return m, m, m
	case *Color:
		n := v.W * v.H
		var rs, gs, bs int
		for i := 0; i < n; i++ {
			rs += int(v.Pix[i*3])
			gs += int(v.Pix[i*3+1])
			bs += int(v.Pix[i*3+2])
		}
		return uint8(rs / n), uint8(gs / n), uint8(bs / n)
	}
	panic("imaging: unknown image variant")
}

// column copies one pixel column out of a grayscale image.
func (g *Gray) column(x int) []uint8 {
	out := make([]uint8, g.H)
	for y := 0; y < g.H; y++ {
		out[y] = g.Pix[y*g.W+x]
	}
	return out
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
