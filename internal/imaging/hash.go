package imaging

// HashSize is the side length of the perceptual hash grid (64 bits total).
const HashSize = 8

// FrameHash is an average perceptual hash: the frame downscaled to 8×8
// grayscale, each cell thresholded against the downscaled frame's own mean.
type FrameHash [HashSize * HashSize]bool

// HashFrame computes the perceptual hash of a frame. Deterministic and pure:
// identical pixel data always yields the identical hash.
func HashFrame(img Image) FrameHash {
	small := Grayscale(img).DownscaleArea(HashSize, HashSize)
	m := mean(small.Pix)

	var h FrameHash
	for i, p := range small.Pix {
		h[i] = float64(p) > m
	}
	return h
}

// Distance returns the Hamming distance to another hash (0–64).
func (h FrameHash) Distance(other FrameHash) int {
	d := 0
	for i := range h {
		if h[i] != other[i] {
			d++
		}
	}
	return d
}
