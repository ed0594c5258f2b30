// Package scan walks a low-resolution copy of a video and picks out the
// timestamps where a new photo appears on screen.
package scan

import (
	"fmt"

	"github.com/framelift/framelift/internal/imaging"
)

const (
	// HashDiffThreshold is the perceptual hash distance at which a frame
	// counts as a different photo from the previous candidate.
	HashDiffThreshold = 10

	// HashStepThreshold is the distance between consecutive sampled frames
	// at which the content is considered to have changed, which re-arms
	// candidate detection even when the overall distance stays small.
	HashStepThreshold = 3
)

// Candidate is a moment in the video worth extracting at full resolution.
type Candidate struct {
	Timestamp float64
	Label     string
}

// Scanner tracks what the detector has seen so far. Its state is two
// hashes: the last emitted candidate and the previous sampled frame.
type Scanner struct {
	prevPhoto *imaging.FrameHash
	prevStep  *imaging.FrameHash
}

// NewScanner returns a scanner with no history.
func NewScanner() *Scanner {
	return &Scanner{}
}

// Observe feeds one sampled frame to the scanner and returns a Candidate
// when the frame looks like a photo it has not reported yet, nil otherwise.
//
// Frames without uniform borders, and near-uniform frames, reset the
// history entirely: after an interlude of full-screen video the next
// bordered frame is always a fresh candidate, even if it shows the same
// photo as before.
func (s *Scanner) Observe(frame imaging.Image, timestamp float64) *Candidate {
	if !imaging.DetectUniformBorders(frame, imaging.DefaultBorderWidth,
		imaging.DefaultBorderStd, imaging.DefaultPillarboxStd) ||
		imaging.NearUniform(frame, imaging.DefaultUniformStd) != nil {
		s.prevPhoto = nil
		s.prevStep = nil
		return nil
	}

	hash := imaging.HashFrame(frame)

	stepChanged := s.prevStep != nil && hash.Distance(*s.prevStep) > HashStepThreshold
	isNew := s.prevPhoto == nil ||
		stepChanged ||
		hash.Distance(*s.prevPhoto) > HashDiffThreshold

	s.prevStep = &hash

	if !isNew {
		return nil
	}
	s.prevPhoto = &hash
	return &Candidate{Timestamp: timestamp, Label: TimeLabel(timestamp)}
}

// TimeLabel renders a timestamp as a filename-safe label like "5m04s",
// with a tenths suffix ("5m04.5s") only when the tenths digit is nonzero.
// Values truncate rather than round so the label never points past the
// frame it names.
func TimeLabel(seconds float64) string {
	total := int(seconds)
	tenths := int((seconds - float64(total)) * 10)
	minutes := total / 60
	secs := total % 60
	if tenths > 0 {
		return fmt.Sprintf("%dm%02d.%ds", minutes, secs, tenths)
	}
	return fmt.Sprintf("%dm%02ds", minutes, secs)
}
