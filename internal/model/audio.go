package model

// AudioFrame is one row of the precomputed audio feature table. The
// analysis pipeline that produces it (FFT, beat tracking, stem separation)
// lives outside this module; the evaluator only does array lookups.
type AudioFrame struct {
	Amplitude        float64 `json:"amplitude"`
	Bass             float64 `json:"bass"`
	Mid              float64 `json:"mid"`
	High             float64 `json:"high"`
	Beat             float64 `json:"beat"` // 1 on beat frames, else 0
	SpectralCentroid float64 `json:"spectral_centroid"`
}

// AudioFeatures is the frame-indexed feature table.
type AudioFeatures struct {
	Frames []AudioFrame
}

// At returns the features for a frame. Out-of-range frames (including a nil
// receiver: no audio at all) return the zero AudioFrame; features are never
// recomputed or extrapolated here.
func (a *AudioFeatures) At(frame int) AudioFrame {
	if a == nil || frame < 0 || frame >= len(a.Frames) {
		return AudioFrame{}
	}
	return a.Frames[frame]
}
