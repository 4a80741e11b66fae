package project

import (
	"github.com/latticefx/motion/internal/model"
)

// validateProperty rejects keyframe data the sampler cannot interpolate.
// Rejection happens here, at load time; the evaluator never sees a property
// that would make sampling ill-defined.
func validateProperty(p *model.Property, path string) error {
	var prevFrame int
	var kind model.Kind

	for i, kf := range p.Keyframes {
		if kf.Value == nil {
			return loadErr(ErrCodeKeyframeData, path, "keyframe %d has no value", i)
		}
		if i == 0 {
			kind = kf.Value.Kind()
		} else {
			if kf.Frame <= prevFrame {
				return loadErr(ErrCodeKeyframeData, path,
					"keyframe frames must be strictly increasing: frame %d follows frame %d", kf.Frame, prevFrame)
			}
			if kf.Value.Kind() != kind {
				return loadErr(ErrCodeKeyframeData, path,
					"keyframe %d is %s, expected %s", i, kf.Value.Kind(), kind)
			}
		}
		prevFrame = kf.Frame

		if err := validateEase(kf.EaseOut, path, i, "ease_out"); err != nil {
			return err
		}
		if err := validateEase(kf.EaseIn, path, i, "ease_in"); err != nil {
			return err
		}
	}

	if len(p.Keyframes) > 0 && p.Default != nil && p.Default.Kind() != kind {
		return loadErr(ErrCodeKeyframeData, path,
			"default value is %s but keyframes are %s", p.Default.Kind(), kind)
	}

	return nil
}

// validateEase bounds the handle's time axis to the unit interval; the
// bezier solve is only defined for x in [0, 1]. The value axis is free
// (overshoot handles are legal).
func validateEase(e *model.Ease, path string, i int, which string) error {
	if e == nil {
		return nil
	}
	if e.X < 0 || e.X > 1 {
		return loadErr(ErrCodeKeyframeData, path,
			"keyframe %d %s: x must be in [0,1], got %v", i, which, e.X)
	}
	return nil
}
