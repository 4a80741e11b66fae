package project

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/latticefx/motion/internal/model"
)

// audioDoc mirrors the on-disk audio feature table: one row per frame,
// produced by an analysis pipeline outside this module.
type audioDoc struct {
	Frames []struct {
		Amplitude        float64 `yaml:"amplitude" json:"amplitude"`
		Bass             float64 `yaml:"bass" json:"bass"`
		Mid              float64 `yaml:"mid" json:"mid"`
		High             float64 `yaml:"high" json:"high"`
		Beat             float64 `yaml:"beat" json:"beat"`
		SpectralCentroid float64 `yaml:"spectral_centroid" json:"spectral_centroid"`
	} `yaml:"frames" json:"frames"`
}

// LoadAudio reads a precomputed audio feature file (YAML or JSON).
func LoadAudio(path string) (*model.AudioFeatures, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, loadErr(ErrCodeNotFound, "", "audio feature file not found: %s", path)
		}
		return nil, loadErr(ErrCodeNotFound, "", "reading %s: %v", path, err)
	}

	var doc audioDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, loadErr(ErrCodeParse, "", "decoding %s: %v", path, err)
	}

	features := &model.AudioFeatures{Frames: make([]model.AudioFrame, len(doc.Frames))}
	for i, row := range doc.Frames {
		features.Frames[i] = model.AudioFrame{
			Amplitude:        row.Amplitude,
			Bass:             row.Bass,
			Mid:              row.Mid,
			High:             row.High,
			Beat:             row.Beat,
			SpectralCentroid: row.SpectralCentroid,
		}
	}
	return features, nil
}
