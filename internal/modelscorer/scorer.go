// Package modelscorer implements the ModelScorer contract:
// (feature_row, artifact_ref) -> probability. The actual model training
// routine (original_source/backend/app/services/modeling.py, sklearn/joblib)
// is explicitly out of scope; this package only needs to read a serialized
// artifact and evaluate it. No pack example repo imports a Go ML/stats
// library for anything like this, so the artifact format and evaluation are
// deliberately minimal and standard-library only, behind an interface that
// is the real contractual surface.
package modelscorer

import (
	"context"
	"encoding/json"
	"io"
	"math"
	"os"

	"github.com/boompicks/pickengine/internal/domain"
	"github.com/boompicks/pickengine/internal/features"
)

// Artifact is the opaque on-disk shape of a trained model: a logistic
// regression over the canonical feature order.
type Artifact struct {
	FeatureOrder []string  `json:"feature_order"`
	Weights      []float64 `json:"weights"`
	Bias         float64   `json:"bias"`
}

// Scorer evaluates a serialized Artifact against a feature record.
type Scorer struct{}

func New() *Scorer { return &Scorer{} }

// PredictHomeWinProbability loads the artifact at path and evaluates it on
// the feature row, returning a probability in [0, 1].
func (s *Scorer) PredictHomeWinProbability(ctx context.Context, row features.Record, artifactPath string) (float64, error) {
	f, err := os.Open(artifactPath)
	if err != nil {
		return 0, domain.ErrInternal("open model artifact", err)
	}
	defer f.Close()

	artifact, err := decodeArtifact(f)
	if err != nil {
		return 0, err
	}

	featureMap := row.Map()
	z := artifact.Bias
	for i, name := range artifact.FeatureOrder {
		if i >= len(artifact.Weights) {
			break
		}
		z += featureMap[name] * artifact.Weights[i]
	}
	return sigmoid(z), nil
}

func decodeArtifact(r io.Reader) (Artifact, error) {
	var a Artifact
	if err := json.NewDecoder(r).Decode(&a); err != nil {
		return Artifact{}, domain.ErrInternal("decode model artifact", err)
	}
	return a, nil
}

func sigmoid(z float64) float64 {
	return 1.0 / (1.0 + math.Exp(-z))
}
