package classify

import (
	"context"
	"strings"
)

// Classifier predicts a category from an incident narrative. fields
// carries side-channel inputs such as the reporting department.
type Classifier interface {
	Classify(ctx context.Context, narrative string, fields map[string]string) (Prediction, error)
}

// Heuristic is the keyword fallback used when no model is deployed.
// Fall narratives grade as KTD, medication ones as KNC, everything
// else as KTC with low confidence.
type Heuristic struct {
	Version string
}

func (h Heuristic) Classify(_ context.Context, narrative string, _ map[string]string) (Prediction, error) {
	lower := strings.ToLower(narrative)
	p := Prediction{ModelVersion: h.Version}
	switch {
	case strings.Contains(lower, "jatuh") || strings.Contains(lower, "fall"):
		p.Category = "KTD"
		p.Confidence = 0.6
	case strings.Contains(lower, "med") || strings.Contains(lower, "obat"):
		p.Category = "KNC"
		p.Confidence = 0.55
	default:
		p.Category = "KTC"
		p.Confidence = 0.5
	}
	return p, nil
}
