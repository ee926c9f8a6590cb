package classify

import (
	"github.com/yusufekamaulana/rsua-akreditasi/config"
	"github.com/yusufekamaulana/rsua-akreditasi/core/utils"
)

// Prediction is the classifier's opinion about a narrative.
type Prediction struct {
	Category     string  `json:"category"`
	Confidence   float64 `json:"confidence"`
	ModelVersion string  `json:"model_version"`
	SKPCode      string  `json:"skp,omitempty"`
	MDPCode      string  `json:"mdp,omitempty"`
}

// New picks the remote classifier when a URL is configured and the
// keyword heuristic otherwise.
func New(cfg *config.ClassifierConfig, logger *utils.Logger) Classifier {
	if cfg != nil && cfg.URL != "" {
		logger.Printf("classify: using remote classifier at %s", cfg.URL)
		return NewRemote(cfg)
	}
	logger.Printf("classify: no remote classifier configured, using heuristic")
	return Heuristic{Version: fallbackVersion(cfg)}
}

func fallbackVersion(cfg *config.ClassifierConfig) string {
	if cfg != nil && cfg.FallbackVersion != "" {
		return cfg.FallbackVersion
	}
	return "heuristic-v1"
}
