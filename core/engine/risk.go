package engine

import "strings"

// RiskLevel is the canonical hospital risk scale, ascending.
type RiskLevel string

const (
	RiskRendah  RiskLevel = "rendah"
	RiskModerat RiskLevel = "moderat"
	RiskTinggi  RiskLevel = "tinggi"
	RiskEkstrem RiskLevel = "ekstrem"
)

// ExtremeRecommendation is the mandatory follow-up attached to every
// ekstrem-rated entity.
const ExtremeRecommendation = "Risiko ekstrem, dilakukan RCA paling lama 45 hari, membutuhkan tindakan segera, perhatian sampai ke Direktur."

// NormalizeRisk folds upstream spellings onto the canonical scale.
// "sedang" is an alias of moderat; "tidak tersedia" and anything
// unrecognized render as rendah so dashboards never show a hole.
func NormalizeRisk(label string) RiskLevel {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "ekstrem":
		return RiskEkstrem
	case "tinggi":
		return RiskTinggi
	case "moderat", "sedang":
		return RiskModerat
	default:
		return RiskRendah
	}
}

// Severity orders levels: rendah 0 .. ekstrem 3.
func (l RiskLevel) Severity() int {
	switch l {
	case RiskEkstrem:
		return 3
	case RiskTinggi:
		return 2
	case RiskModerat:
		return 1
	default:
		return 0
	}
}

func MaxRisk(a, b RiskLevel) RiskLevel {
	if b.Severity() > a.Severity() {
		return b
	}
	return a
}

// RiskPolicy is the fixed display policy for a level.
type RiskPolicy struct {
	Level          RiskLevel `json:"level"`
	Title          string    `json:"title"`
	Band           string    `json:"band"`
	Recommendation string    `json:"recommendation,omitempty"`
}

// PolicyFor returns the display policy for a normalized level. Only
// ekstrem carries a recommendation.
func PolicyFor(level RiskLevel) RiskPolicy {
	switch level {
	case RiskEkstrem:
		return RiskPolicy{Level: RiskEkstrem, Title: "Risiko Ekstrem", Band: "merah", Recommendation: ExtremeRecommendation}
	case RiskTinggi:
		return RiskPolicy{Level: RiskTinggi, Title: "Risiko Tinggi", Band: "kuning"}
	case RiskModerat:
		return RiskPolicy{Level: RiskModerat, Title: "Risiko Moderat", Band: "hijau"}
	default:
		return RiskPolicy{Level: RiskRendah, Title: "Risiko Rendah", Band: "biru"}
	}
}
