package engine

import "strings"

// Grading is the color band from the 5x5 risk grading matrix.
type Grading string

const (
	GradingBiru   Grading = "BIRU"
	GradingHijau  Grading = "HIJAU"
	GradingKuning Grading = "KUNING"
	GradingMerah  Grading = "MERAH"
)

func Gradings() []Grading {
	return []Grading{GradingBiru, GradingHijau, GradingKuning, GradingMerah}
}

// RiskLabel maps a grading band to the label the dashboards speak.
// An ungraded incident reports "tidak tersedia".
func (g Grading) RiskLabel() string {
	switch g {
	case GradingMerah:
		return "ekstrem"
	case GradingKuning:
		return "tinggi"
	case GradingHijau:
		return "sedang"
	case GradingBiru:
		return "rendah"
	}
	return "tidak tersedia"
}

// FrequencyToProbability bands the monthly incident count of a
// department into the 1..5 probability axis of the grading matrix.
func FrequencyToProbability(monthlyCount int) int {
	switch {
	case monthlyCount <= 0:
		return 1
	case monthlyCount == 1:
		return 3
	case monthlyCount <= 3:
		return 4
	default:
		return 5
	}
}

// HarmToSeverity reads the free-text harm indicator into the 1..5
// severity axis, worst keyword first. Returns 0 when nothing matches.
func HarmToSeverity(harm string) int {
	h := strings.ToLower(strings.TrimSpace(harm))
	if h == "" {
		return 0
	}
	switch {
	case containsAny(h, "kematian"):
		return 5
	case containsAny(h, "irreversible", "luas", "berat", "cacat", "lumpuh", "kehilangan"):
		return 4
	case containsAny(h, "reversible", "berkurangnya", "robek"):
		return 3
	case containsAny(h, "ringan"):
		return 2
	case containsAny(h, "tidak ada cedera", "tidak ada cidera"):
		return 1
	}
	return 0
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// gradingMatrix[probability][severity], both axes 1..5.
var gradingMatrix = [6][6]Grading{
	1: {0: "", 1: GradingBiru, 2: GradingBiru, 3: GradingHijau, 4: GradingKuning, 5: GradingMerah},
	2: {0: "", 1: GradingBiru, 2: GradingBiru, 3: GradingHijau, 4: GradingKuning, 5: GradingMerah},
	3: {0: "", 1: GradingBiru, 2: GradingHijau, 3: GradingKuning, 4: GradingMerah, 5: GradingMerah},
	4: {0: "", 1: GradingHijau, 2: GradingHijau, 3: GradingKuning, 4: GradingMerah, 5: GradingMerah},
	5: {0: "", 1: GradingHijau, 2: GradingHijau, 3: GradingKuning, 4: GradingMerah, 5: GradingMerah},
}

// MatrixGrade resolves probability x severity on the 5x5 band matrix.
// Either axis outside 1..5 means the incident cannot be graded yet.
func MatrixGrade(probability, severity int) Grading {
	if probability < 1 || probability > 5 || severity < 1 || severity > 5 {
		return ""
	}
	return gradingMatrix[probability][severity]
}
