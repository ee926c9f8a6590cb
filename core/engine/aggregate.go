package engine

import (
	"sort"
	"strings"
)

// UnitRisk is one escalated department in the dashboard risk list.
type UnitRisk struct {
	Name           string    `json:"name"`
	Level          RiskLevel `json:"level"`
	Recommendation string    `json:"recommendation,omitempty"`
}

// Aggregate is the dashboard fold over a set of incidents.
type Aggregate struct {
	TotalCount        int              `json:"total_insiden"`
	CategoryCounts    map[Category]int `json:"jenis_kejadian"`
	SKPCounts         map[string]int   `json:"skp"`
	MDPCounts         map[string]int   `json:"mdp"`
	HospitalRiskLevel RiskLevel        `json:"hospital_risk"`
	UnitRiskLevels    []UnitRisk       `json:"units_risk"`
}

// MatchUnit reports whether an incident in unit belongs to the filter.
// Empty filter and the "all" sentinel match everything; otherwise the
// comparison is case-insensitive.
func MatchUnit(unit, filter string) bool {
	f := strings.TrimSpace(filter)
	if f == "" || strings.EqualFold(f, "all") {
		return true
	}
	return strings.EqualFold(strings.TrimSpace(unit), f)
}

// BuildAggregate folds incidents into dashboard counters. Draft reports
// are invisible. The fold is a pure function of the incident set, so
// input order never changes the result.
func BuildAggregate(incidents []Incident, unitFilter string) Aggregate {
	agg := Aggregate{
		CategoryCounts:    map[Category]int{},
		SKPCounts:         map[string]int{},
		MDPCounts:         map[string]int{},
		HospitalRiskLevel: RiskRendah,
	}
	for _, c := range Categories() {
		agg.CategoryCounts[c] = 0
	}

	unitLevels := map[string]RiskLevel{}
	for _, inc := range incidents {
		if inc.Status == StatusDraft || !MatchUnit(inc.Unit, unitFilter) {
			continue
		}
		agg.TotalCount++

		r := Reconcile(inc)
		if r.HasFinal {
			agg.CategoryCounts[r.FinalCategory]++
		}
		if !r.SKPUnclassified {
			agg.SKPCounts[r.SKPLabel]++
		}
		if !r.MDPUnclassified {
			agg.MDPCounts[r.MDPLabel]++
		}

		level := NormalizeRisk(inc.Grading.RiskLabel())
		agg.HospitalRiskLevel = MaxRisk(agg.HospitalRiskLevel, level)
		unit := strings.TrimSpace(inc.Unit)
		if unit != "" {
			unitLevels[unit] = MaxRisk(unitLevels[unit], level)
		}
	}

	for unit, level := range unitLevels {
		if level.Severity() < RiskTinggi.Severity() {
			continue
		}
		agg.UnitRiskLevels = append(agg.UnitRiskLevels, UnitRisk{
			Name:           unit,
			Level:          level,
			Recommendation: PolicyFor(level).Recommendation,
		})
	}
	sort.Slice(agg.UnitRiskLevels, func(i, j int) bool {
		a, b := agg.UnitRiskLevels[i], agg.UnitRiskLevels[j]
		if a.Level.Severity() != b.Level.Severity() {
			return a.Level.Severity() > b.Level.Severity()
		}
		return a.Name < b.Name
	})
	return agg
}

// MergeSKPCounts overlays observed counts onto the full SKP universe.
func MergeSKPCounts(observed map[string]int) map[string]int {
	return mergeCounts(CanonicalSKPLabels(), observed)
}

// MergeMDPCounts overlays observed counts onto the full MDP universe.
func MergeMDPCounts(observed map[string]int) map[string]int {
	return mergeCounts(CanonicalMDPLabels(), observed)
}

func mergeCounts(universe []string, observed map[string]int) map[string]int {
	out := make(map[string]int, len(universe))
	for _, k := range universe {
		out[k] = 0
	}
	for k, v := range observed {
		out[k] += v
	}
	return out
}
