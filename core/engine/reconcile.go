package engine

import (
	"strconv"
	"strings"
)

// Reconciliation is the effective classification of an incident after
// merging the quality review, the unit review and the model prediction.
// Quality review wins over unit review wins over prediction, per field.
type Reconciliation struct {
	FinalCategory   Category
	HasFinal        bool
	SKPLabel        string
	SKPUnclassified bool
	MDPLabel        string
	MDPUnclassified bool
}

// Reconcile merges the three classification layers of an incident.
// Draft incidents reconcile to nothing; no field is materialized before
// the report is submitted.
func Reconcile(inc Incident) Reconciliation {
	var r Reconciliation
	if inc.Status == StatusDraft {
		r.SKPLabel, r.SKPUnclassified = NormalizeCode("SKP", "")
		r.MDPLabel, r.MDPUnclassified = NormalizeCode("MDP", "")
		return r
	}
	for _, raw := range []string{inc.Mutu.Category, inc.PJ.Category, inc.Predicted.Category} {
		if cat, ok := ParseCategory(strings.TrimSpace(raw)); ok {
			r.FinalCategory = cat
			r.HasFinal = true
			break
		}
	}
	r.SKPLabel, r.SKPUnclassified = NormalizeCode("SKP", firstNonEmpty(inc.Mutu.SKPCode, inc.PJ.SKPCode, inc.Predicted.SKPCode))
	r.MDPLabel, r.MDPUnclassified = NormalizeCode("MDP", firstNonEmpty(inc.Mutu.MDPCode, inc.PJ.MDPCode, inc.Predicted.MDPCode))
	return r
}

// NormalizeCode turns raw code spellings ("3", "skp3", "SKP 3", "mdp 12")
// into the canonical "<PREFIX> <n>" label. A missing or unparsable code
// normalizes to index 1 with the unclassified flag set.
func NormalizeCode(prefix, raw string) (string, bool) {
	digits := firstDigitRun(strings.TrimSpace(raw))
	if digits == "" {
		return prefix + " 1", true
	}
	n, err := strconv.Atoi(digits)
	if err != nil || n < 1 {
		return prefix + " 1", true
	}
	return prefix + " " + strconv.Itoa(n), false
}

func firstDigitRun(s string) string {
	start := -1
	for i, ch := range s {
		if ch >= '0' && ch <= '9' {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			return s[start:i]
		}
	}
	if start >= 0 {
		return s[start:]
	}
	return ""
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
