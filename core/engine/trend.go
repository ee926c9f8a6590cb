package engine

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// TrendView is the period granularity of a trend chart.
type TrendView string

const (
	ViewWeekly    TrendView = "weekly"
	ViewMonthly   TrendView = "monthly"
	ViewQuarterly TrendView = "quarterly"
	ViewYearly    TrendView = "yearly"
)

func ParseTrendView(raw string) (TrendView, bool) {
	switch TrendView(raw) {
	case ViewWeekly, ViewMonthly, ViewQuarterly, ViewYearly:
		return TrendView(raw), true
	}
	return "", false
}

// TrendGroup selects which dimension the series split on.
type TrendGroup string

const (
	GroupTotal   TrendGroup = "total"
	GroupJenis   TrendGroup = "jenis"
	GroupGrading TrendGroup = "grading"
	GroupSKP     TrendGroup = "skp"
	GroupMDP     TrendGroup = "mdp"
)

func ParseTrendGroup(raw string) (TrendGroup, bool) {
	switch TrendGroup(raw) {
	case GroupTotal, GroupJenis, GroupGrading, GroupSKP, GroupMDP:
		return TrendGroup(raw), true
	}
	return "", false
}

type TrendSeries struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Data  []int  `json:"data"`
}

// Trend is a gapless period axis with index-aligned series.
type Trend struct {
	Periods []string      `json:"periods"`
	Series  []TrendSeries `json:"series"`
}

// PeriodKey renders t as the canonical period label for a view:
// "2025-W03", "2025-01", "2025-Q1" or "2025".
func PeriodKey(t time.Time, view TrendView) string {
	switch view {
	case ViewWeekly:
		year, week := t.ISOWeek()
		return fmt.Sprintf("%d-W%02d", year, week)
	case ViewMonthly:
		return t.Format("2006-01")
	case ViewQuarterly:
		quarter := (int(t.Month())-1)/3 + 1
		return fmt.Sprintf("%d-Q%d", t.Year(), quarter)
	default:
		return t.Format("2006")
	}
}

func periodStart(t time.Time, view TrendView) time.Time {
	t = t.UTC()
	switch view {
	case ViewWeekly:
		// back up to Monday of the ISO week
		offset := (int(t.Weekday()) + 6) % 7
		d := t.AddDate(0, 0, -offset)
		return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
	case ViewMonthly:
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	case ViewQuarterly:
		firstMonth := time.Month(((int(t.Month())-1)/3)*3 + 1)
		return time.Date(t.Year(), firstMonth, 1, 0, 0, 0, 0, time.UTC)
	default:
		return time.Date(t.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
	}
}

func nextPeriod(t time.Time, view TrendView) time.Time {
	switch view {
	case ViewWeekly:
		return t.AddDate(0, 0, 7)
	case ViewMonthly:
		return t.AddDate(0, 1, 0)
	case ViewQuarterly:
		return t.AddDate(0, 3, 0)
	default:
		return t.AddDate(1, 0, 0)
	}
}

// BuildTrend bins incidents into a gapless period axis from the
// earliest to the latest usable occurrence time, splitting series by
// group. Draft reports are invisible. Records without a usable
// occurrence time are skipped; the count of skipped records is
// returned so callers can log it.
func BuildTrend(incidents []Incident, view TrendView, group TrendGroup, unitFilter string) (Trend, int) {
	var usable []Incident
	skipped := 0
	for _, inc := range incidents {
		if inc.Status == StatusDraft || !MatchUnit(inc.Unit, unitFilter) {
			continue
		}
		if inc.OccurredAt.IsZero() {
			skipped++
			continue
		}
		usable = append(usable, inc)
	}
	if len(usable) == 0 {
		return Trend{Periods: []string{}, Series: []TrendSeries{}}, skipped
	}

	earliest, latest := usable[0].OccurredAt, usable[0].OccurredAt
	for _, inc := range usable[1:] {
		if inc.OccurredAt.Before(earliest) {
			earliest = inc.OccurredAt
		}
		if inc.OccurredAt.After(latest) {
			latest = inc.OccurredAt
		}
	}

	var periods []string
	index := map[string]int{}
	for cursor := periodStart(earliest, view); !cursor.After(latest); cursor = nextPeriod(cursor, view) {
		key := PeriodKey(cursor, view)
		index[key] = len(periods)
		periods = append(periods, key)
	}

	counts := map[string][]int{}
	bump := func(seriesKey, period string) {
		idx, ok := index[period]
		if !ok {
			return
		}
		row, ok := counts[seriesKey]
		if !ok {
			row = make([]int, len(periods))
			counts[seriesKey] = row
		}
		row[idx]++
	}

	for _, inc := range usable {
		period := PeriodKey(inc.OccurredAt.UTC(), view)
		switch group {
		case GroupTotal:
			bump("total", period)
		case GroupJenis:
			if r := Reconcile(inc); r.HasFinal {
				bump(string(r.FinalCategory), period)
			}
		case GroupGrading:
			if inc.Grading != "" {
				bump(string(inc.Grading), period)
			}
		case GroupSKP:
			if r := Reconcile(inc); !r.SKPUnclassified {
				bump(r.SKPLabel, period)
			}
		case GroupMDP:
			if r := Reconcile(inc); !r.MDPUnclassified {
				bump(r.MDPLabel, period)
			}
		}
	}

	trend := Trend{Periods: periods, Series: make([]TrendSeries, 0, len(counts))}
	for _, key := range orderedSeriesKeys(group, counts) {
		trend.Series = append(trend.Series, TrendSeries{
			Key:   key,
			Label: seriesLabel(group, key),
			Data:  counts[key],
		})
	}
	return trend, skipped
}

// MergeCanonicalSeries fills in zero series for every canonical key the
// group knows but the data never produced, preserving canonical order.
func MergeCanonicalSeries(t Trend, group TrendGroup) Trend {
	universe := canonicalSeriesKeys(group)
	if universe == nil {
		return t
	}
	have := map[string][]int{}
	for _, s := range t.Series {
		have[s.Key] = s.Data
	}
	merged := make([]TrendSeries, 0, len(universe))
	for _, key := range universe {
		data, ok := have[key]
		if !ok {
			data = make([]int, len(t.Periods))
		}
		merged = append(merged, TrendSeries{Key: key, Label: seriesLabel(group, key), Data: data})
	}
	return Trend{Periods: t.Periods, Series: merged}
}

func canonicalSeriesKeys(group TrendGroup) []string {
	switch group {
	case GroupTotal:
		return []string{"total"}
	case GroupJenis:
		keys := make([]string, 0, 5)
		for _, c := range Categories() {
			keys = append(keys, string(c))
		}
		return keys
	case GroupGrading:
		keys := make([]string, 0, 4)
		for _, g := range Gradings() {
			keys = append(keys, string(g))
		}
		return keys
	case GroupSKP:
		return CanonicalSKPLabels()
	case GroupMDP:
		return CanonicalMDPLabels()
	}
	return nil
}

func orderedSeriesKeys(group TrendGroup, counts map[string][]int) []string {
	canonical := canonicalSeriesKeys(group)
	rank := make(map[string]int, len(canonical))
	for i, k := range canonical {
		rank[k] = i
	}
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		ri, iOK := rank[keys[i]]
		rj, jOK := rank[keys[j]]
		if iOK && jOK {
			return ri < rj
		}
		if iOK != jOK {
			return iOK
		}
		return keys[i] < keys[j]
	})
	return keys
}

func seriesLabel(group TrendGroup, key string) string {
	switch group {
	case GroupTotal:
		return "Total Insiden"
	case GroupJenis:
		if cat, ok := ParseCategory(key); ok {
			return CategoryLabel(cat)
		}
	case GroupGrading:
		if len(key) > 1 {
			return key[:1] + strings.ToLower(key[1:])
		}
	case GroupMDP:
		if desc := MDPDescription(key); desc != "" {
			return desc
		}
	}
	return key
}
