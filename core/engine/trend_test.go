package engine

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestPeriodKey(t *testing.T) {
	jan1 := time.Date(2025, time.January, 1, 12, 0, 0, 0, time.UTC)
	cases := []struct {
		t    time.Time
		view TrendView
		want string
	}{
		{time.Date(2025, time.January, 13, 0, 0, 0, 0, time.UTC), ViewWeekly, "2025-W03"},
		// Jan 1 2027 falls in ISO week 53 of 2026
		{time.Date(2027, time.January, 1, 0, 0, 0, 0, time.UTC), ViewWeekly, "2026-W53"},
		{jan1, ViewMonthly, "2025-01"},
		{jan1, ViewQuarterly, "2025-Q1"},
		{time.Date(2025, time.May, 20, 0, 0, 0, 0, time.UTC), ViewQuarterly, "2025-Q2"},
		{time.Date(2025, time.December, 31, 0, 0, 0, 0, time.UTC), ViewQuarterly, "2025-Q4"},
		{jan1, ViewYearly, "2025"},
	}
	for _, tc := range cases {
		if got := PeriodKey(tc.t, tc.view); got != tc.want {
			t.Fatalf("PeriodKey(%s, %s) = %q, want %q", tc.t, tc.view, got, tc.want)
		}
	}
}

func TestBuildTrend_MonthlyAxisIsGapless(t *testing.T) {
	incidents := []Incident{
		{ID: 1, Unit: "IGD", Status: StatusSubmitted,
			OccurredAt: time.Date(2025, time.January, 15, 0, 0, 0, 0, time.UTC)},
		{ID: 2, Unit: "IGD", Status: StatusSubmitted,
			OccurredAt: time.Date(2025, time.April, 2, 0, 0, 0, 0, time.UTC)},
	}
	trend, skipped := BuildTrend(incidents, ViewMonthly, GroupTotal, "all")
	if skipped != 0 {
		t.Fatalf("skipped = %d", skipped)
	}
	wantPeriods := []string{"2025-01", "2025-02", "2025-03", "2025-04"}
	if diff := cmp.Diff(wantPeriods, trend.Periods); diff != "" {
		t.Fatalf("periods mismatch (-want +got):\n%s", diff)
	}
	if len(trend.Series) != 1 || trend.Series[0].Key != "total" || trend.Series[0].Label != "Total Insiden" {
		t.Fatalf("series = %+v", trend.Series)
	}
	if diff := cmp.Diff([]int{1, 0, 0, 1}, trend.Series[0].Data); diff != "" {
		t.Fatalf("data mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildTrend_WeeklyCrossesYearBoundary(t *testing.T) {
	incidents := []Incident{
		{ID: 1, Unit: "IGD", Status: StatusSubmitted,
			OccurredAt: time.Date(2024, time.December, 23, 0, 0, 0, 0, time.UTC)}, // 2024-W52
		{ID: 2, Unit: "IGD", Status: StatusSubmitted,
			OccurredAt: time.Date(2025, time.January, 8, 0, 0, 0, 0, time.UTC)}, // 2025-W02
	}
	trend, _ := BuildTrend(incidents, ViewWeekly, GroupTotal, "all")
	wantPeriods := []string{"2024-W52", "2025-W01", "2025-W02"}
	if diff := cmp.Diff(wantPeriods, trend.Periods); diff != "" {
		t.Fatalf("periods mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{1, 0, 1}, trend.Series[0].Data); diff != "" {
		t.Fatalf("data mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildTrend_GroupsByReconciledCategory(t *testing.T) {
	march := time.Date(2025, time.March, 5, 0, 0, 0, 0, time.UTC)
	incidents := []Incident{
		{ID: 1, Unit: "IGD", Status: StatusSubmitted, OccurredAt: march,
			Predicted: Classification{Category: "KTD"}},
		{ID: 2, Unit: "IGD", Status: StatusMutuReviewed, OccurredAt: march,
			Predicted: Classification{Category: "KTD"},
			Mutu:      Classification{Category: "KNC"}},
	}
	trend, _ := BuildTrend(incidents, ViewMonthly, GroupJenis, "all")
	got := map[string][]int{}
	for _, s := range trend.Series {
		got[s.Key] = s.Data
	}
	want := map[string][]int{"KTD": {1}, "KNC": {1}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("series mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildTrend_SkipsUnusableOccurredAt(t *testing.T) {
	incidents := []Incident{
		{ID: 1, Unit: "IGD", Status: StatusSubmitted,
			OccurredAt: time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)},
		{ID: 2, Unit: "IGD", Status: StatusSubmitted}, // zero OccurredAt
	}
	trend, skipped := BuildTrend(incidents, ViewYearly, GroupTotal, "all")
	if skipped != 1 {
		t.Fatalf("skipped = %d, want 1", skipped)
	}
	if diff := cmp.Diff([]string{"2025"}, trend.Periods); diff != "" {
		t.Fatalf("periods mismatch (-want +got):\n%s", diff)
	}
	if trend.Series[0].Data[0] != 1 {
		t.Fatalf("data = %v", trend.Series[0].Data)
	}
}

func TestBuildTrend_EmptyInput(t *testing.T) {
	trend, skipped := BuildTrend(nil, ViewMonthly, GroupTotal, "all")
	if skipped != 0 || len(trend.Periods) != 0 || len(trend.Series) != 0 {
		t.Fatalf("trend = %+v skipped = %d", trend, skipped)
	}
}

func TestMergeCanonicalSeries(t *testing.T) {
	trend := Trend{
		Periods: []string{"2025-01", "2025-02"},
		Series:  []TrendSeries{{Key: "KNC", Label: CategoryLabel(CategoryKNC), Data: []int{0, 2}}},
	}
	merged := MergeCanonicalSeries(trend, GroupJenis)
	if len(merged.Series) != 5 {
		t.Fatalf("series = %d, want full category universe", len(merged.Series))
	}
	wantOrder := []string{"KTD", "KTC", "KNC", "KPCS", "SENTINEL"}
	for i, s := range merged.Series {
		if s.Key != wantOrder[i] {
			t.Fatalf("series[%d] = %q, want %q", i, s.Key, wantOrder[i])
		}
		if len(s.Data) != 2 {
			t.Fatalf("series %q not aligned to periods: %v", s.Key, s.Data)
		}
	}
	if merged.Series[2].Data[1] != 2 {
		t.Fatalf("observed data lost in merge: %v", merged.Series[2].Data)
	}
	grading := MergeCanonicalSeries(Trend{Periods: []string{"2025"}}, GroupGrading)
	if len(grading.Series) != 4 || grading.Series[3].Key != "MERAH" || grading.Series[3].Label != "Merah" {
		t.Fatalf("grading series = %+v", grading.Series)
	}
}
