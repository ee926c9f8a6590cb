package engine

import "testing"

func TestReconcile_QualityWinsOverUnitWinsOverPrediction(t *testing.T) {
	inc := Incident{
		Status:    StatusMutuReviewed,
		Predicted: Classification{Category: "KTD", SKPCode: "1", MDPCode: "2"},
		PJ:        Classification{Category: "KNC", SKPCode: "3"},
		Mutu:      Classification{Category: "KTC"},
	}
	r := Reconcile(inc)
	if !r.HasFinal || r.FinalCategory != CategoryKTC {
		t.Fatalf("final = %q (has=%v), want KTC", r.FinalCategory, r.HasFinal)
	}
	// mutu is silent on SKP/MDP, so the lower layers fill in
	if r.SKPLabel != "SKP 3" || r.SKPUnclassified {
		t.Fatalf("skp = %q unclassified=%v", r.SKPLabel, r.SKPUnclassified)
	}
	if r.MDPLabel != "MDP 2" || r.MDPUnclassified {
		t.Fatalf("mdp = %q unclassified=%v", r.MDPLabel, r.MDPUnclassified)
	}
}

func TestReconcile_FallsThroughPerField(t *testing.T) {
	inc := Incident{
		Status:    StatusPJReviewed,
		Predicted: Classification{Category: "SENTINEL"},
		PJ:        Classification{SKPCode: "skp5"},
	}
	r := Reconcile(inc)
	if r.FinalCategory != CategorySentinel {
		t.Fatalf("final = %q", r.FinalCategory)
	}
	if r.SKPLabel != "SKP 5" || r.SKPUnclassified {
		t.Fatalf("skp = %q unclassified=%v", r.SKPLabel, r.SKPUnclassified)
	}
	if !r.MDPUnclassified || r.MDPLabel != "MDP 1" {
		t.Fatalf("mdp = %q unclassified=%v, want unclassified default", r.MDPLabel, r.MDPUnclassified)
	}
}

func TestReconcile_DraftMaterializesNothing(t *testing.T) {
	inc := Incident{
		Status:    StatusDraft,
		Predicted: Classification{Category: "KTD", SKPCode: "2", MDPCode: "9"},
	}
	r := Reconcile(inc)
	if r.HasFinal {
		t.Fatalf("draft reconciled to %q", r.FinalCategory)
	}
	if !r.SKPUnclassified || !r.MDPUnclassified {
		t.Fatalf("draft codes must stay unclassified: %+v", r)
	}
}

func TestReconcile_IgnoresUnknownCategorySpellings(t *testing.T) {
	inc := Incident{
		Status:    StatusSubmitted,
		Predicted: Classification{Category: "KTD"},
		Mutu:      Classification{Category: "whatever"},
	}
	r := Reconcile(inc)
	if r.FinalCategory != CategoryKTD {
		t.Fatalf("final = %q, want prediction to win over garbage", r.FinalCategory)
	}
}

func TestNormalizeCode(t *testing.T) {
	cases := []struct {
		raw          string
		want         string
		unclassified bool
	}{
		{"3", "SKP 3", false},
		{"skp3", "SKP 3", false},
		{"SKP 3", "SKP 3", false},
		{"skp 03", "SKP 3", false},
		{"mdp12", "SKP 12", false},
		{"", "SKP 1", true},
		{"   ", "SKP 1", true},
		{"none", "SKP 1", true},
		{"skp0", "SKP 1", true},
	}
	for _, tc := range cases {
		got, unclassified := NormalizeCode("SKP", tc.raw)
		if got != tc.want || unclassified != tc.unclassified {
			t.Fatalf("NormalizeCode(SKP, %q) = %q/%v, want %q/%v", tc.raw, got, unclassified, tc.want, tc.unclassified)
		}
	}
}
