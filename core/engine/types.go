package engine

import "time"

// Status of an incident report in the review workflow.
type Status string

const (
	StatusDraft        Status = "DRAFT"
	StatusSubmitted    Status = "SUBMITTED"
	StatusPJReviewed   Status = "PJ_REVIEWED"
	StatusMutuReviewed Status = "MUTU_REVIEWED"
	StatusClosed       Status = "CLOSED"
)

// Category is the accreditation incident category.
type Category string

const (
	CategoryKTD      Category = "KTD"
	CategoryKTC      Category = "KTC"
	CategoryKNC      Category = "KNC"
	CategoryKPCS     Category = "KPCS"
	CategorySentinel Category = "SENTINEL"
)

// Categories in canonical display order.
func Categories() []Category {
	return []Category{CategoryKTD, CategoryKTC, CategoryKNC, CategoryKPCS, CategorySentinel}
}

func ParseCategory(raw string) (Category, bool) {
	switch Category(raw) {
	case CategoryKTD, CategoryKTC, CategoryKNC, CategoryKPCS, CategorySentinel:
		return Category(raw), true
	}
	return "", false
}

// Classification is one layer of category/SKP/MDP opinion about an
// incident: the model prediction, the unit review or the quality review.
// Empty fields mean the layer is silent on that field.
type Classification struct {
	Category string
	SKPCode  string
	MDPCode  string
}

// Incident is the read model the aggregation engine folds over. It is
// deliberately detached from storage so the fold stays pure.
type Incident struct {
	ID         int64
	Unit       string
	Status     Status
	OccurredAt time.Time
	Grading    Grading
	Predicted  Classification
	PJ         Classification
	Mutu       Classification
}
