package domain

import (
	"math"
	"time"
)

// GoalType discriminates Objectives from Key Results.
type GoalType int

const (
	GoalObjective GoalType = 0
	GoalKeyResult GoalType = 1
)

// ValidGoalType reports whether t is a known goal type.
func ValidGoalType(t GoalType) bool {
	return t == GoalObjective || t == GoalKeyResult
}

// Goal is one node of the OKR hierarchy. Objectives are roots; Key Results
// reference their parent Objective via ParentID and carry measurable
// current/target values.
type Goal struct {
	ID           string     `json:"id"`
	OrgID        string     `json:"orgId"`
	GoalType     GoalType   `json:"goalType"`
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	ParentID     string     `json:"parentId,omitempty"`
	CurrentValue float64    `json:"currentValue"`
	TargetValue  float64    `json:"targetValue"`
	Unit         string     `json:"unit,omitempty"`
	Status       string     `json:"status"`
	DueAt        *time.Time `json:"dueAt,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`

	// Progress is the computed percentage (0-100). For Key Results it is
	// derived from current/target; for Objectives it is the mean over
	// child Key Results. Never stored.
	Progress int `json:"progress"`

	// KeyResults is populated on Objective detail reads.
	KeyResults []*Goal `json:"keyResults,omitempty"`
}

// ProgressRatio returns the completion ratio of a Key Result clamped to
// [0, 1]. A non-positive target counts as no progress.
func (g *Goal) ProgressRatio() float64 {
	if g.TargetValue <= 0 {
		return 0
	}
	r := g.CurrentValue / g.TargetValue
	if r < 0 {
		return 0
	}
	if r > 1 {
		return 1
	}
	return r
}

// ProgressPercent returns the Key Result's percentage (0-100), rounded the
// same way Objective and overall aggregates are.
func (g *Goal) ProgressPercent() int {
	return int(math.Round(g.ProgressRatio() * 100))
}

// ObjectiveProgress computes an Objective's percentage as the mean of its
// Key Results' ratios. An Objective with no Key Results is at 0.
func ObjectiveProgress(keyResults []*Goal) int {
	if len(keyResults) == 0 {
		return 0
	}
	var sum float64
	for _, kr := range keyResults {
		sum += kr.ProgressRatio()
	}
	return int(math.Round(sum / float64(len(keyResults)) * 100))
}

// OverallProgress computes the organization-wide percentage as the mean of
// the Objectives' progress values.
func OverallProgress(objectiveProgress []int) int {
	if len(objectiveProgress) == 0 {
		return 0
	}
	sum := 0
	for _, p := range objectiveProgress {
		sum += p
	}
	return int(math.Round(float64(sum) / float64(len(objectiveProgress))))
}
