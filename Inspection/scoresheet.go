package Inspection

import (
	"strconv"
	"strings"
)

// Scoring rules for the annual vehicle check. A vehicle passes when the
// total reaches MinPassingTotal and no single item scores below
// MinPassingItemScore. One bad item fails the whole inspection no matter
// how high the total is.
const (
	CheckItemCount      = 8
	MaxItemScore        = 10
	MaxTotalScore       = CheckItemCount * MaxItemScore
	MinPassingTotal     = 40
	MinPassingItemScore = 5
)

// ScoreSheet holds one score per check item, indexed by template ordinal
// (1..CheckItemCount). A sheet always carries exactly CheckItemCount
// entries; items never scored stay at 0.
type ScoreSheet struct {
	scores [CheckItemCount]int
}

func NewScoreSheet() *ScoreSheet {
	return &ScoreSheet{}
}

// SetScore records the score for the item at the given ordinal. Values are
// clamped to the 0..10 range instead of rejected, matching the permissive
// data entry on the scoring form. Ordinals outside the checklist are
// ignored.
func (s *ScoreSheet) SetScore(ordinal int, value int) {
	if ordinal < 1 || ordinal > CheckItemCount {
		return
	}
	if value < 0 {
		value = 0
	}
	if value > MaxItemScore {
		value = MaxItemScore
	}
	s.scores[ordinal-1] = value
}

// SetRawScore records free-form input for the item at the given ordinal.
// Non-numeric input coerces to 0, then the usual clamping applies.
func (s *ScoreSheet) SetRawScore(ordinal int, raw string) {
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		value = 0
	}
	s.SetScore(ordinal, value)
}

// Reset returns every item to 0, ready for a new scoring session.
func (s *ScoreSheet) Reset() {
	s.scores = [CheckItemCount]int{}
}

// Score returns the recorded score for an ordinal, 0 for ordinals outside
// the checklist.
func (s *ScoreSheet) Score(ordinal int) int {
	if ordinal < 1 || ordinal > CheckItemCount {
		return 0
	}
	return s.scores[ordinal-1]
}

// Scores returns all item scores ordered by ordinal.
func (s *ScoreSheet) Scores() []int {
	out := make([]int, CheckItemCount)
	copy(out, s.scores[:])
	return out
}

func (s *ScoreSheet) TotalScore() int {
	total := 0
	for _, v := range s.scores {
		total += v
	}
	return total
}

// HasFailingItem reports whether any single item scored below the
// per-item floor.
func (s *ScoreSheet) HasFailingItem() bool {
	for _, v := range s.scores {
		if v < MinPassingItemScore {
			return true
		}
	}
	return false
}

// IsPassed applies the acceptance rule: the total must reach
// MinPassingTotal AND no item may sit below MinPassingItemScore. A high
// total cannot compensate for one failing item.
func (s *ScoreSheet) IsPassed() bool {
	return s.TotalScore() >= MinPassingTotal && !s.HasFailingItem()
}

// Verdict is the computed outcome of a score sheet, shaped for API
// responses and confirmation messaging.
type Verdict struct {
	TotalScore     int    `json:"total_score"`
	HasFailingItem bool   `json:"has_failing_item"`
	Passed         bool   `json:"passed"`
	Reason         string `json:"reason,omitempty"`
}

// Verdict derives the pass/fail outcome. Reason explains the verdict when
// a failing item forces a rejection, even when the total alone would pass.
func (s *ScoreSheet) Verdict() Verdict {
	v := Verdict{
		TotalScore:     s.TotalScore(),
		HasFailingItem: s.HasFailingItem(),
		Passed:         s.IsPassed(),
	}
	if v.HasFailingItem {
		v.Reason = "at least one check item scored below the minimum of " + strconv.Itoa(MinPassingItemScore)
	} else if !v.Passed {
		v.Reason = "total score below the passing mark of " + strconv.Itoa(MinPassingTotal)
	}
	return v
}
