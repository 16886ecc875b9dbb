package Inspection

import "testing"

func TestSetScoreClamps(t *testing.T) {
	cases := []struct {
		name  string
		value int
		want  int
	}{
		{"negative clamps to zero", -5, 0},
		{"above max clamps to ten", 15, 10},
		{"zero stays", 0, 0},
		{"max stays", 10, 10},
		{"in range stays", 7, 7},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			sheet := NewScoreSheet()
			sheet.SetScore(1, tc.value)
			if got := sheet.Score(1); got != tc.want {
				t.Fatalf("SetScore(1, %d): got %d, want %d", tc.value, got, tc.want)
			}
		})
	}
}

func TestSetRawScoreCoercion(t *testing.T) {
	cases := []struct {
		raw  string
		want int
	}{
		{"abc", 0},
		{"", 0},
		{"  7 ", 7},
		{"15", 10},
		{"-5", 0},
		{"10", 10},
	}
	for _, tc := range cases {
		sheet := NewScoreSheet()
		sheet.SetRawScore(3, tc.raw)
		if got := sheet.Score(3); got != tc.want {
			t.Fatalf("SetRawScore(3, %q): got %d, want %d", tc.raw, got, tc.want)
		}
	}
}

func TestOrdinalsOutsideChecklistIgnored(t *testing.T) {
	sheet := NewScoreSheet()
	sheet.SetScore(0, 9)
	sheet.SetScore(9, 9)
	sheet.SetScore(-1, 9)
	if got := sheet.TotalScore(); got != 0 {
		t.Fatalf("out of range ordinals changed the total: got %d, want 0", got)
	}
	if got := len(sheet.Scores()); got != CheckItemCount {
		t.Fatalf("sheet has %d entries, want %d", got, CheckItemCount)
	}
}

func TestResetZeroesEverything(t *testing.T) {
	sheet := NewScoreSheet()
	for i := 1; i <= CheckItemCount; i++ {
		sheet.SetScore(i, 10)
	}
	if sheet.TotalScore() != MaxTotalScore {
		t.Fatalf("setup failed, total %d", sheet.TotalScore())
	}
	sheet.Reset()
	if got := sheet.TotalScore(); got != 0 {
		t.Fatalf("total after Reset: got %d, want 0", got)
	}
}

func fillSheet(t *testing.T, scores []int) *ScoreSheet {
	t.Helper()
	if len(scores) != CheckItemCount {
		t.Fatalf("test scores must have %d entries, got %d", CheckItemCount, len(scores))
	}
	sheet := NewScoreSheet()
	for i, v := range scores {
		sheet.SetScore(i+1, v)
	}
	return sheet
}

func TestVerdictRules(t *testing.T) {
	cases := []struct {
		name       string
		scores     []int
		wantTotal  int
		wantPassed bool
	}{
		{"all tens passes", []int{10, 10, 10, 10, 10, 10, 10, 10}, 80, true},
		{"one failing item vetoes a high total", []int{10, 10, 10, 10, 10, 10, 10, 4}, 74, false},
		{"all fives hits the boundary and passes", []int{5, 5, 5, 5, 5, 5, 5, 5}, 40, true},
		{"thirty nine fails on both rules", []int{5, 5, 5, 5, 5, 5, 5, 4}, 39, false},
		{"solid scores pass", []int{8, 7, 9, 8, 7, 8, 9, 9}, 65, true},
		{"high average with one weak item fails", []int{9, 9, 9, 9, 9, 9, 9, 3}, 66, false},
		{"untouched sheet fails", []int{0, 0, 0, 0, 0, 0, 0, 0}, 0, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			sheet := fillSheet(t, tc.scores)
			if got := sheet.TotalScore(); got != tc.wantTotal {
				t.Fatalf("TotalScore: got %d, want %d", got, tc.wantTotal)
			}
			if got := sheet.IsPassed(); got != tc.wantPassed {
				t.Fatalf("IsPassed for %v: got %v, want %v", tc.scores, got, tc.wantPassed)
			}
		})
	}
}

func TestPassRequiresBothConditions(t *testing.T) {
	// Every assignment with all items at the floor or above and a total at
	// the mark or above must pass, regardless of how the points spread.
	passing := [][]int{
		{5, 5, 5, 5, 5, 5, 5, 5},
		{10, 5, 5, 5, 5, 5, 5, 5},
		{6, 6, 6, 6, 6, 6, 6, 6},
		{10, 10, 10, 10, 5, 5, 5, 5},
	}
	for _, scores := range passing {
		sheet := fillSheet(t, scores)
		if !sheet.IsPassed() {
			t.Fatalf("expected %v to pass (total %d)", scores, sheet.TotalScore())
		}
	}
}

func TestVerdictReason(t *testing.T) {
	vetoed := fillSheet(t, []int{10, 10, 10, 10, 10, 10, 10, 4}).Verdict()
	if vetoed.Passed {
		t.Fatal("vetoed sheet reported as passed")
	}
	if !vetoed.HasFailingItem {
		t.Fatal("vetoed sheet did not report a failing item")
	}
	if vetoed.Reason == "" {
		t.Fatal("vetoed sheet carries no reason")
	}

	low := fillSheet(t, []int{5, 5, 5, 5, 5, 5, 5, 0}).Verdict()
	if low.Reason == "" {
		t.Fatal("failing sheet carries no reason")
	}

	clean := fillSheet(t, []int{8, 7, 9, 8, 7, 8, 9, 9}).Verdict()
	if clean.Reason != "" {
		t.Fatalf("passing sheet carries a reason: %q", clean.Reason)
	}
}
