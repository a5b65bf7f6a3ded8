package payments

import "testing"

func TestSplitEven(t *testing.T) {
	if got := Split(900, 3); got != 300 {
		t.Errorf("Split(900, 3): got %d, want 300", got)
	}
}

func TestSplitRemainderStaysUndistributed(t *testing.T) {
	per := Split(1000, 3)
	if per != 333 {
		t.Errorf("Split(1000, 3): got %d, want 333", per)
	}
	// 1 unit remains: the split must floor, never round up or spread the
	// remainder across recipients.
	if rest := 1000 - 3*per; rest != 1 {
		t.Errorf("undistributed remainder: got %d, want 1", rest)
	}
}

func TestSplitSingleRecipient(t *testing.T) {
	if got := Split(777, 1); got != 777 {
		t.Errorf("Split(777, 1): got %d, want 777", got)
	}
}
