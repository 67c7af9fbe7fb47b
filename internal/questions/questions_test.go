package questions

import "testing"

func TestListHasEightQuestions(t *testing.T) {
	if Count() != 8 {
		t.Fatalf("question count = %d, want 8", Count())
	}
	for i, q := range List {
		if q == "" {
			t.Errorf("question %d is empty", i)
		}
	}
}

func TestAtBounds(t *testing.T) {
	if At(0) != List[0] {
		t.Errorf("At(0) = %q, want %q", At(0), List[0])
	}
	if At(Count()-1) != List[Count()-1] {
		t.Errorf("At(last) mismatch")
	}
	if At(-1) != "" || At(Count()) != "" {
		t.Error("out-of-range index should return empty string")
	}
}
