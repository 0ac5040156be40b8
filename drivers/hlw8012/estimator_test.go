package hlw8012

import "testing"

func TestEstimateWidth(t *testing.T) {
	cases := []struct {
		name                    string
		first, last, now, count uint32
		want                    uint32
	}{
		{"no edges at all", 0, 0, 600000, 0, 0},
		{"single edge", 5000, 5000, 600000, 1, 0},
		{"two edges is not enough", 0, 40000, 600000, 2, 0},
		{"few edges use last interval", 0, 80000, 100000, 5, 20000},
		{"boundary below ten", 0, 490000, 510000, 9, 20000},
		{"ten edges average", 0, 495000, 500000, 10, 50000},
		{"many edges average", 0, 140000, 150000, 15, 10000},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := estimateWidth(tc.first, tc.last, tc.now, tc.count)
			if got != tc.want {
				t.Fatalf("estimateWidth(%d,%d,%d,%d) = %d, want %d",
					tc.first, tc.last, tc.now, tc.count, got, tc.want)
			}
		})
	}
}

func TestEstimateWidthWrapsAroundClock(t *testing.T) {
	// Window straddles a 2^32 µs clock wrap; deltas must stay exact.
	var zero uint32
	first := zero - 100000 // 100 ms before wrap
	last := uint32(30000)
	now := uint32(50000)
	if got := estimateWidth(first, last, now, 15); got != 10000 {
		t.Fatalf("wrapped average = %d, want 10000", got)
	}
	if got := estimateWidth(first, last, now, 5); got != 20000 {
		t.Fatalf("wrapped last-interval = %d, want 20000", got)
	}
}

func TestSmooth(t *testing.T) {
	if got := smooth(0, 100); got != 100 {
		t.Fatalf("smooth(0,100) = %d, want 100 (no history passes through)", got)
	}
	if got := smooth(100, 200); got != 175 {
		t.Fatalf("smooth(100,200) = %d, want 175", got)
	}
	if got := smooth(200, 200); got != 200 {
		t.Fatalf("smooth(200,200) = %d, want 200 (fixed point)", got)
	}
}
