package main

import "testing"

func TestParsePoints(t *testing.T) {
	points, err := parsePoints([]string{"0,0", " 12.5 , 4"})
	if err != nil {
		t.Fatalf("parsePoints: %v", err)
	}
	if len(points) != 2 || points[1].X != 12.5 || points[1].Y != 4 {
		t.Errorf("expected [(0,0) (12.5,4)], got %v", points)
	}

	for _, bad := range []string{"1", "a,1", "1,b"} {
		if _, err := parsePoints([]string{bad}); err == nil {
			t.Errorf("parsePoints(%q): expected an error", bad)
		}
	}
}
