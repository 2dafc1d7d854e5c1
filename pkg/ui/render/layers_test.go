package render

import "testing"

func TestCenterRectOddSizes(t *testing.T) {
	x, y, w, h := CenterRect(3, 1, 9, 5)
	if x != 3 || y != 2 || w != 3 || h != 1 {
		t.Fatalf("unexpected rect: x=%d y=%d w=%d h=%d", x, y, w, h)
	}
}

func TestCenterRectClampsToScreen(t *testing.T) {
	x, y, w, h := CenterRect(10, 7, 6, 4)
	if x != 0 || y != 0 || w != 6 || h != 4 {
		t.Fatalf("unexpected rect: x=%d y=%d w=%d h=%d", x, y, w, h)
	}
}

func TestClampRectNegativeOrigin(t *testing.T) {
	x, y, w, h := ClampRect(-2, -1, 5, 4, 4, 3)
	if x != 0 || y != 0 || w != 4 || h != 3 {
		t.Fatalf("unexpected rect: x=%d y=%d w=%d h=%d", x, y, w, h)
	}
}

func TestBodyHeight(t *testing.T) {
	if BodyHeight(0) != 0 {
		t.Fatal("expected height 0 for screen height 0")
	}
	if BodyHeight(1) != 0 {
		t.Fatal("expected height 0 for screen height 1")
	}
	if BodyHeight(5) != 4 {
		t.Fatalf("expected height 4 for screen height 5, got %d", BodyHeight(5))
	}
}

func TestSplitColumns(t *testing.T) {
	tests := []struct {
		name               string
		width              int
		wantSide, wantMain int
	}{
		{"wide", 120, 34, 86},
		{"exact", 74, 34, 40},
		{"narrow", 73, 0, 73},
		{"zero", 0, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			side, main := SplitColumns(tt.width, 34, 40)
			if side != tt.wantSide || main != tt.wantMain {
				t.Fatalf("SplitColumns(%d) = %d, %d; want %d, %d", tt.width, side, main, tt.wantSide, tt.wantMain)
			}
		})
	}
}
