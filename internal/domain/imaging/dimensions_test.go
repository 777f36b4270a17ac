package imaging

import "testing"

func TestCalculateDimensions(t *testing.T) {
	tests := []struct {
		name       string
		size       ImageSize
		width      int
		height     int
		wantWidth  int
		wantHeight int
	}{
		{
			name:       "fit landscape into square",
			size:       ImageSize{Width: 300, Height: 300, Mode: ModeFit},
			width:      1200,
			height:     800,
			wantWidth:  300,
			wantHeight: 200,
		},
		{
			name:       "fit portrait into square",
			size:       ImageSize{Width: 300, Height: 300, Mode: ModeFit},
			width:      800,
			height:     1200,
			wantWidth:  200,
			wantHeight: 300,
		},
		{
			name:       "fit with zero width derives from aspect",
			size:       ImageSize{Width: 0, Height: 100, Mode: ModeFit},
			width:      400,
			height:     200,
			wantWidth:  200,
			wantHeight: 100,
		},
		{
			name:       "fit with zero height derives from aspect",
			size:       ImageSize{Width: 100, Height: 0, Mode: ModeFit},
			width:      400,
			height:     200,
			wantWidth:  100,
			wantHeight: 50,
		},
		{
			name:       "fit with both axes zero keeps original",
			size:       ImageSize{Width: 0, Height: 0, Mode: ModeFit},
			width:      640,
			height:     480,
			wantWidth:  640,
			wantHeight: 480,
		},
		{
			name:       "fit rounds to nearest pixel",
			size:       ImageSize{Width: 100, Height: 100, Mode: ModeFit},
			width:      333,
			height:     222,
			wantWidth:  100,
			wantHeight: 67,
		},
		{
			name:       "exact returns target verbatim",
			size:       ImageSize{Width: 150, Height: 150, Mode: ModeExact},
			width:      1200,
			height:     800,
			wantWidth:  150,
			wantHeight: 150,
		},
		{
			name:       "fill returns target verbatim",
			size:       ImageSize{Width: 150, Height: 150, Mode: ModeFill},
			width:      1200,
			height:     800,
			wantWidth:  150,
			wantHeight: 150,
		},
		{
			name:       "cover returns target verbatim",
			size:       ImageSize{Width: 320, Height: 180, Mode: ModeCover},
			width:      100,
			height:     100,
			wantWidth:  320,
			wantHeight: 180,
		},
		{
			name:       "zero original passes through",
			size:       ImageSize{Width: 100, Height: 100, Mode: ModeFit},
			width:      0,
			height:     0,
			wantWidth:  0,
			wantHeight: 0,
		},
		{
			name:       "extreme downscale floors at one pixel",
			size:       ImageSize{Width: 1, Height: 1, Mode: ModeFit},
			width:      10000,
			height:     3,
			wantWidth:  1,
			wantHeight: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotW, gotH := CalculateDimensions(tt.size, tt.width, tt.height)
			if gotW != tt.wantWidth || gotH != tt.wantHeight {
				t.Errorf("CalculateDimensions() = %dx%d, want %dx%d", gotW, gotH, tt.wantWidth, tt.wantHeight)
			}
		})
	}
}

func TestCalculateDimensionsFitNeverExceedsBox(t *testing.T) {
	size := ImageSize{Width: 300, Height: 300, Mode: ModeFit}
	originals := [][2]int{{1, 1}, {301, 300}, {300, 301}, {4096, 4096}, {9999, 7}, {7, 9999}}

	for _, orig := range originals {
		w, h := CalculateDimensions(size, orig[0], orig[1])
		if w > 300 || h > 300 {
			t.Errorf("fit of %dx%d produced %dx%d, exceeds 300x300", orig[0], orig[1], w, h)
		}
	}
}
