package blunder

import (
	"testing"

	nchess "github.com/corentings/chess/v2"

	"github.com/blunderdeck/blunderdeck/internal/uci"
)

func TestNormalizeScore(t *testing.T) {
	cases := []struct {
		name  string
		score uci.Score
		turn  nchess.Color
		want  int
	}{
		{"cp white to move", uci.Score{CP: 35}, nchess.White, 35},
		{"cp black to move", uci.Score{CP: 35}, nchess.Black, -35},
		{"negative cp black to move", uci.Score{CP: -120}, nchess.Black, 120},
		{"zero", uci.Score{}, nchess.White, 0},
		{"white mates in three", uci.Score{Mate: 3, IsMate: true}, nchess.White, 9700},
		{"white gets mated in three", uci.Score{Mate: -3, IsMate: true}, nchess.White, -9700},
		{"black mates in two", uci.Score{Mate: 2, IsMate: true}, nchess.Black, -9800},
		{"black gets mated in one", uci.Score{Mate: -1, IsMate: true}, nchess.Black, 9900},
		{"absurd mate distance clamps", uci.Score{Mate: 150, IsMate: true}, nchess.White, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := NormalizeScore(tc.score, tc.turn)
			if got != tc.want {
				t.Fatalf("NormalizeScore(%+v, %v) = %d, want %d", tc.score, tc.turn, got, tc.want)
			}
		})
	}
}

func TestMateOutranksCentipawns(t *testing.T) {
	mate := NormalizeScore(uci.Score{Mate: 20, IsMate: true}, nchess.White)
	cp := NormalizeScore(uci.Score{CP: 2500}, nchess.White)
	if mate <= cp {
		t.Fatalf("mate score %d should exceed cp score %d", mate, cp)
	}
	near := NormalizeScore(uci.Score{Mate: 2, IsMate: true}, nchess.White)
	far := NormalizeScore(uci.Score{Mate: 9, IsMate: true}, nchess.White)
	if near <= far {
		t.Fatalf("mate in 2 (%d) should outrank mate in 9 (%d)", near, far)
	}
}
