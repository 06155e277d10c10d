package blunder

import (
	"testing"

	nchess "github.com/corentings/chess/v2"

	"github.com/blunderdeck/blunderdeck/internal/gamesource"
)

func TestParseFilter(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"", "white/black"},
		{"white/black", "white/black"},
		{"WHITE/BLACK", "white/black"},
		{"white", "white"},
		{"Black", "black"},
		{"winner", "winner"},
		{"loser", "loser"},
		{"MagnusCarlsen", "player:MagnusCarlsen"},
		{"  DrNykterstein  ", "player:DrNykterstein"},
	}
	for _, tc := range cases {
		got := ParseFilter(tc.in).String()
		if got != tc.want {
			t.Fatalf("ParseFilter(%q) = %s, want %s", tc.in, got, tc.want)
		}
	}
}

func TestFilterAllows(t *testing.T) {
	whiteWins := gamesource.Metadata{White: "Alice", Black: "Bob", Result: "1-0"}
	blackWins := gamesource.Metadata{White: "Alice", Black: "Bob", Result: "0-1"}
	drawn := gamesource.Metadata{White: "Alice", Black: "Bob", Result: "1/2-1/2"}
	unfinished := gamesource.Metadata{White: "Alice", Black: "Bob", Result: "*"}

	cases := []struct {
		name   string
		filter string
		mover  nchess.Color
		meta   gamesource.Metadata
		want   bool
	}{
		{"both keeps white", "", nchess.White, whiteWins, true},
		{"both keeps black", "white/black", nchess.Black, whiteWins, true},
		{"white keeps white", "white", nchess.White, whiteWins, true},
		{"white drops black", "white", nchess.Black, whiteWins, false},
		{"black keeps black", "black", nchess.Black, whiteWins, true},
		{"black drops white", "black", nchess.White, whiteWins, false},

		// winner keeps the blunders the winning side profited from,
		// meaning the loser played them.
		{"winner keeps loser's move when white won", "winner", nchess.Black, whiteWins, true},
		{"winner drops winner's move when white won", "winner", nchess.White, whiteWins, false},
		{"winner keeps loser's move when black won", "winner", nchess.White, blackWins, true},
		{"winner drops all in a draw", "winner", nchess.White, drawn, false},
		{"winner drops all when unfinished", "winner", nchess.Black, unfinished, false},

		{"loser keeps winner's move when white won", "loser", nchess.White, whiteWins, true},
		{"loser drops loser's move when white won", "loser", nchess.Black, whiteWins, false},
		{"loser keeps winner's move when black won", "loser", nchess.Black, blackWins, true},
		{"loser drops all in a draw", "loser", nchess.Black, drawn, false},

		{"name matches white mover", "Alice", nchess.White, whiteWins, true},
		{"name matches black mover", "bob", nchess.Black, whiteWins, true},
		{"name ignores the other side", "Alice", nchess.Black, whiteWins, false},
		{"name misses both", "Carol", nchess.White, whiteWins, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := ParseFilter(tc.filter)
			if got := f.allows(tc.mover, tc.meta); got != tc.want {
				t.Fatalf("filter %q allows(%v) = %v, want %v", tc.filter, tc.mover, got, tc.want)
			}
		})
	}
}
