// uciprobe checks that an engine binary speaks UCI before committing to
// a long analysis run. It prints the engine's identity and declared
// options and exits non-zero when the handshake fails.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/blunderdeck/blunderdeck/internal/uci"
)

func main() {
	enginePath := flag.String("engine", "/usr/games/stockfish", "path to the UCI engine executable")
	timeout := flag.Duration("timeout", 5*time.Second, "handshake timeout")
	flag.Parse()

	res, err := uci.Probe(context.Background(), *enginePath, *timeout)
	if err != nil {
		log.Fatalf("probe error: %v", err)
	}

	fmt.Printf("name: %s\n", res.Name)
	fmt.Printf("author: %s\n", res.Author)
	for _, opt := range res.Options {
		fmt.Printf("option %s\n", opt)
	}
}
