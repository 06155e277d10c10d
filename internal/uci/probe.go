package uci

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"
)

// ProbeResult is what an engine announces about itself during the
// handshake.
type ProbeResult struct {
	Name    string
	Author  string
	Options []string
}

// Probe starts the binary, runs the uci handshake, and collects the
// engine's identity and declared options. The process is terminated
// before Probe returns.
func Probe(ctx context.Context, binaryPath string, timeout time.Duration) (ProbeResult, error) {
	if _, err := os.Stat(binaryPath); err != nil {
		return ProbeResult{}, fmt.Errorf("engine binary check: %w", err)
	}
	if timeout <= 0 {
		timeout = defaultReadyTimeout
	}

	probeCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(probeCtx, binaryPath)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return ProbeResult{}, fmt.Errorf("create stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		stdin.Close()
		return ProbeResult{}, fmt.Errorf("create stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		stdin.Close()
		stdout.Close()
		return ProbeResult{}, fmt.Errorf("start engine: %w", err)
	}

	s := &Session{cmd: cmd, stdin: stdin, stdout: bufio.NewReader(stdout)}

	var res ProbeResult
	collect := func() error {
		if err := s.send("uci\n"); err != nil {
			return fmt.Errorf("send uci: %w", err)
		}
		for {
			line, err := s.readLine(probeCtx)
			if err != nil {
				return fmt.Errorf("read handshake: %w", err)
			}
			switch {
			case strings.HasPrefix(line, "id name "):
				res.Name = strings.TrimPrefix(line, "id name ")
			case strings.HasPrefix(line, "id author "):
				res.Author = strings.TrimPrefix(line, "id author ")
			case strings.HasPrefix(line, "option name "):
				res.Options = append(res.Options, strings.TrimPrefix(line, "option "))
			case strings.Contains(line, "uciok"):
				return nil
			}
		}
	}

	err = collect()
	if closeErr := s.Close(); err == nil && closeErr != nil {
		err = fmt.Errorf("close engine: %w", closeErr)
	}
	if err != nil {
		return ProbeResult{}, err
	}
	return res, nil
}
