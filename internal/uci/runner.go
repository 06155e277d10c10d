package uci

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"
)

// WithSession starts an engine process, hands the live session to fn,
// and terminates the process on every return path. The engine backend
// cannot serve concurrent requests, so callers hold exactly one session
// and reuse it for every evaluation inside fn.
func WithSession(ctx context.Context, binaryPath string, opt Options, logger *zap.Logger, fn func(*Session) error) error {
	if _, err := os.Stat(binaryPath); err != nil {
		return fmt.Errorf("engine binary check: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	session, err := NewSession(ctx, binaryPath, opt, logger)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := session.Close(); closeErr != nil {
			logger.Warn("engine did not exit cleanly", zap.Error(closeErr))
		}
	}()

	if err := session.NewGame(ctx); err != nil {
		return err
	}
	return fn(session)
}
