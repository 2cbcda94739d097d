package platform

import (
	"context"
	"fmt"
	"net/url"
	"os/exec"

	"go.uber.org/zap"
)

// SystemOpener hands URLs to the desktop's default browser.
type SystemOpener struct {
	logger *zap.SugaredLogger
}

var _ Opener = (*SystemOpener)(nil)

// NewSystemOpener creates a new system opener.
func NewSystemOpener(logger *zap.SugaredLogger) *SystemOpener {
	return &SystemOpener{logger: logger}
}

// Open starts the platform browser command and does not wait for it.
func (o *SystemOpener) Open(_ context.Context, rawURL string) error {
	name, args := browserCommand(rawURL)
	o.logger.Debugw("opening tab", "command", name, "url", rawURL)

	cmd := exec.Command(name, args...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start browser: %w", err)
	}

	go func() {
		if err := cmd.Wait(); err != nil {
			o.logger.Warnw("browser command exited with error", "command", name, "error", err)
		}
	}()
	return nil
}

func openTab(ctx context.Context, opener Opener, rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: %q", ErrInvalidURL, rawURL)
	}
	return opener.Open(ctx, u.String())
}
