package doctor

import (
	"context"
	"fmt"

	"github.com/zduu/star-auto/internal/browser"
)

// launchTest starts a throwaway headless browser against the given
// executable and reads back the user agent the page reports.
func launchTest(ctx context.Context, execPath string) (string, error) {
	opts := browser.DefaultOptions()
	opts.Headless = true
	opts.ExecPath = execPath

	sess := browser.NewSession(opts)
	if err := sess.Start(ctx); err != nil {
		return "", fmt.Errorf("starting browser: %w", err)
	}
	defer sess.Stop()

	var ua string
	if err := sess.Evaluate(ctx, "navigator.userAgent", &ua); err != nil {
		return "", fmt.Errorf("reading user agent: %w", err)
	}
	return "user agent: " + ua, nil
}
