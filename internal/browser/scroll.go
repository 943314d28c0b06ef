package browser

import (
	"context"
	"fmt"
	"time"
)

type SettleMode string

const (
	SettleFixed  SettleMode = "fixed"
	SettleStable SettleMode = "stable"
)

// ScrollOptions controls the progressive scroll used to force lazy-loaded
// cards to render.
type ScrollOptions struct {
	Step        int
	Interval    time.Duration
	SettleDelay time.Duration
	Mode        SettleMode
	// StablePolls is how many consecutive unchanged height readings count as
	// settled; MaxPolls bounds the total number of readings.
	StablePolls int
	MaxPolls    int
}

const scrollHeightScript = `() => document.documentElement.scrollHeight`

func scrollScript(step int, interval time.Duration) string {
	return fmt.Sprintf(`() => {
		const scrollStep = %d;
		const scrollInterval = %d;
		const scrollHeight = document.documentElement.scrollHeight;
		let currentPosition = 0;
		const interval = setInterval(() => {
			window.scrollBy(0, scrollStep);
			currentPosition += scrollStep;
			if (currentPosition >= scrollHeight) {
				clearInterval(interval);
			}
		}, scrollInterval);
	}`, step, interval.Milliseconds())
}

// Scroll starts the page scrolling in steps and waits for content to settle.
// The scroll runs inside the page; Scroll returns once the settle condition
// is met, not when the scroll reaches the bottom.
func Scroll(ctx context.Context, p Page, opts ScrollOptions) error {
	if _, err := p.Evaluate(scrollScript(opts.Step, opts.Interval)); err != nil {
		return fmt.Errorf("failed to start scroll: %w", err)
	}

	if opts.Mode == SettleStable {
		return waitForStableHeight(ctx, p, opts)
	}

	return Sleep(ctx, opts.SettleDelay)
}

func waitForStableHeight(ctx context.Context, p Page, opts ScrollOptions) error {
	var last float64 = -1
	stable := 0

	for i := 0; i < opts.MaxPolls; i++ {
		if err := Sleep(ctx, opts.Interval); err != nil {
			return err
		}

		value, err := p.Evaluate(scrollHeightScript)
		if err != nil {
			return fmt.Errorf("failed to read scroll height: %w", err)
		}

		height := toFloat(value)
		if height == last {
			stable++
			if stable >= opts.StablePolls {
				return nil
			}
		} else {
			stable = 0
			last = height
		}
	}

	return nil
}

// Sleep waits for d or until ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func toFloat(v interface{}) float64 {
	switch n := v.(type) {
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case float64:
		return n
	default:
		return -1
	}
}
