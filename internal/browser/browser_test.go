package browser

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions()

	if !opts.Headless {
		t.Error("Expected headless to be true by default")
	}

	if opts.Timeout != 30*time.Second {
		t.Errorf("Expected timeout to be 30s, got %v", opts.Timeout)
	}

	if opts.ViewportWidth != 1920 || opts.ViewportHeight != 1080 {
		t.Errorf("Expected viewport to be 1920x1080, got %dx%d", opts.ViewportWidth, opts.ViewportHeight)
	}

	if opts.Locale != "ru-RU" {
		t.Errorf("Expected locale to be ru-RU, got %s", opts.Locale)
	}
}

func TestOptionsWithDefaults(t *testing.T) {
	opts := (&Options{Headless: false, Timeout: 5 * time.Second}).withDefaults()

	assert.False(t, opts.Headless)
	assert.Equal(t, 5*time.Second, opts.Timeout)
	assert.Equal(t, DefaultOptions().UserAgent, opts.UserAgent)
	assert.Equal(t, 1920, opts.ViewportWidth)
	assert.Equal(t, "Europe/Moscow", opts.TimezoneID)

	var nilOpts *Options
	assert.True(t, nilOpts.withDefaults().Headless)
}

type scriptedPage struct {
	scripts []string
	heights []float64
	evalErr error
}

func (p *scriptedPage) Goto(string, WaitUntil) error { return nil }
func (p *scriptedPage) Fill(string, string) error { return nil }
func (p *scriptedPage) Press(string) error { return nil }
func (p *scriptedPage) WaitForSelector(string, time.Duration) error { return nil }
func (p *scriptedPage) Content() (string, error) { return "", nil }
func (p *scriptedPage) URL() string { return "" }
func (p *scriptedPage) Close() error { return nil }

func (p *scriptedPage) Evaluate(script string) (interface{}, error) {
	p.scripts = append(p.scripts, script)
	if p.evalErr != nil {
		return nil, p.evalErr
	}
	if script == scrollHeightScript {
		if len(p.heights) == 0 {
			return float64(0), nil
		}
		h := p.heights[0]
		if len(p.heights) > 1 {
			p.heights = p.heights[1:]
		}
		return h, nil
	}
	return nil, nil
}

func TestScrollFixedRunsScriptOnce(t *testing.T) {
	p := &scriptedPage{}

	err := Scroll(context.Background(), p, ScrollOptions{Step: 200, Interval: 100 * time.Millisecond, Mode: SettleFixed})
	require.NoError(t, err)

	require.Len(t, p.scripts, 1)
	assert.Contains(t, p.scripts[0], "const scrollStep = 200;")
	assert.Contains(t, p.scripts[0], "const scrollInterval = 100;")
}

func TestScrollStablePollsUntilHeightSettles(t *testing.T) {
	p := &scriptedPage{heights: []float64{1000, 2000, 3000, 3000, 3000}}

	err := Scroll(context.Background(), p, ScrollOptions{Step: 200, Mode: SettleStable, StablePolls: 2, MaxPolls: 20})
	require.NoError(t, err)

	polls := 0
	for _, s := range p.scripts {
		if s == scrollHeightScript {
			polls++
		}
	}
	assert.Equal(t, 5, polls)
}

func TestScrollStableIsBounded(t *testing.T) {
	heights := make([]float64, 100)
	for i := range heights {
		heights[i] = float64(i * 100)
	}
	p := &scriptedPage{heights: heights}

	err := Scroll(context.Background(), p, ScrollOptions{Step: 200, Mode: SettleStable, StablePolls: 3, MaxPolls: 7})
	require.NoError(t, err)
	assert.Len(t, p.scripts, 8)
}

func TestScrollReturnsEvaluateError(t *testing.T) {
	p := &scriptedPage{evalErr: errors.New("page crashed")}

	err := Scroll(context.Background(), p, ScrollOptions{Step: 200})
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "page crashed"))
}

func TestSleepHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	err := Sleep(ctx, time.Minute)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), time.Second)

	assert.NoError(t, Sleep(context.Background(), 0))
}
