package steprun

import (
	"context"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/chromedp"
)

// ChromeNavigator drives pages with a headless-capable chrome instance.
// It satisfies the harness Navigator contract.
type ChromeNavigator struct {
	Headless bool
	PageWait time.Duration
}

func (n *ChromeNavigator) allocatorOptions() []chromedp.ExecAllocatorOption {
	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	if !n.Headless {
		opts = append(opts, chromedp.Flag("headless", false))
	}

	return opts
}

// Navigate loads the URL and waits for the page body to be ready
func (n *ChromeNavigator) Navigate(ctx context.Context, url string) error {
	_, err := n.run(ctx, url, false)
	return err
}

// NavigateAndCapture loads the URL and returns a full-page screenshot
func (n *ChromeNavigator) NavigateAndCapture(ctx context.Context, url string) ([]byte, error) {
	return n.run(ctx, url, true)
}

func (n *ChromeNavigator) run(ctx context.Context, url string, capture bool) ([]byte, error) {
	actx, cancelAlloc := chromedp.NewExecAllocator(ctx, n.allocatorOptions()...)
	defer cancelAlloc()

	cctx, cancel := chromedp.NewContext(actx)
	defer cancel()

	actions := []chromedp.Action{
		chromedp.Navigate(url),
		chromedp.WaitReady("body"),
	}
	if n.PageWait > 0 {
		actions = append(actions, chromedp.Sleep(n.PageWait))
	}

	var shot []byte
	if capture {
		actions = append(actions,
			emulation.SetDeviceMetricsOverride(1280, 800, 1, false),
			chromedp.CaptureScreenshot(&shot),
		)
	}

	if err := chromedp.Run(cctx, actions...); err != nil {
		return nil, err
	}

	return shot, nil
}
