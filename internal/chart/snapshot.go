package chart

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
)

// renderWait gives the chart script time to draw before the screenshot.
const renderWait = 2 * time.Second

// Snapshot rasterises chart documents to PNG files next to them, using one
// headless browser for all of them. It returns the written PNG paths.
func Snapshot(ctx context.Context, chromeBin string, htmlPaths []string) ([]string, error) {
	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-setuid-sandbox", true),
	)
	if chromeBin != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(chromeBin))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, allocOpts...)
	defer cancelAlloc()

	// Silence chromedp's noisy internal logs.
	browserCtx, cancel := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(string, ...interface{}) {}))
	defer cancel()

	var written []string
	for _, path := range htmlPaths {
		abs, err := filepath.Abs(path)
		if err != nil {
			return written, err
		}

		var buf []byte
		err = chromedp.Run(browserCtx,
			chromedp.EmulateViewport(1280, 720),
			chromedp.Navigate("file://"+filepath.ToSlash(abs)),
			chromedp.Sleep(renderWait),
			chromedp.FullScreenshot(&buf, 100),
		)
		if err != nil {
			return written, fmt.Errorf("snapshot %s: %w", path, err)
		}

		png := strings.TrimSuffix(path, filepath.Ext(path)) + ".png"
		if err := os.WriteFile(png, buf, 0644); err != nil {
			return written, fmt.Errorf("write snapshot: %w", err)
		}
		written = append(written, png)
	}
	return written, nil
}
