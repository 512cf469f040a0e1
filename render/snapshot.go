package render

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/chromedp/chromedp"

	"immo-map/metrics"
	"immo-map/utils"
)

// SnapshotConfig controls the headless browser used for PNG output.
type SnapshotConfig struct {
	ChromeBin      string
	Width, Height  int
	Settle         time.Duration
	Timeout        time.Duration
	MaxConcurrency int
	RateLimitMs    int
	MaxRetries     int
}

// Snapshotter renders pages in headless Chrome and captures them as PNG.
type Snapshotter struct {
	cfg    SnapshotConfig
	logger *utils.Logger
	retry  *utils.RetryConfig
}

// NewSnapshotter creates a Snapshotter. Zero sizes and timeouts get defaults.
func NewSnapshotter(cfg SnapshotConfig, logger *utils.Logger) *Snapshotter {
	if cfg.Width == 0 {
		cfg.Width = 1280
	}
	if cfg.Height == 0 {
		cfg.Height = 960
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.Settle == 0 {
		cfg.Settle = 2 * time.Second
	}
	return &Snapshotter{
		cfg:    cfg,
		logger: logger,
		retry: &utils.RetryConfig{
			MaxAttempts: cfg.MaxRetries,
			BaseDelay:   time.Second,
			Logger:      logger,
		},
	}
}

// Job is one page to capture into OutPath.
type Job struct {
	Name    string
	Page    Page
	OutPath string
}

func (s *Snapshotter) allocator(ctx context.Context) (context.Context, context.CancelFunc) {
	chromeBin := s.cfg.ChromeBin
	if chromeBin == "" {
		chromeBin = findChromeBinary()
	}
	s.logger.Info("[snapshot] Using browser binary: %s", chromeBin)

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-setuid-sandbox", true),
		chromedp.WindowSize(s.cfg.Width, s.cfg.Height),
	)
	if chromeBin != "" {
		opts = append(opts, chromedp.ExecPath(chromeBin))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)

	// Suppress chromedp log noise
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(string, ...interface{}) {}))
	return browserCtx, func() {
		cancelBrowser()
		cancelAlloc()
	}
}

// Capture renders a single page and returns the PNG bytes.
func (s *Snapshotter) Capture(ctx context.Context, page Page) ([]byte, error) {
	browserCtx, cancel := s.allocator(ctx)
	defer cancel()
	return s.capture(browserCtx, "map", page)
}

// CaptureAll writes every job's PNG, running up to MaxConcurrency browser
// tabs at once. It returns the errors of failed jobs; the others are still
// written.
func (s *Snapshotter) CaptureAll(ctx context.Context, jobs []Job) []error {
	browserCtx, cancel := s.allocator(ctx)
	defer cancel()

	// The first Run starts the browser; tabs opened afterwards share it.
	if err := chromedp.Run(browserCtx); err != nil {
		return []error{fmt.Errorf("snapshot: start browser: %w", err)}
	}

	pool := utils.NewWorkerPool(s.cfg.MaxConcurrency, s.cfg.RateLimitMs)
	var errs utils.ErrorGroup

	for _, job := range jobs {
		job := job
		pool.Submit(func() {
			png, err := s.capture(browserCtx, job.Name, job.Page)
			if err == nil {
				err = writePNG(job.OutPath, png)
			}
			if err != nil {
				s.logger.Error("[snapshot] %s failed: %v", job.Name, err)
				errs.Add(fmt.Errorf("snapshot %s: %w", job.Name, err))
				return
			}
			s.logger.Info("[snapshot] %s → %s (%d bytes)", job.Name, job.OutPath, len(png))
		})
	}
	pool.Wait()

	return errs.Errors()
}

func (s *Snapshotter) capture(browserCtx context.Context, name string, page Page) ([]byte, error) {
	page.Static = true

	var html bytes.Buffer
	if err := RenderHTML(&html, page); err != nil {
		return nil, err
	}

	tmp, err := os.CreateTemp("", "immo-map-*.html")
	if err != nil {
		return nil, fmt.Errorf("snapshot: temp file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(html.Bytes()); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("snapshot: write temp page: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("snapshot: close temp page: %w", err)
	}

	var png []byte
	err = s.retry.Do(browserCtx, "snapshot-"+name, func() error {
		tabCtx, cancel := chromedp.NewContext(browserCtx)
		defer cancel()

		tabCtx, cancelTimeout := context.WithTimeout(tabCtx, s.cfg.Timeout)
		defer cancelTimeout()

		return chromedp.Run(tabCtx,
			chromedp.Navigate("file://"+tmp.Name()),
			chromedp.WaitVisible("#map.ready", chromedp.ByQuery),
			chromedp.Sleep(s.cfg.Settle),
			chromedp.FullScreenshot(&png, 100),
		)
	})
	if err != nil {
		return nil, err
	}
	metrics.RendersTotal.WithLabelValues("png").Inc()
	return png, nil
}

func writePNG(path string, png []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("snapshot: create output dir: %w", err)
	}
	if err := os.WriteFile(path, png, 0644); err != nil {
		return fmt.Errorf("snapshot: write %q: %w", path, err)
	}
	return nil
}

// findChromeBinary locates a Chrome or Chromium executable, preferring
// CHROME_BIN.
func findChromeBinary() string {
	if bin := os.Getenv("CHROME_BIN"); bin != "" {
		return bin
	}

	names := []string{"google-chrome-stable", "google-chrome", "chromium", "chromium-browser"}
	for _, name := range names {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}

	paths := []string{
		"/usr/bin/google-chrome-stable",
		"/usr/bin/chromium-browser",
		"/usr/bin/chromium",
		"/snap/bin/chromium",
		"/opt/google/chrome/google-chrome",
		"/Applications/Google Chrome.app/Contents/MacOS/Google Chrome",
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	return ""
}
