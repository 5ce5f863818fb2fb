package chromedp_page

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/user/scamshield-agent/internal/entity"
	"github.com/user/scamshield-agent/internal/repository"
)

const userAgent = `Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/135.0.0.0 Safari/537.36`

// PageSourceImpl renders pages in headless Chrome tabs that share one browser.
type PageSourceImpl struct {
	allocCtx    context.Context
	allocCancel context.CancelFunc
	slots       chan struct{}
	timeout     time.Duration
	logger      *zap.Logger
	closeOnce   sync.Once
}

// NewPageSource starts the browser allocator. At most maxConcurrency tabs render at once.
func NewPageSource(maxConcurrency int, pageLoadTimeout time.Duration, logger *zap.Logger) *PageSourceImpl {
	if maxConcurrency <= 0 {
		maxConcurrency = 1
	}
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.UserAgent(userAgent),
	)
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)

	return &PageSourceImpl{
		allocCtx:    allocCtx,
		allocCancel: allocCancel,
		slots:       make(chan struct{}, maxConcurrency),
		timeout:     pageLoadTimeout,
		logger:      logger,
	}
}

// Render navigates a fresh tab to url and returns the rendered document.
func (p *PageSourceImpl) Render(ctx context.Context, url string) (*entity.PageSnapshot, error) {
	select {
	case p.slots <- struct{}{}:
		defer func() { <-p.slots }()
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: waiting for a browser slot", repository.ErrRenderTimeout)
	}

	taskCtx, cancel := chromedp.NewContext(p.allocCtx, chromedp.WithLogf(p.logger.Sugar().Debugf))
	defer cancel()

	taskCtx, cancel = context.WithTimeout(taskCtx, p.timeout)
	defer cancel()
	// Abandon the render when the caller gives up.
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	var (
		mu         sync.Mutex
		statusCode int
	)
	chromedp.ListenTarget(taskCtx, func(ev interface{}) {
		resp, ok := ev.(*network.EventResponseReceived)
		if !ok || resp.Type != network.ResourceTypeDocument {
			return
		}
		mu.Lock()
		defer mu.Unlock()
		// The first document response is the navigation; later ones are frames.
		if statusCode == 0 {
			statusCode = int(resp.Response.Status)
		}
	})

	start := time.Now()
	var html, finalURL string
	err := chromedp.Run(taskCtx,
		network.Enable(),
		chromedp.Navigate(url),
		chromedp.Location(&finalURL),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		p.logger.Warn("Failed to render page", zap.String("url", url), zap.Error(err))
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(taskCtx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %s", repository.ErrRenderTimeout, url)
		}
		return nil, fmt.Errorf("%w: %s: %v", repository.ErrNavigationFailed, url, err)
	}

	mu.Lock()
	code := statusCode
	mu.Unlock()

	p.logger.Debug("Rendered page",
		zap.String("url", finalURL),
		zap.Int("status", code),
		zap.Duration("elapsed", time.Since(start)),
	)

	if finalURL == "" {
		finalURL = url
	}
	return &entity.PageSnapshot{
		URL:        finalURL,
		HTML:       html,
		StatusCode: code,
		FetchedAt:  time.Now(),
	}, nil
}

// Close shuts the browser down.
func (p *PageSourceImpl) Close() {
	p.closeOnce.Do(p.allocCancel)
}
