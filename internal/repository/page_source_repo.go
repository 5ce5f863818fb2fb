package repository

import (
	"context"
	"errors"

	"github.com/user/scamshield-agent/internal/entity"
)

var (
	ErrRenderTimeout    = errors.New("page render timed out")
	ErrNavigationFailed = errors.New("navigation failed")
	ErrNoPageSource     = errors.New("no page snapshot supplied and no renderer configured")
)

// PageSource renders a URL into a DOM snapshot when the content script did not push one.
type PageSource interface {
	Render(ctx context.Context, url string) (*entity.PageSnapshot, error)
}
