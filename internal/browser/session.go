package browser

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"weibo-harvest/internal/config"
	"weibo-harvest/internal/observability"
	herrors "weibo-harvest/pkg/errors"
)

// Session is one rendered page in its own browser process.
type Session interface {
	// HTML returns the current DOM serialized as HTML.
	HTML(ctx context.Context) (string, error)
	// ScrollStep scrolls by the pacer's distance and waits its settle delay.
	ScrollStep(ctx context.Context) error
	// WaitElement blocks until selector matches or the element timeout expires.
	WaitElement(ctx context.Context, selector string) error
	Close() error
}

// Opener starts a new Session already navigated to url.
type Opener interface {
	Open(ctx context.Context, url string) (Session, error)
}

type Options struct {
	ChromePath        string
	Headless          bool
	NavigationTimeout time.Duration
	NetworkIdle       time.Duration
	RenderTimeout     time.Duration
	ElementTimeout    time.Duration
	CloseTimeout      time.Duration
	Cookies           []Cookie
}

// DefaultCloseTimeout bounds teardown when Options.CloseTimeout is zero.
const DefaultCloseTimeout = 5 * time.Second

func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		ChromePath:        cfg.Rod.ChromePath,
		Headless:          cfg.Rod.Headless,
		NavigationTimeout: cfg.GetNavigationTimeout(),
		NetworkIdle:       cfg.GetNetworkIdle(),
		RenderTimeout:     cfg.GetRenderTimeout(),
		ElementTimeout:    cfg.GetElementTimeout(),
		CloseTimeout:      cfg.GetCloseTimeout(),
		Cookies:           ParseCookies(cfg.Cookie, cfg.CookieDomain),
	}
}

// Controller opens an independent Chrome session on every Open call.
type Controller struct {
	opts   Options
	pacer  Pacer
	logger *observability.Logger
}

func NewController(opts Options, pacer Pacer, logger *observability.Logger) *Controller {
	return &Controller{
		opts:   opts,
		pacer:  pacer,
		logger: logger,
	}
}

// Open launches a browser, injects cookies and waits for network idle.
// Every step is bounded by the navigation timeout. On any failure everything
// acquired so far is released and a navigation error is returned.
func (c *Controller) Open(ctx context.Context, target string) (_ Session, err error) {
	sessCtx, cancel := context.WithCancel(ctx)
	s := &rodSession{
		target: target,
		opts:   c.opts,
		pacer:  c.pacer,
		ctx:    sessCtx,
		cancel: cancel,
	}
	defer func() {
		if err != nil {
			if closeErr := s.Close(); closeErr != nil {
				c.logger.Warn("Failed to release browser after open error",
					"url", target,
					"error", closeErr,
				)
			}
		}
	}()

	launchCtx, cancelLaunch := context.WithTimeout(sessCtx, c.opts.NavigationTimeout)
	defer cancelLaunch()

	l := launcher.New().
		Headless(c.opts.Headless).
		Context(launchCtx)
	if c.opts.ChromePath != "" {
		l = l.Bin(c.opts.ChromePath)
	}
	s.launcher = l

	controlURL, err := l.Launch()
	if err != nil {
		return nil, herrors.NewNavigation(target, "failed to launch browser", err)
	}
	s.launched = true

	// Browser and page keep sessCtx: their event streams live as long as the session.
	b := rod.New().ControlURL(controlURL).Context(sessCtx)
	if err := s.within(c.opts.NavigationTimeout, "connect to browser", b.Connect); err != nil {
		return nil, err
	}
	s.browser = b

	var page *rod.Page
	err = s.within(c.opts.NavigationTimeout, "create page", func() error {
		var pageErr error
		page, pageErr = b.Page(proto.TargetCreateTarget{})
		return pageErr
	})
	if err != nil {
		return nil, err
	}
	s.page = page

	if len(c.opts.Cookies) > 0 {
		cookieCtx, cancelCookies := context.WithTimeout(sessCtx, c.opts.NavigationTimeout)
		err := page.Context(cookieCtx).SetCookies(toParams(c.opts.Cookies))
		cancelCookies()
		if err != nil {
			return nil, herrors.NewNavigation(target, "failed to set cookies", err)
		}
	}

	if err := s.navigate(sessCtx); err != nil {
		return nil, err
	}

	c.logger.Debug("Session opened",
		"url", target,
		"cookies", len(c.opts.Cookies),
	)

	return s, nil
}

type rodSession struct {
	target string
	opts   Options
	pacer  Pacer

	// ctx lives until Close; cancel aborts every pending browser call.
	ctx    context.Context
	cancel context.CancelFunc

	launcher *launcher.Launcher
	launched bool
	browser  *rod.Browser
	page     *rod.Page

	closeOnce sync.Once
	closeErr  error
}

// within runs a browser call that takes no context of its own. If the call
// outlives d, the session context is cancelled and a navigation error returned.
func (s *rodSession) within(d time.Duration, step string, fn func() error) error {
	done := make(chan error, 1)
	go func() { done <- fn() }()

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case err := <-done:
		if err != nil {
			return herrors.NewNavigation(s.target, step+" failed", err)
		}
		return nil
	case <-timer.C:
		s.cancel()
		return herrors.NewNavigation(s.target, fmt.Sprintf("%s timed out after %s", step, d), context.DeadlineExceeded)
	case <-s.ctx.Done():
		return herrors.NewNavigation(s.target, step+" aborted", s.ctx.Err())
	}
}

func (s *rodSession) navigate(ctx context.Context) error {
	navCtx, cancel := context.WithTimeout(ctx, s.opts.NavigationTimeout)
	defer cancel()

	page := s.page.Context(navCtx)

	// Ожидание тишины в сети регистрируется до перехода
	waitIdle := page.WaitRequestIdle(s.opts.NetworkIdle, nil, nil, nil)
	if err := page.Navigate(s.target); err != nil {
		return herrors.NewNavigation(s.target, "navigation failed", err)
	}
	waitIdle()

	if err := navCtx.Err(); err != nil {
		return herrors.NewNavigation(s.target, "network idle not reached", err)
	}
	return nil
}

func (s *rodSession) HTML(ctx context.Context) (string, error) {
	renderCtx, cancel := context.WithTimeout(ctx, s.opts.RenderTimeout)
	defer cancel()

	html, err := s.page.Context(renderCtx).HTML()
	if err != nil {
		return "", herrors.NewNavigation(s.target, "render failed", err)
	}
	return html, nil
}

func (s *rodSession) ScrollStep(ctx context.Context) error {
	distance := s.pacer.ScrollDistance()

	evalCtx, cancel := context.WithTimeout(ctx, s.opts.RenderTimeout)
	_, err := s.page.Context(evalCtx).Eval(`(d) => window.scrollBy(0, d)`, distance)
	cancel()
	if err != nil {
		return herrors.NewNavigation(s.target, fmt.Sprintf("scroll by %dpx failed", distance), err)
	}
	return Sleep(ctx, s.pacer.SettleDelay())
}

func (s *rodSession) WaitElement(ctx context.Context, selector string) error {
	waitCtx, cancel := context.WithTimeout(ctx, s.opts.ElementTimeout)
	defer cancel()

	if _, err := s.page.Context(waitCtx).Element(selector); err != nil {
		return fmt.Errorf("element %q not found: %w", selector, err)
	}
	return nil
}

// Close is safe to call more than once and on a partially opened session.
// Page and browser get CloseTimeout together; the process is killed regardless.
func (s *rodSession) Close() error {
	s.closeOnce.Do(func() {
		timeout := s.opts.CloseTimeout
		if timeout <= 0 {
			timeout = DefaultCloseTimeout
		}
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		var errs []error
		if s.page != nil {
			if err := s.page.Context(ctx).Close(); err != nil {
				errs = append(errs, fmt.Errorf("close page: %w", err))
			}
		}
		if s.browser != nil {
			if err := s.browser.Context(ctx).Close(); err != nil {
				errs = append(errs, fmt.Errorf("close browser: %w", err))
			}
		}
		if s.cancel != nil {
			s.cancel()
		}
		if s.launcher != nil && s.launched {
			s.launcher.Kill()
			if !waitBounded(timeout, s.launcher.Cleanup) {
				errs = append(errs, fmt.Errorf("browser cleanup timed out after %s", timeout))
			}
		}
		s.closeErr = errors.Join(errs...)
	})
	return s.closeErr
}

// waitBounded runs fn and reports whether it returned within d.
func waitBounded(d time.Duration, fn func()) bool {
	done := make(chan struct{})
	go func() {
		fn()
		close(done)
	}()

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-done:
		return true
	case <-timer.C:
		return false
	}
}

// Sleep waits for d or until ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
