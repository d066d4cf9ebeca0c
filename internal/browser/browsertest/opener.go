// Package browsertest provides an in-memory browser.Opener for tests.
package browsertest

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"

	"weibo-harvest/internal/browser"
	herrors "weibo-harvest/pkg/errors"
)

// Page describes what a fake session serves for one URL.
type Page struct {
	// Snapshots[i] is the DOM after i scroll steps; the last one repeats.
	Snapshots []string
	OpenErr   error
	HTMLErr   error
	// ScrollErrAt makes the n-th scroll step (1-based) fail. Zero disables it.
	ScrollErrAt int
}

type Opener struct {
	mu     sync.Mutex
	pages  map[string]Page
	opened []string
	live   int
}

func NewOpener() *Opener {
	return &Opener{pages: make(map[string]Page)}
}

func (o *Opener) Add(url string, page Page) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.pages[url] = page
}

// Open fails with a navigation error for unknown URLs.
func (o *Opener) Open(ctx context.Context, url string) (browser.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	o.opened = append(o.opened, url)
	page, ok := o.pages[url]
	if !ok {
		return nil, herrors.NewNavigation(url, "network idle not reached", context.DeadlineExceeded)
	}
	if page.OpenErr != nil {
		return nil, page.OpenErr
	}

	o.live++
	return &session{opener: o, page: page}, nil
}

// Opened returns every URL passed to Open, in call order.
func (o *Opener) Opened() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]string, len(o.opened))
	copy(out, o.opened)
	return out
}

func (o *Opener) OpenCount(url string) int {
	o.mu.Lock()
	defer o.mu.Unlock()
	n := 0
	for _, u := range o.opened {
		if u == url {
			n++
		}
	}
	return n
}

// Live is the number of sessions opened and not yet closed.
func (o *Opener) Live() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.live
}

type session struct {
	opener *Opener
	page   Page
	step   int
	closed bool
}

func (s *session) current() string {
	if len(s.page.Snapshots) == 0 {
		return "<html><body></body></html>"
	}
	if s.step >= len(s.page.Snapshots) {
		return s.page.Snapshots[len(s.page.Snapshots)-1]
	}
	return s.page.Snapshots[s.step]
}

func (s *session) HTML(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if s.page.HTMLErr != nil {
		return "", s.page.HTMLErr
	}
	return s.current(), nil
}

func (s *session) ScrollStep(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.step++
	if s.page.ScrollErrAt > 0 && s.step >= s.page.ScrollErrAt {
		return fmt.Errorf("scroll step %d failed", s.step)
	}
	return nil
}

func (s *session) WaitElement(ctx context.Context, selector string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s.current()))
	if err != nil {
		return err
	}
	if doc.Find(selector).Length() == 0 {
		return fmt.Errorf("element %q not found: %w", selector, context.DeadlineExceeded)
	}
	return nil
}

func (s *session) Close() error {
	s.opener.mu.Lock()
	defer s.opener.mu.Unlock()
	if !s.closed {
		s.closed = true
		s.opener.live--
	}
	return nil
}
