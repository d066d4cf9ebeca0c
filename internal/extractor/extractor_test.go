package extractor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"weibo-harvest/internal/browser/browsertest"
	"weibo-harvest/internal/config"
	"weibo-harvest/internal/normalize"
	"weibo-harvest/internal/observability"
	"weibo-harvest/internal/scraper"
	herrors "weibo-harvest/pkg/errors"
)

const detailHTML = `<html><body><article class="woo-panel-main"><div>
<header><div class="head_main_3DRDm">
<div class="head_nick_1yix2"><a usercard="1497035431" href="/u/1497035431"><span>tombkeeper</span></a></div>
<div class="head-info_info_2AspQ"><a class="head-info_time_6sFQg" href="/1497035431/Oo5RDhbbi" title="2022-01-27 15:57">22-1-27 15:57</a></div>
</div></header>
<div class="wbpro-feed-content"><div class="detail_wbtext_4CRf9">正文<br>第二行</div></div>
</div><footer><span class="woo-like-count">42</span></footer></article></body></html>`

const link = "https://weibo.com/1497035431/Oo5RDhbbi"

func newTestExtractor(opener *browsertest.Opener) *Extractor {
	parser := scraper.NewDetailParser(
		scraper.NewSelectorLayout(scraper.DefaultSelectors()),
		normalize.NewNormalizer(config.Default()),
		scraper.NewDateParser(time.FixedZone("UTC+8", 8*60*60)),
	)
	return NewExtractor(opener, parser, "article", 0, observability.NewNopLogger())
}

func TestFetchDetail(t *testing.T) {
	opener := browsertest.NewOpener()
	opener.Add(link, browsertest.Page{Snapshots: []string{detailHTML}})

	post, err := newTestExtractor(opener).FetchDetail(context.Background(), link)
	require.NoError(t, err)

	assert.Equal(t, link, post.Link)
	assert.Equal(t, "tombkeeper", post.AuthorName)
	assert.Equal(t, "1497035431", post.AuthorID)
	assert.Equal(t, "正文\n第二行", post.Content)
	assert.Equal(t, "42", post.LikeNumber)
	assert.Equal(t, 0, opener.Live())
}

func TestFetchDetailErrors(t *testing.T) {
	tests := []struct {
		name     string
		page     *browsertest.Page
		link     string
		wantType herrors.ErrorType
	}{
		{
			name:     "navigation failure",
			page:     nil,
			link:     link,
			wantType: herrors.ErrorTypeNavigation,
		},
		{
			name:     "plain open error is classified as navigation",
			page:     &browsertest.Page{OpenErr: errors.New("chrome crashed")},
			link:     link,
			wantType: herrors.ErrorTypeNavigation,
		},
		{
			name:     "article never renders",
			page:     &browsertest.Page{Snapshots: []string{`<html><body><div>登录</div></body></html>`}},
			link:     link,
			wantType: herrors.ErrorTypeExtraction,
		},
		{
			name:     "render failure",
			page:     &browsertest.Page{Snapshots: []string{detailHTML}, HTMLErr: errors.New("target closed")},
			link:     link,
			wantType: herrors.ErrorTypeNavigation,
		},
		{
			name:     "empty link",
			link:     "  ",
			wantType: herrors.ErrorTypeExtraction,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opener := browsertest.NewOpener()
			if tt.page != nil {
				opener.Add(tt.link, *tt.page)
			}

			post, err := newTestExtractor(opener).FetchDetail(context.Background(), tt.link)
			require.Error(t, err)
			assert.Nil(t, post)
			assert.True(t, herrors.IsType(err, tt.wantType), "got %v", err)
			assert.Equal(t, 0, opener.Live(), "session must be released")
		})
	}
}

func TestFetchDetailCancelled(t *testing.T) {
	opener := browsertest.NewOpener()
	opener.Add(link, browsertest.Page{Snapshots: []string{detailHTML}})

	ex := newTestExtractor(opener)
	ex.settle = time.Minute

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := ex.FetchDetail(ctx, link)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 0, opener.Live())
}
