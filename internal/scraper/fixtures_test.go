package scraper

import (
	"fmt"
	"strings"
)

// feedItem renders one virtualized feed entry the way weibo.com does.
// href "-" omits the attribute entirely.
func feedItem(href, author string) string {
	hrefAttr := ""
	if href != "-" {
		hrefAttr = fmt.Sprintf(` href="%s"`, href)
	}
	return `<div class="vue-recycle-scroller__item-view"><div><article class="woo-panel-main woo-panel-top"><div>` +
		`<header><div class="woo-box-item-flex head_main_3DRDm"><div>` +
		`<div class="woo-box-flex woo-box-alignCenter head_nick_1yix2"><a usercard="1497035431" href="/u/1497035431"><span>` + author + `</span></a></div>` +
		`<div class="woo-box-flex woo-box-alignCenter woo-box-justifyCenter head-info_info_2AspQ"><a class="head-info_time_6sFQg"` + hrefAttr + ` title="2022-01-27 15:57">22-1-27 15:57</a></div>` +
		`</div></div></header></div></article></div></div>`
}

func feedSnapshot(items ...string) string {
	return `<html><body><div id="scroller"><div class="vue-recycle-scroller__item-wrapper">` +
		strings.Join(items, "") +
		`</div></div></body></html>`
}

type detailFixture struct {
	author         string
	authorID       string
	content        string
	retweetAuthor  string
	retweetContent string
	likes          string
	date           string
}

func (f detailFixture) html() string {
	retweet := ""
	if f.retweetContent != "" || f.retweetAuthor != "" {
		retweet = `<div class="retweet Feed_retweet_JqZJb"><div class="detail_nick_u-ffy"><a usercard="42" href="/u/42"><span>@` + f.retweetAuthor + `</span></a></div>` +
			`<div class="detail_reText_30vF1">` + f.retweetContent + `</div></div>`
	}
	idAttr := ""
	if f.authorID != "" {
		idAttr = ` usercard="` + f.authorID + `"`
	}
	return `<html><body><main><article class="woo-panel-main Detail_feed_3iffy"><div>` +
		`<header><div class="woo-box-item-flex head_main_3DRDm"><div>` +
		`<div class="woo-box-flex woo-box-alignCenter head_nick_1yix2"><a` + idAttr + ` href="/u/x"><span>` + f.author + `</span></a></div>` +
		`<div class="woo-box-flex head-info_info_2AspQ"><a class="head-info_time_6sFQg" href="/1497035431/Oo5RDhbbi" title="` + f.date + `">` + f.date + `</a></div>` +
		`</div></div></header>` +
		`<div class="wbpro-feed-content"><div class="detail_text_1U10O detail_ogText_2Z1Q8 wbpro-feed-ogText"><div class="detail_wbtext_4CRf9">` + f.content + `</div></div></div>` +
		retweet +
		`</div><footer><div><div><div class="woo-box-item-flex toolbar_item_1ky_D"><div><button class="woo-like-main toolbar_btn_Cg9tz" title="赞"><span class="woo-like-iconWrap"></span><span class="woo-like-count">` + f.likes + `</span></button></div></div></div></div></footer>` +
		`</article></main></body></html>`
}
