package scraper

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const hotPage = `<html><body><div class="card">
<section class="list">
<ul>
  <li>
    <a href="/weibo?q=%23%E8%BF%99%E4%BB%BD%E4%B8%8D%E5%8F%98%E7%9A%84%E7%89%B5%E6%8C%82%E6%B8%A9%E6%9A%96%E4%BA%BA%E5%BF%83%23&amp;Refer=new_time">
      <strong class="hot">1</strong>
      <span>这份不变的牵挂温暖人心<em>热</em></span>
    </a>
  </li>
  <li>
    <a href="https://s.weibo.com/weibo?q=%23B%23#top">
      <strong>2</strong>
      <span>第二条</span>
    </a>
  </li>
  <li><a href="javascript:void(0);"><strong></strong><span>推广</span></a></li>
  <li><a href="/weibo?q=%23C%23"><strong>3</strong><span>  </span></a></li>
</ul>
</section>
</div></body></html>`

func TestHotParserParse(t *testing.T) {
	parser, err := NewHotParser(DefaultSelectors(), "https://s.weibo.com")
	require.NoError(t, err)

	items, err := parser.Parse(hotPage)
	require.NoError(t, err)

	require.Len(t, items, 2)
	assert.Equal(t, HotItem{
		Title: "这份不变的牵挂温暖人心",
		Href:  "https://s.weibo.com/weibo?q=%23%E8%BF%99%E4%BB%BD%E4%B8%8D%E5%8F%98%E7%9A%84%E7%89%B5%E6%8C%82%E6%B8%A9%E6%9A%96%E4%BA%BA%E5%BF%83%23&Refer=new_time",
	}, items[0])
	assert.Equal(t, HotItem{Title: "第二条", Href: "https://s.weibo.com/weibo?q=%23B%23"}, items[1])
}

func TestHotParserEmptyPage(t *testing.T) {
	parser, err := NewHotParser(DefaultSelectors(), "https://s.weibo.com")
	require.NoError(t, err)

	items, err := parser.Parse(`<html><body>Sina Visitor System</body></html>`)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestNewHotParserErrors(t *testing.T) {
	selectors := DefaultSelectors()
	selectors.HotItem = ""
	_, err := NewHotParser(selectors, "https://s.weibo.com")
	assert.Error(t, err)

	_, err = NewHotParser(DefaultSelectors(), "/relative")
	assert.Error(t, err)
}
