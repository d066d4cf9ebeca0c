package scraper

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultSelectors describes the "woo" feed layout served by weibo.com since 2022.
// CSS-module hashes are matched by prefix so a rebuild of the site's bundle does not break them.
func DefaultSelectors() *Selectors {
	return &Selectors{
		FeedContainer: "#scroller > div.vue-recycle-scroller__item-wrapper > div",
		Article:       []string{"article.woo-panel-main", "article"},
		Link: []string{
			"header a[class*='head-info_time']@href",
			"header div[class*='head-info_info'] > a@href",
		},
		AuthorName: []string{
			"header div[class*='head_nick'] > a > span",
			"header a[usercard] span",
		},
		AuthorID: []string{
			"header div[class*='head_nick'] > a@usercard",
			"header a[usercard]@usercard",
		},
		Content: []string{
			"div.wbpro-feed-content div[class*='detail_wbtext']",
			"div.wbpro-feed-content",
		},
		RetweetBlock: []string{"div.retweet", "div[class*='retweet']"},
		RetweetAuthor: []string{
			"a[usercard] span",
			"a[usercard]",
			"div[class*='detail_nick']",
		},
		RetweetContent: []string{
			"div[class*='detail_reText']",
			"div[class*='detail_wbtext']",
		},
		LikeCount: []string{
			"footer span.woo-like-count",
			"footer button[title='赞'] span",
		},
		Date: []string{
			"header a[class*='head-info_time']@title",
			"header a[class*='head-info_time']",
		},

		// s.weibo.com/top/summary: rank element first, title element second
		HotItem:  "body > div > section > ul > li",
		HotLink:  []string{"a@href"},
		HotTitle: []string{"a > :nth-child(2)", "a > span"},
	}
}

// LoadSelectors загружает селекторы из YAML файла
func LoadSelectors(filePath string) (*Selectors, error) {
	if filePath == "" {
		return nil, fmt.Errorf("selectors file path is empty")
	}

	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open selectors file: %w", err)
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			fmt.Printf("Warning: failed to close selectors file: %v\n", closeErr)
		}
	}()

	var selectors Selectors
	decoder := yaml.NewDecoder(file)
	if err := decoder.Decode(&selectors); err != nil {
		return nil, fmt.Errorf("failed to parse selectors YAML: %w", err)
	}

	if err := ValidateSelectors(&selectors); err != nil {
		return nil, err
	}

	return &selectors, nil
}

// ValidateSelectors проверяет минимальный набор селекторов
func ValidateSelectors(s *Selectors) error {
	if s.FeedContainer == "" {
		return fmt.Errorf("feed_container is required")
	}
	if len(s.Article) == 0 {
		return fmt.Errorf("article is required")
	}
	if len(s.Link) == 0 {
		return fmt.Errorf("link is required")
	}
	if len(s.AuthorName) == 0 {
		return fmt.Errorf("author_name is required")
	}
	if len(s.Content) == 0 {
		return fmt.Errorf("content is required")
	}
	if len(s.Date) == 0 {
		return fmt.Errorf("date is required")
	}
	if len(s.RetweetBlock) > 0 && len(s.RetweetContent) == 0 {
		return fmt.Errorf("retweet_content is required when retweet_block is set")
	}
	if s.HotItem != "" && (len(s.HotLink) == 0 || len(s.HotTitle) == 0) {
		return fmt.Errorf("hot_link and hot_title are required when hot_item is set")
	}
	return nil
}
