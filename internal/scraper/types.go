package scraper

import "time"

// Post is one harvested feed entry. Empty RetweetContent means no retweet.
type Post struct {
	Link           string
	AuthorName     string
	AuthorID       string
	Content        string
	RetweetContent string
	RetweetAuthor  string
	LikeNumber     string
	Date           time.Time
}

// HotItem is one entry of the realtime hot-search list.
type HotItem struct {
	Title string `json:"title"`
	Href  string `json:"href"`
}

type Selectors struct {
	FeedContainer  string   `yaml:"feed_container"`
	Article        []string `yaml:"article"`
	Link           []string `yaml:"link"`
	AuthorName     []string `yaml:"author_name"`
	AuthorID       []string `yaml:"author_id"`
	Content        []string `yaml:"content"`
	RetweetBlock   []string `yaml:"retweet_block"`
	RetweetAuthor  []string `yaml:"retweet_author"`
	RetweetContent []string `yaml:"retweet_content"`
	LikeCount      []string `yaml:"like_count"`
	Date           []string `yaml:"date"`

	HotItem  string   `yaml:"hot_item"`
	HotLink  []string `yaml:"hot_link"`
	HotTitle []string `yaml:"hot_title"`
}
