package scraper

// LinkSet is an insertion-ordered set of post permalinks.
// It is not safe for concurrent use; one run owns it.
type LinkSet struct {
	order  []string
	index  map[string]struct{}
	frozen bool
}

func NewLinkSet() *LinkSet {
	return &LinkSet{index: make(map[string]struct{})}
}

// Add inserts link and reports whether it was new. Empty links and
// additions after Freeze are ignored.
func (s *LinkSet) Add(link string) bool {
	if s.frozen || link == "" {
		return false
	}
	if _, ok := s.index[link]; ok {
		return false
	}
	s.index[link] = struct{}{}
	s.order = append(s.order, link)
	return true
}

// Merge adds every link not already present and not contained in exclude.
// It returns the number of links added.
func (s *LinkSet) Merge(links []string, exclude *LinkSet) int {
	added := 0
	for _, link := range links {
		if exclude != nil && exclude.Contains(link) {
			continue
		}
		if s.Add(link) {
			added++
		}
	}
	return added
}

func (s *LinkSet) Contains(link string) bool {
	_, ok := s.index[link]
	return ok
}

func (s *LinkSet) Len() int {
	return len(s.order)
}

// Links returns the links in discovery order.
func (s *LinkSet) Links() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

func (s *LinkSet) Freeze() {
	s.frozen = true
}

func (s *LinkSet) Frozen() bool {
	return s.frozen
}
