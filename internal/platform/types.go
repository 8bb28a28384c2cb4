package platform

import "time"

// Operation names used as the ResourceKey operation component. Every client
// exposes the same three operation classes so quota costs and dashboards
// line up across providers.
const (
	OpProfile = "profile"
	OpSearch  = "search"
	OpDetail  = "detail"
)

// Profile is a platform account profile.
type Profile struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	Followers   int64  `json:"followers"`
	PostCount   int64  `json:"post_count"`
}

// Post is one piece of content on a platform.
type Post struct {
	ID          string    `json:"id"`
	AuthorID    string    `json:"author_id"`
	Title       string    `json:"title"`
	URL         string    `json:"url"`
	Likes       int64     `json:"likes"`
	PublishedAt time.Time `json:"published_at"`
}

// SearchPage is one page of search results.
type SearchPage struct {
	Posts      []Post `json:"posts"`
	NextCursor string `json:"next_cursor,omitempty"`
}
