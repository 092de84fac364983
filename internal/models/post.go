package models

// Post is a recent item listed by the source provider
type Post struct {
	ID         string
	Title      string
	ReplyCount int
	Permalink  string
}

// Reply is a top-level reply to a Post
type Reply struct {
	Body string
}
