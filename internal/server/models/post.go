package models

import "time"

// Post is a link or text submission inside a subreddit. VoteCount is only
// ever changed by the vote ledger.
type Post struct {
	ID          string
	Name        string
	URL         string
	Description string
	VoteCount   int
	UserID      string
	SubredditID string
	CreatedAt   time.Time

	// Read-side joins.
	UserName      string
	SubredditName string
	CommentCount  int
}

type Comment struct {
	ID        string
	Text      string
	PostID    string
	UserID    string
	CreatedAt time.Time

	UserName string
}
