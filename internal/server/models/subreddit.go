package models

import "time"

type Subreddit struct {
	ID          string
	Name        string
	Description string
	UserID      string
	CreatedAt   time.Time

	// NumberOfPosts is computed on read.
	NumberOfPosts int
}
