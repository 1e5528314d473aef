package models

import (
	"fmt"
	"strings"
	"time"
)

// VoteType is the direction of a vote. Its integer value is the contribution
// of a fresh vote to the post's tally.
type VoteType int

const (
	UpVote   VoteType = 1
	DownVote VoteType = -1
)

func (v VoteType) String() string {
	switch v {
	case UpVote:
		return "UPVOTE"
	case DownVote:
		return "DOWNVOTE"
	}
	return fmt.Sprintf("VoteType(%d)", int(v))
}

// Valid reports whether v is UpVote or DownVote.
func (v VoteType) Valid() bool { return v == UpVote || v == DownVote }

// ParseVoteType accepts "UPVOTE" and "DOWNVOTE" in any case.
func ParseVoteType(s string) (VoteType, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "UPVOTE":
		return UpVote, nil
	case "DOWNVOTE":
		return DownVote, nil
	}
	return 0, fmt.Errorf("unknown vote type %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (v VoteType) MarshalText() ([]byte, error) {
	if !v.Valid() {
		return nil, fmt.Errorf("invalid vote type %d", int(v))
	}
	return []byte(v.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (v *VoteType) UnmarshalText(b []byte) error {
	parsed, err := ParseVoteType(string(b))
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// Vote is one append-only entry of the vote log. Seq orders entries for the
// same (post, user) pair; the highest Seq is the current vote.
type Vote struct {
	ID        string
	Seq       int64
	PostID    string
	UserID    string
	VoteType  VoteType
	CreatedAt time.Time
}
