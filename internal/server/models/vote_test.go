package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVoteType_JSON(t *testing.T) {
	var payload struct {
		VoteType VoteType `json:"voteType"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"voteType":"downvote"}`), &payload))
	assert.Equal(t, DownVote, payload.VoteType)

	out, err := json.Marshal(payload)
	require.NoError(t, err)
	assert.JSONEq(t, `{"voteType":"DOWNVOTE"}`, string(out))

	require.Error(t, json.Unmarshal([]byte(`{"voteType":"SIDEVOTE"}`), &payload))

	_, err = json.Marshal(struct{ V VoteType }{V: 0})
	require.Error(t, err)
}

func TestVerificationToken_Expired(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	assert.False(t, (&VerificationToken{ExpiresAt: now.Add(time.Second)}).Expired(now))
	assert.True(t, (&VerificationToken{ExpiresAt: now}).Expired(now))
	assert.False(t, (&VerificationToken{}).Expired(now), "zero expiry never expires")
}
