package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/gophreddit/internal/dbx"
	"github.com/dmitrijs2005/gophreddit/internal/server/repositories/comments"
	"github.com/dmitrijs2005/gophreddit/internal/server/repositories/posts"
	"github.com/dmitrijs2005/gophreddit/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/gophreddit/internal/server/repositories/subreddits"
	"github.com/dmitrijs2005/gophreddit/internal/server/repositories/users"
	"github.com/dmitrijs2005/gophreddit/internal/server/repositories/verificationtokens"
	"github.com/dmitrijs2005/gophreddit/internal/server/repositories/votes"
)

// RepositoryManager hands out repositories bound to a DBTX, so the same code
// path works on the pool and inside a transaction.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	RefreshTokens(db dbx.DBTX) refreshtokens.Repository
	VerificationTokens(db dbx.DBTX) verificationtokens.Repository
	Subreddits(db dbx.DBTX) subreddits.Repository
	Posts(db dbx.DBTX) posts.Repository
	Comments(db dbx.DBTX) comments.Repository
	Votes(db dbx.DBTX) votes.Repository
}
