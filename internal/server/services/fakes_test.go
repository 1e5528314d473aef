package services

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/gophreddit/internal/common"
	"github.com/dmitrijs2005/gophreddit/internal/dbx"
	"github.com/dmitrijs2005/gophreddit/internal/server/models"
	"github.com/dmitrijs2005/gophreddit/internal/server/repositories/comments"
	"github.com/dmitrijs2005/gophreddit/internal/server/repositories/posts"
	"github.com/dmitrijs2005/gophreddit/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/gophreddit/internal/server/repositories/subreddits"
	"github.com/dmitrijs2005/gophreddit/internal/server/repositories/users"
	"github.com/dmitrijs2005/gophreddit/internal/server/repositories/verificationtokens"
	"github.com/dmitrijs2005/gophreddit/internal/server/repositories/votes"
)

type errBoom struct{}

func (errBoom) Error() string { return "boom" }

// newSQLMockDB returns a mock used only for Begin/Commit/Rollback; the
// repositories themselves are in memory.
func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

// memStore is an in-memory backing store shared by all fake repositories.
// It is not transactional: tests only roll back before the first write.
type memStore struct {
	mu sync.Mutex

	seq int

	users         map[string]*models.User
	verifications map[string]*models.VerificationToken
	refresh       map[string]*models.RefreshToken
	subreddits    map[string]*models.Subreddit
	posts         map[string]*models.Post
	comments      map[string]*models.Comment
	votes         []*models.Vote

	voteSeq     int64
	lockedPairs []string
	// ops records post lock and delete calls in order.
	ops []string

	// beforeVoteInsert runs ahead of every vote insert, unlocked.
	beforeVoteInsert func()

	findLatestErr error
	addCountErr   error
}

func newMemStore() *memStore {
	return &memStore{
		users:         map[string]*models.User{},
		verifications: map[string]*models.VerificationToken{},
		refresh:       map[string]*models.RefreshToken{},
		subreddits:    map[string]*models.Subreddit{},
		posts:         map[string]*models.Post{},
		comments:      map[string]*models.Comment{},
	}
}

func (m *memStore) nextID(prefix string) string {
	m.seq++
	return fmt.Sprintf("%s-%d", prefix, m.seq)
}

func (m *memStore) addUser(name string, enabled bool) *models.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	u := &models.User{ID: m.nextID("u"), UserName: name, Email: name + "@example.com", PasswordHash: "hash:secret", Enabled: enabled}
	m.users[u.ID] = u
	return u
}

func (m *memStore) addSubreddit(name, owner string) *models.Subreddit {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := &models.Subreddit{ID: m.nextID("s"), Name: name, UserID: owner}
	m.subreddits[s.ID] = s
	return s
}

func (m *memStore) addPost(name, owner, subreddit string) *models.Post {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := &models.Post{ID: m.nextID("p"), Name: name, UserID: owner, SubredditID: subreddit, CreatedAt: time.Now()}
	m.posts[p.ID] = p
	return p
}

func (m *memStore) voteCount(postID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.posts[postID].VoteCount
}

func (m *memStore) voteLog(postID string) []*models.Vote {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Vote
	for _, v := range m.votes {
		if v.PostID == postID {
			out = append(out, v)
		}
	}
	return out
}

type fakeRepoManager struct{ s *memStore }

func (f *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (f *fakeRepoManager) Users(dbx.DBTX) users.Repository             { return fakeUsers{f.s} }
func (f *fakeRepoManager) RefreshTokens(dbx.DBTX) refreshtokens.Repository {
	return fakeRefresh{f.s}
}
func (f *fakeRepoManager) VerificationTokens(dbx.DBTX) verificationtokens.Repository {
	return fakeVerifications{f.s}
}
func (f *fakeRepoManager) Subreddits(dbx.DBTX) subreddits.Repository { return fakeSubreddits{f.s} }
func (f *fakeRepoManager) Posts(dbx.DBTX) posts.Repository           { return fakePosts{f.s} }
func (f *fakeRepoManager) Comments(dbx.DBTX) comments.Repository     { return fakeComments{f.s} }
func (f *fakeRepoManager) Votes(dbx.DBTX) votes.Repository           { return fakeVotes{f.s} }

type fakeUsers struct{ s *memStore }

func (r fakeUsers) Create(_ context.Context, u *models.User) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, e := range r.s.users {
		if e.UserName == u.UserName || e.Email == u.Email {
			return nil, common.ErrorAlreadyExists
		}
	}
	cp := *u
	cp.ID = r.s.nextID("u")
	cp.CreatedAt = time.Now()
	r.s.users[cp.ID] = &cp
	return &cp, nil
}

func (r fakeUsers) GetUserByLogin(_ context.Context, login string) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.UserName == login {
			cp := *u
			return &cp, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r fakeUsers) GetByID(_ context.Context, id string) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *u
	return &cp, nil
}

func (r fakeUsers) Enable(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return common.ErrorNotFound
	}
	u.Enabled = true
	return nil
}

type fakeRefresh struct{ s *memStore }

func (r fakeRefresh) Create(_ context.Context, userName, token string) (*models.RefreshToken, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	rt := &models.RefreshToken{ID: r.s.nextID("rt"), Token: token, UserName: userName, CreatedAt: time.Now()}
	r.s.refresh[token] = rt
	return rt, nil
}

func (r fakeRefresh) Find(_ context.Context, token string) (*models.RefreshToken, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	rt, ok := r.s.refresh[token]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return rt, nil
}

func (r fakeRefresh) Delete(_ context.Context, token string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.refresh, token)
	return nil
}

type fakeVerifications struct{ s *memStore }

func (r fakeVerifications) Create(_ context.Context, userID, token string, expiresAt time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.verifications[token] = &models.VerificationToken{ID: r.s.nextID("vt"), Token: token, UserID: userID, ExpiresAt: expiresAt}
	return nil
}

func (r fakeVerifications) Find(_ context.Context, token string) (*models.VerificationToken, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	vt, ok := r.s.verifications[token]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return vt, nil
}

func (r fakeVerifications) Delete(_ context.Context, token string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.verifications, token)
	return nil
}

type fakeSubreddits struct{ s *memStore }

func (r fakeSubreddits) Create(_ context.Context, sr *models.Subreddit) (*models.Subreddit, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, e := range r.s.subreddits {
		if e.Name == sr.Name {
			return nil, common.ErrorAlreadyExists
		}
	}
	cp := *sr
	cp.ID = r.s.nextID("s")
	r.s.subreddits[cp.ID] = &cp
	return &cp, nil
}

func (r fakeSubreddits) GetByID(_ context.Context, id string) (*models.Subreddit, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	sr, ok := r.s.subreddits[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return sr, nil
}

func (r fakeSubreddits) GetByName(_ context.Context, name string) (*models.Subreddit, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, sr := range r.s.subreddits {
		if sr.Name == name {
			return sr, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r fakeSubreddits) List(context.Context) ([]*models.Subreddit, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]*models.Subreddit, 0, len(r.s.subreddits))
	for _, sr := range r.s.subreddits {
		cp := *sr
		for _, p := range r.s.posts {
			if p.SubredditID == sr.ID {
				cp.NumberOfPosts++
			}
		}
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

type fakePosts struct{ s *memStore }

func (r fakePosts) Create(_ context.Context, p *models.Post) (*models.Post, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, e := range r.s.posts {
		if e.Name == p.Name {
			return nil, common.ErrorAlreadyExists
		}
	}
	cp := *p
	cp.ID = r.s.nextID("p")
	cp.CreatedAt = time.Now()
	r.s.posts[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (r fakePosts) Update(_ context.Context, p *models.Post) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	e, ok := r.s.posts[p.ID]
	if !ok {
		return common.ErrorNotFound
	}
	e.Name, e.URL, e.Description = p.Name, p.URL, p.Description
	return nil
}

func (r fakePosts) GetByID(_ context.Context, id string) (*models.Post, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.posts[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return r.s.decorate(p), nil
}

func (m *memStore) decorate(p *models.Post) *models.Post {
	cp := *p
	if u, ok := m.users[p.UserID]; ok {
		cp.UserName = u.UserName
	}
	if sr, ok := m.subreddits[p.SubredditID]; ok {
		cp.SubredditName = sr.Name
	}
	for _, c := range m.comments {
		if c.PostID == p.ID {
			cp.CommentCount++
		}
	}
	return &cp
}

func (r fakePosts) LockByID(ctx context.Context, id string) (*models.Post, error) {
	r.s.mu.Lock()
	r.s.ops = append(r.s.ops, "lock "+id)
	r.s.mu.Unlock()
	return r.GetByID(ctx, id)
}

func (r fakePosts) filter(keep func(*models.Post) bool) []*models.Post {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]*models.Post, 0)
	for _, p := range r.s.posts {
		if keep(p) {
			out = append(out, r.s.decorate(p))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r fakePosts) List(context.Context) ([]*models.Post, error) {
	return r.filter(func(*models.Post) bool { return true }), nil
}

func (r fakePosts) ListBySubreddit(_ context.Context, id string) ([]*models.Post, error) {
	return r.filter(func(p *models.Post) bool { return p.SubredditID == id }), nil
}

func (r fakePosts) ListByUserName(_ context.Context, name string) ([]*models.Post, error) {
	return r.filter(func(p *models.Post) bool {
		u, ok := r.s.users[p.UserID]
		return ok && u.UserName == name
	}), nil
}

func (r fakePosts) AddVoteCount(_ context.Context, id string, delta int) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.addCountErr != nil {
		return 0, r.s.addCountErr
	}
	p, ok := r.s.posts[id]
	if !ok {
		return 0, common.ErrorNotFound
	}
	p.VoteCount += delta
	return p.VoteCount, nil
}

func (r fakePosts) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.posts[id]; !ok {
		return common.ErrorNotFound
	}
	r.s.ops = append(r.s.ops, "delete "+id)
	delete(r.s.posts, id)
	return nil
}

type fakeComments struct{ s *memStore }

func (r fakeComments) Create(_ context.Context, c *models.Comment) (*models.Comment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.posts[c.PostID]; !ok {
		return nil, common.ErrPostNotFound
	}
	cp := *c
	cp.ID = r.s.nextID("c")
	cp.CreatedAt = time.Now()
	r.s.comments[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (r fakeComments) GetByID(_ context.Context, id string) (*models.Comment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.comments[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *c
	return &cp, nil
}

func (r fakeComments) filter(keep func(*models.Comment) bool) []*models.Comment {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]*models.Comment, 0)
	for _, c := range r.s.comments {
		if keep(c) {
			cp := *c
			if u, ok := r.s.users[c.UserID]; ok {
				cp.UserName = u.UserName
			}
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r fakeComments) ListByPost(_ context.Context, postID string) ([]*models.Comment, error) {
	return r.filter(func(c *models.Comment) bool { return c.PostID == postID }), nil
}

func (r fakeComments) ListByUserName(_ context.Context, name string) ([]*models.Comment, error) {
	return r.filter(func(c *models.Comment) bool {
		u, ok := r.s.users[c.UserID]
		return ok && u.UserName == name
	}), nil
}

func (r fakeComments) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.comments[id]; !ok {
		return common.ErrorNotFound
	}
	delete(r.s.comments, id)
	return nil
}

func (r fakeComments) DeleteByPost(_ context.Context, postID string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for id, c := range r.s.comments {
		if c.PostID == postID {
			delete(r.s.comments, id)
			n++
		}
	}
	return n, nil
}

type fakeVotes struct{ s *memStore }

func (r fakeVotes) LockPair(_ context.Context, postID, userID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.lockedPairs = append(r.s.lockedPairs, votes.PairKey(postID, userID))
	return nil
}

func (r fakeVotes) FindLatest(_ context.Context, postID, userID string) (*models.Vote, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.findLatestErr != nil {
		return nil, r.s.findLatestErr
	}
	var latest *models.Vote
	for _, v := range r.s.votes {
		if v.PostID == postID && v.UserID == userID && (latest == nil || v.Seq > latest.Seq) {
			latest = v
		}
	}
	if latest == nil {
		return nil, common.ErrorNotFound
	}
	return latest, nil
}

func (r fakeVotes) Create(_ context.Context, v *models.Vote) (*models.Vote, error) {
	if r.s.beforeVoteInsert != nil {
		r.s.beforeVoteInsert()
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	// foreign key on votes.post_id
	if _, ok := r.s.posts[v.PostID]; !ok {
		return nil, common.ErrPostNotFound
	}
	cp := *v
	cp.ID = r.s.nextID("v")
	r.s.voteSeq++
	cp.Seq = r.s.voteSeq
	r.s.votes = append(r.s.votes, &cp)
	return &cp, nil
}

func (r fakeVotes) DeleteByPost(_ context.Context, postID string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	kept := r.s.votes[:0]
	var n int64
	for _, v := range r.s.votes {
		if v.PostID == postID {
			n++
			continue
		}
		kept = append(kept, v)
	}
	r.s.votes = kept
	return n, nil
}

// plainHasher stands in for bcrypt.
type plainHasher struct{}

func (plainHasher) Hash(raw string) (string, error) { return "hash:" + raw, nil }
func (plainHasher) Matches(raw, digest string) bool {
	return strings.HasPrefix(digest, "hash:") && digest == "hash:"+raw
}
