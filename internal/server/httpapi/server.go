// Package httpapi exposes the services over HTTP/JSON. Every request passes
// the authentication gate, which attaches an identity when a valid bearer
// token is present and otherwise lets the request through anonymously.
// Protected routes reject anonymous requests themselves.
package httpapi

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/dmitrijs2005/gophreddit/internal/logging"
	"github.com/dmitrijs2005/gophreddit/internal/server/models"
	"github.com/dmitrijs2005/gophreddit/internal/server/services"
	"github.com/gorilla/mux"
)

type TokenValidator interface {
	Validate(token string) (string, error)
}

type AuthService interface {
	Signup(ctx context.Context, req services.SignupRequest) (*models.User, error)
	VerifyAccount(ctx context.Context, token string) error
	Login(ctx context.Context, req services.LoginRequest) (*services.AuthenticationResponse, error)
	Refresh(ctx context.Context, req services.RefreshTokenRequest) (*services.AuthenticationResponse, error)
	Logout(ctx context.Context, refreshToken string) error
	LoadIdentity(ctx context.Context, username string) (*models.User, error)
}

type VoteService interface {
	Vote(ctx context.Context, req services.VoteRequest) error
}

type SubredditService interface {
	Create(ctx context.Context, req services.SubredditDto) (*services.SubredditDto, error)
	List(ctx context.Context) ([]*services.SubredditDto, error)
	Get(ctx context.Context, id string) (*services.SubredditDto, error)
}

type PostService interface {
	Create(ctx context.Context, req services.PostRequest) (*services.PostResponse, error)
	Update(ctx context.Context, id string, req services.PostUpdateRequest) (*services.PostResponse, error)
	Delete(ctx context.Context, id string) error
	Get(ctx context.Context, id string) (*services.PostResponse, error)
	List(ctx context.Context) ([]*services.PostResponse, error)
	ListBySubreddit(ctx context.Context, subredditID string) ([]*services.PostResponse, error)
	ListByUsername(ctx context.Context, username string) ([]*services.PostResponse, error)
}

type CommentService interface {
	Create(ctx context.Context, req services.CommentsDto) (*services.CommentsDto, error)
	ListByPost(ctx context.Context, postID string) ([]*services.CommentsDto, error)
	ListByUsername(ctx context.Context, username string) ([]*services.CommentsDto, error)
	Delete(ctx context.Context, id string) error
}

// Deps are the collaborators a Server dispatches to.
type Deps struct {
	Tokens     TokenValidator
	Auth       AuthService
	Votes      VoteService
	Subreddits SubredditService
	Posts      PostService
	Comments   CommentService
}

type Options struct {
	Address         string
	LoginRateLimit  float64
	ShutdownTimeout time.Duration
}

type Server struct {
	opts    Options
	deps    Deps
	log     logging.Logger
	handler http.Handler
}

func NewServer(opts Options, deps Deps, l logging.Logger) *Server {
	s := &Server{opts: opts, deps: deps, log: l.With("module", "http_server")}
	s.handler = s.routes()
	return s
}

// Handler returns the fully wired router.
func (s *Server) Handler() http.Handler { return s.handler }

func (s *Server) routes() http.Handler {
	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "not found"})
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"})
	})
	r.Use(s.recoverer, s.requestLogger, s.authenticate)

	r.HandleFunc("/healthz", s.healthz).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()

	limited := s.rateLimit()
	authR := api.PathPrefix("/auth").Subrouter()
	authR.Handle("/signup", limited(http.HandlerFunc(s.signup))).Methods(http.MethodPost)
	authR.HandleFunc("/accountVerification/{token}", s.verifyAccount).Methods(http.MethodGet)
	authR.Handle("/login", limited(http.HandlerFunc(s.login))).Methods(http.MethodPost)
	authR.HandleFunc("/refresh/token", s.refresh).Methods(http.MethodPost)
	authR.HandleFunc("/logout", s.logout).Methods(http.MethodPost)

	api.Handle("/subreddit", requireIdentity(s.createSubreddit)).Methods(http.MethodPost)
	api.HandleFunc("/subreddit", s.listSubreddits).Methods(http.MethodGet)
	api.HandleFunc("/subreddit/{id}", s.getSubreddit).Methods(http.MethodGet)

	api.Handle("/posts", requireIdentity(s.createPost)).Methods(http.MethodPost)
	api.HandleFunc("/posts", s.listPosts).Methods(http.MethodGet)
	api.HandleFunc("/posts/by-subreddit/{id}", s.listPostsBySubreddit).Methods(http.MethodGet)
	api.HandleFunc("/posts/by-user/{name}", s.listPostsByUser).Methods(http.MethodGet)
	api.HandleFunc("/posts/{id}", s.getPost).Methods(http.MethodGet)
	api.Handle("/posts/{id}", requireIdentity(s.updatePost)).Methods(http.MethodPut, http.MethodPost)
	api.Handle("/posts/{id}", requireIdentity(s.deletePost)).Methods(http.MethodDelete)
	api.Handle("/posts/delete/{id}", requireIdentity(s.deletePost)).Methods(http.MethodGet)

	api.Handle("/comments", requireIdentity(s.createComment)).Methods(http.MethodPost)
	api.HandleFunc("/comments/by-post/{postId}", s.listCommentsByPost).Methods(http.MethodGet)
	api.HandleFunc("/comments/by-user/{userName}", s.listCommentsByUser).Methods(http.MethodGet)
	api.Handle("/comments/{id}", requireIdentity(s.deleteComment)).Methods(http.MethodDelete)
	api.Handle("/comments/delete/{id}", requireIdentity(s.deleteComment)).Methods(http.MethodGet)

	api.Handle("/votes", requireIdentity(s.vote)).Methods(http.MethodPost)

	return r
}

// Run serves until ctx is canceled, then drains in-flight requests for up
// to ShutdownTimeout.
func (s *Server) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.opts.Address)
	if err != nil {
		return err
	}
	return s.serve(ctx, listen)
}

func (s *Server) serve(ctx context.Context, listen net.Listener) error {
	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info(ctx, "Starting HTTP server", "address", listen.Addr().String())
		errCh <- srv.Serve(listen)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.log.Info(ctx, "Stopping HTTP server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
