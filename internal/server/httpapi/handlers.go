package httpapi

import (
	"net/http"

	"github.com/dmitrijs2005/gophreddit/internal/server/services"
	"github.com/gorilla/mux"
)

func (s *Server) signup(w http.ResponseWriter, r *http.Request) {
	req, err := decodeValid[services.SignupRequest](w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if _, err := s.deps.Auth.Signup(r.Context(), req); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, messageResponse{Message: "User Registration Successful"})
}

func (s *Server) verifyAccount(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Auth.VerifyAccount(r.Context(), mux.Vars(r)["token"]); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "Account Activated Successfully"})
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	req, err := decodeValid[services.LoginRequest](w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	resp, err := s.deps.Auth.Login(r.Context(), req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) refresh(w http.ResponseWriter, r *http.Request) {
	req, err := decodeValid[services.RefreshTokenRequest](w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	resp, err := s.deps.Auth.Refresh(r.Context(), req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	req, err := decodeValid[services.RefreshTokenRequest](w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.deps.Auth.Logout(r.Context(), req.RefreshToken); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "Refresh Token Deleted Successfully!!"})
}

func (s *Server) vote(w http.ResponseWriter, r *http.Request) {
	req, err := decodeValid[services.VoteRequest](w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.deps.Votes.Vote(r.Context(), req); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) createSubreddit(w http.ResponseWriter, r *http.Request) {
	req, err := decodeValid[services.SubredditDto](w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	created, err := s.deps.Subreddits.Create(r.Context(), req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) listSubreddits(w http.ResponseWriter, r *http.Request) {
	list, err := s.deps.Subreddits.List(r.Context())
	s.respond(w, r, list, err)
}

func (s *Server) getSubreddit(w http.ResponseWriter, r *http.Request) {
	sr, err := s.deps.Subreddits.Get(r.Context(), mux.Vars(r)["id"])
	s.respond(w, r, sr, err)
}

func (s *Server) createPost(w http.ResponseWriter, r *http.Request) {
	req, err := decodeValid[services.PostRequest](w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	created, err := s.deps.Posts.Create(r.Context(), req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) updatePost(w http.ResponseWriter, r *http.Request) {
	req, err := decodeValid[services.PostUpdateRequest](w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	updated, err := s.deps.Posts.Update(r.Context(), mux.Vars(r)["id"], req)
	s.respond(w, r, updated, err)
}

func (s *Server) deletePost(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Posts.Delete(r.Context(), mux.Vars(r)["id"]); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) getPost(w http.ResponseWriter, r *http.Request) {
	p, err := s.deps.Posts.Get(r.Context(), mux.Vars(r)["id"])
	s.respond(w, r, p, err)
}

func (s *Server) listPosts(w http.ResponseWriter, r *http.Request) {
	list, err := s.deps.Posts.List(r.Context())
	s.respond(w, r, list, err)
}

func (s *Server) listPostsBySubreddit(w http.ResponseWriter, r *http.Request) {
	list, err := s.deps.Posts.ListBySubreddit(r.Context(), mux.Vars(r)["id"])
	s.respond(w, r, list, err)
}

func (s *Server) listPostsByUser(w http.ResponseWriter, r *http.Request) {
	list, err := s.deps.Posts.ListByUsername(r.Context(), mux.Vars(r)["name"])
	s.respond(w, r, list, err)
}

func (s *Server) createComment(w http.ResponseWriter, r *http.Request) {
	req, err := decodeValid[services.CommentsDto](w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	created, err := s.deps.Comments.Create(r.Context(), req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) listCommentsByPost(w http.ResponseWriter, r *http.Request) {
	list, err := s.deps.Comments.ListByPost(r.Context(), mux.Vars(r)["postId"])
	s.respond(w, r, list, err)
}

func (s *Server) listCommentsByUser(w http.ResponseWriter, r *http.Request) {
	list, err := s.deps.Comments.ListByUsername(r.Context(), mux.Vars(r)["userName"])
	s.respond(w, r, list, err)
}

func (s *Server) deleteComment(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Comments.Delete(r.Context(), mux.Vars(r)["id"]); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) respond(w http.ResponseWriter, r *http.Request, payload any, err error) {
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, payload)
}
