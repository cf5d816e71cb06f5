package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/rs/zerolog/hlog"

	"pdf-rag/internal/helper"
	"pdf-rag/internal/memory"
	"pdf-rag/internal/models"
)

const (
	SessionHeader = "X-Session-ID"
	SessionCookie = "session_id"

	maxBodyBytes = 1 << 20
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	req, err := decodeChatRequest(w, r)
	if err != nil {
		hlog.FromRequest(r).Debug().Err(err).Msg("Rejected chat request")
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	sess := s.session(w, r)
	out := s.answerer.Answer(r.Context(), sess, req.Question)
	hlog.FromRequest(r).Debug().
		Str("session", sess.ID).
		Str("state", out.State.String()).
		Int("sources", len(out.Response.Sources)).
		Msg("Chat answered")
	s.respondJSON(w, http.StatusOK, out.Response)
}

// decodeChatRequest reads a ChatRequest, rejecting malformed bodies and empty
// questions. Unknown fields are ignored.
func decodeChatRequest(w http.ResponseWriter, r *http.Request) (models.ChatRequest, error) {
	var req models.ChatRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		return req, fmt.Errorf("%w: invalid request body: %v", models.ErrTransport, err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return req, fmt.Errorf("%w: invalid request body: trailing data", models.ErrTransport)
	}
	req.Question = strings.TrimSpace(req.Question)
	if req.Question == "" {
		return req, fmt.Errorf("%w: question is required", models.ErrTransport)
	}
	return req, nil
}

// session resolves the caller's session from the header or cookie, minting a
// new id when neither is present. The id is echoed in both.
func (s *Server) session(w http.ResponseWriter, r *http.Request) *memory.Session {
	id := strings.TrimSpace(r.Header.Get(SessionHeader))
	if id == "" {
		if c, err := r.Cookie(SessionCookie); err == nil {
			id = strings.TrimSpace(c.Value)
		}
	}
	if id == "" {
		minted, err := helper.GenerateUUID()
		if err != nil {
			hlog.FromRequest(r).Warn().Err(err).Msg("Falling back to the default session")
			minted = memory.DefaultSession
		}
		id = minted
	}

	w.Header().Set(SessionHeader, id)
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return s.sessions.Get(id)
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
