package web

import (
	"encoding/json"
	"errors"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/conorfennell/flashlearn/internal/auth"
	"github.com/conorfennell/flashlearn/internal/domain"
	"github.com/conorfennell/flashlearn/internal/validate"
)

const (
	maxBodyBytes = 1 << 20

	defaultPage  = 1
	defaultLimit = 20
)

type authResponse struct {
	Token  string        `json:"token"`
	UserID domain.UserID `json:"user_id"`
	Email  string        `json:"email"`
}

type flashcardResponse struct {
	ID           domain.FlashcardID `json:"id"`
	Question     string             `json:"question"`
	Answer       string             `json:"answer"`
	Source       domain.Source      `json:"source"`
	GenerationID string             `json:"generation_id,omitempty"`
	CreatedAt    time.Time          `json:"created_at"`
	UpdatedAt    time.Time          `json:"updated_at"`
}

func toResponse(f domain.Flashcard) flashcardResponse {
	return flashcardResponse{
		ID:           f.ID,
		Question:     f.Question,
		Answer:       f.Answer,
		Source:       f.Source,
		GenerationID: f.GenerationID,
		CreatedAt:    f.CreatedAt,
		UpdatedAt:    f.UpdatedAt,
	}
}

func toResponses(cards []domain.Flashcard) []flashcardResponse {
	out := make([]flashcardResponse, 0, len(cards))
	for _, c := range cards {
		out = append(out, toResponse(c))
	}
	return out
}

type paginatedResponse struct {
	Data       []flashcardResponse `json:"data"`
	Page       int                 `json:"page"`
	Limit      int                 `json:"limit"`
	Total      int                 `json:"total"`
	TotalPages int                 `json:"total_pages"`
}

type pagination struct {
	Page  int `json:"page" validate:"min=1"`
	Limit int `json:"limit" validate:"min=1,max=100"`
}

type flashcardRequest struct {
	Question string `json:"question" validate:"required,max=10000"`
	Answer   string `json:"answer" validate:"required,max=10000"`
	Source   string `json:"source" validate:"omitempty,oneof=manual ai"`
}

func (f *flashcardRequest) trim() {
	f.Question = strings.TrimSpace(f.Question)
	f.Answer = strings.TrimSpace(f.Answer)
}

type bulkRequest struct {
	Flashcards   []flashcardRequest `json:"flashcards" validate:"required,min=1,max=100,dive"`
	GenerationID string             `json:"generation_id" validate:"omitempty,uuid"`
}

type updateRequest struct {
	Question string `json:"question" validate:"required,max=10000"`
	Answer   string `json:"answer" validate:"required,max=10000"`
}

type generateRequest struct {
	SourceText string `json:"source_text" validate:"required"`
}

type generatedCard struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

type generateResponse struct {
	GenerationID string          `json:"generation_id"`
	Flashcards   []generatedCard `json:"flashcards"`
	Count        int             `json:"count"`
}

// decodeJSON reads a size-limited JSON body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return badRequest("Request body is empty")
		}
		return badRequest("Invalid JSON body")
	}
	return nil
}

func (s *Server) handleAPIRegister() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var c auth.Credentials
		if err := decodeJSON(w, r, &c); err != nil {
			writeError(w, r, s.logger, err)
			return
		}
		user, token, err := s.auth.Register(r.Context(), c)
		if err != nil {
			writeError(w, r, s.logger, err)
			return
		}
		writeJSON(w, http.StatusCreated, authResponse{Token: token, UserID: user.ID, Email: user.Email})
	}
}

func (s *Server) handleAPILogin() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var c auth.Credentials
		if err := decodeJSON(w, r, &c); err != nil {
			writeError(w, r, s.logger, err)
			return
		}
		user, token, err := s.auth.Login(r.Context(), c)
		if err != nil {
			writeError(w, r, s.logger, err)
			return
		}
		writeJSON(w, http.StatusOK, authResponse{Token: token, UserID: user.ID, Email: user.Email})
	}
}

func queryInt(r *http.Request, key string, def int) (int, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, badRequest("Query parameter " + key + " must be an integer")
	}
	return n, nil
}

func (s *Server) handleAPIList() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var p pagination
		var err error
		if p.Page, err = queryInt(r, "page", defaultPage); err != nil {
			writeError(w, r, s.logger, err)
			return
		}
		if p.Limit, err = queryInt(r, "limit", defaultLimit); err != nil {
			writeError(w, r, s.logger, err)
			return
		}
		if err := validate.Struct(p); err != nil {
			writeError(w, r, s.logger, err)
			return
		}

		userID := userFrom(r)
		total, err := s.db.CountFlashcards(r.Context(), userID)
		if err != nil {
			writeError(w, r, s.logger, err)
			return
		}
		cards, err := s.db.ListFlashcards(r.Context(), userID, p.Limit, (p.Page-1)*p.Limit)
		if err != nil {
			writeError(w, r, s.logger, err)
			return
		}
		writeJSON(w, http.StatusOK, paginatedResponse{
			Data:       toResponses(cards),
			Page:       p.Page,
			Limit:      p.Limit,
			Total:      total,
			TotalPages: int(math.Ceil(float64(total) / float64(p.Limit))),
		})
	}
}

func (s *Server) handleAPICreate() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req flashcardRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, s.logger, err)
			return
		}
		req.trim()
		if err := validate.Struct(req); err != nil {
			writeError(w, r, s.logger, err)
			return
		}
		source := domain.SourceManual
		if req.Source != "" {
			source = domain.Source(req.Source)
		}

		cards, err := s.db.InsertFlashcards(r.Context(), userFrom(r), source, "", []domain.Draft{{Question: req.Question, Answer: req.Answer}})
		if err != nil {
			writeError(w, r, s.logger, err)
			return
		}
		writeJSON(w, http.StatusCreated, toResponse(cards[0]))
	}
}

// handleAPIBulkCreate stores several cards at once. When generation_id is
// set the cards are the accepted output of that generation.
func (s *Server) handleAPIBulkCreate() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req bulkRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, s.logger, err)
			return
		}
		for i := range req.Flashcards {
			req.Flashcards[i].trim()
		}
		if err := validate.Struct(req); err != nil {
			writeError(w, r, s.logger, err)
			return
		}

		userID := userFrom(r)
		source := domain.SourceManual
		if req.GenerationID != "" {
			gen, err := s.db.FindGeneration(r.Context(), req.GenerationID)
			if err != nil {
				writeError(w, r, s.logger, err)
				return
			}
			if gen == nil {
				writeError(w, r, s.logger, errNotFound)
				return
			}
			if gen.UserID != userID {
				writeError(w, r, s.logger, errForbidden)
				return
			}
			source = domain.SourceAI
		}

		drafts := make([]domain.Draft, 0, len(req.Flashcards))
		for _, f := range req.Flashcards {
			drafts = append(drafts, domain.Draft{Question: f.Question, Answer: f.Answer})
		}
		cards, err := s.db.InsertFlashcards(r.Context(), userID, source, req.GenerationID, drafts)
		if err != nil {
			writeError(w, r, s.logger, err)
			return
		}
		if req.GenerationID != "" {
			if err := s.db.AddAcceptedCards(r.Context(), req.GenerationID, len(cards)); err != nil {
				s.logger.Warn("failed to update accepted count", "generation_id", req.GenerationID, "error", err)
			}
		}
		writeJSON(w, http.StatusCreated, map[string]any{"data": toResponses(cards)})
	}
}

func (s *Server) handleAPIGenerate() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := userFrom(r)
		if !s.limiter.allow(userID) {
			writeError(w, r, s.logger, errRateLimited)
			return
		}
		var req generateRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, s.logger, err)
			return
		}
		if err := validate.Struct(req); err != nil {
			writeError(w, r, s.logger, err)
			return
		}

		out, err := s.gen.Generate(r.Context(), userID, req.SourceText)
		if err != nil {
			writeError(w, r, s.logger, err)
			return
		}
		cards := make([]generatedCard, 0, len(out.Drafts))
		for _, d := range out.Drafts {
			cards = append(cards, generatedCard{Question: d.Question, Answer: d.Answer})
		}
		writeJSON(w, http.StatusOK, generateResponse{GenerationID: out.GenerationID, Flashcards: cards, Count: len(cards)})
	}
}

// ownedCard loads the card named in the path and checks it belongs to the
// requesting user.
func (s *Server) ownedCard(r *http.Request) (*domain.Flashcard, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return nil, errNotFound
	}
	card, err := s.db.FindFlashcard(r.Context(), domain.FlashcardID(id))
	if err != nil {
		return nil, err
	}
	if card == nil {
		return nil, errNotFound
	}
	if card.UserID != userFrom(r) {
		return nil, errForbidden
	}
	return card, nil
}

func (s *Server) handleAPIGet() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		card, err := s.ownedCard(r)
		if err != nil {
			writeError(w, r, s.logger, err)
			return
		}
		writeJSON(w, http.StatusOK, toResponse(*card))
	}
}

func (s *Server) handleAPIUpdate() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		card, err := s.ownedCard(r)
		if err != nil {
			writeError(w, r, s.logger, err)
			return
		}
		var req updateRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, s.logger, err)
			return
		}
		req.Question = strings.TrimSpace(req.Question)
		req.Answer = strings.TrimSpace(req.Answer)
		if err := validate.Struct(req); err != nil {
			writeError(w, r, s.logger, err)
			return
		}

		if err := s.db.UpdateFlashcard(r.Context(), card.ID, domain.Draft{Question: req.Question, Answer: req.Answer}); err != nil {
			writeError(w, r, s.logger, err)
			return
		}
		updated, err := s.db.FindFlashcard(r.Context(), card.ID)
		if err != nil {
			writeError(w, r, s.logger, err)
			return
		}
		if updated == nil {
			writeError(w, r, s.logger, errNotFound)
			return
		}
		writeJSON(w, http.StatusOK, toResponse(*updated))
	}
}

func (s *Server) handleAPIDelete() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		card, err := s.ownedCard(r)
		if err != nil {
			writeError(w, r, s.logger, err)
			return
		}
		if err := s.db.DeleteFlashcard(r.Context(), card.ID); err != nil {
			writeError(w, r, s.logger, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
