package web

import (
	"errors"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/conorfennell/flashlearn/internal/auth"
	"github.com/conorfennell/flashlearn/internal/domain"
	"github.com/conorfennell/flashlearn/internal/importer"
	"github.com/conorfennell/flashlearn/internal/learn"
	"github.com/conorfennell/flashlearn/internal/validate"
)

const pageSize = 20

func (s *Server) handleRegisterPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.render(w, http.StatusOK, "register", map[string]any{"Notice": s.takeNotice(w, r)})
	}
}

func (s *Server) handleRegisterSubmit() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := auth.Credentials{Email: r.PostFormValue("email"), Password: r.PostFormValue("password")}
		_, token, err := s.auth.Register(r.Context(), c)
		if err != nil {
			var verr *validate.Error
			msg := "Registration failed."
			switch {
			case errors.Is(err, auth.ErrEmailTaken):
				msg = "That email is already registered."
			case errors.As(err, &verr):
				msg = "Enter a valid email and a password of 8 to 72 characters."
			default:
				s.logger.Error("registration failed", "error", err)
			}
			s.render(w, http.StatusUnprocessableEntity, "register", map[string]any{"Error": msg, "Email": c.Email})
			return
		}
		s.setSessionCookie(w, token)
		http.Redirect(w, r, "/flashcards", http.StatusSeeOther)
	}
}

func (s *Server) handleLoginPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.render(w, http.StatusOK, "login", map[string]any{"Notice": s.takeNotice(w, r)})
	}
}

func (s *Server) handleLoginSubmit() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := auth.Credentials{Email: r.PostFormValue("email"), Password: r.PostFormValue("password")}
		_, token, err := s.auth.Login(r.Context(), c)
		if err != nil {
			if !errors.Is(err, auth.ErrInvalidCredentials) {
				s.logger.Error("login failed", "error", err)
			}
			s.render(w, http.StatusUnauthorized, "login", map[string]any{"Error": "Invalid email or password.", "Email": c.Email})
			return
		}
		s.setSessionCookie(w, token)
		http.Redirect(w, r, "/flashcards", http.StatusSeeOther)
	}
}

func (s *Server) handleLogout() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.clearCookie(w, tokenCookie)
		http.Redirect(w, r, "/login", http.StatusSeeOther)
	}
}

// pageError logs err and shows a plain 500.
func (s *Server) pageError(w http.ResponseWriter, r *http.Request, err error) {
	s.logger.Error("page failed", "path", r.URL.Path, "user_id", userFrom(r), "error", err)
	http.Error(w, "Internal Server Error", http.StatusInternalServerError)
}

// handleListPage renders the user's flashcards with the number due today.
func (s *Server) handleListPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := userFrom(r)
		page, err := strconv.Atoi(r.URL.Query().Get("page"))
		if err != nil || page < 1 {
			page = 1
		}

		total, err := s.db.CountFlashcards(r.Context(), userID)
		if err != nil {
			s.pageError(w, r, err)
			return
		}
		cards, err := s.db.ListFlashcards(r.Context(), userID, pageSize, (page-1)*pageSize)
		if err != nil {
			s.pageError(w, r, err)
			return
		}
		due, err := s.db.CountDue(r.Context(), userID, s.now())
		if err != nil {
			s.pageError(w, r, err)
			return
		}

		pages := max(1, int(math.Ceil(float64(total)/pageSize)))
		s.render(w, http.StatusOK, "flashcards", map[string]any{
			"Notice":   s.takeNotice(w, r),
			"Cards":    cards,
			"Total":    total,
			"DueCount": due,
			"Page":     page,
			"Pages":    pages,
			"HasPrev":  page > 1,
			"HasNext":  page < pages,
		})
	}
}

func (s *Server) handleAddCard() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := strings.TrimSpace(r.PostFormValue("question"))
		a := strings.TrimSpace(r.PostFormValue("answer"))
		if q == "" || a == "" {
			s.setNotice(w, "Both question and answer are required.")
			http.Redirect(w, r, "/flashcards", http.StatusSeeOther)
			return
		}
		if _, err := s.db.InsertFlashcards(r.Context(), userFrom(r), domain.SourceManual, "", []domain.Draft{{Question: q, Answer: a}}); err != nil {
			s.pageError(w, r, err)
			return
		}
		s.setNotice(w, "Flashcard added.")
		http.Redirect(w, r, "/flashcards", http.StatusSeeOther)
	}
}

func (s *Server) handleDeleteCard() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		card, err := s.ownedCard(r)
		if err != nil {
			var herr *httpError
			if errors.As(err, &herr) {
				http.Error(w, herr.message, herr.status)
				return
			}
			s.pageError(w, r, err)
			return
		}
		if err := s.db.DeleteFlashcard(r.Context(), card.ID); err != nil {
			s.pageError(w, r, err)
			return
		}
		s.setNotice(w, "Flashcard deleted.")
		http.Redirect(w, r, "/flashcards", http.StatusSeeOther)
	}
}

var learnModes = []struct {
	Value string
	Label string
}{
	{learn.QuestionToAnswer.String(), "Question → answer"},
	{learn.AnswerToQuestion.String(), "Answer → question"},
	{learn.Random.String(), "Random direction"},
}

func (s *Server) handleLearnStartPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.render(w, http.StatusOK, "learn_start", map[string]any{
			"Notice": s.takeNotice(w, r),
			"Modes":  learnModes,
		})
	}
}

// handleLearnStart begins a session over all of the user's cards. An
// unrecognized mode falls back to question → answer.
func (s *Server) handleLearnStart() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mode, err := learn.ParseMode(r.PostFormValue("mode"))
		if err != nil {
			mode = learn.QuestionToAnswer
		}
		userID := userFrom(r)
		sess, err := s.learn.Start(r.Context(), userID, mode)
		if err != nil {
			s.pageError(w, r, err)
			return
		}
		if sess.IsFinished() {
			s.setNotice(w, "You have no flashcards to learn yet. Add some first!")
			http.Redirect(w, r, "/flashcards", http.StatusSeeOther)
			return
		}
		if err := s.db.SaveLearnSession(r.Context(), userID, sess); err != nil {
			s.pageError(w, r, err)
			return
		}
		http.Redirect(w, r, "/flashcards/learn/session", http.StatusSeeOther)
	}
}

// loadSession returns the user's session, or redirects to the start page
// and returns nil when there is none.
func (s *Server) loadSession(w http.ResponseWriter, r *http.Request) *learn.Session {
	sess, err := s.db.LoadLearnSession(r.Context(), userFrom(r))
	if err != nil {
		if errors.Is(err, learn.ErrCorruptSession) {
			s.logger.Warn("discarding corrupt learn session", "user_id", userFrom(r), "error", err)
			if err := s.db.DeleteLearnSession(r.Context(), userFrom(r)); err != nil {
				s.logger.Warn("failed to delete corrupt learn session", "user_id", userFrom(r), "error", err)
			}
		} else {
			s.pageError(w, r, err)
			return nil
		}
	}
	if sess == nil {
		s.setNotice(w, "Your learning session has expired. Start a new one.")
		http.Redirect(w, r, "/flashcards/learn", http.StatusSeeOther)
		return nil
	}
	return sess
}

func (s *Server) handleLearnSession() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := s.loadSession(w, r)
		if sess == nil {
			return
		}
		if sess.IsFinished() {
			http.Redirect(w, r, "/flashcards/learn/summary", http.StatusSeeOther)
			return
		}

		prompt, err := s.learn.Present(r.Context(), sess)
		if errors.Is(err, learn.ErrExhausted) {
			http.Redirect(w, r, "/flashcards/learn/summary", http.StatusSeeOther)
			return
		}
		if err != nil {
			s.pageError(w, r, err)
			return
		}
		// The direction drawn for the card must survive until it is answered.
		if err := s.db.SaveLearnSession(r.Context(), userFrom(r), sess); err != nil {
			s.pageError(w, r, err)
			return
		}

		s.render(w, http.StatusOK, "learn", map[string]any{
			"Notice":   s.takeNotice(w, r),
			"Prompt":   prompt,
			"Reverse":  prompt.Direction == learn.Reverse,
			"Previous": prompt.Previous,
		})
	}
}

func (s *Server) handleLearnCheck() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := s.loadSession(w, r)
		if sess == nil {
			return
		}

		out, err := s.learn.Submit(r.Context(), sess, r.PostFormValue("answer"))
		if errors.Is(err, learn.ErrExhausted) {
			http.Redirect(w, r, "/flashcards/learn/summary", http.StatusSeeOther)
			return
		}
		if err != nil {
			s.pageError(w, r, err)
			return
		}
		if err := s.db.SaveLearnSession(r.Context(), userFrom(r), sess); err != nil {
			s.pageError(w, r, err)
			return
		}

		switch {
		case out.Correct:
			s.setNotice(w, "Correct!")
		case out.Advanced:
			s.setNotice(w, "Incorrect. The answer was: "+out.Expected)
		default:
			s.setNotice(w, "Not quite. Try once more.")
		}
		http.Redirect(w, r, "/flashcards/learn/session", http.StatusSeeOther)
	}
}

func (s *Server) handleLearnSummary() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := s.loadSession(w, r)
		if sess == nil {
			return
		}
		summary := learn.Summarize(sess)
		if err := s.db.DeleteLearnSession(r.Context(), userFrom(r)); err != nil {
			s.pageError(w, r, err)
			return
		}
		s.render(w, http.StatusOK, "learn_summary", map[string]any{
			"Notice":  s.takeNotice(w, r),
			"Summary": summary,
		})
	}
}

func (s *Server) handleLearnQuit() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.db.DeleteLearnSession(r.Context(), userFrom(r)); err != nil {
			s.pageError(w, r, err)
			return
		}
		s.setNotice(w, "Learning session ended.")
		http.Redirect(w, r, "/flashcards", http.StatusSeeOther)
	}
}

// handleSources lists the git repositories the user imports from.
func (s *Server) handleSources() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sources, err := s.db.SourcesByUser(r.Context(), userFrom(r))
		if err != nil {
			s.pageError(w, r, err)
			return
		}
		s.render(w, http.StatusOK, "sources", map[string]any{
			"Notice":  s.takeNotice(w, r),
			"Sources": sources,
		})
	}
}

// handleAddSource imports a git repository. Local paths are only accepted
// from the command line.
func (s *Server) handleAddSource() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		url := strings.TrimSpace(r.PostFormValue("url"))
		if !importer.IsGitURL(url) {
			s.setNotice(w, "Enter a git repository URL.")
			http.Redirect(w, r, "/sources", http.StatusSeeOther)
			return
		}
		report, err := s.importer.Import(r.Context(), userFrom(r), url)
		if err != nil {
			s.logger.Warn("import failed", "user_id", userFrom(r), "url", url, "error", err)
			s.setNotice(w, "Import failed: "+err.Error())
			http.Redirect(w, r, "/sources", http.StatusSeeOther)
			return
		}
		s.setNotice(w, importNotice(report.Inserted, report.Duplicates))
		http.Redirect(w, r, "/sources", http.StatusSeeOther)
	}
}

// handleSync re-imports every source of the user.
func (s *Server) handleSync() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		reports, err := s.importer.ImportAll(r.Context(), userFrom(r))
		var inserted, duplicates int
		for _, rep := range reports {
			inserted += rep.Inserted
			duplicates += rep.Duplicates
		}
		msg := importNotice(inserted, duplicates)
		if err != nil {
			msg += " Some sources failed to sync."
		}
		s.setNotice(w, msg)
		http.Redirect(w, r, "/sources", http.StatusSeeOther)
	}
}

func importNotice(inserted, duplicates int) string {
	return "Imported " + strconv.Itoa(inserted) + " new flashcards, skipped " + strconv.Itoa(duplicates) + " already in your collection."
}
