package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/vesaki/vesaki-server/session"
	"github.com/vesaki/vesaki-server/utils"
)

// StartSessionHandler handles POST /api/session/start. An empty query
// falls back to the default discovery query. Passing a sessionId reloads
// that session in place, keeping its id.
func (s *Server) StartSessionHandler(w http.ResponseWriter, r *http.Request) {
	var logMessageBuilder strings.Builder
	defer func() {
		fmt.Println(logMessageBuilder.String())
	}()
	utils.AddToLogMessage(&logMessageBuilder, "[Start Session API]")

	if r.Method != http.MethodPost {
		utils.RespondError(w, &logMessageBuilder, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		utils.RespondError(w, &logMessageBuilder, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req struct {
		SessionID string `json:"sessionId"`
		Query     string `json:"query"`
	}
	if r.Body != nil {
		json.NewDecoder(r.Body).Decode(&req)
	}

	if req.SessionID != "" {
		ctrl, ok := s.sessionFor(w, r, req.SessionID, &logMessageBuilder)
		if !ok {
			return
		}
		if err := ctrl.Start(r.Context(), req.Query); err != nil {
			utils.RespondError(w, &logMessageBuilder, "Failed to load products", http.StatusInternalServerError)
			return
		}
		st := ctrl.Snapshot()
		utils.AddToLogMessage(&logMessageBuilder, fmt.Sprintf("Session %s reloaded with %d products", st.SessionID, st.Remaining))
		utils.RespondJSON(w, http.StatusOK, st)
		return
	}

	ctrl := s.Sessions.Create(userID)
	if err := ctrl.Start(r.Context(), req.Query); err != nil {
		s.Sessions.Remove(ctrl.ID())
		utils.RespondError(w, &logMessageBuilder, "Failed to load products", http.StatusInternalServerError)
		return
	}

	st := ctrl.Snapshot()
	utils.AddToLogMessage(&logMessageBuilder, fmt.Sprintf("Session %s started with %d products", st.SessionID, st.Remaining))
	utils.RespondJSON(w, http.StatusCreated, st)
}

// SessionSwipeHandler handles POST /api/session/swipe.
func (s *Server) SessionSwipeHandler(w http.ResponseWriter, r *http.Request) {
	var logMessageBuilder strings.Builder
	defer func() {
		fmt.Println(logMessageBuilder.String())
	}()
	utils.AddToLogMessage(&logMessageBuilder, "[Session Swipe API]")

	if r.Method != http.MethodPost {
		utils.RespondError(w, &logMessageBuilder, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		SessionID string `json:"sessionId"`
		Direction string `json:"direction"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondError(w, &logMessageBuilder, "Invalid request body", http.StatusBadRequest)
		return
	}

	ctrl, ok := s.sessionFor(w, r, req.SessionID, &logMessageBuilder)
	if !ok {
		return
	}

	out, err := ctrl.Swipe(r.Context(), req.Direction)
	if err != nil {
		if errors.Is(err, session.ErrNoActiveCard) {
			utils.RespondError(w, &logMessageBuilder, "Session has no active card", http.StatusConflict)
			return
		}
		if strings.Contains(err.Error(), "invalid swipe direction") {
			utils.RespondError(w, &logMessageBuilder, err.Error(), http.StatusBadRequest)
			return
		}
		utils.AddToLogMessage(&logMessageBuilder, fmt.Sprintf("Swipe failed: %v", err))
		utils.RespondError(w, &logMessageBuilder, "Failed to record swipe", http.StatusInternalServerError)
		return
	}

	if out.RefinePrompt {
		go s.sendRefineNudge(ctrl.UserID())
	}

	utils.AddToLogMessage(&logMessageBuilder, fmt.Sprintf("Swipe %s recorded, %d remaining", req.Direction, out.Remaining))
	utils.RespondJSON(w, http.StatusOK, out)
}

// sendRefineNudge emails the user after a long run of rejections. Best
// effort; the refine prompt already went out in the swipe response.
func (s *Server) sendRefineNudge(userID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	user, err := s.Store.GetUser(ctx, userID)
	if err != nil {
		return
	}
	if err := utils.SendEmail(user.Name, user.Email, "Not finding your style?",
		"It looks like nothing is clicking today. Update your style preferences and we'll refresh your feed.",
		"<p>It looks like nothing is clicking today. <strong>Update your style preferences</strong> and we'll refresh your feed.</p>"); err != nil {
		fmt.Printf("[Session Swipe API] Failed to send refine nudge: %v\n", err)
	}
}

// SessionTryOnHandler handles POST /api/session/tryon for the current card.
func (s *Server) SessionTryOnHandler(w http.ResponseWriter, r *http.Request) {
	var logMessageBuilder strings.Builder
	defer func() {
		fmt.Println(logMessageBuilder.String())
	}()
	utils.AddToLogMessage(&logMessageBuilder, "[Session Try-On API]")

	if r.Method != http.MethodPost {
		utils.RespondError(w, &logMessageBuilder, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		SessionID string `json:"sessionId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondError(w, &logMessageBuilder, "Invalid request body", http.StatusBadRequest)
		return
	}

	ctrl, ok := s.sessionFor(w, r, req.SessionID, &logMessageBuilder)
	if !ok {
		return
	}

	url, err := ctrl.GenerateTryOn(r.Context())
	if err != nil {
		switch {
		case errors.Is(err, session.ErrNoActiveCard):
			utils.RespondError(w, &logMessageBuilder, "Session has no active card", http.StatusConflict)
		case errors.Is(err, session.ErrGenerationInFlight):
			utils.RespondError(w, &logMessageBuilder, "Try-on already in progress", http.StatusConflict)
		case strings.Contains(err.Error(), "429") || strings.Contains(strings.ToLower(err.Error()), "quota"):
			utils.AddToLogMessage(&logMessageBuilder, fmt.Sprintf("Generation failed: %v", err))
			utils.RespondError(w, &logMessageBuilder, "Quota exceeded. Please try again later.", http.StatusTooManyRequests)
		default:
			utils.AddToLogMessage(&logMessageBuilder, fmt.Sprintf("Generation failed: %v", err))
			utils.RespondError(w, &logMessageBuilder, "Failed to generate try-on image", http.StatusInternalServerError)
		}
		return
	}

	utils.AddToLogMessage(&logMessageBuilder, "Try-on image generated")
	utils.RespondJSON(w, http.StatusOK, map[string]string{"tryOnImageUrl": url})
}

// SessionStateHandler handles GET /api/session?id= (snapshot) and
// DELETE /api/session?id= (end the session and free its state).
func (s *Server) SessionStateHandler(w http.ResponseWriter, r *http.Request) {
	var logMessageBuilder strings.Builder
	defer func() {
		fmt.Println(logMessageBuilder.String())
	}()
	utils.AddToLogMessage(&logMessageBuilder, "[Session State API]")

	if r.Method != http.MethodGet && r.Method != http.MethodDelete {
		utils.RespondError(w, &logMessageBuilder, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	ctrl, ok := s.sessionFor(w, r, r.URL.Query().Get("id"), &logMessageBuilder)
	if !ok {
		return
	}

	if r.Method == http.MethodDelete {
		s.Sessions.Remove(ctrl.ID())
		utils.AddToLogMessage(&logMessageBuilder, fmt.Sprintf("Session %s ended", ctrl.ID()))
		utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
			"success": true,
			"message": "Session ended",
		})
		return
	}

	utils.RespondJSON(w, http.StatusOK, ctrl.Snapshot())
}

// sessionFor resolves a session id to a controller owned by the
// authenticated user, writing the error response itself on failure.
func (s *Server) sessionFor(w http.ResponseWriter, r *http.Request, sessionID string, logger *strings.Builder) (*session.Controller, bool) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		utils.RespondError(w, logger, "Unauthorized", http.StatusUnauthorized)
		return nil, false
	}

	if sessionID == "" {
		utils.RespondError(w, logger, "sessionId is required", http.StatusBadRequest)
		return nil, false
	}

	ctrl, ok := s.Sessions.Get(sessionID)
	if !ok || ctrl.UserID() != userID {
		utils.RespondError(w, logger, "Session not found", http.StatusNotFound)
		return nil, false
	}
	return ctrl, true
}
