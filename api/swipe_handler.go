package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/vesaki/vesaki-server/swipes"
	"github.com/vesaki/vesaki-server/utils"
)

// SwipesHandler handles POST (record a swipe) and GET (swipe history with
// embedded products) on /api/swipes.
func (s *Server) SwipesHandler(w http.ResponseWriter, r *http.Request) {
	var logMessageBuilder strings.Builder
	defer func() {
		fmt.Println(logMessageBuilder.String())
	}()
	utils.AddToLogMessage(&logMessageBuilder, "[Swipes API]")

	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		utils.RespondError(w, &logMessageBuilder, "Unauthorized", http.StatusUnauthorized)
		return
	}

	switch r.Method {
	case http.MethodPost:
		s.recordSwipe(w, r, userID, &logMessageBuilder)
	case http.MethodGet:
		s.swipeHistory(w, r, userID, &logMessageBuilder)
	default:
		utils.RespondError(w, &logMessageBuilder, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) recordSwipe(w http.ResponseWriter, r *http.Request, userID string, logger *strings.Builder) {
	var req swipes.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondError(w, logger, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.ProductID == "" {
		utils.RespondError(w, logger, "productId is required", http.StatusBadRequest)
		return
	}

	swipe, err := s.Swipes.Record(r.Context(), userID, req)
	if err != nil {
		if strings.Contains(err.Error(), "invalid swipe direction") {
			utils.RespondError(w, logger, err.Error(), http.StatusBadRequest)
			return
		}
		utils.AddToLogMessage(logger, fmt.Sprintf("Failed to record swipe: %v", err))
		utils.RespondError(w, logger, "Failed to record swipe", http.StatusInternalServerError)
		return
	}

	utils.AddToLogMessage(logger, fmt.Sprintf("Recorded %s swipe on %s", swipe.Direction, swipe.ProductID))
	utils.RespondJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"message": "Swipe recorded successfully",
		"swipe":   swipe,
	})
}

func (s *Server) swipeHistory(w http.ResponseWriter, r *http.Request, userID string, logger *strings.Builder) {
	history, err := s.Swipes.History(r.Context(), userID)
	if err != nil {
		utils.RespondError(w, logger, "Failed to load swipes", http.StatusInternalServerError)
		return
	}

	utils.AddToLogMessage(logger, fmt.Sprintf("Returned %d swipes", len(history)))
	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"swipes": history,
		"count":  len(history),
	})
}
