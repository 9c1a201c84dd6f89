package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/vesaki/vesaki-server/utils"
)

// ProductsFeedHandler handles GET /api/products?filter=. The default "all"
// filter composes the trending, new, editorial and random categories.
func (s *Server) ProductsFeedHandler(w http.ResponseWriter, r *http.Request) {
	var logMessageBuilder strings.Builder
	defer func() {
		fmt.Println(logMessageBuilder.String())
	}()
	utils.AddToLogMessage(&logMessageBuilder, "[Products Feed API]")

	if r.Method != http.MethodGet {
		utils.RespondError(w, &logMessageBuilder, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	filter := r.URL.Query().Get("filter")
	utils.AddToLogMessage(&logMessageBuilder, fmt.Sprintf("filter=%q", filter))

	cards, err := s.Feed.Fetch(r.Context(), filter)
	if err != nil {
		if strings.Contains(err.Error(), "unknown feed filter") {
			utils.RespondError(w, &logMessageBuilder, err.Error(), http.StatusBadRequest)
			return
		}
		utils.RespondInternalError(w, &logMessageBuilder, "Failed to load products", err)
		return
	}

	if raw := r.URL.Query().Get("count"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n < len(cards) {
			cards = cards[:n]
		}
	}

	utils.AddToLogMessage(&logMessageBuilder, fmt.Sprintf("returned %d products", len(cards)))
	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"products": cards,
		"count":    len(cards),
	})
}
