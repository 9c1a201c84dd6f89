package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/vesaki/vesaki-server/utils"
)

const defaultSearchCount = 15

// SearchProductsHandler handles GET /api/search/products. Results come from
// the external shopping provider when configured, otherwise from the
// internal catalog; the response's "source" field says which.
func (s *Server) SearchProductsHandler(w http.ResponseWriter, r *http.Request) {
	var logMessageBuilder strings.Builder
	defer func() {
		fmt.Println(logMessageBuilder.String())
	}()
	utils.AddToLogMessage(&logMessageBuilder, "[Search Products API]")

	if r.Method != http.MethodGet {
		utils.RespondError(w, &logMessageBuilder, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	query := r.URL.Query().Get("query")
	if query == "" {
		query = r.URL.Query().Get("q")
	}
	if query == "" {
		query = "trending fashion apparel"
	}

	count := defaultSearchCount
	if raw := r.URL.Query().Get("count"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			count = n
		}
	}

	utils.AddToLogMessage(&logMessageBuilder, fmt.Sprintf("query=%q count=%d", query, count))

	result, err := s.Search.Search(r.Context(), query, count)
	if err != nil {
		utils.RespondInternalError(w, &logMessageBuilder, "Failed to search products", err)
		return
	}

	utils.AddToLogMessage(&logMessageBuilder, fmt.Sprintf("returned %d products from %s", result.Count, result.Source))
	utils.RespondJSON(w, http.StatusOK, result)
}
