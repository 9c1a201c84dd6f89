package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/vesaki/vesaki-server/store"
	"github.com/vesaki/vesaki-server/utils"
)

// CollectionsHandler handles GET /api/collections, listing the user's
// collections with item counts.
func (s *Server) CollectionsHandler(w http.ResponseWriter, r *http.Request) {
	var logMessageBuilder strings.Builder
	defer func() {
		fmt.Println(logMessageBuilder.String())
	}()
	utils.AddToLogMessage(&logMessageBuilder, "[Collections API]")

	if r.Method != http.MethodGet {
		utils.RespondError(w, &logMessageBuilder, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		utils.RespondError(w, &logMessageBuilder, "Unauthorized", http.StatusUnauthorized)
		return
	}

	ctx := r.Context()
	collections, err := s.Store.ListCollections(ctx, userID)
	if err != nil {
		utils.RespondError(w, &logMessageBuilder, "Failed to load collections", http.StatusInternalServerError)
		return
	}

	type collectionView struct {
		ID        string `json:"id"`
		Name      string `json:"name"`
		IsDefault bool   `json:"isDefault"`
		ItemCount int    `json:"itemCount"`
	}

	views := make([]collectionView, 0, len(collections))
	for _, c := range collections {
		items, err := s.Store.ListCollectionItems(ctx, c.ID)
		if err != nil {
			utils.RespondError(w, &logMessageBuilder, "Failed to load collection items", http.StatusInternalServerError)
			return
		}
		views = append(views, collectionView{ID: c.ID, Name: c.Name, IsDefault: c.IsDefault, ItemCount: len(items)})
	}

	utils.AddToLogMessage(&logMessageBuilder, fmt.Sprintf("Returned %d collections", len(views)))
	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"collections": views,
		"count":       len(views),
	})
}

// CollectionItemsHandler handles GET /api/collections/items?id=, returning
// the items of one collection with their products embedded.
func (s *Server) CollectionItemsHandler(w http.ResponseWriter, r *http.Request) {
	var logMessageBuilder strings.Builder
	defer func() {
		fmt.Println(logMessageBuilder.String())
	}()
	utils.AddToLogMessage(&logMessageBuilder, "[Collection Items API]")

	if r.Method != http.MethodGet {
		utils.RespondError(w, &logMessageBuilder, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		utils.RespondError(w, &logMessageBuilder, "Unauthorized", http.StatusUnauthorized)
		return
	}

	collectionID := r.URL.Query().Get("id")
	if collectionID == "" {
		utils.RespondError(w, &logMessageBuilder, "Collection id is required", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	collection, err := s.Store.GetCollection(ctx, collectionID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			utils.RespondError(w, &logMessageBuilder, "Collection not found", http.StatusNotFound)
		} else {
			utils.RespondError(w, &logMessageBuilder, "Database error", http.StatusInternalServerError)
		}
		return
	}
	if collection.UserID != userID {
		utils.RespondError(w, &logMessageBuilder, "Collection not found", http.StatusNotFound)
		return
	}

	items, err := s.Store.ListCollectionItems(ctx, collectionID)
	if err != nil {
		utils.RespondError(w, &logMessageBuilder, "Failed to load collection items", http.StatusInternalServerError)
		return
	}

	for i := range items {
		if p, err := s.Store.GetProduct(ctx, items[i].ProductID); err == nil {
			items[i].Product = p
		}
	}

	utils.AddToLogMessage(&logMessageBuilder, fmt.Sprintf("Returned %d items for collection %s", len(items), collectionID))
	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"collection": collection,
		"items":      items,
		"count":      len(items),
	})
}
