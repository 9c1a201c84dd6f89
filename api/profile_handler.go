package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vesaki/vesaki-server/models"
	"github.com/vesaki/vesaki-server/store"
	"github.com/vesaki/vesaki-server/utils"
)

const photoUploadPrefix = "user_images"

// ProfileRequest is the payload for profile updates. Nil fields are left
// untouched.
type ProfileRequest struct {
	Name        string              `json:"name,omitempty"`
	Preferences *models.Preferences `json:"preferences,omitempty"`
}

// ProfileHandler handles GET and POST on /api/user/profile.
func (s *Server) ProfileHandler(w http.ResponseWriter, r *http.Request) {
	var logMessageBuilder strings.Builder
	defer func() {
		fmt.Println(logMessageBuilder.String())
	}()
	utils.AddToLogMessage(&logMessageBuilder, "[Profile API]")

	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		utils.RespondError(w, &logMessageBuilder, "Unauthorized", http.StatusUnauthorized)
		return
	}

	switch r.Method {
	case http.MethodGet:
		s.getProfile(w, r, userID, &logMessageBuilder)
	case http.MethodPost:
		s.updateProfile(w, r, userID, &logMessageBuilder)
	default:
		utils.RespondError(w, &logMessageBuilder, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) getProfile(w http.ResponseWriter, r *http.Request, userID string, logger *strings.Builder) {
	ctx := r.Context()

	user, err := s.Store.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			utils.RespondError(w, logger, "User not found", http.StatusNotFound)
		} else {
			utils.RespondError(w, logger, "Database error", http.StatusInternalServerError)
		}
		return
	}

	photos, err := s.Store.ListPhotos(ctx, userID)
	if err != nil {
		utils.RespondError(w, logger, "Failed to load photos", http.StatusInternalServerError)
		return
	}

	keys := make([]string, len(photos))
	for i, p := range photos {
		keys[i] = p.URL
	}
	presigned := utils.PresignImageURLs(ctx, keys)
	for i := range photos {
		photos[i].URL = presigned[i]
	}

	utils.AddToLogMessage(logger, fmt.Sprintf("Profile for %s with %d photos", user.Email, len(photos)))
	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"user":   user,
		"photos": photos,
	})
}

func (s *Server) updateProfile(w http.ResponseWriter, r *http.Request, userID string, logger *strings.Builder) {
	var req ProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondError(w, logger, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.Preferences != nil && len(req.Preferences.BudgetRange) != 0 {
		br := req.Preferences.BudgetRange
		if len(br) != 2 || br[0] < 0 || br[0] > br[1] {
			utils.RespondError(w, logger, "budgetRange must be [min, max] with 0 <= min <= max", http.StatusBadRequest)
			return
		}
	}

	ctx := r.Context()
	user, err := s.Store.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			utils.RespondError(w, logger, "User not found", http.StatusNotFound)
		} else {
			utils.RespondError(w, logger, "Database error", http.StatusInternalServerError)
		}
		return
	}

	if req.Name != "" {
		user.Name = req.Name
	}
	if req.Preferences != nil {
		user.Preferences = req.Preferences
	}
	user.UpdatedAt = time.Now()

	if err := s.Store.UpdateUser(ctx, user); err != nil {
		utils.RespondError(w, logger, "Failed to update profile", http.StatusInternalServerError)
		return
	}

	// Onboarding completes here; make sure the default collection exists so
	// the first like has somewhere to land.
	if _, err := s.Store.DefaultCollection(ctx, userID); errors.Is(err, store.ErrNotFound) {
		coll := &models.Collection{
			ID:        uuid.NewString(),
			UserID:    userID,
			Name:      models.DefaultCollectionName,
			IsDefault: true,
			CreatedAt: time.Now(),
		}
		if err := s.Store.InsertCollection(ctx, coll); err != nil {
			utils.AddToLogMessage(logger, fmt.Sprintf("Failed to create default collection: %v", err))
		}
	}

	utils.AddToLogMessage(logger, "Profile updated")
	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Profile updated",
		"user":    user,
	})
}

// PhotosHandler handles POST (upload) and DELETE on /api/user/photos.
func (s *Server) PhotosHandler(w http.ResponseWriter, r *http.Request) {
	var logMessageBuilder strings.Builder
	defer func() {
		fmt.Println(logMessageBuilder.String())
	}()
	utils.AddToLogMessage(&logMessageBuilder, "[Photos API]")

	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		utils.RespondError(w, &logMessageBuilder, "Unauthorized", http.StatusUnauthorized)
		return
	}

	switch r.Method {
	case http.MethodPost:
		s.uploadPhotos(w, r, userID, &logMessageBuilder)
	case http.MethodDelete:
		s.deletePhoto(w, r, userID, &logMessageBuilder)
	default:
		utils.RespondError(w, &logMessageBuilder, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) uploadPhotos(w http.ResponseWriter, r *http.Request, userID string, logger *strings.Builder) {
	// Parse multipart form (max 10MB)
	if err := r.ParseMultipartForm(10 << 20); err != nil {
		utils.RespondError(w, logger, "Error parsing form data", http.StatusBadRequest)
		return
	}

	files := r.MultipartForm.File["images"]
	if len(files) == 0 {
		utils.RespondError(w, logger, "At least one image is required", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	existing, err := s.Store.ListPhotos(ctx, userID)
	if err != nil {
		utils.RespondError(w, logger, "Failed to load photos", http.StatusInternalServerError)
		return
	}
	// Existing photos count against the cap; extra files are dropped, not
	// rejected.
	allowed := models.MaxPhotosPerUser - len(existing)
	if allowed <= 0 {
		utils.RespondError(w, logger,
			fmt.Sprintf("Photo limit is %d per profile", models.MaxPhotosPerUser), http.StatusBadRequest)
		return
	}
	truncated := 0
	if len(files) > allowed {
		truncated = len(files) - allowed
		files = files[:allowed]
		utils.AddToLogMessage(logger, fmt.Sprintf("Truncated %d photos over the cap", truncated))
	}

	var uploaded []models.Photo
	for _, fileHeader := range files {
		file, err := fileHeader.Open()
		if err != nil {
			utils.RespondError(w, logger, "Error retrieving file", http.StatusInternalServerError)
			return
		}

		objectKey := fmt.Sprintf("%s/%s_%s", photoUploadPrefix, uuid.NewString(), filepath.Base(fileHeader.Filename))
		contentType := fileHeader.Header.Get("Content-Type")
		if contentType == "" {
			contentType = "image/jpeg"
		}

		if _, err := utils.UploadFileToS3(ctx, file, objectKey, contentType); err != nil {
			file.Close()
			utils.RespondError(w, logger, fmt.Sprintf("Failed to upload file: %v", err), http.StatusInternalServerError)
			return
		}
		file.Close()

		photo := models.Photo{
			ID:        uuid.NewString(),
			UserID:    userID,
			URL:       objectKey,
			CreatedAt: time.Now(),
		}
		if err := s.Store.InsertPhoto(ctx, &photo); err != nil {
			utils.RespondError(w, logger, "Failed to save photo", http.StatusInternalServerError)
			return
		}
		uploaded = append(uploaded, photo)
	}

	// The very first photo becomes primary.
	if len(existing) == 0 && len(uploaded) > 0 {
		if err := s.Store.SetPrimaryPhoto(ctx, userID, uploaded[0].ID); err != nil {
			utils.AddToLogMessage(logger, fmt.Sprintf("Failed to set primary photo: %v", err))
		} else {
			uploaded[0].IsPrimary = true
		}
	}

	utils.AddToLogMessage(logger, fmt.Sprintf("Uploaded %d photos", len(uploaded)))
	resp := map[string]interface{}{
		"message": "Photos uploaded",
		"photos":  uploaded,
	}
	if truncated > 0 {
		resp["truncated"] = truncated
	}
	utils.RespondJSON(w, http.StatusCreated, resp)
}

func (s *Server) deletePhoto(w http.ResponseWriter, r *http.Request, userID string, logger *strings.Builder) {
	photoID := r.URL.Query().Get("id")
	if photoID == "" {
		utils.RespondError(w, logger, "Photo id is required", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	photo, err := s.Store.GetPhoto(ctx, photoID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			utils.RespondError(w, logger, "Photo not found", http.StatusNotFound)
		} else {
			utils.RespondError(w, logger, "Database error", http.StatusInternalServerError)
		}
		return
	}
	if photo.UserID != userID {
		utils.RespondError(w, logger, "Photo not found", http.StatusNotFound)
		return
	}

	if err := utils.DeleteFileFromS3(ctx, photo.URL); err != nil {
		utils.AddToLogMessage(logger, fmt.Sprintf("Failed to delete object %s: %v", photo.URL, err))
	}

	if err := s.Store.DeletePhoto(ctx, photoID); err != nil {
		utils.RespondError(w, logger, "Failed to delete photo", http.StatusInternalServerError)
		return
	}

	// Promote the oldest remaining photo when the primary was removed.
	if photo.IsPrimary {
		remaining, err := s.Store.ListPhotos(ctx, userID)
		if err == nil && len(remaining) > 0 {
			if err := s.Store.SetPrimaryPhoto(ctx, userID, remaining[0].ID); err != nil {
				utils.AddToLogMessage(logger, fmt.Sprintf("Failed to promote photo: %v", err))
			}
		}
	}

	utils.AddToLogMessage(logger, fmt.Sprintf("Deleted photo %s", photoID))
	utils.RespondJSON(w, http.StatusOK, map[string]string{"message": "Photo deleted"})
}

// SetPrimaryPhotoHandler handles POST /api/user/photos/primary.
func (s *Server) SetPrimaryPhotoHandler(w http.ResponseWriter, r *http.Request) {
	var logMessageBuilder strings.Builder
	defer func() {
		fmt.Println(logMessageBuilder.String())
	}()
	utils.AddToLogMessage(&logMessageBuilder, "[Set Primary Photo API]")

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
		PhotoID string `json:"photoId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.PhotoID == "" {
		utils.RespondError(w, &logMessageBuilder, "photoId is required", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	photo, err := s.Store.GetPhoto(ctx, req.PhotoID)
	if err != nil || photo.UserID != userID {
		utils.RespondError(w, &logMessageBuilder, "Photo not found", http.StatusNotFound)
		return
	}

	if err := s.Store.SetPrimaryPhoto(ctx, userID, req.PhotoID); err != nil {
		utils.RespondError(w, &logMessageBuilder, "Failed to set primary photo", http.StatusInternalServerError)
		return
	}

	utils.AddToLogMessage(&logMessageBuilder, fmt.Sprintf("Primary photo set to %s", req.PhotoID))
	utils.RespondJSON(w, http.StatusOK, map[string]string{"message": "Primary photo updated"})
}

// PrimaryPhotoHandler handles GET /api/user/photo/primary, returning a
// presigned URL for the user's primary photo.
func (s *Server) PrimaryPhotoHandler(w http.ResponseWriter, r *http.Request) {
	var logMessageBuilder strings.Builder
	defer func() {
		fmt.Println(logMessageBuilder.String())
	}()
	utils.AddToLogMessage(&logMessageBuilder, "[Primary Photo API]")

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
	user, err := s.Store.GetUser(ctx, userID)
	if err != nil {
		utils.RespondError(w, &logMessageBuilder, "User not found", http.StatusNotFound)
		return
	}
	if user.PrimaryPhotoID == "" {
		utils.RespondError(w, &logMessageBuilder, "No primary photo set", http.StatusNotFound)
		return
	}

	photo, err := s.Store.GetPhoto(ctx, user.PrimaryPhotoID)
	if err != nil {
		utils.RespondError(w, &logMessageBuilder, "Primary photo not found", http.StatusNotFound)
		return
	}

	urls := utils.PresignImageURLs(ctx, []string{photo.URL})
	utils.RespondJSON(w, http.StatusOK, map[string]string{"url": urls[0]})
}
