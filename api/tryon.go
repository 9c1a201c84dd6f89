package api

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/vesaki/vesaki-server/models"
	"github.com/vesaki/vesaki-server/store"
	"github.com/vesaki/vesaki-server/utils"
)

const tryOnTimeout = 5 * time.Minute

// GeminiTryOn generates try-on images from the user's primary photo and a
// product card, storing the result in S3. It satisfies session.TryOnGenerator.
type GeminiTryOn struct {
	store store.Store
}

func NewGeminiTryOn(st store.Store) *GeminiTryOn {
	return &GeminiTryOn{store: st}
}

func (g *GeminiTryOn) Generate(ctx context.Context, userID string, card models.ProductCard) (string, error) {
	user, err := g.store.GetUser(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("load user: %w", err)
	}
	if user.PrimaryPhotoID == "" {
		return "", fmt.Errorf("no primary photo set for user %s", userID)
	}

	photo, err := g.store.GetPhoto(ctx, user.PrimaryPhotoID)
	if err != nil {
		return "", fmt.Errorf("load primary photo: %w", err)
	}

	photoURL, err := utils.GetPresignedURL(ctx, photo.URL)
	if err != nil {
		return "", fmt.Errorf("presign user photo: %w", err)
	}

	if card.ImageURL == "" {
		return "", fmt.Errorf("product %s has no image", card.ID)
	}

	// Generation is slow; use its own timeout independent of the request.
	genCtx, cancel := context.WithTimeout(context.Background(), tryOnTimeout)
	defer cancel()

	content, err := utils.GenerateTryOnImage(genCtx, photoURL, card.ImageURL, card.Name, card.Description)
	if err != nil {
		return "", err
	}

	objectKey := fmt.Sprintf("generated_images/generated_tryon_%d.jpg", time.Now().UnixNano())
	if _, err := utils.UploadFileToS3(ctx, bytes.NewReader(content), objectKey, "image/jpeg"); err != nil {
		return "", fmt.Errorf("upload generated image: %w", err)
	}

	url, err := utils.GetPresignedURL(ctx, objectKey)
	if err != nil {
		return "", fmt.Errorf("presign generated image: %w", err)
	}
	return url, nil
}
