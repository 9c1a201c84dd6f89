package utils

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/vesaki/vesaki-server/config"
	"google.golang.org/api/option"
)

const tryOnModel = "gemini-3-pro-image-preview"

// GenerateTryOnImage generates a virtual try-on composite using Gemini: the
// product rendered onto the user's own photo. Returns raw image bytes.
func GenerateTryOnImage(ctx context.Context, userPhotoURL, productImageURL, productName, productDescription string) ([]byte, error) {
	if config.GeminiAPIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is not set")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(config.GeminiAPIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %v", err)
	}
	defer client.Close()

	model := client.GenerativeModel(tryOnModel)

	prompt := fmt.Sprintf(`
Render the clothing product from the second image worn by the person in the first image.
Keep the person's face, body and pose exactly as they are; only add the garment.
Show realistic fit and draping.

Product: %s
Description: %s
`, productName, productDescription)

	personImgData, err := fetchImage(userPhotoURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch person image: %v", err)
	}

	parts := []genai.Part{
		genai.Text(prompt),
		genai.ImageData("jpeg", personImgData),
	}

	if productImageURL != "" {
		prodImgData, err := fetchImage(productImageURL)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch product image: %v", err)
		}
		parts = append(parts, genai.ImageData("jpeg", prodImgData))
	}

	resp, err := model.GenerateContent(ctx, parts...)
	if err != nil {
		return nil, fmt.Errorf("failed to generate content: %v", err)
	}

	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("no content generated")
	}

	for _, part := range resp.Candidates[0].Content.Parts {
		if blob, ok := part.(genai.Blob); ok {
			return blob.Data, nil
		}
	}

	return nil, fmt.Errorf("model returned no image part")
}

func fetchImage(url string) ([]byte, error) {
	if !strings.HasPrefix(url, "http") {
		return nil, fmt.Errorf("image url is not http(s): %s", url)
	}
	resp, err := http.Get(url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch image, status: %d", resp.StatusCode)
	}

	return io.ReadAll(resp.Body)
}
