package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vesaki/vesaki-server/catalog"
	"github.com/vesaki/vesaki-server/config"
	"github.com/vesaki/vesaki-server/feed"
	"github.com/vesaki/vesaki-server/models"
	"github.com/vesaki/vesaki-server/serp"
	"github.com/vesaki/vesaki-server/session"
	"github.com/vesaki/vesaki-server/store"
	"github.com/vesaki/vesaki-server/swipes"
)

// stubGenerator satisfies session.TryOnGenerator without touching Gemini or
// S3.
type stubGenerator struct{}

func (stubGenerator) Generate(ctx context.Context, userID string, card models.ProductCard) (string, error) {
	return "https://cdn.example.com/tryon-" + card.ID + ".jpg", nil
}

func newTestServer(t *testing.T) (*Server, *store.MemoryStore) {
	t.Helper()
	st := store.NewMemoryStore()
	adapter := serp.NewAdapter("", nil, catalog.New(st))
	cards := serp.CardSource{Adapter: adapter}
	gateway := swipes.NewGateway(st)
	sessions := session.NewManager(cards, gateway, stubGenerator{})
	return NewServer(st, adapter, feed.New(cards), gateway, sessions), st
}

func authedRequest(method, target, userID string, body []byte) *http.Request {
	var r *http.Request
	if body != nil {
		r = httptest.NewRequest(method, target, bytes.NewReader(body))
	} else {
		r = httptest.NewRequest(method, target, nil)
	}
	return r.WithContext(WithUserID(r.Context(), userID))
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func insertUser(t *testing.T, st *store.MemoryStore) *models.User {
	t.Helper()
	u := &models.User{
		ID:        uuid.NewString(),
		Email:     "ana@example.com",
		Name:      "Ana",
		Status:    "verified",
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	require.NoError(t, st.InsertUser(context.Background(), u))
	return u
}

func TestSignupVerifyLoginFlow(t *testing.T) {
	config.JWTSecret = "test-secret"
	srv, st := newTestServer(t)

	body := []byte(`{"name":"Ana","email":"ana@example.com","password":"hunter22"}`)
	rec := httptest.NewRecorder()
	srv.SignupHandler(rec, httptest.NewRequest(http.MethodPost, "/auth/signup", bytes.NewReader(body)))
	require.Equal(t, http.StatusCreated, rec.Code)

	user, err := st.GetUserByEmail(context.Background(), "ana@example.com")
	require.NoError(t, err)
	assert.Equal(t, "pending", user.Status)
	require.Len(t, user.OTP, 6)

	// Login before verification is rejected.
	rec = httptest.NewRecorder()
	srv.LoginHandler(rec, httptest.NewRequest(http.MethodPost, "/auth/login",
		strings.NewReader(`{"email":"ana@example.com","password":"hunter22"}`)))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = httptest.NewRecorder()
	srv.VerifyOTPHandler(rec, httptest.NewRequest(http.MethodPost, "/auth/verify-otp",
		strings.NewReader(fmt.Sprintf(`{"email":"ana@example.com","otp":%q}`, user.OTP))))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	srv.LoginHandler(rec, httptest.NewRequest(http.MethodPost, "/auth/login",
		strings.NewReader(`{"email":"ana@example.com","password":"hunter22"}`)))
	require.Equal(t, http.StatusOK, rec.Code)
	out := decodeBody(t, rec)
	token, _ := out["token"].(string)
	require.NotEmpty(t, token)

	// The issued token passes the auth middleware.
	handler := AuthMiddleware(srv.SwipesHandler)
	req := httptest.NewRequest(http.MethodGet, "/api/swipes", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	handler(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSignup_DuplicateEmail(t *testing.T) {
	srv, st := newTestServer(t)
	insertUser(t, st)

	rec := httptest.NewRecorder()
	srv.SignupHandler(rec, httptest.NewRequest(http.MethodPost, "/auth/signup",
		strings.NewReader(`{"name":"Ana","email":"ana@example.com","password":"x"}`)))
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestAuthMiddleware_RejectsMissingOrBadToken(t *testing.T) {
	config.JWTSecret = "test-secret"
	srv, _ := newTestServer(t)
	handler := AuthMiddleware(srv.SwipesHandler)

	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodGet, "/api/swipes", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/swipes", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	rec = httptest.NewRecorder()
	handler(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSearchProducts_FallsBackToCatalog(t *testing.T) {
	srv, st := newTestServer(t)
	require.NoError(t, catalog.Seed(context.Background(), st))

	rec := httptest.NewRecorder()
	srv.SearchProductsHandler(rec, httptest.NewRequest(http.MethodGet, "/api/search/products?query=blazer", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	out := decodeBody(t, rec)
	assert.Equal(t, "internal", out["source"])
	assert.Equal(t, true, out["fallback"])
	assert.NotEmpty(t, out["products"])
}

func TestProductsFeed_ComposesCatalog(t *testing.T) {
	srv, st := newTestServer(t)
	require.NoError(t, catalog.Seed(context.Background(), st))

	rec := httptest.NewRecorder()
	srv.ProductsFeedHandler(rec, httptest.NewRequest(http.MethodGet, "/api/products", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	out := decodeBody(t, rec)
	products, ok := out["products"].([]interface{})
	require.True(t, ok)
	assert.NotEmpty(t, products)

	// No duplicate ids survive the aggregation.
	seen := map[string]struct{}{}
	for _, raw := range products {
		p := raw.(map[string]interface{})
		id := p["id"].(string)
		_, dup := seen[id]
		assert.False(t, dup, "duplicate product %s in feed", id)
		seen[id] = struct{}{}
	}
}

func TestSwipes_RecordAndHistory(t *testing.T) {
	srv, st := newTestServer(t)
	user := insertUser(t, st)

	p := &models.Product{ID: uuid.NewString(), Name: "Coat", Price: "100.00", CreatedAt: time.Now()}
	require.NoError(t, st.InsertProduct(context.Background(), p))

	body := []byte(fmt.Sprintf(`{"productId":%q,"direction":"right","sessionId":%q}`, p.ID, uuid.NewString()))
	rec := httptest.NewRecorder()
	srv.SwipesHandler(rec, authedRequest(http.MethodPost, "/api/swipes", user.ID, body))
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decodeBody(t, rec)
	assert.Equal(t, true, created["success"])
	assert.Equal(t, "Swipe recorded successfully", created["message"])
	require.NotNil(t, created["swipe"])

	rec = httptest.NewRecorder()
	srv.SwipesHandler(rec, authedRequest(http.MethodGet, "/api/swipes", user.ID, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	out := decodeBody(t, rec)
	assert.EqualValues(t, 1, out["count"])
}

func TestSwipes_InvalidDirection(t *testing.T) {
	srv, st := newTestServer(t)
	user := insertUser(t, st)

	body := []byte(fmt.Sprintf(`{"productId":%q,"direction":"down"}`, uuid.NewString()))
	rec := httptest.NewRecorder()
	srv.SwipesHandler(rec, authedRequest(http.MethodPost, "/api/swipes", user.ID, body))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestProfile_UpdatePreferences(t *testing.T) {
	srv, st := newTestServer(t)
	user := insertUser(t, st)

	body := []byte(`{"preferences":{"sizes":{"top":"M","bottom":"32","shoes":"42"},"budgetRange":[50,200]}}`)
	rec := httptest.NewRecorder()
	srv.ProfileHandler(rec, authedRequest(http.MethodPost, "/api/user/profile", user.ID, body))
	require.Equal(t, http.StatusOK, rec.Code)

	stored, err := st.GetUser(context.Background(), user.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.Preferences)
	assert.Equal(t, "M", stored.Preferences.Sizes.Top)
	assert.Equal(t, []float64{50, 200}, stored.Preferences.BudgetRange)
}

func TestProfile_RejectsBadBudgetRange(t *testing.T) {
	srv, st := newTestServer(t)
	user := insertUser(t, st)

	tests := []string{
		`{"preferences":{"budgetRange":[100]}}`,
		`{"preferences":{"budgetRange":[200,50]}}`,
		`{"preferences":{"budgetRange":[-5,50]}}`,
	}
	for _, body := range tests {
		rec := httptest.NewRecorder()
		srv.ProfileHandler(rec, authedRequest(http.MethodPost, "/api/user/profile", user.ID, []byte(body)))
		assert.Equal(t, http.StatusBadRequest, rec.Code, "body: %s", body)
	}
}

func TestPhotos_UploadRejectedAtCap(t *testing.T) {
	srv, st := newTestServer(t)
	user := insertUser(t, st)

	for i := 0; i < models.MaxPhotosPerUser; i++ {
		require.NoError(t, st.InsertPhoto(context.Background(), &models.Photo{
			ID:        uuid.NewString(),
			UserID:    user.ID,
			URL:       fmt.Sprintf("user_images/p%d.jpg", i),
			CreatedAt: time.Now(),
		}))
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("images", "extra.jpg")
	require.NoError(t, err)
	fw.Write([]byte("fake-jpeg-bytes"))
	require.NoError(t, mw.Close())

	req := authedRequest(http.MethodPost, "/api/user/photos", user.ID, buf.Bytes())
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	srv.PhotosHandler(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSessionFlow(t *testing.T) {
	srv, st := newTestServer(t)
	user := insertUser(t, st)
	require.NoError(t, catalog.Seed(context.Background(), st))

	rec := httptest.NewRecorder()
	srv.StartSessionHandler(rec, authedRequest(http.MethodPost, "/api/session/start", user.ID, []byte(`{"query":""}`)))
	require.Equal(t, http.StatusCreated, rec.Code)
	out := decodeBody(t, rec)
	sessionID, _ := out["sessionId"].(string)
	require.NotEmpty(t, sessionID)
	require.NotNil(t, out["current"])

	body := []byte(fmt.Sprintf(`{"sessionId":%q,"direction":"right"}`, sessionID))
	rec = httptest.NewRecorder()
	srv.SessionSwipeHandler(rec, authedRequest(http.MethodPost, "/api/session/swipe", user.ID, body))
	require.Equal(t, http.StatusOK, rec.Code)

	// The liked product landed in the default collection.
	coll, err := st.DefaultCollection(context.Background(), user.ID)
	require.NoError(t, err)
	items, err := st.ListCollectionItems(context.Background(), coll.ID)
	require.NoError(t, err)
	assert.Len(t, items, 1)

	// Try-on for the current card comes from the generator.
	body = []byte(fmt.Sprintf(`{"sessionId":%q}`, sessionID))
	rec = httptest.NewRecorder()
	srv.SessionTryOnHandler(rec, authedRequest(http.MethodPost, "/api/session/tryon", user.ID, body))
	require.Equal(t, http.StatusOK, rec.Code)
	out = decodeBody(t, rec)
	assert.Contains(t, out["tryOnImageUrl"], "https://cdn.example.com/tryon-")
}

func TestSessionStart_ReloadKeepsSessionID(t *testing.T) {
	srv, st := newTestServer(t)
	user := insertUser(t, st)
	require.NoError(t, catalog.Seed(context.Background(), st))

	rec := httptest.NewRecorder()
	srv.StartSessionHandler(rec, authedRequest(http.MethodPost, "/api/session/start", user.ID, []byte(`{"query":"coats"}`)))
	require.Equal(t, http.StatusCreated, rec.Code)
	sessionID := decodeBody(t, rec)["sessionId"].(string)

	body := []byte(fmt.Sprintf(`{"sessionId":%q,"query":"boots"}`, sessionID))
	rec = httptest.NewRecorder()
	srv.StartSessionHandler(rec, authedRequest(http.MethodPost, "/api/session/start", user.ID, body))
	require.Equal(t, http.StatusOK, rec.Code)
	out := decodeBody(t, rec)
	assert.Equal(t, sessionID, out["sessionId"])
	assert.Equal(t, "boots", out["query"])
	assert.EqualValues(t, 0, out["currentIndex"])
}

func TestSession_EndRemovesSession(t *testing.T) {
	srv, st := newTestServer(t)
	user := insertUser(t, st)
	require.NoError(t, catalog.Seed(context.Background(), st))

	rec := httptest.NewRecorder()
	srv.StartSessionHandler(rec, authedRequest(http.MethodPost, "/api/session/start", user.ID, []byte(`{}`)))
	require.Equal(t, http.StatusCreated, rec.Code)
	sessionID := decodeBody(t, rec)["sessionId"].(string)

	rec = httptest.NewRecorder()
	srv.SessionStateHandler(rec, authedRequest(http.MethodDelete, "/api/session?id="+sessionID, user.ID, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, decodeBody(t, rec)["success"])

	rec = httptest.NewRecorder()
	srv.SessionStateHandler(rec, authedRequest(http.MethodGet, "/api/session?id="+sessionID, user.ID, nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSession_OtherUserCannotAccess(t *testing.T) {
	srv, st := newTestServer(t)
	user := insertUser(t, st)
	require.NoError(t, catalog.Seed(context.Background(), st))

	rec := httptest.NewRecorder()
	srv.StartSessionHandler(rec, authedRequest(http.MethodPost, "/api/session/start", user.ID, []byte(`{}`)))
	require.Equal(t, http.StatusCreated, rec.Code)
	sessionID := decodeBody(t, rec)["sessionId"].(string)

	body := []byte(fmt.Sprintf(`{"sessionId":%q,"direction":"left"}`, sessionID))
	rec = httptest.NewRecorder()
	srv.SessionSwipeHandler(rec, authedRequest(http.MethodPost, "/api/session/swipe", "someone-else", body))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCollections_ListAfterLike(t *testing.T) {
	srv, st := newTestServer(t)
	user := insertUser(t, st)

	p := &models.Product{ID: uuid.NewString(), Name: "Coat", Price: "100.00", CreatedAt: time.Now()}
	require.NoError(t, st.InsertProduct(context.Background(), p))

	body := []byte(fmt.Sprintf(`{"productId":%q,"direction":"right","sessionId":%q}`, p.ID, uuid.NewString()))
	rec := httptest.NewRecorder()
	srv.SwipesHandler(rec, authedRequest(http.MethodPost, "/api/swipes", user.ID, body))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = httptest.NewRecorder()
	srv.CollectionsHandler(rec, authedRequest(http.MethodGet, "/api/collections", user.ID, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	out := decodeBody(t, rec)
	collections := out["collections"].([]interface{})
	require.Len(t, collections, 1)
	likes := collections[0].(map[string]interface{})
	assert.Equal(t, models.DefaultCollectionName, likes["name"])
	assert.EqualValues(t, 1, likes["itemCount"])

	rec = httptest.NewRecorder()
	srv.CollectionItemsHandler(rec, authedRequest(http.MethodGet, "/api/collections/items?id="+likes["id"].(string), user.ID, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	out = decodeBody(t, rec)
	items := out["items"].([]interface{})
	require.Len(t, items, 1)
	item := items[0].(map[string]interface{})
	require.NotNil(t, item["product"])
}

func TestCollections_OtherUsersCollectionHidden(t *testing.T) {
	srv, st := newTestServer(t)
	user := insertUser(t, st)

	coll := &models.Collection{ID: uuid.NewString(), UserID: user.ID, Name: "Likes", IsDefault: true, CreatedAt: time.Now()}
	require.NoError(t, st.InsertCollection(context.Background(), coll))

	rec := httptest.NewRecorder()
	srv.CollectionItemsHandler(rec, authedRequest(http.MethodGet, "/api/collections/items?id="+coll.ID, "intruder", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestChatHandler_ScriptedReply(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.ChatHandler(rec, httptest.NewRequest(http.MethodPost, "/api/chat",
		strings.NewReader(`{"message":"summer wedding outfit"}`)))
	require.Equal(t, http.StatusOK, rec.Code)

	out := decodeBody(t, rec)
	assert.Equal(t, "assistant", out["role"])
	assert.Contains(t, out["content"], "summer wedding outfit")

	rec = httptest.NewRecorder()
	srv.ChatHandler(rec, httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(`{"message":""}`)))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, ChatGreeting, decodeBody(t, rec)["content"])
}
