// AngelaMos | 2026
// handler_test.go

package listing

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carmarket/carmarket-api/internal/middleware"
)

func stubAuth(principalID string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := context.WithValue(
				r.Context(),
				middleware.PrincipalIDKey,
				principalID,
			)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func passThrough(next http.Handler) http.Handler {
	return next
}

func newTestRouter(principalID string) chi.Router {
	handler := NewHandler(NewService(newFakeRepo()))

	r := chi.NewRouter()
	handler.RegisterRoutes(r, stubAuth(principalID), passThrough)
	return r
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func doJSON(
	t *testing.T,
	router chi.Router,
	method, path, body string,
) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return rec, env
}

func validBody(t *testing.T, mutate func(m map[string]any)) string {
	t.Helper()

	m := map[string]any{
		"title":          "2020 Porsche 911 Carrera",
		"vehicleType":    "Sports",
		"price":          "$145,000",
		"make":           "Porsche",
		"model":          "911",
		"year":           2020,
		"mileage":        12000,
		"location":       "Dubai",
		"whatsappNumber": "+971501234567",
		"imageUrl":       "https://img.example.com/911.jpg",
	}
	if mutate != nil {
		mutate(m)
	}

	data, err := json.Marshal(m)
	require.NoError(t, err)
	return string(data)
}

func createListing(t *testing.T, router chi.Router) ListingResponse {
	t.Helper()

	rec, env := doJSON(
		t,
		router,
		http.MethodPost,
		"/listings/",
		validBody(t, nil),
	)
	require.Equal(t, http.StatusCreated, rec.Code)

	var created ListingResponse
	require.NoError(t, json.Unmarshal(env.Data, &created))
	return created
}

func TestCreateListing(t *testing.T) {
	router := newTestRouter("seller_1")

	created := createListing(t, router)

	assert.Equal(t, "seller_1", created.OwnerID)
	assert.Equal(t, "sale", created.ListingKind)
	assert.Equal(t, "active", created.Status)
}

func TestCreateListingValidation(t *testing.T) {
	router := newTestRouter("seller_1")

	tests := []struct {
		name    string
		mutate  func(m map[string]any)
		wantMsg string
	}{
		{
			"missing title",
			func(m map[string]any) { delete(m, "title") },
			"title is required",
		},
		{
			"bad vehicle type",
			func(m map[string]any) { m["vehicleType"] = "Boat" },
			"vehicleType must be one of",
		},
		{
			"rent without rental price",
			func(m map[string]any) { m["listingKind"] = "rent" },
			"rentalPrice is required",
		},
		{
			"missing mileage",
			func(m map[string]any) { delete(m, "mileage") },
			"mileage is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, env := doJSON(
				t,
				router,
				http.MethodPost,
				"/listings/",
				validBody(t, tt.mutate),
			)
			require.Equal(t, http.StatusBadRequest, rec.Code)
			require.NotNil(t, env.Error)
			assert.Contains(t, env.Error.Message, tt.wantMsg)
		})
	}
}

func TestZeroMileageIsValid(t *testing.T) {
	router := newTestRouter("seller_1")

	rec, _ := doJSON(
		t,
		router,
		http.MethodPost,
		"/listings/",
		validBody(t, func(m map[string]any) { m["mileage"] = 0 }),
	)
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestListIsPublic(t *testing.T) {
	handler := NewHandler(NewService(newFakeRepo()))

	r := chi.NewRouter()
	// authenticator rejects everything; the feed must not go through it
	reject := func(http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		})
	}
	handler.RegisterRoutes(r, reject, passThrough)

	rec, env := doJSON(t, r, http.MethodGet, "/listings/", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, env.Success)

	var listings []ListingResponse
	require.NoError(t, json.Unmarshal(env.Data, &listings))
	assert.Empty(t, listings)
	assert.Equal(
		t,
		"[]",
		strings.TrimSpace(string(env.Data)),
		"empty feed is an empty array, not null",
	)
}

func TestUpdateForeignListingReturnsNotFound(t *testing.T) {
	repo := newFakeRepo()
	handler := NewHandler(NewService(repo))

	owner := chi.NewRouter()
	handler.RegisterRoutes(owner, stubAuth("seller_1"), passThrough)

	intruder := chi.NewRouter()
	handler.RegisterRoutes(intruder, stubAuth("seller_2"), passThrough)

	created := createListing(t, owner)

	rec, env := doJSON(
		t,
		intruder,
		http.MethodPut,
		"/listings/",
		validBody(t, func(m map[string]any) {
			m["id"] = created.ID
			m["title"] = "hijacked"
		}),
	)
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "listing not found or not yours", env.Error.Message)
}

func TestDeleteForeignListingReturnsNotFound(t *testing.T) {
	repo := newFakeRepo()
	handler := NewHandler(NewService(repo))

	owner := chi.NewRouter()
	handler.RegisterRoutes(owner, stubAuth("seller_1"), passThrough)

	intruder := chi.NewRouter()
	handler.RegisterRoutes(intruder, stubAuth("seller_2"), passThrough)

	created := createListing(t, owner)

	rec, env := doJSON(
		t,
		intruder,
		http.MethodDelete,
		"/listings/?id="+created.ID,
		"",
	)
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "listing not found or not yours", env.Error.Message)

	rec, _ = doJSON(t, owner, http.MethodDelete, "/listings/?id="+created.ID, "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestUpdateRequiresID(t *testing.T) {
	router := newTestRouter("seller_1")

	rec, env := doJSON(
		t,
		router,
		http.MethodPut,
		"/listings/",
		validBody(t, nil),
	)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "missing listing id", env.Error.Message)
}

func TestSetStatusEndpoint(t *testing.T) {
	router := newTestRouter("seller_1")
	created := createListing(t, router)

	rec, env := doJSON(
		t,
		router,
		http.MethodPut,
		fmt.Sprintf("/listings/%s/status", created.ID),
		`{"status":"sold"}`,
	)
	require.Equal(t, http.StatusOK, rec.Code)

	var updated ListingResponse
	require.NoError(t, json.Unmarshal(env.Data, &updated))
	assert.Equal(t, "sold", updated.Status)
}

func TestContactEndpoint(t *testing.T) {
	router := newTestRouter("seller_1")
	created := createListing(t, router)

	rec, env := doJSON(
		t,
		router,
		http.MethodGet,
		fmt.Sprintf("/listings/%s/contact", created.ID),
		"",
	)
	require.Equal(t, http.StatusOK, rec.Code)

	var contact ContactResponse
	require.NoError(t, json.Unmarshal(env.Data, &contact))
	assert.Equal(t, created.ID, contact.ListingID)
	assert.True(
		t,
		strings.HasPrefix(contact.Link, "https://wa.me/971501234567?text="),
		contact.Link,
	)
}

func TestContactUnknownListingReturns404(t *testing.T) {
	router := newTestRouter("seller_1")

	rec, env := doJSON(
		t,
		router,
		http.MethodGet,
		"/listings/missing/contact",
		"",
	)
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "NOT_FOUND", env.Error.Code)
}
