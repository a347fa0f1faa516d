package transport

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"catalog-api/internal/domain"
	"catalog-api/internal/middleware"
	"catalog-api/internal/repository"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubReportService struct {
	views *domain.ProductViewCount
}

func (s *stubReportService) ProductsPerCategory(ctx context.Context) ([]*domain.CategoryProductCount, error) {
	return []*domain.CategoryProductCount{}, nil
}

func (s *stubReportService) ProductViews(ctx context.Context, productID uuid.UUID) (*domain.ProductViewCount, error) {
	if s.views == nil || s.views.ProductID != productID {
		return nil, repository.ErrProductNotFound
	}
	return s.views, nil
}

func (s *stubReportService) ProductComments(ctx context.Context, productID uuid.UUID) (*domain.ProductCommentCount, error) {
	return nil, repository.ErrProductNotFound
}

func (s *stubReportService) CategoryStats(ctx context.Context) ([]*domain.CategoryStats, error) {
	return []*domain.CategoryStats{}, nil
}

func newReportRouter(stub *stubReportService) chi.Router {
	logger := zap.NewNop()
	handler := NewReportHandler(stub, logger)
	router := chi.NewRouter()
	handler.RegisterRoutes(router, middleware.AuthMiddleware("test-secret", logger))
	return router
}

func signedTestToken(t *testing.T, secret string) string {
	t.Helper()

	claims := jwt.MapClaims{
		"user_id": uuid.NewString(),
		"role":    "user",
		"exp":     time.Now().Add(time.Hour).Unix(),
	}
	tokenString, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return tokenString
}

func TestReportRoutes_RequireAuthentication(t *testing.T) {
	productID := uuid.New()
	router := newReportRouter(&stubReportService{
		views: &domain.ProductViewCount{ProductID: productID, Name: "Guarded", ViewCount: 7},
	})
	token := signedTestToken(t, "test-secret")

	paths := []string{
		"/catalog/api/reports/",
		"/catalog/api/reports/products-per-category/",
		"/catalog/api/reports/product-views/" + productID.String() + "/",
		"/catalog/api/reports/product-comments/" + productID.String() + "/",
		"/catalog/api/reports/category-stats/",
	}

	for _, path := range paths {
		// Without a token
		req := httptest.NewRequest(http.MethodGet, path, nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		require.Equal(t, http.StatusUnauthorized, w.Code, "expected 401 for %s without token", path)

		// With a valid token
		req = httptest.NewRequest(http.MethodGet, path, nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w = httptest.NewRecorder()
		router.ServeHTTP(w, req)

		expected := http.StatusOK
		if path == "/catalog/api/reports/product-comments/"+productID.String()+"/" {
			expected = http.StatusNotFound // the stub has no comment data
		}
		require.Equal(t, expected, w.Code, "unexpected status for %s with token", path)
	}
}

func TestReportHandler_ProductViewsPayload(t *testing.T) {
	productID := uuid.New()
	router := newReportRouter(&stubReportService{
		views: &domain.ProductViewCount{ProductID: productID, Name: "Guarded", ViewCount: 7},
	})
	token := signedTestToken(t, "test-secret")

	req := httptest.NewRequest(http.MethodGet, "/catalog/api/reports/product-views/"+productID.String()+"/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var payload domain.ProductViewCount
	require.NoError(t, json.NewDecoder(w.Body).Decode(&payload))
	require.Equal(t, productID, payload.ProductID)
	require.Equal(t, 7, payload.ViewCount)

	// Unknown product id
	req = httptest.NewRequest(http.MethodGet, "/catalog/api/reports/product-views/"+uuid.NewString()+"/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusNotFound, w.Code)
}
