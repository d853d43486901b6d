package api_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/persistorai/tracker/internal/api"
	"github.com/persistorai/tracker/internal/models"
)

func TestUserCreate(t *testing.T) {
	t.Parallel()

	svc := &mockUserService{
		createFn: func(_ context.Context, req models.CreateUserRequest) (*models.User, error) {
			if req.Username == "taken" {
				return nil, models.ErrDuplicateKey
			}

			return &models.User{ID: 1, Username: req.Username}, nil
		},
	}

	r := newTestRouter()
	h := api.NewUserHandler(svc, testLogger())
	r.POST("/users", h.Create)

	if w := doRequest(r, http.MethodPost, "/users", `{"username":"alice"}`); w.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d: %s", w.Code, w.Body.String())
	}

	if w := doRequest(r, http.MethodPost, "/users", `{"username":"taken"}`); w.Code != http.StatusConflict {
		t.Errorf("expected 409, got %d", w.Code)
	}
}

func TestUserGet_NotFound(t *testing.T) {
	t.Parallel()

	svc := &mockUserService{
		getFn: func(context.Context, int64) (*models.User, error) { return nil, models.ErrUserNotFound },
	}

	r := newTestRouter()
	h := api.NewUserHandler(svc, testLogger())
	r.GET("/users/:id", h.Get)

	if w := doRequest(r, http.MethodGet, "/users/8", ""); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}
