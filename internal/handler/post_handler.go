package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ritrax1/GOAuth2BlogDemo/internal/middleware"
	"github.com/ritrax1/GOAuth2BlogDemo/internal/pkg/response"
	"github.com/ritrax1/GOAuth2BlogDemo/internal/service"
)

// PostHandler handles JSON post requests used by the feed's scripts.
type PostHandler struct {
	postService service.PostService
}

// NewPostHandler creates a new post handler.
func NewPostHandler(postService service.PostService) *PostHandler {
	return &PostHandler{postService: postService}
}

// Routes returns a chi router with post routes.
func (h *PostHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/{id}/like", h.ToggleLike)
	return r
}

// ToggleLike handles POST /api/posts/{id}/like
func (h *PostHandler) ToggleLike(w http.ResponseWriter, r *http.Request) {
	principal := middleware.GetPrincipal(r.Context())

	res, err := h.postService.ToggleLike(r.Context(), principal, chi.URLParam(r, "id"))
	if err != nil {
		response.Error(w, err)
		return
	}

	middleware.IncrementLikesToggled(res.Liked)
	response.OK(w, res)
}
