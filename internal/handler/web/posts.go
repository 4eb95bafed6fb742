package web

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/a-h/templ"
	"github.com/go-chi/chi/v5"

	"github.com/ritrax1/GOAuth2BlogDemo/internal/middleware"
	apierrors "github.com/ritrax1/GOAuth2BlogDemo/internal/pkg/errors"
	"github.com/ritrax1/GOAuth2BlogDemo/internal/service"
	"github.com/ritrax1/GOAuth2BlogDemo/templates/pages"
)

// Dashboard renders a page of the feed.
func (h *WebHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	principal := middleware.GetPrincipal(r.Context())
	page := service.ParsePage(r.URL.Query().Get("page"))

	feed, err := h.feedService.Assemble(r.Context(), principal, page, h.pageSize)
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	component := pages.Dashboard(pages.DashboardData{
		Layout:  pages.Layout{User: principal},
		Feed:    feed,
		Error:   r.URL.Query().Get("error"),
		Success: r.URL.Query().Get("success"),
	})
	templ.Handler(component).ServeHTTP(w, r)
}

// Profile renders the principal's post and like counts.
func (h *WebHandler) Profile(w http.ResponseWriter, r *http.Request) {
	principal := middleware.GetPrincipal(r.Context())

	stats, err := h.postService.Stats(r.Context(), principal)
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	component := pages.Profile(pages.ProfileData{
		Layout: pages.Layout{User: principal},
		Stats:  stats,
	})
	templ.Handler(component).ServeHTTP(w, r)
}

// NewPost renders the creation form.
func (h *WebHandler) NewPost(w http.ResponseWriter, r *http.Request) {
	component := pages.NewPost(pages.PostFormData{
		Layout: pages.Layout{User: middleware.GetPrincipal(r.Context())},
	})
	templ.Handler(component).ServeHTTP(w, r)
}

// CreatePost handles the creation form. Invalid input re-renders the form with 400.
func (h *WebHandler) CreatePost(w http.ResponseWriter, r *http.Request) {
	principal := middleware.GetPrincipal(r.Context())
	if err := r.ParseForm(); err != nil {
		h.renderError(w, r, apierrors.ErrBadRequest.WithMessage("Invalid form data"))
		return
	}

	in := service.PostInput{
		Title:   r.PostFormValue("title"),
		Content: r.PostFormValue("content"),
	}
	_, err := h.postService.Create(r.Context(), principal, in)
	if errors.Is(err, apierrors.ErrValidation) {
		component := pages.NewPost(pages.PostFormData{
			Layout:      pages.Layout{User: principal},
			PostTitle:   in.Title,
			PostContent: in.Content,
			Errors:      fieldErrors(err),
		})
		templ.Handler(component, templ.WithStatus(http.StatusBadRequest)).ServeHTTP(w, r)
		return
	}
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	middleware.IncrementPostsCreated()
	http.Redirect(w, r, "/dashboard?success=Post+published", http.StatusFound)
}

// EditPost renders the edit form. Missing posts get 404 and foreign posts 403.
func (h *WebHandler) EditPost(w http.ResponseWriter, r *http.Request) {
	principal := middleware.GetPrincipal(r.Context())

	post, err := h.postService.GetForEdit(r.Context(), principal, chi.URLParam(r, "id"))
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	component := pages.EditPost(post.ID, pages.PostFormData{
		Layout:      pages.Layout{User: principal},
		PostTitle:   post.Title,
		PostContent: post.Content,
	})
	templ.Handler(component).ServeHTTP(w, r)
}

// UpdatePost handles the edit form.
func (h *WebHandler) UpdatePost(w http.ResponseWriter, r *http.Request) {
	principal := middleware.GetPrincipal(r.Context())
	if err := r.ParseForm(); err != nil {
		h.redirectWithError(w, r, feedURL(1), apierrors.ErrBadRequest.WithMessage("Invalid form data"))
		return
	}

	in := service.PostInput{
		Title:   r.PostFormValue("title"),
		Content: r.PostFormValue("content"),
	}
	if err := h.postService.Update(r.Context(), principal, chi.URLParam(r, "id"), in); err != nil {
		h.redirectWithError(w, r, feedURL(1), err)
		return
	}

	http.Redirect(w, r, "/dashboard?success=Post+updated", http.StatusFound)
}

// DeletePost removes one of the principal's posts.
func (h *WebHandler) DeletePost(w http.ResponseWriter, r *http.Request) {
	principal := middleware.GetPrincipal(r.Context())
	back := feedURL(formPage(r))

	if err := h.postService.Delete(r.Context(), principal, chi.URLParam(r, "id")); err != nil {
		h.redirectWithError(w, r, back, err)
		return
	}

	http.Redirect(w, r, "/dashboard?success=Post+deleted", http.StatusFound)
}

// LikePost toggles the principal's like and returns to the feed.
func (h *WebHandler) LikePost(w http.ResponseWriter, r *http.Request) {
	principal := middleware.GetPrincipal(r.Context())
	id := chi.URLParam(r, "id")
	back := feedURL(formPage(r))

	res, err := h.postService.ToggleLike(r.Context(), principal, id)
	if err != nil {
		h.redirectWithError(w, r, back, err)
		return
	}

	middleware.IncrementLikesToggled(res.Liked)
	http.Redirect(w, r, back+"#post-"+id, http.StatusFound)
}

// AddComment appends a comment from the "comment" form field.
func (h *WebHandler) AddComment(w http.ResponseWriter, r *http.Request) {
	principal := middleware.GetPrincipal(r.Context())
	id := chi.URLParam(r, "id")
	back := feedURL(formPage(r))

	if _, err := h.postService.AddComment(r.Context(), principal, id, r.PostFormValue("comment")); err != nil {
		h.redirectWithError(w, r, back, err)
		return
	}

	middleware.IncrementCommentsAdded()
	http.Redirect(w, r, back+"#post-"+id, http.StatusFound)
}

// renderError renders the status page matching err.
func (h *WebHandler) renderError(w http.ResponseWriter, r *http.Request, err error) {
	apiErr := apierrors.AsAPIError(err)
	if apiErr.StatusCode >= http.StatusInternalServerError {
		h.logger.Error("request failed",
			slog.String("path", r.URL.Path),
			slog.Any("error", err),
		)
	}

	component := pages.Error(pages.ErrorData{
		Layout:  pages.Layout{User: middleware.GetPrincipal(r.Context())},
		Status:  apiErr.StatusCode,
		Message: apiErr.Message,
	})
	templ.Handler(component, templ.WithStatus(apiErr.StatusCode)).ServeHTTP(w, r)
}

// redirectWithError sends the user back to target with err as a flash message.
func (h *WebHandler) redirectWithError(w http.ResponseWriter, r *http.Request, target string, err error) {
	apiErr := apierrors.AsAPIError(err)
	if apiErr.StatusCode >= http.StatusInternalServerError {
		h.logger.Error("request failed",
			slog.String("path", r.URL.Path),
			slog.Any("error", err),
		)
	}

	sep := "?"
	if u, perr := url.Parse(target); perr == nil && u.RawQuery != "" {
		sep = "&"
	}
	http.Redirect(w, r, target+sep+"error="+url.QueryEscape(apiErr.Message), http.StatusFound)
}

// fieldErrors flattens validation details into field -> message.
func fieldErrors(err error) map[string]string {
	details, ok := apierrors.AsAPIError(err).Details.(map[string]string)
	if !ok {
		return nil
	}
	if field, ok := details["field"]; ok {
		return map[string]string{field: details["error"]}
	}
	return details
}

func formPage(r *http.Request) int {
	return service.ParsePage(r.PostFormValue("page"))
}

func feedURL(page int) string {
	if page <= 1 {
		return "/dashboard"
	}
	return fmt.Sprintf("/dashboard?page=%d", page)
}

