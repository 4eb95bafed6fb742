// Package pages renders the server-side HTML views.
package pages

import (
	"context"
	"embed"
	"html/template"
	"io"
	"time"

	"github.com/a-h/templ"

	"github.com/ritrax1/GOAuth2BlogDemo/internal/models"
	"github.com/ritrax1/GOAuth2BlogDemo/internal/service"
)

//go:embed *.html
var files embed.FS

var funcs = template.FuncMap{
	"formatTime": func(t time.Time) string {
		return t.Format("Jan 2, 2006 15:04")
	},
}

var templates = template.Must(template.New("pages").Funcs(funcs).ParseFS(files, "*.html"))

// Layout carries the fields every page header needs.
type Layout struct {
	Title string
	User  *models.Principal
}

// LandingData is the data for the landing page.
type LandingData struct {
	Layout
	Error string
}

// DashboardData is the data for the feed page.
type DashboardData struct {
	Layout
	Feed    *service.FeedPage
	Error   string
	Success string
}

// PostFormData is the data for the create and edit forms.
type PostFormData struct {
	Layout
	Action      string
	Submit      string
	PostTitle   string
	PostContent string
	Errors      map[string]string
}

// ProfileData is the data for the profile page.
type ProfileData struct {
	Layout
	Stats *models.AuthorStats
}

// ErrorData is the data for status pages.
type ErrorData struct {
	Layout
	Status  int
	Message string
}

func render(name string, data any) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		return templates.ExecuteTemplate(w, name, data)
	})
}

// Landing renders the sign-in page.
func Landing(data LandingData) templ.Component {
	if data.Title == "" {
		data.Title = "Welcome"
	}
	return render("landing", data)
}

// Dashboard renders one page of the feed.
func Dashboard(data DashboardData) templ.Component {
	if data.Title == "" {
		data.Title = "Feed"
	}
	return render("dashboard", data)
}

// NewPost renders the post creation form.
func NewPost(data PostFormData) templ.Component {
	data.Title = "New post"
	data.Action = "/posts"
	data.Submit = "Publish"
	return render("post_form", data)
}

// EditPost renders the edit form for postID.
func EditPost(postID string, data PostFormData) templ.Component {
	data.Title = "Edit post"
	data.Action = "/posts/" + postID + "/update"
	data.Submit = "Save"
	return render("post_form", data)
}

// Profile renders the signed-in user's stats.
func Profile(data ProfileData) templ.Component {
	if data.Title == "" {
		data.Title = "Profile"
	}
	return render("profile", data)
}

// Error renders a status page.
func Error(data ErrorData) templ.Component {
	if data.Title == "" {
		data.Title = "Error"
	}
	return render("error", data)
}
