package service

import (
	"github.com/ritrax1/GOAuth2BlogDemo/internal/models"
	apierrors "github.com/ritrax1/GOAuth2BlogDemo/internal/pkg/errors"
)

// CanMutate reports whether principal may edit or delete post.
func CanMutate(principal *models.Principal, post *models.Post) bool {
	if principal == nil || post == nil {
		return false
	}
	return post.AuthorID == principal.UserID
}

// authorizeMutation is the single ownership check run before every
// owner-only operation. A missing post is reported before ownership.
func authorizeMutation(principal *models.Principal, post *models.Post) error {
	if post == nil {
		return apierrors.NewNotFoundError("Post")
	}
	if !CanMutate(principal, post) {
		return apierrors.ErrForbidden
	}
	return nil
}
