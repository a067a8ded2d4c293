package api

import (
	"context"
	"net/http"

	"documind/internal/utils"
)

type contextKey string

const currentUserKey = contextKey("currentUser")

// CurrentUser is the authenticated identity attached to a request.
type CurrentUser struct {
	ID    uint
	Email string
}

// Authenticate validates the bearer token and stores the caller's identity
// in the request context.
func (h *Handlers) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, err := utils.VerifyToken(r, h.jwtSecret)
		if err != nil {
			utils.JSONError(w, http.StatusUnauthorized, err.Error())
			return
		}
		userID, err := utils.GetUserIDFromClaims(claims)
		if err != nil {
			utils.JSONError(w, http.StatusUnauthorized, err.Error())
			return
		}

		user := CurrentUser{ID: userID, Email: utils.GetEmailFromClaims(claims)}
		ctx := context.WithValue(r.Context(), currentUserKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func currentUser(r *http.Request) CurrentUser {
	user, _ := r.Context().Value(currentUserKey).(CurrentUser)
	return user
}
