package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/sbilibin2017/gw-users-auth/internal/middlewares"
)

// NewAuthenticatedRouteHandler returns an example protected endpoint
// greeting the authenticated principal.
// @Summary Example protected route
// @Tags auth
// @Produce json
// @Success 200 {object} handlers.MessageResponse "Greeting"
// @Failure 401 "Not authenticated"
// @Router /authenticated-route [get]
func NewAuthenticatedRouteHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		user := middlewares.CurrentUser(r.Context())
		if user == nil {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(MessageResponse{
			Message: "Hello " + user.Email,
		})
	}
}
