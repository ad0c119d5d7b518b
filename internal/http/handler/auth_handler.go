package handler

import (
	"net/http"

	"github.com/sitetrack/procurement-api/internal/auth"
	"github.com/sitetrack/procurement-api/internal/domain"
)

type AuthHandler struct{}

func NewAuthHandler() *AuthHandler {
	return &AuthHandler{}
}

// Me godoc
// @Summary Get current authenticated user
// @Tags Auth
// @Produce json
// @Success 200 {object} domain.AuthUserDTO
// @Failure 401 {object} map[string]string "Unauthorized"
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /auth/me [get]
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userCtx, ok := auth.FromContext(r.Context())
	if !ok {
		respondJSON(w, http.StatusUnauthorized, map[string]string{
			"error": "unauthorized",
		})
		return
	}

	respondJSON(w, http.StatusOK, domain.AuthUserDTO{
		ID:       userCtx.UserID.String(),
		Name:     userCtx.DisplayName,
		Email:    userCtx.Email,
		Roles:    userCtx.RolesAsStrings(),
		Initials: userCtx.Initials(),
	})
}
