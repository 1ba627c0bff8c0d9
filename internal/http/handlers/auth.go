package handlers

import (
	"net/http"

	"ludo_arena/internal/http/middleware"
	"ludo_arena/internal/service"

	"github.com/gin-gonic/gin"
)

// AnonymousLogin mints an anonymous identity and a token for it. There is
// nothing to validate; issuance always succeeds.
func (h *Handler) AnonymousLogin(c *gin.Context) {
	ident := h.Identities.Issue()

	token, err := service.GenerateJWT(ident.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token generation failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":    token,
		"identity": ident,
	})
}

// Me returns the caller's identity record.
func (h *Handler) Me(c *gin.Context) {
	identityID, ok := middleware.IdentityFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	ident, err := h.Identities.Get(identityID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "identity not found"})
		return
	}
	c.JSON(http.StatusOK, ident)
}
