package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ewilliams-labs/kisanmandi/backend/internal/validate"
)

type validateRequest struct {
	Email    *string `json:"email"`
	Password *string `json:"password"`
	Phone    *string `json:"phone"`
}

type validateResponse struct {
	Email    *bool                    `json:"email,omitempty"`
	Password *validate.PasswordResult `json:"password,omitempty"`
	Phone    *bool                    `json:"phone,omitempty"`
}

// Validate handles POST /api/validate. Only the fields present in the request are checked.
func (h *Handler) Validate(c *gin.Context) {
	if !isJSONContentType(c.Request) {
		writeError(c, http.StatusUnsupportedMediaType, codeUnsupportedMedia, "Content-Type must be application/json")
		return
	}

	var req validateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, codeInvalidRequest, "Invalid request body")
		return
	}

	var resp validateResponse
	if req.Email != nil {
		ok := validate.Email(*req.Email)
		resp.Email = &ok
	}
	if req.Password != nil {
		res := validate.Password(*req.Password)
		resp.Password = &res
	}
	if req.Phone != nil {
		ok := validate.Phone(*req.Phone)
		resp.Phone = &ok
	}
	c.JSON(http.StatusOK, resp)
}
