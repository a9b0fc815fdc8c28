package transport

import "github.com/gin-gonic/gin"

// ErrorResponse is the standard error body for every REST endpoint.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

func writeError(c *gin.Context, status int, code, message string, details error) {
	resp := ErrorResponse{Error: code, Message: message}
	if details != nil {
		resp.Details = details.Error()
	}
	c.JSON(status, resp)
}
