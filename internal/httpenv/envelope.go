// Package httpenv is the uniform {status, message, content} JSON envelope
// the registry's (C4) HTTP endpoints return (spec.md §6). Worker (C3)
// endpoints do not use it.
package httpenv

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kandev/agentnet/internal/common/apierrors"
)

// Envelope is the wire shape of every response.
type Envelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message,omitempty"`
	Content json.RawMessage `json:"content,omitempty"`
}

// OK writes a success envelope, optionally carrying content.
func OK(c *gin.Context, content any) {
	env := Envelope{Status: "success"}
	if content != nil {
		raw, err := json.Marshal(content)
		if err != nil {
			Error(c, apierrors.InternalError("encoding response content", err))
			return
		}
		env.Content = raw
	}
	c.JSON(http.StatusOK, env)
}

// Error writes an error envelope, deriving the HTTP status from err.
func Error(c *gin.Context, err error) {
	c.JSON(apierrors.HTTPStatus(err), Envelope{
		Status:  "error",
		Message: err.Error(),
	})
}

// DecodeContent unmarshals env.Content into v.
func DecodeContent(env Envelope, v any) error {
	if len(env.Content) == 0 {
		return nil
	}
	return json.Unmarshal(env.Content, v)
}
