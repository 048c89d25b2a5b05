package server

import (
	"errors"
	"maps"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

const (
	statusSuccess = "success"
	statusFailure = "failure"
	statusError   = "error"

	internalErrorMessage = "internal error"
)

// respond writes the {status, message, timestamp} envelope merged with fields.
func respond(c *gin.Context, code int, status, message string, fields gin.H) {
	body := gin.H{
		"status":    status,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
	if message != "" {
		body["message"] = message
	}
	maps.Copy(body, fields)

	c.JSON(code, body)
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fe.Field()+" is required")
		case "email":
			msgs = append(msgs, fe.Field()+" must be a valid email")
		default:
			msgs = append(msgs, fe.Field()+" must satisfy "+fe.Tag())
		}
	}
	return strings.Join(msgs, ", ")
}
