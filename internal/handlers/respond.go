package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"neighborhub/internal/apperr"
	"neighborhub/internal/middleware"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// respondError writes err with the status of its kind. Unexpected errors are
// logged and reported generically unless error details are exposed.
func respondError(c *gin.Context, op string, err error) {
	status := apperr.Status(err)
	if status != http.StatusInternalServerError {
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	log.Printf("%s failed: request_id=%s user_id=%s err=%v", op, requestIDFromContext(c), userIDFromContext(c), err)
	body := gin.H{"error": "internal error"}
	if c.GetBool(middleware.ExposeErrorsKey) {
		body["detail"] = err.Error()
	}
	c.JSON(http.StatusInternalServerError, body)
}

// bindJSON decodes the body into req and answers 400 on failure.
func bindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": bindingMessage(err)})
		return false
	}
	return true
}

func bindingMessage(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		switch fe.Tag() {
		case "required", "notblank":
			return fe.Field() + " is required"
		case "max":
			return fe.Field() + " must be at most " + fe.Param() + " characters"
		case "min":
			return fe.Field() + " must be at least " + fe.Param()
		case "oneof":
			return fe.Field() + " must be one of: " + fe.Param()
		case "email":
			return fe.Field() + " must be a valid email"
		default:
			return fe.Field() + " is invalid"
		}
	}
	return "invalid request payload"
}

// parsePage reads page (1-based) and limit query parameters.
func parsePage(c *gin.Context) (limit, offset int) {
	limit = defaultPageSize
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	page := 1
	if raw := c.Query("page"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			page = n
		}
	}
	return limit, (page - 1) * limit
}

// paramID reads a UUID path parameter and answers 400 when it is malformed.
func paramID(c *gin.Context, name string) (string, bool) {
	raw := c.Param(name)
	id, err := uuid.Parse(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return "", false
	}
	return id.String(), true
}
