package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"academics/internal/httpmiddleware"
	"academics/internal/logger"
	"academics/internal/store"
)

// renderBindError answers 422 for anything the request body got wrong.
// fields maps the JSON field name to the rule it failed.
func renderBindError(c *gin.Context, err error) {
	fields := map[string]string{}
	msg := "invalid request body"

	var verrs validator.ValidationErrors
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.As(err, &verrs):
		msg = "validation failed"
		for _, fe := range verrs {
			fields[fe.Field()] = rule(fe)
		}
	case errors.Is(err, io.EOF):
		msg = "request body is empty"
	case errors.As(err, &syntaxErr):
		msg = "malformed JSON"
	case errors.As(err, &typeErr):
		if typeErr.Field == "" {
			msg = "request body must be a JSON object"
			break
		}
		fields[typeErr.Field] = "type:" + typeErr.Type.String()
	default:
		// encoding/json has no typed error for disallowed fields.
		if name, ok := strings.CutPrefix(err.Error(), "json: unknown field "); ok {
			fields[strings.Trim(name, `"`)] = "unknown"
		}
	}

	body := gin.H{"error": msg}
	if len(fields) > 0 {
		body["fields"] = fields
	}
	c.AbortWithStatusJSON(http.StatusUnprocessableEntity, body)
}

func rule(fe validator.FieldError) string {
	if fe.Param() == "" {
		return fe.Tag()
	}
	return fe.Tag() + "=" + fe.Param()
}

// renderStoreError maps classified store errors onto status codes. Only
// unexpected failures are logged; the client never sees driver text for them.
func renderStoreError(c *gin.Context, err error) {
	status, msg := http.StatusInternalServerError, "internal error"
	switch {
	case errors.Is(err, store.ErrUniqueViolation):
		status, msg = http.StatusConflict, "already exists"
	case errors.Is(err, store.ErrForeignKeyViolation):
		status, msg = http.StatusUnprocessableEntity, "referenced row does not exist"
	case errors.Is(err, store.ErrConstraintViolation):
		status, msg = http.StatusConflict, "constraint violation"
	case errors.Is(err, store.ErrNotFound):
		status, msg = http.StatusNotFound, "not found"
	case errors.Is(err, store.ErrUnavailable):
		status, msg = http.StatusServiceUnavailable, "store unavailable"
	}

	body := gin.H{"error": msg}
	var se *store.Error
	if status < http.StatusInternalServerError && errors.As(err, &se) && se.Detail != "" {
		body["detail"] = se.Detail
	}
	if status >= http.StatusInternalServerError {
		logger.LogError("request failed", err,
			"method", c.Request.Method,
			"path", c.FullPath(),
			"request_id", httpmiddleware.GetRequestID(c),
		)
	}
	c.AbortWithStatusJSON(status, body)
}
