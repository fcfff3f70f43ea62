package handler

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"laxmi-billing/internal/apperror"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// respondError writes err using its apperror kind. Unknown errors are logged
// and reported as a generic 500.
func respondError(c *gin.Context, err error) {
	var appErr *apperror.Error
	if !errors.As(err, &appErr) {
		log.Printf("Unhandled error on %s %s: %v", c.Request.Method, c.FullPath(), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	body := gin.H{"error": appErr.Message}
	if len(appErr.Fields) > 0 {
		body["fields"] = appErr.Fields
	}
	switch appErr.Kind {
	case apperror.KindTransient:
		log.Printf("Transient failure on %s %s: %v", c.Request.Method, c.FullPath(), err)
		body["retryable"] = true
	case apperror.KindInternal:
		log.Printf("Internal error on %s %s: %v", c.Request.Method, c.FullPath(), err)
		body["error"] = "Internal server error"
	}
	c.JSON(appErr.Kind.HTTPStatus(), body)
}

// respondBindError reports a failed ShouldBind* call as a validation error
// with one entry per offending field.
func respondBindError(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}
	fields := make([]apperror.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, apperror.FieldError{Field: fieldPath(fe), Message: fieldMessage(fe)})
	}
	c.JSON(http.StatusBadRequest, gin.H{"error": "Validation failed", "fields": fields})
}

// fieldPath drops the top-level struct name from the namespace.
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	for i := 0; i < len(ns); i++ {
		if ns[i] == '.' {
			return ns[i+1:]
		}
	}
	return fe.Field()
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "min":
		return fe.Field() + " must be at least " + fe.Param()
	case "max":
		return fe.Field() + " must be at most " + fe.Param()
	case "oneof":
		return fe.Field() + " must be one of " + fe.Param()
	case "paymentmode":
		return fe.Field() + " must be one of cash, cheque, bank_transfer, upi"
	case "weekday":
		return fe.Field() + " must be a day of the week"
	}
	return fe.Field() + " is invalid"
}

func idParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name})
		return 0, false
	}
	return uint(id), true
}

func optionalUintQuery(c *gin.Context, name string) (*uint, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name})
		return nil, false
	}
	u := uint(v)
	return &u, true
}

func listResponse(c *gin.Context, items any, total int64, page, limit int) {
	c.JSON(http.StatusOK, gin.H{"items": items, "total": total, "page": page, "limit": limit})
}
