package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"apartment_booking/internal/logger"
	"apartment_booking/internal/middleware"
	"apartment_booking/internal/model"
	"apartment_booking/internal/service"

	"github.com/gin-gonic/gin"
)

// respondError maps a service error onto a status code. Internal errors are
// logged and answered with msg only.
func respondError(c *gin.Context, log *logger.Logger, err error, msg string) {
	switch service.KindOf(err) {
	case service.KindValidation:
		body := gin.H{"error": err.Error()}
		var ve *service.ValidationError
		if errors.As(err, &ve) && ve.Field != "" {
			body["details"] = []middleware.FieldError{{Field: ve.Field, Message: ve.Message}}
		}
		c.JSON(http.StatusBadRequest, body)
	case service.KindUnauthenticated:
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case service.KindForbidden:
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case service.KindNotFound:
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case service.KindConflict:
		// Overlapping stays and repeated reviews are client input errors
		if errors.Is(err, service.ErrDateConflict) || errors.Is(err, service.ErrDuplicateReview) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		log.Error(msg, "error", err, "path", c.Request.URL.Path, "request_id", c.GetString(middleware.RequestIDKey))
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": msg})
	}
}

// bindJSON decodes the body and answers 400 with per-field details on failure
func bindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		body := gin.H{"error": "Invalid request"}
		if details := middleware.TranslateValidation(err); details != nil {
			body["details"] = details
		} else {
			body["error"] = "Invalid request: " + err.Error()
		}
		c.JSON(http.StatusBadRequest, body)
		return false
	}
	return true
}

// identity returns the authenticated caller or answers 401
func identity(c *gin.Context) (model.Identity, bool) {
	id, ok := middleware.GetIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": service.ErrUnauthenticated.Error()})
		return model.Identity{}, false
	}
	return id, true
}

// viewer returns the caller if any; anonymous callers get a zero identity
func viewer(c *gin.Context) model.Identity {
	id, _ := middleware.GetIdentity(c)
	return id
}

func pathID(c *gin.Context, name, label string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + label + " ID"})
		return 0, false
	}
	return id, true
}

func queryInt64(c *gin.Context, name string) (*int64, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name + " format"})
		return nil, false
	}
	return &v, true
}

func queryInt(c *gin.Context, name string) (*int, bool) {
	v, ok := queryInt64(c, name)
	if !ok || v == nil {
		return nil, ok
	}
	i := int(*v)
	return &i, true
}

func queryString(c *gin.Context, name string) *string {
	if v := c.Query(name); v != "" {
		return &v
	}
	return nil
}

func queryDate(c *gin.Context, name string) (*time.Time, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	t, err := model.ParseDate(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid date format for '" + name + "', use YYYY-MM-DD"})
		return nil, false
	}
	return &t, true
}
