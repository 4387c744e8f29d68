package api

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"alert-registry/internal/logging"
	"alert-registry/internal/models"
)

const version = "1.0.0"

// AlertService is what the handlers need from the service layer.
type AlertService interface {
	Create(ctx context.Context, in models.AlertInput) (models.Alert, error)
	Get(ctx context.Context, id int64) (models.Alert, error)
	Delete(ctx context.Context, id int64) (models.Alert, error)
	List(ctx context.Context, q models.ListQuery) ([]models.Alert, error)
	Nearby(ctx context.Context, q models.NearbyQuery) ([]models.Alert, error)
	Ready(ctx context.Context) error
}

type Handler struct {
	svc    AlertService
	logger *logging.Logger
}

func NewHandler(svc AlertService, logger *logging.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

func (h *Handler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "Alert API is up",
		"version": version,
		"status":  "healthy",
	})
}

func (h *Handler) Health(c *gin.Context) {
	if err := h.svc.Ready(c.Request.Context()); err != nil {
		h.log(c).Errorf("Health check failed: %v", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Service unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "database": "connected"})
}

func (h *Handler) ListAlerts(c *gin.Context) {
	verr := &models.ValidationError{}
	q := models.ListQuery{
		Skip:     queryInt(c, verr, "skip", 0),
		Limit:    queryInt(c, verr, "limit", models.DefaultListLimit),
		Category: c.Query("category"),
	}
	if err := verr.OrNil(); err != nil {
		h.respondError(c, err)
		return
	}

	list, err := h.svc.List(c.Request.Context(), q)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) NearbyAlerts(c *gin.Context) {
	verr := &models.ValidationError{}
	q := models.NearbyQuery{
		Latitude:  queryFloat(c, verr, "latitude", nil),
		Longitude: queryFloat(c, verr, "longitude", nil),
		RadiusKM:  queryFloat(c, verr, "radius_km", ptrFloat(models.DefaultRadiusKM)),
	}
	if err := verr.OrNil(); err != nil {
		h.respondError(c, err)
		return
	}

	list, err := h.svc.Nearby(c.Request.Context(), q)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) GetAlert(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		h.respondError(c, err)
		return
	}

	alert, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, alert)
}

func (h *Handler) CreateAlert(c *gin.Context) {
	var in models.AlertInput
	if err := c.ShouldBindJSON(&in); err != nil {
		h.log(c).Warnf("Invalid request body for alert: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	alert, err := h.svc.Create(c.Request.Context(), in)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, alert)
}

func (h *Handler) DeleteAlert(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		h.respondError(c, err)
		return
	}

	if _, err := h.svc.Delete(c.Request.Context(), id); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": fmt.Sprintf("Alert %d deleted", id)})
}

// respondError maps the error taxonomy onto HTTP statuses.
func (h *Handler) respondError(c *gin.Context, err error) {
	var verr *models.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":   "Validation failed",
			"details": verr.Violations,
		})
	case errors.Is(err, models.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Alert not found"})
	default:
		h.log(c).Errorf("Request failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

func (h *Handler) log(c *gin.Context) *logrus.Entry {
	return h.logger.WithRequestID(c.GetString(requestIDKey))
}

func pathID(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		verr := &models.ValidationError{}
		verr.Add("id", "must be a valid integer")
		return 0, verr
	}
	return id, nil
}

func queryInt(c *gin.Context, verr *models.ValidationError, key string, def int) int {
	s, ok := c.GetQuery(key)
	if !ok {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		verr.Add(key, "must be a valid integer")
		return def
	}
	return n
}

// queryFloat reads a float parameter. A nil def makes the parameter required.
func queryFloat(c *gin.Context, verr *models.ValidationError, key string, def *float64) float64 {
	s, ok := c.GetQuery(key)
	if !ok {
		if def == nil {
			verr.Add(key, "field required")
			return 0
		}
		return *def
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) {
		verr.Add(key, "must be a valid number")
		return 0
	}
	return f
}

func ptrFloat(f float64) *float64 { return &f }
