package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"eventhive/internal/middleware"
	"eventhive/internal/models"
	"eventhive/internal/realtime"
	"eventhive/internal/service"
)

// HealthCheck - одна зависимость, которую проверяет GET /health
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

type Handlers struct {
	services *service.Services
	hub      *realtime.Hub
	checks   []HealthCheck
}

func NewHandlers(services *service.Services, hub *realtime.Hub, checks ...HealthCheck) *Handlers {
	return &Handlers{
		services: services,
		hub:      hub,
		checks:   checks,
	}
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{"message": message})
}

// paramID разбирает числовой параметр пути; при ошибке уже ответил 400
func paramID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		badRequest(c, "invalid "+name)
		return 0, false
	}
	return id, true
}

func bindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		badRequest(c, err.Error())
		return false
	}
	return true
}

func currentUser(c *gin.Context) *models.User {
	return middleware.CurrentUser(c)
}

// Health - GET /health
func (h *Handlers) Health(c *gin.Context) {
	status := http.StatusOK
	components := gin.H{}

	for _, check := range h.checks {
		if err := check.Check(c.Request.Context()); err != nil {
			components[check.Name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		components[check.Name] = "ok"
	}

	state := "ok"
	if status != http.StatusOK {
		state = "degraded"
	}
	c.JSON(status, gin.H{"status": state, "components": components})
}
