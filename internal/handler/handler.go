package handler

import (
	"foresight/internal/service"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"
)

type Handler struct {
	tracer          trace.Tracer
	forecastService *service.ForecastService
}

func New(tracer trace.Tracer, forecastService *service.ForecastService) *Handler {
	return &Handler{
		tracer:          tracer,
		forecastService: forecastService,
	}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", h.Health)
	r.POST("/api/predict", h.Predict)
	r.GET("/api/predictions/:symbol", h.GetPredictions)
	r.GET("/api/history/:symbol", h.GetHistory)
	r.GET("/api/prices/:symbol", h.GetPrice)
}
