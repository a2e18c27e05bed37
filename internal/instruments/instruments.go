package instruments

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/pcell62/Intelligent-Order-Parameter-Prefill/internal/types"
	"github.com/pcell62/Intelligent-Order-Parameter-Prefill/pkg/response"
)

// Service exposes the tradable instrument universe.
type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// ListActive returns all active instruments ordered by symbol.
func (s *Service) ListActive() ([]types.Instrument, error) {
	var instruments []types.Instrument
	err := s.db.Where("is_active = ?", true).Order("symbol ASC").Find(&instruments).Error
	return instruments, err
}

func (s *Service) Get(symbol string) (*types.Instrument, error) {
	var inst types.Instrument
	if err := s.db.Where("symbol = ?", symbol).First(&inst).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &inst, nil
}

// GinHandlers contains HTTP handlers for instrument endpoints
type GinHandlers struct {
	service *Service
}

func NewGinHandlers(service *Service) *GinHandlers {
	return &GinHandlers{service: service}
}

// ListHandler handles GET requests for the instrument universe
func (h *GinHandlers) ListHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		instruments, err := h.service.ListActive()
		if err != nil {
			response.InternalError(c, err.Error())
			return
		}
		response.Success(c, instruments)
	}
}

// GetHandler handles GET requests for one instrument
func (h *GinHandlers) GetHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		inst, err := h.service.Get(strings.ToUpper(c.Param("symbol")))
		if err != nil {
			response.InternalError(c, err.Error())
			return
		}
		if inst == nil {
			response.NotFound(c, "Instrument not found")
			return
		}
		response.Success(c, inst)
	}
}
