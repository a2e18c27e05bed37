package clients

import (
	"errors"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/pcell62/Intelligent-Order-Parameter-Prefill/internal/types"
	"github.com/pcell62/Intelligent-Order-Parameter-Prefill/pkg/response"
)

// Service exposes client records and their trading limits.
type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

func (s *Service) List() ([]types.Client, error) {
	var clients []types.Client
	err := s.db.Order("client_id ASC").Find(&clients).Error
	return clients, err
}

func (s *Service) Get(clientID string) (*types.Client, error) {
	var client types.Client
	if err := s.db.Where("client_id = ?", clientID).First(&client).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &client, nil
}

// GinHandlers contains HTTP handlers for client endpoints
type GinHandlers struct {
	service *Service
}

func NewGinHandlers(service *Service) *GinHandlers {
	return &GinHandlers{service: service}
}

// ListHandler handles GET requests for all clients
func (h *GinHandlers) ListHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		clients, err := h.service.List()
		if err != nil {
			response.InternalError(c, err.Error())
			return
		}
		response.Success(c, clients)
	}
}

// GetHandler handles GET requests for one client
func (h *GinHandlers) GetHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		client, err := h.service.Get(c.Param("client_id"))
		if err != nil {
			response.InternalError(c, err.Error())
			return
		}
		if client == nil {
			response.NotFound(c, "Client not found")
			return
		}
		response.Success(c, client)
	}
}
