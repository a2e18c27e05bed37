package accounts

import (
	"errors"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/pcell62/Intelligent-Order-Parameter-Prefill/internal/types"
	"github.com/pcell62/Intelligent-Order-Parameter-Prefill/pkg/response"
)

// Service exposes client trading accounts.
type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// List returns active accounts, optionally filtered by client, with each
// client's default account first.
func (s *Service) List(clientID string) ([]types.Account, error) {
	query := s.db.Where("is_active = ?", true)
	if clientID != "" {
		query = query.Where("client_id = ?", clientID).
			Order("is_default DESC, account_name ASC")
	} else {
		query = query.Order("client_id ASC, is_default DESC, account_name ASC")
	}

	var accounts []types.Account
	err := query.Find(&accounts).Error
	return accounts, err
}

func (s *Service) Get(accountID string) (*types.Account, error) {
	var account types.Account
	if err := s.db.Where("account_id = ?", accountID).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &account, nil
}

// GinHandlers contains HTTP handlers for account endpoints
type GinHandlers struct {
	service *Service
}

func NewGinHandlers(service *Service) *GinHandlers {
	return &GinHandlers{service: service}
}

// ListHandler handles GET requests for accounts, filterable by client_id
func (h *GinHandlers) ListHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		accounts, err := h.service.List(c.Query("client_id"))
		if err != nil {
			response.InternalError(c, err.Error())
			return
		}
		response.Success(c, accounts)
	}
}

// GetHandler handles GET requests for one account
func (h *GinHandlers) GetHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		account, err := h.service.Get(c.Param("account_id"))
		if err != nil {
			response.InternalError(c, err.Error())
			return
		}
		if account == nil {
			response.NotFound(c, "Account not found")
			return
		}
		response.Success(c, account)
	}
}
