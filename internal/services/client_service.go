package services

import (
	"errors"

	"github.com/franciscosanchezn/gin-chat-auth/internal/models"
	"gorm.io/gorm"
)

var ErrClientNotFound = errors.New("client_not_found")

type ClientService interface {
	CreateClient(client *models.OAuthClient) error
	GetClientsByUserID(userID uint) ([]models.OAuthClient, error)
	GetClientByID(id string) (*models.OAuthClient, error)
	DeleteClient(clientID string, userID uint) error
	EnsurePublicClient(id, name, grantTypes string) (*models.OAuthClient, error)
}

type clientService struct {
	db *gorm.DB
}

func NewClientService(db *gorm.DB) ClientService {
	return &clientService{db: db}
}

func (s *clientService) CreateClient(client *models.OAuthClient) error {
	return s.db.Create(client).Error
}

func (s *clientService) GetClientsByUserID(userID uint) ([]models.OAuthClient, error) {
	var clients []models.OAuthClient
	if err := s.db.Where("user_id = ?", userID).Find(&clients).Error; err != nil {
		return nil, err
	}
	return clients, nil
}

func (s *clientService) GetClientByID(id string) (*models.OAuthClient, error) {
	var client models.OAuthClient
	if err := s.db.Where("id = ?", id).First(&client).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrClientNotFound
		}
		return nil, err
	}
	return &client, nil
}

func (s *clientService) DeleteClient(clientID string, userID uint) error {
	result := s.db.Where("id = ? AND user_id = ?", clientID, userID).Delete(&models.OAuthClient{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrClientNotFound
	}
	return nil
}

// EnsurePublicClient registers a first-party public client at startup if it
// is not there yet. Existing rows are left untouched.
func (s *clientService) EnsurePublicClient(id, name, grantTypes string) (*models.OAuthClient, error) {
	client := models.OAuthClient{
		ID:         id,
		Name:       name,
		GrantTypes: grantTypes,
		Public:     true,
	}
	if err := s.db.Where(models.OAuthClient{ID: id}).FirstOrCreate(&client).Error; err != nil {
		return nil, err
	}
	return &client, nil
}
