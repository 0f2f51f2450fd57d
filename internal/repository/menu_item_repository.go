package repository

import (
	"errors"

	"food_order/internal/models"

	"gorm.io/gorm"
)

var ErrMenuItemNotFound = errors.New("menu item not found")

// MenuItemRepository is the read-only catalog lookup used when pricing
// orders. Menu management is handled elsewhere.
type MenuItemRepository interface {
	GetByID(id uint) (*models.MenuItem, error)
	GetAll() ([]models.MenuItem, error)
}

type menuItemRepository struct {
	db *gorm.DB
}

func NewMenuItemRepository(db *gorm.DB) MenuItemRepository {
	return &menuItemRepository{db: db}
}

func (r *menuItemRepository) GetByID(id uint) (*models.MenuItem, error) {
	var item models.MenuItem
	err := r.db.First(&item, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMenuItemNotFound
		}
		return nil, err
	}
	return &item, nil
}

func (r *menuItemRepository) GetAll() ([]models.MenuItem, error) {
	var items []models.MenuItem
	err := r.db.Find(&items).Error
	return items, err
}
