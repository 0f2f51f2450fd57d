package migrations

import (
	"log"

	"food_order/internal/models"

	"gorm.io/gorm"
)

// RunMigrations creates the schema and seeds the catalog when it is empty.
func RunMigrations(db *gorm.DB) error {
	log.Println("Running database migrations...")

	err := db.AutoMigrate(
		&models.MenuItem{},
		&models.Order{},
		&models.OrderItem{},
	)
	if err != nil {
		return err
	}

	if err := seedMenu(db); err != nil {
		log.Printf("Warning: Failed to seed menu items: %v", err)
	}

	log.Println("Database migrations completed successfully!")
	return nil
}

// seedMenu inserts a starter menu so a fresh install can take orders. Menu
// management itself belongs to the catalog service, not this one.
func seedMenu(db *gorm.DB) error {
	var count int64
	if err := db.Model(&models.MenuItem{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	log.Println("Seeding menu items...")
	items := []models.MenuItem{
		{Name: "Margherita Pizza", Description: "Tomato, mozzarella, basil", Price: 12.99, Category: "Pizza", Available: true},
		{Name: "Pepperoni Pizza", Description: "Pepperoni, mozzarella, tomato sauce", Price: 14.99, Category: "Pizza", Available: true},
		{Name: "Caesar Salad", Description: "Romaine, parmesan, croutons", Price: 8.99, Category: "Salads", Available: true},
		{Name: "Garlic Bread", Description: "Toasted baguette with garlic butter", Price: 4.99, Category: "Sides", Available: true},
		{Name: "Tiramisu", Description: "Coffee-soaked ladyfingers, mascarpone", Price: 6.99, Category: "Desserts", Available: true},
		{Name: "Lemonade", Description: "Fresh squeezed, 400ml", Price: 2.99, Category: "Drinks", Available: true},
	}
	return db.Create(&items).Error
}
