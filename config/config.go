package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"restaurant-pos-api/models"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

// JWTSecret used to sign tokens — read from env or fallback
var JWTSecret = []byte(getEnv("JWT_SECRET", "restaurant_pos_super_secret_2024"))

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// Port the HTTP server listens on.
func Port() string {
	return getEnv("PORT", "8080")
}

// AMQPURL is the broker address for the notification dispatcher; empty
// means no broker leg (local subscribers still work).
func AMQPURL() string {
	return os.Getenv("AMQP_URL")
}

// SweepInterval is how often the scheduled-order sweep runs.
func SweepInterval() time.Duration {
	seconds, err := strconv.Atoi(getEnv("SWEEP_INTERVAL_SECONDS", "60"))
	if err != nil || seconds <= 0 {
		return time.Minute
	}
	return time.Duration(seconds) * time.Second
}

func InitDB() {
	var err error
	DB, err = gorm.Open(sqlite.Open(getEnv("DB_PATH", "restaurant_pos.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	// Auto-migrate all models
	err = DB.AutoMigrate(
		&models.User{},
		&models.Customer{},
		&models.Restaurant{},
		&models.Table{},
		&models.Reservation{},
		&models.Product{},
		&models.Additive{},
		&models.RestaurantProduct{},
		&models.RestaurantAdditive{},
		&models.OrderAddOnDef{},
		&models.Order{},
		&models.OrderItem{},
		&models.OrderItemAdditive{},
		&models.OrderAddOn{},
		&models.Surcharge{},
		&models.Discount{},
		&models.DiscountProduct{},
		&models.DiscountApplication{},
		&models.Payment{},
		&models.OrderStatusHistory{},
		&models.BonusAccount{},
		&models.BonusTransaction{},
		&models.PersonalDiscount{},
	)
	if err != nil {
		log.Fatal("Failed to migrate database:", err)
	}

	log.Println("✅ Database connected and migrated successfully")
}
