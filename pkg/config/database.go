package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"launchpad/internal/models"
)

var DB *gorm.DB

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// DatabaseDSN builds the postgres DSN from DB_* variables.
func DatabaseDSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=%s",
		os.Getenv("DB_HOST"),
		os.Getenv("DB_USER"),
		os.Getenv("DB_PASSWORD"),
		os.Getenv("DB_NAME"),
		getenv("DB_PORT", "5432"),
		getenv("DB_SSLMODE", "disable"),
		getenv("DB_TIMEZONE", "UTC"),
	)
}

// MigrationURL is the golang-migrate form of the same connection.
func MigrationURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		os.Getenv("DB_USER"),
		os.Getenv("DB_PASSWORD"),
		os.Getenv("DB_HOST"),
		getenv("DB_PORT", "5432"),
		os.Getenv("DB_NAME"),
		getenv("DB_SSLMODE", "disable"),
	)
}

// curveModels are the tables owned by the curve market.
var curveModels = []interface{}{
	&models.TokenCurve{},
	&models.CurveHolder{},
	&models.CurveTrade{},
	&models.CurveGraduation{},
	&models.CurveSnapshot{},
}

// InitDB initializes the database connection
func InitDB() {
	db, err := gorm.Open(postgres.Open(DatabaseDSN()), &gorm.Config{
		// unique violations surface as gorm.ErrDuplicatedKey
		TranslateError: true,
	})
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		log.Fatal("Failed to get database instance:", err)
	}

	sqlDB.SetMaxIdleConns(50)           // 设置空闲连接池中的最大连接数
	sqlDB.SetMaxOpenConns(200)          // 设置打开数据库连接的最大数量
	sqlDB.SetConnMaxLifetime(time.Hour) // 设置连接可复用的最大时间

	DB = db

	if os.Getenv("DB_AUTO_MIGRATE") == "true" {
		if err := DB.AutoMigrate(curveModels...); err != nil {
			log.Fatal("Failed to migrate database:", err)
		}
	}
}
