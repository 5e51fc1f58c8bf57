package repo

import (
	"gorm.io/gorm"

	"github.com/apexscan/apex-scanner/internal/entity"
)

func InitTables(db *gorm.DB) error {
	return db.AutoMigrate(&entity.Alert{})
}
