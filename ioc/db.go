package ioc

import (
	"github.com/spf13/viper"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func InitDB() *gorm.DB {
	type Config struct {
		Dsn string `mapstructure:"dsn"`
	}

	cfg := Config{Dsn: "apex.db"}
	if err := viper.UnmarshalKey("db.sqlite", &cfg); err != nil {
		panic(err)
	}

	db, err := gorm.Open(sqlite.Open(cfg.Dsn), &gorm.Config{})
	if err != nil {
		panic(err)
	}
	return db
}
