package database

import (
	"campus_share_backend/internal/config"
	"campus_share_backend/internal/model"
	"fmt"
	"log"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func InitDB(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=%t&loc=Local",
		cfg.User,
		cfg.Password,
		cfg.Host,
		cfg.Port,
		cfg.DBName,
		cfg.Charset,
		cfg.ParseTime,
	)

	// TranslateError 把 MySQL 1062 映射为 gorm.ErrDuplicatedKey，
	// 去重竞态依赖这个判断
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
	})

	if err != nil {
		return nil, err
	}

	log.Println("Database connection established")

	if err := Migrate(db); err != nil {
		return nil, err
	}

	log.Println("Database migration completed")

	return db, nil
}

// Migrate creates/updates the schema, including the (course_unit_id, sha256)
// unique index that turns the concurrent-upload race into a caught insert error.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.User{},
		&model.Faculty{},
		&model.Program{},
		&model.CourseUnit{},
		&model.Resource{},
		&model.ResourceRating{},
		&model.ResourceBookmark{},
		&model.ResourceComment{},
		&model.ResourceDownloadEvent{},
		&model.Activity{},
	)
}
