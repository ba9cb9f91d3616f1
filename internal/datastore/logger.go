// logger.go: GORM logger configuration
package datastore

import (
	"log"
	"os"
	"time"

	gormlogger "gorm.io/gorm/logger"
)

// createGormLogger returns a GORM logger that stays quiet in normal
// operation and logs full SQL when debug mode is on. Slow query warnings
// are always enabled.
func createGormLogger(debug bool) gormlogger.Interface {
	level := gormlogger.Error
	if debug {
		level = gormlogger.Info
	}

	return gormlogger.New(
		log.New(os.Stderr, "\r\n", log.LstdFlags),
		gormlogger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  level,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
}
