package database

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm/logger"
)

// zerologWriter 实现 logger.Writer，把 GORM 日志转给 zerolog
type zerologWriter struct {
	log zerolog.Logger
}

func (w zerologWriter) Printf(format string, args ...interface{}) {
	w.log.Debug().Msg(fmt.Sprintf(format, args...))
}

// NewGormLogger 创建写入 zerolog 的 GORM 日志
func NewGormLogger(log zerolog.Logger, level logger.LogLevel) logger.Interface {
	return logger.New(
		zerologWriter{log: log.With().Str("component", "gorm").Logger()},
		logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  level,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
}
