package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/lecturacritica/tutor-api/config"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Init configures the global zerolog logger. Development gets a console writer,
// other environments log JSON to stdout. LOG_FILE adds a rotating file sink.
func Init(cfg *config.Config) {
	zerolog.TimeFieldFormat = time.RFC3339

	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Log.Level))
	if err != nil || cfg.Log.Level == "" {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	var stdout io.Writer = os.Stdout
	if cfg.Server.Env == "development" {
		stdout = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: "15:04:05"}
	}

	writers := []io.Writer{stdout}
	if cfg.Log.File != "" {
		writers = append(writers, &lumberjack.Logger{
			Filename:   cfg.Log.File,
			MaxSize:    100,
			MaxBackups: 5,
			MaxAge:     30,
			Compress:   true,
		})
	}

	log.Logger = zerolog.New(zerolog.MultiLevelWriter(writers...)).
		With().
		Timestamp().
		Str("service", "tutor-api").
		Logger()

	log.Info().Str("level", level.String()).Bool("file_sink", cfg.Log.File != "").Msg("Logger initialized")
}
