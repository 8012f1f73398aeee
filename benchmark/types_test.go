package benchmark

import (
	"io"
	"log/slog"

	"github.com/danpasecinic/stitch"
)

type Config struct {
	Host string
	Port int
}

type Logger struct {
	Level string
}

type Database struct {
	Config *Config `inject:""`
	Logger *Logger `inject:""`
}

type Cache struct {
	Logger *Logger `inject:""`
}

type Repository struct {
	DB    *Database `inject:""`
	Cache *Cache    `inject:""`
}

type Service struct {
	Repo   *Repository `inject:""`
	Logger *Logger     `inject:""`
}

type Request struct {
	Service *Service `inject:""`
}

func newConfig() *Config { return &Config{Host: "localhost", Port: 8080} }

func newLogger() *Logger { return &Logger{Level: "info"} }

func quiet() stitch.Option {
	return stitch.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func bindChain(c *stitch.Container, lifestyle stitch.Lifestyle) {
	_ = stitch.BindSelf[*Config](c, stitch.Singleton, stitch.WithConstructors(newConfig))
	_ = stitch.BindSelf[*Logger](c, stitch.Singleton, stitch.WithConstructors(newLogger))
	_ = stitch.BindSelf[*Database](c, lifestyle)
	_ = stitch.BindSelf[*Cache](c, lifestyle)
	_ = stitch.BindSelf[*Repository](c, lifestyle)
	_ = stitch.BindSelf[*Service](c, lifestyle)
}
