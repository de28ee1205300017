package main

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/newthinker/goldencross/internal/config"
	"github.com/newthinker/goldencross/internal/logger"
)

// loadConfig reads the config file, or defaults plus environment when none
// was given
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	level := cfg.Log.Level
	if debug {
		level = "debug"
	}
	log, err := logger.New(debug || cfg.Log.Development, level)
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}
	return log, nil
}
