package config

import (
	"os"

	"github.com/sirupsen/logrus"
)

// SetupLogger configures the global logrus logger for the app mode
func SetupLogger(cfg *Config) {
	logrus.SetOutput(os.Stdout)

	if cfg.IsProd() {
		logrus.SetFormatter(&logrus.JSONFormatter{})
		logrus.SetLevel(logrus.InfoLevel)
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
		logrus.SetLevel(logrus.DebugLevel)
	}

	if lvl, err := logrus.ParseLevel(os.Getenv("LOG_LEVEL")); err == nil {
		logrus.SetLevel(lvl)
	}
}
