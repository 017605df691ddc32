package main

import (
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"

	"github.com/kelseyhightower/envconfig"
	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v2"

	"github.com/mit-pdos/nufs/util"
)

const (
	envVarPrefix = "NUFS"
	appName      = "nufs"
)

type Config struct {
	Image      string `envconfig:"IMAGE"       yaml:"image"`
	Mountpoint string `envconfig:"MOUNTPOINT"  yaml:"mountpoint"`
	DebugLevel uint64 `envconfig:"DEBUG_LEVEL" yaml:"debugLevel"`
	LogLevel   string `envconfig:"LOG_LEVEL"   yaml:"logLevel"`
	FuseDebug  bool   `envconfig:"FUSE_DEBUG"  yaml:"fuseDebug"`
	AllowOther bool   `envconfig:"ALLOW_OTHER" yaml:"allowOther"`
}

func defaultConfigFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", appName+".yaml")
}

// LoadConfig reads the optional YAML config file, then lets the environment
// override it.
func LoadConfig() (*Config, error) {
	configFile := os.Getenv(envVarPrefix + "_CONFIG_FILE")
	if configFile == "" {
		configFile = defaultConfigFile()
	}

	c := Config{LogLevel: "info"}
	if configFile != "" {
		data, err := ioutil.ReadFile(configFile)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("reading config file: %w", err)
			}
		} else if err := yaml.UnmarshalStrict(data, &c); err != nil {
			return nil, fmt.Errorf("unmarshaling config file: %w", err)
		}
	}

	if err := envconfig.Process(envVarPrefix, &c); err != nil {
		return nil, fmt.Errorf("parsing environment variables: %w", err)
	}
	return &c, nil
}

// SetupLogging applies the log level and the DPrintf debug level.
func (c *Config) SetupLogging() error {
	level, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	util.Debug = c.DebugLevel
	if c.DebugLevel > 0 && level < log.DebugLevel {
		level = log.DebugLevel
	}
	log.SetLevel(level)
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	return nil
}
