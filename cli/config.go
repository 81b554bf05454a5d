package cli

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/netresearch/loadedhandler/config"
)

// ConfigShowCommand prints the effective, defaulted, validated
// configuration as JSON, adapted from the teacher's cli/config_show.go.
type ConfigShowCommand struct {
	ConfigFile string `long:"config" env:"LOADEDHANDLER_CONFIG" description:"Config file path" default:"/etc/loadedhandler/config.ini"`
	LogLevel   string `long:"log-level" env:"LOADEDHANDLER_LOG_LEVEL" description:"Log level (trace,debug,info,warn,error)"`

	Logger   *slog.Logger
	LevelVar *slog.LevelVar
}

// Execute loads the config file and writes it to stdout as JSON.
func (c *ConfigShowCommand) Execute(_ []string) error {
	if err := ApplyLogLevel(c.LogLevel, c.LevelVar); err != nil {
		return err
	}

	file, err := config.Load(c.ConfigFile)
	if err != nil {
		c.Logger.Error(fmt.Sprintf("could not load config: %v", err))
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(file.Handlers)
}
