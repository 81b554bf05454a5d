package cli

import (
	"fmt"
	"log/slog"

	"github.com/netresearch/loadedhandler/config"
)

// ValidateCommand validates the config file without starting any handler,
// adapted from the teacher's cli/validate.go.
type ValidateCommand struct {
	ConfigFile string `long:"config" env:"LOADEDHANDLER_CONFIG" description:"Config file path" default:"/etc/loadedhandler/config.ini"`
	LogLevel   string `long:"log-level" env:"LOADEDHANDLER_LOG_LEVEL" description:"Log level (trace,debug,info,warn,error)"`

	Logger   *slog.Logger
	LevelVar *slog.LevelVar
}

// Execute loads and validates every [handler "name"] section.
func (c *ValidateCommand) Execute(_ []string) error {
	if err := ApplyLogLevel(c.LogLevel, c.LevelVar); err != nil {
		return err
	}

	file, err := config.Load(c.ConfigFile)
	if err != nil {
		c.Logger.Error(fmt.Sprintf("config invalid: %v", err))
		return err
	}

	c.Logger.Info(fmt.Sprintf("config valid: %d handler(s)", len(file.Handlers)))
	return nil
}
