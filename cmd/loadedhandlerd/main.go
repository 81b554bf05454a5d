// Command loadedhandlerd is the reference Host daemon for the Loaded
// Handler engine, adapted from the teacher's ofelia.go entrypoint.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/jessevdk/go-flags"
	ini "gopkg.in/ini.v1"

	"github.com/netresearch/loadedhandler/cli"
	"github.com/netresearch/loadedhandler/logging"
)

func main() {
	var pre struct {
		LogLevel   string `long:"log-level"`
		ConfigFile string `long:"config" default:"/etc/loadedhandler/config.ini"`
	}
	args := os.Args[1:]
	preParser := flags.NewParser(&pre, flags.IgnoreUnknown)
	_, _ = preParser.ParseArgs(args)

	if pre.LogLevel == "" {
		cfg, err := ini.LoadSources(ini.LoadOptions{AllowShadows: true, InsensitiveKeys: true}, pre.ConfigFile)
		if err == nil {
			if sec, err := cfg.GetSection("global"); err == nil {
				pre.LogLevel = sec.Key("log-level").String()
			}
		}
	}

	logger, levelVar := logging.BuildLogger(pre.LogLevel)

	parser := flags.NewNamedParser("loadedhandlerd", flags.Default)
	_, _ = parser.AddCommand(
		"daemon",
		"run the daemon process",
		"",
		&cli.DaemonCommand{Logger: logger, LevelVar: levelVar, LogLevel: pre.LogLevel, ConfigFile: pre.ConfigFile},
	)
	_, _ = parser.AddCommand(
		"validate",
		"validate the config file",
		"",
		&cli.ValidateCommand{Logger: logger, LevelVar: levelVar, LogLevel: pre.LogLevel, ConfigFile: pre.ConfigFile},
	)
	_, _ = parser.AddCommand(
		"config",
		"show the effective runtime configuration",
		"",
		&cli.ConfigShowCommand{Logger: logger, LevelVar: levelVar, LogLevel: pre.LogLevel, ConfigFile: pre.ConfigFile},
	)

	if _, err := parser.ParseArgs(args); err != nil {
		if flags.WroteHelp(err) {
			return
		}

		var flagErr *flags.Error
		if errors.As(err, &flagErr) {
			parser.WriteHelp(os.Stdout)
			_, _ = fmt.Fprintln(os.Stdout)
		}

		logger.Error("command failed to execute")
		return
	}
}
