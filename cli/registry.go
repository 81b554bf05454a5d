package cli

import (
	"github.com/netresearch/loadedhandler/handler"
	"github.com/netresearch/loadedhandler/logging"
	"github.com/netresearch/loadedhandler/plugin"
	"github.com/netresearch/loadedhandler/plugin/counting"
)

// defaultRegistry registers every handler type shipped with this module.
// Operators embedding the daemon in their own Host supply their own
// *plugin.Registry via DaemonCommand.Registry instead.
func defaultRegistry() *plugin.Registry {
	r := plugin.NewRegistry()
	r.Register("Counting", func() plugin.HandlerPlugin { return counting.New() })
	return r
}

func handlerLogger(level string) handler.Logger {
	return logging.NewHandlerLogger(level)
}
