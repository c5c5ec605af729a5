// Command redis-server boots the storage engine, the snapshot manager,
// and the TCP listener (spec.md §4.11/§6's CLI surface). Grounded on the
// teacher's cmd/main.go bootstrap sequence (banner, logger.Setup,
// config.SetupConfig, tcp.ListenAndServeWithSignal), adapted to this
// core's DatabaseSet/persist.Manager/redis/server.Handler instead of
// godis's cluster-aware Server and AOF-backed persistence.
package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/NozeIO/redi-s/config"
	"github.com/NozeIO/redi-s/lib/logger"
	"github.com/NozeIO/redi-s/persist"
	"github.com/NozeIO/redi-s/redis/server"
)

const helpText = `Usage: redis-server [-p port] [-h]
  -p, --port <n>   listen on port n (1-65535)
  -h, --help       print this help and exit
`

// cliOverrides holds the subset of config.Properties a command-line flag
// can override; zero-value port means "no override".
type cliOverrides struct {
	port int
}

func parseArgs(args []string) cliOverrides {
	var overrides cliOverrides
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "-h", "--help":
			fmt.Print(helpText)
			os.Exit(0)
		case "-p", "--port":
			if i+1 >= len(args) {
				os.Exit(42)
			}
			i++
			n, err := strconv.Atoi(args[i])
			if err != nil || n < 1 || n > 65535 {
				os.Exit(42)
			}
			overrides.port = n
		default:
			os.Exit(42)
		}
	}
	return overrides
}

func main() {
	overrides := parseArgs(os.Args[1:])

	config.Setup(os.Getenv("CONFIG"))
	if overrides.port != 0 {
		config.Properties.Port = overrides.port
	}

	logger.Setup(&logger.Settings{
		Path: config.Properties.LogDir,
		Name: "redi-s",
		Ext:  "log",
	})

	pid := os.Getpid()
	logger.Banner(fmt.Sprintf("redi-s listening on port %d (pid %d)", config.Properties.Port, pid))

	savePoints := config.Properties.SavePoints()
	dumpPath := config.Properties.DumpPath()

	var mgr *persist.Manager
	onSavePoint := func(delay time.Duration) {
		if mgr != nil {
			mgr.ScheduleSave(delay)
		}
	}

	set := persist.Load(dumpPath, savePoints, onSavePoint)
	mgr = persist.NewManager(dumpPath, set, savePoints)
	mgr.Start()
	set.SetPersistenceHooks(mgr.SaveSync, mgr.SaveAsync, mgr.LastSaveAt)

	handler := server.MakeHandler(set)
	address := fmt.Sprintf("%s:%d", config.Properties.Bind, config.Properties.Port)

	onShutdown := func() {
		if err := mgr.SaveSync(); err != nil {
			logger.Error("save on shutdown failed: " + err.Error())
		}
		mgr.Stop()
	}

	if err := server.ListenAndServeWithSignal(address, handler, onShutdown); err != nil {
		logger.Error(err)
		os.Exit(1)
	}
	os.Exit(0)
}
