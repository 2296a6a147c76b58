package main

import (
	"fmt"
	"os"

	"github.com/trezcool/peerfeedback/core"
	"github.com/trezcool/peerfeedback/services/logger"
)

// build is set at link time: -ldflags "-X main.build=..."
var build = "dev"

func main() {
	conf, err := core.NewConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	zl, closeLog, err := logsvc.NewZapLogger(conf.LogFile, conf.Debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	logger := logsvc.NewRollbarLogger(zl, conf, build)

	cli := newCommandLine(conf, logger, os.Stdin, os.Stdout)
	err = cli.run(os.Args)

	logger.Close()
	_ = closeLog()
	if err != nil {
		if err != errHelp {
			fmt.Fprintf(os.Stderr, "\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}
