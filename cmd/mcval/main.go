package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/meenmo/mcval/cmd/mcval/internal/book"
	"github.com/meenmo/mcval/cmd/mcval/internal/option"
	"github.com/meenmo/mcval/cmd/mcval/internal/schedule"
	"github.com/meenmo/mcval/config"
	"github.com/meenmo/mcval/logger"
	"github.com/meenmo/mcval/valuation"
)

func main() {
	cfg := config.Load()
	config.SetConfig(cfg)
	logger.SetGlobalLogger(logger.New(logger.Config{Level: cfg.LogLevel, Pretty: cfg.LogPretty}))

	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		usage(stderr)
		return 2
	}

	switch strings.ToLower(strings.TrimSpace(args[0])) {
	case "european", "eu":
		return option.Run(valuation.European, args[1:], stdin, stdout, stderr)
	case "american", "am":
		return option.Run(valuation.American, args[1:], stdin, stdout, stderr)
	case "portfolio":
		return book.Run(args[1:], stdin, stdout, stderr)
	case "grid":
		return schedule.Run(args[1:], stdin, stdout, stderr)
	case "-h", "--help", "help":
		usage(stdout)
		return 0
	default:
		fmt.Fprintf(stderr, "unknown command %q\n\n", args[0])
		usage(stderr)
		return 2
	}
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "Usage: mcval <command> [options]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  european   Monte Carlo value and greeks of a European option")
	fmt.Fprintln(w, "  american   Longstaff-Schwartz value and greeks of an American option")
	fmt.Fprintln(w, "  portfolio  Statistics of a portfolio of options on correlated risk factors")
	fmt.Fprintln(w, "  grid       Simulation date grid")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run `mcval <command> -h` for command-specific help.")
}
