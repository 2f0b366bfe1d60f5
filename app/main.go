package main

import (
	"log/slog"
	"os"

	"github.com/jessevdk/go-flags"

	"github.com/mibuhand/ai-news-direct/app/cfg"
)

func main() {
	var opts cfg.Options

	parser := flags.NewParser(&opts, flags.Default)
	parser.SubcommandsOptional = false
	parser.CommandHandler = func(command flags.Commander, args []string) error {
		setupLogging(opts.Debug)
		return command.Execute(args)
	}

	registerCommands(parser, &opts)

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			return
		}
		// go-flags has already printed parse errors.
		if _, ok := err.(*flags.Error); !ok {
			slog.Error("Command failed", "error", err)
		}
		os.Exit(1)
	}
}

func setupLogging(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}
