package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
)

const configFilePath = "./configs/config.yaml"

type command struct {
	name  string
	usage string
	run   func(ctx context.Context, args []string) error
}

var commands = []command{
	{"serve", "run the HTTP API and serve the web UI", runServe},
	{"ingest", "ingest PDF/DOCX files into the chunk table", runIngest},
	{"ask", "answer a question from the stored chunks", runAsk},
	{"related", "suggest follow-up questions", runRelated},
	{"export", "write the chunk table to a chromem snapshot", runExport},
	{"watch", "ingest files dropped into a folder", runWatch},
	{"chat", "interactive terminal chat", runChat},
	{"stats", "show stored chunks per file", runStats},
	{"reset", "drop and recreate the chunk table", runReset},
}

func usage() {
	fmt.Fprintf(os.Stderr, "usage: %s <command> [flags]\n\ncommands:\n", os.Args[0])
	for _, c := range commands {
		fmt.Fprintf(os.Stderr, "  %-8s %s\n", c.name, c.usage)
	}
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	name := os.Args[1]
	for _, c := range commands {
		if c.name != name {
			continue
		}
		if err := c.run(ctx, os.Args[2:]); err != nil {
			log.Error().Err(err).Str("command", name).Msg("Command failed")
			stop()
			os.Exit(1)
		}
		return
	}

	if name != "-h" && name != "--help" && name != "help" {
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", name)
	}
	usage()
	os.Exit(2)
}
