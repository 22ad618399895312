package main

import (
	"context"
	"log"
	"os"
	"strings"

	"github.com/mkazakovs/entrypack/internal/cli"
	"github.com/mkazakovs/entrypack/internal/config"
)

func main() {
	cfg := config.LoadConfig()
	app, err := cli.NewApp(cfg)
	if err != nil {
		log.Fatalf("%v", err)
	}
	defer app.Close()

	// config flags are consumed by the loader; the rest is the subcommand
	args := subcommandArgs(os.Args[1:])
	if err := app.Run(context.Background(), args); err != nil {
		log.Fatalf("%v", err)
	}
}

// subcommandArgs strips the config-loader flags and their values, leaving
// only the subcommand words.
func subcommandArgs(args []string) []string {
	consumed := map[string]bool{"-c": true, "-config": true, "-d": true, "-p": true, "-b": true, "-r": true}

	var rest []string
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if strings.Contains(arg, "=") && consumed[strings.SplitN(arg, "=", 2)[0]] {
			continue
		}
		if consumed[arg] {
			if i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
				i++
			}
			continue
		}
		rest = append(rest, arg)
	}
	return rest
}
