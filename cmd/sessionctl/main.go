package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/common-nighthawk/go-figure"
	"github.com/rs/zerolog/log"

	"github.com/jrsteele09/visitor-session/internal/config"
	"github.com/jrsteele09/visitor-session/internal/logging"
)

const usage = `usage: sessionctl <command> [flags]

commands:
  login -email EMAIL -password PASSWORD
  whoami
  update-profile [-first-name NAME] [-last-name NAME] [-phone PHONE] [-avatar URL]
  logout
  can -role ROLE[,ROLE...]
`

func main() {
	if len(os.Args) < 2 || os.Args[1] == "-h" || os.Args[1] == "help" {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	c := config.New()
	logging.Configure(c, os.Stderr)
	if c.GetEnv() == "DEV" {
		displayAppname(c.GetAppName())
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := run(ctx, c, os.Args[1:], os.Stdout)
	switch {
	case err == nil:
	case errors.Is(err, errCommandFailed):
		os.Exit(1)
	case errors.Is(err, errUsage):
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	default:
		log.Error().Err(err).Msg("sessionctl failed")
		os.Exit(1)
	}
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
