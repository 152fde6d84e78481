package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/rs/zerolog/log"

	"github.com/jrsteele09/visitor-session/internal/config"
	"github.com/jrsteele09/visitor-session/internal/logging"
	"github.com/jrsteele09/visitor-session/mockapi"
	fakeuserrepo "github.com/jrsteele09/visitor-session/users/repofake"
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("Error running mock API")
	}
	log.Info().Msg("Mock API stopped")
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("Recovered from panic")
			debug.PrintStack()
			returnError = errors.New("panic recovered")
		}
	}()

	c := config.New()
	logging.Configure(c, os.Stderr)
	displayAppname("Mock API")

	api, err := newAPI(c)
	if err != nil {
		return err
	}
	server := &http.Server{Addr: c.GetPort(), Handler: api, ReadHeaderTimeout: 5 * time.Second}

	serveErr := make(chan error, 1)
	go func() { serveErr <- listenAndServe(server) }()

	select {
	case err := <-serveErr:
		return err
	case <-waitForStopSignal():
	}
	return shutdown(server)
}

func newAPI(c config.Config) (*mockapi.Server, error) {
	repo := fakeuserrepo.NewFakeUserRepo()
	if err := mockapi.SeedDemoAccounts(repo, time.Now()); err != nil {
		return nil, err
	}
	backend, err := mockapi.NewBackend(repo, c.GetMockJWTSecret(), c.GetMockTokenTTL())
	if err != nil {
		return nil, err
	}
	accounts, err := backend.Users().List(0, 0)
	if err != nil {
		return nil, err
	}
	for _, u := range accounts {
		log.Info().Str("email", u.Email).Str("role", string(u.Role)).Msg("demo account")
	}
	return mockapi.New(c, backend)
}

func listenAndServe(server *http.Server) error {
	log.Info().Str("addr", server.Addr).Msg("Mock API listening")
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server.ListenAndServe %w", err)
	}
	return nil
}

func waitForStopSignal() <-chan os.Signal {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	return stop
}

func shutdown(server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
