package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/jessevdk/go-flags"
	"github.com/webriots/symcoro/internal/demo"

	log "github.com/sirupsen/logrus"
)

type options struct {
	LogLevel string `long:"log-level" default:"info" description:"log level"`
}

type pingPongCommand struct {
	Rounds int `long:"rounds" default:"5" description:"values the worker yields before exiting"`
	Start  int `long:"start" default:"100" description:"first counter value main sends"`
}

func (c *pingPongCommand) Execute([]string) error {
	ctx, stop := signalContext()
	defer stop()

	counter, _, err := demo.PingPong(ctx, log.StandardLogger(), c.Rounds, c.Start)
	if err != nil {
		return err
	}
	fmt.Println(counter)
	return nil
}

type ringCommand struct {
	Laps int `long:"laps" default:"3" description:"full trips of the token around the ring"`
}

func (c *ringCommand) Execute([]string) error {
	ctx, stop := signalContext()
	defer stop()

	count, _, err := demo.Ring(ctx, log.StandardLogger(), c.Laps)
	if err != nil {
		return err
	}
	fmt.Println(count)
	return nil
}

func main() {
	var opts options
	parser := flags.NewParser(&opts, flags.Default)

	mustAddCommand(parser, "ping-pong", "Two coroutines trading values",
		"A worker coroutine yields a sequence to main, which answers with a counter.", &pingPongCommand{})
	mustAddCommand(parser, "ring", "Three coroutines passing a counter",
		"A token travels a -> b -> c -> a for the given number of laps.", &ringCommand{})

	parser.CommandHandler = func(cmd flags.Commander, args []string) error {
		setLogLevel(opts.LogLevel)
		return cmd.Execute(args)
	}

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}
}

func mustAddCommand(parser *flags.Parser, name, short, long string, data any) {
	if _, err := parser.AddCommand(name, short, long, data); err != nil {
		log.WithError(err).Fatal("Failed to register command: ", name)
	}
}

func setLogLevel(logLevel string) {
	level, err := log.ParseLevel(strings.ToLower(logLevel))
	if err != nil {
		log.WithError(err).Fatal("Failed to set log level. Valid log levels are:", log.AllLevels)
	}
	log.SetLevel(level)
}

// signalContext is canceled on SIGINT or SIGTERM, which unblocks any
// pending handoff.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
