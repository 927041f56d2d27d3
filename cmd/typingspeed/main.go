package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/0xProject/typing-speed/internal/speed"
	"github.com/0xProject/typing-speed/internal/status"
	"github.com/0xProject/typing-speed/internal/typingspeed"
	"github.com/carlmjohnson/flowmatic"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

func main() {
	c, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	debugLogEnabled := os.Getenv("DEBUG") == "true"
	logLevel := zap.WarnLevel
	if debugLogEnabled {
		logLevel = zap.DebugLevel
	}
	zapConfig := zap.NewProductionConfig()
	zapConfig.Level = zap.NewAtomicLevelAt(logLevel)
	logger, _ := zapConfig.Build()

	// We replace the global logger with this initialized here for simplyfication.
	// Do see: https://github.com/uber-go/zap/blob/master/FAQ.md#why-include-package-global-loggers
	// ref: https://pkg.go.dev/go.uber.org/zap?utm_source=godoc#ReplaceGlobals
	//
	zap.ReplaceGlobals(logger)
	defer func() {
		_ = logger.Sync() // flushes buffer, if any
	}()

	app := &cli.App{
		Name:  "typing-speed",
		Usage: "Measures typing speed from keystroke events.",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "config",
				Usage: "The configuration file path.",
			},
			&cli.StringFlag{
				Name:  "display",
				Usage: "Rate unit to display: cpm or wpm.",
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "serve",
				Usage: "Accept keystrokes over HTTP and show the speed on stderr.",
				Action: func(cc *cli.Context) error {
					config, err := loadConfig(cc)
					if err != nil {
						return err
					}

					service, err := typingspeed.NewTypingSpeed(*config, status.NewWriterSurface(os.Stderr))
					if err != nil {
						return errors.Wrap(err, "typing-speed failed")
					}

					c, cancel := context.WithCancel(c)
					defer cancel()

					return flowmatic.Do(
						func() error {
							defer cancel()

							return errors.Wrap(service.Start(c), "cannot start a service")
						},
						func() error {
							<-c.Done()

							return errors.Wrap(service.Stop(context.Background()), "cannot stop a service")
						},
					)
				},
			},
			{
				Name:      "replay",
				Usage:     "Replay a keystroke log (one unix millisecond timestamp per line).",
				ArgsUsage: "<file|->",
				Action: func(cc *cli.Context) error {
					config, err := loadConfig(cc)
					if err != nil {
						return err
					}

					var log io.Reader = os.Stdin
					if path := cc.Args().First(); path != "" && path != "-" {
						f, err := os.Open(path)
						if err != nil {
							return errors.Wrap(err, "cannot open keystroke log")
						}
						defer f.Close()

						log = f
					}

					reading, err := typingspeed.Replay(c, *config, log, os.Stdout)
					if err != nil {
						return err
					}

					fmt.Fprintf(os.Stdout, "%s over %d keystrokes\n", reading.Text, reading.Events)

					return nil
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		_ = logger.Sync()
		stop()
		os.Exit(1)
	}
}

func loadConfig(cc *cli.Context) (*typingspeed.Config, error) {
	var (
		config *typingspeed.Config
		err    error
	)

	if path := cc.String("config"); path != "" {
		config, err = typingspeed.NewTypingSpeedConfigFromFile(path)
	} else {
		config, err = typingspeed.NewTypingSpeedConfigFromBytes(nil)
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to get config")
	}

	if display := cc.String("display"); display != "" {
		unit, err := speed.ParseUnit(display)
		if err != nil {
			return nil, err
		}
		config.Display = unit
	}

	return config, nil
}
