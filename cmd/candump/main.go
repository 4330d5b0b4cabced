// cmd/candump/main.go
package main

import (
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"

	"github.com/tamzrod/canbridge/canbus"
	"github.com/tamzrod/canbridge/internal/config"

	// Linked-in backends. Importing a backend package is what registers it.
	_ "github.com/tamzrod/canbridge/canbus/slcan"
	_ "github.com/tamzrod/canbridge/canbus/socketcan"
	_ "github.com/tamzrod/canbridge/canbus/socketcand"
	_ "github.com/tamzrod/canbridge/canbus/usbcan"
	_ "github.com/tamzrod/canbridge/canbus/virtual"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatal("usage: candump <config.yaml>")
	}

	cfgPath := os.Args[1]

	// --------------------
	// Load + validate config
	// --------------------

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	if err := config.Validate(cfg); err != nil {
		log.Fatalf("config validation failed: %v", err)
	}

	config.Normalize(cfg)

	busCfg, err := config.BuildBus(cfg.Bus)
	if err != nil {
		log.Fatalf("config build failed: %v", err)
	}

	// --------------------
	// Open the bus
	// --------------------

	var opts canbus.Options
	if cfg.Dump.Debug {
		opts.Logger = slog.New(slog.NewTextHandler(os.Stderr, nil))
		opts.LogLevel = slog.LevelDebug
	}

	iface, err := canbus.NewWithOptions(busCfg, opts)
	if err != nil {
		log.Fatalf("bus open failed: %v", err)
	}
	defer iface.Close()

	name := cfg.Dump.Name

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)

	switch cfg.Dump.Mode {
	case "poll":
		runPoll(iface, name, interrupt)
	case "callback":
		runCallback(iface, name, interrupt)
	}
}

// runPoll prints frames from a synchronous Recv loop. Interrupt exits 0.
func runPoll(iface *canbus.Interface, name string, interrupt chan os.Signal) {
	go func() {
		<-interrupt
		os.Exit(0)
	}()

	for {
		msg, err := iface.Recv()
		if err != nil {
			log.Fatalf("recv failed: %v", err)
		}
		printFrame(msg, name)
	}
}

// runCallback prints frames from the notifier. Transport errors are logged;
// an unrecoverable one exits 1.
func runCallback(iface *canbus.Interface, name string, interrupt chan os.Signal) {
	fatal := make(chan error, 1)

	err := iface.RegisterRxCallback(
		func(msg *canbus.Message) {
			printFrame(msg, name)
		},
		func(err error) {
			log.Printf("bus error: %v", err)
			if !canbus.IsRecoverable(err) {
				select {
				case fatal <- err:
				default:
				}
			}
		},
	)
	if err != nil {
		log.Fatalf("callback registration failed: %v", err)
	}

	select {
	case <-interrupt:
		os.Exit(0)
	case err := <-fatal:
		log.Printf("unrecoverable bus error, exiting: %v", err)
		os.Exit(1)
	}
}

func printFrame(msg *canbus.Message, name string) {
	if msg.IsErrorFrame {
		fmt.Println(msg)
		return
	}
	fmt.Println(msg.DumpLine(name))
}
