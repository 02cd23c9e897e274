package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spacecrew/btscan/pkg/discovery"
	"github.com/spacecrew/btscan/pkg/platform"
)

var (
	ErrCommandLineArgs = errors.New("invalid command line arguments")
	ErrUnknownCommand  = errors.New("unrecognized command")
	ErrUnknownDevice   = errors.New("no such device in the last scan")
)

type Argument struct {
	name string
	help string
}

// app is the state shared by command handlers.
type app struct {
	tracker *discovery.Tracker
	out     io.Writer
}

type Handler func(ctx context.Context, a *app, args map[string]string) error

type Command struct {
	help     string
	args     []Argument
	optional []Argument
	handler  Handler
}

func execute(ctx context.Context, a *app, args []string) error {
	if len(args) == 0 {
		return errors.New("missing COMMAND")
	}

	info, ok := commands[args[0]]
	if !ok {
		return ErrUnknownCommand
	}

	var err error
	if len(args)-1 < len(info.args) || len(args)-1 > len(info.args)+len(info.optional) {
		writeErr("Invalid number of command line arguments: %d (%d required, %d optional).", len(args)-1, len(info.args), len(info.optional))
		err = ErrCommandLineArgs
	} else {
		keywords := make(map[string]string)
		for i, argInfo := range info.args {
			keywords[argInfo.name] = args[i+1]
		}
		index := len(info.args) + 1
		for _, argInfo := range info.optional {
			if index >= len(args) {
				break
			}
			keywords[argInfo.name] = args[index]
			index++
		}
		err = info.handler(ctx, a, keywords)
	}

	// Print command-specific help
	if errors.Is(err, ErrCommandLineArgs) {
		info.Usage(args[0])
	}
	return err
}

func (c *Command) Usage(name string) {
	fmt.Printf("Usage: %s", name)
	maxLength := 0
	for _, arg := range c.args {
		fmt.Printf(" %s", arg.name)
		maxLength = max(maxLength, len(arg.name))
	}
	if len(c.optional) > 0 {
		fmt.Printf(" [")
	}
	for _, arg := range c.optional {
		fmt.Printf(" %s", arg.name)
		maxLength = max(maxLength, len(arg.name))
	}
	if len(c.optional) > 0 {
		fmt.Printf(" ]")
	}
	fmt.Printf("\n%s\n", c.help)
	maxLength++
	for _, arg := range c.args {
		fmt.Printf("    %s:%s%s\n", arg.name, strings.Repeat(" ", maxLength-len(arg.name)), arg.help)
	}
	for _, arg := range c.optional {
		fmt.Printf("    %s:%s%s\n", arg.name, strings.Repeat(" ", maxLength-len(arg.name)), arg.help)
	}
}

// followScan waits until the current scan has finished and every name is settled, the scan is
// interrupted, or ctx expires. It returns the last snapshot seen.
func followScan(ctx context.Context, tracker *discovery.Tracker) (discovery.Snapshot, error) {
	updates, stop := tracker.Watch()
	defer stop()

	var snap discovery.Snapshot
	for {
		select {
		case next, ok := <-updates:
			if !ok {
				return snap, discovery.ErrClosed
			}
			snap = next
			if snap.Err != nil {
				return snap, snap.Err
			}
			if snap.Settled() {
				return snap, nil
			}
		case <-ctx.Done():
			return snap, ctx.Err()
		}
	}
}

var commands = map[string]*Command{
	"scan": &Command{
		help: "Scan for devices and list them once every name is known",
		handler: func(ctx context.Context, a *app, args map[string]string) error {
			if err := a.tracker.StartScan(ctx); err != nil {
				return err
			}
			snap, err := followScan(ctx, a.tracker)
			printDevices(a.out, snap)
			if errors.Is(err, context.DeadlineExceeded) {
				fmt.Fprintln(a.out, "Scan still in progress; run devices to see updates.")
				return nil
			}
			return err
		},
	},
	"devices": &Command{
		help: "List devices found by the last scan",
		handler: func(ctx context.Context, a *app, args map[string]string) error {
			printDevices(a.out, a.tracker.Snapshot())
			return nil
		},
	},
	"state": &Command{
		help: "Show the state of the last scan",
		handler: func(ctx context.Context, a *app, args map[string]string) error {
			printState(a.out, a.tracker.Snapshot())
			return nil
		},
	},
	"connect": &Command{
		help: "Connect to a device found by the last scan",
		args: []Argument{
			Argument{name: "ADDRESS", help: "device address, as listed by devices"},
		},
		handler: func(ctx context.Context, a *app, args map[string]string) error {
			address := strings.ToUpper(args["ADDRESS"])
			for _, device := range a.tracker.Devices() {
				if strings.ToUpper(device.Address) == address {
					return fmt.Errorf("cannot connect to %s: %w", device.DisplayName, platform.ErrNotSupported)
				}
			}
			return fmt.Errorf("%w: %s", ErrUnknownDevice, args["ADDRESS"])
		},
	},
}
