package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/google/shlex"
	"golang.org/x/term"

	"github.com/spacecrew/btscan/internal/log"
	"github.com/spacecrew/btscan/pkg/cli"
	"github.com/spacecrew/btscan/pkg/discovery"
	"github.com/spacecrew/btscan/pkg/gate"
	"github.com/spacecrew/btscan/pkg/platform"
	"github.com/spacecrew/btscan/pkg/platform/tinygo"
)

func writeErr(format string, a ...interface{}) {
	fmt.Fprintf(os.Stderr, format, a...)
	fmt.Fprintf(os.Stderr, "\n")
}

const usage = `
 * Without a COMMAND, an interactive shell is started.
 * Device names that are not known when a device is found are polled until -name-timeout.`

func Usage() {
	fmt.Printf("Usage: %s [OPTION...] [COMMAND [ARG...]]\n", os.Args[0])
	fmt.Printf("\nRun %s help COMMAND for more information. Valid COMMANDs are listed below.", os.Args[0])
	fmt.Println("")
	fmt.Println(usage)
	fmt.Println("")

	fmt.Printf("Available OPTIONs:\n")
	flag.PrintDefaults()
	fmt.Println("")
	printCommands()
}

func printCommands() {
	fmt.Printf("Available COMMANDs:\n")
	maxLength := 0
	var labels []string
	for command := range commands {
		labels = append(labels, command)
		maxLength = max(maxLength, len(command))
	}
	sort.Strings(labels)
	for _, command := range labels {
		info := commands[command]
		fmt.Printf("  %s%s %s\n", command, strings.Repeat(" ", maxLength-len(command)), info.help)
	}
}

func runCommand(a *app, args []string, timeout time.Duration) int {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := execute(ctx, a, args); err != nil {
		switch {
		case errors.Is(err, platform.ErrPermissionDenied):
			writeErr("Bluetooth is needed: %s", err)
		case platform.Temporary(err):
			writeErr("Command failed, try again: %s", err)
		default:
			writeErr("Failed to execute command: %s", err)
		}
		return 1
	}
	return 0
}

func runInteractiveShell(a *app, timeout time.Duration) int {
	scanner := bufio.NewScanner(os.Stdin)
	for fmt.Printf("> "); scanner.Scan(); fmt.Printf("> ") {
		args, err := shlex.Split(scanner.Text())
		if len(args) == 0 {
			continue
		}
		if args[0] == "exit" {
			return 0
		}
		if err != nil {
			writeErr("Invalid command: %s", err)
			continue
		}
		if args[0] == "help" {
			help(args[1:])
			continue
		}
		runCommand(a, args, timeout)
	}
	if err := scanner.Err(); err != nil {
		writeErr("Error reading command: %s", err)
		return 1
	}
	return 0
}

func help(args []string) bool {
	if len(args) == 0 {
		printCommands()
		return true
	}
	info, ok := commands[args[0]]
	if !ok {
		writeErr("Unrecognized command: %s", args[0])
		return false
	}
	info.Usage(args[0])
	return true
}

// confirmEnable asks whether the adapter should be turned on. It declines without asking when
// stdin is not a terminal.
func confirmEnable() bool {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return false
	}
	fmt.Printf("%s. Turn it on? [y/N] ", gate.StatusAdapterOff)
	answer, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return false
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}

func main() {
	status := 1
	defer func() {
		os.Exit(status)
	}()

	var (
		debug          bool
		commandTimeout time.Duration
		connTimeout    time.Duration
	)
	config := cli.NewConfig(cli.FlagAll)
	flag.Usage = Usage
	flag.BoolVar(&debug, "debug", false, "Enable verbose debugging messages")
	flag.DurationVar(&commandTimeout, "command-timeout", 30*time.Second, "Set timeout for commands, including how long scan waits for results.")
	flag.DurationVar(&connTimeout, "connect-timeout", 20*time.Second, "Set timeout for opening the Bluetooth adapter.")

	config.RegisterCommandLineFlags()
	flag.Parse()
	if debug || cli.Verbose() {
		log.SetLevel(log.LevelDebug)
	}
	config.ReadFromEnvironment()

	args := flag.Args()
	if len(args) > 0 && args[0] == "help" {
		if help(args[1:]) {
			status = 0
		}
		return
	}
	if len(args) > 0 {
		if _, ok := commands[args[0]]; !ok {
			writeErr("Unrecognized command: %s", args[0])
			return
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), connTimeout)
	defer cancel()

	p, err := config.Open(ctx)
	if err != nil {
		writeErr("Error: %s", err)
		if config.Backend == cli.BackendTinyGo && tinygo.IsAdapterError(err) {
			writeErr("%s", tinygo.AdapterErrorHelpMessage(err))
		}
		// go-ble does not wrap the error from the HCI socket.
		if strings.Contains(err.Error(), "operation not permitted") {
			writeErr("\nTry again after granting this application CAP_NET_ADMIN:\n\n\tsudo setcap 'cap_net_admin=eip' \"$(which %s)\"\n", os.Args[0])
		}
		return
	}
	defer p.Close()

	ready, err := gate.Prepare(ctx, p.Permissions, p.Adapter, confirmEnable)
	if err != nil {
		writeErr("Error: %s", err)
		return
	}
	if ready != gate.StatusReady {
		writeErr("%s", ready)
		return
	}

	tracker, err := discovery.New(p.Adapter, p.Names, p.Permissions, config.TrackerOptions()...)
	if err != nil {
		writeErr("Error: %s", err)
		return
	}
	defer tracker.Close()

	a := &app{tracker: tracker, out: os.Stdout}
	if len(args) > 0 {
		status = runCommand(a, args, commandTimeout)
	} else {
		status = runInteractiveShell(a, commandTimeout)
	}
}
