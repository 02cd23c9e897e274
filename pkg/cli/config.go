/*
Package cli facilitates building command-line applications that scan for Bluetooth devices. It
defines a [Config] type that can be used to register common command-line flags (using the Golang
flag package) and environment variable equivalents, and to open the selected platform backend.

# Examples

	config := cli.NewConfig(cli.FlagAll)
	config.RegisterCommandLineFlags() // Adds command-line flags for the backend, adapter, etc.
	flag.Parse()
	config.ReadFromEnvironment()      // Fills in missing fields using environment variables

	p, err := config.Open(ctx)
	if err != nil {
		panic(err)
	}
	defer p.Close()

	tracker, err := discovery.New(p.Adapter, p.Names, p.Permissions, config.TrackerOptions()...)

Use a [Flag] mask to control which [Config] fields are populated. Note that config.Flags must be
set before calling [flag.Parse] or [Config.ReadFromEnvironment]:

	config = cli.NewConfig(cli.FlagBackend) // Name resolution uses the defaults.
*/
package cli

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spacecrew/btscan/internal/log"
	"github.com/spacecrew/btscan/pkg/cache"
	"github.com/spacecrew/btscan/pkg/discovery"
	"github.com/spacecrew/btscan/pkg/platform"
	"github.com/spacecrew/btscan/pkg/platform/bluez"
	"github.com/spacecrew/btscan/pkg/platform/goble"
	"github.com/spacecrew/btscan/pkg/platform/tinygo"
)

// Environment variable names used by [Config.ReadFromEnvironment].
const (
	EnvBackend         = "SPACECREW_BACKEND"
	EnvAdapter         = "SPACECREW_ADAPTER"
	EnvDiscoveryWindow = "SPACECREW_DISCOVERY_WINDOW"
	EnvNameInterval    = "SPACECREW_NAME_INTERVAL"
	EnvNameTimeout     = "SPACECREW_NAME_TIMEOUT"
	EnvRememberNames   = "SPACECREW_REMEMBER_NAMES"
	EnvVerbose         = "SPACECREW_VERBOSE"
)

// MaxRememberedNames bounds the name cache enabled by -remember-names.
const MaxRememberedNames = 256

// BackendType selects a [platform] implementation. It implements [flag.Value].
type BackendType string

const (
	BackendBlueZ  BackendType = "bluez"
	BackendTinyGo BackendType = "tinygo"
	BackendGoBLE  BackendType = "goble"
)

var backendNames = []BackendType{BackendBlueZ, BackendTinyGo, BackendGoBLE}

func (b *BackendType) String() string {
	return string(*b)
}

func (b *BackendType) Set(value string) error {
	canonicalName := BackendType(strings.ToLower(value))
	for _, name := range backendNames {
		if name == canonicalName {
			*b = name
			return nil
		}
	}
	return fmt.Errorf("unknown backend '%s'", value)
}

// Flag controls what options should be scanned from the command line and/or environment variables.
type Flag int

func (f Flag) isSet(other Flag) bool {
	return (f & other) == other
}

const (
	FlagBackend Flag = 1 // Enable backend, adapter and discovery window options.
	FlagNames   Flag = 2 // Enable name resolution options.
	FlagAll     Flag = FlagBackend | FlagNames
)

// Config fields determine which Bluetooth stack is used and how device names are resolved.
type Config struct {
	Flags           Flag // Controls which set of environment variables/CLI flags to use.
	Backend         BackendType
	AdapterID       string
	DiscoveryWindow time.Duration
	NameInterval    time.Duration
	NameTimeout     time.Duration
	RememberNames   bool

	// set records which options were given on the command line, so that the environment does
	// not override them.
	set map[string]bool
}

func NewConfig(flags Flag) *Config {
	return &Config{
		Flags:        flags,
		NameInterval: discovery.DefaultNameInterval,
		NameTimeout:  discovery.DefaultNameTimeout,
		set:          make(map[string]bool),
	}
}

func (c *Config) RegisterCommandLineFlags() {
	c.registerFlags(flag.CommandLine)
}

func (c *Config) registerFlags(fs *flag.FlagSet) {
	if c.Flags.isSet(FlagBackend) {
		var names []string
		for _, name := range backendNames {
			names = append(names, string(name))
		}
		fs.Var(&c.Backend, "backend", "Bluetooth `stack` ("+strings.Join(names, "|")+"). Defaults to $"+EnvBackend+" or "+string(defaultBackend)+".")
		fs.StringVar(&c.AdapterID, "bt-adapter", "", "ID of the Bluetooth adapter to use. Defaults to $"+EnvAdapter+" or hci0.")
		fs.DurationVar(&c.DiscoveryWindow, "discovery-window", 0, "How long a discovery pass runs. Defaults to $"+EnvDiscoveryWindow+" or 12s.")
	}
	if c.Flags.isSet(FlagNames) {
		fs.DurationVar(&c.NameInterval, "name-interval", c.NameInterval, "How often a missing device name is polled. Overrides $"+EnvNameInterval+".")
		fs.DurationVar(&c.NameTimeout, "name-timeout", c.NameTimeout, "How long a missing device name is polled. Overrides $"+EnvNameTimeout+".")
		fs.BoolVar(&c.RememberNames, "remember-names", false, "Reuse names resolved in earlier scans. Defaults to $"+EnvRememberNames+".")
	}
}

// ReadFromEnvironment populates c using environment variables. Values that were set on the
// command line are not overwritten.
//
// Call ReadFromEnvironment after flag.Parse().
func (c *Config) ReadFromEnvironment() {
	c.readEnvironment(flag.CommandLine, os.LookupEnv)
}

func (c *Config) readEnvironment(fs *flag.FlagSet, lookup func(string) (string, bool)) {
	fs.Visit(func(f *flag.Flag) { c.set[f.Name] = true })

	if c.Flags.isSet(FlagBackend) {
		if c.Backend == "" {
			if value, ok := lookup(EnvBackend); ok {
				if err := c.Backend.Set(value); err != nil {
					log.Warning("Ignoring $%s: %s", EnvBackend, err)
				}
			}
			if c.Backend == "" {
				c.Backend = defaultBackend
			}
			log.Debug("Set backend to '%s'", c.Backend)
		}
		if c.AdapterID == "" {
			c.AdapterID, _ = lookup(EnvAdapter)
			log.Debug("Set adapter ID to '%s'", c.AdapterID)
		}
		if !c.set["discovery-window"] {
			c.readDuration(lookup, EnvDiscoveryWindow, &c.DiscoveryWindow)
		}
	}
	if c.Flags.isSet(FlagNames) {
		if !c.set["name-interval"] {
			c.readDuration(lookup, EnvNameInterval, &c.NameInterval)
		}
		if !c.set["name-timeout"] {
			c.readDuration(lookup, EnvNameTimeout, &c.NameTimeout)
		}
		if !c.set["remember-names"] {
			if value, ok := lookup(EnvRememberNames); ok {
				remember, err := strconv.ParseBool(value)
				if err != nil {
					log.Warning("Ignoring $%s: %s", EnvRememberNames, err)
				} else {
					c.RememberNames = remember
					log.Debug("Set remember names to %v", c.RememberNames)
				}
			}
		}
	}
}

func (c *Config) readDuration(lookup func(string) (string, bool), name string, d *time.Duration) {
	value, ok := lookup(name)
	if !ok || value == "" {
		return
	}
	parsed, err := time.ParseDuration(value)
	if err != nil || parsed <= 0 {
		log.Warning("Ignoring $%s: invalid duration '%s'", name, value)
		return
	}
	*d = parsed
	log.Debug("Set %s to %s", name, parsed)
}

// Verbose reports whether $SPACECREW_VERBOSE asks for debug logging.
func Verbose() bool {
	value, ok := os.LookupEnv(EnvVerbose)
	if !ok {
		return false
	}
	verbose, err := strconv.ParseBool(value)
	return err != nil || verbose
}

// Platform bundles the interfaces a backend provides.
type Platform struct {
	Adapter     platform.Adapter
	Names       platform.NameAccessor
	Permissions platform.Permissions
}

// Close releases the adapter.
func (p *Platform) Close() error {
	return p.Adapter.Close()
}

// Open initializes the configured backend.
func (c *Config) Open(ctx context.Context) (*Platform, error) {
	backend := c.Backend
	if backend == "" {
		backend = defaultBackend
	}
	log.Debug("Opening %s backend...", backend)

	switch backend {
	case BackendBlueZ:
		adapter, err := bluez.Open(ctx, c.AdapterID, c.DiscoveryWindow)
		if err != nil {
			return nil, err
		}
		return &Platform{Adapter: adapter, Names: adapter, Permissions: adapter.Permissions()}, nil
	case BackendTinyGo:
		adapter, err := tinygo.NewAdapter(c.AdapterID, c.DiscoveryWindow)
		if err != nil {
			return nil, err
		}
		return &Platform{Adapter: adapter, Names: adapter, Permissions: platform.AlwaysGranted{}}, nil
	case BackendGoBLE:
		adapter, err := goble.NewAdapter(c.AdapterID, c.DiscoveryWindow)
		if err != nil {
			return nil, err
		}
		return &Platform{Adapter: adapter, Names: adapter, Permissions: platform.AlwaysGranted{}}, nil
	}
	return nil, fmt.Errorf("unknown backend '%s'", backend)
}

// TrackerOptions converts the name resolution settings in c into [discovery.Option] values.
func (c *Config) TrackerOptions() []discovery.Option {
	options := []discovery.Option{
		discovery.WithNameInterval(c.NameInterval),
		discovery.WithNameTimeout(c.NameTimeout),
	}
	if c.RememberNames {
		options = append(options, discovery.WithNameCache(cache.New(MaxRememberedNames)))
	}
	return options
}
