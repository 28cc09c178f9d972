package main

import (
	"flag"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

// Config field names must resolve to the same viper keys as their
// flags, or the flag-override pass below silently loses settings.
type Config struct {
	Port    string
	Baud    int
	SPJSURL string `mapstructure:"spjs"`
	Addr    string
	Sim     bool
	Pads    int
	Debug   bool
	Verbose bool

	ProbeFeed   float64 `mapstructure:"probefeed"`
	TravelFeed  float64 `mapstructure:"travelfeed"`
	ZTravelMax  float64 `mapstructure:"ztravel"`
	Clearance   float64
	InitialStep float64 `mapstructure:"initialstep"`
	MinStep     float64 `mapstructure:"minstep"`
}

func loadConfig() (*Config, error) {
	config := &Config{}

	// Define flags
	debugFlag := flag.Bool("debug", false, "Enable debugging mode")
	verboseFlag := flag.Bool("verbose", false, "Enable verbose logging")
	flag.StringVar(&config.Port, "port", "/dev/ttyUSB0", "Port path (or name if using SPJS)")
	flag.IntVar(&config.Baud, "baud", 115200, "Serial baud rate")
	flag.StringVar(&config.SPJSURL, "spjs", "", "Websocket URL of an SPJS server to use instead of a local port")
	flag.StringVar(&config.Addr, "addr", ":9091", "Address to bind the status server to")
	flag.BoolVar(&config.Sim, "sim", false, "Probe a simulated machine instead of hardware")
	flag.IntVar(&config.Pads, "pads", 8, "Number of test pads on the reference board")
	flag.Float64Var(&config.ProbeFeed, "probefeed", 120, "Probing feed rate in mm/min")
	flag.Float64Var(&config.TravelFeed, "travelfeed", 600, "Lateral travel feed rate in mm/min")
	flag.Float64Var(&config.ZTravelMax, "ztravel", 80, "Full-range Z target for the initial probe")
	flag.Float64Var(&config.Clearance, "clearance", 1, "Retract distance between probe samples")
	flag.Float64Var(&config.InitialStep, "initialstep", 1, "Starting lateral step of an edge search")
	flag.Float64Var(&config.MinStep, "minstep", 0.01, "Lateral step below which an edge search converges")

	// Parse flags
	flag.Parse()

	config.Debug = *debugFlag
	config.Verbose = *verboseFlag

	// Load configuration from file
	viper.SetConfigName("proboter.conf")
	viper.SetConfigType("toml")
	viper.AddConfigPath("/etc")
	viper.AddConfigPath(".")
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Override config file values with command line flags
	viper.Set("debug", config.Debug)
	viper.Set("verbose", config.Verbose)
	flag.Visit(func(f *flag.Flag) {
		viper.Set(f.Name, f.Value.String())
	})

	// Unmarshal the configuration
	if err := viper.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Set log level based on config
	if config.Debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else if config.Verbose {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	}

	return config, nil
}
