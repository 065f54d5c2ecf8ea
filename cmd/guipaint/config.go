package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// maxConfigSize bounds the config file read.
const maxConfigSize = 1 << 20

// Config controls the demo render. It is read from a YAML file and then
// overlaid by the flags given on the command line.
type Config struct {
	Width          int      `yaml:"width"`
	Height         int      `yaml:"height"`
	PixelsPerPoint float32  `yaml:"pixels_per_point"`
	Output         string   `yaml:"output"`
	Workers        int      `yaml:"workers"`
	BindlessSlots  uint32   `yaml:"bindless_slots"`
	Background     [4]uint8 `yaml:"background"`
	Verbose        bool     `yaml:"verbose"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() Config {
	return Config{
		Width:          640,
		Height:         400,
		PixelsPerPoint: 1,
		Output:         "guipaint.png",
		Background:     [4]uint8{18, 18, 18, 255},
	}
}

// LoadConfig reads path over the defaults. A missing file is not an error
// when path is the empty string.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	info, err := os.Stat(path)
	if err != nil {
		return cfg, fmt.Errorf("config: %w", err)
	}
	if info.Size() > maxConfigSize {
		return cfg, fmt.Errorf("config: %s is too large (%d bytes)", path, info.Size())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

// Validate reports settings the renderer cannot use.
func (c Config) Validate() error {
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("config: invalid size %dx%d", c.Width, c.Height)
	}
	if !(c.PixelsPerPoint > 0) {
		return fmt.Errorf("config: invalid pixels_per_point %v", c.PixelsPerPoint)
	}
	if c.Output == "" {
		return errors.New("config: empty output path")
	}
	return nil
}

// renderFlags holds the render subcommand flags.
type renderFlags struct {
	config  string
	width   int
	height  int
	ppp     float64
	output  string
	workers int
	slots   uint
	verbose bool
}

func (f *renderFlags) register(set *flag.FlagSet) {
	d := DefaultConfig()
	set.StringVar(&f.config, "config", "", "YAML config file")
	set.IntVar(&f.width, "width", d.Width, "image width in pixels")
	set.IntVar(&f.height, "height", d.Height, "image height in pixels")
	set.Float64Var(&f.ppp, "ppp", float64(d.PixelsPerPoint), "pixels per point")
	set.StringVar(&f.output, "output", d.Output, "output PNG file")
	set.IntVar(&f.workers, "workers", 0, "rasterizer workers (0 = GOMAXPROCS)")
	set.UintVar(&f.slots, "bindless", 0, "bindless texture slots (0 = single binding)")
	set.BoolVar(&f.verbose, "v", false, "debug logging")
}

// resolve loads the config file and applies the flags that were set
// explicitly on top of it.
func (f *renderFlags) resolve(set *flag.FlagSet) (Config, error) {
	cfg, err := LoadConfig(f.config)
	if err != nil {
		return cfg, err
	}

	set.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "width":
			cfg.Width = f.width
		case "height":
			cfg.Height = f.height
		case "ppp":
			cfg.PixelsPerPoint = float32(f.ppp)
		case "output":
			cfg.Output = f.output
		case "workers":
			cfg.Workers = f.workers
		case "bindless":
			cfg.BindlessSlots = uint32(f.slots) //nolint:gosec // flag value
		case "v":
			cfg.Verbose = f.verbose
		}
	})
	return cfg, cfg.Validate()
}
