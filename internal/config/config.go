package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
	"periph.io/x/conn/v3/physic"

	"github.com/coreman2200/funtimes-ledstrip/internal/encoder"
	"github.com/coreman2200/funtimes-ledstrip/internal/led"
	"github.com/coreman2200/funtimes-ledstrip/internal/pattern"
	"github.com/coreman2200/funtimes-ledstrip/internal/render"
)

type SPI struct {
	Port    string `yaml:"port"`     // "" picks the first SPI port
	FreqKHz int    `yaml:"freq_khz"` // e.g. 2500
}

type Encoder struct {
	CLK            string        `yaml:"clk"`
	DT             string        `yaml:"dt"`
	SW             string        `yaml:"sw"`
	StepsPerDetent int           `yaml:"steps_per_detent"`
	Debounce       time.Duration `yaml:"debounce"`
}

type Pattern struct {
	Kind  pattern.Kind `yaml:"kind"`
	Name  string       `yaml:"name,omitempty"`
	Color *led.Color   `yaml:"color,omitempty"`
}

type Preview struct {
	Addr string `yaml:"addr"` // empty disables the preview server
}

type Config struct {
	Driver   string `yaml:"driver"` // "spi" | "sim"
	LEDCount int    `yaml:"led_count"`
	FPS      int    `yaml:"fps"`
	LogLevel string `yaml:"log_level"`

	SPI      SPI       `yaml:"spi"`
	Encoder  Encoder   `yaml:"encoder"`
	Patterns []Pattern `yaml:"patterns,omitempty"`
	Preview  Preview   `yaml:"preview"`
}

// Default is the reference deployment: 96 LEDs on SPI, encoder on GPIO2/4 with the switch on GPIO3.
func Default() Config {
	return Config{
		Driver:   led.DriverSPI,
		LEDCount: 96,
		FPS:      100,
		LogLevel: "info",
		SPI:      SPI{FreqKHz: 2500},
		Encoder: Encoder{
			CLK:            "GPIO2",
			DT:             "GPIO4",
			SW:             "GPIO3",
			StepsPerDetent: encoder.DefaultStepsPerDetent,
			Debounce:       5 * time.Millisecond,
		},
	}
}

// Load reads path over Default.
func Load(path string) (Config, error) {
	c := Default()
	b, err := os.ReadFile(path)
	if err != nil {
		return c, err
	}
	if err := yaml.Unmarshal(b, &c); err != nil {
		return c, fmt.Errorf("parse %s: %w", path, err)
	}
	return c, c.Validate()
}

func Save(path string, c Config) error {
	b, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0644)
}

func (c Config) Validate() error {
	var errs []error
	if c.LEDCount <= 0 {
		errs = append(errs, fmt.Errorf("led_count %d: %w", c.LEDCount, led.ErrInvalidCount))
	}
	if c.FPS <= 0 || c.FPS > render.MaxFPS {
		errs = append(errs, fmt.Errorf("fps must be in [1,%d], got %d", render.MaxFPS, c.FPS))
	}
	switch c.Driver {
	case led.DriverSPI, led.DriverSim:
	default:
		errs = append(errs, fmt.Errorf("unknown driver %q", c.Driver))
	}
	if c.SPI.FreqKHz < 0 {
		errs = append(errs, fmt.Errorf("spi.freq_khz must not be negative, got %d", c.SPI.FreqKHz))
	}
	return errors.Join(errs...)
}

// DrawerOpts maps the output settings onto led.OpenDrawer.
func (c Config) DrawerOpts() led.DrawerOpts {
	return led.DrawerOpts{
		Driver:    c.Driver,
		NumPixels: c.LEDCount,
		SPIPort:   c.SPI.Port,
		Freq:      physic.Frequency(c.SPI.FreqKHz) * physic.KiloHertz,
	}
}

func (c Config) Pins() encoder.Pins {
	return encoder.Pins{CLK: c.Encoder.CLK, DT: c.Encoder.DT, SW: c.Encoder.SW}
}

// Library builds the configured pattern list, or the default one when none is configured.
// Chase and fill patterns without a color keep their defaults (red and white).
func (c Config) Library() (*pattern.Library, error) {
	if len(c.Patterns) == 0 {
		return pattern.Default(), nil
	}
	ps := make([]pattern.Pattern, 0, len(c.Patterns))
	for _, p := range c.Patterns {
		pp := pattern.Pattern{Kind: p.Kind, Name: p.Name}
		switch {
		case p.Color != nil:
			pp.Color = *p.Color
		case p.Kind == pattern.ChaseColour:
			pp.Color = led.Red
		case p.Kind == pattern.FillColour:
			pp.Color = led.White
		}
		ps = append(ps, pp)
	}
	return pattern.NewLibrary(ps...)
}
