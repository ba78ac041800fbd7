package led

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"periph.io/x/conn/v3/display"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/devices/v3/nrzled"
	"periph.io/x/extra/devices/screen"
)

const (
	DriverSPI = "spi"
	DriverSim = "sim"

	// DefaultFreq is the SPI clock used to NRZ-encode an 800kHz strip.
	DefaultFreq = 2500 * physic.KiloHertz
)

// DrawerOpts selects and configures the output device.
type DrawerOpts struct {
	Driver    string
	NumPixels int
	SPIPort   string
	Freq      physic.Frequency
}

// OpenDrawer opens the configured output. host.Init must have run for DriverSPI.
// A missing SPI port falls back to the console so the strip can run headless.
func OpenDrawer(o DrawerOpts) (display.Drawer, error) {
	if o.NumPixels <= 0 {
		return nil, fmt.Errorf("open drawer (%d): %w", o.NumPixels, ErrInvalidCount)
	}
	switch o.Driver {
	case DriverSim:
		return screen.New(o.NumPixels), nil
	case DriverSPI:
	default:
		return nil, fmt.Errorf("unknown driver %q", o.Driver)
	}

	p, err := spireg.Open(o.SPIPort)
	if err != nil {
		log.Warn().Err(err).Str("port", o.SPIPort).Msg("failed to find a SPI port, printing at the console")
		return screen.New(o.NumPixels), nil
	}

	freq := o.Freq
	if freq == 0 {
		freq = DefaultFreq
	}
	d, err := nrzled.NewSPI(p, &nrzled.Opts{
		NumPixels: o.NumPixels,
		Channels:  3,
		Freq:      freq,
	})
	if err != nil {
		_ = p.Close()
		return nil, fmt.Errorf("nrzled on %s: %w", p, err)
	}
	if err := d.Halt(); err != nil {
		_ = p.Close()
		return nil, fmt.Errorf("nrzled halt: %w", err)
	}
	log.Info().Str("port", p.String()).Str("freq", freq.String()).Int("leds", o.NumPixels).Msg("SPI strip ready")
	return d, nil
}
