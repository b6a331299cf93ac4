package relay

import (
	"fmt"
	"sync"

	"go.bug.st/serial"
)

// Default serial parameters for the relay board.
const defaultBaudRate = 9600

// Config contains the serial transport settings for the relay board.
// These map to the serial section of config.yaml.
type Config struct {
	// Port is the serial device path (e.g. /dev/ttyUSB0, COM1).
	Port string

	// BaudRate is the line speed. The board ships at 9600.
	BaudRate int

	// DryRun selects a logging-only controller that never touches
	// hardware. Useful for validating sequences on a development machine.
	DryRun bool
}

// Logger is the minimal logging interface the controller needs.
// Compatible with logging.Logger and slog.Logger.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
}

// wirePort is the slice of go.bug.st/serial.Port the controller uses.
// Narrowed so tests can substitute an in-memory port.
type wirePort interface {
	Write(p []byte) (int, error)
	Drain() error
	Close() error
}

// Controller sends switch commands to the relay board over a serial port.
//
// Thread Safety: Send, ResetAll and Close are safe for concurrent use,
// though in normal operation the execution engine is the sole caller.
type Controller struct {
	mu     sync.Mutex
	port   wirePort
	logger Logger
	closed bool
}

// Open opens the serial port and returns a ready controller.
//
// When cfg.DryRun is set no port is opened; the returned controller logs
// every command instead of writing it to hardware.
//
// Returns ErrOpenFailed (wrapped) when the port cannot be opened. The
// caller should treat that as a run initialisation failure: no run starts
// and nothing was written to the board.
func Open(cfg Config, logger Logger) (*Controller, error) {
	if cfg.DryRun {
		logger.Info("relay controller in dry-run mode, hardware untouched")
		return &Controller{logger: logger}, nil
	}

	baud := cfg.BaudRate
	if baud <= 0 {
		baud = defaultBaudRate
	}

	port, err := serial.Open(cfg.Port, &serial.Mode{BaudRate: baud})
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrOpenFailed, cfg.Port, err)
	}

	logger.Info("relay controller opened", "port", cfg.Port, "baud_rate", baud)
	return &Controller{port: port, logger: logger}, nil
}

// Send switches one channel.
//
// Parameters:
//   - channel: board channel, 1..MaxChannels
//   - value: 0 to release, 1 to energise
//
// Returns ErrInvalidChannel/ErrInvalidValue for out-of-range commands
// (these indicate an upstream validation defect, not an operator mistake),
// ErrClosed after Close, or ErrWriteFailed when the serial write fails.
func (c *Controller) Send(channel, value int) error {
	if err := validateCommand(channel, value); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}

	if c.port == nil {
		// Dry-run: log the command and pretend it worked.
		c.logger.Info("relay command (dry-run)", "channel", channel, "value", value)
		return nil
	}

	frame := encodeFrame(channel, value)
	if _, err := c.port.Write(frame[:]); err != nil {
		return fmt.Errorf("%w: channel %d: %w", ErrWriteFailed, channel, err)
	}
	if err := c.port.Drain(); err != nil {
		return fmt.Errorf("%w: channel %d: drain: %w", ErrWriteFailed, channel, err)
	}

	c.logger.Debug("relay command sent", "channel", channel, "value", value)
	return nil
}

// ResetAll releases every channel on the board.
//
// All channels are attempted even if one write fails; the first error is
// returned. Used at run start and at every run termination so the board is
// never left with channels energised.
func (c *Controller) ResetAll() error {
	var firstErr error
	for channel := 1; channel <= MaxChannels; channel++ {
		if err := c.Send(channel, 0); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if firstErr != nil {
		return fmt.Errorf("resetting channels: %w", firstErr)
	}
	return nil
}

// Close releases the serial port. Further commands return ErrClosed.
// Close is idempotent.
func (c *Controller) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true

	if c.port == nil {
		return nil
	}
	if err := c.port.Close(); err != nil {
		return fmt.Errorf("closing serial port: %w", err)
	}
	return nil
}
