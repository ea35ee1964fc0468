// ABOUTME: Opaque codec register access with bounded retry
// ABOUTME: Mixer-level controller mapping volume/mute/reset onto register writes
package codec

import (
	"errors"
	"fmt"
	"log"
)

// maxAccessRetries bounds how often a register access is retried
// before the bus is considered wedged.
const maxAccessRetries = 3

var ErrRegisterAccess = errors.New("codec: register access failed")

// RegisterIO is the raw bus to the codec's register file, typically
// I2C or SPI behind an adapter, or a UART bridge on eval boards.
type RegisterIO interface {
	ReadRegister(addr uint16) (uint16, error)
	WriteRegister(addr uint16, value uint16) error
}

// Registers wraps a RegisterIO with bounded retry on transient bus
// failures.
type Registers struct {
	io RegisterIO
}

// NewRegisters wraps the given bus
func NewRegisters(io RegisterIO) *Registers {
	return &Registers{io: io}
}

// Read reads a register, retrying transient failures
func (r *Registers) Read(addr uint16) (uint16, error) {
	var lastErr error
	for i := 0; i < maxAccessRetries; i++ {
		value, err := r.io.ReadRegister(addr)
		if err == nil {
			return value, nil
		}
		lastErr = err
	}
	return 0, fmt.Errorf("%w: read %#04x: %v", ErrRegisterAccess, addr, lastErr)
}

// Write writes a register, retrying transient failures
func (r *Registers) Write(addr uint16, value uint16) error {
	var lastErr error
	for i := 0; i < maxAccessRetries; i++ {
		err := r.io.WriteRegister(addr, value)
		if err == nil {
			return nil
		}
		lastErr = err
	}
	return fmt.Errorf("%w: write %#04x: %v", ErrRegisterAccess, addr, lastErr)
}

// ControlMap names the registers the controller drives. The actual
// addresses and value encodings belong to the attached chip.
type ControlMap struct {
	VolumeLeft   uint16
	VolumeRight  uint16
	SoftMute     uint16
	DataRequests uint16
	Reset        uint16

	// VolumeMax is the register value for full output level
	VolumeMax uint16

	// ResetValue written to the Reset register restores defaults
	ResetValue uint16
}

// Controller drives the mixer-level portion of a codec: volume with
// balance scaling, soft mute, data-request gating, and reset. It
// implements the sink's DeviceControl.
type Controller struct {
	regs *Registers
	cmap ControlMap

	balance int
}

// NewController creates a controller over the given bus and map
func NewController(io RegisterIO, cmap ControlMap) *Controller {
	if cmap.VolumeMax == 0 {
		cmap.VolumeMax = 0x3f
	}
	return &Controller{
		regs: NewRegisters(io),
		cmap: cmap,
	}
}

// SetBalance sets left/right weighting (-100 full left, +100 full
// right) applied by the next SetVolume.
func (c *Controller) SetBalance(balance int) {
	if balance < -100 {
		balance = -100
	}
	if balance > 100 {
		balance = 100
	}
	c.balance = balance
}

// SetVolume applies the output level (0-100) and soft-mute state
func (c *Controller) SetVolume(volume int, muted bool) error {
	if volume < 0 {
		volume = 0
	}
	if volume > 100 {
		volume = 100
	}

	left := scaleVolume(volume, balanceScale(-c.balance))
	right := scaleVolume(volume, balanceScale(c.balance))

	if err := c.regs.Write(c.cmap.VolumeLeft, c.level(left)); err != nil {
		return err
	}
	if err := c.regs.Write(c.cmap.VolumeRight, c.level(right)); err != nil {
		return err
	}

	var mute uint16
	if muted {
		mute = 1
	}
	if err := c.regs.Write(c.cmap.SoftMute, mute); err != nil {
		return err
	}

	log.Printf("codec: volume=%d muted=%v balance=%d", volume, muted, c.balance)
	return nil
}

// EnableDataRequests lets the device ask for more data
func (c *Controller) EnableDataRequests() error {
	return c.regs.Write(c.cmap.DataRequests, 1)
}

// DisableDataRequests stops device-side data requests
func (c *Controller) DisableDataRequests() error {
	return c.regs.Write(c.cmap.DataRequests, 0)
}

// Reset restores the device's default register state
func (c *Controller) Reset() error {
	return c.regs.Write(c.cmap.Reset, c.cmap.ResetValue)
}

// level maps a 0-100 level to the chip's register range
func (c *Controller) level(volume int) uint16 {
	return uint16(volume) * c.cmap.VolumeMax / 100
}

// balanceScale returns a 16.16 fixed-point attenuation for one channel
// given the signed balance toward the other. Zero balance is unity.
func balanceScale(balance int) uint32 {
	if balance <= 0 {
		return 1 << 16
	}
	return uint32(100-balance) * (1 << 16) / 100
}

// scaleVolume attenuates a 0-100 volume by a 16.16 fixed-point scale
func scaleVolume(volume int, scale uint32) int {
	return int(uint32(volume) * scale >> 16)
}
