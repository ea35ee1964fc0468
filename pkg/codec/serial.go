// ABOUTME: RegisterIO over a UART-attached codec board
// ABOUTME: Simple framed read/write protocol for eval-board control bridges
package codec

import (
	"fmt"
	"io"

	"github.com/tarm/serial"
)

// Wire framing: a one-byte opcode, big-endian register address, and
// for writes a big-endian value. Reads answer with two value bytes.
const (
	opWrite = 0x57 // 'W'
	opRead  = 0x52 // 'R'
)

// SerialRegisters speaks the register bridge protocol over a serial
// port, for codec boards controlled via UART instead of direct I2C.
type SerialRegisters struct {
	port io.ReadWriteCloser
}

// OpenSerial opens the bridge on the named port
func OpenSerial(name string, baud int) (*SerialRegisters, error) {
	port, err := serial.OpenPort(&serial.Config{Name: name, Baud: baud})
	if err != nil {
		return nil, fmt.Errorf("opening serial port %s: %w", name, err)
	}
	return &SerialRegisters{port: port}, nil
}

// ReadRegister requests a register value from the bridge
func (s *SerialRegisters) ReadRegister(addr uint16) (uint16, error) {
	req := []byte{opRead, byte(addr >> 8), byte(addr)}
	if _, err := s.port.Write(req); err != nil {
		return 0, fmt.Errorf("register read request: %w", err)
	}

	var resp [2]byte
	if _, err := io.ReadFull(s.port, resp[:]); err != nil {
		return 0, fmt.Errorf("register read response: %w", err)
	}
	return uint16(resp[0])<<8 | uint16(resp[1]), nil
}

// WriteRegister sends a register write to the bridge
func (s *SerialRegisters) WriteRegister(addr uint16, value uint16) error {
	req := []byte{opWrite, byte(addr >> 8), byte(addr), byte(value >> 8), byte(value)}
	if _, err := s.port.Write(req); err != nil {
		return fmt.Errorf("register write: %w", err)
	}
	return nil
}

// Close closes the underlying port
func (s *SerialRegisters) Close() error {
	return s.port.Close()
}
