// ABOUTME: Tests for register access retry and the mixer controller
// ABOUTME: Uses a flaky in-memory bus to exercise the retry bound
package codec

import (
	"errors"
	"testing"
)

// flakyBus fails a configurable number of accesses before succeeding
type flakyBus struct {
	failures int
	reads    int
	writes   int
	regs     map[uint16]uint16
}

func newFlakyBus(failures int) *flakyBus {
	return &flakyBus{failures: failures, regs: make(map[uint16]uint16)}
}

func (b *flakyBus) ReadRegister(addr uint16) (uint16, error) {
	b.reads++
	if b.failures > 0 {
		b.failures--
		return 0, errors.New("bus glitch")
	}
	return b.regs[addr], nil
}

func (b *flakyBus) WriteRegister(addr uint16, value uint16) error {
	b.writes++
	if b.failures > 0 {
		b.failures--
		return errors.New("bus glitch")
	}
	b.regs[addr] = value
	return nil
}

func TestRegistersRetryTransientFailures(t *testing.T) {
	bus := newFlakyBus(2)
	regs := NewRegisters(bus)

	bus.regs[0x1c] = 0x3f
	value, err := regs.Read(0x1c)
	if err != nil {
		t.Fatalf("read failed despite retries: %v", err)
	}
	if value != 0x3f {
		t.Errorf("read %#04x, expected 0x3f", value)
	}
	if bus.reads != 3 {
		t.Errorf("%d read attempts, expected 3", bus.reads)
	}

	bus.failures = 2
	if err := regs.Write(0x1c, 0x20); err != nil {
		t.Fatalf("write failed despite retries: %v", err)
	}
	if bus.regs[0x1c] != 0x20 {
		t.Error("write did not land")
	}
}

func TestRegistersGiveUpAfterRetries(t *testing.T) {
	bus := newFlakyBus(10)
	regs := NewRegisters(bus)

	if _, err := regs.Read(0x00); !errors.Is(err, ErrRegisterAccess) {
		t.Errorf("expected ErrRegisterAccess, got %v", err)
	}
	if bus.reads != maxAccessRetries {
		t.Errorf("%d read attempts, expected %d", bus.reads, maxAccessRetries)
	}

	if err := regs.Write(0x00, 1); !errors.Is(err, ErrRegisterAccess) {
		t.Errorf("expected ErrRegisterAccess, got %v", err)
	}
}

var testMap = ControlMap{
	VolumeLeft:   0x1c,
	VolumeRight:  0x1d,
	SoftMute:     0x06,
	DataRequests: 0x04,
	Reset:        0x00,
	VolumeMax:    0x3f,
	ResetValue:   0x8994,
}

func TestControllerVolume(t *testing.T) {
	bus := newFlakyBus(0)
	c := NewController(bus, testMap)

	if err := c.SetVolume(100, false); err != nil {
		t.Fatalf("set volume failed: %v", err)
	}
	if got := bus.regs[testMap.VolumeLeft]; got != 0x3f {
		t.Errorf("left volume %#04x, expected full scale", got)
	}
	if got := bus.regs[testMap.VolumeRight]; got != 0x3f {
		t.Errorf("right volume %#04x, expected full scale", got)
	}
	if got := bus.regs[testMap.SoftMute]; got != 0 {
		t.Errorf("mute register %d, expected 0", got)
	}

	if err := c.SetVolume(50, true); err != nil {
		t.Fatalf("set volume failed: %v", err)
	}
	if got := bus.regs[testMap.VolumeLeft]; got != 0x1f {
		t.Errorf("left volume %#04x at 50%%, expected 0x1f", got)
	}
	if got := bus.regs[testMap.SoftMute]; got != 1 {
		t.Errorf("mute register %d, expected 1", got)
	}
}

func TestControllerBalance(t *testing.T) {
	bus := newFlakyBus(0)
	c := NewController(bus, testMap)

	// Full right: left channel fully attenuated
	c.SetBalance(100)
	if err := c.SetVolume(100, false); err != nil {
		t.Fatalf("set volume failed: %v", err)
	}
	if got := bus.regs[testMap.VolumeLeft]; got != 0 {
		t.Errorf("left volume %#04x at full right balance, expected 0", got)
	}
	if got := bus.regs[testMap.VolumeRight]; got != 0x3f {
		t.Errorf("right volume %#04x at full right balance, expected full scale", got)
	}

	// Centered: both channels at unity
	c.SetBalance(0)
	if err := c.SetVolume(100, false); err != nil {
		t.Fatalf("set volume failed: %v", err)
	}
	if bus.regs[testMap.VolumeLeft] != bus.regs[testMap.VolumeRight] {
		t.Error("centered balance gave unequal channels")
	}

	// Out-of-range balance is clamped
	c.SetBalance(500)
	if c.balance != 100 {
		t.Errorf("balance %d after clamp, expected 100", c.balance)
	}
}

func TestControllerVolumeClamps(t *testing.T) {
	bus := newFlakyBus(0)
	c := NewController(bus, testMap)

	if err := c.SetVolume(250, false); err != nil {
		t.Fatalf("set volume failed: %v", err)
	}
	if got := bus.regs[testMap.VolumeLeft]; got != 0x3f {
		t.Errorf("volume %#04x after clamp, expected full scale", got)
	}

	if err := c.SetVolume(-10, false); err != nil {
		t.Fatalf("set volume failed: %v", err)
	}
	if got := bus.regs[testMap.VolumeLeft]; got != 0 {
		t.Errorf("volume %#04x after clamp, expected 0", got)
	}
}

func TestControllerDataRequestsAndReset(t *testing.T) {
	bus := newFlakyBus(0)
	c := NewController(bus, testMap)

	if err := c.EnableDataRequests(); err != nil {
		t.Fatalf("enable failed: %v", err)
	}
	if bus.regs[testMap.DataRequests] != 1 {
		t.Error("data requests not enabled")
	}
	if err := c.DisableDataRequests(); err != nil {
		t.Fatalf("disable failed: %v", err)
	}
	if bus.regs[testMap.DataRequests] != 0 {
		t.Error("data requests not disabled")
	}

	if err := c.Reset(); err != nil {
		t.Fatalf("reset failed: %v", err)
	}
	if bus.regs[testMap.Reset] != testMap.ResetValue {
		t.Error("reset value not written")
	}
}
