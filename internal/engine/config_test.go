package engine

import (
	"errors"
	"strconv"
	"testing"
)

func TestDefaultConfigValid(t *testing.T) {
	c := DefaultConfig()
	if err := c.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestContradictoryWindowStrategies(t *testing.T) {
	c := DefaultConfig()
	if err := c.Set("UseMTDf", "true"); err == nil {
		t.Error("MTDf together with PVS must be rejected")
	}
	if err := c.Set("UsePVS", "false"); err != nil {
		t.Fatalf("disabling PVS: %v", err)
	}
	if err := c.Set("UseMTDf", "true"); err != nil {
		t.Errorf("MTDf without PVS should be accepted: %v", err)
	}
}

func TestUnknownOption(t *testing.T) {
	c := DefaultConfig()
	if err := c.Set("Frobnicate", "1"); !errors.Is(err, ErrBadOption) {
		t.Errorf("unknown option: got %v, want ErrBadOption", err)
	}
	if err := c.Set("UseNMP", "maybe"); !errors.Is(err, ErrBadOption) {
		t.Errorf("bad bool: got %v, want ErrBadOption", err)
	}
}

func TestHashSizeOption(t *testing.T) {
	c := DefaultConfig()
	if err := c.Set("Hash", "0"); !errors.Is(err, ErrTableSize) {
		t.Errorf("hash 0: got %v, want ErrTableSize", err)
	}
	if err := c.Set("Hash", "16"); err != nil {
		t.Errorf("hash 16: %v", err)
	}
	if c.HashSizeMB != 16 {
		t.Errorf("HashSizeMB = %d, want 16", c.HashSizeMB)
	}
}

func TestNumericOptions(t *testing.T) {
	c := DefaultConfig()
	pairs := map[string]int{
		"AspirationStartDepth": 6,
		"NMPDepth":             2,
		"RazorMargin":          450,
		"LMRMinMoves":          5,
		"ContemptFactor":       0,
	}
	for name, value := range pairs {
		if err := c.Set(name, strconv.Itoa(value)); err != nil {
			t.Errorf("set %s: %v", name, err)
		}
	}
	if c.AspirationStartDepth != 6 || c.NMPDepth != 2 || c.RazorMargin != 450 ||
		c.LMRMinMoves != 5 || c.ContemptFactor != 0 {
		t.Error("numeric options not applied")
	}
}
