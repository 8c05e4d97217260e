// Package models picks a local model for the host. An explicit override always
// wins; otherwise the first configured tier whose VRAM or RAM minimum is met is
// chosen, falling back to the default tier.
package models

import (
	"errors"
	"strings"

	"github.com/temirov/llm-wrapper/internal/config"
)

const bytesPerGigabyte = 1 << 30

var ErrNoModels = errors.New("no models configured")

// Detector reports host capabilities. A nil function or a false second
// result means the capability is unknown.
type Detector struct {
	VRAMGigabytes func() (float64, bool)
	TotalRAMBytes func() (uint64, bool)
}

// Capabilities is a snapshot of what Detector found.
type Capabilities struct {
	VRAMGigabytes float64
	HasVRAM       bool
	RAMGigabytes  float64
	HasRAM        bool
}

func (detector Detector) Detect() Capabilities {
	var capabilities Capabilities
	if detector.VRAMGigabytes != nil {
		capabilities.VRAMGigabytes, capabilities.HasVRAM = detector.VRAMGigabytes()
	}
	if detector.TotalRAMBytes != nil {
		ramBytes, found := detector.TotalRAMBytes()
		capabilities.RAMGigabytes = float64(ramBytes) / bytesPerGigabyte
		capabilities.HasRAM = found
	}
	return capabilities
}

// Choose returns the override when set, then the first tier satisfied by
// VRAM, then the first tier satisfied by RAM, then the default tier.
func Choose(override string, tiers []config.Model, detector Detector) (string, error) {
	if trimmed := strings.TrimSpace(override); trimmed != "" {
		return trimmed, nil
	}
	if len(tiers) == 0 {
		return "", ErrNoModels
	}
	return ChooseFor(detector.Detect(), tiers), nil
}

// ChooseFor applies the tier rules to already detected capabilities.
func ChooseFor(capabilities Capabilities, tiers []config.Model) string {
	if capabilities.HasVRAM {
		for _, tier := range tiers {
			if tier.MinVRAMGB > 0 && capabilities.VRAMGigabytes >= tier.MinVRAMGB {
				return tier.Name
			}
		}
	}
	if capabilities.HasRAM {
		for _, tier := range tiers {
			if tier.MinRAMGB > 0 && capabilities.RAMGigabytes >= tier.MinRAMGB {
				return tier.Name
			}
		}
	}
	for _, tier := range tiers {
		if tier.Default {
			return tier.Name
		}
	}
	return tiers[len(tiers)-1].Name
}
