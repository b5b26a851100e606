package transport

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadShedderDisabledAlwaysAdmits(t *testing.T) {
	s := NewLoadShedder(LoadShedderConfig{Enabled: false, BaseFraction: 1.0})
	for i := 0; i < 50; i++ {
		require.False(t, s.ShouldShed())
	}
}

func TestLoadShedderDeterministicSampling(t *testing.T) {
	cfg := LoadShedderConfig{Enabled: true, BaseFraction: 0.3}
	a := NewLoadShedder(cfg)
	b := NewLoadShedder(cfg)
	for i := 0; i < 100; i++ {
		require.Equal(t, a.ShouldShed(), b.ShouldShed())
	}
}

func TestLoadShedderLatencySignalIncreasesFraction(t *testing.T) {
	s := NewLoadShedder(LoadShedderConfig{
		Enabled:          true,
		BaseFraction:     0.1,
		LatencyEWMAAlpha: 1.0,
		Latency:          ShedSignal{Threshold: 100, Multiplier: 10},
	})
	s.ObserveLatency(500)
	shed := 0
	for i := 0; i < 100; i++ {
		if s.ShouldShed() {
			shed++
		}
	}
	require.Greater(t, shed, 50)
}

func TestLoadShedderFractionCappedAtOne(t *testing.T) {
	s := NewLoadShedder(LoadShedderConfig{
		Enabled:      true,
		BaseFraction: 0.9,
		CPUPercent:   ShedSignal{Threshold: 50, Multiplier: 5},
	})
	s.SetCPUPercent(90)
	for i := 0; i < 100; i++ {
		require.True(t, s.ShouldShed())
	}
}
