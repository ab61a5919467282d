package device_test

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"codeberg.org/mutker/laserlog/internal/device"
	"codeberg.org/mutker/laserlog/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietProfile() device.Profile {
	p := device.DefaultProfile()
	p.Jitter = 0
	return p
}

func TestSimulatedNominalReadings(t *testing.T) {
	sim, err := device.NewSimulated(quietProfile())
	require.NoError(t, err)

	assert.True(t, sim.IsConnected())
	assert.False(t, sim.IsResetting())
	assert.False(t, sim.IsUpdating())
	assert.Equal(t, "Sim-355", sim.LaserModel())
	assert.Equal(t, "SIM0001", sim.SerialNumber())

	require.NoError(t, sim.RefreshPowerMonitorReadings())
	assert.Equal(t, []int{1, 2}, sim.PowerMonitorIDs())
	assert.Equal(t, "Main", sim.PowerMonitorLabel(1))
	assert.InDelta(t, 3.21, sim.PowerMonitorReadingWatts(1), 1e-9)
	assert.InDelta(t, 4.05, sim.PowerMonitorReadingWatts(2), 1e-9)

	assert.True(t, sim.TemperatureControlIsSettable(1))
	assert.True(t, sim.TemperatureControlIsThermistorOnly(4))
	assert.Equal(t, 1, sim.RefreshCount(device.FamilyPower))
}

func TestSimulatedJitterStaysInBounds(t *testing.T) {
	p := device.DefaultProfile()
	p.Jitter = 0.05

	sim, err := device.NewSimulated(p)
	require.NoError(t, err)

	for range 50 {
		require.NoError(t, sim.RefreshPowerMonitorReadings())
		assert.InEpsilon(t, 3.21, sim.PowerMonitorReadingWatts(1), 0.051)
	}
}

func TestSimulatedRefreshWhileDisconnected(t *testing.T) {
	sim, err := device.NewSimulated(quietProfile())
	require.NoError(t, err)

	sim.SetConnected(false)
	err = sim.RefreshLDDReadings()
	require.Error(t, err)

	code, ok := errors.CodeOf(err)
	require.True(t, ok)
	assert.Equal(t, device.ErrNotConnected, code)
	assert.Zero(t, sim.RefreshCount(device.FamilyLDD))
}

func TestSimulatedFailRefresh(t *testing.T) {
	sim, err := device.NewSimulated(quietProfile())
	require.NoError(t, err)

	cause := fmt.Errorf("bus timeout")
	sim.FailRefresh(cause)
	err = sim.RefreshTECReadings()
	assert.ErrorIs(t, err, cause)

	sim.FailRefresh(nil)
	assert.NoError(t, sim.RefreshTECReadings())
}

func TestSimulatedFaults(t *testing.T) {
	sim, err := device.NewSimulated(quietProfile())
	require.NoError(t, err)

	assert.False(t, sim.HasSoftFault())
	assert.False(t, sim.HasHardFault())
	assert.Empty(t, sim.CurrentFaults())

	sim.RaiseFault("Chiller flow low", false)
	sim.RaiseFault("Interlock open", true)
	assert.True(t, sim.HasSoftFault())
	assert.True(t, sim.HasHardFault())
	assert.Equal(t, []string{"Chiller flow low", "Interlock open"}, sim.CurrentFaults())

	sim.ClearFaults()
	assert.Empty(t, sim.CurrentFaults())
}

func TestSimulatedSetters(t *testing.T) {
	sim, err := device.NewSimulated(quietProfile())
	require.NoError(t, err)

	sim.SetPowerMonitorWatts(1, 1.5)
	sim.SetTEC(2, -1.25, 0.5)
	require.NoError(t, sim.RefreshPowerMonitorReadings())
	require.NoError(t, sim.RefreshTECReadings())

	assert.InDelta(t, 1.5, sim.PowerMonitorReadingWatts(1), 1e-9)
	assert.InDelta(t, -1.25, sim.TECVoltage(2), 1e-9)
	assert.InDelta(t, 0.5, sim.TECCurrent(2), 1e-9)
}

func TestLoadProfile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "laser.yaml")
	content := []byte(`
model: Bench-532
serial: B42
pulse:
  prf: 50000
  pec: 12.5
power_monitors:
  - id: 7
    label: Out
    watts: 1.25
temperature_controls:
  - id: 1
    label: SHG
    settable: true
    set_temp: 40
    actual_temp: 40.1
chiller_flow:
  enabled: false
faults:
  - description: Shutter stuck
    hard: true
`)
	require.NoError(t, os.WriteFile(path, content, 0o600))

	p, err := device.LoadProfile(path)
	require.NoError(t, err)
	assert.Equal(t, "Bench-532", p.Model)
	assert.Equal(t, "B42", p.Serial)
	assert.Equal(t, 50000, p.Pulse.PRF)
	require.Len(t, p.PowerMonitors, 1)
	assert.Equal(t, 7, p.PowerMonitors[0].ID)
	assert.True(t, p.TemperatureControls[0].Settable)
	assert.False(t, p.ChillerFlow.Enabled)

	sim, err := device.NewSimulated(p)
	require.NoError(t, err)
	assert.True(t, sim.HasHardFault())
	assert.Equal(t, []string{"Shutter stuck"}, sim.CurrentFaults())
}

func TestLoadProfileErrors(t *testing.T) {
	_, err := device.LoadProfile(filepath.Join(t.TempDir(), "missing.yaml"))
	code, ok := errors.CodeOf(err)
	require.True(t, ok)
	assert.Equal(t, device.ErrProfileRead, code)

	path := filepath.Join(t.TempDir(), "dup.yaml")
	require.NoError(t, os.WriteFile(path, []byte("motors:\n  - id: 1\n  - id: 1\n"), 0o600))
	_, err = device.LoadProfile(path)
	code, ok = errors.CodeOf(err)
	require.True(t, ok)
	assert.Equal(t, device.ErrProfileInvalid, code)
}
