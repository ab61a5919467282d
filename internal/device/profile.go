package device

import (
	"os"

	"codeberg.org/mutker/laserlog/internal/errors"
	"gopkg.in/yaml.v3"
)

// Profile describes a simulated laser controller: its channels and the
// nominal readings they report.
type Profile struct {
	Model  string  `yaml:"model"`
	Serial string  `yaml:"serial"`
	Jitter float64 `yaml:"jitter"` // relative noise applied on refresh, 0 disables
	Seed   int64   `yaml:"seed"`

	Pulse               PulseProfile         `yaml:"pulse"`
	PowerMonitors       []PowerMonitorProfile `yaml:"power_monitors"`
	LDDs                []LDDProfile          `yaml:"ldds"`
	TemperatureControls []TempControlProfile  `yaml:"temperature_controls"`
	ChillerFlow         ChillerFlowProfile    `yaml:"chiller_flow"`
	Humidity            []HumidityProfile     `yaml:"humidity"`
	Motors              []MotorProfile        `yaml:"motors"`
	Faults              []FaultProfile        `yaml:"faults"`
}

type PulseProfile struct {
	PRF int     `yaml:"prf"`
	PEC float64 `yaml:"pec"`
}

type PowerMonitorProfile struct {
	ID    int     `yaml:"id"`
	Label string  `yaml:"label"`
	Watts float64 `yaml:"watts"`
}

type LDDProfile struct {
	ID            int     `yaml:"id"`
	Label         string  `yaml:"label"`
	SetCurrent    float64 `yaml:"set_current"`
	ActualCurrent float64 `yaml:"actual_current"`
}

type TempControlProfile struct {
	ID             int     `yaml:"id"`
	Label          string  `yaml:"label"`
	Settable       bool    `yaml:"settable"`
	ThermistorOnly bool    `yaml:"thermistor_only"`
	SetTemp        float64 `yaml:"set_temp"`
	ActualTemp     float64 `yaml:"actual_temp"`
	TECVoltage     float64 `yaml:"tec_voltage"`
	TECCurrent     float64 `yaml:"tec_current"`
}

type ChillerFlowProfile struct {
	Enabled bool    `yaml:"enabled"`
	Reading float64 `yaml:"reading"`
}

type HumidityProfile struct {
	ID      int    `yaml:"id"`
	Label   string `yaml:"label"`
	Reading int    `yaml:"reading"`
}

type MotorProfile struct {
	ID    int    `yaml:"id"`
	Label string `yaml:"label"`
	Index int    `yaml:"index"`
}

type FaultProfile struct {
	Description string `yaml:"description"`
	Hard        bool   `yaml:"hard"`
}

// DefaultProfile is a three stage (LDD, SHG, THG) laser used when no
// profile file is configured.
func DefaultProfile() Profile {
	return Profile{
		Model:  "Sim-355",
		Serial: "SIM0001",
		Jitter: 0.01,
		Seed:   1,
		Pulse:  PulseProfile{PRF: 100000, PEC: 42.5},
		PowerMonitors: []PowerMonitorProfile{
			{ID: 1, Label: "Main", Watts: 3.21},
			{ID: 2, Label: "Reference", Watts: 4.05},
		},
		LDDs: []LDDProfile{
			{ID: 1, Label: "LDD1", SetCurrent: 12.5, ActualCurrent: 12.48},
		},
		TemperatureControls: []TempControlProfile{
			{ID: 1, Label: "LDD", Settable: true, SetTemp: 25, ActualTemp: 25.02, TECVoltage: 1.1, TECCurrent: 0.85},
			{ID: 2, Label: "SHG", Settable: true, SetTemp: 49.5, ActualTemp: 49.48, TECVoltage: -2.05, TECCurrent: 1.3},
			{ID: 3, Label: "THG", Settable: true, SetTemp: 51.3, ActualTemp: 51.31, TECVoltage: 1.92, TECCurrent: -1.12},
			{ID: 4, Label: "Base", ThermistorOnly: true, ActualTemp: 27.8},
		},
		ChillerFlow: ChillerFlowProfile{Enabled: true, Reading: 2.4},
		Humidity: []HumidityProfile{
			{ID: 1, Label: "Head", Reading: 31},
		},
		Motors: []MotorProfile{
			{ID: 1, Label: "SHG", Index: 1200},
			{ID: 2, Label: "THG", Index: 860},
		},
	}
}

// LoadProfile reads a YAML profile from path.
func LoadProfile(path string) (Profile, error) {
	errFactory := errors.New()

	data, err := os.ReadFile(path)
	if err != nil {
		return Profile{}, errFactory.Wrap(ErrProfileRead, err)
	}

	var p Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Profile{}, errFactory.Wrap(ErrProfileRead, err)
	}

	if err := p.Validate(); err != nil {
		return Profile{}, err
	}

	return p, nil
}

// Validate rejects profiles with duplicate channel ids.
func (p Profile) Validate() error {
	errFactory := errors.New()

	check := func(family string, ids []int) error {
		seen := make(map[int]bool, len(ids))
		for _, id := range ids {
			if seen[id] {
				return errFactory.WithData(ErrProfileInvalid, struct {
					Family string
					ID     int
				}{Family: family, ID: id})
			}
			seen[id] = true
		}
		return nil
	}

	ids := func(n int, at func(int) int) []int {
		out := make([]int, n)
		for i := range out {
			out[i] = at(i)
		}
		return out
	}

	families := []struct {
		name string
		ids  []int
	}{
		{"power_monitors", ids(len(p.PowerMonitors), func(i int) int { return p.PowerMonitors[i].ID })},
		{"ldds", ids(len(p.LDDs), func(i int) int { return p.LDDs[i].ID })},
		{"temperature_controls", ids(len(p.TemperatureControls), func(i int) int { return p.TemperatureControls[i].ID })},
		{"humidity", ids(len(p.Humidity), func(i int) int { return p.Humidity[i].ID })},
		{"motors", ids(len(p.Motors), func(i int) int { return p.Motors[i].ID })},
	}
	for _, f := range families {
		if err := check(f.name, f.ids); err != nil {
			return err
		}
	}

	return nil
}
