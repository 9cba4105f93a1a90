// Package backend holds the static hardware profiles used for resource and
// fidelity estimation and for noise presets. Profiles are configuration
// data, not computed values; the numbers are representative of published
// calibration figures, not live ones.
package backend

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrUnknownBackend is returned when an estimate references a profile that
// is not in the table.
var ErrUnknownBackend = errors.New("unknown backend")

// Profile describes one hardware target. Times are nanoseconds, T1/T2
// microseconds, error rates are per-gate probabilities.
type Profile struct {
	Name            string  `json:"name"`
	Vendor          string  `json:"vendor"`
	Qubits          int     `json:"qubits"`
	SingleQubitErr  float64 `json:"singleQubitError"`
	TwoQubitErr     float64 `json:"twoQubitError"`
	ReadoutErr      float64 `json:"readoutError"`
	SingleQubitTime float64 `json:"singleQubitTimeNs"`
	TwoQubitTime    float64 `json:"twoQubitTimeNs"`
	ReadoutTime     float64 `json:"readoutTimeNs"`
	T1              float64 `json:"t1Us"`
	T2              float64 `json:"t2Us"`

	// Depolarizing is the per-gate depolarizing probability preset used
	// when simulating with this profile's noise.
	Depolarizing float64 `json:"depolarizing"`
}

var profiles = map[string]Profile{
	"ideal": {
		Name:   "ideal",
		Vendor: "simulator",
		Qubits: 1024,
	},
	"ibm_brisbane": {
		Name:            "ibm_brisbane",
		Vendor:          "IBM",
		Qubits:          127,
		SingleQubitErr:  2.3e-4,
		TwoQubitErr:     7.7e-3,
		ReadoutErr:      1.3e-2,
		SingleQubitTime: 35,
		TwoQubitTime:    660,
		ReadoutTime:     4000,
		T1:              220,
		T2:              150,
		Depolarizing:    1e-3,
	},
	"ibm_osaka": {
		Name:            "ibm_osaka",
		Vendor:          "IBM",
		Qubits:          127,
		SingleQubitErr:  3.1e-4,
		TwoQubitErr:     9.2e-3,
		ReadoutErr:      2.1e-2,
		SingleQubitTime: 35,
		TwoQubitTime:    660,
		ReadoutTime:     4000,
		T1:              180,
		T2:              120,
		Depolarizing:    2e-3,
	},
	"ibm_kyoto": {
		Name:            "ibm_kyoto",
		Vendor:          "IBM",
		Qubits:          127,
		SingleQubitErr:  2.0e-4,
		TwoQubitErr:     6.5e-3,
		ReadoutErr:      1.1e-2,
		SingleQubitTime: 35,
		TwoQubitTime:    660,
		ReadoutTime:     4000,
		T1:              220,
		T2:              180,
		Depolarizing:    8e-4,
	},
	"ionq_aria": {
		Name:            "ionq_aria",
		Vendor:          "IonQ",
		Qubits:          25,
		SingleQubitErr:  5.0e-4,
		TwoQubitErr:     4.0e-3,
		ReadoutErr:      3.9e-3,
		SingleQubitTime: 10000,
		TwoQubitTime:    200000,
		ReadoutTime:     130000,
		T1:              1e7,
		T2:              1e6,
		Depolarizing:    6e-4,
	},
	"rigetti_ankaa": {
		Name:            "rigetti_ankaa",
		Vendor:          "Rigetti",
		Qubits:          84,
		SingleQubitErr:  1.5e-3,
		TwoQubitErr:     2.4e-2,
		ReadoutErr:      4.0e-2,
		SingleQubitTime: 40,
		TwoQubitTime:    70,
		ReadoutTime:     2000,
		T1:              21,
		T2:              24,
		Depolarizing:    5e-3,
	},
}

// Default is the profile used when a request names none.
const Default = "ibm_brisbane"

// Get resolves a profile by name (case-insensitive). An empty name selects
// Default.
func Get(name string) (Profile, error) {
	if name == "" {
		name = Default
	}
	p, ok := profiles[strings.ToLower(name)]
	if !ok {
		return Profile{}, fmt.Errorf("%w: %q", ErrUnknownBackend, name)
	}
	return p, nil
}

// Names returns the profile names, sorted.
func Names() []string {
	out := make([]string, 0, len(profiles))
	for name := range profiles {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
