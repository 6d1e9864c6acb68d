// Package env provides host environment identity helpers.
package env

import (
	"github.com/denisbrodbeck/machineid"
)

// MachineID retrieves the unique ID identifying the host machine, used
// to key telemetry topics and client identities.
func MachineID() string {
	id, err := machineid.ID()
	if err != nil {
		panic(err)
	}
	return id
}
