// Package sensors provides the ranging task and the sensor interfaces
// consumed by the command dispatcher. Register-level drivers live
// behind these interfaces and are not part of this repository.
package sensors

// Magnetometer is the calibration interface of the compass driver.
// Calibrate blocks while it collects the bounded number of samples.
type Magnetometer interface {
	Calibrate(samples, delayMs int) error
}

// Calibration defaults, matching the compass bring-up procedure.
const (
	CalibrationSamples = 1000
	CalibrationDelayMs = 50
)

// NullMagnetometer satisfies Magnetometer where no compass is fitted.
type NullMagnetometer struct{}

// Calibrate implements Magnetometer.
func (NullMagnetometer) Calibrate(samples, delayMs int) error {
	return nil
}
