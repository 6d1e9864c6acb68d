package link

import (
	"io"
	"time"

	"github.com/tarm/serial"
)

// SerialConfig holds the serial port settings for the controller link.
type SerialConfig struct {
	Device      string
	Baud        int
	ReadTimeout time.Duration
}

// DefaultBaud is the controller link baud rate.
const DefaultBaud = 115200

// OpenSerial opens the serial port to the controller.
func OpenSerial(conf SerialConfig) (io.ReadWriteCloser, error) {
	baud := conf.Baud
	if baud == 0 {
		baud = DefaultBaud
	}
	return serial.OpenPort(&serial.Config{
		Name:        conf.Device,
		Baud:        baud,
		ReadTimeout: conf.ReadTimeout,
	})
}
