package camera

import (
	"context"
	"log"
	"path/filepath"
	"sort"

	"github.com/blackjack/webcam"
)

// KindVideoInput marks a device that can deliver video frames.
const KindVideoInput = "videoinput"

// Device is one enumerated capture device.
type Device struct {
	Path string
	Kind string
}

// Enumerator lists the available devices.
type Enumerator func() ([]Device, error)

// Opener opens a stream on a device.
type Opener interface {
	Open(ctx context.Context, dev Device, c Constraints) (Stream, error)
}

// devicePattern is where V4L2 exposes capture nodes.
var devicePattern = "/dev/video*"

// Enumerate probes every V4L2 node and reports the ones offering MJPEG as
// video inputs. Nodes that cannot be opened (metadata nodes, busy devices)
// are listed without a kind.
func Enumerate() ([]Device, error) {
	paths, err := filepath.Glob(devicePattern)
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)

	devices := make([]Device, 0, len(paths))
	for _, p := range paths {
		d := Device{Path: p}
		cam, err := webcam.Open(p)
		if err != nil {
			log.Printf("skipping %s: %v", p, err)
			devices = append(devices, d)
			continue
		}
		if _, ok := mjpegFormat(cam.GetSupportedFormats()); ok {
			d.Kind = KindVideoInput
		}
		if err := cam.Close(); err != nil {
			log.Printf("closing %s: %v", p, err)
		}
		devices = append(devices, d)
	}
	return devices, nil
}

// Fixed returns an Enumerator reporting one video input per path, for
// devices given on the command line and for stream URLs.
func Fixed(paths ...string) Enumerator {
	return func() ([]Device, error) {
		devs := make([]Device, 0, len(paths))
		for _, p := range paths {
			devs = append(devs, Device{Path: p, Kind: KindVideoInput})
		}
		return devs, nil
	}
}

// VideoInputs filters devs down to video inputs.
func VideoInputs(devs []Device) []Device {
	var out []Device
	for _, d := range devs {
		if d.Kind == KindVideoInput {
			out = append(out, d)
		}
	}
	return out
}

// pickDevice maps a facing mode onto the device list: the first input is
// the user-facing camera and the last one faces the environment.
func pickDevice(inputs []Device, f Facing) Device {
	if f == Environment {
		return inputs[len(inputs)-1]
	}
	return inputs[0]
}
