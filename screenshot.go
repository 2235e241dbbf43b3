package vkcapture

import (
	"os"

	"github.com/cockroachdb/errors"
)

// ErrFileOpen marks the one locally recoverable failure class: the
// destination path could not be opened for writing. Staging resources are
// already released when a Save call returns an error matching this
// sentinel, and no partial file is left behind beyond whatever the
// filesystem created.
var ErrFileOpen = errors.New("vkcapture: cannot open destination file")

// ErrNoDriver is returned when no native driver is registered and the
// request does not carry one. Importing the vkdriver subpackage registers
// the production driver.
var ErrNoDriver = errors.New("vkcapture: no driver registered")

// Save captures req.SrcImage into the file at req.Path as a binary PPM.
//
// The call is synchronous: it blocks on device completion before the first
// byte is written. The source image must be in PRESENT_SRC layout and free
// of concurrent GPU writes for the duration of the call; it is returned in
// PRESENT_SRC layout on every path.
//
// Any staging resource created by the call is released before Save returns,
// on success and on every failure.
func Save(req CaptureRequest) error {
	drv := req.Driver
	if drv == nil {
		drv = DefaultDriver()
	}
	if drv == nil {
		return ErrNoDriver
	}
	if req.Commands == nil {
		return errors.New("vkcapture: nil command manager")
	}

	log := Logger()

	plan := probeTransfer(drv, req.PhysicalDevice, req.SrcFormat)
	log.Debug("transfer path chosen",
		"blit", plan.blit,
		"swap_channels", plan.swapChannels,
		"format", req.SrcFormat)

	staging, err := createStaging(drv, req.Device, req.Commands, req.Width, req.Height)
	if err != nil {
		return err
	}
	defer staging.Release()

	if err := executeTransfer(drv, req, staging.image, plan); err != nil {
		return err
	}

	layout := staging.Layout()
	log.Debug("staging subresource layout",
		"offset", layout.Offset,
		"row_pitch", layout.RowPitch)

	mapped, err := staging.Map()
	if err != nil {
		return err
	}

	view, err := NewPixelView(mapped, int(layout.Offset), int(layout.RowPitch), int(req.Width), int(req.Height))
	if err != nil {
		return err
	}

	f, err := os.Create(req.Path)
	if err != nil {
		return errors.Mark(errors.Wrapf(err, "vkcapture: open %s", req.Path), ErrFileOpen)
	}

	if err := EncodePPM(f, view, plan.swapChannels); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return errors.Wrapf(err, "vkcapture: close %s", req.Path)
	}

	log.Info("screenshot saved", "path", req.Path)
	return nil
}
