package media

import (
	"context"
	"os"
	"os/exec"
	"runtime"
)

// PickerVariant names the backend serving file picks.
type PickerVariant string

const (
	// DialogPickerVariant uses a native filesystem dialog and returns filesystem paths.
	DialogPickerVariant PickerVariant = "dialog"

	// UploadPickerVariant waits for a browser to upload files and returns in-memory handles.
	UploadPickerVariant PickerVariant = "upload"

	displayEnv        = "DISPLAY"
	waylandDisplayEnv = "WAYLAND_DISPLAY"
)

// Picker lets a user pick files.
// Returned items are either filesystem paths (string) or *Upload handles.
// Cancellation by the user is not an error - an empty result is returned instead.
type Picker interface {
	Pick(ctx context.Context, constraints Constraints) ([]interface{}, error)
	Variant() PickerVariant
}

// ProbeConfig controls selection of the picker.
type ProbeConfig struct {
	Dialog DialogPickerConfig
	// Variant forces specific picker when not empty.
	Variant PickerVariant
	Upload  UploadPickerConfig
}

// ProbePicker selects the picker once, based on the capabilities of the environment.
// Native dialog is preferred, the upload picker is a fallback.
func ProbePicker(cfg ProbeConfig) Picker {
	switch cfg.Variant {
	case DialogPickerVariant:
		return NewDialogPicker(cfg.Dialog)
	case UploadPickerVariant:
		return NewUploadPicker(cfg.Upload)
	}

	if DialogAvailable(cfg.Dialog.Binary) {
		return NewDialogPicker(cfg.Dialog)
	}

	return NewUploadPicker(cfg.Upload)
}

// DialogAvailable checks whether dialog binary can be found and there is a display to show it on.
func DialogAvailable(binary string) bool {
	if binary == "" {
		binary = defaultDialogBinary
	}

	if _, err := exec.LookPath(binary); err != nil {
		return false
	}

	if runtime.GOOS != "linux" && runtime.GOOS != "freebsd" {
		return true
	}

	return os.Getenv(displayEnv) != "" || os.Getenv(waylandDisplayEnv) != ""
}
