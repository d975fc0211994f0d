package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/samber/lo"
)

const (
	defaultDialogBinary = "zenity"
	defaultDialogTitle  = "Load videos"

	dialogSeparator       = "|"
	dialogCancelledStatus = 1
)

var (
	// ErrDialogFailed informs about dialog process failing for a reason other than user cancellation.
	ErrDialogFailed = errors.New("file dialog failed")
)

// commandRunner runs the dialog and returns its standard output and exit status.
type commandRunner func(ctx context.Context, name string, args ...string) ([]byte, int, error)

type DialogPickerConfig struct {
	Binary string
	Title  string
}

// DialogPicker shows a native file selection dialog on the machine running the service.
type DialogPicker struct {
	binary string
	run    commandRunner
	title  string
}

func NewDialogPicker(cfg DialogPickerConfig) *DialogPicker {
	if cfg.Binary == "" {
		cfg.Binary = defaultDialogBinary
	}
	if cfg.Title == "" {
		cfg.Title = defaultDialogTitle
	}

	return &DialogPicker{
		binary: cfg.Binary,
		run:    runCommand,
		title:  cfg.Title,
	}
}

// Pick blocks until user finishes interaction with the dialog.
func (dp *DialogPicker) Pick(ctx context.Context, constraints Constraints) ([]interface{}, error) {
	out, status, err := dp.run(ctx, dp.binary, dp.args(constraints)...)
	if status == dialogCancelledStatus || ctx.Err() != nil {
		return []interface{}{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrDialogFailed, err)
	}

	selection := strings.TrimRight(string(out), "\r\n")
	if selection == "" {
		return []interface{}{}, nil
	}

	paths := lo.Filter(strings.Split(selection, dialogSeparator), func(path string, _ int) bool {
		return path != ""
	})
	if !constraints.Multiple && len(paths) > 1 {
		paths = paths[:1]
	}

	return lo.Map(paths, func(path string, _ int) interface{} {
		return path
	}), nil
}

func (dp *DialogPicker) Variant() PickerVariant {
	return DialogPickerVariant
}

func (dp *DialogPicker) args(constraints Constraints) []string {
	args := []string{
		"--file-selection",
		fmt.Sprintf("--title=%s", dp.title),
		fmt.Sprintf("--separator=%s", dialogSeparator),
	}

	if constraints.Multiple {
		args = append(args, "--multiple")
	}

	for _, filter := range constraints.Filters {
		if len(filter.Extensions) == 0 {
			continue
		}

		patterns := lo.Map(filter.Extensions, func(ext string, _ int) string {
			return "*." + strings.TrimPrefix(ext, ".")
		})
		args = append(args, fmt.Sprintf("--file-filter=%s | %s", filter.Name, strings.Join(patterns, " ")))
	}

	return args
}

func runCommand(ctx context.Context, name string, args ...string) ([]byte, int, error) {
	var stdout bytes.Buffer

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout

	err := cmd.Run()
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return stdout.Bytes(), exitErr.ExitCode(), err
	}

	return stdout.Bytes(), 0, err
}
