package mpv

const (
	// FullscreenProperty is used to inform about state of mpv being in full screen.
	FullscreenProperty = "fullscreen"

	// LoopFileProperty is used for looping currently played file.
	LoopFileProperty = "loop-file"

	// MuteProperty is used for muting or unmuting audio.
	MuteProperty = "mute"

	// OnTopProperty keeps the window above other windows, making it the visible viewport.
	OnTopProperty = "ontop"

	// PauseProperty is used for pausing or unpausing playback.
	PauseProperty = "pause"

	// VolumeProperty is used for setting volume in range 0-100.
	VolumeProperty = "volume"

	// WindowMinimizedProperty hides the window of parked players.
	WindowMinimizedProperty = "window-minimized"
)
