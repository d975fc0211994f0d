package mpv

const (
	// AbsoluteValue specifies seek to an absolute position.
	AbsoluteValue = "absolute"
	// InfValue specifies infinity (eg. loop).
	InfValue = "inf"
	// NoValue is equivalent to false (where required by property).
	NoValue = "no"
	// ReplaceValue specifies loadfile command playback replacement.
	ReplaceValue = "replace"
	// YesValue is equivalent to true (where required by property).
	YesValue = "yes"
)

func flagValue(enabled bool) string {
	if enabled {
		return YesValue
	}

	return NoValue
}
