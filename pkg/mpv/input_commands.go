package mpv

const (
	loadfileCommand    = "loadfile"
	quitCommand        = "quit"
	seekCommand        = "seek"
	setPropertyCommand = "set_property"
)
