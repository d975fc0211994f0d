package jukebox

// Key is a name of a pressed key, as reported by browsers in KeyboardEvent.key.
type Key string

const (
	ArrowRightKey Key = "ArrowRight"
	ArrowLeftKey  Key = "ArrowLeft"
	ArrowUpKey    Key = "ArrowUp"
	ArrowDownKey  Key = "ArrowDown"
)

type keyAction func(j *Jukebox)

// playlistKeys are handled only when the playlist is not empty.
var playlistKeys = map[Key]keyAction{
	ArrowRightKey: func(j *Jukebox) { j.playlist.Rotate(1) },
	ArrowLeftKey:  func(j *Jukebox) { j.playlist.Rotate(-1) },
	ArrowUpKey:    func(j *Jukebox) { j.playlist.Page(-1) },
	ArrowDownKey:  func(j *Jukebox) { j.playlist.Page(1) },
	"1":           func(j *Jukebox) { j.playlist.SelectVisible(1) },
	"2":           func(j *Jukebox) { j.playlist.SelectVisible(2) },
	"3":           func(j *Jukebox) { j.playlist.SelectVisible(3) },
	"4":           func(j *Jukebox) { j.playlist.SelectVisible(4) },
	"m":           func(j *Jukebox) { j.playlist.MuteAllExceptSelected() },
	"M":           func(j *Jukebox) { j.playlist.MuteAllExceptSelected() },
	"g":           func(j *Jukebox) { j.shell.ToggleGamepad() },
	"G":           func(j *Jukebox) { j.shell.ToggleGamepad() },
}

// globalKeys are handled regardless of the playlist contents.
var globalKeys = map[Key]keyAction{
	"f": func(j *Jukebox) { j.ToggleFullscreen() },
	"F": func(j *Jukebox) { j.ToggleFullscreen() },
}

// IsKnown reports whether key has any action bound.
func IsKnown(key Key) bool {
	_, global := globalKeys[key]
	_, playlist := playlistKeys[key]

	return global || playlist
}
