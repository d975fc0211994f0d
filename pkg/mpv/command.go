package mpv

// command holds the name and arguments of the command to be dispatched.
type command struct {
	name     string
	elements []interface{}
}

// JSONIPCFormat returns the representation expected by the mpv in the JSON payload.
func (cmd command) JSONIPCFormat() []interface{} {
	return append([]interface{}{cmd.name}, cmd.elements...)
}
