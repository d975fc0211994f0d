package shell_test

import (
	"testing"

	"github.com/sarpt/crt-jukebox/internal/common"
	"github.com/sarpt/crt-jukebox/pkg/state/pkg/shell"
)

func TestDismissStatic_OncePerCycle(t *testing.T) {
	// given
	uut := shell.NewStorage(nil)

	// when
	first := uut.DismissStatic()
	second := uut.DismissStatic()
	uut.ShowStatic()
	third := uut.DismissStatic()

	// then
	if !first || second || !third {
		t.Errorf("Expected dismissals true, false, true; got %t, %t, %t", first, second, third)
	}
}

func TestToggles(t *testing.T) {
	// given
	broadcaster := common.NewChangesBroadcaster[shell.Change]()
	broadcaster.Broadcast()
	defer broadcaster.Close()

	uut := shell.NewStorage(broadcaster)
	received := make(chan shell.Change, 3)
	unsubscribe := uut.Subscribe(func(change shell.Change) {
		received <- change
	}, nil)
	defer unsubscribe()

	// when
	uut.ToggleCRT()
	uut.ToggleGamepad()
	uut.SetFullscreen(true)
	uut.SetFullscreen(true)

	// then
	for _, expected := range []common.ChangeVariant{shell.CRTChange, shell.GamepadChange, shell.FullscreenChange} {
		change := <-received
		if change.Variant() != expected {
			t.Errorf("Expected %s change, got %s", expected, change.Variant())
		}
	}

	snapshot := uut.Snapshot()
	if !snapshot.CRT || !snapshot.Gamepad || !snapshot.Fullscreen {
		t.Errorf("Unexpected snapshot %+v", snapshot)
	}

	if uut.Revision() != 3 {
		t.Errorf("Expected revision 3, got %d", uut.Revision())
	}
}
