package sse

import (
	"encoding/json"

	"github.com/sarpt/crt-jukebox/pkg/media"
)

const (
	libraryChannelVariant  ChannelVariant = "library"
	pickerChannelVariant   ChannelVariant = "picker"
	playlistChannelVariant ChannelVariant = "playlist"
	poolChannelVariant     ChannelVariant = "pool"
	shellChannelVariant    ChannelVariant = "shell"
)

// Picker announces pending picks to the browser.
type Picker interface {
	Pending() (media.PickRequest, bool)
	Subscribe(cb func(change media.PickerChange)) func()
}

type pickerState struct {
	Pending bool              `json:"Pending"`
	Request media.PickRequest `json:"Request"`
}

func (ps pickerState) MarshalJSON() ([]byte, error) {
	type plain pickerState

	return json.Marshal(plain(ps))
}

func pickerReplay(picker Picker) ReplayProvider {
	return func() json.Marshaler {
		request, pending := picker.Pending()

		return pickerState{
			Pending: pending,
			Request: request,
		}
	}
}

func marshalerReplay(marshaler json.Marshaler) ReplayProvider {
	return func() json.Marshaler {
		return marshaler
	}
}
