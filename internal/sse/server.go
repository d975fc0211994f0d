package sse

import (
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"sync"

	"github.com/google/uuid"

	"github.com/sarpt/crt-jukebox/internal/metrics"
	"github.com/sarpt/crt-jukebox/pkg/media"
	"github.com/sarpt/crt-jukebox/pkg/state"
	"github.com/sarpt/crt-jukebox/pkg/state/pkg/library"
	"github.com/sarpt/crt-jukebox/pkg/state/pkg/playlist"
	"github.com/sarpt/crt-jukebox/pkg/state/pkg/pool"
	"github.com/sarpt/crt-jukebox/pkg/state/pkg/shell"
)

const (
	logPrefix = "sse.Server#"

	// PathBase is a prefix of every SSE path.
	PathBase = "/sse/"

	channelArg = "channel"
	replayArg  = "replay"
)

var (
	registerPath = fmt.Sprintf("%schannels", PathBase)
)

// Server holds information about handled SSE connections and their observers.
type Server struct {
	channels      map[ChannelVariant]channel
	errLog        *log.Logger
	outLog        *log.Logger
	unsubscribers []func()
}

// Config controls behaviour of the SSE server.
// Picker channel is available only when Picker is provided.
type Config struct {
	ErrWriter        io.Writer
	OutWriter        io.Writer
	Picker           Picker
	StatesRepository state.Repository
}

// NewServer prepares and returns SSE server subscribed to the state changes.
func NewServer(cfg Config) *Server {
	if cfg.OutWriter == nil {
		cfg.OutWriter = os.Stdout
	}
	if cfg.ErrWriter == nil {
		cfg.ErrWriter = os.Stderr
	}

	s := &Server{
		channels: map[ChannelVariant]channel{},
		errLog:   log.New(cfg.ErrWriter, logPrefix, log.LstdFlags),
		outLog:   log.New(cfg.OutWriter, logPrefix, log.LstdFlags),
	}
	s.subscribeToStateChanges(cfg.StatesRepository)

	if cfg.Picker != nil {
		pickerChannel := NewStateChannel[media.PickerChange](pickerChannelVariant, pickerReplay(cfg.Picker))
		s.channels[pickerChannelVariant] = pickerChannel
		s.unsubscribers = append(s.unsubscribers, cfg.Picker.Subscribe(pickerChannel.BroadcastToChannelObservers))
	}

	return s
}

// Handler returns http.Handler responsible for SSE handling subtree.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(registerPath, s.registerHandler)

	return mux
}

// Shutdown stops distribution of state changes.
func (s *Server) Shutdown() {
	for _, unsubscribe := range s.unsubscribers {
		unsubscribe()
	}
	s.unsubscribers = nil
}

// subscribeToStateChanges starts listening on state changes for further distribution to channel observers.
func (s *Server) subscribeToStateChanges(repository state.Repository) {
	ignoreErr := func(err error) {}

	libraryChannel := NewStateChannel[library.Change](libraryChannelVariant, marshalerReplay(repository.Library()))
	s.channels[libraryChannelVariant] = libraryChannel
	s.unsubscribers = append(s.unsubscribers, repository.Library().Subscribe(libraryChannel.BroadcastToChannelObservers, ignoreErr))

	playlistChannel := NewStateChannel[playlist.Change](playlistChannelVariant, marshalerReplay(repository.Playlist()))
	s.channels[playlistChannelVariant] = playlistChannel
	s.unsubscribers = append(s.unsubscribers, repository.Playlist().Subscribe(playlistChannel.BroadcastToChannelObservers, ignoreErr))

	poolChannel := NewStateChannel[pool.Change](poolChannelVariant, marshalerReplay(repository.Pool()))
	s.channels[poolChannelVariant] = poolChannel
	s.unsubscribers = append(s.unsubscribers, repository.Pool().Subscribe(poolChannel.BroadcastToChannelObservers, ignoreErr))

	shellChannel := NewStateChannel[shell.Change](shellChannelVariant, marshalerReplay(repository.Shell()))
	s.channels[shellChannelVariant] = shellChannel
	s.unsubscribers = append(s.unsubscribers, repository.Shell().Subscribe(shellChannel.BroadcastToChannelObservers, ignoreErr))
}

func (s *Server) registerHandler(res http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet {
		res.WriteHeader(http.StatusMethodNotAllowed)

		return
	}

	selected := []channel{}
	for _, variant := range req.URL.Query()[channelArg] {
		channel, ok := s.channels[ChannelVariant(variant)]
		if !ok {
			s.errLog.Printf("%s requested unknown channel '%s'\n", req.RemoteAddr, variant)
			continue
		}

		selected = append(selected, channel)
	}

	if len(selected) == 0 {
		res.WriteHeader(http.StatusBadRequest)

		return
	}

	sseRes, err := sseResponseWriter(res)
	if err != nil {
		s.errLog.Printf("could not serve sse for %s: %s\n", req.RemoteAddr, err)
		res.WriteHeader(http.StatusInternalServerError)

		return
	}

	res.WriteHeader(http.StatusOK)
	sseRes.flusher.Flush()

	// a single connection may observe the same channel more than once over http/2
	address := fmt.Sprintf("%s#%s", req.RemoteAddr, uuid.NewString())

	wg := &sync.WaitGroup{}
	for _, channel := range selected {
		wg.Add(1)
		go s.observeChannelVariant(req, sseRes, channel, address, wg)
	}

	wg.Wait()
	s.outLog.Printf("all sse channels closed for %s\n", req.RemoteAddr)
}

func (s *Server) observeChannelVariant(req *http.Request, res ResponseWriter, sseChannel channel, address string, wg *sync.WaitGroup) {
	defer wg.Done()

	variant := sseChannel.Variant()
	if !sseChannel.AddObserver(address) {
		s.errLog.Printf("%s already observes channel %s\n", req.RemoteAddr, variant)

		return
	}
	metrics.SSEObservers.WithLabelValues(string(variant)).Inc()
	s.outLog.Printf("added %s observer with addr %s\n", variant, req.RemoteAddr)

	defer func() {
		sseChannel.RemoveObserver(address)
		metrics.SSEObservers.WithLabelValues(string(variant)).Dec()
		s.outLog.Printf("removed %s observer with addr %s\n", variant, req.RemoteAddr)
	}()

	if replayState(req) {
		err := sseChannel.Replay(res)
		if err != nil {
			s.errLog.Printf("could not replay %s on sse for %s: %s\n", variant, req.RemoteAddr, err)
		}
	}

	err := sseChannel.ServeObserver(req.Context(), address, res)
	if err != nil {
		s.errLog.Printf("sse observation of %s for %s failed: %s\n", variant, req.RemoteAddr, err)
	}
}

func replayState(req *http.Request) bool {
	replay, ok := req.URL.Query()[replayArg]

	return ok && len(replay) > 0 && replay[0] == "true"
}
