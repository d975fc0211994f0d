package api

import "github.com/fsnotify/fsnotify"

func (s *Server) handleFsEvent(event fsnotify.Event) {
	if shouldRemoveMediaPath(event.Op) {
		removed := s.repository.Library().TakeEntries([]string{event.Name})
		if len(removed) > 0 {
			s.outLog.Printf("removed media file '%s'\n", event.Name)
		}

		return
	}

	if shouldAddMediaPath(event.Op) {
		added := s.repository.Library().AddEntries([]string{event.Name})
		if len(added) > 0 {
			s.outLog.Printf("added media file '%s'\n", event.Name)
		}
	}
}

func (s *Server) watchForFsChanges() {
	go func() {
		for {
			select {
			case event, ok := <-s.fsWatcher.Events:
				if !ok {
					return
				}

				s.handleFsEvent(event)
			case err, ok := <-s.fsWatcher.Errors:
				if !ok {
					return
				}

				s.errLog.Printf("fs watcher returned an error: %s\n", err)
			}
		}
	}()
}

func shouldAddMediaPath(op fsnotify.Op) bool {
	return op&fsnotify.Create == fsnotify.Create
}

func shouldRemoveMediaPath(op fsnotify.Op) bool {
	return op&(fsnotify.Rename|fsnotify.Remove) != 0
}
