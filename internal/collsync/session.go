package collsync

import (
	"strings"

	"github.com/kozaktomas/collection-sync/internal/poster"
)

// Session is the state of one sync run: collections created during the run
// and generated posters not yet cleaned up. Create one per run and discard it
// afterwards.
type Session struct {
	created map[string]string // lower-cased name -> server id
	posters []poster.RenderedPoster
	movies  map[string]string // TMDb id -> server item id, loaded once
}

func NewSession() *Session {
	return &Session{created: make(map[string]string)}
}

func sessionKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Created returns the id of a collection created earlier in this run.
func (s *Session) Created(name string) (string, bool) {
	id, ok := s.created[sessionKey(name)]
	return id, ok
}

func (s *Session) trackCreated(name, id string) {
	s.created[sessionKey(name)] = id
}

// CreatedCount is the number of collections created in this run.
func (s *Session) CreatedCount() int {
	return len(s.created)
}

func (s *Session) trackPoster(p poster.RenderedPoster) {
	s.posters = append(s.posters, p)
}

func (s *Session) untrackPoster(path string) {
	for i, p := range s.posters {
		if p.Path == path {
			s.posters = append(s.posters[:i], s.posters[i+1:]...)
			return
		}
	}
}

// Posters returns generated posters that have not been removed yet.
func (s *Session) Posters() []poster.RenderedPoster {
	return append([]poster.RenderedPoster(nil), s.posters...)
}
