package server

import (
	"net/http"

	"github.com/desertthunder/cadence/internal/formatter"
	"github.com/desertthunder/cadence/internal/models"
)

type createPlaylistRequest struct {
	Name string `json:"name"`
}

type addSongRequest struct {
	SongID int64 `json:"song_id"`
}

func (s *Server) handleListPlaylists(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserID(r.Context())

	playlists, err := s.store.Playlists.ListByUser(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	out := make([]*formatter.PlaylistResponse, 0, len(playlists))
	for _, p := range playlists {
		agg, err := formatter.PlaylistToResponse(r.Context(), s.store.Playlists, p)
		if err != nil {
			writeError(w, err)
			return
		}
		out = append(out, agg)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreatePlaylist(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserID(r.Context())

	var req createPlaylistRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	playlist, err := s.store.Playlists.Create(r.Context(), userID, req.Name)
	if err != nil {
		writeError(w, err)
		return
	}
	s.writePlaylist(w, r, http.StatusCreated, playlist)
}

func (s *Server) handleGetPlaylist(w http.ResponseWriter, r *http.Request) {
	playlist, ok := s.ownedPlaylist(w, r)
	if !ok {
		return
	}
	s.writePlaylist(w, r, http.StatusOK, playlist)
}

func (s *Server) handleDeletePlaylist(w http.ResponseWriter, r *http.Request) {
	playlist, ok := s.ownedPlaylist(w, r)
	if !ok {
		return
	}

	if err := s.store.Playlists.Delete(r.Context(), playlist.ID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAddPlaylistSong(w http.ResponseWriter, r *http.Request) {
	playlist, ok := s.ownedPlaylist(w, r)
	if !ok {
		return
	}

	var req addSongRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	song, err := s.store.Songs.Get(r.Context(), req.SongID)
	if err != nil {
		writeError(w, err)
		return
	}
	if song == nil {
		writeError(w, notFound("song", req.SongID))
		return
	}

	added, err := s.store.Playlists.AddSong(r.Context(), playlist.ID, song.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"added": added})
}

func (s *Server) handleRemovePlaylistSong(w http.ResponseWriter, r *http.Request) {
	playlist, ok := s.ownedPlaylist(w, r)
	if !ok {
		return
	}

	songID, err := pathID(r, "songID")
	if err != nil {
		writeError(w, err)
		return
	}

	removed, err := s.store.Playlists.RemoveSong(r.Context(), playlist.ID, songID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"removed": removed})
}

// ownedPlaylist loads the playlist in the path and hides playlists owned by other users behind a 404.
func (s *Server) ownedPlaylist(w http.ResponseWriter, r *http.Request) (*models.Playlist, bool) {
	userID, _ := UserID(r.Context())

	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return nil, false
	}

	playlist, err := s.store.Playlists.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return nil, false
	}
	if playlist == nil || playlist.UserID != userID {
		writeError(w, notFound("playlist", id))
		return nil, false
	}
	return playlist, true
}

func (s *Server) writePlaylist(w http.ResponseWriter, r *http.Request, status int, playlist *models.Playlist) {
	agg, err := formatter.PlaylistToResponse(r.Context(), s.store.Playlists, playlist)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, status, agg)
}
