package server

import (
	"net/http"

	"github.com/desertthunder/cadence/internal/formatter"
	"github.com/desertthunder/cadence/internal/models"
)

type rateRequest struct {
	Rating int `json:"rating"`
}

func (s *Server) handleListSongs(w http.ResponseWriter, r *http.Request) {
	songs, err := s.store.Songs.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, formatter.SongsToResponse(songs))
}

func (s *Server) handleSearchSongs(w http.ResponseWriter, r *http.Request) {
	songs, err := s.store.Songs.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, formatter.SongsToResponse(songs))
}

func (s *Server) handleSongDetail(w http.ResponseWriter, r *http.Request) {
	song, ok := s.songFromPath(w, r, "id")
	if !ok {
		return
	}

	detail, err := formatter.SongDetail(r.Context(), s.store.Ratings, song)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (s *Server) handlePlaySong(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserID(r.Context())
	song, ok := s.songFromPath(w, r, "id")
	if !ok {
		return
	}

	entry, err := s.store.History.Record(r.Context(), userID, song.ID)
	if err != nil {
		writeError(w, err)
		return
	}

	resp, err := formatter.HistoryEntryToResponse(r.Context(), s.store.Songs, entry)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleRateSong(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserID(r.Context())

	var req rateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := models.ValidateRating(req.Rating); err != nil {
		writeError(w, err)
		return
	}

	song, ok := s.songFromPath(w, r, "id")
	if !ok {
		return
	}

	rating, err := s.store.Ratings.Rate(r.Context(), userID, song.ID, req.Rating)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rating)
}

// songFromPath loads the song named by a path parameter, writing the error response on failure.
func (s *Server) songFromPath(w http.ResponseWriter, r *http.Request, param string) (*models.Song, bool) {
	id, err := pathID(r, param)
	if err != nil {
		writeError(w, err)
		return nil, false
	}

	song, err := s.store.Songs.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return nil, false
	}
	if song == nil {
		writeError(w, notFound("song", id))
		return nil, false
	}
	return song, true
}
