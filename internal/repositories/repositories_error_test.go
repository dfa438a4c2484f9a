package repositories

import (
	"context"
	"errors"
	"testing"

	"github.com/desertthunder/cadence/internal/models"
	"github.com/desertthunder/cadence/internal/shared"
)

func TestUserRepositoryErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("Create", func(t *testing.T) {
		t.Run("DuplicateUsername", func(t *testing.T) {
			s := setupTestDB(t)
			mustCreateUser(t, s, "alice", "a@x.com")

			_, err := s.Users.Create(ctx, "alice", "other@x.com", "pw")
			if !errors.Is(err, shared.ErrConstraintViolation) {
				t.Fatalf("expected ErrConstraintViolation, got %v", err)
			}
		})

		t.Run("DuplicateEmail", func(t *testing.T) {
			s := setupTestDB(t)
			mustCreateUser(t, s, "alice", "a@x.com")

			_, err := s.Users.Create(ctx, "alice2", "a@x.com", "pw")
			if !errors.Is(err, shared.ErrConstraintViolation) {
				t.Fatalf("expected ErrConstraintViolation, got %v", err)
			}
		})

		t.Run("ValidationError", func(t *testing.T) {
			s := setupTestDB(t)
			cases := []struct{ username, email, password string }{
				{"", "a@x.com", "pw"},
				{"alice", "not-an-email", "pw"},
				{"alice", "a@x.com", ""},
			}
			for _, c := range cases {
				if _, err := s.Users.Create(ctx, c.username, c.email, c.password); !errors.Is(err, shared.ErrValidation) {
					t.Errorf("%+v: expected ErrValidation, got %v", c, err)
				}
			}
			if got := count(t, s, "users"); got != 0 {
				t.Errorf("expected no users written, got %d", got)
			}
		})
	})

	t.Run("UpdatePassword", func(t *testing.T) {
		t.Run("NotFound", func(t *testing.T) {
			s := setupTestDB(t)
			if err := s.Users.UpdatePassword(ctx, 42, "pw"); !errors.Is(err, shared.ErrNotFound) {
				t.Fatalf("expected ErrNotFound, got %v", err)
			}
		})
	})

	t.Run("Delete", func(t *testing.T) {
		t.Run("NotFound", func(t *testing.T) {
			s := setupTestDB(t)
			if err := s.Users.Delete(ctx, 42); !errors.Is(err, shared.ErrNotFound) {
				t.Fatalf("expected ErrNotFound, got %v", err)
			}
		})
	})
}

func TestSongRepositoryErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("Create", func(t *testing.T) {
		t.Run("ValidationError", func(t *testing.T) {
			s := setupTestDB(t)
			_, err := s.Songs.Create(ctx, models.Song{Title: "No Artist", FilePath: "/x.mp3"})
			if !errors.Is(err, shared.ErrValidation) {
				t.Fatalf("expected ErrValidation, got %v", err)
			}
		})
	})

	t.Run("Delete", func(t *testing.T) {
		t.Run("NotFound", func(t *testing.T) {
			s := setupTestDB(t)
			if err := s.Songs.Delete(ctx, 7); !errors.Is(err, shared.ErrNotFound) {
				t.Fatalf("expected ErrNotFound, got %v", err)
			}
		})
	})

	t.Run("Get", func(t *testing.T) {
		t.Run("NotFound", func(t *testing.T) {
			s := setupTestDB(t)
			song, err := s.Songs.Get(ctx, 7)
			if err != nil || song != nil {
				t.Fatalf("expected nil, nil; got %+v, %v", song, err)
			}
		})
	})
}

func TestPlaylistRepositoryErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("Create", func(t *testing.T) {
		t.Run("UnknownUser", func(t *testing.T) {
			s := setupTestDB(t)
			_, err := s.Playlists.Create(ctx, 999, "Orphan")
			if !errors.Is(err, shared.ErrConstraintViolation) {
				t.Fatalf("expected ErrConstraintViolation, got %v", err)
			}
		})

		t.Run("EmptyName", func(t *testing.T) {
			s := setupTestDB(t)
			user := mustCreateUser(t, s, "alice", "a@x.com")
			_, err := s.Playlists.Create(ctx, user.ID, "  ")
			if !errors.Is(err, shared.ErrValidation) {
				t.Fatalf("expected ErrValidation, got %v", err)
			}
		})
	})

	t.Run("AddSong", func(t *testing.T) {
		t.Run("UnknownSong", func(t *testing.T) {
			s := setupTestDB(t)
			user := mustCreateUser(t, s, "alice", "a@x.com")
			playlist, _ := s.Playlists.Create(ctx, user.ID, "Mix")

			added, err := s.Playlists.AddSong(ctx, playlist.ID, 404)
			if !errors.Is(err, shared.ErrConstraintViolation) {
				t.Fatalf("expected ErrConstraintViolation, got %v", err)
			}
			if added {
				t.Error("expected added=false on failure")
			}
		})

		t.Run("DuplicateInsertIsGuardedByKey", func(t *testing.T) {
			s := setupTestDB(t)
			user := mustCreateUser(t, s, "alice", "a@x.com")
			song := mustCreateSong(t, s, "Believer", "Imagine Dragons", "Evolve")
			playlist, _ := s.Playlists.Create(ctx, user.ID, "Mix")
			s.Playlists.AddSong(ctx, playlist.ID, song.ID)

			_, err := s.db.Exec("INSERT INTO playlist_songs (playlist_id, song_id) VALUES (?, ?)", playlist.ID, song.ID)
			if !errors.Is(classify("insert", err), shared.ErrConstraintViolation) {
				t.Fatalf("expected the primary key to reject duplicates, got %v", err)
			}
		})
	})

	t.Run("Delete", func(t *testing.T) {
		t.Run("NotFound", func(t *testing.T) {
			s := setupTestDB(t)
			if err := s.Playlists.Delete(ctx, 5); !errors.Is(err, shared.ErrNotFound) {
				t.Fatalf("expected ErrNotFound, got %v", err)
			}
		})
	})
}

func TestRatingRepositoryErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("UnknownSong", func(t *testing.T) {
		s := setupTestDB(t)
		user := mustCreateUser(t, s, "alice", "a@x.com")
		_, err := s.Ratings.Rate(ctx, user.ID, 404, 3)
		if !errors.Is(err, shared.ErrConstraintViolation) {
			t.Fatalf("expected ErrConstraintViolation, got %v", err)
		}
	})

	t.Run("CheckConstraint", func(t *testing.T) {
		s := setupTestDB(t)
		user := mustCreateUser(t, s, "alice", "a@x.com")
		song := mustCreateSong(t, s, "Believer", "Imagine Dragons", "Evolve")

		_, err := s.db.Exec("INSERT INTO ratings (user_id, song_id, rating) VALUES (?, ?, 9)", user.ID, song.ID)
		if !errors.Is(classify("insert", err), shared.ErrValidation) {
			t.Fatalf("expected CHECK failure to classify as ErrValidation, got %v", err)
		}
	})
}

func TestSubscriptionRepositoryErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("End", func(t *testing.T) {
		t.Run("NotFound", func(t *testing.T) {
			s := setupTestDB(t)
			user := mustCreateUser(t, s, "alice", "a@x.com")
			if err := s.Subscriptions.End(ctx, user.ID, epoch); !errors.Is(err, shared.ErrNotFound) {
				t.Fatalf("expected ErrNotFound, got %v", err)
			}
		})
	})

	t.Run("UnknownUser", func(t *testing.T) {
		s := setupTestDB(t)
		if _, err := s.Subscriptions.Set(ctx, 77, models.LevelFree, nil); !errors.Is(err, shared.ErrConstraintViolation) {
			t.Fatalf("expected ErrConstraintViolation, got %v", err)
		}
	})
}

func TestStorageUnavailable(t *testing.T) {
	s := setupTestDB(t)
	s.db.Close()

	_, err := s.Songs.List(context.Background())
	if !errors.Is(err, shared.ErrStorageUnavailable) {
		t.Fatalf("expected ErrStorageUnavailable, got %v", err)
	}

	if err := s.WithTx(context.Background(), func(*Store) error { return nil }); !errors.Is(err, shared.ErrStorageUnavailable) {
		t.Fatalf("expected ErrStorageUnavailable from WithTx, got %v", err)
	}
}

func TestClassify(t *testing.T) {
	if classify("noop", nil) != nil {
		t.Error("nil error should stay nil")
	}

	err := classify("query", context.Canceled)
	if !errors.Is(err, context.Canceled) || errors.Is(err, shared.ErrStorageUnavailable) {
		t.Errorf("cancellation should pass through unclassified, got %v", err)
	}
}
