package tasks

import (
	"context"
	"testing"

	"github.com/desertthunder/cadence/internal/repositories"
	tu "github.com/desertthunder/cadence/internal/testing"
)

func setupStore(t *testing.T) *repositories.Store {
	t.Helper()
	return repositories.NewStore(tu.MustOpenDB(t))
}

func TestDefaultSeedCatalog(t *testing.T) {
	catalog, err := DefaultSeedCatalog()
	if err != nil {
		t.Fatalf("failed to parse seed catalog: %v", err)
	}

	if len(catalog.Songs) != 6 {
		t.Errorf("expected 6 songs, got %d", len(catalog.Songs))
	}
	if catalog.Demo.Username != "demo" {
		t.Errorf("expected demo username, got %q", catalog.Demo.Username)
	}
	if catalog.Demo.PlaylistSize != 3 {
		t.Errorf("expected playlist size 3, got %d", catalog.Demo.PlaylistSize)
	}

	for _, song := range catalog.Songs {
		m := song.model()
		if err := m.Validate(); err != nil {
			t.Errorf("seed song %q is invalid: %v", song.Title, err)
		}
	}
}

func TestSeeder(t *testing.T) {
	ctx := context.Background()

	t.Run("populates an empty store", func(t *testing.T) {
		store := setupStore(t)
		seeder, err := NewSeeder(store, nil, nil)
		if err != nil {
			t.Fatalf("failed to create seeder: %v", err)
		}

		result, err := seeder.Seed(ctx)
		if err != nil {
			t.Fatalf("seed failed: %v", err)
		}
		if result.Skipped || result.Songs != 6 || !result.UserCreated {
			t.Fatalf("unexpected result: %+v", result)
		}

		user, err := store.Users.FindByUsername(ctx, "demo")
		if err != nil || user == nil {
			t.Fatalf("expected demo user, got %v, %v", user, err)
		}
		if !store.Users.VerifyPassword(user, "password") {
			t.Error("expected demo password to verify")
		}

		playlists, err := store.Playlists.ListByUser(ctx, user.ID)
		if err != nil {
			t.Fatalf("failed to list playlists: %v", err)
		}
		if len(playlists) != 1 || playlists[0].Name != "My Favorites" {
			t.Fatalf("expected one demo playlist, got %+v", playlists)
		}

		songs, err := store.Playlists.Songs(ctx, result.PlaylistID)
		if err != nil {
			t.Fatalf("failed to list playlist songs: %v", err)
		}
		if len(songs) != 3 {
			t.Fatalf("expected 3 playlist songs, got %d", len(songs))
		}
		wantTitles := map[string]bool{"Shape of You": true, "Blinding Lights": true, "Believer": true}
		for _, s := range songs {
			if !wantTitles[s.Title] {
				t.Errorf("unexpected song in demo playlist: %s", s.Title)
			}
		}
	})

	t.Run("second run is a no-op", func(t *testing.T) {
		store := setupStore(t)
		seeder, err := NewSeeder(store, nil, nil)
		if err != nil {
			t.Fatalf("failed to create seeder: %v", err)
		}

		if _, err := seeder.Seed(ctx); err != nil {
			t.Fatalf("first seed failed: %v", err)
		}
		result, err := seeder.Seed(ctx)
		if err != nil {
			t.Fatalf("second seed failed: %v", err)
		}
		if !result.Skipped {
			t.Error("expected second run to be skipped")
		}

		n, err := store.Songs.Count(ctx)
		if err != nil {
			t.Fatalf("count failed: %v", err)
		}
		if n != 6 {
			t.Errorf("expected 6 songs after two runs, got %d", n)
		}
		users, _ := store.Users.Count(ctx)
		if users != 1 {
			t.Errorf("expected 1 user after two runs, got %d", users)
		}
	})

	t.Run("existing users suppress demo account", func(t *testing.T) {
		store := setupStore(t)
		if _, err := store.Users.Create(ctx, "alice", "a@x.com", "pw"); err != nil {
			t.Fatalf("failed to create user: %v", err)
		}

		seeder, _ := NewSeeder(store, nil, nil)
		result, err := seeder.Seed(ctx)
		if err != nil {
			t.Fatalf("seed failed: %v", err)
		}
		if result.UserCreated {
			t.Error("expected demo user to be skipped")
		}
		if result.Songs != 6 {
			t.Errorf("expected songs to be seeded, got %d", result.Songs)
		}

		playlists, _ := store.Playlists.List(ctx)
		if len(playlists) != 0 {
			t.Errorf("expected no playlists, got %d", len(playlists))
		}
	})

	t.Run("invalid catalog rolls back", func(t *testing.T) {
		store := setupStore(t)
		catalog := &SeedCatalog{
			Demo: SeedDemo{Username: "demo", Email: "demo@example.com", Password: "password", Playlist: "Mix", PlaylistSize: 1},
			Songs: []SeedSong{
				{Title: "Good", Artist: "A", FilePath: "/a.mp3"},
				{Title: "", Artist: "B", FilePath: "/b.mp3"},
			},
		}

		seeder, _ := NewSeeder(store, catalog, nil)
		if _, err := seeder.Seed(ctx); err == nil {
			t.Fatal("expected seed to fail on invalid song")
		}

		n, _ := store.Songs.Count(ctx)
		if n != 0 {
			t.Errorf("expected rollback to leave 0 songs, got %d", n)
		}
	})
}
