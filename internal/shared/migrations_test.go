package shared

import (
	"testing"
)

func TestMigrationRunner(t *testing.T) {
	t.Run("loadMigrations", func(t *testing.T) {
		for _, driver := range []string{DriverSQLite, DriverMySQL} {
			t.Run(driver, func(t *testing.T) {
				migrations, err := loadMigrations(driver)
				if err != nil {
					t.Fatalf("failed to load migrations: %v", err)
				}

				if len(migrations) < 2 {
					t.Fatalf("expected at least two migrations, got %d", len(migrations))
				}

				for i := 1; i < len(migrations); i++ {
					if migrations[i].Version <= migrations[i-1].Version {
						t.Errorf("migrations not sorted: version %d comes after %d", migrations[i].Version, migrations[i-1].Version)
					}
				}

				if migrations[0].Name != "create_tables" {
					t.Errorf("expected first migration create_tables, got %s", migrations[0].Name)
				}
			})
		}
	})

	t.Run("unknown driver", func(t *testing.T) {
		if _, err := loadMigrations("postgres"); err == nil {
			t.Fatal("expected error for unknown driver")
		}
	})

	t.Run("RunMigrations And Rollback", func(t *testing.T) {
		db, err := NewDatabase(DriverSQLite, ":memory:")
		if err != nil {
			t.Fatalf("failed to create database: %v", err)
		}
		defer db.Close()

		if err := RunMigrations(db, DriverSQLite); err != nil {
			t.Fatalf("failed to run migrations: %v", err)
		}

		for _, table := range []string{"users", "songs", "playlists", "playlist_songs", "history", "ratings", "subscriptions"} {
			if _, err := db.Exec("SELECT 1 FROM " + table + " LIMIT 1"); err != nil {
				t.Errorf("%s table should exist after migrations: %v", table, err)
			}
		}

		before, err := CurrentVersion(db)
		if err != nil {
			t.Fatalf("failed to read version: %v", err)
		}

		rolled, err := RollbackMigration(db, DriverSQLite)
		if err != nil {
			t.Fatalf("failed to rollback migration: %v", err)
		}
		if rolled != before {
			t.Errorf("expected to roll back version %d, got %d", before, rolled)
		}

		after, err := CurrentVersion(db)
		if err != nil {
			t.Fatalf("failed to read version after rollback: %v", err)
		}
		if after >= before {
			t.Errorf("expected version to decrease after rollback, got %d (was %d)", after, before)
		}

		if _, err := db.Exec("SELECT 1 FROM users LIMIT 1"); err != nil {
			t.Errorf("users table should survive an index rollback: %v", err)
		}
	})

	t.Run("Idempotent Migrations", func(t *testing.T) {
		db, err := NewDatabase(DriverSQLite, ":memory:")
		if err != nil {
			t.Fatalf("failed to create database: %v", err)
		}
		defer db.Close()

		if err := RunMigrations(db, DriverSQLite); err != nil {
			t.Fatalf("failed to run migrations first time: %v", err)
		}

		if err := RunMigrations(db, DriverSQLite); err != nil {
			t.Fatalf("failed to run migrations second time: %v", err)
		}

		var count int
		if err := db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count); err != nil {
			t.Fatalf("failed to query schema_migrations: %v", err)
		}

		migrations, _ := loadMigrations(DriverSQLite)
		if count != len(migrations) {
			t.Errorf("expected %d migrations to be applied, got %d", len(migrations), count)
		}
	})

	t.Run("Foreign keys enforced", func(t *testing.T) {
		db, err := NewDatabase(DriverSQLite, ":memory:")
		if err != nil {
			t.Fatalf("failed to create database: %v", err)
		}
		defer db.Close()

		var enabled int
		if err := db.QueryRow("PRAGMA foreign_keys").Scan(&enabled); err != nil {
			t.Fatalf("failed to read pragma: %v", err)
		}
		if enabled != 1 {
			t.Errorf("expected foreign_keys=1, got %d", enabled)
		}
	})

	t.Run("splitStatements", func(t *testing.T) {
		got := splitStatements("-- header\nCREATE TABLE a (id INT);\n\n-- trailing\nCREATE TABLE b (id INT); ")
		if len(got) != 2 {
			t.Fatalf("expected 2 statements, got %d: %q", len(got), got)
		}
		if got[0] != "CREATE TABLE a (id INT)" {
			t.Errorf("unexpected first statement %q", got[0])
		}
	})
}
