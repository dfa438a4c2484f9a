// Package repositories implements SQL persistence for the catalog entities.
//
// Each repository wraps a [DBTX], so the same code runs on a [*sql.DB] or inside a transaction
// opened by [Store.WithTx]. Single-row lookups return (nil, nil) when nothing matches; mutations
// that address a missing row return [shared.ErrNotFound]. Driver errors are classified into
// [shared.ErrConstraintViolation], [shared.ErrValidation] or [shared.ErrStorageUnavailable].
//
// Key Implementations:
//   - [UserRepository] : accounts, password hashing and verification
//   - [SongRepository] : catalog listing and case-insensitive search
//   - [PlaylistRepository] : playlists and (playlist, song) membership
//   - [RatingRepository] : one rating per (user, song) with averages
//   - [HistoryRepository] : append-only play log
//   - [SubscriptionRepository] : one plan per user
//
// Referential integrity is enforced by ON DELETE CASCADE constraints, so deleting a user, song or
// playlist never needs a multi-step delete here.
package repositories
