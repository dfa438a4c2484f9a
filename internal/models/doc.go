// Package models defines the records persisted by the catalog.
//
// Entities are plain structs; relationships are foreign key fields resolved through repository queries.
//   - [User] : account with unique username and email, password stored as a hash only
//   - [Song] : catalog entry; album, genre, duration and cover are optional
//   - [Playlist] : named collection owned by a user
//   - [PlaylistSong] : (playlist, song) membership, unique per pair
//   - [Rating] : score in [MinRating, MaxRating], unique per (user, song)
//   - [HistoryEntry] : append-only play log
//   - [Subscription] : free or premium plan, active until its end date
package models
