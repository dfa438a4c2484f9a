// package formatter builds response aggregates and renders playlists as CSV, Markdown or plain text
package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/desertthunder/cadence/internal/shared"
)

// Supported export formats.
const (
	FormatJSON     = "json"
	FormatCSV      = "csv"
	FormatMarkdown = "md"
	FormatText     = "txt"
)

// ExportToCSV converts a playlist to CSV with columns: ID, Title, Artist, Album, Duration, File
func ExportToCSV(playlist *PlaylistResponse) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "Title", "Artist", "Album", "Duration", "File"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, song := range playlist.Songs {
		duration := ""
		if song.Duration != nil {
			duration = strconv.Itoa(*song.Duration)
		}
		record := []string{
			strconv.FormatInt(song.ID, 10),
			song.Title,
			song.Artist,
			deref(song.Album),
			duration,
			song.FilePath,
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown converts a playlist to a Markdown document.
func ExportToMarkdown(playlist *PlaylistResponse) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "# %s\n\n", playlist.Name)
	fmt.Fprintf(&buf, "**Created**: %s\n", playlist.CreatedAt)
	fmt.Fprintf(&buf, "**Songs**: %d\n\n", len(playlist.Songs))

	buf.WriteString("## Songs\n\n")
	if len(playlist.Songs) == 0 {
		buf.WriteString("_No songs yet._\n")
	}
	for i, song := range playlist.Songs {
		albumPart := ""
		if song.Album != nil && *song.Album != "" {
			albumPart = fmt.Sprintf(" (%s)", *song.Album)
		}
		fmt.Fprintf(&buf, "%d. %s - %s%s [%s]\n", i+1, song.Artist, song.Title, albumPart, shared.FormatDuration(song.Duration))
	}

	return buf.Bytes(), nil
}

// ExportToText converts a playlist to plain text.
func ExportToText(playlist *PlaylistResponse) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "Playlist: %s\n", playlist.Name)
	fmt.Fprintf(&buf, "Songs: %d\n\n", len(playlist.Songs))

	for i, song := range playlist.Songs {
		fmt.Fprintf(&buf, "%d. %s - %s\n", i+1, song.Artist, song.Title)
	}

	return buf.Bytes(), nil
}

// ExportToJSON renders the playlist aggregate as indented JSON.
func ExportToJSON(playlist *PlaylistResponse) ([]byte, error) {
	data, err := json.MarshalIndent(playlist, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return append(data, '\n'), nil
}

// Render dispatches to the exporter for format.
func Render(playlist *PlaylistResponse, format string) ([]byte, error) {
	switch format {
	case FormatJSON, "":
		return ExportToJSON(playlist)
	case FormatCSV:
		return ExportToCSV(playlist)
	case FormatMarkdown, "markdown":
		return ExportToMarkdown(playlist)
	case FormatText, "text":
		return ExportToText(playlist)
	default:
		return nil, fmt.Errorf("%w: unsupported format %q", shared.ErrInvalidFlag, format)
	}
}

// Extension returns the file extension used when writing format.
func Extension(format string) string {
	switch format {
	case FormatCSV:
		return ".csv"
	case FormatMarkdown, "markdown":
		return ".md"
	case FormatText, "text":
		return ".txt"
	default:
		return ".json"
	}
}

// WriteExport renders the playlist and writes it to path, creating parent directories.
func WriteExport(playlist *PlaylistResponse, format, path string) error {
	data, err := Render(playlist, format)
	if err != nil {
		return err
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write export file: %w", err)
	}
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
