// package formatter exports mood results and chat transcripts to various formats (Markdown, CSV, JSON, plain text)
package formatter

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/moodtunes/internal/models"
	"github.com/desertthunder/moodtunes/internal/services"
	"github.com/desertthunder/moodtunes/internal/shared"
)

// Format names an export format.
type Format string

const (
	FormatText     Format = "text"
	FormatMarkdown Format = "markdown"
	FormatJSON     Format = "json"
	FormatCSV      Format = "csv"
)

// ParseFormat accepts a format name or a common file extension.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), ".")) {
	case "", "text", "txt":
		return FormatText, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "json":
		return FormatJSON, nil
	case "csv":
		return FormatCSV, nil
	default:
		return "", fmt.Errorf("%w: unknown format %q", shared.ErrInvalidArgument, s)
	}
}

// Export is everything a result export can show. Transcript and Playlist are optional.
type Export struct {
	Result     models.MoodResult
	Transcript []models.Message
	Playlist   *services.SpotifyPlaylist
}

func (e *Export) playlistLink() string {
	if id, ok := services.PlaylistID(e.Result.PlaylistURL); ok {
		return services.OpenURL(id)
	}
	return e.Result.PlaylistURL
}

// FormatDuration renders milliseconds as m:ss.
func FormatDuration(ms int) string {
	d := time.Duration(ms) * time.Millisecond
	return fmt.Sprintf("%d:%02d", int(d.Minutes()), int(d.Seconds())%60)
}

func speaker(m models.Message) string {
	if m.IsUser() {
		return "You"
	}
	return "MoodTunes"
}

// ExportToText renders a plain text summary followed by the transcript.
func ExportToText(export *Export) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "Mood: %s %s\n", MoodEmoji(export.Result.Mood), export.Result.Mood)
	fmt.Fprintf(&buf, "Playlist: %s\n", export.playlistLink())

	if p := export.Playlist; p != nil {
		fmt.Fprintf(&buf, "Name: %s\n", p.Name)
		fmt.Fprintf(&buf, "Tracks: %d\n", p.Tracks.Total)
	}

	if len(export.Transcript) > 0 {
		buf.WriteString("\nConversation:\n")
		for _, m := range export.Transcript {
			fmt.Fprintf(&buf, "%s: %s\n", speaker(m), m.Content)
		}
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown renders the result as Markdown with an optional cover image.
func ExportToMarkdown(export *Export, imageFilename string) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "# %s %s\n\n", MoodEmoji(export.Result.Mood), export.Result.Mood)

	if imageFilename != "" {
		fmt.Fprintf(&buf, "![Cover](%s)\n\n", imageFilename)
	}

	fmt.Fprintf(&buf, "**Playlist**: [%s](%s)\n", playlistTitle(export), export.playlistLink())
	if !export.Result.CreatedAt.IsZero() {
		fmt.Fprintf(&buf, "**Created**: %s\n", export.Result.CreatedAt.Format(time.RFC1123))
	}
	buf.WriteString("\n")

	if p := export.Playlist; p != nil {
		if p.Description != "" {
			fmt.Fprintf(&buf, "**Description**: %s\n\n", p.Description)
		}
		buf.WriteString("## Tracks\n\n")
		for i, item := range p.Tracks.Items {
			track := item.Track
			fmt.Fprintf(&buf, "%d. %s - %s [%s]\n", i+1, track.ArtistNames(), track.Name, FormatDuration(track.DurationMS))
		}
		buf.WriteString("\n")
	}

	if len(export.Transcript) > 0 {
		buf.WriteString("## Conversation\n\n")
		for _, m := range export.Transcript {
			fmt.Fprintf(&buf, "**%s**: %s\n\n", speaker(m), m.Content)
		}
	}

	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

func playlistTitle(export *Export) string {
	if export.Playlist != nil && export.Playlist.Name != "" {
		return export.Playlist.Name
	}
	return "Open in Spotify"
}

// ExportToCSV lists the playlist tracks with columns: ID, Title, Artist, Duration
func ExportToCSV(export *Export) ([]byte, error) {
	if export.Playlist == nil {
		return nil, fmt.Errorf("%w: csv export needs playlist tracks", shared.ErrInvalidArgument)
	}

	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write([]string{"ID", "Title", "Artist", "Duration"}); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, item := range export.Playlist.Tracks.Items {
		t := item.Track
		if err := writer.Write([]string{t.ID, t.Name, t.ArtistNames(), strconv.Itoa(t.DurationMS / 1000)}); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

type jsonExport struct {
	Mood        string                    `json:"mood"`
	Emoji       string                    `json:"emoji"`
	PlaylistURL string                    `json:"playlist_url"`
	EmbedURL    string                    `json:"embed_url,omitempty"`
	CreatedAt   *time.Time                `json:"created_at,omitempty"`
	Transcript  []models.Message          `json:"transcript,omitempty"`
	Playlist    *services.SpotifyPlaylist `json:"playlist,omitempty"`
}

// ExportToJSON renders the export as indented JSON.
func ExportToJSON(export *Export) ([]byte, error) {
	out := jsonExport{
		Mood:        export.Result.Mood,
		Emoji:       MoodEmoji(export.Result.Mood),
		PlaylistURL: export.Result.PlaylistURL,
		Transcript:  export.Transcript,
		Playlist:    export.Playlist,
	}
	if id, ok := services.PlaylistID(export.Result.PlaylistURL); ok {
		out.EmbedURL = services.EmbedURL(id)
	}
	if !export.Result.CreatedAt.IsZero() {
		created := export.Result.CreatedAt
		out.CreatedAt = &created
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal export: %w", err)
	}
	return data, nil
}

// Render dispatches to the exporter for format.
func Render(export *Export, format Format) ([]byte, error) {
	switch format {
	case FormatText:
		return ExportToText(export)
	case FormatMarkdown:
		return ExportToMarkdown(export, "")
	case FormatJSON:
		return ExportToJSON(export)
	case FormatCSV:
		return ExportToCSV(export)
	default:
		return nil, fmt.Errorf("%w: unknown format %q", shared.ErrInvalidArgument, format)
	}
}

// DownloadImage downloads an image from the given URL and returns the raw bytes
func DownloadImage(ctx context.Context, url string) ([]byte, error) {
	if url == "" {
		return nil, fmt.Errorf("%w: empty URL provided", shared.ErrMissingArgument)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download image: status %d", resp.StatusCode)
	}

	imageData, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}

	return imageData, nil
}

// MarkdownExportResult contains information about files created by WriteMarkdownExport
type MarkdownExportResult struct {
	Directory  string
	Files      []string
	CoverImage string
}

// WriteMarkdownExport writes the export to {dir}/README.md, with {dir}/cover.jpg when the
// playlist has a cover image that can be downloaded. A failed download only drops the image.
func WriteMarkdownExport(ctx context.Context, export *Export, outputDir string) (*MarkdownExportResult, error) {
	if outputDir == "" {
		outputDir = "moodtunes-result"
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	result := &MarkdownExportResult{Directory: outputDir, Files: []string{}}

	var coverImageFilename string
	if p := export.Playlist; p != nil && len(p.Images) > 0 {
		imageData, err := DownloadImage(ctx, p.Images[0].URL)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to download cover image: %v\n", err)
		} else {
			coverImageFilename = "cover.jpg"
			coverImagePath := filepath.Join(outputDir, coverImageFilename)
			if err := os.WriteFile(coverImagePath, imageData, 0644); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to save cover image: %v\n", err)
				coverImageFilename = ""
			} else {
				result.CoverImage = coverImagePath
				result.Files = append(result.Files, coverImagePath)
			}
		}
	}

	mdData, err := ExportToMarkdown(export, coverImageFilename)
	if err != nil {
		return nil, fmt.Errorf("failed to generate Markdown: %w", err)
	}

	mdFile := filepath.Join(outputDir, "README.md")
	if err := os.WriteFile(mdFile, mdData, 0644); err != nil {
		return nil, fmt.Errorf("failed to write Markdown file: %w", err)
	}

	result.Files = append(result.Files, mdFile)
	return result, nil
}

// WriteExport renders export in format and writes it to path.
func WriteExport(export *Export, format Format, path string) error {
	data, err := Render(export, format)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s export: %w", format, err)
	}
	return nil
}
