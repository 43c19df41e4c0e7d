// Package download saves a resolved stream to disk with ffmpeg.
// Uses exec.CommandContext with explicit argument slices and validates
// output paths against directory traversal.
package download

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"reelhound/internal/httputil"
	"reelhound/internal/media"
)

// Download fetches a stream to <outputDir>/<title>.mkv using ffmpeg and
// returns the written path.
func Download(ctx context.Context, stream media.Stream, title, outputDir string) (string, error) {
	if !stream.Playable() {
		return "", fmt.Errorf("%w: %s", media.ErrNoPlayableStream, stream.Label)
	}

	ffmpegPath, err := exec.LookPath("ffmpeg")
	if err != nil {
		return "", fmt.Errorf("ffmpeg not found in PATH: %w", err)
	}

	outputPath, err := OutputPath(outputDir, title)
	if err != nil {
		return "", err
	}

	cmd := exec.CommandContext(ctx, ffmpegPath, ffmpegArgs(stream, title, outputPath)...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	logrus.WithFields(logrus.Fields{
		"url":    stream.URL,
		"output": outputPath,
	}).Info("downloading stream")

	if err := cmd.Run(); err != nil {
		// Clean up partial download on failure
		os.Remove(outputPath)
		return "", fmt.Errorf("ffmpeg download failed: %w", err)
	}

	return outputPath, nil
}

// OutputPath creates outputDir if needed and returns the sanitized target file.
func OutputPath(outputDir, title string) (string, error) {
	absDir, err := filepath.Abs(outputDir)
	if err != nil {
		return "", fmt.Errorf("resolving output directory: %w", err)
	}
	if err := os.MkdirAll(absDir, 0o755); err != nil {
		return "", fmt.Errorf("creating output directory: %w", err)
	}

	outputPath, err := httputil.SafeDownloadPath(absDir, httputil.SanitizeFilename(title)+".mkv")
	if err != nil {
		return "", fmt.Errorf("invalid output path: %w", err)
	}
	return outputPath, nil
}

func ffmpegArgs(stream media.Stream, title, outputPath string) []string {
	args := []string{"-y", "-loglevel", "warning"}

	// Input options must precede -i.
	if h := headerBlock(stream.Headers); h != "" {
		args = append(args, "-headers", h)
	}

	return append(args,
		"-i", stream.URL,
		"-c", "copy",
		"-metadata", "title="+title,
		outputPath,
	)
}

// headerBlock renders the playback headers in ffmpeg's CRLF form.
func headerBlock(h http.Header) string {
	var b strings.Builder
	for _, key := range []string{"Referer", "User-Agent", "Origin"} {
		if v := h.Get(key); v != "" {
			fmt.Fprintf(&b, "%s: %s\r\n", key, v)
		}
	}
	return b.String()
}
