package media

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/ibuhs/ShubisVideoStitcher/internal/stitcher/domain"
)

// Info describes a probed media file.
type Info struct {
	Duration float64
	Width    int
	Height   int
	Format   string
}

// Adapter wraps the external ffmpeg/ffprobe tools. Probe inspects one file,
// Concatenate joins files in order and reports progress parsed from the
// tool's stderr stream.
type Adapter struct {
	ffmpegPath  string
	ffprobePath string
	manifestDir string
	logger      *slog.Logger
}

// NewAdapter creates an adapter. manifestDir is where the transient concat
// list files are written.
func NewAdapter(ffmpegPath, ffprobePath, manifestDir string, logger *slog.Logger) (*Adapter, error) {
	if err := os.MkdirAll(manifestDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create manifest directory: %w", err)
	}

	return &Adapter{
		ffmpegPath:  ffmpegPath,
		ffprobePath: ffprobePath,
		manifestDir: manifestDir,
		logger:      logger,
	}, nil
}

// Probe runs ffprobe on a file and returns its stream info. Any failure
// (non-zero exit, unparseable output, no video stream) surfaces as a
// *domain.InvalidMediaError naming the file.
func (a *Adapter) Probe(ctx context.Context, path string) (*Info, error) {
	cmd := exec.CommandContext(ctx, a.ffprobePath,
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		path,
	)

	out, err := cmd.Output()
	if err != nil {
		return nil, &domain.InvalidMediaError{Path: path, Err: err}
	}

	info, err := parseProbeOutput(out)
	if err != nil {
		return nil, &domain.InvalidMediaError{Path: path, Err: err}
	}
	return info, nil
}

// probeOutput mirrors the subset of ffprobe's JSON we read.
type probeOutput struct {
	Format struct {
		Duration   string `json:"duration"`
		FormatName string `json:"format_name"`
	} `json:"format"`
	Streams []struct {
		CodecType string `json:"codec_type"`
		Width     int    `json:"width"`
		Height    int    `json:"height"`
	} `json:"streams"`
}

func parseProbeOutput(out []byte) (*Info, error) {
	var probed probeOutput
	if err := json.Unmarshal(out, &probed); err != nil {
		return nil, fmt.Errorf("failed to parse probe output: %w", err)
	}

	for _, stream := range probed.Streams {
		if stream.CodecType == "video" {
			duration, _ := strconv.ParseFloat(probed.Format.Duration, 64)
			return &Info{
				Duration: duration,
				Width:    stream.Width,
				Height:   stream.Height,
				Format:   probed.Format.FormatName,
			}, nil
		}
	}
	return nil, errors.New("no video stream found")
}

// Concatenate joins the input files in order into outputPath using ffmpeg's
// concat demuxer. onProgress receives values in [0,100] parsed from the
// tool's stderr; deliveries are fire-and-forget telemetry. A non-zero exit
// surfaces as a *domain.ConcatError.
func (a *Adapter) Concatenate(ctx context.Context, inputs []string, outputPath, format, quality string, onProgress func(int)) error {
	manifestPath := filepath.Join(a.manifestDir, fmt.Sprintf("filelist_%d.txt", time.Now().UnixNano()))
	if err := os.WriteFile(manifestPath, []byte(manifestContent(inputs)), 0o644); err != nil {
		return fmt.Errorf("failed to write concat manifest: %w", err)
	}
	// The manifest is transient and must go away on every exit path.
	defer os.Remove(manifestPath)

	args := buildConcatArgs(manifestPath, outputPath, quality)

	a.logger.Debug("Starting ffmpeg concatenation",
		slog.String("output", outputPath),
		slog.String("format", format),
		slog.String("quality", quality),
		slog.Int("inputs", len(inputs)),
	)

	cmd := exec.CommandContext(ctx, a.ffmpegPath, args...)

	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("failed to open stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start ffmpeg: %w", err)
	}

	watchProgress(stderr, onProgress)

	if err := cmd.Wait(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return &domain.ConcatError{ExitCode: exitErr.ExitCode(), Err: exitErr}
		}
		return fmt.Errorf("ffmpeg failed: %w", err)
	}
	return nil
}

// manifestContent renders the concat demuxer list, escaping single quotes
// the way the demuxer expects.
func manifestContent(inputs []string) string {
	var b strings.Builder
	for _, input := range inputs {
		escaped := strings.ReplaceAll(input, "'", `'\''`)
		fmt.Fprintf(&b, "file '%s'\n", escaped)
	}
	return b.String()
}

// buildConcatArgs maps a quality preset to ffmpeg arguments: auto is a pure
// stream copy, anything else re-encodes with libx264 at the matching
// crf/preset pair.
func buildConcatArgs(manifestPath, outputPath, quality string) []string {
	args := []string{
		"-f", "concat",
		"-safe", "0",
		"-i", manifestPath,
		"-c", "copy",
	}

	if quality != domain.QualityAuto {
		args = append(args, "-c:v", "libx264")
		switch quality {
		case domain.QualityHigh:
			args = append(args, "-crf", "18", "-preset", "slow")
		case domain.QualityMedium:
			args = append(args, "-crf", "23", "-preset", "medium")
		case domain.QualityLow:
			args = append(args, "-crf", "28", "-preset", "fast")
		}
	}

	return append(args, outputPath)
}

var (
	durationRe  = regexp.MustCompile(`Duration: (\d{2}):(\d{2}):(\d{2})\.\d{2}`)
	timestampRe = regexp.MustCompile(`time=(\d{2}):(\d{2}):(\d{2})\.\d{2}`)
)

// watchProgress reads ffmpeg's diagnostic stream line by line. The first
// Duration occurrence fixes the total; every time= occurrence yields one
// progress callback.
func watchProgress(stderr io.Reader, onProgress func(int)) {
	scanner := bufio.NewScanner(stderr)
	scanner.Split(scanDiagnosticLines)

	var totalSeconds int
	for scanner.Scan() {
		line := scanner.Text()

		if totalSeconds == 0 {
			if secs, ok := matchClock(durationRe, line); ok {
				totalSeconds = secs
			}
		}

		if secs, ok := matchClock(timestampRe, line); ok && totalSeconds > 0 && onProgress != nil {
			onProgress(computeProgress(secs, totalSeconds))
		}
	}
}

// matchClock extracts HH:MM:SS from the first submatch group of re.
func matchClock(re *regexp.Regexp, line string) (int, bool) {
	m := re.FindStringSubmatch(line)
	if m == nil {
		return 0, false
	}

	hours, _ := strconv.Atoi(m[1])
	minutes, _ := strconv.Atoi(m[2])
	seconds, _ := strconv.Atoi(m[3])
	return hours*3600 + minutes*60 + seconds, true
}

// computeProgress converts a processed timestamp into a capped percentage.
func computeProgress(currentSeconds, totalSeconds int) int {
	progress := currentSeconds * 100 / totalSeconds
	if progress > 100 {
		progress = 100
	}
	return progress
}

// scanDiagnosticLines splits on both \n and \r, since ffmpeg rewrites its
// status line with carriage returns.
func scanDiagnosticLines(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}

	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		return i + 1, data[:i], nil
	}

	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}
