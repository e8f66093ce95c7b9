package export

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
	"gopkg.in/yaml.v3"

	"github.com/c360studio/storysynth/workflow/synthesis"
)

var (
	// ErrUnknownExtension is returned when an artifact's format cannot be
	// inferred from its file name.
	ErrUnknownExtension = errors.New("unknown artifact extension")

	// ErrInvalidStoryID is returned for story ids that cannot be used as a
	// file name.
	ErrInvalidStoryID = errors.New("story id cannot be used as a file name")
)

// Writer writes synthesized stories into a directory, one file per story,
// named after the story id.
type Writer struct {
	dir      string
	format   Format
	compress bool
	logger   *slog.Logger
}

// WriterOption configures a Writer.
type WriterOption func(*Writer)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) WriterOption {
	return func(w *Writer) {
		w.logger = logger
	}
}

// NewWriter creates a Writer for dir.
func NewWriter(dir string, format Format, compress bool, opts ...WriterOption) (*Writer, error) {
	if !format.IsValid() {
		return nil, fmt.Errorf("unsupported format %q", format)
	}
	w := &Writer{
		dir:      dir,
		format:   format,
		compress: compress,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Path returns the file a story with storyID is written to.
func (w *Writer) Path(storyID string) string {
	return filepath.Join(w.dir, storyID+Extension(w.format, w.compress))
}

// Write writes story to its file, replacing any previous version. The file
// is written to a temporary name first and renamed into place.
func (w *Writer) Write(story *synthesis.SynthesizedStory) (string, error) {
	if story == nil {
		return "", fmt.Errorf("nil story")
	}
	id := story.StoryID
	if id == "" || id == "." || id == ".." || filepath.Base(id) != id {
		return "", fmt.Errorf("%w: %q", ErrInvalidStoryID, id)
	}

	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	path := w.Path(id)
	tmp, err := os.CreateTemp(w.dir, "."+id+"-*.tmp")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := Encode(tmp, story, w.format, w.compress); err != nil {
		tmp.Close()
		return "", err
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("rename artifact: %w", err)
	}

	w.logger.Debug("Wrote artifact",
		"story_id", id,
		"path", path,
		"format", string(w.format),
		"compressed", w.compress)
	return path, nil
}

// Marshal serializes v in format. JSON output is indented and ends with a
// newline.
func Marshal(v any, format Format) ([]byte, error) {
	switch format {
	case FormatJSON:
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("marshal json: %w", err)
		}
		return append(data, '\n'), nil
	case FormatYAML:
		data, err := yaml.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("marshal yaml: %w", err)
		}
		return data, nil
	default:
		return nil, fmt.Errorf("unsupported format %q", format)
	}
}

// Encode serializes v in format to dst, zstd-compressed when compress is set.
func Encode(dst io.Writer, v any, format Format, compress bool) error {
	data, err := Marshal(v, format)
	if err != nil {
		return err
	}

	if !compress {
		if _, err := dst.Write(data); err != nil {
			return fmt.Errorf("write: %w", err)
		}
		return nil
	}

	encoder, err := zstd.NewWriter(dst)
	if err != nil {
		return fmt.Errorf("create zstd encoder: %w", err)
	}
	if _, err := encoder.Write(data); err != nil {
		encoder.Close()
		return fmt.Errorf("compress: %w", err)
	}
	if err := encoder.Close(); err != nil {
		return fmt.Errorf("finalize compression: %w", err)
	}
	return nil
}

// ReadFile returns the decompressed contents of an artifact and its format.
func ReadFile(path string) ([]byte, Format, error) {
	format, compressed, err := DetectFormat(path)
	if err != nil {
		return nil, "", err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, "", fmt.Errorf("open artifact: %w", err)
	}
	defer f.Close()

	var src io.Reader = f
	if compressed {
		decoder, err := zstd.NewReader(f)
		if err != nil {
			return nil, "", fmt.Errorf("create zstd decoder: %w", err)
		}
		defer decoder.Close()
		src = decoder
	}

	data, err := io.ReadAll(src)
	if err != nil {
		return nil, "", fmt.Errorf("read artifact %s: %w", path, err)
	}
	return data, format, nil
}

// Decode parses an artifact. Unknown fields are rejected in both formats.
func Decode(data []byte, format Format) (*synthesis.SynthesizedStory, error) {
	var story synthesis.SynthesizedStory
	switch format {
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&story); err != nil {
			return nil, fmt.Errorf("decode json artifact: %w", err)
		}
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&story); err != nil {
			return nil, fmt.Errorf("decode yaml artifact: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported format %q", format)
	}
	return &story, nil
}

// Read reads and decodes an artifact written by Writer.
func Read(path string) (*synthesis.SynthesizedStory, error) {
	data, format, err := ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Decode(data, format)
}

// ValidateFile checks an artifact against the synthesized story schema. JSON
// artifacts are validated as written; YAML artifacts are decoded first and
// validated in their JSON form.
func ValidateFile(path string) error {
	data, format, err := ReadFile(path)
	if err != nil {
		return err
	}
	if format == FormatYAML {
		story, err := Decode(data, format)
		if err != nil {
			return err
		}
		if data, err = json.Marshal(story); err != nil {
			return fmt.Errorf("marshal json: %w", err)
		}
	}
	return synthesis.ValidateArtifactJSON(data)
}
