package ops

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hpungsan/aec/internal/decoder"
	"github.com/hpungsan/aec/internal/errors"
)

// extensions maps common <CODE lang> values to file extensions.
var extensions = map[string]string{
	"python":     "py",
	"py":         "py",
	"javascript": "js",
	"js":         "js",
	"typescript": "ts",
	"ts":         "ts",
	"go":         "go",
	"golang":     "go",
	"rust":       "rs",
	"java":       "java",
	"c":          "c",
	"cpp":        "cpp",
	"c++":        "cpp",
	"csharp":     "cs",
	"ruby":       "rb",
	"shell":      "sh",
	"bash":       "sh",
	"sh":         "sh",
	"sql":        "sql",
	"yaml":       "yaml",
	"yml":        "yaml",
	"json":       "json",
	"html":       "html",
	"css":        "css",
	"markdown":   "md",
	"md":         "md",
}

// ArtifactExt returns the file extension for a code block language tag.
// Unknown tags fall back to the tag itself when it is a plain word, else "txt".
func ArtifactExt(lang string) string {
	l := strings.ToLower(strings.TrimSpace(lang))
	if ext, ok := extensions[l]; ok {
		return ext
	}
	if l == "" {
		return "txt"
	}
	for _, r := range l {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return "txt"
		}
	}
	return l
}

// WriteArtifactsOutput lists the files written.
type WriteArtifactsOutput struct {
	Dir   string   `json:"dir"`
	Files []string `json:"files"`
}

// WriteArtifacts writes each decoded code block to dir as artifact_<n>.<ext>,
// numbered from 1 in reply order. Each file is written to a temp file and
// renamed into place, so a failure never leaves a partial artifact.
func WriteArtifacts(res *decoder.Result, dir string) (*WriteArtifactsOutput, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.NewInvalidRequest("output directory is required")
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, errors.NewInternal(fmt.Errorf("failed to create artifact directory: %w", err))
	}

	out := &WriteArtifactsOutput{Dir: dir, Files: []string{}}
	for i, block := range res.Code {
		name := fmt.Sprintf("artifact_%d.%s", i+1, ArtifactExt(block.Lang))
		path := filepath.Join(dir, name)
		if err := writeFileAtomic(path, []byte(block.Content+"\n")); err != nil {
			return nil, err
		}
		out.Files = append(out.Files, path)
	}
	return out, nil
}

func writeFileAtomic(path string, data []byte) error {
	if info, err := os.Lstat(path); err == nil && info.Mode()&os.ModeSymlink != 0 {
		return errors.NewInvalidRequest("path must not be a symlink: " + path)
	}

	randBytes := make([]byte, 8)
	if _, err := rand.Read(randBytes); err != nil {
		return errors.NewInternal(fmt.Errorf("failed to generate temp file name: %w", err))
	}
	tempPath := path + "." + hex.EncodeToString(randBytes) + ".tmp"

	file, err := openFileNoFollow(tempPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		if _, ok := err.(*errors.AecError); ok {
			return err
		}
		return errors.NewInternal(fmt.Errorf("failed to create artifact file: %w", err))
	}

	success := false
	defer func() {
		if !success {
			file.Close()
			os.Remove(tempPath)
		}
	}()

	if _, err := file.Write(data); err != nil {
		return errors.NewInternal(fmt.Errorf("failed to write artifact: %w", err))
	}
	if err := file.Sync(); err != nil {
		return errors.NewInternal(fmt.Errorf("failed to sync artifact: %w", err))
	}
	if err := file.Close(); err != nil {
		return errors.NewInternal(fmt.Errorf("failed to close artifact: %w", err))
	}
	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		success = true
		return errors.NewInternal(fmt.Errorf("failed to finalize artifact: %w", err))
	}

	success = true
	return nil
}
