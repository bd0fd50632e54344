// Package artifacts enumerates the release files waiting in a local directory.
package artifacts

import (
	"errors"
	"fmt"
	"io/fs"
	"mime"
	"os"
	"path/filepath"
	"strings"
)

// DefaultContentType is used when nothing is known about a file's extension.
const DefaultContentType = "application/octet-stream"

// Artifact is a local file queued for upload. SignaturePath is empty when no
// detached signature sits next to the file.
type Artifact struct {
	Name          string
	Path          string
	Size          int64
	ContentType   string
	SignaturePath string
}

// HasSignature reports whether a detached signature accompanies the artifact.
func (a Artifact) HasSignature() bool {
	return a.SignaturePath != ""
}

// SignatureName returns the base name of the signature file, or "".
func (a Artifact) SignatureName() string {
	if a.SignaturePath == "" {
		return ""
	}
	return filepath.Base(a.SignaturePath)
}

// Read loads the artifact and its signature fully into memory.
func (a Artifact) Read() (content, signature []byte, err error) {
	content, err = os.ReadFile(a.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("read %s: %w", a.Name, err)
	}
	if a.HasSignature() {
		signature, err = os.ReadFile(a.SignaturePath)
		if err != nil {
			return nil, nil, fmt.Errorf("read signature %s: %w", a.SignatureName(), err)
		}
		if signature == nil {
			signature = []byte{}
		}
	}
	return content, signature, nil
}

// Scan lists the regular files in dir sorted by name. Files ending in
// signatureSuffix are treated as sidecars: they are attached to the artifact
// they sign and never listed on their own. Subdirectories are skipped.
func Scan(dir, signatureSuffix string) ([]Artifact, error) {
	if signatureSuffix == "" {
		signatureSuffix = ".sig"
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read artifact directory: %w", err)
	}

	var out []Artifact
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, signatureSuffix) {
			continue
		}
		path := filepath.Join(dir, name)
		info, err := os.Stat(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("stat %s: %w", name, err)
		}
		if !info.Mode().IsRegular() {
			continue
		}

		artifact := Artifact{
			Name:        name,
			Path:        path,
			Size:        info.Size(),
			ContentType: ContentType(name),
		}
		sigPath := path + signatureSuffix
		if sigInfo, err := os.Stat(sigPath); err == nil && sigInfo.Mode().IsRegular() {
			artifact.SignaturePath = sigPath
		}
		out = append(out, artifact)
	}
	return out, nil
}

// Release formats with multi-part extensions that mime does not know, or
// that it resolves differently depending on the host's mime.types.
var knownTypes = []struct {
	suffix      string
	contentType string
}{
	{".tar.bz2", "application/x-tar"},
	{".tar.gz", "application/x-tar"},
	{".tar.xz", "application/x-tar"},
	{".tgz", "application/x-tar"},
	{".deb", "application/vnd.debian.binary-package"},
	{".rpm", "application/x-rpm"},
	{".dmg", "application/x-apple-diskimage"},
	{".msi", "application/x-msi"},
	{".exe", DefaultContentType},
	{".zip", "application/zip"},
	{".txt", "text/plain"},
}

// ContentType guesses a MIME type from a file name.
func ContentType(name string) string {
	lower := strings.ToLower(name)
	for _, known := range knownTypes {
		if strings.HasSuffix(lower, known.suffix) {
			return known.contentType
		}
	}
	if guessed := mime.TypeByExtension(filepath.Ext(lower)); guessed != "" {
		if mediaType, _, err := mime.ParseMediaType(guessed); err == nil {
			return mediaType
		}
		return guessed
	}
	return DefaultContentType
}
