package launchpad

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
)

// FileUpload carries the parameters of the release add_file operation.
// Signature fields stay empty when the artifact has no detached signature.
type FileUpload struct {
	Filename          string
	Description       string
	ContentType       string
	FileType          string
	Content           []byte
	SignatureFilename string
	SignatureContent  []byte
}

// HasSignature reports whether the upload carries a detached signature.
func (u FileUpload) HasSignature() bool {
	return u.SignatureFilename != ""
}

// AddFile attaches a file to a release and returns the new file's link when
// Launchpad reports one.
func (c *Client) AddFile(ctx context.Context, release *Release, upload FileUpload) (string, error) {
	if strings.TrimSpace(upload.Filename) == "" {
		return "", errors.New("add_file: filename is empty")
	}
	body, contentType, err := encodeAddFile(upload)
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, c.uploadTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.link(release.SelfLink), bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build add_file request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	resp, err := c.do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if err := checkResponse(req, resp); err != nil {
		return "", err
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.Header.Get("Location"), nil
}

func encodeAddFile(upload FileUpload) ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	fields := [][2]string{
		{"ws.op", "add_file"},
		{"filename", upload.Filename},
		{"description", upload.Description},
		{"content_type", upload.ContentType},
	}
	if upload.FileType != "" {
		fields = append(fields, [2]string{"file_type", upload.FileType})
	}
	if upload.HasSignature() {
		fields = append(fields, [2]string{"signature_filename", upload.SignatureFilename})
	}
	for _, f := range fields {
		if err := w.WriteField(f[0], f[1]); err != nil {
			return nil, "", fmt.Errorf("encode %s: %w", f[0], err)
		}
	}

	if err := writeBinaryPart(w, "file_content", upload.Filename, upload.Content); err != nil {
		return nil, "", err
	}
	if upload.HasSignature() {
		if err := writeBinaryPart(w, "signature_content", upload.SignatureFilename, upload.SignatureContent); err != nil {
			return nil, "", err
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("finish multipart body: %w", err)
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}

func writeBinaryPart(w *multipart.Writer, field, filename string, content []byte) error {
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, field, filename))
	header.Set("Content-Type", "application/octet-stream")
	part, err := w.CreatePart(header)
	if err != nil {
		return fmt.Errorf("create %s part: %w", field, err)
	}
	if _, err := part.Write(content); err != nil {
		return fmt.Errorf("write %s part: %w", field, err)
	}
	return nil
}
