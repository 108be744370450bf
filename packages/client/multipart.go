package client

import (
	"bytes"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
)

// PartKind discriminates multipart part variants.
type PartKind int

const (
	// PartText is a form field carrying text with an optional charset.
	PartText PartKind = iota
	// PartBinary is an in-memory payload with a filename and content type.
	PartBinary
	// PartFile is a file on disk, read when the body is built.
	PartFile
)

// Part is one named entry of a multipart body.
type Part struct {
	Kind        PartKind
	Name        string
	Value       string // text parts
	Charset     string // text parts, optional
	Filename    string // binary parts
	ContentType string // binary and file parts, optional for files
	Data        []byte // binary parts
	Path        string // file parts
}

// TextPart returns a plain text form field.
func TextPart(name, value string) Part {
	return Part{Kind: PartText, Name: name, Value: value}
}

// TextPartCharset returns a text form field with an explicit charset tag.
func TextPartCharset(name, value, charset string) Part {
	return Part{Kind: PartText, Name: name, Value: value, Charset: charset}
}

// BinaryPart returns an in-memory binary part.
func BinaryPart(name, filename, contentType string, data []byte) Part {
	return Part{Kind: PartBinary, Name: name, Filename: filename, ContentType: contentType, Data: data}
}

// FilePart returns a part backed by a file on disk. The content type is
// guessed from the extension when the body is built.
func FilePart(name, path string) Part {
	return Part{Kind: PartFile, Name: name, Path: path}
}

// BuildMultipartBody encodes parts as multipart/form-data and returns the
// body together with its boundary-carrying content type. File part paths are
// resolved relative to baseDir and must not escape it.
func BuildMultipartBody(parts []Part, baseDir string) (*bytes.Buffer, string, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	for _, p := range parts {
		var err error
		switch p.Kind {
		case PartText:
			err = writeTextPart(writer, p)
		case PartBinary:
			err = writeBinaryPart(writer, p)
		case PartFile:
			err = writeFilePart(writer, p, baseDir)
		default:
			err = fmt.Errorf("unknown part kind %d", p.Kind)
		}
		if err != nil {
			return nil, "", err
		}
	}

	if err := writer.Close(); err != nil {
		return nil, "", err
	}

	return body, writer.FormDataContentType(), nil
}

func writeTextPart(writer *multipart.Writer, p Part) error {
	if p.Charset == "" {
		return writer.WriteField(p.Name, p.Value)
	}

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q`, p.Name))
	h.Set("Content-Type", "text/plain; charset="+p.Charset)
	w, err := writer.CreatePart(h)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, p.Value)
	return err
}

func writeBinaryPart(writer *multipart.Writer, p Part) error {
	contentType := p.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, p.Name, p.Filename))
	h.Set("Content-Type", contentType)
	w, err := writer.CreatePart(h)
	if err != nil {
		return err
	}
	_, err = w.Write(p.Data)
	return err
}

func writeFilePart(writer *multipart.Writer, p Part, baseDir string) error {
	path := p.Path
	if !filepath.IsAbs(path) && baseDir != "" {
		path = filepath.Join(baseDir, path)
	}

	// Validate path doesn't escape base directory (prevent path traversal)
	if err := validatePathWithinBase(path, baseDir); err != nil {
		return err
	}

	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	contentType := p.ContentType
	if contentType == "" {
		contentType = mime.TypeByExtension(filepath.Ext(path))
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, p.Name, filepath.Base(path)))
	h.Set("Content-Type", contentType)
	w, err := writer.CreatePart(h)
	if err != nil {
		return err
	}
	_, err = io.Copy(w, file)
	return err
}

// validatePathWithinBase checks that the resolved path stays within the base
// directory to prevent path traversal attacks
func validatePathWithinBase(path, baseDir string) error {
	if baseDir == "" {
		return nil
	}

	cleanBase, err := filepath.Abs(baseDir)
	if err != nil {
		return fmt.Errorf("failed to resolve base directory: %v", err)
	}

	cleanPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve path: %v", err)
	}

	if !strings.HasPrefix(cleanPath, cleanBase+string(filepath.Separator)) && cleanPath != cleanBase {
		return fmt.Errorf("path traversal detected: %s is outside allowed directory %s", path, baseDir)
	}

	return nil
}
