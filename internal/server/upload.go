package server

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// maxFieldBytes bounds non-file form values; titles and passwords are tiny.
const maxFieldBytes = 1 << 20

// uploadedAsset is one received file staged on disk. It is owned exclusively
// by the request that received it and removed by the cleanup func returned
// from saveUploads.
type uploadedAsset struct {
	Path         string
	OriginalName string
	ContentType  string
	Size         int64
}

func (a uploadedAsset) read() ([]byte, error) {
	return os.ReadFile(a.Path)
}

// uploads collects the parsed multipart body: plain form values and staged
// files, with per-field upload order preserved.
type uploads struct {
	values map[string]string
	files  map[string][]uploadedAsset
}

func (u *uploads) value(name string) string {
	return u.values[name]
}

// first returns the single file for a field, if present.
func (u *uploads) first(field string) (uploadedAsset, bool) {
	assets := u.files[field]
	if len(assets) == 0 {
		return uploadedAsset{}, false
	}
	return assets[0], true
}

// all returns every file uploaded under a field, in wire order.
func (u *uploads) all(field string) []uploadedAsset {
	return u.files[field]
}

// saveUploads parses the multipart body, staging every file part under the
// configured upload directory with a unique name. The returned cleanup
// removes every staged file; handlers must defer it immediately so temp
// files are released on every exit path, success or failure. Removal
// failures are logged and never mask the request outcome.
func (s *Server) saveUploads(w http.ResponseWriter, r *http.Request) (*uploads, func(), error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)

	reader, err := r.MultipartReader()
	if err != nil {
		return nil, nil, validationErrorf("Request body must be multipart/form-data")
	}

	u := &uploads{
		values: make(map[string]string),
		files:  make(map[string][]uploadedAsset),
	}
	cleanup := func() {
		for _, assets := range u.files {
			for _, asset := range assets {
				if err := os.Remove(asset.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
					s.logger.WithError(err).WithField("path", asset.Path).Warn("Failed to remove uploaded temp file")
				}
			}
		}
	}

	for {
		part, err := reader.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			cleanup()
			return nil, nil, uploadError(err)
		}

		if part.FileName() == "" {
			// Read one byte past the limit so truncation is detectable.
			data, err := io.ReadAll(io.LimitReader(part, maxFieldBytes+1))
			if err != nil {
				cleanup()
				return nil, nil, uploadError(err)
			}
			if len(data) > maxFieldBytes {
				cleanup()
				return nil, nil, validationErrorf("Form field %q exceeds the %d byte limit", part.FormName(), maxFieldBytes)
			}
			u.values[part.FormName()] = string(data)
			continue
		}

		asset, err := s.stagePart(part)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		u.files[part.FormName()] = append(u.files[part.FormName()], asset)
	}

	return u, cleanup, nil
}

// stagePart copies one file part to a uniquely named file in the upload
// directory. Unique names make concurrent requests collision-free without
// any directory locking.
func (s *Server) stagePart(part *multipart.Part) (uploadedAsset, error) {
	if err := os.MkdirAll(s.cfg.UploadDir, 0700); err != nil {
		return uploadedAsset{}, fmt.Errorf("failed to create upload directory: %w", err)
	}

	name := uuid.NewString() + strings.ToLower(filepath.Ext(part.FileName()))
	path := filepath.Join(s.cfg.UploadDir, name)

	dst, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if err != nil {
		return uploadedAsset{}, fmt.Errorf("failed to create temp file: %w", err)
	}

	size, copyErr := io.Copy(dst, part)
	closeErr := dst.Close()
	if copyErr != nil || closeErr != nil {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			s.logger.WithError(err).WithField("path", path).Warn("Failed to remove partial upload")
		}
		if copyErr != nil {
			return uploadedAsset{}, uploadError(copyErr)
		}
		return uploadedAsset{}, fmt.Errorf("failed to store upload: %w", closeErr)
	}

	return uploadedAsset{
		Path:         path,
		OriginalName: part.FileName(),
		ContentType:  part.Header.Get("Content-Type"),
		Size:         size,
	}, nil
}

// uploadError classifies body-read failures: exceeding the payload ceiling is
// the client's fault, everything else is an internal failure.
func uploadError(err error) error {
	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		return validationErrorf("Upload exceeds the %d byte limit", maxBytesErr.Limit)
	}
	return fmt.Errorf("failed to read multipart body: %w", err)
}
