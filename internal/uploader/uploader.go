// Package uploader validates and ships message attachments to object
// storage.
package uploader

import (
	"bytes"
	"context"
	"io"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/biodun42/NexThread/internal/apperr"
)

// MaxSize is the attachment ceiling. Matches the composer limit.
const MaxSize = 5 << 20 // 5 MB

var allowedTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// File is a raw attachment picked in the composer.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// Result is a durable, embeddable upload.
type Result struct {
	URL          string `json:"url"`
	ThumbnailURL string `json:"thumbnail_url,omitempty"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
}

// ObjectStore is the object-storage collaborator.
type ObjectStore interface {
	Put(ctx context.Context, key, contentType string, body io.Reader) (string, error)
}

type Uploader struct {
	store ObjectStore
	log   *zap.SugaredLogger
}

func New(store ObjectStore, log *zap.SugaredLogger) *Uploader {
	return &Uploader{store: store, log: log}
}

// Upload validates f, streams it to object storage and returns the
// durable URL with the image dimensions. progress, when non-nil,
// receives fractions in [0,1]. Validation failures never reach the
// network; a failed upload keeps no partial state and is retried from
// scratch by the caller.
func (u *Uploader) Upload(ctx context.Context, ownerID string, f File, progress func(float64)) (*Result, error) {
	ext, ok := allowedTypes[f.ContentType]
	if !ok {
		return nil, apperr.Validation("unsupported attachment type %q", f.ContentType)
	}
	if len(f.Data) == 0 {
		return nil, apperr.Validation("empty attachment")
	}
	if len(f.Data) > MaxSize {
		return nil, apperr.Validation("attachment is %d bytes, limit is %d", len(f.Data), MaxSize)
	}
	img, err := imaging.Decode(bytes.NewReader(f.Data))
	if err != nil {
		return nil, apperr.Validation("undecodable image: %v", err)
	}
	bounds := img.Bounds()

	key := ownerID + "/" + uuid.NewString() + ext
	body := &progressReader{r: bytes.NewReader(f.Data), total: int64(len(f.Data)), fn: progress}
	url, err := u.store.Put(ctx, key, f.ContentType, body)
	if err != nil {
		return nil, apperr.Upload("put "+key, err)
	}

	res := &Result{URL: url, Width: bounds.Dx(), Height: bounds.Dy()}

	// Thumbnail is best-effort; the message embeds the full URL either
	// way.
	thumb := imaging.Resize(img, 320, 0, imaging.Lanczos)
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, thumb, imaging.JPEG); err == nil {
		if turl, err := u.store.Put(ctx, key+"_thumb.jpg", "image/jpeg", &buf); err == nil {
			res.ThumbnailURL = turl
		} else {
			u.log.Debugw("thumbnail upload dropped", "key", key, "err", err)
		}
	}
	return res, nil
}

// progressReader reports fractional read progress to a callback.
type progressReader struct {
	r     io.Reader
	total int64
	done  int64
	fn    func(float64)
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 && p.fn != nil && p.total > 0 {
		p.done += int64(n)
		p.fn(float64(p.done) / float64(p.total))
	}
	return n, err
}
