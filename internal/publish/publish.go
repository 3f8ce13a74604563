// Package publish uploads the generated site directory to S3-compatible
// storage. Assets are cached aggressively; HTML documents revalidate often
// so republished sites go live within a minute.
package publish

import (
	"context"
	"fmt"
	"io/fs"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// contentTypes maps file extensions to their MIME types.
var contentTypes = map[string]string{
	".html": "text/html",
	".js":   "application/javascript",
	".css":  "text/css",
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".webp": "image/webp",
	".svg":  "image/svg+xml",
}

// ContentType returns the MIME type for path, or application/octet-stream.
func ContentType(path string) string {
	if ct, ok := contentTypes[strings.ToLower(filepath.Ext(path))]; ok {
		return ct
	}
	return "application/octet-stream"
}

// CacheControl returns the cache policy for path. Assets are immutable
// (their content is never rewritten in place); HTML revalidates every
// minute so updates propagate.
func CacheControl(path string) string {
	if strings.HasSuffix(strings.ToLower(path), ".html") {
		return "max-age=60"
	}
	return "public, max-age=31536000, immutable"
}

// Uploader pushes a local site directory under a key prefix. Tests swap in
// a fake; production uses S3Uploader.
type Uploader interface {
	// UploadDir walks dir and uploads every file under prefix. It returns
	// the uploaded object keys.
	UploadDir(ctx context.Context, dir, prefix string) ([]string, error)
}

// Result is the publish outcome stored in the session state.
type Result struct {
	Success       bool     `json:"success"`
	URL           string   `json:"url,omitempty"`
	UploadedFiles []string `json:"uploaded_files,omitempty"`
	Error         string   `json:"error,omitempty"`
}

var _ Uploader = (*S3Uploader)(nil)

// S3Config holds the connection settings for an S3-compatible endpoint.
type S3Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Secure    bool

	// PublicBaseURL is the URL the published site is served from, e.g.
	// "https://sites.example.com". The site lands at <PublicBaseURL>/<slug>/.
	PublicBaseURL string
}

// S3Uploader uploads to an S3-compatible bucket via the MinIO client.
type S3Uploader struct {
	client *minio.Client
	bucket string
}

// NewS3Uploader creates an S3Uploader for cfg.
func NewS3Uploader(cfg S3Config) (*S3Uploader, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("publish: bucket name is required")
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.Secure,
	})
	if err != nil {
		return nil, fmt.Errorf("publish: create S3 client: %w", err)
	}

	return &S3Uploader{client: client, bucket: cfg.Bucket}, nil
}

// UploadDir walks dir and uploads every regular file to
// <prefix>/<relative-path> with per-type content and cache headers.
func (u *S3Uploader) UploadDir(ctx context.Context, dir, prefix string) ([]string, error) {
	var keys []string

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return fmt.Errorf("relative path for %s: %w", path, err)
		}
		key := prefix + "/" + filepath.ToSlash(rel)

		_, err = u.client.FPutObject(ctx, u.bucket, key, path, minio.PutObjectOptions{
			ContentType:  ContentType(path),
			CacheControl: CacheControl(path),
		})
		if err != nil {
			return fmt.Errorf("upload %s: %w", key, err)
		}

		keys = append(keys, key)
		return nil
	})
	if err != nil {
		return keys, fmt.Errorf("publish: %w", err)
	}
	return keys, nil
}

// SiteURL joins the public base URL and slug into the published site URL,
// with a trailing slash.
func SiteURL(baseURL, slug string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("publish: parse base URL: %w", err)
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/" + slug + "/"
	return u.String(), nil
}
