package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// ErrEmptyObject is returned when an upload carries no bytes
var ErrEmptyObject = errors.New("storage: empty object")

// S3Config holds S3/MinIO configuration
type S3Config struct {
	Endpoint        string // e.g., "http://localhost:9000" for MinIO
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	Region          string
	PublicURL       string // base URL the aggregator fetches media from
}

// S3Storage stores post media on S3-compatible object storage
type S3Storage struct {
	client    *s3.Client
	bucket    string
	publicURL string
	now       func() time.Time
}

// NewS3Storage creates a new S3 storage client
func NewS3Storage(cfg S3Config) (*S3Storage, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("storage: bucket is required")
	}

	client := s3.New(s3.Options{
		Region:       cfg.Region,
		BaseEndpoint: aws.String(cfg.Endpoint),
		Credentials: credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		),
		UsePathStyle: true, // MinIO
	})

	return &S3Storage{
		client:    client,
		bucket:    cfg.Bucket,
		publicURL: strings.TrimRight(cfg.PublicURL, "/"),
		now:       time.Now,
	}, nil
}

// UploadInput represents input for uploading a media file
type UploadInput struct {
	UserID      string
	Reader      io.Reader
	ContentType string
	Size        int64
	Filename    string // optional, used for the extension
}

// UploadOutput represents output from uploading a media file
type UploadOutput struct {
	Key         string    `json:"key"`
	URL         string    `json:"url"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
	UploadedAt  time.Time `json:"uploaded_at"`
}

// Upload stores a file under the user's prefix and returns its public URL
func (s *S3Storage) Upload(ctx context.Context, in UploadInput) (*UploadOutput, error) {
	if in.Size == 0 {
		return nil, ErrEmptyObject
	}

	now := s.now().UTC()
	key := objectKey(in.UserID, now, in.Filename, in.ContentType)

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          in.Reader,
		ContentType:   aws.String(in.ContentType),
		ContentLength: aws.Int64(in.Size),
	})
	if err != nil {
		return nil, fmt.Errorf("uploading to s3: %w", err)
	}

	return &UploadOutput{
		Key:         key,
		URL:         s.publicURL + "/" + key,
		ContentType: in.ContentType,
		Size:        in.Size,
		UploadedAt:  now,
	}, nil
}

// UploadBytes stores an in-memory file, such as a generated image
func (s *S3Storage) UploadBytes(ctx context.Context, userID, contentType string, data []byte) (*UploadOutput, error) {
	return s.Upload(ctx, UploadInput{
		UserID:      userID,
		Reader:      bytes.NewReader(data),
		ContentType: contentType,
		Size:        int64(len(data)),
	})
}

// Delete removes a file from S3
func (s *S3Storage) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("deleting from s3: %w", err)
	}
	return nil
}

// Ping checks that the bucket is reachable
func (s *S3Storage) Ping(ctx context.Context) error {
	if _, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucket)}); err != nil {
		return fmt.Errorf("checking bucket: %w", err)
	}
	return nil
}

// OwnedBy reports whether key lies under the user's upload prefix
func OwnedBy(key, userID string) bool {
	if userID == "" || key == "" || strings.Contains(key, "..") {
		return false
	}
	return strings.HasPrefix(key, userID+"/")
}

func objectKey(userID string, at time.Time, filename, contentType string) string {
	ext := strings.ToLower(path.Ext(filename))
	if ext == "" {
		ext = extensionFor(contentType)
	}
	owner := userID
	if owner == "" {
		owner = "shared"
	}
	return fmt.Sprintf("%s/%s/%s%s", owner, at.Format("2006/01/02"), uuid.New().String(), ext)
}

// extensionFor returns the file extension for a media content type
func extensionFor(contentType string) string {
	switch contentType {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	case "video/mp4":
		return ".mp4"
	case "video/quicktime":
		return ".mov"
	case "application/pdf":
		return ".pdf"
	default:
		return ""
	}
}
