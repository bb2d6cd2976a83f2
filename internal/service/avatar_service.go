package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/spec-kit/cbt-dashboard/internal/config"
	"github.com/spec-kit/cbt-dashboard/internal/domain"
)

// ErrStorageDisabled is returned when no object storage is configured.
var ErrStorageDisabled = errors.New("avatar storage is not configured")

// ObjectPresigner signs time-limited object URLs.
type ObjectPresigner interface {
	PresignPut(ctx context.Context, key string, ttl time.Duration) (string, error)
	PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error)
}

type s3Presigner struct {
	bucket string
	client *s3.PresignClient
}

// NewS3Presigner builds a presigner for an S3-compatible endpoint such as MinIO.
func NewS3Presigner(ctx context.Context, cfg config.StorageConfig) (ObjectPresigner, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("load storage config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	return &s3Presigner{bucket: cfg.Bucket, client: s3.NewPresignClient(client)}, nil
}

func (p *s3Presigner) PresignPut(ctx context.Context, key string, ttl time.Duration) (string, error) {
	req, err := p.client.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(p.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		return "", fmt.Errorf("presign put: %w", err)
	}
	return req.URL, nil
}

func (p *s3Presigner) PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error) {
	req, err := p.client.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(p.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		return "", fmt.Errorf("presign get: %w", err)
	}
	return req.URL, nil
}

// AvatarUpload tells the client where to PUT an avatar image.
type AvatarUpload struct {
	Key       string
	URL       string
	ExpiresAt time.Time
}

// AvatarService hands out presigned URLs for avatar images stored under avatars/<userId>/.
type AvatarService struct {
	presigner ObjectPresigner
	ttl       time.Duration
	now       func() time.Time
}

// NewAvatarService builds the service. A nil presigner disables uploads.
func NewAvatarService(presigner ObjectPresigner, ttl time.Duration) *AvatarService {
	return &AvatarService{presigner: presigner, ttl: ttl, now: time.Now}
}

// Enabled reports whether storage is configured.
func (s *AvatarService) Enabled() bool {
	return s != nil && s.presigner != nil
}

// UploadURL reserves a new key under the user's prefix and signs a PUT for it.
func (s *AvatarService) UploadURL(ctx context.Context, userID string) (*AvatarUpload, error) {
	if !s.Enabled() {
		return nil, ErrStorageDisabled
	}
	key := avatarPrefix(userID) + uuid.NewString()
	url, err := s.presigner.PresignPut(ctx, key, s.ttl)
	if err != nil {
		return nil, err
	}
	return &AvatarUpload{Key: key, URL: url, ExpiresAt: s.now().Add(s.ttl)}, nil
}

// DownloadURL signs a GET for key. It returns an empty string when storage is disabled.
func (s *AvatarService) DownloadURL(ctx context.Context, key string) (string, error) {
	if !s.Enabled() || key == "" {
		return "", nil
	}
	return s.presigner.PresignGet(ctx, key, s.ttl)
}

// CheckOwnership rejects keys outside the user's prefix.
func (s *AvatarService) CheckOwnership(userID, key string) error {
	if !strings.HasPrefix(key, avatarPrefix(userID)) || strings.Contains(key, "..") {
		return domain.Invalid("avatar_key", "must reference an uploaded avatar")
	}
	return nil
}

func avatarPrefix(userID string) string {
	return "avatars/" + userID + "/"
}
