package storage

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"SipSound/config"
	"SipSound/logger"
	"SipSound/model"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// coverPrefix 存在 MinIO 里的封面对象键前缀，其他值（完整 URL）原样返回
const coverPrefix = "covers/"

// CoverSigner turns stored cover object keys into presigned GET URLs.
// A nil *CoverSigner passes every value through unchanged.
type CoverSigner struct {
	client *minio.Client
	bucket string
	expiry time.Duration
}

// NewCoverSigner 根据配置创建签名器。未配置 MINIO_ENDPOINT 时返回 nil
func NewCoverSigner(cfg *config.Config) (*CoverSigner, error) {
	if cfg.MinioEndpoint == "" {
		logger.Info("MinIO endpoint not configured, cover URLs are returned as stored")
		return nil, nil
	}

	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure: cfg.MinioUseSSL,
		Region: cfg.MinioRegion,
	})
	if err != nil {
		return nil, fmt.Errorf("创建 MinIO 客户端失败: %w", err)
	}

	expiry := cfg.CoverURLExpiry
	if expiry <= 0 || expiry > 7*24*time.Hour {
		expiry = time.Hour
	}

	logger.Info("MinIO cover signer ready",
		logger.String("endpoint", cfg.MinioEndpoint),
		logger.String("bucket", cfg.MinioBucket),
		logger.Duration("expiry", expiry))
	return &CoverSigner{client: client, bucket: cfg.MinioBucket, expiry: expiry}, nil
}

// CheckBucket 确认存储桶存在
func (s *CoverSigner) CheckBucket(ctx context.Context) error {
	if s == nil {
		return nil
	}
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("检查存储桶失败: %w", err)
	}
	if !exists {
		return fmt.Errorf("存储桶不存在: %s", s.bucket)
	}
	return nil
}

// SignURL presigns raw when it is a cover object key. Signing failures are
// logged and the stored value is returned.
func (s *CoverSigner) SignURL(ctx context.Context, raw string) string {
	if s == nil || !strings.HasPrefix(raw, coverPrefix) {
		return raw
	}
	u, err := s.client.PresignedGetObject(ctx, s.bucket, raw, s.expiry, url.Values{})
	if err != nil {
		logger.Warn("Failed to presign cover URL", logger.String("key", raw), logger.ErrorField(err))
		return raw
	}
	return u.String()
}

// SignTracks returns shallow copies of tracks with track and album cover URLs
// signed. The input tracks are left untouched.
func (s *CoverSigner) SignTracks(ctx context.Context, tracks []*model.Track) []*model.Track {
	if s == nil {
		return tracks
	}
	out := make([]*model.Track, 0, len(tracks))
	for _, t := range tracks {
		if t == nil {
			continue
		}
		cp := *t
		cp.CoverURL = s.signPtr(ctx, t.CoverURL)
		if t.Album != nil {
			album := *t.Album
			album.CoverURL = s.signPtr(ctx, t.Album.CoverURL)
			cp.Album = &album
		}
		out = append(out, &cp)
	}
	return out
}

func (s *CoverSigner) signPtr(ctx context.Context, v *string) *string {
	if v == nil {
		return nil
	}
	signed := s.SignURL(ctx, *v)
	return &signed
}
