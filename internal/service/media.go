package service

import (
	"context"
	"fmt"
	"mime/multipart"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/devhance/backend/config"
	"github.com/devhance/backend/internal/apperror"
)

// MediaService uploads images to the configured S3 bucket and returns
// their public URLs.
type MediaService struct {
	s3Cfg *config.S3Config
}

var _ IMediaService = (*MediaService)(nil)

func NewMediaService(s3Cfg *config.S3Config) *MediaService {
	return &MediaService{s3Cfg: s3Cfg}
}

// UploadImages stores each file under folder/<uuid><ext> and returns
// the URLs in input order. The batch is all-or-nothing: the first
// failure aborts the whole upload so the caller never persists a
// partially-uploaded set.
func (s *MediaService) UploadImages(ctx context.Context, files []*multipart.FileHeader, folder string) ([]string, error) {
	urls := make([]string, 0, len(files))
	for _, header := range files {
		url, err := s.uploadOne(ctx, header, folder)
		if err != nil {
			log.Error().Err(err).Str("filename", header.Filename).Msg("image upload failed")
			return nil, apperror.Upstream("failed to upload image", err)
		}
		urls = append(urls, url)
	}
	return urls, nil
}

func (s *MediaService) uploadOne(ctx context.Context, header *multipart.FileHeader, folder string) (string, error) {
	file, err := header.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	key := fmt.Sprintf("%s/%s%s", folder, uuid.New().String(), ext)

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	_, err = s.s3Cfg.Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.s3Cfg.BucketName),
		Key:         aws.String(key),
		Body:        file,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to store object: %w", err)
	}

	return fmt.Sprintf("https://%s.s3.amazonaws.com/%s", s.s3Cfg.BucketName, key), nil
}
