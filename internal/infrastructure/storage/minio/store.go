// Package minio implements the object-storage adapter for video assets and
// finished reports.
package minio

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/reelgauge/reelgauge/internal/application/evaluation"
	"github.com/reelgauge/reelgauge/internal/config"
	"github.com/reelgauge/reelgauge/internal/domain/rubric"
	"github.com/reelgauge/reelgauge/internal/infrastructure/monitoring/logging"
	"github.com/reelgauge/reelgauge/pkg/errors"
)

// Store is the MinIO-backed evaluation.ObjectStore.
type Store struct {
	client *minio.Client
	http   *http.Client
	cfg    config.MinIOConfig
	logger logging.Logger
}

// NewStore connects to MinIO and ensures the platform buckets exist.
func NewStore(ctx context.Context, cfg config.MinIOConfig, log logging.Logger) (*Store, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeStorageError, "failed to create object storage client")
	}

	s := &Store{
		client: client,
		http:   &http.Client{Timeout: 2 * time.Minute},
		cfg:    cfg,
		logger: log.Named("object_store"),
	}
	for _, bucket := range []string{cfg.AssetBucket, cfg.ReportBucket, cfg.ArtifactBucket} {
		if err := s.ensureBucket(ctx, bucket); err != nil {
			return nil, err
		}
	}
	log.Info("connected to object storage", logging.String("endpoint", cfg.Endpoint))
	return s, nil
}

func (s *Store) ensureBucket(ctx context.Context, bucket string) error {
	exists, err := s.client.BucketExists(ctx, bucket)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeStorageError, "bucket check failed")
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{Region: s.cfg.Region}); err != nil {
		return errors.Wrap(err, errors.ErrCodeStorageError, fmt.Sprintf("failed to create bucket %q", bucket))
	}
	return nil
}

// FetchVideo makes the submitted video addressable in the asset bucket.
// HTTP(S) URIs are downloaded and stored; anything else is treated as a key
// already present in the asset bucket.
func (s *Store) FetchVideo(ctx context.Context, uri string) (evaluation.MediaRef, error) {
	if strings.HasPrefix(uri, "http://") || strings.HasPrefix(uri, "https://") {
		return s.downloadToAssets(ctx, uri)
	}

	key := strings.TrimPrefix(uri, s.cfg.AssetBucket+"/")
	if _, err := s.client.StatObject(ctx, s.cfg.AssetBucket, key, minio.StatObjectOptions{}); err != nil {
		return evaluation.MediaRef{}, errors.Wrap(err, errors.ErrCodeStorageError,
			fmt.Sprintf("submitted video %q is not in storage", uri))
	}
	return evaluation.MediaRef{Bucket: s.cfg.AssetBucket, Key: key, Segment: rubric.SegmentFullVideo}, nil
}

func (s *Store) downloadToAssets(ctx context.Context, uri string) (evaluation.MediaRef, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return evaluation.MediaRef{}, errors.Wrap(err, errors.ErrCodeStorageError, "invalid video url")
	}
	resp, err := s.http.Do(req)
	if err != nil {
		return evaluation.MediaRef{}, errors.Wrap(err, errors.ErrCodeStorageError, "video download failed")
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return evaluation.MediaRef{}, errors.Newf(errors.ErrCodeStorageError,
			"video download returned status %d", resp.StatusCode)
	}

	key := fmt.Sprintf("uploads/%d%s", time.Now().UnixNano(), extensionOf(uri))
	_, err = s.client.PutObject(ctx, s.cfg.AssetBucket, key, resp.Body, resp.ContentLength,
		minio.PutObjectOptions{ContentType: resp.Header.Get("Content-Type")})
	if err != nil {
		return evaluation.MediaRef{}, errors.Wrap(err, errors.ErrCodeStorageError, "video upload to storage failed")
	}
	return evaluation.MediaRef{Bucket: s.cfg.AssetBucket, Key: key, Segment: rubric.SegmentFullVideo}, nil
}

func (s *Store) StoreReport(ctx context.Context, report *evaluation.Report) error {
	raw, err := json.Marshal(report)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "failed to encode report")
	}
	_, err = s.client.PutObject(ctx, s.cfg.ReportBucket, reportKey(report.ID),
		bytes.NewReader(raw), int64(len(raw)),
		minio.PutObjectOptions{ContentType: "application/json"})
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeStorageError, "report upload failed")
	}
	return nil
}

func (s *Store) LoadReport(ctx context.Context, reportID string) (*evaluation.Report, error) {
	obj, err := s.client.GetObject(ctx, s.cfg.ReportBucket, reportKey(reportID), minio.GetObjectOptions{})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeStorageError, "report download failed")
	}
	defer obj.Close()

	var report evaluation.Report
	if err := json.NewDecoder(obj).Decode(&report); err != nil {
		resp := minio.ToErrorResponse(err)
		if resp.Code == "NoSuchKey" {
			return nil, errors.Newf(errors.ErrCodeReportNotFound, "report %s not found", reportID)
		}
		return nil, errors.Wrap(err, errors.ErrCodeStorageError, "report decode failed")
	}
	return &report, nil
}

func (s *Store) PresignReport(ctx context.Context, reportID string, expiry time.Duration) (string, error) {
	if expiry <= 0 {
		expiry = s.cfg.PresignExpiry
	}
	u, err := s.client.PresignedGetObject(ctx, s.cfg.ReportBucket, reportKey(reportID), expiry, nil)
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeStorageError, "failed to presign report url")
	}
	return u.String(), nil
}

func reportKey(reportID string) string {
	return "reports/" + reportID + ".json"
}

func extensionOf(uri string) string {
	if i := strings.LastIndex(uri, "."); i > strings.LastIndex(uri, "/") {
		ext := uri[i:]
		if len(ext) <= 5 {
			return ext
		}
	}
	return ".mp4"
}
