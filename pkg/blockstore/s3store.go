package blockstore

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/claudefs/claudefs/pkg/claudeerr"
)

// S3Config describes how to reach an S3-compatible bucket. Endpoint
// and ForcePathStyle exist for MinIO and other self-hosted
// S3-compatible stores, not just AWS.
type S3Config struct {
	AccessKeyID     string
	SecretAccessKey string
	Region          string
	Endpoint        string
	Bucket          string
	Prefix          string
	ForcePathStyle  bool
}

// S3ObjectStore implements ObjectStore against an S3-compatible
// bucket, keying segments as "<prefix><segment_id_decimal>".
type S3ObjectStore struct {
	cfg S3Config

	mu     sync.Mutex
	client *s3.Client
	opened bool
}

func NewS3ObjectStore(cfg S3Config) *S3ObjectStore {
	return &S3ObjectStore{cfg: cfg}
}

func (s *S3ObjectStore) ensureOpen(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.opened {
		return nil
	}

	var opts []func(*config.LoadOptions) error
	if s.cfg.Region != "" {
		opts = append(opts, config.WithRegion(s.cfg.Region))
	}
	if s.cfg.AccessKeyID != "" && s.cfg.SecretAccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(s.cfg.AccessKeyID, s.cfg.SecretAccessKey, ""),
		))
	}

	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return claudeerr.Wrap(claudeerr.DomainStorage, claudeerr.KindIO, "failed to load AWS config", err)
	}

	var s3Opts []func(*s3.Options)
	if s.cfg.Endpoint != "" {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(s.cfg.Endpoint)
		})
	}
	if s.cfg.ForcePathStyle {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.UsePathStyle = true
		})
	}

	s.client = s3.NewFromConfig(cfg, s3Opts...)
	s.opened = true
	return nil
}

func (s *S3ObjectStore) key(id uint64) string {
	return SegmentKey(s.cfg.Prefix, id)
}

func (s *S3ObjectStore) PutSegment(ctx context.Context, id uint64, data []byte) error {
	if err := s.ensureOpen(ctx); err != nil {
		return err
	}
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(s.key(id)),
		Body:   bytes.NewReader(data),
	})
	if err != nil {
		return claudeerr.Wrap(claudeerr.DomainStorage, claudeerr.KindIO, "s3 put segment failed", err)
	}
	return nil
}

func (s *S3ObjectStore) GetSegment(ctx context.Context, id uint64) ([]byte, error) {
	if err := s.ensureOpen(ctx); err != nil {
		return nil, err
	}
	resp, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(s.key(id)),
	})
	if err != nil {
		return nil, claudeerr.Wrap(claudeerr.DomainStorage, claudeerr.KindIO, "s3 get segment failed", err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, claudeerr.Wrap(claudeerr.DomainStorage, claudeerr.KindIO, "s3 read segment body failed", err)
	}
	return data, nil
}

func (s *S3ObjectStore) DeleteSegment(ctx context.Context, id uint64) error {
	if err := s.ensureOpen(ctx); err != nil {
		return err
	}
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(s.key(id)),
	})
	if err != nil {
		return claudeerr.Wrap(claudeerr.DomainStorage, claudeerr.KindIO, "s3 delete segment failed", err)
	}
	return nil
}

func (s *S3ObjectStore) Exists(ctx context.Context, id uint64) (bool, error) {
	if err := s.ensureOpen(ctx); err != nil {
		return false, err
	}
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(s.key(id)),
	})
	if err != nil {
		var nf *types.NoSuchKey
		if errors.As(err, &nf) {
			return false, nil
		}
		return false, claudeerr.Wrap(claudeerr.DomainStorage, claudeerr.KindIO, "s3 head segment failed", err)
	}
	return true, nil
}

func (s *S3ObjectStore) ListSegments(ctx context.Context) ([]uint64, error) {
	if err := s.ensureOpen(ctx); err != nil {
		return nil, err
	}
	prefix := s.cfg.Prefix
	if prefix == "" {
		prefix = defaultSegmentPrefix
	}
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.cfg.Bucket),
		Prefix: aws.String(prefix),
	})
	var ids []uint64
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, claudeerr.Wrap(claudeerr.DomainStorage, claudeerr.KindIO, "s3 list segments failed", err)
		}
		for _, obj := range page.Contents {
			if obj.Key == nil {
				continue
			}
			trimmed := strings.TrimPrefix(*obj.Key, prefix)
			id, err := strconv.ParseUint(trimmed, 10, 64)
			if err != nil {
				continue
			}
			ids = append(ids, id)
		}
	}
	return sortSegmentIDs(ids), nil
}
