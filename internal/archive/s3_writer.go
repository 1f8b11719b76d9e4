package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"bedrock_usage/internal/config"
)

// batchWriter persists a batch of snapshots.
type batchWriter interface {
	WriteBatch(ctx context.Context, snapshots []Snapshot) error
}

// S3Writer writes snapshot batches to S3 as JSON Lines objects under
// date-partitioned keys.
type S3Writer struct {
	client  *s3.Client
	bucket  string
	prefix  string
	podName string
}

// NewS3Writer creates a writer using the default AWS credential chain.
func NewS3Writer(ctx context.Context, cfg config.ArchiveConfig) (*S3Writer, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.S3Region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &S3Writer{
		client:  s3.NewFromConfig(awsCfg),
		bucket:  cfg.S3Bucket,
		prefix:  cfg.S3Prefix,
		podName: cfg.PodName,
	}, nil
}

// WriteBatch uploads the snapshots as one JSONL object. The key embeds
// the date, pod name and a nanosecond timestamp so concurrent pods
// never collide.
func (w *S3Writer) WriteBatch(ctx context.Context, snapshots []Snapshot) error {
	if len(snapshots) == 0 {
		return nil
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, snapshot := range snapshots {
		if err := enc.Encode(snapshot); err != nil {
			return fmt.Errorf("failed to encode snapshot: %w", err)
		}
	}

	now := time.Now().UTC()
	key := fmt.Sprintf("%s%s/%s-%d.jsonl", w.prefix, now.Format("2006/01/02"), w.podName, now.UnixNano())

	_, err := w.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(w.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(buf.Bytes()),
		ContentType: aws.String("application/x-ndjson"),
	})
	if err != nil {
		return fmt.Errorf("failed to upload snapshots to s3://%s/%s: %w", w.bucket, key, err)
	}
	return nil
}
