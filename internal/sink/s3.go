package sink

import (
	"context"
	"fmt"
	"log"
	"os"
	"path"
	"path/filepath"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Uploader mirrors rendered output files to an S3 bucket so downstream
// consumers can pick them up without filesystem access.
type S3Uploader struct {
	client *s3.Client
	bucket string
	prefix string
}

// NewS3Uploader creates an uploader using the default AWS credential
// chain.
func NewS3Uploader(ctx context.Context, bucket, region, prefix string) (*S3Uploader, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}
	return &S3Uploader{
		client: s3.NewFromConfig(cfg),
		bucket: bucket,
		prefix: prefix,
	}, nil
}

// UploadFiles uploads each local file under prefix/runID/<basename>.
func (u *S3Uploader) UploadFiles(ctx context.Context, runID string, files []string) error {
	for _, file := range files {
		f, err := os.Open(file)
		if err != nil {
			return fmt.Errorf("open %s: %w", file, err)
		}

		key := path.Join(u.prefix, runID, filepath.Base(file))
		_, err = u.client.PutObject(ctx, &s3.PutObjectInput{
			Bucket: &u.bucket,
			Key:    &key,
			Body:   f,
		})
		f.Close()
		if err != nil {
			return fmt.Errorf("upload %s to s3://%s/%s: %w", file, u.bucket, key, err)
		}
		log.Printf("[Sink] Uploaded s3://%s/%s", u.bucket, key)
	}
	return nil
}
