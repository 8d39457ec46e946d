// ABOUTME: Uploads exported Parquet files to S3 under a per-run key prefix.
// ABOUTME: Each object carries its table name and record count as metadata.
package export

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strconv"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/aws/aws-sdk-go/service/s3/s3manager/s3manageriface"
)

// Uploader sends exported files to a bucket.
type Uploader struct {
	API    s3manageriface.UploaderAPI
	Bucket string
	Prefix string
}

// Upload is the result of one uploaded file.
type Upload struct {
	Table    string `json:"table"`
	Key      string `json:"key"`
	Location string `json:"location"`
}

// NewS3Uploader builds an Uploader from the default AWS credential chain.
func NewS3Uploader(region, bucket, prefix string) (*Uploader, error) {
	if bucket == "" {
		return nil, fmt.Errorf("s3 bucket is required")
	}
	cfg := &aws.Config{}
	if region != "" {
		cfg.Region = aws.String(region)
	}
	sess, err := session.NewSession(cfg)
	if err != nil {
		return nil, fmt.Errorf("create aws session: %w", err)
	}
	return &Uploader{API: s3manager.NewUploader(sess), Bucket: bucket, Prefix: prefix}, nil
}

// Key returns the object key for a file of the given run.
func (u *Uploader) Key(runID, file string) string {
	return path.Join(u.Prefix, runID, filepath.Base(file))
}

// UploadFiles uploads each file to <prefix>/<runID>/<name>.
func (u *Uploader) UploadFiles(ctx context.Context, runID string, files []File) ([]Upload, error) {
	uploads := make([]Upload, 0, len(files))
	for _, f := range files {
		up, err := u.uploadFile(ctx, runID, f)
		if err != nil {
			return uploads, err
		}
		uploads = append(uploads, up)
	}
	return uploads, nil
}

func (u *Uploader) uploadFile(ctx context.Context, runID string, f File) (Upload, error) {
	file, err := os.Open(f.Path)
	if err != nil {
		return Upload{}, fmt.Errorf("open %s for upload: %w", f.Path, err)
	}
	defer func() { _ = file.Close() }()

	key := u.Key(runID, f.Path)
	out, err := u.API.UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket:      aws.String(u.Bucket),
		Key:         aws.String(key),
		Body:        file,
		ContentType: aws.String("application/vnd.apache.parquet"),
		Metadata: map[string]*string{
			"record-count": aws.String(strconv.Itoa(f.Records)),
			"table":        aws.String(f.Table),
			"run-id":       aws.String(runID),
		},
	})
	if err != nil {
		return Upload{}, fmt.Errorf("upload s3://%s/%s: %w", u.Bucket, key, err)
	}
	return Upload{Table: f.Table, Key: key, Location: out.Location}, nil
}
