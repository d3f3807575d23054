package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"arkeep/internal/ark"
	"arkeep/internal/model"
)

// Object metadata keys carried with every archive. S3 lowercases user
// metadata keys, so these are lowercase from the start.
const (
	metaComment = "comment"
	metaPath    = "src-path"
	metaSize    = "src-size"
	metaMtime   = "src-mtime"
)

// S3Store implements the ArchiveStore interface on top of an S3 bucket.
// Each archive is one object under <prefix>/archives/<name>; the comment and
// the single file entry travel as object metadata, so listings and metadata
// reads never download archive bodies.
type S3Store struct {
	client   *s3.Client
	uploader *manager.Uploader
	bucket   string
	prefix   string
}

// NewS3Store creates an S3-backed archive store. When accessKey is empty the
// ambient AWS configuration chain (env, shared config, instance role) is
// used; otherwise static credentials are installed.
func NewS3Store(bucket, prefix, region, accessKey, secretKey string) (*S3Store, error) {
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(region)}
	if accessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(accessKey, secretKey, "")))
	}

	cfg, err := awsconfig.LoadDefaultConfig(context.Background(), opts...)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}

	client := s3.NewFromConfig(cfg)
	return &S3Store{
		client:   client,
		uploader: manager.NewUploader(client),
		bucket:   bucket,
		prefix:   strings.TrimSuffix(prefix, "/"),
	}, nil
}

// Create uploads the file as one object with the comment and file entry in
// object metadata.
func (s *S3Store) Create(filePath, archiveName, comment string) error {
	ctx := context.Background()
	key := s.key(archiveName)

	if _, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}); err == nil {
		return fmt.Errorf("archive already exists: %s", archiveName)
	}

	f, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("opening %s: %w", filePath, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat %s: %w", filePath, err)
	}

	_, err = s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   f,
		Metadata: map[string]string{
			metaComment: comment,
			metaPath:    filePath,
			metaSize:    strconv.FormatInt(info.Size(), 10),
			metaMtime:   info.ModTime().UTC().Format(time.RFC3339Nano),
		},
	})
	if err != nil {
		return fmt.Errorf("uploading archive %s: %w", archiveName, err)
	}
	return nil
}

// ListNames returns all archive names in creation order.
func (s *S3Store) ListNames() ([]string, error) {
	named, err := s.ListNamesWithTimes()
	if err != nil {
		return nil, err
	}
	names := make([]string, len(named))
	for i, nt := range named {
		names[i] = nt.Name
	}
	return names, nil
}

// ListNamesWithTimes pages through the bucket listing. Creation order is the
// object LastModified time; archives are immutable so the two coincide.
func (s *S3Store) ListNamesWithTimes() ([]ark.NamedTime, error) {
	ctx := context.Background()
	keyPrefix := s.key("")

	var named []ark.NamedTime
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(keyPrefix),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("%w: listing bucket: %v", ark.ErrStoreUnavailable, err)
		}
		for _, obj := range page.Contents {
			name := strings.TrimPrefix(aws.ToString(obj.Key), keyPrefix)
			if name == "" {
				continue
			}
			named = append(named, ark.NamedTime{Name: name, CreatedAt: aws.ToTime(obj.LastModified)})
		}
	}

	sort.Slice(named, func(i, j int) bool { return named[i].CreatedAt.Before(named[j].CreatedAt) })
	return named, nil
}

// ReadComment returns the comment from the object metadata.
func (s *S3Store) ReadComment(archiveName string) (string, error) {
	meta, err := s.headMetadata(archiveName)
	if err != nil {
		return "", err
	}
	return meta[metaComment], nil
}

// ListFileEntries reconstructs the single file entry from object metadata.
func (s *S3Store) ListFileEntries(archiveName string) ([]model.FileEntry, error) {
	meta, err := s.headMetadata(archiveName)
	if err != nil {
		return nil, err
	}

	size, err := strconv.ParseInt(meta[metaSize], 10, 64)
	if err != nil {
		return nil, &ark.ArchiveReadError{Name: archiveName, Err: fmt.Errorf("bad size metadata %q", meta[metaSize])}
	}
	mtime, err := time.Parse(time.RFC3339Nano, meta[metaMtime])
	if err != nil {
		return nil, &ark.ArchiveReadError{Name: archiveName, Err: fmt.Errorf("bad mtime metadata %q", meta[metaMtime])}
	}
	return []model.FileEntry{{Path: meta[metaPath], Size: size, ModTime: mtime}}, nil
}

// Delete removes the archive object.
func (s *S3Store) Delete(archiveName string) error {
	_, err := s.client.DeleteObject(context.Background(), &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(archiveName)),
	})
	if err != nil {
		return fmt.Errorf("deleting archive %s: %w", archiveName, err)
	}
	return nil
}

// Validate checks the bucket is reachable with the current credentials.
func (s *S3Store) Validate() error {
	_, err := s.client.HeadBucket(context.Background(), &s3.HeadBucketInput{
		Bucket: aws.String(s.bucket),
	})
	if err != nil {
		return fmt.Errorf("%w: bucket %s: %v", ark.ErrStoreUnavailable, s.bucket, err)
	}
	return nil
}

func (s *S3Store) headMetadata(archiveName string) (map[string]string, error) {
	out, err := s.client.HeadObject(context.Background(), &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(archiveName)),
	})
	if err != nil {
		var nf *types.NotFound
		if errors.As(err, &nf) {
			return nil, &ark.ArchiveReadError{Name: archiveName, Err: fmt.Errorf("not found")}
		}
		return nil, &ark.ArchiveReadError{Name: archiveName, Err: err}
	}
	return out.Metadata, nil
}

func (s *S3Store) key(archiveName string) string {
	if s.prefix == "" {
		return "archives/" + archiveName
	}
	return s.prefix + "/archives/" + archiveName
}

// Compile-time check that S3Store implements the ArchiveStore interface.
var _ ark.ArchiveStore = (*S3Store)(nil)
