package s3

import (
	"bytes"
	"context"
	"crypto/md5" // #nosec G501
	"encoding/base64"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/aws/aws-sdk-go/service/s3/s3manager/s3manageriface"
	"github.com/uber-go/tally/v4"
	"go.uber.org/zap"
	"golang.org/x/xerrors"

	"github.com/coinbase/cloudsession/internal/resource/internal/errors"
	"github.com/coinbase/cloudsession/internal/utils/instrument"
	"github.com/coinbase/cloudsession/internal/utils/log"
	"github.com/coinbase/cloudsession/internal/utils/pointer"
)

type (
	Params struct {
		Client     s3iface.S3API
		Uploader   s3manageriface.UploaderAPI
		Downloader s3manageriface.DownloaderAPI
		Region     string
		Logger     *zap.Logger
		Metrics    tally.Scope
	}

	// ServiceResource is the object-oriented view of the S3 service.
	ServiceResource struct {
		client     s3iface.S3API
		uploader   s3manageriface.UploaderAPI
		downloader s3manageriface.DownloaderAPI
		region     string
		logger     *zap.Logger
		metrics    *resourceMetrics
	}

	Bucket struct {
		name     string
		resource *ServiceResource
	}

	Object struct {
		key    string
		bucket *Bucket
	}

	resourceMetrics struct {
		instrumentListBuckets  instrument.Call[[]*Bucket]
		instrumentHeadBucket   instrument.Call[bool]
		instrumentCreateBucket instrument.Call[struct{}]
		instrumentDeleteBucket instrument.Call[struct{}]
		instrumentEmptyBucket  instrument.Call[struct{}]
		instrumentListObjects  instrument.Call[[]*Object]
		instrumentPutObject    instrument.Call[struct{}]
		instrumentGetObject    instrument.Call[[]byte]
		instrumentDeleteObject instrument.Call[struct{}]
	}
)

const (
	ServiceName = "s3"

	// us-east-1 rejects an explicit location constraint.
	defaultRegion = "us-east-1"
)

var (
	ErrObjectNotFound  = errors.ErrObjectNotFound
	ErrBucketNotFound  = errors.ErrBucketNotFound
	ErrRequestCanceled = errors.ErrRequestCanceled
)

func New(params Params) *ServiceResource {
	logger := log.WithPackage(params.Logger)
	metrics := params.Metrics.SubScope(ServiceName)
	notFound := func(err error) bool {
		return xerrors.Is(err, ErrObjectNotFound) || xerrors.Is(err, ErrBucketNotFound)
	}

	return &ServiceResource{
		client:     params.Client,
		uploader:   params.Uploader,
		downloader: params.Downloader,
		region:     params.Region,
		logger:     logger,
		metrics: &resourceMetrics{
			instrumentListBuckets:  instrument.New[[]*Bucket](metrics, "list_buckets", instrument.WithLogger(logger)),
			instrumentHeadBucket:   instrument.New[bool](metrics, "head_bucket", instrument.WithLogger(logger)),
			instrumentCreateBucket: instrument.New[struct{}](metrics, "create_bucket", instrument.WithLogger(logger)),
			instrumentDeleteBucket: instrument.New[struct{}](metrics, "delete_bucket", instrument.WithLogger(logger)),
			instrumentEmptyBucket:  instrument.New[struct{}](metrics, "empty_bucket", instrument.WithLogger(logger)),
			instrumentListObjects:  instrument.New[[]*Object](metrics, "list_objects", instrument.WithLogger(logger)),
			instrumentPutObject:    instrument.New[struct{}](metrics, "put_object", instrument.WithLogger(logger)),
			instrumentGetObject:    instrument.New[[]byte](metrics, "get_object", instrument.WithLogger(logger), instrument.WithFilter(notFound)),
			instrumentDeleteObject: instrument.New[struct{}](metrics, "delete_object", instrument.WithLogger(logger)),
		},
	}
}

func (r *ServiceResource) ServiceName() string {
	return ServiceName
}

// Client returns the low-level client the resource is layered on.
func (r *ServiceResource) Client() s3iface.S3API {
	return r.client
}

func (r *ServiceResource) Bucket(name string) *Bucket {
	return &Bucket{
		name:     name,
		resource: r,
	}
}

// Buckets lists every bucket owned by the caller.
func (r *ServiceResource) Buckets(ctx context.Context) ([]*Bucket, error) {
	return r.metrics.instrumentListBuckets.Instrument(ctx, func(ctx context.Context) ([]*Bucket, error) {
		output, err := r.client.ListBucketsWithContext(ctx, &s3.ListBucketsInput{})
		if err != nil {
			return nil, xerrors.Errorf("failed to list buckets: %w", mapError(err))
		}

		buckets := make([]*Bucket, 0, len(output.Buckets))
		for _, bucket := range output.Buckets {
			buckets = append(buckets, r.Bucket(pointer.Deref(bucket.Name)))
		}
		return buckets, nil
	})
}

func (r *ServiceResource) CreateBucket(ctx context.Context, name string) (*Bucket, error) {
	bucket := r.Bucket(name)
	if err := bucket.Create(ctx); err != nil {
		return nil, err
	}

	return bucket, nil
}

func (b *Bucket) Name() string {
	return b.name
}

func (b *Bucket) Object(key string) *Object {
	return &Object{
		key:    key,
		bucket: b,
	}
}

func (b *Bucket) Exists(ctx context.Context) (bool, error) {
	return b.resource.metrics.instrumentHeadBucket.Instrument(ctx, func(ctx context.Context) (bool, error) {
		_, err := b.resource.client.HeadBucketWithContext(ctx, &s3.HeadBucketInput{
			Bucket: aws.String(b.name),
		})
		if err != nil {
			switch errors.Code(err) {
			case "NotFound", s3.ErrCodeNoSuchBucket:
				return false, nil
			}

			return false, xerrors.Errorf("failed to head bucket %v: %w", b.name, mapError(err))
		}

		return true, nil
	}, zap.String("bucket", b.name))
}

// Create creates the bucket in the resource's region. A bucket that already exists and is owned by the caller is not an error.
func (b *Bucket) Create(ctx context.Context) error {
	return instrument.Wrap(ctx, b.resource.metrics.instrumentCreateBucket, func(ctx context.Context) error {
		input := &s3.CreateBucketInput{
			Bucket: aws.String(b.name),
		}
		if region := b.resource.region; region != "" && region != defaultRegion {
			input.CreateBucketConfiguration = &s3.CreateBucketConfiguration{
				LocationConstraint: aws.String(region),
			}
		}

		if _, err := b.resource.client.CreateBucketWithContext(ctx, input); err != nil {
			switch errors.Code(err) {
			case s3.ErrCodeBucketAlreadyExists, s3.ErrCodeBucketAlreadyOwnedByYou:
				b.resource.logger.Debug("bucket already exists", zap.String("bucket", b.name))
				return nil
			}

			return xerrors.Errorf("failed to create bucket %v: %w", b.name, mapError(err))
		}

		return nil
	}, zap.String("bucket", b.name))
}

// Delete deletes the bucket, which must be empty.
func (b *Bucket) Delete(ctx context.Context) error {
	return instrument.Wrap(ctx, b.resource.metrics.instrumentDeleteBucket, func(ctx context.Context) error {
		if _, err := b.resource.client.DeleteBucketWithContext(ctx, &s3.DeleteBucketInput{
			Bucket: aws.String(b.name),
		}); err != nil {
			return xerrors.Errorf("failed to delete bucket %v: %w", b.name, mapError(err))
		}

		return nil
	}, zap.String("bucket", b.name))
}

// DeleteAll batch-deletes every object in the bucket and then the bucket itself.
func (b *Bucket) DeleteAll(ctx context.Context) error {
	if err := instrument.Wrap(ctx, b.resource.metrics.instrumentEmptyBucket, func(ctx context.Context) error {
		objects, err := b.listObjects(ctx, "")
		if err != nil {
			return err
		}

		if len(objects) == 0 {
			return nil
		}

		batch := make([]s3manager.BatchDeleteObject, 0, len(objects))
		for _, object := range objects {
			batch = append(batch, s3manager.BatchDeleteObject{
				Object: &s3.DeleteObjectInput{
					Bucket: aws.String(b.name),
					Key:    aws.String(object.key),
				},
			})
		}

		iter := &s3manager.DeleteObjectsIterator{Objects: batch}
		if err := s3manager.NewBatchDeleteWithClient(b.resource.client).Delete(ctx, iter); err != nil {
			return xerrors.Errorf("failed to delete objects in bucket %v: %w", b.name, mapError(err))
		}

		b.resource.logger.Debug("emptied bucket", zap.String("bucket", b.name), zap.Int("objects", len(objects)))
		return nil
	}, zap.String("bucket", b.name)); err != nil {
		return err
	}

	return b.Delete(ctx)
}

// Objects lists the objects whose key starts with prefix. An empty prefix lists the whole bucket.
func (b *Bucket) Objects(ctx context.Context, prefix string) ([]*Object, error) {
	return b.resource.metrics.instrumentListObjects.Instrument(ctx, func(ctx context.Context) ([]*Object, error) {
		return b.listObjects(ctx, prefix)
	}, zap.String("bucket", b.name), zap.String("prefix", prefix))
}

func (b *Bucket) listObjects(ctx context.Context, prefix string) ([]*Object, error) {
	input := &s3.ListObjectsV2Input{
		Bucket: aws.String(b.name),
	}
	if prefix != "" {
		input.Prefix = aws.String(prefix)
	}

	var objects []*Object
	if err := b.resource.client.ListObjectsV2PagesWithContext(ctx, input, func(page *s3.ListObjectsV2Output, lastPage bool) bool {
		for _, content := range page.Contents {
			objects = append(objects, b.Object(pointer.Deref(content.Key)))
		}
		return true
	}); err != nil {
		return nil, xerrors.Errorf("failed to list objects in bucket %v: %w", b.name, mapError(err))
	}

	return objects, nil
}

func (o *Object) Key() string {
	return o.key
}

func (o *Object) Bucket() *Bucket {
	return o.bucket
}

// Put uploads body with its Content-MD5 so that S3 rejects a corrupted transfer.
func (o *Object) Put(ctx context.Context, body []byte, contentType string) error {
	return instrument.Wrap(ctx, o.bucket.resource.metrics.instrumentPutObject, func(ctx context.Context) error {
		// #nosec G401
		h := md5.New()
		if _, err := h.Write(body); err != nil {
			return xerrors.Errorf("failed to compute checksum: %w", err)
		}
		checksum := base64.StdEncoding.EncodeToString(h.Sum(nil))

		input := &s3manager.UploadInput{
			Bucket:     aws.String(o.bucket.name),
			Key:        aws.String(o.key),
			Body:       bytes.NewReader(body),
			ContentMD5: aws.String(checksum),
		}
		if contentType != "" {
			input.ContentType = aws.String(contentType)
		}

		if _, err := o.bucket.resource.uploader.UploadWithContext(ctx, input); err != nil {
			return xerrors.Errorf("failed to upload object %v/%v: %w", o.bucket.name, o.key, mapError(err))
		}

		return nil
	}, o.fields(zap.Int("size", len(body)))...)
}

func (o *Object) Get(ctx context.Context) ([]byte, error) {
	return o.bucket.resource.metrics.instrumentGetObject.Instrument(ctx, func(ctx context.Context) ([]byte, error) {
		buf := aws.NewWriteAtBuffer([]byte{})
		if _, err := o.bucket.resource.downloader.DownloadWithContext(ctx, buf, &s3.GetObjectInput{
			Bucket: aws.String(o.bucket.name),
			Key:    aws.String(o.key),
		}); err != nil {
			return nil, xerrors.Errorf("failed to download object %v/%v: %w", o.bucket.name, o.key, mapError(err))
		}

		return buf.Bytes(), nil
	}, o.fields()...)
}

func (o *Object) Delete(ctx context.Context) error {
	return instrument.Wrap(ctx, o.bucket.resource.metrics.instrumentDeleteObject, func(ctx context.Context) error {
		if _, err := o.bucket.resource.client.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(o.bucket.name),
			Key:    aws.String(o.key),
		}); err != nil {
			return xerrors.Errorf("failed to delete object %v/%v: %w", o.bucket.name, o.key, mapError(err))
		}

		return nil
	}, o.fields()...)
}

func (o *Object) fields(extra ...zap.Field) []zap.Field {
	return append([]zap.Field{
		zap.String("bucket", o.bucket.name),
		zap.String("key", o.key),
	}, extra...)
}

// mapError translates well-known AWS error codes into the package's sentinel errors,
// keeping the original error in the chain.
func mapError(err error) error {
	switch errors.Code(err) {
	case s3.ErrCodeNoSuchKey:
		return errors.Mark(err, ErrObjectNotFound)
	case s3.ErrCodeNoSuchBucket:
		return errors.Mark(err, ErrBucketNotFound)
	}

	return errors.MarkCanceled(err)
}
