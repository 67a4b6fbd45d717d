package scenario

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/nipafx/LibFX-sub001/internal/config"
	"github.com/nipafx/LibFX-sub001/internal/errors"
)

// S3Scheme prefixes scenario sources stored in S3.
const S3Scheme = "s3://"

// ObjectAPI is the part of the S3 client the loader uses. *s3.Client
// implements it.
type ObjectAPI interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

// NewS3Client builds an S3 client from cfg. Credentials are resolved by the
// SDK's default chain (environment, shared config files, instance roles);
// cfg only overrides the region, the endpoint and the addressing style.
func NewS3Client(ctx context.Context, cfg config.S3Config) (*s3.Client, error) {
	var loadOpts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(cfg.Region))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, errors.New("C003").
			WithDetail("loading AWS configuration for scenario sources failed").
			Wrap(err)
	}
	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.PathStyle
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	}), nil
}

// Loader reads scenarios from local files and S3.
type Loader struct {
	objects ObjectAPI
	logger  *slog.Logger
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithObjectAPI sets the client used for s3:// sources.
func WithObjectAPI(api ObjectAPI) LoaderOption {
	return func(l *Loader) {
		l.objects = api
	}
}

// WithLoaderLogger sets the loader's logger.
func WithLoaderLogger(logger *slog.Logger) LoaderOption {
	return func(l *Loader) {
		l.logger = logger
	}
}

// NewLoader returns a Loader. Without WithObjectAPI, s3:// sources fail
// with S007.
func NewLoader(opts ...LoaderOption) *Loader {
	l := &Loader{}
	for _, opt := range opts {
		opt(l)
	}
	if l.logger == nil {
		l.logger = slog.Default()
	}
	return l
}

// SplitS3URI splits "s3://bucket/key" into bucket and key.
func SplitS3URI(uri string) (bucket, key string, ok bool) {
	rest, found := strings.CutPrefix(uri, S3Scheme)
	if !found {
		return "", "", false
	}
	bucket, key, _ = strings.Cut(rest, "/")
	if bucket == "" {
		return "", "", false
	}
	return bucket, key, true
}

// Load reads and parses the scenario at src, a file path or s3:// URI.
func (l *Loader) Load(ctx context.Context, src string) (*Scenario, error) {
	data, err := l.Read(ctx, src)
	if err != nil {
		return nil, err
	}
	return Parse(data, src)
}

// Read returns the raw document at src.
func (l *Loader) Read(ctx context.Context, src string) ([]byte, error) {
	if strings.HasPrefix(src, S3Scheme) {
		return l.readObject(ctx, src)
	}
	if strings.Contains(src, "://") {
		return nil, errors.New("S007").WithDetail(src)
	}

	data, err := os.ReadFile(src)
	if err != nil {
		return nil, errors.New("S001").WithDetail(src).Wrap(err)
	}
	l.logger.Debug("scenario read", "source", src, "bytes", len(data))
	return data, nil
}

func (l *Loader) readObject(ctx context.Context, src string) ([]byte, error) {
	bucket, key, ok := SplitS3URI(src)
	if !ok || key == "" {
		return nil, errors.New("S007").WithDetail(src + " does not name an object")
	}
	if l.objects == nil {
		return nil, errors.New("S007").WithDetail(src + ": no S3 client configured")
	}

	out, err := l.objects.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, errors.New("S001").WithDetail(src).Wrap(err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, errors.New("S001").WithDetail(src).Wrap(err)
	}
	l.logger.Debug("scenario read", "source", src, "bytes", len(data))
	return data, nil
}

// List returns the scenario sources under src: the *.yaml and *.yml files
// of a directory, or the objects below an s3:// prefix. A single file
// lists as itself.
func (l *Loader) List(ctx context.Context, src string) ([]string, error) {
	if strings.HasPrefix(src, S3Scheme) {
		return l.listObjects(ctx, src)
	}
	if strings.Contains(src, "://") {
		return nil, errors.New("S007").WithDetail(src)
	}

	info, err := os.Stat(src)
	if err != nil {
		return nil, errors.New("S001").WithDetail(src).Wrap(err)
	}
	if !info.IsDir() {
		return []string{src}, nil
	}

	entries, err := os.ReadDir(src)
	if err != nil {
		return nil, errors.New("S001").WithDetail(src).Wrap(err)
	}
	var out []string
	for _, e := range entries {
		if !e.IsDir() && isScenarioFile(e.Name()) {
			out = append(out, filepath.Join(src, e.Name()))
		}
	}
	sort.Strings(out)
	return out, nil
}

func (l *Loader) listObjects(ctx context.Context, src string) ([]string, error) {
	bucket, prefix, ok := SplitS3URI(src)
	if !ok {
		return nil, errors.New("S007").WithDetail(src + " does not name a bucket")
	}
	if l.objects == nil {
		return nil, errors.New("S007").WithDetail(src + ": no S3 client configured")
	}

	var out []string
	pages := s3.NewListObjectsV2Paginator(l.objects, &s3.ListObjectsV2Input{
		Bucket: aws.String(bucket),
		Prefix: aws.String(prefix),
	})
	for pages.HasMorePages() {
		page, err := pages.NextPage(ctx)
		if err != nil {
			return nil, errors.New("S001").WithDetail(src).Wrap(err)
		}
		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			if isScenarioFile(key) {
				out = append(out, fmt.Sprintf("%s%s/%s", S3Scheme, bucket, key))
			}
		}
	}
	sort.Strings(out)
	return out, nil
}

// ScenarioName returns the name a source is addressed by: its base name
// without extension.
func ScenarioName(src string) string {
	base := path.Base(filepath.ToSlash(src))
	return strings.TrimSuffix(strings.TrimSuffix(base, ".yaml"), ".yml")
}

func isScenarioFile(name string) bool {
	return strings.HasSuffix(name, ".yaml") || strings.HasSuffix(name, ".yml")
}
