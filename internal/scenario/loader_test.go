package scenario

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nipafx/LibFX-sub001/internal/config"
)

// fakeObjects serves objects from memory, one key per page.
type fakeObjects struct {
	objects map[string][]byte
	gets    []string
}

func (f *fakeObjects) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	key := aws.ToString(in.Bucket) + "/" + aws.ToString(in.Key)
	f.gets = append(f.gets, key)
	data, ok := f.objects[key]
	if !ok {
		return nil, fmt.Errorf("NoSuchKey: %s", key)
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (f *fakeObjects) ListObjectsV2(_ context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	bucket := aws.ToString(in.Bucket) + "/"
	var keys []string
	for k := range f.objects {
		if rest, ok := strings.CutPrefix(k, bucket); ok && strings.HasPrefix(rest, aws.ToString(in.Prefix)) {
			keys = append(keys, rest)
		}
	}
	sort.Strings(keys)

	start := 0
	if tok := aws.ToString(in.ContinuationToken); tok != "" {
		start = sort.SearchStrings(keys, tok)
	}
	if start >= len(keys) {
		return &s3.ListObjectsV2Output{}, nil
	}

	out := &s3.ListObjectsV2Output{
		Contents: []types.Object{{Key: aws.String(keys[start])}},
	}
	if start+1 < len(keys) {
		out.IsTruncated = aws.Bool(true)
		out.NextContinuationToken = aws.String(keys[start+1])
	}
	return out, nil
}

const tinyScenario = "name: tiny\ncells:\n  A: {int: 1}\nchain: {outer: A}\n"

func TestLoadFile(t *testing.T) {
	sc, err := NewLoader().Load(context.Background(), filepath.Join("testdata", "depth-two.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "depth-two", sc.Name)
	assert.Equal(t, []string{"b", DerefStep}, sc.Chain.Steps)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := NewLoader().Load(context.Background(), filepath.Join("testdata", "nope.yaml"))
	assert.Equal(t, "S001", codeOf(t, err).Code)
}

func TestLoadInvalidFileHasContext(t *testing.T) {
	path := filepath.Join("testdata", "invalid", "unknown-cell.yaml")
	_, err := NewLoader().Load(context.Background(), path)

	e := codeOf(t, err)
	assert.Equal(t, "S003", e.Code)
	require.NotNil(t, e.Location)
	assert.Equal(t, path, e.Location.File)
	assert.Equal(t, 6, e.Location.Line)
	assert.NotEmpty(t, e.Context)
}

func TestLoadS3(t *testing.T) {
	objects := &fakeObjects{objects: map[string][]byte{
		"bucket/scenarios/tiny.yaml": []byte(tinyScenario),
	}}
	l := NewLoader(WithObjectAPI(objects))

	sc, err := l.Load(context.Background(), "s3://bucket/scenarios/tiny.yaml")
	require.NoError(t, err)
	assert.Equal(t, "tiny", sc.Name)
	assert.Equal(t, "s3://bucket/scenarios/tiny.yaml", sc.Source())
	assert.Equal(t, []string{"bucket/scenarios/tiny.yaml"}, objects.gets)
}

func TestLoadS3Errors(t *testing.T) {
	objects := &fakeObjects{objects: map[string][]byte{}}

	tests := []struct {
		name   string
		loader *Loader
		src    string
		code   string
	}{
		{"missing object", NewLoader(WithObjectAPI(objects)), "s3://bucket/none.yaml", "S001"},
		{"no key", NewLoader(WithObjectAPI(objects)), "s3://bucket", "S007"},
		{"no client", NewLoader(), "s3://bucket/tiny.yaml", "S007"},
		{"other scheme", NewLoader(), "https://example.com/tiny.yaml", "S007"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.loader.Load(context.Background(), tt.src)
			assert.Equal(t, tt.code, codeOf(t, err).Code)
		})
	}
}

func TestListDir(t *testing.T) {
	got, err := NewLoader().List(context.Background(), "testdata")
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join("testdata", "default-on-first.yaml"),
		filepath.Join("testdata", "depth-two.yaml"),
		filepath.Join("testdata", "early-stop.yaml"),
		filepath.Join("testdata", "failing.yaml"),
		filepath.Join("testdata", "shallow.yaml"),
	}, got)
}

func TestListSingleFile(t *testing.T) {
	path := filepath.Join("testdata", "shallow.yaml")
	got, err := NewLoader().List(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, []string{path}, got)
}

func TestListS3Pages(t *testing.T) {
	objects := &fakeObjects{objects: map[string][]byte{
		"bucket/s/b.yaml":     []byte(tinyScenario),
		"bucket/s/a.yml":      []byte(tinyScenario),
		"bucket/s/notes.txt":  []byte("x"),
		"bucket/other/c.yaml": []byte(tinyScenario),
		"elsewhere/s/d.yaml":  []byte(tinyScenario),
	}}

	got, err := NewLoader(WithObjectAPI(objects)).List(context.Background(), "s3://bucket/s/")
	require.NoError(t, err)
	assert.Equal(t, []string{"s3://bucket/s/a.yml", "s3://bucket/s/b.yaml"}, got)
}

func TestSplitS3URI(t *testing.T) {
	bucket, key, ok := SplitS3URI("s3://b/k/x.yaml")
	assert.True(t, ok)
	assert.Equal(t, "b", bucket)
	assert.Equal(t, "k/x.yaml", key)

	_, _, ok = SplitS3URI("s3:///x")
	assert.False(t, ok)
	_, _, ok = SplitS3URI("/tmp/x.yaml")
	assert.False(t, ok)
}

func TestScenarioName(t *testing.T) {
	assert.Equal(t, "depth-two", ScenarioName("testdata/depth-two.yaml"))
	assert.Equal(t, "a", ScenarioName("s3://bucket/s/a.yml"))
	assert.Equal(t, "plain", ScenarioName("plain"))
}

func TestNewS3Client(t *testing.T) {
	t.Setenv("AWS_CONFIG_FILE", filepath.Join(t.TempDir(), "config"))
	t.Setenv("AWS_SHARED_CREDENTIALS_FILE", filepath.Join(t.TempDir(), "credentials"))
	t.Setenv("AWS_PROFILE", "")
	t.Setenv("AWS_ACCESS_KEY_ID", "id")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "secret")
	t.Setenv("AWS_SESSION_TOKEN", "")

	client, err := NewS3Client(context.Background(), config.S3Config{
		Region:    "eu-west-1",
		Endpoint:  "http://localhost:9000",
		PathStyle: true,
	})
	require.NoError(t, err)

	opts := client.Options()
	assert.Equal(t, "eu-west-1", opts.Region)
	assert.True(t, opts.UsePathStyle)
	assert.Equal(t, "http://localhost:9000", aws.ToString(opts.BaseEndpoint))

	require.NotNil(t, opts.Credentials)
	creds, err := opts.Credentials.Retrieve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "id", creds.AccessKeyID)
	assert.Equal(t, "secret", creds.SecretAccessKey)
}

func TestNewS3ClientDefaultRegion(t *testing.T) {
	t.Setenv("AWS_CONFIG_FILE", filepath.Join(t.TempDir(), "config"))
	t.Setenv("AWS_SHARED_CREDENTIALS_FILE", filepath.Join(t.TempDir(), "credentials"))
	t.Setenv("AWS_PROFILE", "")
	t.Setenv("AWS_REGION", "ap-south-1")

	client, err := NewS3Client(context.Background(), config.S3Config{})
	require.NoError(t, err)
	assert.Equal(t, "ap-south-1", client.Options().Region)
	assert.False(t, client.Options().UsePathStyle)
	assert.Nil(t, client.Options().BaseEndpoint)
}
