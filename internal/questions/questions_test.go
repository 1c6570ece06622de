package questions_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/klauspost/compress/zstd"
	"github.com/programme-lv/grader/api"
	"github.com/programme-lv/grader/internal/questions"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testsToml = `
[[tests]]
in = "3\n5\n"
ans = "8"

[[tests]]
in = "10\n-2\n"
ans = "8\n"
`

var wantTests = []api.TestCase{
	{Input: "3\n5\n", ExpectedOutput: "8"},
	{Input: "10\n-2\n", ExpectedOutput: "8\n"},
}

func writeFile(t *testing.T, dir string, name string, content []byte) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, content, 0o644))
	return p
}

func compress(t *testing.T, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	w, err := zstd.NewWriter(&buf)
	require.NoError(t, err)
	_, err = w.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func TestParseTests(t *testing.T) {
	tests, err := questions.ParseTests([]byte(testsToml))
	require.NoError(t, err)
	assert.Equal(t, wantTests, tests)

	empty, err := questions.ParseTests([]byte(""))
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	_, err = questions.ParseTests([]byte("[[tests]\nin = "))
	assert.Error(t, err)
}

func TestParseQuestion(t *testing.T) {
	q, err := questions.ParseQuestion([]byte(`{"title":"Sum","prompt":"Add two numbers.","sample_input":"1\n2\n"}`))
	require.NoError(t, err)
	assert.Equal(t, "Sum", q.Title)
	assert.Equal(t, "Add two numbers.", q.Prompt)
	assert.Equal(t, "1\n2\n", q.SampleInput)

	_, err = questions.ParseQuestion([]byte(`{"title":`))
	assert.Error(t, err)
}

func TestFetchZstdMatchesPlain(t *testing.T) {
	dir := t.TempDir()
	plain := writeFile(t, dir, "tests.toml", []byte(testsToml))
	packed := writeFile(t, dir, "tests.toml.zst", compress(t, []byte(testsToml)))

	f := questions.NewFetcher(nil)
	a, err := f.Fetch(context.Background(), plain)
	require.NoError(t, err)
	b, err := f.Fetch(context.Background(), packed)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestFetchMissingFile(t *testing.T) {
	f := questions.NewFetcher(nil)
	_, err := f.Fetch(context.Background(), filepath.Join(t.TempDir(), "nope.json"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestParseS3Location(t *testing.T) {
	cases := []struct {
		location string
		bucket   string
		key      string
		isS3     bool
		wantErr  bool
	}{
		{location: "data/tests.toml"},
		{location: "/abs/question.json"},
		{location: "s3://my-bucket/grader/tests.toml", bucket: "my-bucket", key: "grader/tests.toml", isS3: true},
		{location: "https://my-bucket.s3.eu-central-1.amazonaws.com/q.json", bucket: "my-bucket", key: "q.json", isS3: true},
		{location: "s3://my-bucket/", wantErr: true},
		{location: "https://bucket.s4.s3.amazonaws.com/x", wantErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.location, func(t *testing.T) {
			bucket, key, isS3, err := questions.ParseS3Location(tc.location)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.isS3, isS3)
			assert.Equal(t, tc.bucket, bucket)
			assert.Equal(t, tc.key, key)
		})
	}
}

type fakeS3 struct {
	objects     map[string][]byte
	contentType map[string]string
	calls       int
}

func (f *fakeS3) GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.calls++
	id := aws.ToString(params.Bucket) + "/" + aws.ToString(params.Key)
	data, ok := f.objects[id]
	if !ok {
		return nil, errors.New("NoSuchKey")
	}
	out := &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}
	if ct, ok := f.contentType[id]; ok {
		out.ContentType = aws.String(ct)
	}
	return out, nil
}

func TestFetchFromS3(t *testing.T) {
	client := &fakeS3{
		objects: map[string][]byte{
			"bucket/tests":    compress(t, []byte(testsToml)),
			"bucket/tests.md": []byte("plain"),
		},
		contentType: map[string]string{"bucket/tests": "application/zstd"},
	}
	f := questions.NewFetcher(client)

	data, err := f.Fetch(context.Background(), "s3://bucket/tests")
	require.NoError(t, err)
	assert.Equal(t, testsToml, string(data))

	data, err = f.Fetch(context.Background(), "https://bucket.s3.eu-central-1.amazonaws.com/tests.md")
	require.NoError(t, err)
	assert.Equal(t, "plain", string(data))

	_, err = f.Fetch(context.Background(), "s3://bucket/missing")
	assert.Error(t, err)
}

func TestFetchS3WithoutClient(t *testing.T) {
	_, err := questions.NewFetcher(nil).Fetch(context.Background(), "s3://bucket/key")
	assert.ErrorIs(t, err, questions.ErrNoS3Client)
}

func TestStore(t *testing.T) {
	dir := t.TempDir()
	qPath := writeFile(t, dir, "question.json", []byte(`{"title":"Sum","prompt":"v1","sample_input":""}`))
	tPath := writeFile(t, dir, "tests.toml", []byte(testsToml))

	store, err := questions.NewStore(context.Background(), questions.NewFetcher(nil), qPath, tPath)
	require.NoError(t, err)

	q, err := store.Question(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "v1", q.Prompt)

	// the question is re-read on every call
	writeFile(t, dir, "question.json", []byte(`{"title":"Sum","prompt":"v2","sample_input":"1 2"}`))
	q, err = store.Question(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "v2", q.Prompt)
	assert.Equal(t, "1 2", q.SampleInput)

	// tests are loaded once
	writeFile(t, dir, "tests.toml", []byte(""))
	tests := store.Tests()
	assert.Equal(t, wantTests, tests)

	tests[0].ExpectedOutput = "changed"
	assert.Equal(t, wantTests, store.Tests())
}

func TestStoreErrors(t *testing.T) {
	dir := t.TempDir()
	f := questions.NewFetcher(nil)

	_, err := questions.NewStore(context.Background(), f, "q.json", filepath.Join(dir, "missing.toml"))
	assert.Error(t, err)

	tPath := writeFile(t, dir, "tests.toml", []byte(testsToml))
	store, err := questions.NewStore(context.Background(), f, filepath.Join(dir, "missing.json"), tPath)
	require.NoError(t, err)
	_, err = store.Question(context.Background())
	assert.Error(t, err)

	writeFile(t, dir, "bad.json", []byte("{"))
	store, err = questions.NewStore(context.Background(), f, filepath.Join(dir, "bad.json"), tPath)
	require.NoError(t, err)
	_, err = store.Question(context.Background())
	assert.Error(t, err)
}
