package s3

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"testing"
	"time"

	aws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"

	"virocore/internal/blob/core"
)

// fakeTransport implements the handful of S3 calls the store uses, entirely
// in memory, so the adapter can be exercised without network access.
type fakeTransport struct{ objects map[string]fakeObject }

type fakeObject struct {
	body        []byte
	contentType string
}

func (f *fakeTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	parts := strings.SplitN(strings.TrimPrefix(req.URL.Path, "/"), "/", 2)
	key := ""
	if len(parts) == 2 {
		key = parts[1]
	}
	if req.Method == http.MethodGet && strings.Contains(req.URL.RawQuery, "list-type=2") {
		return f.list(req), nil
	}
	switch req.Method {
	case http.MethodHead:
		obj, ok := f.objects[key]
		if !ok {
			return xmlResponse(http.StatusNotFound, ""), nil
		}
		resp := xmlResponse(http.StatusOK, "")
		resp.Header.Set("Content-Length", strconv.Itoa(len(obj.body)))
		resp.Header.Set("Content-Type", obj.contentType)
		resp.Header.Set("ETag", `"fake-etag"`)
		resp.Header.Set("Last-Modified", time.Now().UTC().Format(http.TimeFormat))
		return resp, nil
	case http.MethodPut:
		body, _ := io.ReadAll(req.Body)
		if decoded, ok := stripAWSChunking(body); ok {
			body = decoded
		}
		if _, exists := f.objects[key]; !exists {
			f.objects[key] = fakeObject{body: body, contentType: req.Header.Get("Content-Type")}
		}
		resp := xmlResponse(http.StatusOK, "")
		resp.Header.Set("ETag", `"fake-etag"`)
		return resp, nil
	case http.MethodGet:
		obj, ok := f.objects[key]
		if !ok {
			return xmlResponse(http.StatusNotFound, ""), nil
		}
		resp := xmlResponse(http.StatusOK, string(obj.body))
		resp.Header.Set("Content-Length", strconv.Itoa(len(obj.body)))
		resp.Header.Set("Content-Type", obj.contentType)
		resp.Header.Set("ETag", `"fake-etag"`)
		resp.Header.Set("Last-Modified", time.Now().UTC().Format(http.TimeFormat))
		return resp, nil
	case http.MethodDelete:
		delete(f.objects, key)
		return xmlResponse(http.StatusNoContent, ""), nil
	}
	return xmlResponse(http.StatusNotImplemented, ""), nil
}

// list serves ListObjectsV2. With more than one match and no continuation
// token the first page is truncated, which exercises the pagination loop.
func (f *fakeTransport) list(req *http.Request) *http.Response {
	prefix := req.URL.Query().Get("prefix")
	token := req.URL.Query().Get("continuation-token")
	var keys []string
	for k := range f.objects {
		if prefix == "" || strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(`<?xml version="1.0"?><ListBucketResult>`)
	if token == "" && len(keys) > 1 {
		b.WriteString("<IsTruncated>true</IsTruncated><NextContinuationToken>page2</NextContinuationToken>")
		keys = keys[:1]
	} else {
		b.WriteString("<IsTruncated>false</IsTruncated>")
		if token != "" && len(keys) > 1 {
			keys = keys[1:]
		}
	}
	for _, k := range keys {
		fmt.Fprintf(&b, "<Contents><Key>%s</Key><Size>%d</Size><LastModified>2024-01-01T00:00:00Z</LastModified></Contents>", k, len(f.objects[k].body))
	}
	b.WriteString("</ListBucketResult>")
	resp := xmlResponse(http.StatusOK, b.String())
	resp.Header.Set("Content-Type", "application/xml")
	return resp
}

func xmlResponse(status int, body string) *http.Response {
	return &http.Response{StatusCode: status, Body: io.NopCloser(strings.NewReader(body)), Header: http.Header{}}
}

// stripAWSChunking decodes a minimal single-chunk aws-chunked payload:
// <hex-size>\r\n<body>\r\n0\r\n...
func stripAWSChunking(b []byte) ([]byte, bool) {
	parts := strings.Split(string(b), "\r\n")
	if len(parts) < 3 {
		return nil, false
	}
	n, err := strconv.ParseInt(parts[0], 16, 64)
	if err != nil || n <= 0 || int64(len(parts[1])) != n || parts[2] != "0" {
		return nil, false
	}
	return []byte(parts[1]), true
}

func newFakeStore(t *testing.T) *Store {
	t.Helper()
	rt := &fakeTransport{objects: make(map[string]fakeObject)}
	cfg, err := config.LoadDefaultConfig(context.Background(),
		config.WithRegion("us-east-1"),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider("AKIA", "SECRET", "")),
	)
	if err != nil {
		t.Fatalf("aws config: %v", err)
	}
	client := awss3.NewFromConfig(cfg, func(o *awss3.Options) {
		o.BaseEndpoint = aws.String("https://fake.s3.local")
		o.HTTPClient = &http.Client{Transport: rt}
		o.UsePathStyle = true
	})
	return &Store{client: client, bucket: "blueprint-artifacts", presign: awss3.NewPresignClient(client)}
}

func TestStoreRoundTrip(t *testing.T) {
	store := newFakeStore(t)
	ctx := context.Background()

	info, err := store.Put(ctx, "blueprints/demo.json", bytes.NewReader([]byte(`{"rules":[]}`)), core.PutOptions{ContentType: "application/json"})
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if info.Key != "blueprints/demo.json" || info.ContentType != "application/json" {
		t.Fatalf("unexpected info %#v", info)
	}
	if _, err := store.Put(ctx, "blueprints/demo.json", bytes.NewReader([]byte("other")), core.PutOptions{}); err == nil {
		t.Fatal("duplicate put accepted")
	}

	_, rc, err := store.Get(ctx, "blueprints/demo.json")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	payload, _ := io.ReadAll(rc)
	_ = rc.Close()
	if string(payload) != `{"rules":[]}` {
		t.Fatalf("get payload = %q", payload)
	}

	if _, err := store.Head(ctx, "blueprints/demo.json"); err != nil {
		t.Fatalf("head: %v", err)
	}
	if url, err := store.PresignURL(ctx, "blueprints/demo.json", core.SignedURLOptions{}); err != nil || url == "" {
		t.Fatalf("presign: %v %q", err, url)
	}
	if ok, err := store.Delete(ctx, "blueprints/demo.json"); err != nil || !ok {
		t.Fatalf("delete: %v %v", ok, err)
	}
}

func TestStoreListPaginates(t *testing.T) {
	store := newFakeStore(t)
	ctx := context.Background()
	for _, key := range []string{"blueprints/a.json", "blueprints/b.csv"} {
		if _, err := store.Put(ctx, key, bytes.NewReader([]byte("x")), core.PutOptions{}); err != nil {
			t.Fatalf("put %s: %v", key, err)
		}
	}
	infos, err := store.List(ctx, "blueprints/")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(infos) != 2 || infos[0].Key != "blueprints/a.json" || infos[1].Key != "blueprints/b.csv" {
		t.Fatalf("list = %+v", infos)
	}
	if infos, err := store.List(ctx, "snapshots/"); err != nil || len(infos) != 0 {
		t.Fatalf("expected empty list: %v %+v", err, infos)
	}
}

func TestStoreErrorPaths(t *testing.T) {
	store := newFakeStore(t)
	ctx := context.Background()
	if _, err := store.Head(ctx, "missing"); err == nil {
		t.Fatal("head of missing key succeeded")
	}
	if _, _, err := store.Get(ctx, "missing"); err == nil {
		t.Fatal("get of missing key succeeded")
	}
	if _, err := store.PresignURL(ctx, "k", core.SignedURLOptions{Method: "PUT"}); err == nil {
		t.Fatal("non-GET presign accepted")
	}
	if _, err := New(ctx, Config{}); err == nil {
		t.Fatal("missing bucket accepted")
	}
}

func TestNewWithStaticCredentials(t *testing.T) {
	store, err := New(context.Background(), Config{
		Bucket:          "bkt",
		Region:          "us-east-1",
		Endpoint:        "https://fake.s3.local",
		AccessKeyID:     "AKIA",
		SecretAccessKey: "SECRET",
		PathStyle:       true,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if store.Driver() != core.DriverS3 {
		t.Fatalf("driver = %s", store.Driver())
	}
}

func TestOpenFromEnv(t *testing.T) {
	t.Setenv("VIROCORE_BLOB_S3_BUCKET", "")
	if _, err := OpenFromEnv(context.Background()); err == nil {
		t.Fatal("missing bucket accepted")
	}
	t.Setenv("VIROCORE_BLOB_S3_BUCKET", "env-bucket")
	t.Setenv("VIROCORE_BLOB_S3_REGION", "us-east-1")
	t.Setenv("AWS_ACCESS_KEY_ID", "AKIA")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "SECRET")
	if _, err := OpenFromEnv(context.Background()); err != nil {
		t.Fatalf("OpenFromEnv: %v", err)
	}
}
