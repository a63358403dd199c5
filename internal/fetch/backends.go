package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"google.golang.org/api/option"
)

// open dispatches on the URL scheme and returns the artifact body.
func (f *Fetcher) open(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse URL %q: %w", rawURL, err)
	}
	switch u.Scheme {
	case "http", "https":
		return f.openHTTP(ctx, rawURL)
	case "s3":
		return f.openS3(ctx, u)
	case "gs":
		return f.openGCS(ctx, u)
	case "az":
		return f.openAzure(ctx, u)
	default:
		return nil, fmt.Errorf("unsupported URL scheme %q in %q", u.Scheme, rawURL)
	}
}

func (f *Fetcher) openHTTP(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request for %q: %w", rawURL, err)
	}
	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", rawURL, err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close() //nolint:errcheck
		return nil, fmt.Errorf("GET %s: unexpected status %s", rawURL, resp.Status)
	}
	return resp.Body, nil
}

// openS3 reads s3://bucket/key. Requests are anonymous unless static
// credentials were configured.
func (f *Fetcher) openS3(ctx context.Context, u *url.URL) (io.ReadCloser, error) {
	bucket := u.Host
	key := strings.TrimPrefix(u.Path, "/")
	if bucket == "" || key == "" {
		return nil, fmt.Errorf("malformed S3 URL %q", u.String())
	}

	opts := s3.Options{Region: f.s3Region}
	if f.s3KeyID != "" {
		opts.Credentials = credentials.NewStaticCredentialsProvider(f.s3KeyID, f.s3Secret, "")
	} else {
		opts.Credentials = aws.AnonymousCredentials{}
	}
	if f.s3Endpoint != "" {
		opts.BaseEndpoint = aws.String(f.s3Endpoint)
		opts.UsePathStyle = true
	}

	client := s3.New(opts)
	out, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("GetObject s3://%s/%s: %w", bucket, key, err)
	}
	return out.Body, nil
}

// openGCS reads gs://bucket/object without authentication, which
// suits public datasets.
func (f *Fetcher) openGCS(ctx context.Context, u *url.URL) (io.ReadCloser, error) {
	bucket := u.Host
	object := strings.TrimPrefix(u.Path, "/")
	if bucket == "" || object == "" {
		return nil, fmt.Errorf("malformed GCS URL %q", u.String())
	}

	client, err := storage.NewClient(ctx, option.WithoutAuthentication())
	if err != nil {
		return nil, fmt.Errorf("create GCS client: %w", err)
	}
	r, err := client.Bucket(bucket).Object(object).NewReader(ctx)
	if err != nil {
		client.Close() //nolint:errcheck
		return nil, fmt.Errorf("open gs://%s/%s: %w", bucket, object, err)
	}
	return &gcsReader{Reader: r, client: client}, nil
}

// gcsReader closes the storage client along with the object reader.
type gcsReader struct {
	*storage.Reader
	client *storage.Client
}

func (r *gcsReader) Close() error {
	err := r.Reader.Close()
	if cerr := r.client.Close(); err == nil {
		err = cerr
	}
	return err
}

// openAzure reads az://account/container/blob-path anonymously.
func (f *Fetcher) openAzure(ctx context.Context, u *url.URL) (io.ReadCloser, error) {
	account := u.Host
	container, blob, ok := strings.Cut(strings.TrimPrefix(u.Path, "/"), "/")
	if !ok || account == "" || container == "" || blob == "" {
		return nil, fmt.Errorf("malformed Azure URL %q, want az://account/container/blob", u.String())
	}

	serviceURL := fmt.Sprintf("https://%s.blob.core.windows.net/", account)
	client, err := azblob.NewClientWithNoCredential(serviceURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create Azure client: %w", err)
	}
	resp, err := client.DownloadStream(ctx, container, blob, nil)
	if err != nil {
		return nil, fmt.Errorf("download az://%s/%s/%s: %w", account, container, blob, err)
	}
	return resp.Body, nil
}
