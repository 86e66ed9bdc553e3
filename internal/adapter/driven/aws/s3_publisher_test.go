package aws

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/rs/zerolog"

	"github.com/abigailhaddad/apportionment/internal/shared/types"
)

type fakeS3 struct {
	objects map[string]string
	fail    bool
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.fail {
		return nil, errors.New("access denied")
	}
	body, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)] = string(body)
	return &s3.PutObjectOutput{}, nil
}

type fakeSTS struct{}

func (fakeSTS) GetCallerIdentity(context.Context, *sts.GetCallerIdentityInput, ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error) {
	return &sts.GetCallerIdentityOutput{Account: aws.String("123456789012")}, nil
}

func newTestPublisher(client *fakeS3) *S3Publisher {
	p := NewS3Publisher(types.PublishConfig{S3Bucket: "budget-site", S3Prefix: "data"}, zerolog.Nop()).(*S3Publisher)
	p.client = client
	p.identity = fakeSTS{}
	return p
}

func TestS3PublisherUploads(t *testing.T) {
	dir := t.TempDir()
	artifact := filepath.Join(dir, "all_agencies_summary_2024.json")
	if err := os.WriteFile(artifact, []byte("[]"), 0o644); err != nil {
		t.Fatal(err)
	}

	client := &fakeS3{objects: map[string]string{}}
	p := newTestPublisher(client)
	if p.Name() != "s3://budget-site/data" {
		t.Errorf("Name() = %q", p.Name())
	}

	got, err := p.Publish(context.Background(), 2024, []string{artifact})
	if err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	if len(got) != 1 || got[0] != "s3://budget-site/data/all_agencies_summary_2024.json" {
		t.Errorf("Publish() = %v", got)
	}
	if client.objects["budget-site/data/all_agencies_summary_2024.json"] != "[]" {
		t.Errorf("objects = %v", client.objects)
	}
}

func TestS3PublisherErrors(t *testing.T) {
	p := newTestPublisher(&fakeS3{objects: map[string]string{}, fail: true})
	if _, err := p.Publish(context.Background(), 2024, []string{filepath.Join(t.TempDir(), "missing.csv")}); err == nil {
		t.Error("expected error for missing artifact")
	}

	artifact := filepath.Join(t.TempDir(), "summary_2024.json")
	if err := os.WriteFile(artifact, []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := p.Publish(context.Background(), 2024, []string{artifact}); err == nil {
		t.Error("expected upload error")
	}
}

func TestContentType(t *testing.T) {
	if got := contentType("a.json"); got != "application/json" {
		t.Errorf("contentType(json) = %q", got)
	}
	if got := contentType("a.unknownext"); got != "application/octet-stream" {
		t.Errorf("contentType(unknown) = %q", got)
	}
}
