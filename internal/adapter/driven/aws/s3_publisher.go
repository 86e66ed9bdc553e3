package aws

import (
	"bytes"
	"context"
	"fmt"
	"mime"
	"os"
	"path"
	"path/filepath"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/rs/zerolog"

	"github.com/abigailhaddad/apportionment/internal/domain/repository"
	"github.com/abigailhaddad/apportionment/internal/shared/types"
)

// objectPutter é o subconjunto do cliente S3 usado na publicação.
type objectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type callerIdentity interface {
	GetCallerIdentity(ctx context.Context, params *sts.GetCallerIdentityInput, optFns ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error)
}

// S3Publisher envia os artefatos aprovados para um bucket S3.
type S3Publisher struct {
	settings types.PublishConfig
	log      zerolog.Logger

	mu       sync.Mutex
	client   objectPutter
	identity callerIdentity
}

// NewS3Publisher cria o publicador; os clientes são criados na primeira
// publicação, com o profile e a região configurados.
func NewS3Publisher(settings types.PublishConfig, log zerolog.Logger) repository.PublishRepository {
	return &S3Publisher{settings: settings, log: log.With().Str("publisher", "s3").Logger()}
}

func (p *S3Publisher) Name() string {
	return "s3://" + path.Join(p.settings.S3Bucket, p.settings.S3Prefix)
}

func (p *S3Publisher) clients(ctx context.Context) (objectPutter, callerIdentity, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.client != nil {
		return p.client, p.identity, nil
	}

	var opts []func(*config.LoadOptions) error
	if p.settings.AWSProfile != "" {
		opts = append(opts, config.WithSharedConfigProfile(p.settings.AWSProfile))
	}
	if p.settings.AWSRegion != "" {
		opts = append(opts, config.WithRegion(p.settings.AWSRegion))
	}
	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load AWS config for profile %q: %w", p.settings.AWSProfile, err)
	}
	p.client = s3.NewFromConfig(cfg)
	p.identity = sts.NewFromConfig(cfg)
	return p.client, p.identity, nil
}

// Publish uploads every artifact under the configured prefix.
func (p *S3Publisher) Publish(ctx context.Context, fiscalYear int, artifacts []string) ([]string, error) {
	client, identity, err := p.clients(ctx)
	if err != nil {
		return nil, err
	}

	who, err := identity.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return nil, fmt.Errorf("error getting AWS caller identity: %w", err)
	}
	p.log.Info().
		Str("account", aws.ToString(who.Account)).
		Int("fiscal_year", fiscalYear).
		Int("artifacts", len(artifacts)).
		Msg("uploading artifacts")

	var uploaded []string
	for _, artifact := range artifacts {
		data, err := os.ReadFile(artifact)
		if err != nil {
			return uploaded, fmt.Errorf("error reading %s: %w", artifact, err)
		}
		key := path.Join(p.settings.S3Prefix, filepath.Base(artifact))
		input := &s3.PutObjectInput{
			Bucket:      aws.String(p.settings.S3Bucket),
			Key:         aws.String(key),
			Body:        bytes.NewReader(data),
			ContentType: aws.String(contentType(artifact)),
		}
		if _, err := client.PutObject(ctx, input); err != nil {
			return uploaded, fmt.Errorf("error uploading %s to bucket %s: %w", key, p.settings.S3Bucket, err)
		}
		uploaded = append(uploaded, fmt.Sprintf("s3://%s/%s", p.settings.S3Bucket, key))
	}
	return uploaded, nil
}

func contentType(name string) string {
	if ct := mime.TypeByExtension(filepath.Ext(name)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
