package integrations

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"

	"frutico/backend/internal/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Archive keeps a copy of every issued ticket in a bucket.
type S3Archive struct {
	bucket string
	client *s3.Client
}

// NewS3Archive creates the archive client.
func NewS3Archive(cfg config.S3Config) (*S3Archive, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("S3_BUCKET is required")
	}

	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	options := s3.Options{
		Region:       region,
		Credentials:  credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		UsePathStyle: true,
	}
	if endpoint := normalizeEndpoint(cfg.Endpoint, cfg.UseSSL); endpoint != "" {
		options.BaseEndpoint = aws.String(endpoint)
	}

	return &S3Archive{
		bucket: cfg.Bucket,
		client: s3.New(options),
	}, nil
}

// ArchiveTicket stores the rendered ticket document and its QR image under tickets/<orderID>/.
// The full order record id is used since short ticket ids can collide.
func (a *S3Archive) ArchiveTicket(ctx context.Context, orderID string, html string, qrPNG []byte) error {
	prefix := TicketArchivePrefix(orderID)
	if err := a.put(ctx, path.Join(prefix, "ticket.html"), "text/html; charset=utf-8", []byte(html)); err != nil {
		return fmt.Errorf("archive ticket html: %w", err)
	}
	if err := a.put(ctx, path.Join(prefix, "qr.png"), "image/png", qrPNG); err != nil {
		return fmt.Errorf("archive ticket qr: %w", err)
	}
	return nil
}

func (a *S3Archive) put(ctx context.Context, key, contentType string, body []byte) error {
	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(a.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(body),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(body))),
	})
	return err
}

// TicketArchivePrefix is the object key prefix for one order's ticket.
func TicketArchivePrefix(orderID string) string {
	safe := strings.Map(func(r rune) rune {
		switch {
		case r >= 'A' && r <= 'Z', r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '-'
		}
	}, strings.TrimSpace(orderID))
	if safe == "" {
		safe = "unknown"
	}
	return "tickets/" + safe
}

func normalizeEndpoint(endpoint string, useSSL bool) string {
	if endpoint == "" {
		return ""
	}
	if strings.HasPrefix(endpoint, "http") {
		return endpoint
	}
	scheme := "https"
	if !useSSL {
		scheme = "http"
	}
	return scheme + "://" + endpoint
}
