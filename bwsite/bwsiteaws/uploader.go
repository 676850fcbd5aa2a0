package bwsiteaws

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/basewarphq/bwsite/bwsite/bwsiteerr"
	"github.com/go-git/go-billy/v5"
)

// PutObjectAPI is the subset of the S3 client used by Uploader.
type PutObjectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Object is a single create-or-replace upload.
type Object struct {
	Bucket       string
	Key          string
	Source       string
	ContentType  *string
	CacheControl *string
}

// Uploader puts local files into a bucket.
type Uploader struct {
	fsys   billy.Filesystem
	client PutObjectAPI
}

// NewUploader returns an Uploader reading from fsys.
func NewUploader(fsys billy.Filesystem, client PutObjectAPI) *Uploader {
	return &Uploader{fsys: fsys, client: client}
}

// Upload writes obj. Uploads are idempotent and may run concurrently.
func (u *Uploader) Upload(ctx context.Context, obj Object) error {
	f, err := u.fsys.Open(obj.Source)
	if err != nil {
		return bwsiteerr.Filesystem(err, "opening %s", obj.Source)
	}
	defer f.Close()

	info, err := u.fsys.Stat(obj.Source)
	if err != nil {
		return bwsiteerr.Filesystem(err, "stat %s", obj.Source)
	}

	_, err = u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(obj.Bucket),
		Key:           aws.String(obj.Key),
		Body:          f,
		ContentLength: aws.Int64(info.Size()),
		ContentType:   obj.ContentType,
		CacheControl:  obj.CacheControl,
	})
	if err != nil {
		return bwsiteerr.Provider(err, "putting s3://%s/%s", obj.Bucket, obj.Key)
	}
	return nil
}
