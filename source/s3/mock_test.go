package s3

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync/atomic"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/mock"
)

type MockS3Client struct {
	mock.Mock
}

func (m *MockS3Client) HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	args := m.Called(ctx, params)
	out, _ := args.Get(0).(*s3.HeadObjectOutput)
	return out, args.Error(1)
}

func (m *MockS3Client) GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	args := m.Called(ctx, params)
	out, _ := args.Get(0).(*s3.GetObjectOutput)
	return out, args.Error(1)
}

// rangeClient serves one object and honors Range headers the way S3 does.
type rangeClient struct {
	data     []byte
	rangeGet atomic.Int32
}

func (c *rangeClient) HeadObject(context.Context, *s3.HeadObjectInput, ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	return &s3.HeadObjectOutput{ContentLength: aws.Int64(int64(len(c.data)))}, nil
}

func (c *rangeClient) GetObject(_ context.Context, params *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	size := int64(len(c.data))
	if params.Range == nil {
		return &s3.GetObjectOutput{
			Body:          io.NopCloser(bytes.NewReader(c.data)),
			ContentLength: aws.Int64(size),
		}, nil
	}

	c.rangeGet.Add(1)

	var start, end int64
	if _, err := fmt.Sscanf(*params.Range, "bytes=%d-%d", &start, &end); err != nil {
		return nil, err
	}
	end = min(end, size-1)
	part := c.data[start : end+1]

	return &s3.GetObjectOutput{
		Body:          io.NopCloser(bytes.NewReader(part)),
		ContentLength: aws.Int64(int64(len(part))),
		ContentRange:  aws.String(fmt.Sprintf("bytes %d-%d/%d", start, end, size)),
	}, nil
}
