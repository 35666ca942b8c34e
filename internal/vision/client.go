package vision

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	gvision "cloud.google.com/go/vision/v2/apiv1"
	"cloud.google.com/go/vision/v2/apiv1/visionpb"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
	"google.golang.org/api/option"

	"github.com/a3tai/farm-analyzer/internal/logging"
)

// DefaultConcurrency is used when NewClient is given a non-positive limit
const DefaultConcurrency = 4

var errEmptyResponse = errors.New("empty batch response")

type batchFunc func(ctx context.Context, req *visionpb.BatchAnnotateImagesRequest) (*visionpb.BatchAnnotateImagesResponse, error)

// dialFunc opens the connection behind a batchFunc and returns its closer
type dialFunc func(ctx context.Context) (batchFunc, func() error, error)

// Client is an Annotator backed by Cloud Vision. It is safe for concurrent
// use; at most the configured number of requests are in flight at once.
//
// The connection is opened by the first Annotate call and reused after that.
// A failed dial is reported to that caller and retried by the next one.
type Client struct {
	dial   dialFunc
	gate   *semaphore.Weighted
	logger *zap.Logger

	mu     sync.Mutex
	batch  batchFunc
	closer func() error
}

// NewClient returns a Cloud Vision client that connects on first use. An
// empty credentialsFile uses Application Default Credentials.
func NewClient(credentialsFile string, concurrency int64, logger *zap.Logger) *Client {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	dial := func(ctx context.Context) (batchFunc, func() error, error) {
		ic, err := gvision.NewImageAnnotatorClient(ctx, opts...)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create vision client: %w", err)
		}
		batch := func(ctx context.Context, req *visionpb.BatchAnnotateImagesRequest) (*visionpb.BatchAnnotateImagesResponse, error) {
			return ic.BatchAnnotateImages(ctx, req)
		}
		return batch, ic.Close, nil
	}

	return newLazyClient(dial, concurrency, logger)
}

// newClient wraps an already connected batchFunc
func newClient(batch batchFunc, concurrency int64, logger *zap.Logger) *Client {
	c := newLazyClient(nil, concurrency, logger)
	c.batch = batch
	c.closer = func() error { return nil }
	return c
}

func newLazyClient(dial dialFunc, concurrency int64, logger *zap.Logger) *Client {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	return &Client{
		dial:   dial,
		gate:   semaphore.NewWeighted(concurrency),
		logger: logging.OrNop(logger),
	}
}

func (c *Client) connect(ctx context.Context) (batchFunc, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.batch != nil {
		return c.batch, nil
	}

	// the connection outlives the request that opened it
	batch, closer, err := c.dial(context.WithoutCancel(ctx))
	if err != nil {
		c.logger.Warn("vision connection failed", zap.Error(err))
		return nil, err
	}

	c.batch, c.closer = batch, closer
	c.logger.Debug("vision connection opened")
	return batch, nil
}

// Annotate sends content as a one-image batch requesting only feature
func (c *Client) Annotate(ctx context.Context, content []byte, feature Feature) (*Annotation, error) {
	if err := c.gate.Acquire(ctx, 1); err != nil {
		return nil, &CallError{Feature: feature, Err: err}
	}
	defer c.gate.Release(1)

	batch, err := c.connect(ctx)
	if err != nil {
		return nil, &CallError{Feature: feature, Err: err}
	}

	req := &visionpb.BatchAnnotateImagesRequest{
		Requests: []*visionpb.AnnotateImageRequest{
			{
				Image:    &visionpb.Image{Content: content},
				Features: []*visionpb.Feature{{Type: feature.proto()}},
			},
		},
	}

	start := time.Now()
	resp, err := batch(ctx, req)
	c.logger.Debug("vision request finished",
		zap.Stringer("feature", feature),
		zap.Int("bytes", len(content)),
		zap.Duration("elapsed", time.Since(start)),
		zap.Error(err),
	)
	if err != nil {
		return nil, &CallError{Feature: feature, Err: err}
	}

	responses := resp.GetResponses()
	if len(responses) == 0 {
		return nil, &CallError{Feature: feature, Err: errEmptyResponse}
	}

	return fromResponse(responses[0]), nil
}

// Close releases the underlying connection, if one was opened
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closer == nil {
		return nil
	}
	closer := c.closer
	c.closer = nil
	return closer()
}

func (f Feature) proto() visionpb.Feature_Type {
	switch f {
	case FeatureDocumentText:
		return visionpb.Feature_DOCUMENT_TEXT_DETECTION
	case FeatureLabels:
		return visionpb.Feature_LABEL_DETECTION
	case FeatureObjects:
		return visionpb.Feature_OBJECT_LOCALIZATION
	default:
		return visionpb.Feature_TYPE_UNSPECIFIED
	}
}

func fromResponse(resp *visionpb.AnnotateImageResponse) *Annotation {
	annotation := &Annotation{
		ErrorMessage: resp.GetError().GetMessage(),
	}

	if full := resp.GetFullTextAnnotation(); full != nil {
		annotation.HasFullText = true
		annotation.FullText = full.GetText()
	}

	for _, l := range resp.GetLabelAnnotations() {
		annotation.Labels = append(annotation.Labels, Label{
			Description: l.GetDescription(),
			Score:       l.GetScore(),
		})
	}

	for _, o := range resp.GetLocalizedObjectAnnotations() {
		annotation.Objects = append(annotation.Objects, Object{
			Name:  o.GetName(),
			Score: o.GetScore(),
		})
	}

	return annotation
}
