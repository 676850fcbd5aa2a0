package bwsiteaws

import (
	"context"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudfront"
	"github.com/aws/aws-sdk-go-v2/service/cloudfront/types"
	"github.com/basewarphq/bwsite/bwsite/bwsiteerr"
)

// CreateInvalidationAPI is the subset of the CloudFront client used by Invalidator.
type CreateInvalidationAPI interface {
	CreateInvalidation(
		ctx context.Context, in *cloudfront.CreateInvalidationInput, optFns ...func(*cloudfront.Options),
	) (*cloudfront.CreateInvalidationOutput, error)
}

// Invalidator issues CDN cache invalidations.
type Invalidator struct {
	client CreateInvalidationAPI
	now    func() time.Time
}

// NewInvalidator returns an Invalidator using client.
func NewInvalidator(client CreateInvalidationAPI) *Invalidator {
	return &Invalidator{client: client, now: time.Now}
}

// Invalidate requests one invalidation of paths on the distribution and
// returns its id. It does not wait for the invalidation to complete.
func (i *Invalidator) Invalidate(ctx context.Context, distributionID string, paths []string) (string, error) {
	out, err := i.client.CreateInvalidation(ctx, &cloudfront.CreateInvalidationInput{
		DistributionId: aws.String(distributionID),
		InvalidationBatch: &types.InvalidationBatch{
			CallerReference: aws.String("bwsite-" + strconv.FormatInt(i.now().UnixNano(), 10)),
			Paths: &types.Paths{
				Quantity: aws.Int32(int32(len(paths))), //nolint:gosec // a handful of paths
				Items:    paths,
			},
		},
	})
	if err != nil {
		return "", bwsiteerr.Provider(err, "invalidating distribution %s", distributionID)
	}
	if out.Invalidation == nil {
		return "", nil
	}
	return aws.ToString(out.Invalidation.Id), nil
}
