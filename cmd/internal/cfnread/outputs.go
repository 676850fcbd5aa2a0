// Package cfnread reads deployed CloudFormation stacks through the aws CLI.
package cfnread

import (
	"context"
	"encoding/json"

	"github.com/basewarphq/bwsite/cmd/internal/cmdexec"
	"github.com/cockroachdb/errors"
)

type describeStacksResponse struct {
	Stacks []struct {
		StackStatus string `json:"StackStatus"`
		Outputs     []struct {
			OutputKey   string `json:"OutputKey"`
			OutputValue string `json:"OutputValue"`
		} `json:"Outputs"`
	} `json:"Stacks"`
}

// StackOutputs returns the outputs of stackName keyed by output key.
func StackOutputs(ctx context.Context, r cmdexec.Runner, region, stackName string) (map[string]string, error) {
	out, err := r.Output(ctx, "/", "aws", "cloudformation", "describe-stacks",
		"--no-cli-pager",
		"--region", region,
		"--stack-name", stackName,
		"--output", "json",
	)
	if err != nil {
		return nil, errors.Wrapf(err, "describing stack %s in %s", stackName, region)
	}

	outputs, err := ParseOutputs([]byte(out))
	if err != nil {
		return nil, errors.Wrapf(err, "stack %s in %s", stackName, region)
	}
	return outputs, nil
}

// ParseOutputs extracts the outputs of the first stack in a describe-stacks
// response.
func ParseOutputs(data []byte) (map[string]string, error) {
	var resp describeStacksResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, errors.Wrap(err, "parsing stack outputs")
	}

	if len(resp.Stacks) == 0 {
		return nil, errors.New("stack not found")
	}

	outputs := make(map[string]string, len(resp.Stacks[0].Outputs))
	for _, o := range resp.Stacks[0].Outputs {
		outputs[o.OutputKey] = o.OutputValue
	}
	return outputs, nil
}
