// Copyright 2024-2025 NetCracker Technology Corporation
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package client

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/Netcracker/qubership-pipelines-cleanup/utils"
	"github.com/Netcracker/qubership-pipelines-cleanup/view"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudformation"
	"github.com/aws/aws-sdk-go-v2/service/cloudformation/types"
	"github.com/aws/smithy-go"
	pkgerrors "github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

const FamilyTag = "uniform-pipelines:family"
const VersionTag = "uniform-pipelines:version"
const PipelineTag = "uniform-pipelines:pipeline"

// CloudFormationAPI is the subset of the CloudFormation SDK client used for stack cleanup.
type CloudFormationAPI interface {
	DeleteStack(ctx context.Context, params *cloudformation.DeleteStackInput, optFns ...func(*cloudformation.Options)) (*cloudformation.DeleteStackOutput, error)
	DescribeStacks(ctx context.Context, params *cloudformation.DescribeStacksInput, optFns ...func(*cloudformation.Options)) (*cloudformation.DescribeStacksOutput, error)
}

type StackClient interface {
	DeleteStack(ctx context.Context, stackName string) (view.DeletionOutcome, error)
	ListPipelineStackFamilies(ctx context.Context) ([]view.InventoryRecord, error)
}

func NewCloudFormationStackClient(ctx context.Context, settings view.AwsSettings) (StackClient, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(settings.Region))
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to load aws configuration")
	}
	log.Debugf("CloudFormation client created for region %s", settings.Region)
	return NewStackClient(cloudformation.NewFromConfig(cfg), settings), nil
}

func NewStackClient(api CloudFormationAPI, settings view.AwsSettings) StackClient {
	rps := settings.RequestsPerSecond
	if rps <= 0 {
		rps = 2
	}
	return &stackClientImpl{
		api:         api,
		rateLimiter: rate.NewLimiter(rate.Limit(rps), 1),
		deleteWait:  time.Duration(settings.DeleteWaitMinutes) * time.Minute,
		stackPrefix: settings.ManagedStackPrefix,
	}
}

type stackClientImpl struct {
	api         CloudFormationAPI
	rateLimiter *rate.Limiter
	deleteWait  time.Duration
	stackPrefix string
}

// DeleteStack is idempotent: a stack that does not exist anymore is reported as already absent, not as an error.
func (s stackClientImpl) DeleteStack(ctx context.Context, stackName string) (view.DeletionOutcome, error) {
	err := s.rateLimiter.Wait(ctx)
	if err != nil {
		return view.DeletionOutcomeFailed, err
	}
	out, err := s.api.DescribeStacks(ctx, &cloudformation.DescribeStacksInput{StackName: aws.String(stackName)})
	if err != nil {
		if IsStackNotFound(err) {
			log.Debugf("Stack %s does not exist, nothing to delete", stackName)
			return view.DeletionOutcomeAlreadyAbsent, nil
		}
		return view.DeletionOutcomeFailed, pkgerrors.Wrapf(err, "failed to describe stack %s", stackName)
	}
	if len(out.Stacks) == 0 || out.Stacks[0].StackStatus == types.StackStatusDeleteComplete {
		return view.DeletionOutcomeAlreadyAbsent, nil
	}
	stackId := aws.ToString(out.Stacks[0].StackId)

	err = s.rateLimiter.Wait(ctx)
	if err != nil {
		return view.DeletionOutcomeFailed, err
	}
	_, err = s.api.DeleteStack(ctx, &cloudformation.DeleteStackInput{StackName: aws.String(stackName)})
	if err != nil {
		if IsStackNotFound(err) {
			return view.DeletionOutcomeAlreadyAbsent, nil
		}
		return view.DeletionOutcomeFailed, pkgerrors.Wrapf(err, "failed to delete stack %s", stackName)
	}
	if s.deleteWait <= 0 {
		return view.DeletionOutcomeDeleted, nil
	}

	// the stack id keeps resolving after deletion, the name does not
	waiter := cloudformation.NewStackDeleteCompleteWaiter(s.api)
	err = waiter.Wait(ctx, &cloudformation.DescribeStacksInput{StackName: aws.String(stackId)}, s.deleteWait)
	if err != nil {
		return view.DeletionOutcomeFailed, pkgerrors.Wrapf(err, "stack %s was not deleted within %s", stackName, s.deleteWait)
	}
	return view.DeletionOutcomeDeleted, nil
}

func (s stackClientImpl) ListPipelineStackFamilies(ctx context.Context) ([]view.InventoryRecord, error) {
	records := make([]view.InventoryRecord, 0)
	paginator := cloudformation.NewDescribeStacksPaginator(s.api, &cloudformation.DescribeStacksInput{})
	for paginator.HasMorePages() {
		err := s.rateLimiter.Wait(ctx)
		if err != nil {
			return nil, err
		}
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, pkgerrors.Wrap(err, "failed to list stacks")
		}
		for _, stack := range page.Stacks {
			record, managed := s.makeInventoryRecord(stack)
			if managed {
				records = append(records, record)
			}
		}
	}
	log.Debugf("CloudFormation inventory: %d pipeline stacks found", len(records))
	return records, nil
}

func (s stackClientImpl) makeInventoryRecord(stack types.Stack) (view.InventoryRecord, bool) {
	stackName := aws.ToString(stack.StackName)
	if s.stackPrefix != "" && !strings.HasPrefix(stackName, s.stackPrefix) {
		return view.InventoryRecord{}, false
	}
	switch stack.StackStatus {
	case types.StackStatusDeleteComplete, types.StackStatusDeleteInProgress:
		return view.InventoryRecord{}, false
	}

	tags := make(map[string]string, len(stack.Tags))
	for _, tag := range stack.Tags {
		tags[aws.ToString(tag.Key)] = aws.ToString(tag.Value)
	}
	record := view.InventoryRecord{
		StackName:           stackName,
		DeploymentTimestamp: aws.ToTime(stack.CreationTime),
	}
	if stack.LastUpdatedTime != nil {
		record.DeploymentTimestamp = aws.ToTime(stack.LastUpdatedTime)
	}

	if family, exists := tags[FamilyTag]; exists {
		record.Family = family
		// a broken version tag must reach the selector and abort the run rather than be silently skipped
		if version, err := strconv.ParseInt(tags[VersionTag], 10, 64); err == nil {
			record.VersionOrdinal = &version
		}
	} else {
		family, version, ok := utils.ParseVersionedPipelineStackName(stackName)
		if !ok {
			return view.InventoryRecord{}, false
		}
		record.Family = family
		record.VersionOrdinal = &version
	}

	record.PipelineName = tags[PipelineTag]
	if record.PipelineName == "" && record.VersionOrdinal != nil {
		record.PipelineName = utils.MakeVersionedPipelineName(record.Family, *record.VersionOrdinal)
	}
	return record, true
}

func IsStackNotFound(err error) bool {
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.ErrorCode() == "ValidationError" && strings.Contains(apiErr.ErrorMessage(), "does not exist")
}
