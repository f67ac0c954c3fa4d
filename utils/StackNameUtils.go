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

package utils

import (
	"fmt"
	"regexp"
	"strconv"
)

const pipelineStackSuffix = "-pipeline-stack"
const pipelineSuffix = "-pipeline"

var versionedPipelineStackNameRegexp = regexp.MustCompile(`^(.+)-v(\d+)` + pipelineStackSuffix + `$`)

func MakeVersionedPipelineStackName(family string, version int64) string {
	return fmt.Sprintf("%s-v%d%s", family, version, pipelineStackSuffix)
}

func MakeVersionedPipelineName(family string, version int64) string {
	return fmt.Sprintf("%s-v%d%s", family, version, pipelineSuffix)
}

// ParseVersionedPipelineStackName returns false for stacks that are not created by the inner pipeline factory.
func ParseVersionedPipelineStackName(stackName string) (string, int64, bool) {
	match := versionedPipelineStackNameRegexp.FindStringSubmatch(stackName)
	if match == nil {
		return "", 0, false
	}
	version, err := strconv.ParseInt(match[2], 10, 64)
	if err != nil {
		return "", 0, false
	}
	return match[1], version, true
}
