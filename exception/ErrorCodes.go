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

package exception

const BadRequestBody = "1"
const BadRequestBodyMsg = "Failed to read request body"

const IncorrectParamType = "6"
const IncorrectParamTypeMsg = "$param parameter should be $type"

const InvalidParameterValue = "7"
const InvalidParameterValueMsg = "Value '$value' is not allowed for parameter $param"
const InvalidLimitMsg = "Value '$value' is not allowed for parameter limit. Allowed values are in range 1:$maxLimit"

const InvalidURLEscape = "9"
const InvalidURLEscapeMsg = "Failed to unescape parameter $param"

const InvalidInventoryRecord = "9001"
const InvalidInventoryRecordMsg = "Inventory record #$index ($stackName) is invalid, missing or incorrect fields: $fields"

const DuplicateInventoryStack = "9002"
const DuplicateInventoryStackMsg = "Stack $stackName is listed more than once in the inventory"

const CleanupJobNotFound = "9003"
const CleanupJobNotFoundMsg = "Cleanup job with id $jobId not found"

const CleanupJobAlreadyRunning = "9004"
const CleanupJobAlreadyRunningMsg = "Cleanup job $jobId is still pending. Only one cleanup job can run at a time"

const CleanupJobAlreadyFinished = "9005"
const CleanupJobAlreadyFinishedMsg = "Cleanup job $jobId is already finished with status '$status'"

const SchedulingTimeout = "9006"
const SchedulingTimeoutMsg = "Cleanup job $jobId exceeded its time budget of $timeout minutes with $remaining stacks left in backlog"

const InvalidProgressStatus = "9007"
const InvalidProgressStatusMsg = "Progress status is inconsistent: $reason"

const InventoryUnavailable = "9008"
const InventoryUnavailableMsg = "Failed to list pipeline stack inventory"

const CleanupReportNotAvailable = "9009"
const CleanupReportNotAvailableMsg = "Report for cleanup job $jobId is not available"

const CleanupJobTickInProgress = "9010"
const CleanupJobTickInProgressMsg = "A deletion batch of cleanup job $jobId is in progress, retry later"
