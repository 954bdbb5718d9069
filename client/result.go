/*
 * Copyright (C) 2025 Google LLC
 *
 * Licensed under the Apache License, Version 2.0 (the "License"); you may not
 * use this file except in compliance with the License. You may obtain a copy of
 * the License at
 *
 *   http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS, WITHOUT
 * WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the
 * License for the specific language governing permissions and limitations under
 * the License.
 */

package client

// RowsStatus reports how a browse read ended. Earlier clients collapsed all
// three outcomes into one empty mapping, which hid outages from the UI; the
// status keeps them apart while RowsOrEmpty preserves the old contract for
// callers that want it.
type RowsStatus int

const (
	// RowsFound: the read returned at least one row.
	RowsFound RowsStatus = iota
	// RowsEmpty: the read succeeded and matched nothing.
	RowsEmpty
	// RowsTransientFailure: the service could not serve the read; Err holds
	// the cause.
	RowsTransientFailure
)

func (s RowsStatus) String() string {
	switch s {
	case RowsFound:
		return "found"
	case RowsEmpty:
		return "empty"
	case RowsTransientFailure:
		return "transient failure"
	}
	return "unknown"
}

// RowsResult is the outcome of GetKey or ListRowsInRange.
type RowsResult struct {
	Status RowsStatus
	Rows   map[string]*Record
	Err    error
}

// RowsOrEmpty returns the row mapping, substituting an empty mapping on
// transient failure. This is the legacy browsing behavior.
func (r RowsResult) RowsOrEmpty() map[string]*Record {
	if r.Rows == nil {
		return map[string]*Record{}
	}
	return r.Rows
}
