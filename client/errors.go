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

import (
	"context"
	"errors"
	"fmt"

	"github.com/vincintz/cassandra-gui/thriftwire"
)

// ErrNotConnected is returned by remote operations invoked before Connect.
var ErrNotConnected = errors.New("client: not connected")

// TransportError reports a socket or connection failure. It wraps the
// underlying cause unmodified.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string { return fmt.Sprintf("transport: %v", e.Err) }
func (e *TransportError) Unwrap() error { return e.Err }

// InvalidSchemaError reports a malformed descriptor or an unparsable numeric
// attribute.
type InvalidSchemaError struct {
	Reason string
}

func (e *InvalidSchemaError) Error() string { return fmt.Sprintf("invalid schema: %s", e.Reason) }

// SchemaConflictError reports cross-node schema disagreement.
type SchemaConflictError struct{}

func (e *SchemaConflictError) Error() string { return "schema versions disagree across the cluster" }

// NotFoundError reports an absent keyspace or column family on the
// describe-based lookup paths.
type NotFoundError struct {
	What string
}

func (e *NotFoundError) Error() string { return fmt.Sprintf("%s not found", e.What) }

// UnavailableError reports that the service cannot satisfy the requested
// consistency level right now.
type UnavailableError struct{}

func (e *UnavailableError) Error() string { return "replicas unavailable for requested consistency" }

// TimeoutError reports that the remote service or the per-call deadline ran
// out before the operation completed.
type TimeoutError struct{}

func (e *TimeoutError) Error() string { return "operation timed out" }

// EncodingError reports a byte-to-text decode failure for a name or value
// that is not valid UTF-8.
type EncodingError struct {
	What string
}

func (e *EncodingError) Error() string { return fmt.Sprintf("%s is not valid UTF-8", e.What) }

// QueryError reports a failure on the secondary query-language connection.
type QueryError struct {
	Err error
}

func (e *QueryError) Error() string { return fmt.Sprintf("cql: %v", e.Err) }
func (e *QueryError) Unwrap() error { return e.Err }

// translateErr maps wire-level exceptions onto the client taxonomy. Errors
// with no mapping pass through unchanged.
func translateErr(what string, err error) error {
	if err == nil {
		return nil
	}
	var ire *thriftwire.InvalidRequestException
	if errors.As(err, &ire) {
		return &InvalidSchemaError{Reason: ire.Why}
	}
	var sde *thriftwire.SchemaDisagreementException
	if errors.As(err, &sde) {
		return &SchemaConflictError{}
	}
	var nfe *thriftwire.NotFoundException
	if errors.As(err, &nfe) {
		return &NotFoundError{What: what}
	}
	var ue *thriftwire.UnavailableException
	if errors.As(err, &ue) {
		return &UnavailableError{}
	}
	var te *thriftwire.TimedOutException
	if errors.As(err, &te) {
		return &TimeoutError{}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &TimeoutError{}
	}
	return err
}
