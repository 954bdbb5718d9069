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

// Package thriftwire carries the subset of the Cassandra Thrift service
// contract used by the admin client: the wire-level data shapes, the service
// exceptions, and the Cassandra RPC interface. The shapes are fixed by the
// remote service; this package only consumes them.
package thriftwire

import (
	"context"
	"fmt"
)

// ConsistencyLevel is the number of replicas that must acknowledge an
// operation before it completes.
type ConsistencyLevel int32

const (
	ConsistencyOne         ConsistencyLevel = 1
	ConsistencyQuorum      ConsistencyLevel = 2
	ConsistencyLocalQuorum ConsistencyLevel = 3
	ConsistencyEachQuorum  ConsistencyLevel = 4
	ConsistencyAll         ConsistencyLevel = 5
	ConsistencyAny         ConsistencyLevel = 6
	ConsistencyTwo         ConsistencyLevel = 7
	ConsistencyThree       ConsistencyLevel = 8
)

func (c ConsistencyLevel) String() string {
	switch c {
	case ConsistencyOne:
		return "ONE"
	case ConsistencyQuorum:
		return "QUORUM"
	case ConsistencyLocalQuorum:
		return "LOCAL_QUORUM"
	case ConsistencyEachQuorum:
		return "EACH_QUORUM"
	case ConsistencyAll:
		return "ALL"
	case ConsistencyAny:
		return "ANY"
	case ConsistencyTwo:
		return "TWO"
	case ConsistencyThree:
		return "THREE"
	}
	return fmt.Sprintf("ConsistencyLevel(%d)", int32(c))
}

// IndexType of a secondary index declared in column metadata.
type IndexType int32

const IndexTypeKeys IndexType = 0

// Column is a single named cell. Timestamp is in microseconds since epoch.
type Column struct {
	Name      []byte
	Value     []byte
	Timestamp int64
	TTL       int32
}

// SuperColumn groups child columns under one name.
type SuperColumn struct {
	Name    []byte
	Columns []*Column
}

// ColumnOrSuperColumn is the union returned by slice reads; exactly one of
// the two fields is set.
type ColumnOrSuperColumn struct {
	Column      *Column
	SuperColumn *SuperColumn
}

// ColumnPath addresses a single column, a super column, or a whole row
// depending on which optional members are set.
type ColumnPath struct {
	ColumnFamily string
	SuperColumn  []byte
	Column       []byte
}

// ColumnParent addresses the container written into or read from: the column
// family, optionally narrowed to one super column.
type ColumnParent struct {
	ColumnFamily string
	SuperColumn  []byte
}

// SliceRange bounds a contiguous run of columns by name. Empty Start and
// Finish select the full range.
type SliceRange struct {
	Start    []byte
	Finish   []byte
	Reversed bool
	Count    int32
}

// SlicePredicate selects columns either by explicit names or by range.
type SlicePredicate struct {
	ColumnNames [][]byte
	SliceRange  *SliceRange
}

// KeyRange bounds a row scan by key or token. Count caps the number of rows.
type KeyRange struct {
	StartKey   []byte
	EndKey     []byte
	StartToken string
	EndToken   string
	Count      int32
}

// KeySlice is one row of a range scan.
type KeySlice struct {
	Key     []byte
	Columns []*ColumnOrSuperColumn
}

// TokenRange describes one arc of the ring and the endpoints replicating it.
type TokenRange struct {
	StartToken string
	EndToken   string
	Endpoints  []string
}

// ColumnDef is per-column schema metadata inside a column family definition.
type ColumnDef struct {
	Name            []byte
	ValidationClass string
	IndexType       *IndexType
	IndexName       string
}

// CfDef is the wire-level column family definition. Optional numeric members
// are pointers so that absent values are never sent as zero overrides.
type CfDef struct {
	Keyspace               string
	Name                   string
	ColumnType             string
	ComparatorType         string
	SubcomparatorType      string
	Comment                string
	RowCacheSize           *float64
	KeyCacheSize           *float64
	ReadRepairChance       *float64
	ColumnMetadata         []*ColumnDef
	GcGraceSeconds         *int32
	DefaultValidationClass string
	ID                     *int32
	MinCompactionThreshold *int32
	MaxCompactionThreshold *int32
	RowCacheSavePeriod     *int32
	KeyCacheSavePeriod     *int32
	MemtableFlushAfterMins *int32
	MemtableThroughputInMB *int32
	MemtableOperationsInM  *float64
}

// KsDef is the wire-level keyspace definition.
type KsDef struct {
	Name              string
	StrategyClass     string
	StrategyOptions   map[string]string
	ReplicationFactor *int32
	CfDefs            []*CfDef
	DurableWrites     *bool
}

// Service exceptions. Each maps onto one Thrift exception struct.

// InvalidRequestException reports malformed or unsatisfiable input.
type InvalidRequestException struct {
	Why string
}

func (e *InvalidRequestException) Error() string {
	return fmt.Sprintf("invalid request: %s", e.Why)
}

// NotFoundException reports an absent keyspace, family, or column.
type NotFoundException struct{}

func (e *NotFoundException) Error() string { return "not found" }

// UnavailableException reports too few live replicas for the requested
// consistency level.
type UnavailableException struct{}

func (e *UnavailableException) Error() string { return "unavailable" }

// TimedOutException reports that replicas did not acknowledge within the
// service's time budget.
type TimedOutException struct{}

func (e *TimedOutException) Error() string { return "timed out" }

// SchemaDisagreementException reports cross-node schema version disagreement.
type SchemaDisagreementException struct{}

func (e *SchemaDisagreementException) Error() string { return "schema versions disagree across the cluster" }

// Cassandra is the RPC surface of the remote service consumed by the admin
// client. Implementations are not required to be safe for concurrent use;
// the wire session is scoped to a single caller.
type Cassandra interface {
	DescribeClusterName(ctx context.Context) (string, error)
	DescribeVersion(ctx context.Context) (string, error)
	DescribeSnitch(ctx context.Context) (string, error)
	DescribePartitioner(ctx context.Context) (string, error)
	DescribeSchemaVersions(ctx context.Context) (map[string][]string, error)
	DescribeRing(ctx context.Context, keyspace string) ([]*TokenRange, error)
	DescribeKeyspaces(ctx context.Context) ([]*KsDef, error)
	DescribeKeyspace(ctx context.Context, keyspace string) (*KsDef, error)

	SystemAddKeyspace(ctx context.Context, ksDef *KsDef) (string, error)
	SystemUpdateKeyspace(ctx context.Context, ksDef *KsDef) (string, error)
	SystemDropKeyspace(ctx context.Context, keyspace string) (string, error)
	SetKeyspace(ctx context.Context, keyspace string) error
	SystemAddColumnFamily(ctx context.Context, cfDef *CfDef) (string, error)
	SystemUpdateColumnFamily(ctx context.Context, cfDef *CfDef) (string, error)
	SystemDropColumnFamily(ctx context.Context, columnFamily string) (string, error)
	Truncate(ctx context.Context, columnFamily string) error

	GetCount(ctx context.Context, key []byte, parent *ColumnParent, predicate *SlicePredicate, cl ConsistencyLevel) (int32, error)
	Insert(ctx context.Context, key []byte, parent *ColumnParent, column *Column, cl ConsistencyLevel) error
	Remove(ctx context.Context, key []byte, path *ColumnPath, timestamp int64, cl ConsistencyLevel) error
	GetSlice(ctx context.Context, key []byte, parent *ColumnParent, predicate *SlicePredicate, cl ConsistencyLevel) ([]*ColumnOrSuperColumn, error)
	GetRangeSlices(ctx context.Context, parent *ColumnParent, predicate *SlicePredicate, keyRange *KeyRange, cl ConsistencyLevel) ([]*KeySlice, error)
}
