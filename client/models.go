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
	"sort"
	"time"

	"github.com/vincintz/cassandra-gui/thriftwire"
)

// ColumnFamilyKind distinguishes flat column families from super-column
// families.
type ColumnFamilyKind string

const (
	KindStandard ColumnFamilyKind = "Standard"
	KindSuper    ColumnFamilyKind = "Super"
)

// WireTimestamp is the write timestamp the remote service stores with every
// cell, in microseconds since the epoch.
type WireTimestamp int64

// NowWireTimestamp derives the write timestamp for a new mutation the same
// way the service's own clients do: wall-clock milliseconds times 1000.
func NowWireTimestamp() WireTimestamp {
	return WireTimestamp(time.Now().UnixMilli() * 1000)
}

// CellTime is the display timestamp of a cell, millisecond precision. Cell
// display and insert confirmation intentionally use two different precisions;
// the distinct types keep them from being mixed up.
type CellTime int64

// CellTimeOf truncates a wire timestamp to milliseconds.
func CellTimeOf(ts WireTimestamp) CellTime { return CellTime(int64(ts) / 1000) }

// Time converts to a wall-clock time.
func (t CellTime) Time() time.Time { return time.UnixMilli(int64(t)) }

// InsertTime is the confirmation timestamp returned from a write, second
// precision.
type InsertTime int64

// InsertTimeOf truncates a wire timestamp to seconds.
func InsertTimeOf(ts WireTimestamp) InsertTime { return InsertTime(int64(ts) / 1000000) }

// Time converts to a wall-clock time.
func (t InsertTime) Time() time.Time { return time.Unix(int64(t), 0) }

// CellRecord is one named cell of a row, decoded to text for display.
type CellRecord struct {
	Name      string
	Value     string
	Timestamp CellTime
}

// SuperColumnRecord groups the child cells of one super column.
type SuperColumnRecord struct {
	Name  string
	Cells map[string]*CellRecord
}

// SortedCells returns the cells in lexicographic name order.
func (s *SuperColumnRecord) SortedCells() []*CellRecord {
	return sortedCells(s.Cells)
}

// Record is one row of a column family: either flat cells or super columns,
// keyed by name. A row is homogeneous within one response;
// HasSuperColumns reports which side is populated.
type Record struct {
	Key             string
	SuperColumns    map[string]*SuperColumnRecord
	Cells           map[string]*CellRecord
	HasSuperColumns bool
}

func newRecord(key string) *Record {
	return &Record{
		Key:          key,
		SuperColumns: map[string]*SuperColumnRecord{},
		Cells:        map[string]*CellRecord{},
	}
}

// SortedCells returns the flat cells in lexicographic name order.
func (r *Record) SortedCells() []*CellRecord {
	return sortedCells(r.Cells)
}

// SortedSuperColumns returns the super columns in lexicographic name order.
func (r *Record) SortedSuperColumns() []*SuperColumnRecord {
	names := make([]string, 0, len(r.SuperColumns))
	for name := range r.SuperColumns {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make([]*SuperColumnRecord, 0, len(names))
	for _, name := range names {
		out = append(out, r.SuperColumns[name])
	}
	return out
}

func sortedCells(cells map[string]*CellRecord) []*CellRecord {
	names := make([]string, 0, len(cells))
	for name := range cells {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make([]*CellRecord, 0, len(names))
	for _, name := range names {
		out = append(out, cells[name])
	}
	return out
}

// SortedKeys returns the row keys of a record mapping in lexicographic order.
func SortedKeys(rows map[string]*Record) []string {
	keys := make([]string, 0, len(rows))
	for key := range rows {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// ColumnMetadata is per-column schema metadata in display form.
type ColumnMetadata struct {
	ColumnName      string
	ValidationClass string
	IndexType       *thriftwire.IndexType
	IndexName       string
}

// ColumnFamilyDefinition is the local, display-oriented column family
// descriptor. Tuning attributes are kept as strings exactly as entered; an
// empty string means "leave the remote default alone" and is never sent.
type ColumnFamilyDefinition struct {
	Keyspace string
	Name     string
	Kind     ColumnFamilyKind

	// Carried forward on update so the service can match the prior
	// definition.
	ID *int32

	Comparator             string
	Subcomparator          string
	Comment                string
	RowsCached             string
	RowCacheSavePeriod     string
	KeysCached             string
	KeyCacheSavePeriod     string
	ReadRepairChance       string
	GcGrace                string
	MemtableOperations     string
	MemtableThroughput     string
	MemtableFlushAfter     string
	DefaultValidationClass string
	MinCompactionThreshold string
	MaxCompactionThreshold string

	Metadata []ColumnMetadata
}
