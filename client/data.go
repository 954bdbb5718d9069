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
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/vincintz/cassandra-gui/thriftwire"
)

// defaultSliceCount caps a single-row fetch at the wire protocol's default
// column count.
const defaultSliceCount = 100

// CountColumns counts the flat columns of one row at consistency ONE.
func (c *Client) CountColumns(ctx context.Context, keyspace, columnFamily, key string) (int32, error) {
	parent := &thriftwire.ColumnParent{ColumnFamily: columnFamily}
	return c.count(ctx, keyspace, key, parent)
}

// CountSuperColumns counts the child columns of one super column of a row at
// consistency ONE.
func (c *Client) CountSuperColumns(ctx context.Context, keyspace, columnFamily, superColumn, key string) (int32, error) {
	parent := &thriftwire.ColumnParent{
		ColumnFamily: columnFamily,
		SuperColumn:  []byte(superColumn),
	}
	return c.count(ctx, keyspace, key, parent)
}

func (c *Client) count(ctx context.Context, keyspace, key string, parent *thriftwire.ColumnParent) (int32, error) {
	conn, err := c.require()
	if err != nil {
		return 0, err
	}
	ctx, cancel := c.opCtx(ctx)
	defer cancel()
	if err := conn.SetKeyspace(ctx, keyspace); err != nil {
		return 0, translateErr("keyspace "+keyspace, err)
	}
	n, err := conn.GetCount(ctx, []byte(key), parent, nil, thriftwire.ConsistencyOne)
	return n, translateErr("count", err)
}

// InsertColumn writes one cell with a fresh wall-clock timestamp and returns
// the second-precision insertion time. An empty superColumn targets the
// family directly. Compatibility note: a non-empty superColumn is written as
// the parent's family name rather than its super-column member; preserved
// because stored data layouts depend on it.
func (c *Client) InsertColumn(ctx context.Context, keyspace, columnFamily, key, superColumn, column, value string) (InsertTime, error) {
	conn, err := c.require()
	if err != nil {
		return 0, err
	}

	var parent *thriftwire.ColumnParent
	if superColumn == "" {
		parent = &thriftwire.ColumnParent{ColumnFamily: columnFamily}
	} else {
		parent = &thriftwire.ColumnParent{ColumnFamily: superColumn}
	}

	ts := NowWireTimestamp()
	col := &thriftwire.Column{
		Name:      []byte(column),
		Value:     []byte(value),
		Timestamp: int64(ts),
	}

	ctx, cancel := c.opCtx(ctx)
	defer cancel()
	if err := conn.SetKeyspace(ctx, keyspace); err != nil {
		return 0, translateErr("keyspace "+keyspace, err)
	}
	if err := conn.Insert(ctx, []byte(key), parent, col, thriftwire.ConsistencyOne); err != nil {
		return 0, translateErr("insert", err)
	}
	c.logger.Debug("cell written",
		zap.String("keyspace", keyspace),
		zap.String("columnFamily", columnFamily),
		zap.String("key", key),
		zap.String("column", column))
	return InsertTimeOf(ts), nil
}

// RemoveKey deletes a whole row.
func (c *Client) RemoveKey(ctx context.Context, keyspace, columnFamily, key string) error {
	path := &thriftwire.ColumnPath{ColumnFamily: columnFamily}
	return c.remove(ctx, keyspace, key, path)
}

// RemoveColumn deletes one flat column of a row.
func (c *Client) RemoveColumn(ctx context.Context, keyspace, columnFamily, key, column string) error {
	path := &thriftwire.ColumnPath{
		ColumnFamily: columnFamily,
		Column:       []byte(column),
	}
	return c.remove(ctx, keyspace, key, path)
}

// RemoveSuperColumn deletes one super column of a row with all its children.
func (c *Client) RemoveSuperColumn(ctx context.Context, keyspace, columnFamily, key, superColumn string) error {
	path := &thriftwire.ColumnPath{
		ColumnFamily: columnFamily,
		SuperColumn:  []byte(superColumn),
	}
	return c.remove(ctx, keyspace, key, path)
}

// RemoveSubColumn deletes one child column inside a super column.
func (c *Client) RemoveSubColumn(ctx context.Context, keyspace, columnFamily, key, superColumn, column string) error {
	path := &thriftwire.ColumnPath{
		ColumnFamily: columnFamily,
		SuperColumn:  []byte(superColumn),
		Column:       []byte(column),
	}
	return c.remove(ctx, keyspace, key, path)
}

func (c *Client) remove(ctx context.Context, keyspace, key string, path *thriftwire.ColumnPath) error {
	conn, err := c.require()
	if err != nil {
		return err
	}
	ctx, cancel := c.opCtx(ctx)
	defer cancel()
	if err := conn.SetKeyspace(ctx, keyspace); err != nil {
		return translateErr("keyspace "+keyspace, err)
	}
	ts := NowWireTimestamp()
	err = conn.Remove(ctx, []byte(key), path, int64(ts), thriftwire.ConsistencyOne)
	return translateErr("remove", err)
}

// GetKey fetches the full child set of one row, optionally scoped to a super
// column, as a single-entry sorted mapping. Any remote failure yields
// RowsTransientFailure with an empty mapping, keeping the browse view alive;
// Status distinguishes that from a genuinely empty row.
func (c *Client) GetKey(ctx context.Context, keyspace, columnFamily, superColumn, key string) RowsResult {
	conn, err := c.require()
	if err != nil {
		return RowsResult{Status: RowsTransientFailure, Rows: map[string]*Record{}, Err: err}
	}

	parent := &thriftwire.ColumnParent{ColumnFamily: columnFamily}
	if superColumn != "" {
		parent.SuperColumn = []byte(superColumn)
	}
	predicate := &thriftwire.SlicePredicate{
		SliceRange: &thriftwire.SliceRange{
			Start:  []byte{},
			Finish: []byte{},
			Count:  defaultSliceCount,
		},
	}

	rows := map[string]*Record{}
	ctx, cancel := c.opCtx(ctx)
	defer cancel()
	if err := conn.SetKeyspace(ctx, keyspace); err != nil {
		return RowsResult{Status: RowsTransientFailure, Rows: rows, Err: translateErr("keyspace "+keyspace, err)}
	}
	cols, err := conn.GetSlice(ctx, []byte(key), parent, predicate, thriftwire.ConsistencyOne)
	if err != nil {
		c.logger.Warn("row fetch failed",
			zap.String("keyspace", keyspace),
			zap.String("columnFamily", columnFamily),
			zap.String("key", key),
			zap.Error(err))
		return RowsResult{Status: RowsTransientFailure, Rows: rows, Err: translateErr("row "+key, err)}
	}

	if len(cols) > 0 {
		record := newRecord(key)
		for _, col := range cols {
			if err := record.absorb(col); err != nil {
				return RowsResult{Status: RowsTransientFailure, Rows: map[string]*Record{}, Err: err}
			}
		}
		rows[key] = record
	}
	return rowsResultOf(rows)
}

// ListRowsInRange fetches up to maxRows rows with keys in [startKey, endKey]
// in the service's token order, returned as a sorted-by-key mapping. An
// availability failure yields RowsTransientFailure with an empty mapping;
// other failures propagate via Err.
func (c *Client) ListRowsInRange(ctx context.Context, keyspace, columnFamily, startKey, endKey string, maxRows int32) RowsResult {
	conn, err := c.require()
	if err != nil {
		return RowsResult{Status: RowsTransientFailure, Rows: map[string]*Record{}, Err: err}
	}

	parent := &thriftwire.ColumnParent{ColumnFamily: columnFamily}
	keyRange := &thriftwire.KeyRange{
		StartKey: []byte(startKey),
		EndKey:   []byte(endKey),
		Count:    maxRows,
	}
	predicate := &thriftwire.SlicePredicate{
		SliceRange: &thriftwire.SliceRange{
			Start:  []byte{},
			Finish: []byte{},
			Count:  defaultSliceCount,
		},
	}

	rows := map[string]*Record{}
	ctx, cancel := c.opCtx(ctx)
	defer cancel()
	if err := conn.SetKeyspace(ctx, keyspace); err != nil {
		return RowsResult{Status: RowsTransientFailure, Rows: rows, Err: translateErr("keyspace "+keyspace, err)}
	}
	slices, err := conn.GetRangeSlices(ctx, parent, predicate, keyRange, thriftwire.ConsistencyOne)
	if err != nil {
		err = translateErr("range scan", err)
		var ue *UnavailableError
		if errors.As(err, &ue) {
			c.logger.Warn("range scan unavailable",
				zap.String("keyspace", keyspace),
				zap.String("columnFamily", columnFamily),
				zap.Error(err))
			return RowsResult{Status: RowsTransientFailure, Rows: rows, Err: err}
		}
		return RowsResult{Status: RowsTransientFailure, Err: err}
	}

	for _, slice := range slices {
		if !utf8.Valid(slice.Key) {
			return RowsResult{Status: RowsTransientFailure, Err: &EncodingError{What: "row key"}}
		}
		record := newRecord(string(slice.Key))
		for _, col := range slice.Columns {
			if err := record.absorb(col); err != nil {
				return RowsResult{Status: RowsTransientFailure, Err: err}
			}
		}
		rows[record.Key] = record
	}
	return rowsResultOf(rows)
}

func rowsResultOf(rows map[string]*Record) RowsResult {
	status := RowsFound
	if len(rows) == 0 {
		status = RowsEmpty
	}
	return RowsResult{Status: status, Rows: rows}
}

// absorb folds one wire column-or-super-column into the record, decoding
// names and values as UTF-8 text. The homogeneity flag follows the last unit
// seen, matching the display contract.
func (r *Record) absorb(col *thriftwire.ColumnOrSuperColumn) error {
	r.HasSuperColumns = col.SuperColumn != nil
	if scol := col.SuperColumn; scol != nil {
		name, err := decodeText("super column name", scol.Name)
		if err != nil {
			return err
		}
		s := &SuperColumnRecord{Name: name, Cells: map[string]*CellRecord{}}
		for _, child := range scol.Columns {
			cell, err := decodeCell(child)
			if err != nil {
				return err
			}
			s.Cells[cell.Name] = cell
		}
		r.SuperColumns[s.Name] = s
		return nil
	}
	cell, err := decodeCell(col.Column)
	if err != nil {
		return err
	}
	r.Cells[cell.Name] = cell
	return nil
}

func decodeCell(col *thriftwire.Column) (*CellRecord, error) {
	name, err := decodeText("column name", col.Name)
	if err != nil {
		return nil, err
	}
	value, err := decodeText("column value", col.Value)
	if err != nil {
		return nil, err
	}
	return &CellRecord{
		Name:      name,
		Value:     value,
		Timestamp: CellTimeOf(WireTimestamp(col.Timestamp)),
	}, nil
}

func decodeText(what string, b []byte) (string, error) {
	if !utf8.Valid(b) {
		return "", &EncodingError{What: what}
	}
	return string(b), nil
}
