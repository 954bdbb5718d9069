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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vincintz/cassandra-gui/thriftwire"
)

func TestCountColumns(t *testing.T) {
	fake := &fakeConn{countResult: 12}
	c := connectedClient(fake)

	n, err := c.CountColumns(context.Background(), "ks1", "users", "alice")
	require.NoError(t, err)
	assert.Equal(t, int32(12), n)

	assert.Equal(t, []string{"set_keyspace", "get_count"}, fake.calls)
	assert.Equal(t, "ks1", fake.setKeyspaceName)
	assert.Equal(t, []byte("alice"), fake.lastKey)
	assert.Equal(t, "users", fake.lastParent.ColumnFamily)
	assert.Nil(t, fake.lastParent.SuperColumn)
	assert.Nil(t, fake.lastPredicate)
}

func TestCountSuperColumns(t *testing.T) {
	fake := &fakeConn{countResult: 3}
	c := connectedClient(fake)

	n, err := c.CountSuperColumns(context.Background(), "ks1", "activity", "2026-08", "alice")
	require.NoError(t, err)
	assert.Equal(t, int32(3), n)
	assert.Equal(t, "activity", fake.lastParent.ColumnFamily)
	assert.Equal(t, []byte("2026-08"), fake.lastParent.SuperColumn)
}

func TestInsertColumnFlat(t *testing.T) {
	fake := &fakeConn{}
	c := connectedClient(fake)

	before := time.Now()
	at, err := c.InsertColumn(context.Background(), "ks1", "users", "alice", "", "email", "a@example.com")
	require.NoError(t, err)

	assert.Equal(t, []string{"set_keyspace", "insert"}, fake.calls)
	assert.Equal(t, "users", fake.lastParent.ColumnFamily)
	assert.Nil(t, fake.lastParent.SuperColumn)
	assert.Equal(t, []byte("email"), fake.lastColumn.Name)
	assert.Equal(t, []byte("a@example.com"), fake.lastColumn.Value)

	// Wire timestamp is wall-clock milliseconds scaled to microseconds.
	assert.Zero(t, fake.lastColumn.Timestamp%1000)
	assert.GreaterOrEqual(t, fake.lastColumn.Timestamp, before.UnixMilli()*1000)

	// Confirmation time is truncated to whole seconds.
	assert.Equal(t, InsertTimeOf(WireTimestamp(fake.lastColumn.Timestamp)), at)
	assert.WithinDuration(t, before, at.Time(), 2*time.Second)
}

func TestInsertColumnUnderSuperColumnTargetsSuperColumnName(t *testing.T) {
	fake := &fakeConn{}
	c := connectedClient(fake)

	_, err := c.InsertColumn(context.Background(), "ks1", "activity", "alice", "2026-08", "login", "ok")
	require.NoError(t, err)

	// The parent's family slot carries the super column name, and its
	// super-column slot stays empty. Stored layouts depend on this shape.
	assert.Equal(t, "2026-08", fake.lastParent.ColumnFamily)
	assert.Nil(t, fake.lastParent.SuperColumn)
}

func TestRemoveGranularities(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name string
		call func(c *Client) error
		want thriftwire.ColumnPath
	}{
		{
			"whole row",
			func(c *Client) error { return c.RemoveKey(ctx, "ks1", "users", "alice") },
			thriftwire.ColumnPath{ColumnFamily: "users"},
		},
		{
			"one column",
			func(c *Client) error { return c.RemoveColumn(ctx, "ks1", "users", "alice", "email") },
			thriftwire.ColumnPath{ColumnFamily: "users", Column: []byte("email")},
		},
		{
			"whole super column",
			func(c *Client) error { return c.RemoveSuperColumn(ctx, "ks1", "activity", "alice", "2026-08") },
			thriftwire.ColumnPath{ColumnFamily: "activity", SuperColumn: []byte("2026-08")},
		},
		{
			"column inside super column",
			func(c *Client) error {
				return c.RemoveSubColumn(ctx, "ks1", "activity", "alice", "2026-08", "login")
			},
			thriftwire.ColumnPath{ColumnFamily: "activity", SuperColumn: []byte("2026-08"), Column: []byte("login")},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			fake := &fakeConn{}
			c := connectedClient(fake)
			require.NoError(t, tc.call(c))
			assert.Equal(t, []string{"set_keyspace", "remove"}, fake.calls)
			assert.Equal(t, tc.want, *fake.lastPath)
			assert.Zero(t, fake.lastTimestamp%1000)
		})
	}
}

func cosc(name, value string, ts int64) *thriftwire.ColumnOrSuperColumn {
	return &thriftwire.ColumnOrSuperColumn{
		Column: &thriftwire.Column{Name: []byte(name), Value: []byte(value), Timestamp: ts},
	}
}

func TestGetKeyFlatRow(t *testing.T) {
	fake := &fakeConn{
		sliceResult: []*thriftwire.ColumnOrSuperColumn{
			cosc("zeta", "26", 1700000000123456),
			cosc("alpha", "1", 1700000000123456),
		},
	}
	c := connectedClient(fake)

	res := c.GetKey(context.Background(), "ks1", "users", "", "alice")
	assert.Equal(t, RowsFound, res.Status)
	require.Len(t, res.Rows, 1)

	record := res.Rows["alice"]
	require.NotNil(t, record)
	assert.False(t, record.HasSuperColumns)

	cells := record.SortedCells()
	require.Len(t, cells, 2)
	assert.Equal(t, "alpha", cells[0].Name)
	assert.Equal(t, "zeta", cells[1].Name)

	// Cell display timestamps keep millisecond precision.
	assert.Equal(t, CellTime(1700000000123), cells[0].Timestamp)

	// Full-range slice with the default column cap.
	sr := fake.lastPredicate.SliceRange
	assert.Empty(t, sr.Start)
	assert.Empty(t, sr.Finish)
	assert.Equal(t, int32(100), sr.Count)
}

func TestGetKeySuperColumnRow(t *testing.T) {
	fake := &fakeConn{
		sliceResult: []*thriftwire.ColumnOrSuperColumn{
			{
				SuperColumn: &thriftwire.SuperColumn{
					Name: []byte("2026-08"),
					Columns: []*thriftwire.Column{
						{Name: []byte("login"), Value: []byte("ok"), Timestamp: 1700000000000000},
					},
				},
			},
		},
	}
	c := connectedClient(fake)

	res := c.GetKey(context.Background(), "ks1", "activity", "", "alice")
	assert.Equal(t, RowsFound, res.Status)

	record := res.Rows["alice"]
	require.NotNil(t, record)
	assert.True(t, record.HasSuperColumns)

	scs := record.SortedSuperColumns()
	require.Len(t, scs, 1)
	assert.Equal(t, "2026-08", scs[0].Name)
	require.Len(t, scs[0].Cells, 1)
	assert.Equal(t, "ok", scs[0].Cells["login"].Value)
}

func TestGetKeyScopedToSuperColumn(t *testing.T) {
	fake := &fakeConn{}
	c := connectedClient(fake)

	res := c.GetKey(context.Background(), "ks1", "activity", "2026-08", "alice")
	assert.Equal(t, RowsEmpty, res.Status)
	assert.Equal(t, []byte("2026-08"), fake.lastParent.SuperColumn)
}

func TestGetKeyErrorYieldsEmptyMapping(t *testing.T) {
	fake := &fakeConn{err: &thriftwire.TimedOutException{}}
	c := connectedClient(fake)

	res := c.GetKey(context.Background(), "ks1", "users", "", "alice")
	assert.Equal(t, RowsTransientFailure, res.Status)
	assert.Empty(t, res.RowsOrEmpty())
	var te *TimeoutError
	assert.ErrorAs(t, res.Err, &te)
}

func TestListRowsInRange(t *testing.T) {
	fake := &fakeConn{
		rangeResult: []*thriftwire.KeySlice{
			{Key: []byte("bob"), Columns: []*thriftwire.ColumnOrSuperColumn{cosc("name", "Bob", 1700000000000000)}},
			{Key: []byte("alice"), Columns: []*thriftwire.ColumnOrSuperColumn{cosc("name", "Alice", 1700000000000000)}},
		},
	}
	c := connectedClient(fake)

	res := c.ListRowsInRange(context.Background(), "ks1", "users", "a", "z", 25)
	assert.Equal(t, RowsFound, res.Status)
	require.Len(t, res.Rows, 2)

	assert.Equal(t, []string{"alice", "bob"}, SortedKeys(res.Rows))
	assert.Equal(t, "Alice", res.Rows["alice"].Cells["name"].Value)

	assert.Equal(t, []byte("a"), fake.lastKeyRange.StartKey)
	assert.Equal(t, []byte("z"), fake.lastKeyRange.EndKey)
	assert.Equal(t, int32(25), fake.lastKeyRange.Count)
	assert.Empty(t, fake.lastKeyRange.StartToken)
}

func TestListRowsInRangeUnavailable(t *testing.T) {
	fake := &fakeConn{err: &thriftwire.UnavailableException{}}
	c := connectedClient(fake)

	res := c.ListRowsInRange(context.Background(), "ks1", "users", "", "", 10)
	assert.Equal(t, RowsTransientFailure, res.Status)
	assert.Empty(t, res.RowsOrEmpty())
	var ue *UnavailableError
	assert.ErrorAs(t, res.Err, &ue)
}

func TestListRowsInRangeEmpty(t *testing.T) {
	fake := &fakeConn{}
	c := connectedClient(fake)

	res := c.ListRowsInRange(context.Background(), "ks1", "users", "", "", 10)
	assert.Equal(t, RowsEmpty, res.Status)
	assert.NotNil(t, res.RowsOrEmpty())
	assert.NoError(t, res.Err)
}

func TestTimestampPrecisions(t *testing.T) {
	ts := WireTimestamp(1700000000123456)
	assert.Equal(t, CellTime(1700000000123), CellTimeOf(ts))
	assert.Equal(t, InsertTime(1700000000), InsertTimeOf(ts))
	assert.Equal(t, int64(1700000000123), CellTimeOf(ts).Time().UnixMilli())
	assert.Equal(t, int64(1700000000), InsertTimeOf(ts).Time().Unix())
}
