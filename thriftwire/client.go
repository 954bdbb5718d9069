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

package thriftwire

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/apache/thrift/lib/go/thrift"
)

// Client is the concrete stub over a framed binary-protocol transport. It is
// not safe for concurrent use; the admin façade serializes calls on it.
type Client struct {
	transport thrift.TTransport
	std       *thrift.TStandardClient
}

var _ Cassandra = (*Client)(nil)

// Dial opens a framed binary-protocol connection to host:port. The timeout
// bounds both the connect and every subsequent socket read/write.
func Dial(host string, port int, timeout time.Duration) (*Client, error) {
	conf := &thrift.TConfiguration{
		ConnectTimeout: timeout,
		SocketTimeout:  timeout,
	}
	sock := thrift.NewTSocketConf(net.JoinHostPort(host, strconv.Itoa(port)), conf)
	transport := thrift.NewTFramedTransportConf(sock, conf)
	if err := transport.Open(); err != nil {
		return nil, err
	}
	proto := thrift.NewTBinaryProtocolConf(transport, conf)
	return &Client{
		transport: transport,
		std:       thrift.NewTStandardClient(proto, proto),
	}, nil
}

// Close shuts the transport down. Safe to call more than once.
func (c *Client) Close() error {
	if c.transport.IsOpen() {
		return c.transport.Close()
	}
	return nil
}

// argsStruct adapts a field list to thrift.TStruct for outgoing call args.
type argsStruct struct {
	name   string
	fields []field
}

func (a argsStruct) Write(ctx context.Context, p thrift.TProtocol) error {
	return writeStruct(ctx, p, a.name, a.fields)
}

func (a argsStruct) Read(ctx context.Context, p thrift.TProtocol) error {
	return thrift.NewTProtocolExceptionWithType(thrift.NOT_IMPLEMENTED, fmt.Errorf("%s is write-only", a.name))
}

type excKind int

const (
	excInvalidRequest excKind = iota
	excNotFound
	excUnavailable
	excTimedOut
	excSchemaDisagreement
)

// resultStruct decodes a method result: field 0 carries the success value,
// the remaining declared fields carry service exceptions.
type resultStruct struct {
	success func(context.Context, thrift.TProtocol) error
	excs    map[int16]excKind
	err     error
}

func (r *resultStruct) Write(ctx context.Context, p thrift.TProtocol) error {
	return thrift.NewTProtocolExceptionWithType(thrift.NOT_IMPLEMENTED, fmt.Errorf("results are read-only"))
}

func (r *resultStruct) Read(ctx context.Context, p thrift.TProtocol) error {
	return readFields(ctx, p, func(ctx context.Context, id int16, typ thrift.TType) (bool, error) {
		if id == 0 && r.success != nil {
			return true, r.success(ctx, p)
		}
		kind, ok := r.excs[id]
		if !ok {
			return false, nil
		}
		switch kind {
		case excInvalidRequest:
			e, err := readInvalidRequest(ctx, p)
			if err != nil {
				return true, err
			}
			r.err = e
		case excNotFound:
			if err := skipExceptionBody(ctx, p); err != nil {
				return true, err
			}
			r.err = &NotFoundException{}
		case excUnavailable:
			if err := skipExceptionBody(ctx, p); err != nil {
				return true, err
			}
			r.err = &UnavailableException{}
		case excTimedOut:
			if err := skipExceptionBody(ctx, p); err != nil {
				return true, err
			}
			r.err = &TimedOutException{}
		case excSchemaDisagreement:
			if err := skipExceptionBody(ctx, p); err != nil {
				return true, err
			}
			r.err = &SchemaDisagreementException{}
		}
		return true, nil
	})
}

func (c *Client) call(ctx context.Context, method string, args []field, res *resultStruct) error {
	if _, err := c.std.Call(ctx, method, argsStruct{method + "_args", args}, res); err != nil {
		return err
	}
	return res.err
}

// Exception sets shared by groups of methods.

var (
	excsIre      = map[int16]excKind{1: excInvalidRequest}
	excsSchema   = map[int16]excKind{1: excInvalidRequest, 2: excSchemaDisagreement}
	excsData     = map[int16]excKind{1: excInvalidRequest, 2: excUnavailable, 3: excTimedOut}
	excsDescribe = map[int16]excKind{1: excNotFound, 2: excInvalidRequest}
	excsTruncate = map[int16]excKind{1: excInvalidRequest, 2: excUnavailable, 3: excTimedOut}
)

func stringSuccess(dst *string) func(context.Context, thrift.TProtocol) error {
	return func(ctx context.Context, p thrift.TProtocol) error {
		v, err := p.ReadString(ctx)
		*dst = v
		return err
	}
}

func (c *Client) DescribeClusterName(ctx context.Context) (string, error) {
	var out string
	err := c.call(ctx, "describe_cluster_name", nil, &resultStruct{success: stringSuccess(&out)})
	return out, err
}

func (c *Client) DescribeVersion(ctx context.Context) (string, error) {
	var out string
	err := c.call(ctx, "describe_version", nil, &resultStruct{success: stringSuccess(&out)})
	return out, err
}

func (c *Client) DescribeSnitch(ctx context.Context) (string, error) {
	var out string
	err := c.call(ctx, "describe_snitch", nil, &resultStruct{success: stringSuccess(&out)})
	return out, err
}

func (c *Client) DescribePartitioner(ctx context.Context) (string, error) {
	var out string
	err := c.call(ctx, "describe_partitioner", nil, &resultStruct{success: stringSuccess(&out)})
	return out, err
}

func (c *Client) DescribeSchemaVersions(ctx context.Context) (map[string][]string, error) {
	var out map[string][]string
	res := &resultStruct{
		success: func(ctx context.Context, p thrift.TProtocol) error {
			v, err := readMapStrStrList(ctx, p)
			out = v
			return err
		},
		excs: excsIre,
	}
	err := c.call(ctx, "describe_schema_versions", nil, res)
	return out, err
}

func (c *Client) DescribeRing(ctx context.Context, keyspace string) ([]*TokenRange, error) {
	var out []*TokenRange
	res := &resultStruct{
		success: func(ctx context.Context, p thrift.TProtocol) error {
			v, err := readList(ctx, p, readTokenRange)
			out = v
			return err
		},
		excs: excsIre,
	}
	err := c.call(ctx, "describe_ring", []field{fstring(1, keyspace)}, res)
	return out, err
}

func (c *Client) DescribeKeyspaces(ctx context.Context) ([]*KsDef, error) {
	var out []*KsDef
	res := &resultStruct{
		success: func(ctx context.Context, p thrift.TProtocol) error {
			v, err := readList(ctx, p, readKsDef)
			out = v
			return err
		},
		excs: excsIre,
	}
	err := c.call(ctx, "describe_keyspaces", nil, res)
	return out, err
}

func (c *Client) DescribeKeyspace(ctx context.Context, keyspace string) (*KsDef, error) {
	var out *KsDef
	res := &resultStruct{
		success: func(ctx context.Context, p thrift.TProtocol) error {
			v, err := readKsDef(ctx, p)
			out = v
			return err
		},
		excs: excsDescribe,
	}
	err := c.call(ctx, "describe_keyspace", []field{fstring(1, keyspace)}, res)
	return out, err
}

func (c *Client) schemaCall(ctx context.Context, method string, args []field) (string, error) {
	var newVersion string
	res := &resultStruct{success: stringSuccess(&newVersion), excs: excsSchema}
	err := c.call(ctx, method, args, res)
	return newVersion, err
}

func (c *Client) SystemAddKeyspace(ctx context.Context, ksDef *KsDef) (string, error) {
	return c.schemaCall(ctx, "system_add_keyspace", []field{fstruct(1, ksDef.write)})
}

func (c *Client) SystemUpdateKeyspace(ctx context.Context, ksDef *KsDef) (string, error) {
	return c.schemaCall(ctx, "system_update_keyspace", []field{fstruct(1, ksDef.write)})
}

func (c *Client) SystemDropKeyspace(ctx context.Context, keyspace string) (string, error) {
	return c.schemaCall(ctx, "system_drop_keyspace", []field{fstring(1, keyspace)})
}

func (c *Client) SetKeyspace(ctx context.Context, keyspace string) error {
	res := &resultStruct{excs: excsIre}
	return c.call(ctx, "set_keyspace", []field{fstring(1, keyspace)}, res)
}

func (c *Client) SystemAddColumnFamily(ctx context.Context, cfDef *CfDef) (string, error) {
	return c.schemaCall(ctx, "system_add_column_family", []field{fstruct(1, cfDef.write)})
}

func (c *Client) SystemUpdateColumnFamily(ctx context.Context, cfDef *CfDef) (string, error) {
	return c.schemaCall(ctx, "system_update_column_family", []field{fstruct(1, cfDef.write)})
}

func (c *Client) SystemDropColumnFamily(ctx context.Context, columnFamily string) (string, error) {
	return c.schemaCall(ctx, "system_drop_column_family", []field{fstring(1, columnFamily)})
}

func (c *Client) Truncate(ctx context.Context, columnFamily string) error {
	res := &resultStruct{excs: excsTruncate}
	return c.call(ctx, "truncate", []field{fstring(1, columnFamily)}, res)
}

func (c *Client) GetCount(ctx context.Context, key []byte, parent *ColumnParent, predicate *SlicePredicate, cl ConsistencyLevel) (int32, error) {
	args := []field{fbinary(1, key), fstruct(2, parent.write)}
	if predicate != nil {
		args = append(args, fstruct(3, predicate.write))
	}
	args = append(args, fi32(4, int32(cl)))
	var out int32
	res := &resultStruct{
		success: func(ctx context.Context, p thrift.TProtocol) error {
			v, err := p.ReadI32(ctx)
			out = v
			return err
		},
		excs: excsData,
	}
	err := c.call(ctx, "get_count", args, res)
	return out, err
}

func (c *Client) Insert(ctx context.Context, key []byte, parent *ColumnParent, column *Column, cl ConsistencyLevel) error {
	args := []field{fbinary(1, key), fstruct(2, parent.write), fstruct(3, column.write), fi32(4, int32(cl))}
	return c.call(ctx, "insert", args, &resultStruct{excs: excsData})
}

func (c *Client) Remove(ctx context.Context, key []byte, path *ColumnPath, timestamp int64, cl ConsistencyLevel) error {
	args := []field{fbinary(1, key), fstruct(2, path.write), fi64(3, timestamp), fi32(4, int32(cl))}
	return c.call(ctx, "remove", args, &resultStruct{excs: excsData})
}

func (c *Client) GetSlice(ctx context.Context, key []byte, parent *ColumnParent, predicate *SlicePredicate, cl ConsistencyLevel) ([]*ColumnOrSuperColumn, error) {
	args := []field{fbinary(1, key), fstruct(2, parent.write), fstruct(3, predicate.write), fi32(4, int32(cl))}
	var out []*ColumnOrSuperColumn
	res := &resultStruct{
		success: func(ctx context.Context, p thrift.TProtocol) error {
			v, err := readList(ctx, p, readColumnOrSuperColumn)
			out = v
			return err
		},
		excs: excsData,
	}
	err := c.call(ctx, "get_slice", args, res)
	return out, err
}

func (c *Client) GetRangeSlices(ctx context.Context, parent *ColumnParent, predicate *SlicePredicate, keyRange *KeyRange, cl ConsistencyLevel) ([]*KeySlice, error) {
	args := []field{fstruct(1, parent.write), fstruct(2, predicate.write), fstruct(3, keyRange.write), fi32(4, int32(cl))}
	var out []*KeySlice
	res := &resultStruct{
		success: func(ctx context.Context, p thrift.TProtocol) error {
			v, err := readList(ctx, p, readKeySlice)
			out = v
			return err
		},
		excs: excsData,
	}
	err := c.call(ctx, "get_range_slices", args, res)
	return out, err
}
