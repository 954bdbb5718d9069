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

	"github.com/apache/thrift/lib/go/thrift"
)

// The encoders below are hand-maintained bindings for the fixed Cassandra
// Thrift IDL. Field ids must match the service definition exactly; unknown
// fields on the read side are skipped so newer servers stay compatible.

type field struct {
	id    int16
	typ   thrift.TType
	write func(context.Context, thrift.TProtocol) error
}

func writeStruct(ctx context.Context, p thrift.TProtocol, name string, fields []field) error {
	if err := p.WriteStructBegin(ctx, name); err != nil {
		return err
	}
	for _, f := range fields {
		if err := p.WriteFieldBegin(ctx, "", f.typ, f.id); err != nil {
			return err
		}
		if err := f.write(ctx, p); err != nil {
			return err
		}
		if err := p.WriteFieldEnd(ctx); err != nil {
			return err
		}
	}
	if err := p.WriteFieldStop(ctx); err != nil {
		return err
	}
	return p.WriteStructEnd(ctx)
}

func fstring(id int16, v string) field {
	return field{id, thrift.STRING, func(ctx context.Context, p thrift.TProtocol) error {
		return p.WriteString(ctx, v)
	}}
}

func fbinary(id int16, v []byte) field {
	return field{id, thrift.STRING, func(ctx context.Context, p thrift.TProtocol) error {
		return p.WriteBinary(ctx, v)
	}}
}

func fi32(id int16, v int32) field {
	return field{id, thrift.I32, func(ctx context.Context, p thrift.TProtocol) error {
		return p.WriteI32(ctx, v)
	}}
}

func fi64(id int16, v int64) field {
	return field{id, thrift.I64, func(ctx context.Context, p thrift.TProtocol) error {
		return p.WriteI64(ctx, v)
	}}
}

func fdouble(id int16, v float64) field {
	return field{id, thrift.DOUBLE, func(ctx context.Context, p thrift.TProtocol) error {
		return p.WriteDouble(ctx, v)
	}}
}

func fbool(id int16, v bool) field {
	return field{id, thrift.BOOL, func(ctx context.Context, p thrift.TProtocol) error {
		return p.WriteBool(ctx, v)
	}}
}

func fstruct(id int16, w func(context.Context, thrift.TProtocol) error) field {
	return field{id, thrift.STRUCT, w}
}

func fmapStrStr(id int16, m map[string]string) field {
	return field{id, thrift.MAP, func(ctx context.Context, p thrift.TProtocol) error {
		if err := p.WriteMapBegin(ctx, thrift.STRING, thrift.STRING, len(m)); err != nil {
			return err
		}
		for k, v := range m {
			if err := p.WriteString(ctx, k); err != nil {
				return err
			}
			if err := p.WriteString(ctx, v); err != nil {
				return err
			}
		}
		return p.WriteMapEnd(ctx)
	}}
}

func flist[T any](id int16, elemType thrift.TType, items []T, write func(context.Context, thrift.TProtocol, T) error) field {
	return field{id, thrift.LIST, func(ctx context.Context, p thrift.TProtocol) error {
		if err := p.WriteListBegin(ctx, elemType, len(items)); err != nil {
			return err
		}
		for _, it := range items {
			if err := write(ctx, p, it); err != nil {
				return err
			}
		}
		return p.WriteListEnd(ctx)
	}}
}

func readString(ctx context.Context, p thrift.TProtocol) (string, error) {
	return p.ReadString(ctx)
}

func writeBinaryElem(ctx context.Context, p thrift.TProtocol, v []byte) error {
	return p.WriteBinary(ctx, v)
}

// readFields drives a field loop, delegating each field to fn. When fn
// reports the field unhandled its bytes are skipped.
func readFields(ctx context.Context, p thrift.TProtocol, fn func(context.Context, int16, thrift.TType) (bool, error)) error {
	if _, err := p.ReadStructBegin(ctx); err != nil {
		return err
	}
	for {
		_, typ, id, err := p.ReadFieldBegin(ctx)
		if err != nil {
			return err
		}
		if typ == thrift.STOP {
			break
		}
		handled, err := fn(ctx, id, typ)
		if err != nil {
			return err
		}
		if !handled {
			if err := p.Skip(ctx, typ); err != nil {
				return err
			}
		}
		if err := p.ReadFieldEnd(ctx); err != nil {
			return err
		}
	}
	return p.ReadStructEnd(ctx)
}

func readList[T any](ctx context.Context, p thrift.TProtocol, elem func(context.Context, thrift.TProtocol) (T, error)) ([]T, error) {
	_, size, err := p.ReadListBegin(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, size)
	for i := 0; i < size; i++ {
		v, err := elem(ctx, p)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, p.ReadListEnd(ctx)
}

func readMapStrStr(ctx context.Context, p thrift.TProtocol) (map[string]string, error) {
	_, _, size, err := p.ReadMapBegin(ctx)
	if err != nil {
		return nil, err
	}
	m := make(map[string]string, size)
	for i := 0; i < size; i++ {
		k, err := p.ReadString(ctx)
		if err != nil {
			return nil, err
		}
		v, err := p.ReadString(ctx)
		if err != nil {
			return nil, err
		}
		m[k] = v
	}
	return m, p.ReadMapEnd(ctx)
}

func readMapStrStrList(ctx context.Context, p thrift.TProtocol) (map[string][]string, error) {
	_, _, size, err := p.ReadMapBegin(ctx)
	if err != nil {
		return nil, err
	}
	m := make(map[string][]string, size)
	for i := 0; i < size; i++ {
		k, err := p.ReadString(ctx)
		if err != nil {
			return nil, err
		}
		v, err := readList(ctx, p, readString)
		if err != nil {
			return nil, err
		}
		m[k] = v
	}
	return m, p.ReadMapEnd(ctx)
}

// Domain struct encoders.

func (c *Column) write(ctx context.Context, p thrift.TProtocol) error {
	fs := []field{fbinary(1, c.Name), fbinary(2, c.Value), fi64(3, c.Timestamp)}
	if c.TTL > 0 {
		fs = append(fs, fi32(4, c.TTL))
	}
	return writeStruct(ctx, p, "Column", fs)
}

func readColumn(ctx context.Context, p thrift.TProtocol) (*Column, error) {
	c := &Column{}
	err := readFields(ctx, p, func(ctx context.Context, id int16, typ thrift.TType) (bool, error) {
		var err error
		switch id {
		case 1:
			c.Name, err = p.ReadBinary(ctx)
		case 2:
			c.Value, err = p.ReadBinary(ctx)
		case 3:
			c.Timestamp, err = p.ReadI64(ctx)
		case 4:
			c.TTL, err = p.ReadI32(ctx)
		default:
			return false, nil
		}
		return true, err
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

func readSuperColumn(ctx context.Context, p thrift.TProtocol) (*SuperColumn, error) {
	sc := &SuperColumn{}
	err := readFields(ctx, p, func(ctx context.Context, id int16, typ thrift.TType) (bool, error) {
		var err error
		switch id {
		case 1:
			sc.Name, err = p.ReadBinary(ctx)
		case 2:
			sc.Columns, err = readList(ctx, p, readColumn)
		default:
			return false, nil
		}
		return true, err
	})
	if err != nil {
		return nil, err
	}
	return sc, nil
}

func readColumnOrSuperColumn(ctx context.Context, p thrift.TProtocol) (*ColumnOrSuperColumn, error) {
	cosc := &ColumnOrSuperColumn{}
	err := readFields(ctx, p, func(ctx context.Context, id int16, typ thrift.TType) (bool, error) {
		var err error
		switch id {
		case 1:
			cosc.Column, err = readColumn(ctx, p)
		case 2:
			cosc.SuperColumn, err = readSuperColumn(ctx, p)
		default:
			return false, nil
		}
		return true, err
	})
	if err != nil {
		return nil, err
	}
	return cosc, nil
}

func readKeySlice(ctx context.Context, p thrift.TProtocol) (*KeySlice, error) {
	ks := &KeySlice{}
	err := readFields(ctx, p, func(ctx context.Context, id int16, typ thrift.TType) (bool, error) {
		var err error
		switch id {
		case 1:
			ks.Key, err = p.ReadBinary(ctx)
		case 2:
			ks.Columns, err = readList(ctx, p, readColumnOrSuperColumn)
		default:
			return false, nil
		}
		return true, err
	})
	if err != nil {
		return nil, err
	}
	return ks, nil
}

func readTokenRange(ctx context.Context, p thrift.TProtocol) (*TokenRange, error) {
	tr := &TokenRange{}
	err := readFields(ctx, p, func(ctx context.Context, id int16, typ thrift.TType) (bool, error) {
		var err error
		switch id {
		case 1:
			tr.StartToken, err = p.ReadString(ctx)
		case 2:
			tr.EndToken, err = p.ReadString(ctx)
		case 3:
			tr.Endpoints, err = readList(ctx, p, readString)
		default:
			return false, nil
		}
		return true, err
	})
	if err != nil {
		return nil, err
	}
	return tr, nil
}

func (p1 *ColumnPath) write(ctx context.Context, p thrift.TProtocol) error {
	fs := []field{fstring(3, p1.ColumnFamily)}
	if p1.SuperColumn != nil {
		fs = append(fs, fbinary(4, p1.SuperColumn))
	}
	if p1.Column != nil {
		fs = append(fs, fbinary(5, p1.Column))
	}
	return writeStruct(ctx, p, "ColumnPath", fs)
}

func (cp *ColumnParent) write(ctx context.Context, p thrift.TProtocol) error {
	fs := []field{fstring(3, cp.ColumnFamily)}
	if cp.SuperColumn != nil {
		fs = append(fs, fbinary(4, cp.SuperColumn))
	}
	return writeStruct(ctx, p, "ColumnParent", fs)
}

func (sr *SliceRange) write(ctx context.Context, p thrift.TProtocol) error {
	fs := []field{
		fbinary(1, sr.Start),
		fbinary(2, sr.Finish),
		fbool(3, sr.Reversed),
		fi32(4, sr.Count),
	}
	return writeStruct(ctx, p, "SliceRange", fs)
}

func (sp *SlicePredicate) write(ctx context.Context, p thrift.TProtocol) error {
	var fs []field
	if sp.ColumnNames != nil {
		fs = append(fs, flist(1, thrift.STRING, sp.ColumnNames, writeBinaryElem))
	}
	if sp.SliceRange != nil {
		fs = append(fs, fstruct(2, sp.SliceRange.write))
	}
	return writeStruct(ctx, p, "SlicePredicate", fs)
}

func (kr *KeyRange) write(ctx context.Context, p thrift.TProtocol) error {
	var fs []field
	if kr.StartKey != nil {
		fs = append(fs, fbinary(1, kr.StartKey))
	}
	if kr.EndKey != nil {
		fs = append(fs, fbinary(2, kr.EndKey))
	}
	if kr.StartToken != "" {
		fs = append(fs, fstring(3, kr.StartToken))
	}
	if kr.EndToken != "" {
		fs = append(fs, fstring(4, kr.EndToken))
	}
	fs = append(fs, fi32(5, kr.Count))
	return writeStruct(ctx, p, "KeyRange", fs)
}

func (cd *ColumnDef) write(ctx context.Context, p thrift.TProtocol) error {
	fs := []field{fbinary(1, cd.Name), fstring(2, cd.ValidationClass)}
	if cd.IndexType != nil {
		fs = append(fs, fi32(3, int32(*cd.IndexType)))
	}
	if cd.IndexName != "" {
		fs = append(fs, fstring(4, cd.IndexName))
	}
	return writeStruct(ctx, p, "ColumnDef", fs)
}

func readColumnDef(ctx context.Context, p thrift.TProtocol) (*ColumnDef, error) {
	cd := &ColumnDef{}
	err := readFields(ctx, p, func(ctx context.Context, id int16, typ thrift.TType) (bool, error) {
		var err error
		switch id {
		case 1:
			cd.Name, err = p.ReadBinary(ctx)
		case 2:
			cd.ValidationClass, err = p.ReadString(ctx)
		case 3:
			var v int32
			v, err = p.ReadI32(ctx)
			it := IndexType(v)
			cd.IndexType = &it
		case 4:
			cd.IndexName, err = p.ReadString(ctx)
		default:
			return false, nil
		}
		return true, err
	})
	if err != nil {
		return nil, err
	}
	return cd, nil
}

func (cf *CfDef) write(ctx context.Context, p thrift.TProtocol) error {
	fs := []field{fstring(1, cf.Keyspace), fstring(2, cf.Name)}
	if cf.ColumnType != "" {
		fs = append(fs, fstring(3, cf.ColumnType))
	}
	if cf.ComparatorType != "" {
		fs = append(fs, fstring(5, cf.ComparatorType))
	}
	if cf.SubcomparatorType != "" {
		fs = append(fs, fstring(6, cf.SubcomparatorType))
	}
	if cf.Comment != "" {
		fs = append(fs, fstring(8, cf.Comment))
	}
	if cf.RowCacheSize != nil {
		fs = append(fs, fdouble(9, *cf.RowCacheSize))
	}
	if cf.KeyCacheSize != nil {
		fs = append(fs, fdouble(11, *cf.KeyCacheSize))
	}
	if cf.ReadRepairChance != nil {
		fs = append(fs, fdouble(12, *cf.ReadRepairChance))
	}
	if cf.ColumnMetadata != nil {
		fs = append(fs, flist(13, thrift.STRUCT, cf.ColumnMetadata, func(ctx context.Context, p thrift.TProtocol, cd *ColumnDef) error {
			return cd.write(ctx, p)
		}))
	}
	if cf.GcGraceSeconds != nil {
		fs = append(fs, fi32(14, *cf.GcGraceSeconds))
	}
	if cf.DefaultValidationClass != "" {
		fs = append(fs, fstring(15, cf.DefaultValidationClass))
	}
	if cf.ID != nil {
		fs = append(fs, fi32(16, *cf.ID))
	}
	if cf.MinCompactionThreshold != nil {
		fs = append(fs, fi32(17, *cf.MinCompactionThreshold))
	}
	if cf.MaxCompactionThreshold != nil {
		fs = append(fs, fi32(18, *cf.MaxCompactionThreshold))
	}
	if cf.RowCacheSavePeriod != nil {
		fs = append(fs, fi32(19, *cf.RowCacheSavePeriod))
	}
	if cf.KeyCacheSavePeriod != nil {
		fs = append(fs, fi32(20, *cf.KeyCacheSavePeriod))
	}
	if cf.MemtableFlushAfterMins != nil {
		fs = append(fs, fi32(21, *cf.MemtableFlushAfterMins))
	}
	if cf.MemtableThroughputInMB != nil {
		fs = append(fs, fi32(22, *cf.MemtableThroughputInMB))
	}
	if cf.MemtableOperationsInM != nil {
		fs = append(fs, fdouble(23, *cf.MemtableOperationsInM))
	}
	return writeStruct(ctx, p, "CfDef", fs)
}

func readCfDef(ctx context.Context, p thrift.TProtocol) (*CfDef, error) {
	cf := &CfDef{}
	i32p := func(err error, v int32, dst **int32) error {
		if err == nil {
			*dst = &v
		}
		return err
	}
	f64p := func(err error, v float64, dst **float64) error {
		if err == nil {
			*dst = &v
		}
		return err
	}
	err := readFields(ctx, p, func(ctx context.Context, id int16, typ thrift.TType) (bool, error) {
		var err error
		switch id {
		case 1:
			cf.Keyspace, err = p.ReadString(ctx)
		case 2:
			cf.Name, err = p.ReadString(ctx)
		case 3:
			cf.ColumnType, err = p.ReadString(ctx)
		case 5:
			cf.ComparatorType, err = p.ReadString(ctx)
		case 6:
			cf.SubcomparatorType, err = p.ReadString(ctx)
		case 8:
			cf.Comment, err = p.ReadString(ctx)
		case 9:
			v, e := p.ReadDouble(ctx)
			err = f64p(e, v, &cf.RowCacheSize)
		case 11:
			v, e := p.ReadDouble(ctx)
			err = f64p(e, v, &cf.KeyCacheSize)
		case 12:
			v, e := p.ReadDouble(ctx)
			err = f64p(e, v, &cf.ReadRepairChance)
		case 13:
			cf.ColumnMetadata, err = readList(ctx, p, readColumnDef)
		case 14:
			v, e := p.ReadI32(ctx)
			err = i32p(e, v, &cf.GcGraceSeconds)
		case 15:
			cf.DefaultValidationClass, err = p.ReadString(ctx)
		case 16:
			v, e := p.ReadI32(ctx)
			err = i32p(e, v, &cf.ID)
		case 17:
			v, e := p.ReadI32(ctx)
			err = i32p(e, v, &cf.MinCompactionThreshold)
		case 18:
			v, e := p.ReadI32(ctx)
			err = i32p(e, v, &cf.MaxCompactionThreshold)
		case 19:
			v, e := p.ReadI32(ctx)
			err = i32p(e, v, &cf.RowCacheSavePeriod)
		case 20:
			v, e := p.ReadI32(ctx)
			err = i32p(e, v, &cf.KeyCacheSavePeriod)
		case 21:
			v, e := p.ReadI32(ctx)
			err = i32p(e, v, &cf.MemtableFlushAfterMins)
		case 22:
			v, e := p.ReadI32(ctx)
			err = i32p(e, v, &cf.MemtableThroughputInMB)
		case 23:
			v, e := p.ReadDouble(ctx)
			err = f64p(e, v, &cf.MemtableOperationsInM)
		default:
			return false, nil
		}
		return true, err
	})
	if err != nil {
		return nil, err
	}
	return cf, nil
}

func (ks *KsDef) write(ctx context.Context, p thrift.TProtocol) error {
	fs := []field{fstring(1, ks.Name), fstring(2, ks.StrategyClass)}
	if ks.StrategyOptions != nil {
		fs = append(fs, fmapStrStr(3, ks.StrategyOptions))
	}
	if ks.ReplicationFactor != nil {
		fs = append(fs, fi32(4, *ks.ReplicationFactor))
	}
	fs = append(fs, flist(5, thrift.STRUCT, ks.CfDefs, func(ctx context.Context, p thrift.TProtocol, cf *CfDef) error {
		return cf.write(ctx, p)
	}))
	if ks.DurableWrites != nil {
		fs = append(fs, fbool(6, *ks.DurableWrites))
	}
	return writeStruct(ctx, p, "KsDef", fs)
}

func readKsDef(ctx context.Context, p thrift.TProtocol) (*KsDef, error) {
	ks := &KsDef{}
	err := readFields(ctx, p, func(ctx context.Context, id int16, typ thrift.TType) (bool, error) {
		var err error
		switch id {
		case 1:
			ks.Name, err = p.ReadString(ctx)
		case 2:
			ks.StrategyClass, err = p.ReadString(ctx)
		case 3:
			ks.StrategyOptions, err = readMapStrStr(ctx, p)
		case 4:
			var v int32
			v, err = p.ReadI32(ctx)
			ks.ReplicationFactor = &v
		case 5:
			ks.CfDefs, err = readList(ctx, p, readCfDef)
		case 6:
			var v bool
			v, err = p.ReadBool(ctx)
			ks.DurableWrites = &v
		default:
			return false, nil
		}
		return true, err
	})
	if err != nil {
		return nil, err
	}
	return ks, nil
}

// Exception decoders. Only InvalidRequestException carries a payload; the
// rest are marker structs whose unknown fields are skipped.

func readInvalidRequest(ctx context.Context, p thrift.TProtocol) (*InvalidRequestException, error) {
	e := &InvalidRequestException{}
	err := readFields(ctx, p, func(ctx context.Context, id int16, typ thrift.TType) (bool, error) {
		if id == 1 {
			var err error
			e.Why, err = p.ReadString(ctx)
			return true, err
		}
		return false, nil
	})
	if err != nil {
		return nil, err
	}
	return e, nil
}

func skipExceptionBody(ctx context.Context, p thrift.TProtocol) error {
	return readFields(ctx, p, func(context.Context, int16, thrift.TType) (bool, error) {
		return false, nil
	})
}
