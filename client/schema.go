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
	"fmt"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/vincintz/cassandra-gui/thriftwire"
)

// networkTopologyStrategy is matched by substring against the caller-supplied
// strategy class name, which may or may not be fully qualified.
const networkTopologyStrategy = "NetworkTopologyStrategy"

// StrategyMap returns the replication strategies offered in the schema editor,
// display name to class name.
func StrategyMap() map[string]string {
	return map[string]string{
		"SimpleStrategy":          "SimpleStrategy",
		"NetworkTopologyStrategy": "NetworkTopologyStrategy",
	}
}

// ComparatorTypeMap returns the column comparators offered in the schema
// editor, class name to display name.
func ComparatorTypeMap() map[string]string {
	return map[string]string{
		"org.apache.cassandra.db.marshal.AsciiType":       "AsciiType",
		"org.apache.cassandra.db.marshal.BytesType":       "BytesType",
		"org.apache.cassandra.db.marshal.LexicalUUIDType": "LexicalUUIDType",
		"org.apache.cassandra.db.marshal.LongType":        "LongType",
		"org.apache.cassandra.db.marshal.TimeUUIDType":    "TimeUUIDType",
		"org.apache.cassandra.db.marshal.UTF8Type":        "UTF8Type",
	}
}

// ValidationClassMap returns the value validators offered in the schema
// editor, class name to display name.
func ValidationClassMap() map[string]string {
	return map[string]string{
		"org.apache.cassandra.db.marshal.AsciiType":    "AsciiType",
		"org.apache.cassandra.db.marshal.BytesType":    "BytesType",
		"org.apache.cassandra.db.marshal.IntegerType":  "IntegerType",
		"org.apache.cassandra.db.marshal.LongType":     "LongType",
		"org.apache.cassandra.db.marshal.TimeUUIDType": "TimeUUIDType",
		"org.apache.cassandra.db.marshal.UTF8Type":     "UTF8Type",
	}
}

// ListKeyspaces returns the raw keyspace descriptors from the remote service.
func (c *Client) ListKeyspaces(ctx context.Context) ([]*thriftwire.KsDef, error) {
	conn, err := c.require()
	if err != nil {
		return nil, err
	}
	ctx, cancel := c.opCtx(ctx)
	defer cancel()
	defs, err := conn.DescribeKeyspaces(ctx)
	return defs, translateErr("keyspaces", err)
}

// DescribeKeyspace returns one keyspace's raw descriptor.
func (c *Client) DescribeKeyspace(ctx context.Context, keyspace string) (*thriftwire.KsDef, error) {
	conn, err := c.require()
	if err != nil {
		return nil, err
	}
	ctx, cancel := c.opCtx(ctx)
	defer cancel()
	def, err := conn.DescribeKeyspace(ctx, keyspace)
	return def, translateErr("keyspace "+keyspace, err)
}

// computedStrategyOption builds the single strategy option derived from the
// strategy class: the local datacenter at weight "1" for topology-aware
// strategies, the flat replication factor otherwise.
func (c *Client) computedStrategyOption(strategy string, replicationFactor int) map[string]string {
	opts := map[string]string{}
	if strings.Contains(strategy, networkTopologyStrategy) {
		dc, err := c.locality.Datacenter()
		if err != nil {
			c.logger.Warn("datacenter lookup failed, sending no strategy options", zap.Error(err))
			return opts
		}
		opts[dc] = "1"
	} else {
		opts["replication_factor"] = strconv.Itoa(replicationFactor)
	}
	return opts
}

// CreateKeyspace creates a keyspace with an empty column family list.
// Compatibility note: the strategyOptions argument is accepted and discarded;
// only the option computed from the strategy class and replication factor is
// sent. CreateKeyspaceMerged keeps the caller's options.
func (c *Client) CreateKeyspace(ctx context.Context, name, strategy string, strategyOptions map[string]string, replicationFactor int) error {
	_ = strategyOptions
	return c.submitKeyspace(ctx, name, strategy, c.computedStrategyOption(strategy, replicationFactor), false)
}

// CreateKeyspaceMerged creates a keyspace keeping the caller-supplied strategy
// options, with the computed option layered on top.
func (c *Client) CreateKeyspaceMerged(ctx context.Context, name, strategy string, strategyOptions map[string]string, replicationFactor int) error {
	opts := map[string]string{}
	for k, v := range strategyOptions {
		opts[k] = v
	}
	for k, v := range c.computedStrategyOption(strategy, replicationFactor) {
		opts[k] = v
	}
	return c.submitKeyspace(ctx, name, strategy, opts, false)
}

// UpdateKeyspace updates a keyspace's strategy. Compatibility note: unlike
// CreateKeyspace, the update path always sends the flat replication factor
// even for topology-aware strategies, and likewise discards caller options.
func (c *Client) UpdateKeyspace(ctx context.Context, name, strategy string, strategyOptions map[string]string, replicationFactor int) error {
	_ = strategyOptions
	opts := map[string]string{"replication_factor": strconv.Itoa(replicationFactor)}
	return c.submitKeyspace(ctx, name, strategy, opts, true)
}

func (c *Client) submitKeyspace(ctx context.Context, name, strategy string, opts map[string]string, update bool) error {
	conn, err := c.require()
	if err != nil {
		return err
	}
	ksDef := &thriftwire.KsDef{
		Name:            name,
		StrategyClass:   strategy,
		StrategyOptions: opts,
		CfDefs:          []*thriftwire.CfDef{},
	}
	ctx, cancel := c.opCtx(ctx)
	defer cancel()
	var version string
	if update {
		version, err = conn.SystemUpdateKeyspace(ctx, ksDef)
	} else {
		version, err = conn.SystemAddKeyspace(ctx, ksDef)
	}
	if err != nil {
		return translateErr("keyspace "+name, err)
	}
	c.logger.Debug("keyspace schema applied",
		zap.String("keyspace", name),
		zap.String("schemaVersion", version))
	return nil
}

// DropKeyspace deletes a keyspace and everything in it.
func (c *Client) DropKeyspace(ctx context.Context, name string) error {
	conn, err := c.require()
	if err != nil {
		return err
	}
	ctx, cancel := c.opCtx(ctx)
	defer cancel()
	version, err := conn.SystemDropKeyspace(ctx, name)
	if err != nil {
		return translateErr("keyspace "+name, err)
	}
	c.logger.Debug("keyspace dropped",
		zap.String("keyspace", name),
		zap.String("schemaVersion", version))
	return nil
}

// CreateColumnFamily creates a column family from a local definition.
// Optional attributes are sent only when non-empty; unparsable numerics fail
// with InvalidSchemaError before anything is sent.
func (c *Client) CreateColumnFamily(ctx context.Context, keyspace string, def *ColumnFamilyDefinition) error {
	cfDef, err := buildCfDef(keyspace, def, false)
	if err != nil {
		return err
	}
	return c.submitColumnFamily(ctx, keyspace, cfDef, false)
}

// UpdateColumnFamily updates a column family. The definition's ID is carried
// forward so the service can match the prior definition.
func (c *Client) UpdateColumnFamily(ctx context.Context, keyspace string, def *ColumnFamilyDefinition) error {
	cfDef, err := buildCfDef(keyspace, def, true)
	if err != nil {
		return err
	}
	return c.submitColumnFamily(ctx, keyspace, cfDef, true)
}

func (c *Client) submitColumnFamily(ctx context.Context, keyspace string, cfDef *thriftwire.CfDef, update bool) error {
	conn, err := c.require()
	if err != nil {
		return err
	}
	ctx, cancel := c.opCtx(ctx)
	defer cancel()
	if err := conn.SetKeyspace(ctx, keyspace); err != nil {
		return translateErr("keyspace "+keyspace, err)
	}
	var version string
	if update {
		version, err = conn.SystemUpdateColumnFamily(ctx, cfDef)
	} else {
		version, err = conn.SystemAddColumnFamily(ctx, cfDef)
	}
	if err != nil {
		return translateErr("column family "+cfDef.Name, err)
	}
	c.logger.Debug("column family schema applied",
		zap.String("keyspace", keyspace),
		zap.String("columnFamily", cfDef.Name),
		zap.String("schemaVersion", version))
	return nil
}

// DropColumnFamily deletes a column family. The session is scoped to the
// keyspace immediately before, because the drop call names only the family.
func (c *Client) DropColumnFamily(ctx context.Context, keyspace, columnFamily string) error {
	conn, err := c.require()
	if err != nil {
		return err
	}
	ctx, cancel := c.opCtx(ctx)
	defer cancel()
	if err := conn.SetKeyspace(ctx, keyspace); err != nil {
		return translateErr("keyspace "+keyspace, err)
	}
	version, err := conn.SystemDropColumnFamily(ctx, columnFamily)
	if err != nil {
		return translateErr("column family "+columnFamily, err)
	}
	c.logger.Debug("column family dropped",
		zap.String("keyspace", keyspace),
		zap.String("columnFamily", columnFamily),
		zap.String("schemaVersion", version))
	return nil
}

// TruncateColumnFamily removes every row of a column family, keeping the
// schema.
func (c *Client) TruncateColumnFamily(ctx context.Context, keyspace, columnFamily string) error {
	conn, err := c.require()
	if err != nil {
		return err
	}
	ctx, cancel := c.opCtx(ctx)
	defer cancel()
	if err := conn.SetKeyspace(ctx, keyspace); err != nil {
		return translateErr("keyspace "+keyspace, err)
	}
	if err := conn.Truncate(ctx, columnFamily); err != nil {
		return translateErr("column family "+columnFamily, err)
	}
	return nil
}

// buildCfDef maps a local definition onto the wire descriptor, applying each
// optional attribute only when its string form is non-empty.
func buildCfDef(keyspace string, def *ColumnFamilyDefinition, update bool) (*thriftwire.CfDef, error) {
	cfDef := &thriftwire.CfDef{
		Keyspace:   keyspace,
		Name:       def.Name,
		ColumnType: string(def.Kind),
	}
	if update {
		cfDef.ID = def.ID
	}

	if def.Comparator != "" {
		cfDef.ComparatorType = def.Comparator
	}
	if def.Kind == KindSuper && def.Subcomparator != "" {
		cfDef.SubcomparatorType = def.Subcomparator
	}
	if def.Comment != "" {
		cfDef.Comment = def.Comment
	}

	var err error
	if cfDef.RowCacheSize, err = optFloat("rows cached", def.RowsCached); err != nil {
		return nil, err
	}
	if cfDef.RowCacheSavePeriod, err = optInt("row cache save period", def.RowCacheSavePeriod); err != nil {
		return nil, err
	}
	if cfDef.KeyCacheSize, err = optFloat("keys cached", def.KeysCached); err != nil {
		return nil, err
	}
	if cfDef.KeyCacheSavePeriod, err = optInt("key cache save period", def.KeyCacheSavePeriod); err != nil {
		return nil, err
	}
	if cfDef.ReadRepairChance, err = optFloat("read repair chance", def.ReadRepairChance); err != nil {
		return nil, err
	}
	if cfDef.GcGraceSeconds, err = optInt("gc grace seconds", def.GcGrace); err != nil {
		return nil, err
	}
	if cfDef.MemtableOperationsInM, err = optFloat("memtable operations", def.MemtableOperations); err != nil {
		return nil, err
	}
	if cfDef.MemtableThroughputInMB, err = optInt("memtable throughput", def.MemtableThroughput); err != nil {
		return nil, err
	}
	if cfDef.MemtableFlushAfterMins, err = optInt("memtable flush after", def.MemtableFlushAfter); err != nil {
		return nil, err
	}
	if def.DefaultValidationClass != "" {
		cfDef.DefaultValidationClass = def.DefaultValidationClass
	}
	if cfDef.MinCompactionThreshold, err = optInt("min compaction threshold", def.MinCompactionThreshold); err != nil {
		return nil, err
	}
	if cfDef.MaxCompactionThreshold, err = optInt("max compaction threshold", def.MaxCompactionThreshold); err != nil {
		return nil, err
	}

	for _, md := range def.Metadata {
		cd := &thriftwire.ColumnDef{
			Name:            []byte(md.ColumnName),
			ValidationClass: md.ValidationClass,
			IndexType:       md.IndexType,
			IndexName:       md.IndexName,
		}
		cfDef.ColumnMetadata = append(cfDef.ColumnMetadata, cd)
	}

	return cfDef, nil
}

func optInt(attr, s string) (*int32, error) {
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseInt(s, 10, 32)
	if err != nil {
		return nil, &InvalidSchemaError{Reason: fmt.Sprintf("%s: %q is not an integer", attr, s)}
	}
	v32 := int32(v)
	return &v32, nil
}

func optFloat(attr, s string) (*float64, error) {
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, &InvalidSchemaError{Reason: fmt.Sprintf("%s: %q is not a number", attr, s)}
	}
	return &v, nil
}

// cfAttributes enumerates every wire descriptor attribute with its stringifier.
// Attribute names follow the wire field names. Absent optionals stringify to
// the empty string.
var cfAttributes = []struct {
	name  string
	value func(*thriftwire.CfDef) string
}{
	{"keyspace", func(d *thriftwire.CfDef) string { return d.Keyspace }},
	{"name", func(d *thriftwire.CfDef) string { return d.Name }},
	{"column_type", func(d *thriftwire.CfDef) string { return d.ColumnType }},
	{"comparator_type", func(d *thriftwire.CfDef) string { return d.ComparatorType }},
	{"subcomparator_type", func(d *thriftwire.CfDef) string { return d.SubcomparatorType }},
	{"comment", func(d *thriftwire.CfDef) string { return d.Comment }},
	{"row_cache_size", func(d *thriftwire.CfDef) string { return floatStr(d.RowCacheSize) }},
	{"key_cache_size", func(d *thriftwire.CfDef) string { return floatStr(d.KeyCacheSize) }},
	{"read_repair_chance", func(d *thriftwire.CfDef) string { return floatStr(d.ReadRepairChance) }},
	{"gc_grace_seconds", func(d *thriftwire.CfDef) string { return intStr(d.GcGraceSeconds) }},
	{"default_validation_class", func(d *thriftwire.CfDef) string { return d.DefaultValidationClass }},
	{"id", func(d *thriftwire.CfDef) string { return intStr(d.ID) }},
	{"min_compaction_threshold", func(d *thriftwire.CfDef) string { return intStr(d.MinCompactionThreshold) }},
	{"max_compaction_threshold", func(d *thriftwire.CfDef) string { return intStr(d.MaxCompactionThreshold) }},
	{"row_cache_save_period_in_seconds", func(d *thriftwire.CfDef) string { return intStr(d.RowCacheSavePeriod) }},
	{"key_cache_save_period_in_seconds", func(d *thriftwire.CfDef) string { return intStr(d.KeyCacheSavePeriod) }},
	{"memtable_flush_after_mins", func(d *thriftwire.CfDef) string { return intStr(d.MemtableFlushAfterMins) }},
	{"memtable_throughput_in_mb", func(d *thriftwire.CfDef) string { return intStr(d.MemtableThroughputInMB) }},
	{"memtable_operations_in_millions", func(d *thriftwire.CfDef) string { return floatStr(d.MemtableOperationsInM) }},
}

func intStr(v *int32) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(int(*v))
}

func floatStr(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'g', -1, 64)
}

// GetColumnFamilyAttributes scans the keyspace's families for a
// case-insensitive name match and flattens the matching descriptor into an
// attribute-name to stringified-value mapping for generic property display.
// Returns (nil, nil) when no family matches; absence is not an error.
func (c *Client) GetColumnFamilyAttributes(ctx context.Context, keyspace, columnFamily string) (map[string]string, error) {
	cfDef, err := c.findColumnFamily(ctx, keyspace, columnFamily)
	if err != nil || cfDef == nil {
		return nil, err
	}
	attrs := make(map[string]string, len(cfAttributes))
	for _, a := range cfAttributes {
		attrs[a.name] = a.value(cfDef)
	}
	return attrs, nil
}

// GetColumnFamilyDescriptor reconstructs the full local definition for a
// column family, decoding column metadata names from their wire byte form.
// Returns (nil, nil) when no family matches.
func (c *Client) GetColumnFamilyDescriptor(ctx context.Context, keyspace, columnFamily string) (*ColumnFamilyDefinition, error) {
	cfDef, err := c.findColumnFamily(ctx, keyspace, columnFamily)
	if err != nil || cfDef == nil {
		return nil, err
	}

	def := &ColumnFamilyDefinition{
		Keyspace:               keyspace,
		Name:                   cfDef.Name,
		Kind:                   ColumnFamilyKind(cfDef.ColumnType),
		ID:                     cfDef.ID,
		Comparator:             cfDef.ComparatorType,
		Subcomparator:          cfDef.SubcomparatorType,
		Comment:                cfDef.Comment,
		RowsCached:             floatStr(cfDef.RowCacheSize),
		RowCacheSavePeriod:     intStr(cfDef.RowCacheSavePeriod),
		KeysCached:             floatStr(cfDef.KeyCacheSize),
		KeyCacheSavePeriod:     intStr(cfDef.KeyCacheSavePeriod),
		ReadRepairChance:       floatStr(cfDef.ReadRepairChance),
		GcGrace:                intStr(cfDef.GcGraceSeconds),
		MemtableOperations:     floatStr(cfDef.MemtableOperationsInM),
		MemtableThroughput:     intStr(cfDef.MemtableThroughputInMB),
		MemtableFlushAfter:     intStr(cfDef.MemtableFlushAfterMins),
		DefaultValidationClass: cfDef.DefaultValidationClass,
		MinCompactionThreshold: intStr(cfDef.MinCompactionThreshold),
		MaxCompactionThreshold: intStr(cfDef.MaxCompactionThreshold),
	}

	for _, cd := range cfDef.ColumnMetadata {
		if !utf8.Valid(cd.Name) {
			return nil, &EncodingError{What: "column metadata name"}
		}
		def.Metadata = append(def.Metadata, ColumnMetadata{
			ColumnName:      string(cd.Name),
			ValidationClass: cd.ValidationClass,
			IndexType:       cd.IndexType,
			IndexName:       cd.IndexName,
		})
	}

	return def, nil
}

// ListColumnFamilyNames returns the sorted family names of a keyspace.
func (c *Client) ListColumnFamilyNames(ctx context.Context, keyspace string) ([]string, error) {
	ksDef, err := c.DescribeKeyspace(ctx, keyspace)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(ksDef.CfDefs))
	for _, cfDef := range ksDef.CfDefs {
		names = append(names, cfDef.Name)
	}
	sort.Strings(names)
	return names, nil
}

func (c *Client) findColumnFamily(ctx context.Context, keyspace, columnFamily string) (*thriftwire.CfDef, error) {
	ksDef, err := c.DescribeKeyspace(ctx, keyspace)
	if err != nil {
		return nil, err
	}
	for _, cfDef := range ksDef.CfDefs {
		if strings.EqualFold(columnFamily, cfDef.Name) {
			return cfDef, nil
		}
	}
	c.logger.Debug("column family not found",
		zap.String("keyspace", keyspace),
		zap.String("columnFamily", columnFamily))
	return nil, nil
}
