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

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vincintz/cassandra-gui/thriftwire"
)

type fixedDatacenter string

func (d fixedDatacenter) Datacenter() (string, error) { return string(d), nil }

func TestCreateKeyspaceSimpleStrategy(t *testing.T) {
	fake := &fakeConn{}
	c := connectedClient(fake)

	err := c.CreateKeyspace(context.Background(), "ks1", "SimpleStrategy", nil, 3)
	require.NoError(t, err)

	require.NotNil(t, fake.lastKsDef)
	assert.Equal(t, "ks1", fake.lastKsDef.Name)
	assert.Equal(t, "SimpleStrategy", fake.lastKsDef.StrategyClass)
	assert.Equal(t, map[string]string{"replication_factor": "3"}, fake.lastKsDef.StrategyOptions)
	assert.Empty(t, fake.lastKsDef.CfDefs)
}

func TestCreateKeyspaceDiscardsCallerOptions(t *testing.T) {
	fake := &fakeConn{}
	c := connectedClient(fake)

	supplied := map[string]string{"dc-east": "3", "dc-west": "2"}
	err := c.CreateKeyspace(context.Background(), "ks1", "SimpleStrategy", supplied, 1)
	require.NoError(t, err)

	// Caller options are dropped wholesale; only the computed option goes out.
	assert.Equal(t, map[string]string{"replication_factor": "1"}, fake.lastKsDef.StrategyOptions)
}

func TestCreateKeyspaceNetworkTopology(t *testing.T) {
	fake := &fakeConn{}
	c := connectedClient(fake, WithLocalityResolver(fixedDatacenter("dc-local")))

	err := c.CreateKeyspace(context.Background(), "ks1", "NetworkTopologyStrategy", nil, 3)
	require.NoError(t, err)

	assert.Equal(t, map[string]string{"dc-local": "1"}, fake.lastKsDef.StrategyOptions)
}

func TestCreateKeyspaceMergedKeepsCallerOptions(t *testing.T) {
	fake := &fakeConn{}
	c := connectedClient(fake, WithLocalityResolver(fixedDatacenter("dc-local")))

	supplied := map[string]string{"dc-east": "3"}
	err := c.CreateKeyspaceMerged(context.Background(), "ks1", "NetworkTopologyStrategy", supplied, 3)
	require.NoError(t, err)

	assert.Equal(t, map[string]string{"dc-east": "3", "dc-local": "1"}, fake.lastKsDef.StrategyOptions)
	// The merge never mutates the caller's mapping.
	assert.Equal(t, map[string]string{"dc-east": "3"}, supplied)
}

func TestUpdateKeyspaceAlwaysSendsReplicationFactor(t *testing.T) {
	fake := &fakeConn{}
	c := connectedClient(fake, WithLocalityResolver(fixedDatacenter("dc-local")))

	// Unlike create, update sends the flat factor even for topology-aware
	// strategies.
	err := c.UpdateKeyspace(context.Background(), "ks1", "NetworkTopologyStrategy", nil, 2)
	require.NoError(t, err)

	assert.Equal(t, []string{"system_update_keyspace"}, fake.calls)
	assert.Equal(t, map[string]string{"replication_factor": "2"}, fake.lastKsDef.StrategyOptions)
}

func TestCreateKeyspaceSchemaConflict(t *testing.T) {
	fake := &fakeConn{err: &thriftwire.SchemaDisagreementException{}}
	c := connectedClient(fake)

	err := c.CreateKeyspace(context.Background(), "ks1", "SimpleStrategy", nil, 1)
	var conflict *SchemaConflictError
	assert.ErrorAs(t, err, &conflict)
}

func TestCreateColumnFamilyMinimal(t *testing.T) {
	fake := &fakeConn{}
	c := connectedClient(fake)

	def := &ColumnFamilyDefinition{Name: "users", Kind: KindStandard}
	require.NoError(t, c.CreateColumnFamily(context.Background(), "ks1", def))

	assert.Equal(t, []string{"set_keyspace", "system_add_column_family"}, fake.calls)
	assert.Equal(t, "ks1", fake.setKeyspaceName)

	cfDef := fake.lastCfDef
	require.NotNil(t, cfDef)
	assert.Equal(t, "ks1", cfDef.Keyspace)
	assert.Equal(t, "users", cfDef.Name)
	assert.Equal(t, "Standard", cfDef.ColumnType)

	// Absent optionals stay unset rather than going out as zero overrides.
	assert.Empty(t, cfDef.ComparatorType)
	assert.Nil(t, cfDef.RowCacheSize)
	assert.Nil(t, cfDef.GcGraceSeconds)
	assert.Nil(t, cfDef.MinCompactionThreshold)
	assert.Nil(t, cfDef.ID)
}

func TestCreateColumnFamilyAllAttributes(t *testing.T) {
	fake := &fakeConn{}
	c := connectedClient(fake)

	indexType := thriftwire.IndexTypeKeys
	def := &ColumnFamilyDefinition{
		Name:                   "users",
		Kind:                   KindSuper,
		Comparator:             "org.apache.cassandra.db.marshal.UTF8Type",
		Subcomparator:          "org.apache.cassandra.db.marshal.LongType",
		Comment:                "people",
		RowsCached:             "1000.5",
		RowCacheSavePeriod:     "60",
		KeysCached:             "2000",
		KeyCacheSavePeriod:     "120",
		ReadRepairChance:       "0.25",
		GcGrace:                "864000",
		MemtableOperations:     "0.5",
		MemtableThroughput:     "128",
		MemtableFlushAfter:     "30",
		DefaultValidationClass: "org.apache.cassandra.db.marshal.BytesType",
		MinCompactionThreshold: "4",
		MaxCompactionThreshold: "32",
		Metadata: []ColumnMetadata{
			{
				ColumnName:      "email",
				ValidationClass: "org.apache.cassandra.db.marshal.UTF8Type",
				IndexType:       &indexType,
				IndexName:       "email_idx",
			},
		},
	}
	require.NoError(t, c.CreateColumnFamily(context.Background(), "ks1", def))

	cfDef := fake.lastCfDef
	require.NotNil(t, cfDef)
	assert.Equal(t, "Super", cfDef.ColumnType)
	assert.Equal(t, "org.apache.cassandra.db.marshal.LongType", cfDef.SubcomparatorType)
	assert.Equal(t, "people", cfDef.Comment)
	require.NotNil(t, cfDef.RowCacheSize)
	assert.Equal(t, 1000.5, *cfDef.RowCacheSize)
	require.NotNil(t, cfDef.RowCacheSavePeriod)
	assert.Equal(t, int32(60), *cfDef.RowCacheSavePeriod)
	require.NotNil(t, cfDef.ReadRepairChance)
	assert.Equal(t, 0.25, *cfDef.ReadRepairChance)
	require.NotNil(t, cfDef.GcGraceSeconds)
	assert.Equal(t, int32(864000), *cfDef.GcGraceSeconds)
	require.NotNil(t, cfDef.MemtableOperationsInM)
	assert.Equal(t, 0.5, *cfDef.MemtableOperationsInM)
	require.NotNil(t, cfDef.MaxCompactionThreshold)
	assert.Equal(t, int32(32), *cfDef.MaxCompactionThreshold)

	require.Len(t, cfDef.ColumnMetadata, 1)
	assert.Equal(t, []byte("email"), cfDef.ColumnMetadata[0].Name)
	assert.Equal(t, "email_idx", cfDef.ColumnMetadata[0].IndexName)
}

func TestCreateColumnFamilySubcomparatorOnlyForSuper(t *testing.T) {
	fake := &fakeConn{}
	c := connectedClient(fake)

	def := &ColumnFamilyDefinition{
		Name:          "users",
		Kind:          KindStandard,
		Comparator:    "org.apache.cassandra.db.marshal.UTF8Type",
		Subcomparator: "org.apache.cassandra.db.marshal.LongType",
	}
	require.NoError(t, c.CreateColumnFamily(context.Background(), "ks1", def))
	assert.Empty(t, fake.lastCfDef.SubcomparatorType)
}

func TestCreateColumnFamilyBadNumber(t *testing.T) {
	tests := []struct {
		name string
		def  *ColumnFamilyDefinition
	}{
		{"gc grace", &ColumnFamilyDefinition{Name: "cf", Kind: KindStandard, GcGrace: "soon"}},
		{"rows cached", &ColumnFamilyDefinition{Name: "cf", Kind: KindStandard, RowsCached: "lots"}},
		{"min compaction", &ColumnFamilyDefinition{Name: "cf", Kind: KindStandard, MinCompactionThreshold: "4.5"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			fake := &fakeConn{}
			c := connectedClient(fake)
			err := c.CreateColumnFamily(context.Background(), "ks1", tc.def)
			var schemaErr *InvalidSchemaError
			require.ErrorAs(t, err, &schemaErr)
			// Nothing is sent when the definition does not parse.
			assert.Empty(t, fake.calls)
		})
	}
}

func TestUpdateColumnFamilyCarriesID(t *testing.T) {
	fake := &fakeConn{}
	c := connectedClient(fake)

	id := int32(1042)
	def := &ColumnFamilyDefinition{Name: "users", Kind: KindStandard, ID: &id}
	require.NoError(t, c.UpdateColumnFamily(context.Background(), "ks1", def))

	assert.Equal(t, []string{"set_keyspace", "system_update_column_family"}, fake.calls)
	require.NotNil(t, fake.lastCfDef.ID)
	assert.Equal(t, int32(1042), *fake.lastCfDef.ID)
}

func TestDropAndTruncateScopeKeyspaceFirst(t *testing.T) {
	fake := &fakeConn{}
	c := connectedClient(fake)
	ctx := context.Background()

	require.NoError(t, c.DropColumnFamily(ctx, "ks1", "users"))
	assert.Equal(t, []string{"set_keyspace", "system_drop_column_family"}, fake.calls)

	fake.calls = nil
	require.NoError(t, c.TruncateColumnFamily(ctx, "ks1", "users"))
	assert.Equal(t, []string{"set_keyspace", "truncate"}, fake.calls)
	assert.Equal(t, "ks1", fake.setKeyspaceName)
}

func keyspaceWithFamilies() *thriftwire.KsDef {
	gcGrace := int32(864000)
	rowCache := 1000.0
	id := int32(7)
	return &thriftwire.KsDef{
		Name: "ks1",
		CfDefs: []*thriftwire.CfDef{
			{
				Keyspace:       "ks1",
				Name:           "Users",
				ColumnType:     "Standard",
				ComparatorType: "org.apache.cassandra.db.marshal.UTF8Type",
				RowCacheSize:   &rowCache,
				GcGraceSeconds: &gcGrace,
				ID:             &id,
				ColumnMetadata: []*thriftwire.ColumnDef{
					{Name: []byte("email"), ValidationClass: "org.apache.cassandra.db.marshal.UTF8Type"},
				},
			},
			{Keyspace: "ks1", Name: "Audit", ColumnType: "Super"},
		},
	}
}

func TestGetColumnFamilyAttributes(t *testing.T) {
	fake := &fakeConn{keyspaceDef: keyspaceWithFamilies()}
	c := connectedClient(fake)

	// Lookup is case-insensitive.
	attrs, err := c.GetColumnFamilyAttributes(context.Background(), "ks1", "users")
	require.NoError(t, err)
	require.NotNil(t, attrs)

	assert.Equal(t, "Users", attrs["name"])
	assert.Equal(t, "Standard", attrs["column_type"])
	assert.Equal(t, "org.apache.cassandra.db.marshal.UTF8Type", attrs["comparator_type"])
	assert.Equal(t, "1000", attrs["row_cache_size"])
	assert.Equal(t, "864000", attrs["gc_grace_seconds"])
	assert.Equal(t, "7", attrs["id"])
	// Absent optionals stringify to empty, not to a zero.
	assert.Equal(t, "", attrs["min_compaction_threshold"])
}

func TestGetColumnFamilyAttributesAbsent(t *testing.T) {
	fake := &fakeConn{keyspaceDef: keyspaceWithFamilies()}
	c := connectedClient(fake)

	attrs, err := c.GetColumnFamilyAttributes(context.Background(), "ks1", "nope")
	require.NoError(t, err)
	assert.Nil(t, attrs)
}

func TestGetColumnFamilyDescriptor(t *testing.T) {
	fake := &fakeConn{keyspaceDef: keyspaceWithFamilies()}
	c := connectedClient(fake)

	def, err := c.GetColumnFamilyDescriptor(context.Background(), "ks1", "USERS")
	require.NoError(t, err)
	require.NotNil(t, def)

	assert.Equal(t, "Users", def.Name)
	assert.Equal(t, KindStandard, def.Kind)
	assert.Equal(t, "1000", def.RowsCached)
	assert.Equal(t, "864000", def.GcGrace)
	require.NotNil(t, def.ID)
	assert.Equal(t, int32(7), *def.ID)
	require.Len(t, def.Metadata, 1)
	assert.Equal(t, "email", def.Metadata[0].ColumnName)

	absent, err := c.GetColumnFamilyDescriptor(context.Background(), "ks1", "nope")
	require.NoError(t, err)
	assert.Nil(t, absent)
}

func TestListColumnFamilyNamesSorted(t *testing.T) {
	fake := &fakeConn{keyspaceDef: keyspaceWithFamilies()}
	c := connectedClient(fake)

	names, err := c.ListColumnFamilyNames(context.Background(), "ks1")
	require.NoError(t, err)
	assert.Equal(t, []string{"Audit", "Users"}, names)
}

func TestStaticMaps(t *testing.T) {
	assert.Contains(t, StrategyMap(), "SimpleStrategy")
	assert.Contains(t, StrategyMap(), "NetworkTopologyStrategy")
	assert.Equal(t, "UTF8Type", ComparatorTypeMap()["org.apache.cassandra.db.marshal.UTF8Type"])
	assert.Equal(t, "IntegerType", ValidationClassMap()["org.apache.cassandra.db.marshal.IntegerType"])
	assert.NotContains(t, ComparatorTypeMap(), "org.apache.cassandra.db.marshal.IntegerType")
}
