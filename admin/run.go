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

// Package admin is the command line front end of the cluster admin client.
package admin

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/alecthomas/kong"
	"go.uber.org/zap"

	"github.com/vincintz/cassandra-gui/client"
	"github.com/vincintz/cassandra-gui/utilities"
)

var releaseVersion = "v0.8.0"

const defaultConfigFile = "config.yaml"

type cli struct {
	Host     string   `help:"Seed node host" default:"localhost" env:"CASSANDRA_HOST"`
	RpcPort  int      `help:"Thrift RPC port" default:"9160" env:"CASSANDRA_RPC_PORT"`
	JmxPort  int      `help:"Management port" default:"7199" env:"CASSANDRA_JMX_PORT"`
	Timeout  int      `help:"Per-call timeout in seconds" default:"10" env:"CASSANDRA_TIMEOUT"`
	Config   *os.File `help:"YAML configuration file" short:"f" env:"CONFIG_FILE"`
	LogLevel string   `help:"Log level configuration." default:"info" env:"LOG_LEVEL"`

	Version   versionCmd   `cmd:"" help:"Show current version."`
	Cluster   clusterCmd   `cmd:"" help:"Show cluster name, version, snitch, and partitioner."`
	Ring      ringCmd      `cmd:"" help:"Show ring topology from the management endpoint."`
	Node      nodeCmd      `cmd:"" help:"Show one node's info and thread pool statistics."`
	Keyspaces keyspacesCmd `cmd:"" help:"List keyspaces."`
	Families  familiesCmd  `cmd:"" help:"List column families of a keyspace."`
	Describe  describeCmd  `cmd:"" help:"Show one column family's attributes."`
	Rows      rowsCmd      `cmd:"" help:"List rows of a column family in a key range."`
	Get       getCmd       `cmd:"" help:"Fetch one row."`
	Insert    insertCmd    `cmd:"" help:"Write one cell."`
	Remove    removeCmd    `cmd:"" help:"Delete a row, column, or super column."`
}

// appEnv is handed to every command's Run method.
type appEnv struct {
	ctx    context.Context
	client *client.Client
	logger *zap.Logger
}

// Run starts the admin command. 'args' shouldn't include the executable
// (i.e. os.Args[1:]). It returns the exit code for the process.
func Run(ctx context.Context, args []string) int {
	var cfg cli

	configFile := defaultConfigFile
	if configFileEnv := os.Getenv("CONFIG_FILE"); len(configFileEnv) != 0 {
		configFile = configFileEnv
	}

	parser, err := kong.New(&cfg)
	if err != nil {
		panic(err)
	}

	var cliCtx *kong.Context
	if cliCtx, err = parser.Parse(args); err != nil {
		parser.Errorf("error parsing flags: %v", err)
		return 1
	}

	if cfg.Config != nil {
		configFile = cfg.Config.Name()
	}
	userConfig, err := LoadConfig(configFile)
	if err != nil {
		cliCtx.Errorf("error while loading %s: %v", configFile, err)
		return 1
	}

	supported := false
	for _, level := range []string{"info", "debug", "error", "warn"} {
		if cfg.LogLevel == level {
			supported = true
		}
	}
	if !supported {
		cliCtx.Errorf("Invalid log-level should be [info/debug/error/warn]")
		return 1
	}

	logger, err := utilities.SetupLogger(cfg.LogLevel, userConfig.LoggerConfig)
	if err != nil {
		cliCtx.Errorf("unable to create logger")
		return 1
	}
	defer logger.Sync()

	if cliCtx.Command() == "version" {
		cliCtx.Printf("Version - " + releaseVersion)
		return 0
	}

	host := utilities.DefaultIfEmpty(userConfig.Connection.Host, cfg.Host)
	rpcPort := utilities.DefaultIfZero(userConfig.Connection.RPCPort, cfg.RpcPort)
	jmxPort := utilities.DefaultIfZero(userConfig.Connection.ManagementPort, cfg.JmxPort)
	timeout := utilities.DefaultIfZero(userConfig.Connection.TimeoutSeconds, cfg.Timeout)

	c := client.New(
		client.WithHost(host),
		client.WithPorts(rpcPort, jmxPort),
		client.WithCallTimeout(time.Duration(timeout)*time.Second),
		client.WithLogger(logger),
	)
	if err := c.Connect(ctx); err != nil {
		cliCtx.Errorf("unable to connect to %s:%d: %v", host, rpcPort, err)
		return 1
	}
	defer c.Disconnect()

	if err := cliCtx.Run(&appEnv{ctx: ctx, client: c, logger: logger}); err != nil {
		cliCtx.Errorf("%v", err)
		return 1
	}
	return 0
}

type versionCmd struct{}

// Run never executes; the version command is short-circuited before the
// client connects.
func (cmd *versionCmd) Run(env *appEnv) error { return nil }

type clusterCmd struct{}

func (cmd *clusterCmd) Run(env *appEnv) error {
	name, err := env.client.DescribeClusterName(env.ctx)
	if err != nil {
		return err
	}
	version, err := env.client.DescribeVersion(env.ctx)
	if err != nil {
		return err
	}
	snitch, err := env.client.DescribeSnitch(env.ctx)
	if err != nil {
		return err
	}
	partitioner, err := env.client.DescribePartitioner(env.ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Cluster Name: %s\n", name)
	fmt.Printf("API Version:  %s\n", version)
	fmt.Printf("Snitch:       %s\n", snitch)
	fmt.Printf("Partitioner:  %s\n", partitioner)

	versions, err := env.client.DescribeSchemaVersions(env.ctx)
	if err != nil {
		return err
	}
	for schema, endpoints := range versions {
		fmt.Printf("Schema %s: %v\n", schema, endpoints)
	}
	return nil
}

type ringCmd struct {
	Keyspace string `help:"Also show the keyspace's token ranges from the RPC endpoint."`
}

func (cmd *ringCmd) Run(env *appEnv) error {
	ring, err := env.client.ListRing(env.ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Live nodes:        %v\n", ring.LiveNodes)
	fmt.Printf("Unreachable nodes: %v\n", ring.UnreachableNodes)
	for _, token := range ring.Ranges {
		endpoint := ring.RangeMap[token]
		fmt.Printf("%-44s %-16s %s\n", token, endpoint, ring.LoadMap[endpoint])
	}

	if cmd.Keyspace != "" {
		ranges, err := env.client.DescribeRing(env.ctx, cmd.Keyspace)
		if err != nil {
			return err
		}
		for _, r := range ranges {
			fmt.Printf("[%s, %s] %v\n", r.StartToken, r.EndToken, r.Endpoints)
		}
	}
	return nil
}

type nodeCmd struct {
	Endpoint string `arg:"" help:"Node address to probe."`
}

func (cmd *nodeCmd) Run(env *appEnv) error {
	info, err := env.client.GetNodeInfo(env.ctx, cmd.Endpoint)
	if err != nil {
		return err
	}
	fmt.Printf("Endpoint:   %s\n", info.Endpoint)
	fmt.Printf("Load:       %s\n", info.Load)
	fmt.Printf("Generation: %d\n", info.Generation)
	fmt.Printf("Uptime:     %ds\n", info.UptimeSeconds)
	fmt.Printf("Heap:       %.2f / %.2f MB\n", info.HeapUsedMB, info.HeapMaxMB)

	stats, err := env.client.GetThreadPoolStats(env.ctx, cmd.Endpoint)
	if err != nil {
		return err
	}
	fmt.Printf("%-28s %8s %8s %10s\n", "Pool Name", "Active", "Pending", "Completed")
	for _, s := range stats {
		fmt.Printf("%-28s %8d %8d %10d\n", s.PoolName, s.ActiveCount, s.PendingTasks, s.CompletedTasks)
	}
	return nil
}

type keyspacesCmd struct{}

func (cmd *keyspacesCmd) Run(env *appEnv) error {
	defs, err := env.client.ListKeyspaces(env.ctx)
	if err != nil {
		return err
	}
	for _, def := range defs {
		fmt.Printf("%s (%s)\n", def.Name, def.StrategyClass)
	}
	return nil
}

type familiesCmd struct {
	Keyspace string `arg:"" help:"Keyspace to list."`
}

func (cmd *familiesCmd) Run(env *appEnv) error {
	names, err := env.client.ListColumnFamilyNames(env.ctx, cmd.Keyspace)
	if err != nil {
		return err
	}
	for _, name := range names {
		fmt.Println(name)
	}
	return nil
}

type describeCmd struct {
	Keyspace     string `arg:"" help:"Keyspace of the column family."`
	ColumnFamily string `arg:"" help:"Column family name (case-insensitive)."`
}

func (cmd *describeCmd) Run(env *appEnv) error {
	attrs, err := env.client.GetColumnFamilyAttributes(env.ctx, cmd.Keyspace, cmd.ColumnFamily)
	if err != nil {
		return err
	}
	if attrs == nil {
		fmt.Printf("%s.%s not found\n", cmd.Keyspace, cmd.ColumnFamily)
		return nil
	}
	for name, value := range attrs {
		fmt.Printf("%-36s %s\n", name, value)
	}
	return nil
}

type rowsCmd struct {
	Keyspace     string `arg:"" help:"Keyspace of the column family."`
	ColumnFamily string `arg:"" help:"Column family to scan."`
	StartKey     string `help:"Range start key." default:""`
	EndKey       string `help:"Range end key." default:""`
	MaxRows      int32  `help:"Row cap for the scan." default:"50"`
}

func (cmd *rowsCmd) Run(env *appEnv) error {
	res := env.client.ListRowsInRange(env.ctx, cmd.Keyspace, cmd.ColumnFamily, cmd.StartKey, cmd.EndKey, cmd.MaxRows)
	if res.Status == client.RowsTransientFailure {
		env.logger.Warn("range scan did not complete", zap.Error(res.Err))
	}
	printRows(res.RowsOrEmpty())
	return nil
}

type getCmd struct {
	Keyspace     string `arg:"" help:"Keyspace of the column family."`
	ColumnFamily string `arg:"" help:"Column family to read."`
	Key          string `arg:"" help:"Row key."`
	SuperColumn  string `help:"Scope the read to one super column."`
}

func (cmd *getCmd) Run(env *appEnv) error {
	res := env.client.GetKey(env.ctx, cmd.Keyspace, cmd.ColumnFamily, cmd.SuperColumn, cmd.Key)
	if res.Status == client.RowsTransientFailure {
		env.logger.Warn("row fetch did not complete", zap.Error(res.Err))
	}
	printRows(res.RowsOrEmpty())
	return nil
}

type insertCmd struct {
	Keyspace     string `arg:"" help:"Keyspace of the column family."`
	ColumnFamily string `arg:"" help:"Column family to write."`
	Key          string `arg:"" help:"Row key."`
	Column       string `arg:"" help:"Column name."`
	Value        string `arg:"" help:"Column value."`
	SuperColumn  string `help:"Write under a super column."`
}

func (cmd *insertCmd) Run(env *appEnv) error {
	at, err := env.client.InsertColumn(env.ctx, cmd.Keyspace, cmd.ColumnFamily, cmd.Key, cmd.SuperColumn, cmd.Column, cmd.Value)
	if err != nil {
		return err
	}
	fmt.Printf("written at %s\n", at.Time().Format(time.RFC3339))
	return nil
}

type removeCmd struct {
	Keyspace     string `arg:"" help:"Keyspace of the column family."`
	ColumnFamily string `arg:"" help:"Column family to delete from."`
	Key          string `arg:"" help:"Row key."`
	Column       string `help:"Delete only this column."`
	SuperColumn  string `help:"Delete within this super column, or the whole super column when no column is given."`
}

func (cmd *removeCmd) Run(env *appEnv) error {
	switch {
	case cmd.SuperColumn != "" && cmd.Column != "":
		return env.client.RemoveSubColumn(env.ctx, cmd.Keyspace, cmd.ColumnFamily, cmd.Key, cmd.SuperColumn, cmd.Column)
	case cmd.SuperColumn != "":
		return env.client.RemoveSuperColumn(env.ctx, cmd.Keyspace, cmd.ColumnFamily, cmd.Key, cmd.SuperColumn)
	case cmd.Column != "":
		return env.client.RemoveColumn(env.ctx, cmd.Keyspace, cmd.ColumnFamily, cmd.Key, cmd.Column)
	default:
		return env.client.RemoveKey(env.ctx, cmd.Keyspace, cmd.ColumnFamily, cmd.Key)
	}
}

func printRows(rows map[string]*client.Record) {
	for _, key := range client.SortedKeys(rows) {
		record := rows[key]
		fmt.Printf("%s\n", record.Key)
		if record.HasSuperColumns {
			for _, sc := range record.SortedSuperColumns() {
				fmt.Printf("  %s\n", sc.Name)
				for _, cell := range sc.SortedCells() {
					fmt.Printf("    %s = %s @ %s\n", cell.Name, cell.Value, cell.Timestamp.Time().Format(time.RFC3339))
				}
			}
			continue
		}
		for _, cell := range record.SortedCells() {
			fmt.Printf("  %s = %s @ %s\n", cell.Name, cell.Value, cell.Timestamp.Time().Format(time.RFC3339))
		}
	}
}
