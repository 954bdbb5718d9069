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

// Package client is the admin façade over a Cassandra cluster node: schema
// and row operations over the Thrift RPC endpoint, topology and statistics
// over the out-of-band management endpoint, and an optional secondary CQL
// session.
//
// A Client is intended for single-threaded, call-and-wait use; it keeps no
// keyspace or column family scoping state between calls (every operation
// takes its scope explicitly), but the underlying wire session is not safe
// for concurrent calls. Per-node diagnostic calls open their own short-lived
// sessions and may run concurrently with the primary session.
package client

import (
	"context"
	"io"
	"time"

	"github.com/gocql/gocql"
	"go.uber.org/zap"

	"github.com/vincintz/cassandra-gui/probe"
	"github.com/vincintz/cassandra-gui/thriftwire"
)

const (
	DefaultHost    = "localhost"
	DefaultRPCPort = 9160
	DefaultJMXPort = 7199

	defaultCallTimeout = 10 * time.Second
)

// LocalityResolver names the datacenter of the local host, used when
// building strategy options for topology-aware replication.
type LocalityResolver interface {
	Datacenter() (string, error)
}

// SimpleSnitch is the default LocalityResolver: every host is in one
// datacenter named "datacenter1", matching the remote service's simple
// snitch.
type SimpleSnitch struct{}

func (SimpleSnitch) Datacenter() (string, error) { return "datacenter1", nil }

// dialWire is swapped out by tests.
var dialWire = func(host string, port int, timeout time.Duration) (thriftwire.Cassandra, io.Closer, error) {
	c, err := thriftwire.Dial(host, port, timeout)
	if err != nil {
		return nil, nil, err
	}
	return c, c, nil
}

// Client is the admin façade. Construct with New, then Connect before use.
type Client struct {
	host        string
	rpcPort     int
	jmxPort     int
	callTimeout time.Duration
	logger      *zap.Logger
	locality    LocalityResolver

	conn   thriftwire.Cassandra
	closer io.Closer

	cql *gocql.Session
}

// Option configures a Client.
type Option func(*Client)

// WithHost sets the seed node host name.
func WithHost(host string) Option {
	return func(c *Client) { c.host = host }
}

// WithPorts sets the RPC and management ports.
func WithPorts(rpcPort, jmxPort int) Option {
	return func(c *Client) {
		c.rpcPort = rpcPort
		c.jmxPort = jmxPort
	}
}

// WithCallTimeout bounds every remote call, including connect.
func WithCallTimeout(d time.Duration) Option {
	return func(c *Client) { c.callTimeout = d }
}

// WithLogger sets the structured logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// WithLocalityResolver replaces the default SimpleSnitch.
func WithLocalityResolver(r LocalityResolver) Option {
	return func(c *Client) { c.locality = r }
}

// New builds an unconnected Client. With no options it targets
// localhost:9160 with management port 7199.
func New(opts ...Option) *Client {
	c := &Client{
		host:        DefaultHost,
		rpcPort:     DefaultRPCPort,
		jmxPort:     DefaultJMXPort,
		callTimeout: defaultCallTimeout,
		logger:      zap.NewNop(),
		locality:    SimpleSnitch{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Connect opens the framed binary-protocol session to the RPC endpoint.
// Calling Connect while connected is a no-op. A socket failure surfaces as a
// TransportError wrapping the cause.
func (c *Client) Connect(ctx context.Context) error {
	if c.conn != nil {
		return nil
	}
	conn, closer, err := dialWire(c.host, c.rpcPort, c.callTimeout)
	if err != nil {
		return &TransportError{Err: err}
	}
	c.conn = conn
	c.closer = closer
	c.logger.Info("connected",
		zap.String("host", c.host),
		zap.Int("rpcPort", c.rpcPort),
		zap.Int("jmxPort", c.jmxPort))
	return nil
}

// Disconnect closes the RPC session if open. It never fails; a close error
// is logged and dropped.
func (c *Client) Disconnect() {
	if c.conn == nil {
		return
	}
	if c.closer != nil {
		if err := c.closer.Close(); err != nil {
			c.logger.Warn("error closing transport", zap.Error(err))
		}
	}
	c.conn = nil
	c.closer = nil
	c.logger.Info("disconnected", zap.String("host", c.host))
}

// IsConnected reports whether the RPC session is open.
func (c *Client) IsConnected() bool { return c.conn != nil }

// CQLConnect opens the independent secondary session to the query-language
// endpoint, scoped to keyspace. Idempotent while connected.
func (c *Client) CQLConnect(keyspace string) error {
	if c.cql != nil {
		return nil
	}
	cluster := gocql.NewCluster(c.host)
	cluster.Port = c.rpcPort
	cluster.Keyspace = keyspace
	cluster.Consistency = gocql.One
	cluster.Timeout = c.callTimeout
	cluster.ConnectTimeout = c.callTimeout
	session, err := cluster.CreateSession()
	if err != nil {
		return &QueryError{Err: err}
	}
	c.cql = session
	c.logger.Info("cql session opened", zap.String("keyspace", keyspace))
	return nil
}

// CQLDisconnect closes the secondary session if open.
func (c *Client) CQLDisconnect() {
	if c.cql == nil {
		return
	}
	c.cql.Close()
	c.cql = nil
	c.logger.Info("cql session closed")
}

// IsCQLConnected reports whether the secondary session is open.
func (c *Client) IsCQLConnected() bool { return c.cql != nil }

// CQLSession exposes the secondary session handle, or nil when not
// connected. No queries are issued by the façade itself.
func (c *Client) CQLSession() *gocql.Session { return c.cql }

// opCtx derives the per-call deadline.
func (c *Client) opCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, c.callTimeout)
}

func (c *Client) require() (thriftwire.Cassandra, error) {
	if c.conn == nil {
		return nil, ErrNotConnected
	}
	return c.conn, nil
}

// Cluster description pass-throughs.

func (c *Client) DescribeClusterName(ctx context.Context) (string, error) {
	conn, err := c.require()
	if err != nil {
		return "", err
	}
	ctx, cancel := c.opCtx(ctx)
	defer cancel()
	name, err := conn.DescribeClusterName(ctx)
	return name, translateErr("cluster name", err)
}

func (c *Client) DescribeVersion(ctx context.Context) (string, error) {
	conn, err := c.require()
	if err != nil {
		return "", err
	}
	ctx, cancel := c.opCtx(ctx)
	defer cancel()
	v, err := conn.DescribeVersion(ctx)
	return v, translateErr("version", err)
}

func (c *Client) DescribeSnitch(ctx context.Context) (string, error) {
	conn, err := c.require()
	if err != nil {
		return "", err
	}
	ctx, cancel := c.opCtx(ctx)
	defer cancel()
	s, err := conn.DescribeSnitch(ctx)
	return s, translateErr("snitch", err)
}

func (c *Client) DescribePartitioner(ctx context.Context) (string, error) {
	conn, err := c.require()
	if err != nil {
		return "", err
	}
	ctx, cancel := c.opCtx(ctx)
	defer cancel()
	p, err := conn.DescribePartitioner(ctx)
	return p, translateErr("partitioner", err)
}

func (c *Client) DescribeSchemaVersions(ctx context.Context) (map[string][]string, error) {
	conn, err := c.require()
	if err != nil {
		return nil, err
	}
	ctx, cancel := c.opCtx(ctx)
	defer cancel()
	m, err := conn.DescribeSchemaVersions(ctx)
	return m, translateErr("schema versions", err)
}

// DescribeRing returns the keyspace's token ranges as reported by the RPC
// endpoint.
func (c *Client) DescribeRing(ctx context.Context, keyspace string) ([]*thriftwire.TokenRange, error) {
	conn, err := c.require()
	if err != nil {
		return nil, err
	}
	ctx, cancel := c.opCtx(ctx)
	defer cancel()
	ring, err := conn.DescribeRing(ctx, keyspace)
	return ring, translateErr("ring", err)
}

// Management-endpoint reporters. Each per-node call opens a fresh session to
// that endpoint: the primary session targets one fixed seed node, while
// diagnostics target arbitrary peers discovered from the ring.

// ListRing reads ring topology from the configured node's management
// endpoint.
func (c *Client) ListRing(ctx context.Context) (*probe.RingTopology, error) {
	return probe.New(c.host, c.jmxPort, c.callTimeout, c.logger).Ring(ctx)
}

// GetNodeInfo reads load, generation, uptime, and heap usage from the given
// endpoint's management interface.
func (c *Client) GetNodeInfo(ctx context.Context, endpoint string) (*probe.NodeInfo, error) {
	return probe.New(endpoint, c.jmxPort, c.callTimeout, c.logger).NodeInfo(ctx)
}

// GetThreadPoolStats enumerates thread-pool statistics from the given
// endpoint's management interface.
func (c *Client) GetThreadPoolStats(ctx context.Context, endpoint string) ([]probe.ThreadPoolStats, error) {
	return probe.New(endpoint, c.jmxPort, c.callTimeout, c.logger).ThreadPoolStats(ctx)
}
