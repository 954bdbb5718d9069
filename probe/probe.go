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

// Package probe reads node topology and runtime statistics from a Cassandra
// node's management endpoint through its HTTP JSON bridge. Each Probe is a
// short-lived session to one endpoint; diagnostic calls against other ring
// members build a fresh Probe per endpoint.
package probe

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	storageServiceBean = "org.apache.cassandra.db:type=StorageService"
	runtimeBean        = "java.lang:type=Runtime"
	memoryBean         = "java.lang:type=Memory"

	// Stage pools live under two domains; both are enumerated for the
	// thread-pool report.
	requestPoolPattern  = "org.apache.cassandra.request:type=*"
	internalPoolPattern = "org.apache.cassandra.internal:type=*"
)

// RingTopology is the cluster view read from one node: the token to endpoint
// mapping, its sorted token list, liveness partitions, and per-node load.
type RingTopology struct {
	RangeMap         map[string]string
	Ranges           []string
	LiveNodes        []string
	UnreachableNodes []string
	LoadMap          map[string]string
}

// NodeInfo is the per-node summary shown on the node detail view.
type NodeInfo struct {
	Endpoint      string
	Load          string
	Generation    int64
	UptimeSeconds int64
	HeapUsedMB    float64
	HeapMaxMB     float64
}

// ThreadPoolStats is one stage pool's counters.
type ThreadPoolStats struct {
	PoolName       string
	ActiveCount    int64
	PendingTasks   int64
	CompletedTasks int64
}

// Probe reads management attributes from one endpoint.
type Probe struct {
	base   string
	client *http.Client
	logger *zap.Logger
}

// New builds a Probe for host's management port. No connection is made until
// the first read.
func New(host string, port int, timeout time.Duration, logger *zap.Logger) *Probe {
	return &Probe{
		base:   fmt.Sprintf("http://%s/jolokia/read", net.JoinHostPort(host, fmt.Sprint(port))),
		client: &http.Client{Timeout: timeout},
		logger: logger,
	}
}

// envelope is the bridge's response wrapper.
type envelope struct {
	Value  json.RawMessage `json:"value"`
	Status int             `json:"status"`
	Error  string          `json:"error"`
}

// read fetches one attribute of one mbean and decodes its value into out.
// An empty attribute reads every attribute of every matching mbean.
func (p *Probe) read(ctx context.Context, mbean, attribute string, out any) error {
	target := p.base + "/" + url.PathEscape(mbean)
	if attribute != "" {
		target += "/" + url.PathEscape(attribute)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return err
	}
	p.logger.Debug("reading management attribute",
		zap.String("mbean", mbean),
		zap.String("attribute", attribute))
	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("management endpoint: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("management endpoint: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("management endpoint: %s reading %s", resp.Status, mbean)
	}
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return fmt.Errorf("management endpoint: decoding %s: %w", mbean, err)
	}
	if env.Status != http.StatusOK {
		return fmt.Errorf("management endpoint: status %d reading %s: %s", env.Status, mbean, env.Error)
	}
	if err := json.Unmarshal(env.Value, out); err != nil {
		return fmt.Errorf("management endpoint: decoding %s value: %w", mbean, err)
	}
	return nil
}

// Ring reads the full ring view. The token range list is sorted from the
// range map's keys.
func (p *Probe) Ring(ctx context.Context) (*RingTopology, error) {
	r := &RingTopology{}
	if err := p.read(ctx, storageServiceBean, "TokenToEndpointMap", &r.RangeMap); err != nil {
		return nil, err
	}
	r.Ranges = make([]string, 0, len(r.RangeMap))
	for token := range r.RangeMap {
		r.Ranges = append(r.Ranges, token)
	}
	sort.Strings(r.Ranges)

	if err := p.read(ctx, storageServiceBean, "LiveNodes", &r.LiveNodes); err != nil {
		return nil, err
	}
	if err := p.read(ctx, storageServiceBean, "UnreachableNodes", &r.UnreachableNodes); err != nil {
		return nil, err
	}
	if err := p.read(ctx, storageServiceBean, "LoadMap", &r.LoadMap); err != nil {
		return nil, err
	}
	return r, nil
}

// NodeInfo reads one node's load, generation, uptime, and heap usage. Uptime
// is reported in milliseconds by the runtime bean and converted to seconds;
// heap figures convert from bytes to megabytes.
func (p *Probe) NodeInfo(ctx context.Context) (*NodeInfo, error) {
	ni := &NodeInfo{Endpoint: p.endpoint()}
	if err := p.read(ctx, storageServiceBean, "LoadString", &ni.Load); err != nil {
		return nil, err
	}
	if err := p.read(ctx, storageServiceBean, "CurrentGenerationNumber", &ni.Generation); err != nil {
		return nil, err
	}
	var uptimeMillis int64
	if err := p.read(ctx, runtimeBean, "Uptime", &uptimeMillis); err != nil {
		return nil, err
	}
	ni.UptimeSeconds = uptimeMillis / 1000

	var heap struct {
		Used int64 `json:"used"`
		Max  int64 `json:"max"`
	}
	if err := p.read(ctx, memoryBean, "HeapMemoryUsage", &heap); err != nil {
		return nil, err
	}
	ni.HeapUsedMB = float64(heap.Used) / (1024 * 1024)
	ni.HeapMaxMB = float64(heap.Max) / (1024 * 1024)
	return ni, nil
}

// ThreadPoolStats enumerates every stage pool registered on the node, sorted
// by pool name.
func (p *Probe) ThreadPoolStats(ctx context.Context) ([]ThreadPoolStats, error) {
	var stats []ThreadPoolStats
	for _, pattern := range []string{requestPoolPattern, internalPoolPattern} {
		pools := map[string]struct {
			ActiveCount    int64 `json:"ActiveCount"`
			PendingTasks   int64 `json:"PendingTasks"`
			CompletedTasks int64 `json:"CompletedTasks"`
		}{}
		if err := p.read(ctx, pattern, "", &pools); err != nil {
			return nil, err
		}
		for beanName, counters := range pools {
			stats = append(stats, ThreadPoolStats{
				PoolName:       poolName(beanName),
				ActiveCount:    counters.ActiveCount,
				PendingTasks:   counters.PendingTasks,
				CompletedTasks: counters.CompletedTasks,
			})
		}
	}
	sort.Slice(stats, func(i, j int) bool { return stats[i].PoolName < stats[j].PoolName })
	return stats, nil
}

func (p *Probe) endpoint() string {
	u, err := url.Parse(strings.TrimSuffix(p.base, "/jolokia/read"))
	if err != nil {
		return ""
	}
	return u.Hostname()
}

// poolName extracts the stage name from an mbean name like
// "org.apache.cassandra.request:type=ReadStage".
func poolName(beanName string) string {
	_, props, ok := strings.Cut(beanName, ":")
	if !ok {
		return beanName
	}
	for _, prop := range strings.Split(props, ",") {
		if name, found := strings.CutPrefix(prop, "type="); found {
			return name
		}
	}
	return beanName
}
