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

package probe

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// bridgeFixture serves canned attribute values keyed by "mbean/attribute".
func bridgeFixture(t *testing.T, values map[string]string) *Probe {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := strings.TrimPrefix(r.URL.EscapedPath(), "/jolokia/read/")
		parts := strings.SplitN(key, "/", 2)
		for i, part := range parts {
			unescaped, err := url.PathUnescape(part)
			require.NoError(t, err)
			parts[i] = unescaped
		}
		value, ok := values[strings.Join(parts, "/")]
		if !ok {
			fmt.Fprintf(w, `{"status":404,"error":"no such attribute: %s"}`, key)
			return
		}
		fmt.Fprintf(w, `{"status":200,"value":%s}`, value)
	}))
	t.Cleanup(server.Close)

	u, err := url.Parse(server.URL)
	require.NoError(t, err)
	port, err := strconv.Atoi(u.Port())
	require.NoError(t, err)
	return New(u.Hostname(), port, 5*time.Second, zap.NewNop())
}

func TestRing(t *testing.T) {
	p := bridgeFixture(t, map[string]string{
		storageServiceBean + "/TokenToEndpointMap": `{"200":"10.0.0.2","100":"10.0.0.1"}`,
		storageServiceBean + "/LiveNodes":          `["10.0.0.1","10.0.0.2"]`,
		storageServiceBean + "/UnreachableNodes":   `["10.0.0.3"]`,
		storageServiceBean + "/LoadMap":            `{"10.0.0.1":"1.2 GB","10.0.0.2":"800 MB"}`,
	})

	ring, err := p.Ring(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"100", "200"}, ring.Ranges)
	assert.Equal(t, "10.0.0.1", ring.RangeMap["100"])
	assert.Equal(t, []string{"10.0.0.1", "10.0.0.2"}, ring.LiveNodes)
	assert.Equal(t, []string{"10.0.0.3"}, ring.UnreachableNodes)
	assert.Equal(t, "1.2 GB", ring.LoadMap["10.0.0.1"])
}

func TestNodeInfo(t *testing.T) {
	p := bridgeFixture(t, map[string]string{
		storageServiceBean + "/LoadString":              `"1.2 GB"`,
		storageServiceBean + "/CurrentGenerationNumber": `1756100000`,
		runtimeBean + "/Uptime":                         `7265000`,
		memoryBean + "/HeapMemoryUsage":                 `{"used":536870912,"max":2147483648}`,
	})

	info, err := p.NodeInfo(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "1.2 GB", info.Load)
	assert.Equal(t, int64(1756100000), info.Generation)
	assert.Equal(t, int64(7265), info.UptimeSeconds)
	assert.Equal(t, 512.0, info.HeapUsedMB)
	assert.Equal(t, 2048.0, info.HeapMaxMB)
}

func TestThreadPoolStats(t *testing.T) {
	p := bridgeFixture(t, map[string]string{
		requestPoolPattern: `{
			"org.apache.cassandra.request:type=ReadStage":{"ActiveCount":1,"PendingTasks":4,"CompletedTasks":1000},
			"org.apache.cassandra.request:type=MutationStage":{"ActiveCount":2,"PendingTasks":0,"CompletedTasks":5000}
		}`,
		internalPoolPattern: `{
			"org.apache.cassandra.internal:type=FlushWriter":{"ActiveCount":0,"PendingTasks":1,"CompletedTasks":42}
		}`,
	})

	stats, err := p.ThreadPoolStats(context.Background())
	require.NoError(t, err)
	require.Len(t, stats, 3)

	// Pools come back sorted by stage name across both domains.
	assert.Equal(t, "FlushWriter", stats[0].PoolName)
	assert.Equal(t, "MutationStage", stats[1].PoolName)
	assert.Equal(t, "ReadStage", stats[2].PoolName)

	assert.Equal(t, int64(1), stats[2].ActiveCount)
	assert.Equal(t, int64(4), stats[2].PendingTasks)
	assert.Equal(t, int64(1000), stats[2].CompletedTasks)
}

func TestReadErrorStatus(t *testing.T) {
	p := bridgeFixture(t, map[string]string{})

	_, err := p.Ring(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "management endpoint")
}

func TestUnreachableEndpoint(t *testing.T) {
	p := New("127.0.0.1", 1, 100*time.Millisecond, zap.NewNop())
	_, err := p.Ring(context.Background())
	require.Error(t, err)
}

func TestPoolName(t *testing.T) {
	assert.Equal(t, "ReadStage", poolName("org.apache.cassandra.request:type=ReadStage"))
	assert.Equal(t, "GossipStage", poolName("org.apache.cassandra.internal:scope=x,type=GossipStage"))
	assert.Equal(t, "weird", poolName("weird"))
}
