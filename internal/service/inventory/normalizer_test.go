package inventory

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	invmodel "neoinventory/internal/model/inventory"
	"neoinventory/internal/model/system"
)

// TestNormalize_FullRecord 完整记录的规范化
func TestNormalize_FullRecord(t *testing.T) {
	n := NewNormalizer()

	raw := map[string]interface{}{
		"hostname":       "  WEB-SERVER-01  ",
		"ip_address":     "10.0.0.15",
		"mac_address":    "AA-BB-CC-DD-EE-FF",
		"os":             "Ubuntu",
		"os_version":     "22.04",
		"asset_category": "Server",
		"external_id":    "cmdb-1001",
		"risk_score":     float64(42),
		"tags":           []interface{}{"Prod", "web", "prod", " "},
		"owner":          "infra-team",
		"rack_unit":      "U17",
	}

	item, err := n.Normalize(raw, "tenant-a", "cmdb")
	require.NoError(t, err)

	assert.Equal(t, "tenant-a", item.TenantID)
	assert.Equal(t, "cmdb", item.Source)
	assert.Equal(t, "cmdb-1001", item.ExternalID)
	assert.Equal(t, "WEB-SERVER-01", item.Hostname)
	assert.Equal(t, "10.0.0.15", item.IPAddress)
	assert.Equal(t, "aa:bb:cc:dd:ee:ff", item.MACAddress)
	assert.Equal(t, "server", item.AssetCategory)
	assert.Equal(t, 42, item.RiskScore)
	assert.Equal(t, invmodel.ItemStatusPending, item.Status)

	// 标签小写去重排序
	var tags []string
	require.NoError(t, json.Unmarshal([]byte(item.Tags), &tags))
	assert.Equal(t, []string{"prod", "web"}, tags)

	// 未识别的键折叠进metadata
	var metadata map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(item.Metadata), &metadata))
	assert.Equal(t, "U17", metadata["rack_unit"])
}

// TestNormalize_MissingIdentity 缺少全部标识字段时拒绝
func TestNormalize_MissingIdentity(t *testing.T) {
	n := NewNormalizer()

	_, err := n.Normalize(map[string]interface{}{
		"os":    "Windows",
		"owner": "nobody",
	}, "tenant-a", "cmdb")

	require.Error(t, err)
	assert.True(t, system.IsValidationError(err))
}

// TestNormalize_SingleIdentityEnough 任一标识字段存在即可
func TestNormalize_SingleIdentityEnough(t *testing.T) {
	n := NewNormalizer()

	for _, raw := range []map[string]interface{}{
		{"hostname": "h1"},
		{"ip_address": "192.168.1.1"},
		{"external_id": "x-1"},
	} {
		item, err := n.Normalize(raw, "tenant-a", "src")
		require.NoError(t, err)
		assert.Equal(t, invmodel.ItemStatusPending, item.Status)
	}
}

// TestNormalize_CategoryFallback 类目字段的回退链
func TestNormalize_CategoryFallback(t *testing.T) {
	n := NewNormalizer()

	// asset_type 老字段兼容
	item, err := n.Normalize(map[string]interface{}{
		"hostname":   "h1",
		"asset_type": "Laptop",
	}, "t", "s")
	require.NoError(t, err)
	assert.Equal(t, "laptop", item.AssetCategory)

	// 两者都缺省时为unknown
	item, err = n.Normalize(map[string]interface{}{"hostname": "h2"}, "t", "s")
	require.NoError(t, err)
	assert.Equal(t, "unknown", item.AssetCategory)
}

// TestNormalize_RiskScoreClamp 风险评分夹在[0,100]
func TestNormalize_RiskScoreClamp(t *testing.T) {
	n := NewNormalizer()

	tests := []struct {
		input interface{}
		want  int
	}{
		{float64(150), 100},
		{float64(-5), 0},
		{"77", 77},
		{"not-a-number", 0},
		{nil, 0},
	}

	for _, tt := range tests {
		item, err := n.Normalize(map[string]interface{}{
			"hostname":   "h1",
			"risk_score": tt.input,
		}, "t", "s")
		require.NoError(t, err)
		assert.Equal(t, tt.want, item.RiskScore, "risk_score=%v", tt.input)
	}
}

// TestNormalize_Deterministic 同样的输入产生同样的输出(时间戳除外)
func TestNormalize_Deterministic(t *testing.T) {
	n := NewNormalizer()

	raw := map[string]interface{}{
		"hostname": "h1",
		"tags":     "b,a,c",
		"metadata": map[string]interface{}{"env": "prod"},
	}

	a, err := n.Normalize(raw, "t", "s")
	require.NoError(t, err)
	b, err := n.Normalize(raw, "t", "s")
	require.NoError(t, err)

	assert.Equal(t, a.Tags, b.Tags)
	assert.Equal(t, a.Metadata, b.Metadata)
	assert.Equal(t, a.Hostname, b.Hostname)
}
