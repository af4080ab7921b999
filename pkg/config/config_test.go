package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

const minimalYAML = `
environment: test
pipeline:
  assets:
    - So11111111111111111111111111111111111111112
birdeye:
  api_key: test-key
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	c, err := Load(writeConfig(t, minimalYAML))
	if err != nil {
		t.Fatal(err)
	}
	if c.Market.PriceChangeThreshold != 0.05 {
		t.Fatalf("price_change_threshold default = %v, want 0.05", c.Market.PriceChangeThreshold)
	}
	if c.Market.VolumeSurgeThreshold != 1.0 {
		t.Fatalf("volume_surge_threshold default = %v, want 1.0", c.Market.VolumeSurgeThreshold)
	}
	if c.Market.BaseConfidence != 0.5 || c.Market.PriceWeight != 0.3 || c.Market.VolumeWeight != 0.2 {
		t.Fatalf("confidence defaults wrong: %+v", c.Market)
	}
	if c.Execution.MinExecutionInterval != 5*time.Minute {
		t.Fatalf("min_execution_interval default = %v", c.Execution.MinExecutionInterval)
	}
	if c.Risk.Weights.Liquidity != 0.30 {
		t.Fatalf("risk weight default = %v", c.Risk.Weights.Liquidity)
	}
}

func TestLoadRejectsExcessiveWeights(t *testing.T) {
	_, err := Load(writeConfig(t, minimalYAML+`
market:
  price_weight: 0.7
  volume_weight: 0.5
`))
	if err == nil {
		t.Fatal("weights summing past 1.0 must fail validation")
	}
}

func TestLoadRejectsExcessiveRiskWeights(t *testing.T) {
	_, err := Load(writeConfig(t, minimalYAML+`
risk:
  weights:
    liquidity: 1.5
    volatility: 1.0
    market: 1.0
    technical: 0.5
    sentiment: 0.5
`))
	if err == nil {
		t.Fatal("risk weights summing past 1.0 must fail validation")
	}
}

func TestLoadRejectsNonPositiveThreshold(t *testing.T) {
	_, err := Load(writeConfig(t, minimalYAML+`
market:
  price_change_threshold: -0.01
`))
	if err == nil {
		t.Fatal("negative threshold must fail validation")
	}
}

func TestLoadRequiresAssetsAndKey(t *testing.T) {
	_, err := Load(writeConfig(t, "environment: test\n"))
	if err == nil {
		t.Fatal("empty assets must fail validation")
	}
}

func TestLoadWithEnvOverrides(t *testing.T) {
	t.Setenv("BIRDEYE_API_KEY", "env-key")
	t.Setenv("PRICE_CHANGE_THRESHOLD", "0.08")
	t.Setenv("ASSETS", "addr1,addr2")

	c, err := LoadWithEnv(writeConfig(t, minimalYAML))
	if err != nil {
		t.Fatal(err)
	}
	if c.Birdeye.APIKey != "env-key" {
		t.Fatalf("api key = %q, want env override", c.Birdeye.APIKey)
	}
	if c.Market.PriceChangeThreshold != 0.08 {
		t.Fatalf("threshold = %v, want 0.08", c.Market.PriceChangeThreshold)
	}
	if len(c.Pipeline.Assets) != 2 || c.Pipeline.Assets[1] != "addr2" {
		t.Fatalf("assets = %v", c.Pipeline.Assets)
	}
}

func TestLoadWithEnvRejectsMalformedFloat(t *testing.T) {
	t.Setenv("PRICE_CHANGE_THRESHOLD", "not-a-number")
	_, err := LoadWithEnv(writeConfig(t, minimalYAML))
	if err == nil {
		t.Fatal("malformed numeric override must fail")
	}
}

func TestLoadKafkaEnabledNeedsBrokers(t *testing.T) {
	_, err := Load(writeConfig(t, minimalYAML+`
kafka:
  enabled: true
`))
	if err == nil {
		t.Fatal("enabled kafka without brokers must fail validation")
	}
}
