package strategyconfig

import (
	"bytes"
	"crypto/sha256"
	_ "embed"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	_ "time/tzdata" // Asia/Shanghai on hosts without zoneinfo

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultYAML []byte

// Default returns the built-in strategy
// ⭐ SSOT: 内置策略来自 default.yaml
func Default() *Config {
	cfg, err := Parse(defaultYAML, nil)
	if err != nil {
		panic(fmt.Sprintf("embedded strategy is invalid: %v", err))
	}
	return cfg
}

// DefaultYAML returns a copy of the embedded strategy document
func DefaultYAML() []byte {
	return append([]byte(nil), defaultYAML...)
}

// Load reads a YAML file and overlays it on the built-in strategy.
// Fields absent from the file keep their default values.
func Load(path string) (*Config, []byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read strategy file: %w", err)
	}

	cfg, err := Parse(data, Default())
	if err != nil {
		return nil, data, err
	}
	return cfg, data, nil
}

// Parse decodes data onto base (or an empty Config when base is nil) and validates the result.
// KnownFields(true) 使拼写错误的字段立即失败
func Parse(data []byte, base *Config) (*Config, error) {
	cfg := &Config{}
	if base != nil {
		cfg = base
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("decode strategy: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Hash generates SHA256 hash from Config (canonical JSON)
// 注意: 只用 struct 不用 map，保证哈希可复现
func Hash(cfg *Config) (string, error) {
	jsonBytes, err := json.Marshal(cfg)
	if err != nil {
		return "", err
	}

	sum := sha256.Sum256(jsonBytes)
	return hex.EncodeToString(sum[:]), nil
}
