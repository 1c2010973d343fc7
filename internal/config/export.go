package config

import (
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// Dump 输出合并默认值后的有效配置，供 -print-config 排查用。
// 结构体只有 toml tag，直接 yaml.Marshal 会把字段名小写拼成非法键，
// 先经 mapstructure 还原成配置文件视角的 map 再序列化。
// api_key 会被脱敏。
func Dump(c *Config) (string, error) {
	clone := *c
	if clone.Narrative.LLM.APIKey != "" {
		clone.Narrative.LLM.APIKey = "***"
	}
	var tree map[string]any
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName: "toml",
		Result:  &tree,
	})
	if err != nil {
		return "", err
	}
	if err := dec.Decode(&clone); err != nil {
		return "", err
	}
	out, err := yaml.Marshal(tree)
	if err != nil {
		return "", err
	}
	return string(out), nil
}
