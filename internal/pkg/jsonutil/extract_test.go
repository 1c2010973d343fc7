package jsonutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractObjectFromFence(t *testing.T) {
	raw := "分析如下：\n```json\n{\"summary\": \"看多\"}\n```\n完毕"
	obj, ok := ExtractObject(raw)
	assert.True(t, ok)
	assert.JSONEq(t, `{"summary": "看多"}`, obj)
}

func TestExtractObjectBareBraces(t *testing.T) {
	raw := `前缀 {"a": {"b": 1}} 后缀`
	obj, ok := ExtractObject(raw)
	assert.True(t, ok)
	assert.JSONEq(t, `{"a": {"b": 1}}`, obj)
}

func TestExtractObjectIgnoresBracesInStrings(t *testing.T) {
	raw := `{"text": "含 } 的字符串", "n": 1}`
	obj, ok := ExtractObject(raw)
	assert.True(t, ok)
	assert.JSONEq(t, raw, obj)
}

func TestExtractObjectEscapedQuote(t *testing.T) {
	raw := `{"text": "引号 \" 里有 }", "ok": true}`
	obj, ok := ExtractObject(raw)
	assert.True(t, ok)
	assert.JSONEq(t, raw, obj)
}

func TestExtractObjectNone(t *testing.T) {
	_, ok := ExtractObject("没有任何 JSON")
	assert.False(t, ok)

	_, ok = ExtractObject("")
	assert.False(t, ok)

	// 不配对的括号
	_, ok = ExtractObject(`{"a": 1`)
	assert.False(t, ok)
}
