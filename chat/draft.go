package chat

import (
	"fmt"
	"strings"

	"github.com/bytedance/sonic"
	jsonpatch "github.com/evanphx/json-patch/v5"

	"github.com/Timik232/Mts-json-generator/llm"
)

type operation struct {
	Op    string `json:"op"`
	Path  string `json:"path"`
	Value any    `json:"value,omitempty"`
}

// UpdateDraft writes collected parameters into the session's draft document
// as RFC6902 operations. Dotted field paths become JSON pointers; missing
// parent objects are created, existing leaves are replaced rather than added.
// An empty current draft starts from "{}".
func UpdateDraft(current string, params []llm.MentionedParam) (string, error) {
	if len(params) == 0 {
		return current, nil
	}
	if strings.TrimSpace(current) == "" {
		current = "{}"
	}

	var doc any
	if err := sonic.UnmarshalString(current, &doc); err != nil {
		return "", fmt.Errorf("parse draft document: %w", err)
	}

	ops := draftOps(doc, params)
	patchJSON, err := sonic.Marshal(ops)
	if err != nil {
		return "", fmt.Errorf("marshal draft operations: %w", err)
	}
	patch, err := jsonpatch.DecodePatch(patchJSON)
	if err != nil {
		return "", fmt.Errorf("decode draft patch: %w", err)
	}
	updated, err := patch.Apply([]byte(current))
	if err != nil {
		return "", fmt.Errorf("apply draft patch: %w", err)
	}
	return string(updated), nil
}

// draftOps turns parameter writes into guarded operations: add when the
// pointer does not exist yet, replace when it does. Parents created by an
// earlier operation in the same batch count as existing.
func draftOps(doc any, params []llm.MentionedParam) []operation {
	created := make(map[string]bool)
	ops := make([]operation, 0, len(params))

	for _, param := range params {
		if param.Path == "" {
			continue
		}
		segments := strings.Split(param.Path, ".")

		pointer := ""
		for _, seg := range segments[:len(segments)-1] {
			pointer += "/" + escapePointerToken(seg)
			if created[pointer] || pointerExists(doc, pointer) {
				continue
			}
			ops = append(ops, operation{Op: "add", Path: pointer, Value: map[string]any{}})
			created[pointer] = true
		}

		leaf := pointer + "/" + escapePointerToken(segments[len(segments)-1])
		op := "add"
		if !created[leaf] && pointerExists(doc, leaf) {
			op = "replace"
		}
		ops = append(ops, operation{Op: op, Path: leaf, Value: param.Value})
		created[leaf] = true
	}
	return ops
}

func pointerExists(doc any, pointer string) bool {
	cur := doc
	for _, token := range strings.Split(pointer[1:], "/") {
		token = strings.ReplaceAll(token, "~1", "/")
		token = strings.ReplaceAll(token, "~0", "~")
		node, ok := cur.(map[string]any)
		if !ok {
			return false
		}
		value, ok := node[token]
		if !ok {
			return false
		}
		cur = value
	}
	return true
}

func escapePointerToken(token string) string {
	token = strings.ReplaceAll(token, "~", "~0")
	return strings.ReplaceAll(token, "/", "~1")
}
