package jsonpathrule

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/PaesslerAG/jsonpath"

	"github.com/llmproxy/dialect-proxy/internal/core/domain"
	"github.com/llmproxy/dialect-proxy/internal/logger"
)

// Rewriter applies ADD/REMOVE JSONPath operations to a decoded JSON
// document: decode once, apply every op in order against the same
// in-memory document, re-encode.
// Each op that fails to resolve (no such path, wrong container type) is
// logged and skipped rather than aborting the whole rewrite, mirroring
// Configuration.defaultConfiguration().addOptions(Option.SUPPRESS_EXCEPTIONS)
// on the Java side.
//
// github.com/PaesslerAG/jsonpath only reads a document; it can't mutate one,
// so it's used here purely to check whether a path resolves to anything
// before REMOVE walks it directly. ADD and the actual mutation always walk
// the path's own segments by hand, which is why the path language a REMOVE
// can exist-check is kept to exactly what that hand-written walker
// understands (plain fields, numeric indices, and "*" wildcards on either) -
// parsePath rejects filter expressions outright so exists() and the walker
// never disagree about what a path matches.
type Rewriter struct {
	log *logger.StyledLogger
}

func New(log *logger.StyledLogger) *Rewriter {
	return &Rewriter{log: log}
}

// RewriteJSONPath decodes body, applies every op in order, and re-encodes.
// If body doesn't decode as a JSON object, it is returned unchanged.
func (r *Rewriter) RewriteJSONPath(body []byte, ops []domain.JSONPathOp) ([]byte, error) {
	if len(ops) == 0 {
		return body, nil
	}

	var doc map[string]any
	if err := json.Unmarshal(body, &doc); err != nil {
		return body, fmt.Errorf("decoding body for json-path rewrite: %w", err)
	}

	for _, op := range ops {
		segs, err := parsePath(op.Path)
		if err != nil {
			r.log.Warn("skipping json-path op with unparseable path", "path", op.Path, "error", err)
			continue
		}

		switch op.Op {
		case domain.JSONPathOpAdd:
			if err := addAt(doc, segs, op.Value); err != nil {
				r.log.Warn("skipping json-path ADD", "path", op.Path, "error", err)
			}
		case domain.JSONPathOpRemove:
			if !r.exists(doc, op.Path) {
				continue
			}
			if err := removeAt(doc, segs); err != nil {
				r.log.Warn("skipping json-path REMOVE", "path", op.Path, "error", err)
			}
		default:
			r.log.Warn("skipping json-path op with unknown type", "op", op.Op)
		}
	}

	return json.Marshal(doc)
}

func (r *Rewriter) exists(doc map[string]any, path string) bool {
	_, err := jsonpath.Get(normaliseJSONPath(path), doc)
	return err == nil
}

// normaliseJSONPath prefixes a bare "field.sub" path with "$." so the
// PaesslerAG evaluator, which expects a rooted JSONPath expression, accepts
// it the same way the config file's bare dotted paths are written.
func normaliseJSONPath(path string) string {
	if strings.HasPrefix(path, "$") {
		return path
	}
	return "$." + path
}

type segment struct {
	field      string
	index      int
	isIdx      bool
	isWildcard bool
}

// parsePath splits a dotted/bracketed JSONPath-ish expression ("$.a.b[0].c"
// or "a.b[0].c") into walkable segments. A bare "*" field or a "[*]" index
// becomes a wildcard segment, matched against every key or element at that
// position. Filter expressions ("[?(...)]") aren't walkable by hand and are
// rejected here with a clear error rather than silently misparsed as an
// index.
func parsePath(path string) ([]segment, error) {
	p := strings.TrimPrefix(path, "$")
	p = strings.TrimPrefix(p, ".")
	if p == "" {
		return nil, fmt.Errorf("empty path")
	}

	var segs []segment
	for _, part := range strings.Split(p, ".") {
		if part == "" {
			continue
		}
		name := part
		for {
			open := strings.IndexByte(name, '[')
			if open < 0 {
				switch name {
				case "":
				case "*":
					segs = append(segs, segment{isWildcard: true})
				default:
					segs = append(segs, segment{field: name})
				}
				break
			}
			if open > 0 {
				head := name[:open]
				if head == "*" {
					segs = append(segs, segment{isWildcard: true})
				} else {
					segs = append(segs, segment{field: head})
				}
			}
			closeIdx := strings.IndexByte(name[open:], ']')
			if closeIdx < 0 {
				return nil, fmt.Errorf("unterminated index in %q", part)
			}
			idxStr := name[open+1 : open+closeIdx]
			if idxStr == "*" {
				segs = append(segs, segment{isIdx: true, isWildcard: true})
			} else {
				idx, err := strconv.Atoi(idxStr)
				if err != nil {
					return nil, fmt.Errorf("unsupported index expression %q (filter expressions are not supported)", idxStr)
				}
				segs = append(segs, segment{index: idx, isIdx: true})
			}
			name = name[open+closeIdx+1:]
		}
	}

	if len(segs) == 0 {
		return nil, fmt.Errorf("path %q has no segments", path)
	}
	return segs, nil
}

// addAt sets value at the path described by segs, creating intermediate
// map[string]any containers as needed. Intermediate array indices must
// already exist; ADD never grows an array.
func addAt(doc map[string]any, segs []segment, value any) error {
	cur := any(doc)
	for i, seg := range segs {
		last := i == len(segs)-1

		if seg.isWildcard {
			return fmt.Errorf("ADD does not support wildcard path segments")
		}

		if seg.isIdx {
			arr, ok := cur.([]any)
			if !ok {
				return fmt.Errorf("expected array at segment %d", i)
			}
			if seg.index < 0 || seg.index >= len(arr) {
				return fmt.Errorf("index %d out of range", seg.index)
			}
			if last {
				arr[seg.index] = value
				return nil
			}
			cur = arr[seg.index]
			continue
		}

		m, ok := cur.(map[string]any)
		if !ok {
			return fmt.Errorf("expected object at segment %d", i)
		}
		if last {
			m[seg.field] = value
			return nil
		}
		next, exists := m[seg.field]
		if !exists || next == nil {
			next = map[string]any{}
			m[seg.field] = next
		}
		cur = next
	}
	return nil
}

// removeAt deletes every node segs resolves to. A concrete segment narrows
// to a single child; a wildcard segment fans out to every key or element at
// that position and keeps resolving any remaining segments under each one,
// so a wildcard REMOVE deletes every matched node rather than just the
// first. Array elements are deleted by rewriting the array to omit them
// (shifting subsequent elements down), since JSON arrays have no notion of
// a hole; that rewritten array is pushed back into its own parent slot via
// set.
func removeAt(doc map[string]any, segs []segment) error {
	count, err := removeSegment(doc, segs, nil)
	if err != nil {
		return err
	}
	if count == 0 {
		return fmt.Errorf("path did not resolve to any node")
	}
	return nil
}

func removeSegment(cur any, segs []segment, set func(any)) (int, error) {
	seg := segs[0]
	rest := segs[1:]
	last := len(rest) == 0

	if seg.isIdx {
		arr, ok := cur.([]any)
		if !ok {
			return 0, fmt.Errorf("expected array, got %T", cur)
		}

		if seg.isWildcard {
			if last {
				if len(arr) == 0 || set == nil {
					return 0, nil
				}
				set([]any{})
				return len(arr), nil
			}
			count := 0
			for i := range arr {
				idx := i
				n, err := removeSegment(arr[idx], rest, func(v any) { arr[idx] = v })
				if err != nil {
					continue
				}
				count += n
			}
			return count, nil
		}

		if seg.index < 0 || seg.index >= len(arr) {
			return 0, fmt.Errorf("index %d out of range", seg.index)
		}
		if last {
			if set == nil {
				return 0, fmt.Errorf("removing a bare array index at the document root is not supported")
			}
			shrunk := make([]any, 0, len(arr)-1)
			shrunk = append(shrunk, arr[:seg.index]...)
			shrunk = append(shrunk, arr[seg.index+1:]...)
			set(shrunk)
			return 1, nil
		}
		return removeSegment(arr[seg.index], rest, func(v any) { arr[seg.index] = v })
	}

	m, ok := cur.(map[string]any)
	if !ok {
		return 0, fmt.Errorf("expected object, got %T", cur)
	}

	if seg.isWildcard {
		count := 0
		for k := range m {
			if last {
				delete(m, k)
				count++
				continue
			}
			key := k
			n, err := removeSegment(m[key], rest, func(v any) { m[key] = v })
			if err != nil {
				continue
			}
			count += n
		}
		return count, nil
	}

	child, exists := m[seg.field]
	if last {
		if !exists {
			return 0, nil
		}
		delete(m, seg.field)
		return 1, nil
	}
	if !exists {
		return 0, fmt.Errorf("path segment %q not found", seg.field)
	}
	return removeSegment(child, rest, func(v any) { m[seg.field] = v })
}
