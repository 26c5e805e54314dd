package tools

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// AddTool registers a tool after checking its output type with
// CheckOutputSchema. It panics on a bad output type so that the mistake shows
// up when the server starts instead of on the first call.
func AddTool[In, Out any](srv *sdkmcp.Server, t *sdkmcp.Tool, h sdkmcp.ToolHandlerFor[In, Out]) {
	CheckOutputSchema[Out](t.Name)
	sdkmcp.AddTool(srv, t, h)
}

// CheckOutputSchema panics when T cannot round-trip through the output schema
// the SDK infers for it.
//
// Two shapes are rejected. A slice or map field without omitzero or
// omitempty encodes as null in the zero value (a lookup that returned no
// results, say), which the inferred "array"/"object" type refuses.
// A json.RawMessage field anywhere in T is inferred as an array of bytes
// while it encodes as arbitrary JSON.
//
// The untyped "any" output is accepted as is.
func CheckOutputSchema[T any](toolName string) {
	if err := outputSchemaProblem(reflect.TypeFor[T]()); err != nil {
		panic(fmt.Sprintf("AddTool %q: %v", toolName, err))
	}
}

func outputSchemaProblem(rt reflect.Type) error {
	if rt == reflect.TypeFor[any]() {
		return nil
	}
	for rt.Kind() == reflect.Pointer {
		rt = rt.Elem()
	}

	if paths := rawJSONPaths(rt); len(paths) > 0 {
		return fmt.Errorf("output type %s has json.RawMessage at %s; "+
			"declare the field as any and fill it with types.ToAny",
			rt, strings.Join(paths, ", "))
	}

	// Inference or resolution failures are reported by the SDK itself.
	schema, err := jsonschema.ForType(rt, &jsonschema.ForOptions{})
	if err != nil {
		return nil
	}
	resolved, err := schema.Resolve(&jsonschema.ResolveOptions{})
	if err != nil {
		return nil
	}

	data, err := json.Marshal(reflect.Zero(rt).Interface())
	if err != nil {
		return nil
	}
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil
	}
	if err := resolved.Validate(&doc); err != nil {
		return fmt.Errorf("zero value of %s encodes as %s, which fails its schema: %w; "+
			"tag slice and map fields with omitzero", rt, data, err)
	}
	return nil
}

var rawMessageType = reflect.TypeFor[json.RawMessage]()

// rawJSONPaths lists the dotted paths of every json.RawMessage reachable from
// t. Slice elements show up as "[]" and map values as "[value]".
func rawJSONPaths(t reflect.Type) []string {
	type node struct {
		t    reflect.Type
		path string
	}

	var found []string
	seen := make(map[reflect.Type]bool)
	queue := []node{{t: t}}
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]

		ft := n.t
		for ft.Kind() == reflect.Pointer {
			ft = ft.Elem()
		}
		if ft == rawMessageType {
			found = append(found, n.path)
			continue
		}
		if seen[ft] {
			continue
		}
		seen[ft] = true

		switch ft.Kind() {
		case reflect.Struct:
			for i := range ft.NumField() {
				if f := ft.Field(i); f.IsExported() {
					queue = append(queue, node{t: f.Type, path: join(n.path, f.Name)})
				}
			}
		case reflect.Slice, reflect.Array:
			queue = append(queue, node{t: ft.Elem(), path: join(n.path, "[]")})
		case reflect.Map:
			queue = append(queue, node{t: ft.Elem(), path: join(n.path, "[value]")})
		}
	}
	return found
}

func join(path, name string) string {
	if path == "" {
		return name
	}
	return path + "." + name
}
