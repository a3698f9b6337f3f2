package core

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"
)

func TestPrepareProps(t *testing.T) {
	t.Run("strips collections", func(t *testing.T) {
		props := map[string]any{
			"name": "World",
			"collections": map[string]any{
				"all": []any{map[string]any{"url": "/a/"}},
			},
		}

		got, err := PrepareProps(props, PropsPolicy{Exclude: DefaultExcludedProps})
		if err != nil {
			t.Fatalf("PrepareProps failed: %v", err)
		}

		if strings.Contains(string(got.JSON), "collections") {
			t.Errorf("Expected collections to be stripped, got %s", got.JSON)
		}
		if string(got.JSON) != `{"name":"World"}` {
			t.Errorf("Expected {\"name\":\"World\"}, got %s", got.JSON)
		}
		if _, ok := props["collections"]; !ok {
			t.Error("Expected input props to be left untouched")
		}
	})

	t.Run("custom exclusion list", func(t *testing.T) {
		props := map[string]any{"a": 1, "b": 2, "collections": 3}

		got, err := PrepareProps(props, PropsPolicy{Exclude: []string{"a", "b"}})
		if err != nil {
			t.Fatalf("PrepareProps failed: %v", err)
		}
		if string(got.JSON) != `{"collections":3}` {
			t.Errorf("Expected only collections to remain, got %s", got.JSON)
		}
	})

	t.Run("json safe values round trip", func(t *testing.T) {
		props := map[string]any{
			"title": "Post",
			"count": float64(3),
			"draft": false,
			"tags":  []any{"go", "mdx"},
			"author": map[string]any{
				"name":  "Ana",
				"links": []any{map[string]any{"href": "https://example.com"}},
			},
			"missing": nil,
		}

		got, err := PrepareProps(props, PropsPolicy{})
		if err != nil {
			t.Fatalf("PrepareProps failed: %v", err)
		}

		var decoded map[string]any
		if err := json.Unmarshal(got.JSON, &decoded); err != nil {
			t.Fatalf("Embedded props are not valid JSON: %v", err)
		}
		if !reflect.DeepEqual(decoded, props) {
			t.Errorf("Round trip mismatch:\n got %#v\nwant %#v", decoded, props)
		}
	})

	t.Run("nil props", func(t *testing.T) {
		got, err := PrepareProps(nil, PropsPolicy{Exclude: DefaultExcludedProps})
		if err != nil {
			t.Fatalf("PrepareProps failed: %v", err)
		}
		if string(got.JSON) != "{}" {
			t.Errorf("Expected {}, got %s", got.JSON)
		}
	})

	t.Run("html sensitive characters are escaped", func(t *testing.T) {
		got, err := PrepareProps(map[string]any{"html": "</script>&"}, PropsPolicy{})
		if err != nil {
			t.Fatalf("PrepareProps failed: %v", err)
		}
		if strings.Contains(string(got.JSON), "</script>") {
			t.Errorf("Expected script close to be escaped, got %s", got.JSON)
		}
	})
}

func TestPreparePropsUnserializable(t *testing.T) {
	props := map[string]any{
		"name":     "World",
		"onClick":  func() {},
		"messages": make(chan string),
	}

	t.Run("fail policy", func(t *testing.T) {
		_, err := PrepareProps(props, PropsPolicy{Unserializable: PropsFail})
		if err == nil {
			t.Fatal("Expected error, got nil")
		}
		if StageOf(err) != StageProps {
			t.Errorf("Expected stage %q, got %q", StageProps, StageOf(err))
		}
	})

	t.Run("drop policy", func(t *testing.T) {
		got, err := PrepareProps(props, PropsPolicy{Unserializable: PropsDrop})
		if err != nil {
			t.Fatalf("PrepareProps failed: %v", err)
		}
		if string(got.JSON) != `{"name":"World"}` {
			t.Errorf("Expected {\"name\":\"World\"}, got %s", got.JSON)
		}
		if !reflect.DeepEqual(got.Dropped, []string{"messages", "onClick"}) {
			t.Errorf("Expected dropped [messages onClick], got %v", got.Dropped)
		}
		if _, ok := props["onClick"]; !ok {
			t.Error("Expected input props to be left untouched")
		}
	})
}
