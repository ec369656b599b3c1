package rest

import (
	"reflect"
	"testing"
)

func TestJSONPath(t *testing.T) {
	doc := map[string]any{
		"a": map[string]any{
			"b": []any{10.0, map[string]any{"c": 42.0}},
		},
		"n": nil,
	}

	tests := []struct {
		name   string
		path   string
		want   any
		wantOK bool
	}{
		{name: "array index", path: "$.a.b[0]", want: 10.0, wantOK: true},
		{name: "nested after index", path: "$.a.b[1].c", want: 42.0, wantOK: true},
		{name: "bare dollar prefix", path: "$a.b[0]", want: 10.0, wantOK: true},
		{name: "no prefix", path: "a.b[1].c", want: 42.0, wantOK: true},
		{name: "missing key", path: "$.x.y", wantOK: false},
		{name: "index out of range", path: "$.a.b[5]", wantOK: false},
		{name: "index on map", path: "$.a[0]", wantOK: false},
		{name: "key on list", path: "$.a.b.c", wantOK: false},
		{name: "null value", path: "$.n", wantOK: false},
		{name: "bad index", path: "$.a.b[x]", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := JSONPath(tt.path, doc)
			if ok != tt.wantOK {
				t.Fatalf("JSONPath(%q) ok = %v, want %v", tt.path, ok, tt.wantOK)
			}
			if ok && !reflect.DeepEqual(got, tt.want) {
				t.Errorf("JSONPath(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}

func TestCast(t *testing.T) {
	tests := []struct {
		name  string
		value any
		typ   string
		want  any
	}{
		{name: "numeric string", value: "21.5", typ: TypeNumber, want: 21.5},
		{name: "float", value: 3.0, typ: TypeNumber, want: 3.0},
		{name: "int", value: 7, typ: TypeNumber, want: 7.0},
		{name: "non-numeric string", value: "warm", typ: TypeNumber, want: nil},
		{name: "nil number", value: nil, typ: TypeNumber, want: nil},
		{name: "nil string", value: nil, typ: TypeString, want: ""},
		{name: "float string", value: 21.5, typ: TypeString, want: "21.5"},
		{name: "bool passthrough", value: false, typ: TypeBool, want: false},
		{name: "true string", value: "true", typ: TypeBool, want: true},
		{name: "YES string", value: "YES", typ: TypeBool, want: true},
		{name: "zero string", value: "0", typ: TypeBool, want: false},
		{name: "one number", value: 1.0, typ: TypeBool, want: true},
		{name: "unrecognised bool", value: "maybe", typ: TypeBool, want: nil},
		{name: "list ok", value: []any{1.0}, typ: TypeList, want: []any{1.0}},
		{name: "list wrong shape", value: "x", typ: TypeList, want: nil},
		{name: "dict ok", value: map[string]any{"k": "v"}, typ: TypeDict, want: map[string]any{"k": "v"}},
		{name: "dict wrong shape", value: []any{}, typ: TypeDict, want: nil},
		{name: "no type", value: "raw", typ: "", want: "raw"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Cast(tt.value, tt.typ)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Cast(%v, %q) = %#v, want %#v", tt.value, tt.typ, got, tt.want)
			}
		})
	}
}

func TestMapFields(t *testing.T) {
	payload := map[string]any{
		"current": map[string]any{"temperature": "21.5", "ok": "true"},
	}
	src := Source{
		Name: "Weather",
		Mappings: []Mapping{
			{Name: "temp", Path: "$.current.temperature", Type: TypeNumber},
			{Name: "flag", Path: "$.current.ok", Type: TypeBool},
			{Name: "missing", Path: "$.current.missing", Type: TypeString},
			{Name: "gone", Path: "$.current.gone"},
		},
	}

	got := MapFields(src, payload)

	if got["temp"] != 21.5 {
		t.Errorf("temp = %v, want 21.5", got["temp"])
	}
	if got["flag"] != true {
		t.Errorf("flag = %v, want true", got["flag"])
	}
	if got["missing"] != "" {
		t.Errorf("missing = %#v, want empty string", got["missing"])
	}
	if v, ok := got["gone"]; !ok || v != nil {
		t.Errorf("gone = %#v (present %v), want nil entry", v, ok)
	}
}
