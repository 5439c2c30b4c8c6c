package config_test

import (
	"encoding/json"
	"testing"

	"github.com/vpbank/edgerunner/pkg/edgerunner/config"
)

func TestValueJSONRoundTrip(t *testing.T) {
	cases := []config.Value{
		config.Bool(true),
		config.Int(42),
		config.Float(3.5),
		config.String("hello"),
		config.List(config.Int(1), config.Int(2), config.Int(3)),
		config.Tuple(config.Int(1), config.String("two")),
		config.List(config.Tuple(config.Int(1), config.Int(2)), config.Tuple(config.Int(3), config.Int(4))),
	}

	for _, in := range cases {
		data, err := json.Marshal(in)
		if err != nil {
			t.Fatalf("marshal %v: %v", in, err)
		}
		var out config.Value
		if err := json.Unmarshal(data, &out); err != nil {
			t.Fatalf("unmarshal %s: %v", data, err)
		}
		if !config.Equal(in, out) {
			t.Errorf("round trip mismatch: in=%v out=%v (json=%s)", in, out, data)
		}
	}
}

func TestValueTupleVsListShape(t *testing.T) {
	list := config.List(config.Int(1), config.Int(2))
	tuple := config.Tuple(config.Int(1), config.Int(2))

	listJSON, _ := json.Marshal(list)
	tupleJSON, _ := json.Marshal(tuple)

	if string(listJSON) != "[1,2]" {
		t.Errorf("list should marshal as a plain array, got %s", listJSON)
	}
	if string(tupleJSON) == string(listJSON) {
		t.Errorf("tuple and list must not share an encoding: both produced %s", tupleJSON)
	}

	var back config.Value
	if err := json.Unmarshal(tupleJSON, &back); err != nil {
		t.Fatalf("unmarshal tuple: %v", err)
	}
	if back.Kind() != config.KindTuple {
		t.Errorf("expected KindTuple after round trip, got %v", back.Kind())
	}
}

func TestValueIntFloatDisambiguation(t *testing.T) {
	var intVal, floatVal config.Value
	if err := json.Unmarshal([]byte("7"), &intVal); err != nil {
		t.Fatal(err)
	}
	if err := json.Unmarshal([]byte("7.0"), &floatVal); err != nil {
		t.Fatal(err)
	}
	if intVal.Kind() != config.KindInt {
		t.Errorf("expected KindInt for 7, got %v", intVal.Kind())
	}
	if floatVal.Kind() != config.KindFloat {
		t.Errorf("expected KindFloat for 7.0, got %v", floatVal.Kind())
	}
}
