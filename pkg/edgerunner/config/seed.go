package config

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadSeed walks dir for *.yml/*.yaml files and applies every top-level
// key/value pair found to s via Set, in sorted file-path order. This
// is the Go-native analogue of the teacher's directory-of-YAML
// configuration trees (pkg/snmpcollector/config/loader.go's
// yamlFiles/decodeFile pair): an operator who prefers hand-editing a
// directory of small YAML files over one JSON document can seed the
// store this way before Start, while Store.Save/Load still round-trip
// through the JSON document spec §6 requires.
//
// A missing directory is not an error (mirrors yamlFiles' os.IsNotExist
// handling in the teacher). A malformed file is logged and skipped so
// one bad file doesn't block the rest, matching loadDevices et al.
func LoadSeed(s *Store, dir string, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(noopWriter{}, nil))
	}

	files, err := yamlFiles(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("config: list seed dir %q: %w", dir, err)
	}

	for _, path := range files {
		raw := make(map[string]interface{})
		if err := decodeYAMLFile(path, &raw); err != nil {
			logger.Warn("config: skip malformed seed file", "file", path, "error", err.Error())
			continue
		}
		for key, v := range raw {
			val, err := yamlToValue(v)
			if err != nil {
				logger.Warn("config: skip unrepresentable seed value", "file", path, "key", key, "error", err.Error())
				continue
			}
			s.Set(key, val)
		}
		logger.Debug("config: loaded seed file", "file", path, "count", len(raw))
	}
	return nil
}

// yamlToValue converts a yaml.v3-decoded interface{} tree (Go native
// bool/int/float64/string/map[string]interface{}/[]interface{}) into a
// Value, applying the same tuple-wrapper convention value.go's JSON
// codec uses so a key seeded from YAML as {__tuple__: [...]} still
// round-trips through Store.Save as a Tuple.
func yamlToValue(raw interface{}) (Value, error) {
	switch x := raw.(type) {
	case nil:
		return Value{}, fmt.Errorf("config: null is not a valid config value")
	case bool:
		return Bool(x), nil
	case int:
		return Int(int64(x)), nil
	case int64:
		return Int(x), nil
	case float64:
		return Float(x), nil
	case string:
		return String(x), nil
	case []interface{}:
		items := make([]Value, len(x))
		for i, it := range x {
			v, err := yamlToValue(it)
			if err != nil {
				return Value{}, err
			}
			items[i] = v
		}
		return List(items...), nil
	case map[string]interface{}:
		if tup, ok := x[tupleMarker]; ok {
			arr, ok := tup.([]interface{})
			if !ok {
				return Value{}, fmt.Errorf("config: %s marker must wrap a sequence", tupleMarker)
			}
			items := make([]Value, len(arr))
			for i, it := range arr {
				v, err := yamlToValue(it)
				if err != nil {
					return Value{}, err
				}
				items[i] = v
			}
			return Tuple(items...), nil
		}
		return Value{}, fmt.Errorf("config: mappings are not part of the config value universe")
	default:
		return Value{}, fmt.Errorf("config: unsupported YAML value type %T", raw)
	}
}

func yamlFiles(dir string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(p))
		if ext == ".yml" || ext == ".yaml" {
			paths = append(paths, p)
		}
		return nil
	})
	return paths, err
}

func decodeYAMLFile(path string, out interface{}) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	dec := yaml.NewDecoder(f)
	return dec.Decode(out)
}
