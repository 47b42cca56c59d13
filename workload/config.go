// Package workload reads and writes the files that describe networks and
// their traffic.
package workload

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sarchlab/noclat/estimator"
	"gopkg.in/yaml.v3"
)

func useYAML(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return ext == ".yaml" || ext == ".yml"
}

func decode(filename string, dict []byte, v any) error {
	var err error
	if useYAML(filename) {
		err = yaml.Unmarshal(dict, v)
	} else {
		err = json.Unmarshal(dict, v)
	}

	if err != nil {
		return fmt.Errorf("parsing %s: %w", filename, err)
	}

	return nil
}

// ReadArch reads a network description. Fields that the file omits keep the
// values of estimator.DefaultArchConfig. If dict is empty, the file is read
// to acquire it. YAML is selected by the .yaml and .yml extensions, JSON
// otherwise.
func ReadArch(filename string, dict []byte) (estimator.ArchConfig, error) {
	arch := estimator.DefaultArchConfig()

	dict, err := readIfEmpty(filename, dict)
	if err != nil {
		return arch, err
	}

	err = decode(filename, dict, &arch)

	return arch, err
}

// ReadTask reads a traffic description. Fields that the file omits keep the
// values of estimator.DefaultTaskConfig.
func ReadTask(filename string, dict []byte) (estimator.TaskConfig, error) {
	task := estimator.DefaultTaskConfig()

	dict, err := readIfEmpty(filename, dict)
	if err != nil {
		return task, err
	}

	err = decode(filename, dict, &task)

	return task, err
}

func readIfEmpty(filename string, dict []byte) ([]byte, error) {
	if len(dict) > 0 {
		return dict, nil
	}

	return os.ReadFile(filename)
}

// WriteToFile stores a description in the file whose name is given. YAML or
// JSON is selected based on the extension of the name.
func WriteToFile(filename string, v any) error {
	var (
		bytes []byte
		err   error
	)

	if useYAML(filename) {
		bytes, err = yaml.Marshal(v)
	} else {
		bytes, err = json.MarshalIndent(v, "", "\t")
	}

	if err != nil {
		return err
	}

	return os.WriteFile(filename, bytes, 0o644)
}
