package config

import (
	"encoding/json"
	"fmt"
	"io/ioutil"
)

var (
	// ConfigPath is the variable which stores the config path command line parameter
	ConfigPath string
)

// Builtin selects the in-process backends instead of an external binary.
const Builtin = "builtin"

// Config stores the config for the tool
type Config struct {
	// KnowledgeCompiler selects the compiler backend,
	// one of builtin|sharpsat-td|sharpsat-td-live|d4|c2d|miniC2D
	KnowledgeCompiler string `json:"knowledge_compiler"`
	// DecompositionSolver selects the treewidth heuristic, one of builtin|flow-cutter
	DecompositionSolver string `json:"decos"`
	// DecompositionTimeout is the wall-clock budget for the treewidth heuristic in seconds
	DecompositionTimeout float64 `json:"decot"`
	// MaxSATSolver is the path of the external MaxSAT solver or "builtin"
	MaxSATSolver string `json:"maxsat_solver"`
	// SATSolver is the path of the external SAT solver or "builtin"
	SATSolver string `json:"sat_solver"`
	// Counter is the path of an external exact weighted counter, empty
	// disables it and the compiler settings apply instead
	Counter string `json:"counter"`
	// Preprocessor is the path of the external exact preprocessor or "builtin"
	Preprocessor string `json:"preprocessor"`
	// CircuitEvaluator is the path of the external circuit evaluator or "builtin"
	CircuitEvaluator string `json:"circuit_evaluator"`
	// ExternalDir is the directory containing the external backend binaries
	ExternalDir string `json:"external_dir"`
	// MaxSATPrecision is the number of significant digits kept when quantizing weights
	MaxSATPrecision int `json:"maxsat_precision"`
	// APIServerAddr address of the APIServer
	APIServerAddr string `json:"server_addr"`
	// LogConfig configuration for logging
	LogConfig LogConfig `json:"log"`
}

// LogConfig stores the config for logging purpose
type LogConfig struct {
	// Path of the log file
	Path string `json:"path"`
	// Format to log. Only `json` is currently supported
	Format string `json:"format"`
	// Level log level, one of panic|fatal|error|warn|warning|info|debug|trace
	Level string `json:"level"`
}

// Default returns the configuration used when no config file is given
func Default() *Config {
	return &Config{
		KnowledgeCompiler:    Builtin,
		DecompositionSolver:  Builtin,
		DecompositionTimeout: 1,
		MaxSATSolver:         Builtin,
		SATSolver:            Builtin,
		Counter:              "",
		Preprocessor:         Builtin,
		CircuitEvaluator:     Builtin,
		ExternalDir:          "external",
		MaxSATPrecision:      8,
		APIServerAddr:        "0.0.0.0:7074",
		LogConfig: LogConfig{
			Path:   "",
			Format: "json",
			Level:  "info",
		},
	}
}

// ParseConfig parses config from the specified file
func ParseConfig(path string) (*Config, error) {
	bytes, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}
	defaultConfig := Default()
	err = json.Unmarshal(bytes, defaultConfig)
	if err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %s", err)
	}
	return defaultConfig, nil
}
