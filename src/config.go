package pitchtune

/*------------------------------------------------------------------
 *
 * Purpose:	Load tuner configuration (algorithm choice and tuning
 *		parameters) from a YAML file.
 *
 * Description:	Originally these values were compiled-in defaults, one
 *		per algorithm; this reads them from pitchtune.yaml at run
 *		time for maximum flexibility, same reasoning and the same
 *		gopkg.in/yaml.v3 + search-path pattern as the teacher's
 *		deviceid_init reading tocalls.yaml — check a short list of
 *		likely locations, use the first one that opens.
 *
 *------------------------------------------------------------------*/

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// configSearchPath mirrors deviceid.go's search_locations: current
// directory first, then common install locations.
var configSearchPath = []string{
	"pitchtune.yaml",
	"config/pitchtune.yaml",
	"/usr/local/share/pitchtune/pitchtune.yaml",
	"/usr/share/pitchtune/pitchtune.yaml",
}

// fileConfig is the on-disk shape of pitchtune.yaml.
type fileConfig struct {
	Preset    string             `yaml:"preset"`
	Algorithm string             `yaml:"algorithm"`
	Tuning    map[string]float64 `yaml:"tuning"`
}

// Preset is a named bundle of Config defaults, selected by the
// "preset:" key in pitchtune.yaml. spec.md section 9 Open Question 4
// resolves min_freq/max_freq to be configurable per preset rather than
// fixed constants: "realtime" targets low latency on a small frame,
// "reference" targets the widest practical vocal/instrumental range on
// a larger frame for offline/batch analysis.
var presets = map[string]Config{
	"realtime": {
		FrameSize:        1024,
		MinFreq:          80,
		MaxFreq:          1000,
		YINThreshold:     0.15,
		MPMThresholdK:    0.93,
		StepsPerSemitone: 5,
		SwitchProb:       0.01,
		ThresholdBins:    50,
	},
	"reference": {
		FrameSize:        4096,
		MinFreq:          27.5,  // A0
		MaxFreq:          4186,  // C8
		YINThreshold:     0.1,
		MPMThresholdK:    0.93,
		StepsPerSemitone: 10,
		SwitchProb:       0.01,
		ThresholdBins:    100,
	},
}

// LoadConfig searches configSearchPath for a readable pitchtune.yaml
// and returns the Config it describes, with sampleRate filled in from
// the caller (the file format never specifies a device sample rate).
// If no file is found, LoadConfig returns DefaultConfig(AlgorithmYIN,
// sampleRate) unmodified.
func LoadConfig(sampleRate float64) (Config, error) {
	var data []byte
	for _, path := range configSearchPath {
		b, err := os.ReadFile(path)
		if err == nil {
			data = b
			break
		}
	}
	if data == nil {
		return DefaultConfig(AlgorithmYIN, sampleRate), nil
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return Config{}, fmt.Errorf("pitchtune: parse config: %w", err)
	}
	return fc.resolve(sampleRate)
}

// ParseConfig parses YAML already read into memory (used by tests and
// by callers that source the file from somewhere other than disk).
func ParseConfig(data []byte, sampleRate float64) (Config, error) {
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return Config{}, fmt.Errorf("pitchtune: parse config: %w", err)
	}
	return fc.resolve(sampleRate)
}

func (fc fileConfig) resolve(sampleRate float64) (Config, error) {
	alg := Algorithm(fc.Algorithm)
	if alg == "" {
		alg = AlgorithmYIN
	}

	cfg := DefaultConfig(alg, sampleRate)
	if fc.Preset != "" {
		preset, ok := presets[fc.Preset]
		if !ok {
			return Config{}, newConfigError("Config", "preset", fmt.Sprintf("unknown preset %q", fc.Preset))
		}
		preset.Algorithm = alg
		preset.SampleRate = sampleRate
		cfg = preset
	}

	for k, v := range fc.Tuning {
		switch k {
		case "frame_size":
			cfg.FrameSize = int(v)
		case "min_freq":
			cfg.MinFreq = v
		case "max_freq":
			cfg.MaxFreq = v
		case "yin_threshold":
			cfg.YINThreshold = v
		case "mpm_threshold_k":
			cfg.MPMThresholdK = v
		case "steps_per_semitone":
			cfg.StepsPerSemitone = int(v)
		case "switch_prob":
			cfg.SwitchProb = v
		case "threshold_bins":
			cfg.ThresholdBins = int(v)
		default:
			return Config{}, newConfigError("Config", "tuning", fmt.Sprintf("unknown key %q", k))
		}
	}
	return cfg, nil
}
