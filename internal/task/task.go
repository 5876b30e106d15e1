// Package task loads evaluation task definitions and their planted ground
// truth from per-task task.toml files.
package task

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/BurntSushi/toml"
)

// Ground-truth tiers, ordered from easiest to hardest to discover.
const (
	TierSurface  = "surface"
	TierStandard = "standard"
	TierDeep     = "deep"
)

// Tiers lists the closed set of ground-truth tiers in display order.
var Tiers = []string{TierSurface, TierStandard, TierDeep}

// GroundTruth is a single planted insight the agent should ideally discover.
type GroundTruth struct {
	Category        string `toml:"category"        json:"category"`
	Content         string `toml:"content"         json:"content"`
	Tier            string `toml:"tier"            json:"tier"`
	DiscoverableVia string `toml:"discoverable_via" json:"discoverable_via"`
}

// Task is the immutable description of one evaluation task.
type Task struct {
	ID          string
	Name        string
	Difficulty  string
	Prompt      string
	InitScript  string
	GroundTruth []GroundTruth
}

type taskFile struct {
	Task struct {
		ID         string `toml:"id"`
		Name       string `toml:"name"`
		Difficulty string `toml:"difficulty"`
	} `toml:"task"`
	Instructions struct {
		Prompt string `toml:"prompt"`
	} `toml:"instructions"`
	Setup struct {
		InitScript string `toml:"init_script"`
	} `toml:"setup"`
	GroundTruth []GroundTruth `toml:"ground_truth"`
}

// Load reads <tasksDir>/<id>/task.toml. The init script path is resolved
// relative to the task directory.
func Load(tasksDir, id string) (*Task, error) {
	taskDir := filepath.Join(tasksDir, id)
	path := filepath.Join(taskDir, "task.toml")

	var tf taskFile
	if _, err := toml.DecodeFile(path, &tf); err != nil {
		return nil, fmt.Errorf("loading task %s: %w", id, err)
	}
	if tf.Task.ID == "" {
		return nil, fmt.Errorf("loading task %s: task.id is required", id)
	}
	if tf.Setup.InitScript == "" {
		return nil, fmt.Errorf("loading task %s: setup.init_script is required", id)
	}
	for i, gt := range tf.GroundTruth {
		switch gt.Tier {
		case TierSurface, TierStandard, TierDeep:
		default:
			return nil, fmt.Errorf("loading task %s: ground_truth[%d]: unknown tier %q", id, i, gt.Tier)
		}
	}

	return &Task{
		ID:          tf.Task.ID,
		Name:        tf.Task.Name,
		Difficulty:  tf.Task.Difficulty,
		Prompt:      tf.Instructions.Prompt,
		InitScript:  filepath.Join(taskDir, tf.Setup.InitScript),
		GroundTruth: tf.GroundTruth,
	}, nil
}

// List returns the IDs of all directories under tasksDir that contain a
// task.toml, sorted.
func List(tasksDir string) ([]string, error) {
	dirents, err := os.ReadDir(tasksDir)
	if err != nil {
		return nil, fmt.Errorf("listing tasks in %s: %w", tasksDir, err)
	}
	var ids []string
	for _, d := range dirents {
		if !d.IsDir() {
			continue
		}
		if _, err := os.Stat(filepath.Join(tasksDir, d.Name(), "task.toml")); err == nil {
			ids = append(ids, d.Name())
		}
	}
	sort.Strings(ids)
	return ids, nil
}
