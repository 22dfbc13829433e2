package task

import (
	"os"

	"github.com/go-lynx/bundler/graph"
)

func defaultLoadFile(id string) (*graph.ModuleSource, error) {
	content, err := os.ReadFile(id)
	if err != nil {
		return nil, err
	}
	return &graph.ModuleSource{Content: string(content), ID: id}, nil
}
