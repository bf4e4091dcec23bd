package assets

import (
	_ "embed"
)

//go:embed imagepub.example.yaml
var exampleConfig []byte

// ExampleConfig returns the annotated imagepub.yaml written by `imagepub init`.
func ExampleConfig() []byte {
	out := make([]byte, len(exampleConfig))
	copy(out, exampleConfig)
	return out
}
