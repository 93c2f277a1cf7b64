// Package fixtures holds recorded upstream responses for adapter tests.
package fixtures

import (
	"embed"
	"encoding/json"
	"fmt"
	"net/http"
)

// Recorded response bodies.
const (
	VertexGenerate = "vertex_generate_response.json"
	VertexError    = "vertex_error_response.json"
	FaceSwapError  = "faceswap_error_response.json"
)

//go:embed testdata/*.json
var recorded embed.FS

// Body returns a recorded response body.
func Body(name string) ([]byte, error) {
	data, err := recorded.ReadFile("testdata/" + name)
	if err != nil {
		return nil, fmt.Errorf("fixture %s: %w", name, err)
	}
	return data, nil
}

// Decode unmarshals a recorded response body into dest.
func Decode(name string, dest any) error {
	data, err := Body(name)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("fixture %s: %w", name, err)
	}
	return nil
}

// Reply writes a recorded body as a JSON response with status.
func Reply(w http.ResponseWriter, status int, name string) error {
	data, err := Body(name)
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, err = w.Write(data)
	return err
}
