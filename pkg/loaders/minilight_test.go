package loaders

import (
	"strings"
	"testing"

	"github.com/minilight/go-minilight/pkg/core"
)

const validModel = `#MiniLight

100

200 150

(0.278 0.275 -0.789) (0 0 1) 40

(0.906 0.943 1.151) (0.1 0.09 0.07)

(0.556 0.000 0.000) (0.006 0.000 0.559) (0.556 0.000 0.559)  (0.7 0.7 0.7) (0 0 0)
(0.006 0.000 0.559) (0.556 0.000 0.000) (0.003 0.000 0.000)  (0.7 0.7 0.7) (0 0 0)
(0.343 0.545 0.332) (0.213 0.545 0.332) (0.213 0.545 0.227)  (0.7 0.7 0.7) (100 100 100)
`

func TestParseModel_Valid(t *testing.T) {
	model, err := ParseModel(strings.NewReader(validModel))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	if model.Iterations != 100 {
		t.Errorf("expected 100 iterations, got %d", model.Iterations)
	}
	if model.Width != 200 || model.Height != 150 {
		t.Errorf("expected 200x150, got %dx%d", model.Width, model.Height)
	}
	if model.CameraPosition != core.NewVec3(0.278, 0.275, -0.789) {
		t.Errorf("unexpected camera position %v", model.CameraPosition)
	}
	if model.CameraDirection != core.NewVec3(0, 0, 1) {
		t.Errorf("unexpected camera direction %v", model.CameraDirection)
	}
	if model.ViewAngle != 40 {
		t.Errorf("expected view angle 40, got %v", model.ViewAngle)
	}
	if model.SkyEmission != core.NewVec3(0.906, 0.943, 1.151) {
		t.Errorf("unexpected sky emission %v", model.SkyEmission)
	}
	if model.GroundReflection != core.NewVec3(0.1, 0.09, 0.07) {
		t.Errorf("unexpected ground reflection %v", model.GroundReflection)
	}

	if len(model.Triangles) != 3 {
		t.Fatalf("expected 3 triangles, got %d", len(model.Triangles))
	}
	if !model.Triangles[2].IsEmitter() {
		t.Error("expected the third triangle to be an emitter")
	}
	if model.Triangles[0].V1 != core.NewVec3(0.006, 0, 0.559) {
		t.Errorf("unexpected vertex %v", model.Triangles[0].V1)
	}
}

func TestParseModel_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty file", ""},
		{"missing marker", "#SomethingElse\n1\n1 1\n(0 0 0) (0 0 1) 45\n(1 1 1) (0 0 0)\n"},
		{"missing trailing newline", "#MiniLight\n1\n1 1\n(0 0 0) (0 0 1) 45\n(1 1 1) (0 0 0)"},
		{"non-numeric iterations", "#MiniLight\nmany\n1 1\n(0 0 0) (0 0 1) 45\n(1 1 1) (0 0 0)\n"},
		{"truncated camera", "#MiniLight\n1\n1 1\n(0 0 0)\n"},
		{"missing background", "#MiniLight\n1\n1 1\n(0 0 0) (0 0 1) 45\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseModel(strings.NewReader(tt.input)); err == nil {
				t.Error("expected a parse error")
			}
		})
	}
}

func TestParseModel_NoTriangles(t *testing.T) {
	input := "#MiniLight\n1\n1 1\n(0 0 0) (0 0 1) 45\n(1 1 1) (0.5 0.5 0.5)\n"
	model, err := ParseModel(strings.NewReader(input))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if len(model.Triangles) != 0 {
		t.Errorf("expected no triangles, got %d", len(model.Triangles))
	}
}

func TestParseModel_StopsAtPartialTriangle(t *testing.T) {
	// A trailing incomplete entry ends triangle reading without error
	input := validModel + "(1 2 3) (4 5 6)\n"
	model, err := ParseModel(strings.NewReader(input))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if len(model.Triangles) != 3 {
		t.Errorf("expected 3 complete triangles, got %d", len(model.Triangles))
	}
}

func TestParseModel_WhitespaceInsideTriples(t *testing.T) {
	input := "#MiniLight\n5\n32 24\n( 0  0  0 ) (0\t0\t1) 45\n(1 1 1) (0.5 0.5 0.5)\n" +
		"(0 0 0) (1 0 0)\n(0 1 0) (0.5 0.5 0.5) (0 0 0)\n"
	model, err := ParseModel(strings.NewReader(input))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if len(model.Triangles) != 1 {
		t.Errorf("expected 1 triangle, got %d", len(model.Triangles))
	}
	if model.CameraDirection != core.NewVec3(0, 0, 1) {
		t.Errorf("unexpected camera direction %v", model.CameraDirection)
	}
}

func TestLoadModel_MissingFile(t *testing.T) {
	if _, err := LoadModel("no/such/model.ml.txt"); err == nil {
		t.Error("expected an error for a missing file")
	}
}
