package loaders

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/minilight/go-minilight/pkg/core"
	"github.com/minilight/go-minilight/pkg/geometry"
	"github.com/minilight/go-minilight/pkg/scene"
)

// modelID is the required first-line marker of a model file
const modelID = "#MiniLight"

// FormatError reports a model file that fails the grammar
type FormatError struct {
	Detail string
}

func (e *FormatError) Error() string {
	return e.Detail
}

// Model contains all parsed model-file data
type Model struct {
	Iterations int
	Width      int
	Height     int

	CameraPosition  core.Vec3
	CameraDirection core.Vec3
	ViewAngle       float64 // Degrees

	SkyEmission      core.Vec3
	GroundReflection core.Vec3

	Triangles []*geometry.Triangle
}

// modelParser consumes the whitespace-separated token stream that remains
// once the header line is checked and parentheses are stripped
type modelParser struct {
	tokens []string
	next   int
}

// ParseModel parses a model from a reader. The grammar is line-oriented:
// the marker line, iteration count, image dimensions, camera, background,
// then triangle lines until EOF.
func ParseModel(r io.Reader) (*Model, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("error reading model: %v", err)
	}
	if len(content) == 0 || content[len(content)-1] != '\n' {
		return nil, &FormatError{Detail: "model file must end with a newline"}
	}

	text := string(content)
	firstLine, rest, _ := strings.Cut(text, "\n")
	if !strings.HasPrefix(strings.TrimSpace(firstLine), modelID) {
		return nil, &FormatError{Detail: fmt.Sprintf("model file does not begin with %s", modelID)}
	}

	// Parenthesized triples may have arbitrary whitespace inside, so the
	// remainder reduces to a flat token stream
	rest = strings.NewReplacer("(", " ", ")", " ").Replace(rest)
	p := &modelParser{tokens: strings.Fields(rest)}

	model := &Model{}
	if model.Iterations, err = p.readInt("iterations"); err != nil {
		return nil, err
	}
	if model.Width, err = p.readInt("image width"); err != nil {
		return nil, err
	}
	if model.Height, err = p.readInt("image height"); err != nil {
		return nil, err
	}
	if model.CameraPosition, err = p.readVec3("camera position"); err != nil {
		return nil, err
	}
	if model.CameraDirection, err = p.readVec3("camera direction"); err != nil {
		return nil, err
	}
	if model.ViewAngle, err = p.readFloat("view angle"); err != nil {
		return nil, err
	}
	if model.SkyEmission, err = p.readVec3("sky emission"); err != nil {
		return nil, err
	}
	if model.GroundReflection, err = p.readVec3("ground reflection"); err != nil {
		return nil, err
	}

	// Triangles until EOF; reading stops quietly at the first incomplete
	// or malformed entry, matching the reference behavior
	for len(model.Triangles) < scene.MaxTriangles {
		triangle, ok := p.readTriangle()
		if !ok {
			break
		}
		model.Triangles = append(model.Triangles, triangle)
	}

	return model, nil
}

// LoadModel loads and parses a model file
func LoadModel(path string) (*Model, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return ParseModel(file)
}

func (p *modelParser) readToken() (string, bool) {
	if p.next >= len(p.tokens) {
		return "", false
	}
	token := p.tokens[p.next]
	p.next++
	return token, true
}

func (p *modelParser) readInt(field string) (int, error) {
	token, ok := p.readToken()
	if !ok {
		return 0, &FormatError{Detail: fmt.Sprintf("missing %s", field)}
	}
	value, err := strconv.Atoi(token)
	if err != nil {
		return 0, &FormatError{Detail: fmt.Sprintf("invalid %s: %q", field, token)}
	}
	return value, nil
}

func (p *modelParser) readFloat(field string) (float64, error) {
	token, ok := p.readToken()
	if !ok {
		return 0, &FormatError{Detail: fmt.Sprintf("missing %s", field)}
	}
	value, err := strconv.ParseFloat(token, 64)
	if err != nil {
		return 0, &FormatError{Detail: fmt.Sprintf("invalid %s: %q", field, token)}
	}
	return value, nil
}

func (p *modelParser) readVec3(field string) (core.Vec3, error) {
	var components [3]float64
	for i := range components {
		value, err := p.readFloat(field)
		if err != nil {
			return core.Vec3{}, err
		}
		components[i] = value
	}
	return core.NewVec3(components[0], components[1], components[2]), nil
}

// readTriangle reads one triangle entry: three vertices, reflectivity,
// emissivity. Returns false without consuming further tokens on failure.
func (p *modelParser) readTriangle() (*geometry.Triangle, bool) {
	var values [15]float64
	mark := p.next
	for i := range values {
		token, ok := p.readToken()
		if !ok {
			p.next = mark
			return nil, false
		}
		value, err := strconv.ParseFloat(token, 64)
		if err != nil {
			p.next = mark
			return nil, false
		}
		values[i] = value
	}

	return geometry.NewTriangle(
		core.NewVec3(values[0], values[1], values[2]),
		core.NewVec3(values[3], values[4], values[5]),
		core.NewVec3(values[6], values[7], values[8]),
		core.NewVec3(values[9], values[10], values[11]),
		core.NewVec3(values[12], values[13], values[14]),
	), true
}
