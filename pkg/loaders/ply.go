// Package loaders reads triangle meshes referenced by scene files.
package loaders

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/df07/go-thinlens/pkg/core"
	"github.com/df07/go-thinlens/pkg/geometry"
)

// ErrInvalidPLY is wrapped by every malformed or unsupported PLY error
var ErrInvalidPLY = errors.New("invalid PLY")

// Mesh is an indexed triangle mesh
type Mesh struct {
	Vertices []core.Vec3
	Faces    [][3]int // Vertex indices, counter-clockwise
}

// plyHeader represents the parsed header of a PLY file
type plyHeader struct {
	format      string // "ascii", "binary_little_endian" or "binary_big_endian"
	vertexCount int
	faceCount   int
	vertexProps []plyProperty
	faceProps   []plyProperty
}

// plyProperty represents a property definition in the PLY header
type plyProperty struct {
	name      string
	dataType  string
	isList    bool
	countType string // For list properties, the type of the count
}

// LoadPLY reads an ASCII or binary PLY file
func LoadPLY(path string) (*Mesh, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("ply: %w", err)
	}
	defer file.Close()

	mesh, err := ReadPLY(file)
	if err != nil {
		return nil, fmt.Errorf("ply: %s: %w", path, err)
	}
	return mesh, nil
}

// ReadPLY decodes a PLY stream. Only vertex positions and face indices are
// kept; polygons with more than three corners are split into a fan.
func ReadPLY(r io.Reader) (*Mesh, error) {
	br := bufio.NewReader(r)
	header, err := parseHeader(br)
	if err != nil {
		return nil, err
	}

	var values valueReader
	switch header.format {
	case "ascii":
		values = &asciiReader{r: br}
	case "binary_little_endian":
		values = &binaryReader{r: br, order: binary.LittleEndian}
	case "binary_big_endian":
		values = &binaryReader{r: br, order: binary.BigEndian}
	default:
		return nil, fmt.Errorf("format %q: %w", header.format, ErrInvalidPLY)
	}

	mesh := &Mesh{
		Vertices: make([]core.Vec3, 0, header.vertexCount),
		Faces:    make([][3]int, 0, header.faceCount),
	}
	if err := readVertices(values, header, mesh); err != nil {
		return nil, err
	}
	if err := readFaces(values, header, mesh); err != nil {
		return nil, err
	}
	return mesh, nil
}

// parseHeader reads up to and including end_header, leaving br at the body
func parseHeader(br *bufio.Reader) (*plyHeader, error) {
	magic, err := br.ReadString('\n')
	if err != nil || strings.TrimSpace(magic) != "ply" {
		return nil, fmt.Errorf("missing ply magic: %w", ErrInvalidPLY)
	}

	header := &plyHeader{}
	var element string
	for {
		line, err := br.ReadString('\n')
		if err != nil {
			return nil, fmt.Errorf("header ends without end_header: %w", ErrInvalidPLY)
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}

		switch parts[0] {
		case "end_header":
			if header.format == "" {
				return nil, fmt.Errorf("no format line: %w", ErrInvalidPLY)
			}
			return header, nil
		case "format":
			if len(parts) < 3 {
				return nil, fmt.Errorf("bad format line %q: %w", strings.TrimSpace(line), ErrInvalidPLY)
			}
			header.format = parts[1]
		case "comment", "obj_info":
		case "element":
			if len(parts) < 3 {
				return nil, fmt.Errorf("bad element line %q: %w", strings.TrimSpace(line), ErrInvalidPLY)
			}
			count, err := strconv.Atoi(parts[2])
			if err != nil || count < 0 {
				return nil, fmt.Errorf("element count %q: %w", parts[2], ErrInvalidPLY)
			}
			element = parts[1]
			switch element {
			case "vertex":
				header.vertexCount = count
			case "face":
				header.faceCount = count
			default:
				if count > 0 {
					return nil, fmt.Errorf("element %q: %w", element, ErrInvalidPLY)
				}
			}
		case "property":
			prop, err := parseProperty(parts[1:])
			if err != nil {
				return nil, err
			}
			switch element {
			case "vertex":
				header.vertexProps = append(header.vertexProps, prop)
			case "face":
				header.faceProps = append(header.faceProps, prop)
			}
		default:
			return nil, fmt.Errorf("unexpected header line %q: %w", strings.TrimSpace(line), ErrInvalidPLY)
		}
	}
}

func parseProperty(parts []string) (plyProperty, error) {
	if len(parts) >= 4 && parts[0] == "list" {
		return plyProperty{isList: true, countType: parts[1], dataType: parts[2], name: parts[3]}, nil
	}
	if len(parts) >= 2 && parts[0] != "list" {
		return plyProperty{dataType: parts[0], name: parts[1]}, nil
	}
	return plyProperty{}, fmt.Errorf("bad property %q: %w", strings.Join(parts, " "), ErrInvalidPLY)
}

func readVertices(values valueReader, header *plyHeader, mesh *Mesh) error {
	position := [3]int{-1, -1, -1}
	for i, prop := range header.vertexProps {
		switch prop.name {
		case "x":
			position[0] = i
		case "y":
			position[1] = i
		case "z":
			position[2] = i
		}
	}
	if position[0] < 0 || position[1] < 0 || position[2] < 0 {
		return fmt.Errorf("vertex needs x, y and z: %w", ErrInvalidPLY)
	}

	row := make([]float64, len(header.vertexProps))
	for v := 0; v < header.vertexCount; v++ {
		for i, prop := range header.vertexProps {
			if prop.isList {
				if err := skipList(values, prop); err != nil {
					return fmt.Errorf("vertex %d: %w", v, err)
				}
				continue
			}
			value, err := values.next(prop.dataType)
			if err != nil {
				return fmt.Errorf("vertex %d: %w", v, err)
			}
			row[i] = value
		}
		mesh.Vertices = append(mesh.Vertices, core.NewVec3(row[position[0]], row[position[1]], row[position[2]]))
	}
	return nil
}

func readFaces(values valueReader, header *plyHeader, mesh *Mesh) error {
	for f := 0; f < header.faceCount; f++ {
		for _, prop := range header.faceProps {
			if !prop.isList || (prop.name != "vertex_indices" && prop.name != "vertex_index") {
				if err := skip(values, prop); err != nil {
					return fmt.Errorf("face %d: %w", f, err)
				}
				continue
			}

			count, err := values.next(prop.countType)
			if err != nil {
				return fmt.Errorf("face %d: %w", f, err)
			}
			if count < 3 {
				return fmt.Errorf("face %d has %v corners: %w", f, count, ErrInvalidPLY)
			}
			corners := make([]int, int(count))
			for i := range corners {
				index, err := values.next(prop.dataType)
				if err != nil {
					return fmt.Errorf("face %d: %w", f, err)
				}
				if index < 0 || int(index) >= len(mesh.Vertices) {
					return fmt.Errorf("face %d: vertex index %v out of range: %w", f, index, ErrInvalidPLY)
				}
				corners[i] = int(index)
			}
			for i := 1; i+1 < len(corners); i++ {
				mesh.Faces = append(mesh.Faces, [3]int{corners[0], corners[i], corners[i+1]})
			}
		}
	}
	return nil
}

func skip(values valueReader, prop plyProperty) error {
	if prop.isList {
		return skipList(values, prop)
	}
	_, err := values.next(prop.dataType)
	return err
}

func skipList(values valueReader, prop plyProperty) error {
	count, err := values.next(prop.countType)
	if err != nil {
		return err
	}
	for i := 0; i < int(count); i++ {
		if _, err := values.next(prop.dataType); err != nil {
			return err
		}
	}
	return nil
}

// valueReader yields the body of a PLY file one scalar at a time
type valueReader interface {
	next(dataType string) (float64, error)
}

type asciiReader struct {
	r      *bufio.Reader
	fields []string
}

func (a *asciiReader) next(dataType string) (float64, error) {
	for len(a.fields) == 0 {
		line, err := a.r.ReadString('\n')
		a.fields = strings.Fields(line)
		if err != nil && len(a.fields) == 0 {
			return 0, fmt.Errorf("unexpected end of data: %w", ErrInvalidPLY)
		}
	}
	field := a.fields[0]
	a.fields = a.fields[1:]

	value, err := strconv.ParseFloat(field, 64)
	if err != nil {
		return 0, fmt.Errorf("%s value %q: %w", dataType, field, ErrInvalidPLY)
	}
	return value, nil
}

type binaryReader struct {
	r     *bufio.Reader
	order binary.ByteOrder
	buf   [8]byte
}

func (b *binaryReader) next(dataType string) (float64, error) {
	size := typeSize(dataType)
	if size == 0 {
		return 0, fmt.Errorf("data type %q: %w", dataType, ErrInvalidPLY)
	}
	buf := b.buf[:size]
	if _, err := io.ReadFull(b.r, buf); err != nil {
		return 0, fmt.Errorf("unexpected end of data: %w", ErrInvalidPLY)
	}

	switch dataType {
	case "char", "int8":
		return float64(int8(buf[0])), nil
	case "uchar", "uint8":
		return float64(buf[0]), nil
	case "short", "int16":
		return float64(int16(b.order.Uint16(buf))), nil
	case "ushort", "uint16":
		return float64(b.order.Uint16(buf)), nil
	case "int", "int32":
		return float64(int32(b.order.Uint32(buf))), nil
	case "uint", "uint32":
		return float64(b.order.Uint32(buf)), nil
	case "float", "float32":
		return float64(math.Float32frombits(b.order.Uint32(buf))), nil
	default: // double
		return math.Float64frombits(b.order.Uint64(buf)), nil
	}
}

// typeSize returns the size in bytes of a PLY scalar type, 0 if unknown
func typeSize(dataType string) int {
	switch dataType {
	case "char", "int8", "uchar", "uint8":
		return 1
	case "short", "int16", "ushort", "uint16":
		return 2
	case "int", "int32", "uint", "uint32", "float", "float32":
		return 4
	case "double", "float64":
		return 8
	default:
		return 0
	}
}

// Triangles places the mesh in the world: every vertex is scaled by scale
// and then moved by offset. Degenerate faces are dropped.
func (m *Mesh) Triangles(scale float64, offset core.Vec3, surface core.Surface) []geometry.Shape {
	shapes := make([]geometry.Shape, 0, len(m.Faces))
	for _, face := range m.Faces {
		v0 := m.Vertices[face[0]].Multiply(scale).Add(offset)
		v1 := m.Vertices[face[1]].Multiply(scale).Add(offset)
		v2 := m.Vertices[face[2]].Multiply(scale).Add(offset)
		tri := geometry.NewTriangle(v0, v1, v2, surface)
		if tri.Normal().IsZero() {
			continue
		}
		shapes = append(shapes, tri)
	}
	return shapes
}
