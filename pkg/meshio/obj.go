// Package meshio implements spec.md §6's mesh-loading external
// collaborator: an OBJ-format loader that yields a flat vector of
// triangles grouped by material name, the same shape the teacher's
// pkg/loaders/ply.go produces for PLY meshes (raw vertex/face arrays
// plus optional per-vertex normals and UVs), adapted to OBJ's face-list
// text format and its "usemtl" material grouping instead of PLY's
// binary property table.
package meshio

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/df07/spectral-tracer/pkg/core"
)

// Face is one triangulated face: indices into the parsed vertex/normal/
// texcoord arrays (-1 for an absent attribute), and the name of the
// material active via the most recent "usemtl" directive.
type Face struct {
	V, N, T  [3]int
	Material string
}

// Mesh is the raw parse result: position/normal/texcoord pools plus the
// triangulated faces referencing them, grouped by material name.
type Mesh struct {
	Positions []core.Vec3
	Normals   []core.Vec3
	TexCoords []core.Vec2
	Faces     []Face
}

// Load parses an OBJ file, triangulating any polygon face with a fan
// from its first vertex (the standard convention for convex n-gons,
// which is all an OBJ exporter of a raytracer-target mesh produces in
// practice).
func Load(path string) (*Mesh, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("meshio: opening %s: %w", path, err)
	}
	defer f.Close()

	mesh := &Mesh{}
	currentMaterial := ""

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		switch fields[0] {
		case "v":
			p, err := parseVec3(fields[1:])
			if err != nil {
				return nil, fmt.Errorf("meshio: %s:%d: vertex: %w", path, lineNo, err)
			}
			mesh.Positions = append(mesh.Positions, p)
		case "vn":
			n, err := parseVec3(fields[1:])
			if err != nil {
				return nil, fmt.Errorf("meshio: %s:%d: normal: %w", path, lineNo, err)
			}
			mesh.Normals = append(mesh.Normals, n)
		case "vt":
			uv, err := parseVec2(fields[1:])
			if err != nil {
				return nil, fmt.Errorf("meshio: %s:%d: texcoord: %w", path, lineNo, err)
			}
			mesh.TexCoords = append(mesh.TexCoords, uv)
		case "usemtl":
			if len(fields) < 2 {
				return nil, fmt.Errorf("meshio: %s:%d: usemtl missing a name", path, lineNo)
			}
			currentMaterial = fields[1]
		case "f":
			faces, err := parseFace(fields[1:], currentMaterial, len(mesh.Positions), len(mesh.Normals), len(mesh.TexCoords))
			if err != nil {
				return nil, fmt.Errorf("meshio: %s:%d: face: %w", path, lineNo, err)
			}
			mesh.Faces = append(mesh.Faces, faces...)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("meshio: reading %s: %w", path, err)
	}
	return mesh, nil
}

func parseVec3(fields []string) (core.Vec3, error) {
	if len(fields) < 3 {
		return core.Vec3{}, fmt.Errorf("expected 3 components, got %d", len(fields))
	}
	x, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return core.Vec3{}, err
	}
	y, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return core.Vec3{}, err
	}
	z, err := strconv.ParseFloat(fields[2], 64)
	if err != nil {
		return core.Vec3{}, err
	}
	return core.NewVec3(x, y, z), nil
}

func parseVec2(fields []string) (core.Vec2, error) {
	if len(fields) < 2 {
		return core.Vec2{}, fmt.Errorf("expected 2 components, got %d", len(fields))
	}
	u, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return core.Vec2{}, err
	}
	v, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return core.Vec2{}, err
	}
	return core.NewVec2(u, v), nil
}

// parseIndex resolves an OBJ 1-based (or negative, relative-to-end)
// index against count, returning -1 for an absent attribute.
func parseIndex(s string, count int) (int, error) {
	if s == "" {
		return -1, nil
	}
	i, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	if i < 0 {
		return count + i, nil
	}
	return i - 1, nil
}

func parseVertexRef(tok string, vCount, nCount, tCount int) (v, vt, vn int, err error) {
	parts := strings.Split(tok, "/")
	v, err = parseIndex(parts[0], vCount)
	if err != nil {
		return 0, 0, 0, err
	}
	if len(parts) > 1 {
		if vt, err = parseIndex(parts[1], tCount); err != nil {
			return 0, 0, 0, err
		}
	} else {
		vt = -1
	}
	if len(parts) > 2 {
		if vn, err = parseIndex(parts[2], nCount); err != nil {
			return 0, 0, 0, err
		}
	} else {
		vn = -1
	}
	return v, vt, vn, nil
}

// parseFace triangulates an n-gon face line with a fan from its first
// vertex.
func parseFace(tokens []string, material string, vCount, nCount, tCount int) ([]Face, error) {
	if len(tokens) < 3 {
		return nil, fmt.Errorf("face needs at least 3 vertices, got %d", len(tokens))
	}
	v0, t0, n0, err := parseVertexRef(tokens[0], vCount, nCount, tCount)
	if err != nil {
		return nil, err
	}
	var faces []Face
	for i := 1; i+1 < len(tokens); i++ {
		v1, t1, n1, err := parseVertexRef(tokens[i], vCount, nCount, tCount)
		if err != nil {
			return nil, err
		}
		v2, t2, n2, err := parseVertexRef(tokens[i+1], vCount, nCount, tCount)
		if err != nil {
			return nil, err
		}
		faces = append(faces, Face{
			V: [3]int{v0, v1, v2}, N: [3]int{n0, n1, n2}, T: [3]int{t0, t1, t2},
			Material: material,
		})
	}
	return faces, nil
}

// ByMaterial groups mesh's faces by material name, the §6 contract
// "grouped by material name".
func (m *Mesh) ByMaterial() map[string][]Face {
	out := make(map[string][]Face)
	for _, f := range m.Faces {
		out[f.Material] = append(out[f.Material], f)
	}
	return out
}

// Position resolves face vertex index i's position.
func (m *Mesh) Position(f Face, i int) core.Vec3 { return m.Positions[f.V[i]] }

// Normal resolves face vertex index i's normal, reporting false when the
// face carries no normal reference.
func (m *Mesh) Normal(f Face, i int) (core.Vec3, bool) {
	idx := f.N[i]
	if idx < 0 || idx >= len(m.Normals) {
		return core.Vec3{}, false
	}
	return m.Normals[idx], true
}

// TexCoord resolves face vertex index i's texture coordinate, reporting
// false when the face carries no texcoord reference.
func (m *Mesh) TexCoord(f Face, i int) (core.Vec2, bool) {
	idx := f.T[i]
	if idx < 0 || idx >= len(m.TexCoords) {
		return core.Vec2{}, false
	}
	return m.TexCoords[idx], true
}

// HasAnyNormals reports whether at least one parsed vertex normal
// exists, used by callers deciding whether to build smooth-shaded
// triangles at all.
func (m *Mesh) HasAnyNormals() bool { return len(m.Normals) > 0 }
