package spatialmath

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.viam.com/utils"
)

func multiCloseErr(err, closeErr error) error {
	return multierr.Combine(err, closeErr)
}

// ReadMeshFromOFF reads a triangle mesh from an OFF file. Faces with more
// than three vertices are fan-triangulated.
func ReadMeshFromOFF(fn string) (*Mesh, error) {
	f, err := os.Open(fn)
	if err != nil {
		return nil, errors.Wrap(err, "cannot open mesh file")
	}
	defer utils.UncheckedErrorFunc(f.Close)

	scanner := bufio.NewScanner(f)
	fields, err := nextOFFRecord(scanner)
	if err != nil {
		return nil, err
	}
	if len(fields) == 1 && strings.EqualFold(fields[0], "OFF") {
		fields, err = nextOFFRecord(scanner)
		if err != nil {
			return nil, err
		}
	}
	if len(fields) < 2 {
		return nil, errors.Errorf("malformed OFF header %q", strings.Join(fields, " "))
	}
	nVertices, err := strconv.Atoi(fields[0])
	if err != nil {
		return nil, errors.Wrap(err, "malformed OFF vertex count")
	}
	nFaces, err := strconv.Atoi(fields[1])
	if err != nil {
		return nil, errors.Wrap(err, "malformed OFF face count")
	}

	vertices := make([]r3.Vector, 0, nVertices)
	for i := 0; i < nVertices; i++ {
		fields, err = nextOFFRecord(scanner)
		if err != nil {
			return nil, errors.Wrapf(err, "reading vertex %d", i)
		}
		if len(fields) < 3 {
			return nil, errors.Errorf("vertex %d has %d coordinates", i, len(fields))
		}
		var coords [3]float64
		for j := 0; j < 3; j++ {
			coords[j], err = strconv.ParseFloat(fields[j], 64)
			if err != nil {
				return nil, errors.Wrapf(err, "reading vertex %d", i)
			}
		}
		vertices = append(vertices, r3.Vector{X: coords[0], Y: coords[1], Z: coords[2]})
	}

	triangles := make([]*Triangle, 0, nFaces)
	for i := 0; i < nFaces; i++ {
		fields, err = nextOFFRecord(scanner)
		if err != nil {
			return nil, errors.Wrapf(err, "reading face %d", i)
		}
		n, err := strconv.Atoi(fields[0])
		if err != nil || n < 3 || len(fields) < n+1 {
			return nil, errors.Errorf("malformed face record %d", i)
		}
		idx := make([]int, n)
		for j := 0; j < n; j++ {
			idx[j], err = strconv.Atoi(fields[j+1])
			if err != nil {
				return nil, errors.Wrapf(err, "reading face %d", i)
			}
			if idx[j] < 0 || idx[j] >= len(vertices) {
				return nil, errors.Errorf("face %d references vertex %d out of %d", i, idx[j], len(vertices))
			}
		}
		for j := 1; j+1 < n; j++ {
			triangles = append(triangles, NewTriangle(vertices[idx[0]], vertices[idx[j]], vertices[idx[j+1]]))
		}
	}
	return NewMesh(triangles), nil
}

func nextOFFRecord(scanner *bufio.Scanner) ([]string, error) {
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		return strings.Fields(line), nil
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "reading OFF file")
	}
	return nil, errors.New("unexpected end of OFF file")
}

// WriteMeshToOFF writes the mesh as an OFF file with one vertex triple per
// triangle.
func WriteMeshToOFF(fn string, m *Mesh) (err error) {
	//nolint:gosec
	f, err := os.Create(fn)
	if err != nil {
		return errors.Wrap(err, "cannot create mesh file")
	}
	defer func() {
		err = multiCloseErr(err, f.Close())
	}()

	w := bufio.NewWriter(f)
	fmt.Fprintln(w, "OFF")
	fmt.Fprintf(w, "%d %d 0\n", 3*m.Size(), m.Size())
	for _, tri := range m.Triangles() {
		for _, p := range tri.Points() {
			fmt.Fprintf(w, "%.9g %.9g %.9g\n", p.X, p.Y, p.Z)
		}
	}
	for i := range m.Triangles() {
		fmt.Fprintf(w, "3 %d %d %d\n", 3*i, 3*i+1, 3*i+2)
	}
	return w.Flush()
}
