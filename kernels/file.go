package kernels

import (
	"bufio"
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/chenzhekl/goply"
	"github.com/edaniels/golog"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"github.com/spf13/cast"
	"go.uber.org/multierr"
	"go.viam.com/utils"
	"gonum.org/v1/gonum/num/quat"
)

// ObservationDefaults carries the bandwidths assigned to kernels read from
// files that do not store any.
type ObservationDefaults struct {
	LocH float64
	OriH float64
}

// ReadObservations reads a kernel collection from a file, dispatching on the
// extension: .ply point clouds (with optional normals and colors) or the
// whitespace observation format.
func ReadObservations(fn string, defaults ObservationDefaults, logger golog.Logger) (*Collection, error) {
	switch filepath.Ext(fn) {
	case ".ply":
		return ReadPLY(fn, defaults, logger)
	default:
		return ReadText(fn, defaults, logger)
	}
}

// ReadPLY reads a PLY point cloud into a collection. Vertices with nx/ny/nz
// properties become projective direction kernels; bare positions become R3
// kernels. red/green/blue properties are kept as color descriptors.
func ReadPLY(fn string, defaults ObservationDefaults, logger golog.Logger) (*Collection, error) {
	//nolint:gosec
	f, err := os.Open(fn)
	if err != nil {
		return nil, errors.Wrap(err, "cannot open point cloud")
	}
	defer utils.UncheckedErrorFunc(f.Close)

	ply := goply.New(f)
	vertices := ply.Elements("vertex")
	if len(vertices) == 0 {
		return nil, errors.Errorf("no vertices in %q", fn)
	}

	_, hasNormals := vertices[0]["nx"]
	_, hasColor := vertices[0]["red"]

	out := NewCollection()
	for _, v := range vertices {
		loc := r3.Vector{
			X: cast.ToFloat64(v["x"]),
			Y: cast.ToFloat64(v["y"]),
			Z: cast.ToFloat64(v["z"]),
		}
		var k Kernel
		if hasNormals {
			dir := r3.Vector{
				X: cast.ToFloat64(v["nx"]),
				Y: cast.ToFloat64(v["ny"]),
				Z: cast.ToFloat64(v["nz"]),
			}
			k = NewR3XS2P(loc, dir)
		} else {
			k = NewR3(loc)
		}
		k.SetLocH(defaults.LocH)
		k.SetOriH(defaults.OriH)
		if hasColor {
			k.SetDescriptor(&ColorDescriptor{Color: color.NRGBA{
				R: uint8(cast.ToUint(v["red"])),
				G: uint8(cast.ToUint(v["green"])),
				B: uint8(cast.ToUint(v["blue"])),
				A: 255,
			}})
		}
		if err := out.Add(k); err != nil {
			return nil, err
		}
	}
	if logger != nil {
		logger.Debugf("read %d kernels from %q", out.Size(), fn)
	}
	return out, nil
}

// ReadText reads the whitespace observation format: one kernel per line,
// "x y z" or "x y z nx ny nz". Blank lines and #-comments are skipped.
func ReadText(fn string, defaults ObservationDefaults, logger golog.Logger) (*Collection, error) {
	//nolint:gosec
	f, err := os.Open(fn)
	if err != nil {
		return nil, errors.Wrap(err, "cannot open observation file")
	}
	defer utils.UncheckedErrorFunc(f.Close)

	out := NewCollection()
	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 3 && len(fields) != 6 {
			return nil, errors.Errorf("%s:%d: expected 3 or 6 fields, got %d", fn, lineNo, len(fields))
		}
		vals := make([]float64, len(fields))
		for i, field := range fields {
			if vals[i], err = strconv.ParseFloat(field, 64); err != nil {
				return nil, errors.Wrapf(err, "%s:%d", fn, lineNo)
			}
		}
		loc := r3.Vector{X: vals[0], Y: vals[1], Z: vals[2]}
		var k Kernel
		if len(vals) == 6 {
			k = NewR3XS2P(loc, r3.Vector{X: vals[3], Y: vals[4], Z: vals[5]})
		} else {
			k = NewR3(loc)
		}
		k.SetLocH(defaults.LocH)
		k.SetOriH(defaults.OriH)
		if err := out.Add(k); err != nil {
			return nil, err
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "reading observation file")
	}
	if out.Empty() {
		return nil, ErrEmptyCollection
	}
	if logger != nil {
		logger.Debugf("read %d kernels from %q", out.Size(), fn)
	}
	return out, nil
}

// WritePLY writes the collection as an ASCII PLY point cloud, including
// normals for direction kernels and colors for kernels carrying a color
// descriptor.
func WritePLY(fn string, c *Collection) (err error) {
	//nolint:gosec
	f, err := os.Create(fn)
	if err != nil {
		return errors.Wrap(err, "cannot create point cloud file")
	}
	defer func() {
		err = multierr.Combine(err, f.Close())
	}()

	hasNormals := c.kernelType == TypeR3XS2 || c.kernelType == TypeR3XS2P
	hasColor := false
	for _, k := range c.kernels {
		if _, ok := k.Descriptor().(*ColorDescriptor); ok {
			hasColor = true
			break
		}
	}

	w := bufio.NewWriter(f)
	fmt.Fprintln(w, "ply")
	fmt.Fprintln(w, "format ascii 1.0")
	fmt.Fprintf(w, "element vertex %d\n", c.Size())
	fmt.Fprintln(w, "property float x\nproperty float y\nproperty float z")
	if hasNormals {
		fmt.Fprintln(w, "property float nx\nproperty float ny\nproperty float nz")
	}
	if hasColor {
		fmt.Fprintln(w, "property uchar red\nproperty uchar green\nproperty uchar blue")
	}
	fmt.Fprintln(w, "end_header")
	for _, k := range c.kernels {
		p := k.Loc()
		fmt.Fprintf(w, "%.9g %.9g %.9g", p.X, p.Y, p.Z)
		if hasNormals {
			d := k.(*R3XS2).dir
			fmt.Fprintf(w, " %.9g %.9g %.9g", d.X, d.Y, d.Z)
		}
		if hasColor {
			rgb := color.NRGBA{}
			if cd, ok := k.Descriptor().(*ColorDescriptor); ok {
				rgb = cd.Color
			}
			fmt.Fprintf(w, " %d %d %d", rgb.R, rgb.G, rgb.B)
		}
		fmt.Fprintln(w)
	}
	return w.Flush()
}

// WritePose serializes a pose as a single line:
// "x y z qw qx qy qz loc_h ori_h weight".
func WritePose(fn string, pose *SE3) (err error) {
	//nolint:gosec
	f, err := os.Create(fn)
	if err != nil {
		return errors.Wrap(err, "cannot create pose file")
	}
	defer func() {
		err = multierr.Combine(err, f.Close())
	}()
	p, q := pose.Loc(), pose.Ori()
	_, err = fmt.Fprintf(f, "%.12g %.12g %.12g %.12g %.12g %.12g %.12g %.12g %.12g %.12g\n",
		p.X, p.Y, p.Z, q.Real, q.Imag, q.Jmag, q.Kmag, pose.LocH(), pose.OriH(), pose.Weight())
	return err
}

// ReadPose reads a pose serialized by WritePose.
func ReadPose(fn string) (*SE3, error) {
	//nolint:gosec
	raw, err := os.ReadFile(fn)
	if err != nil {
		return nil, errors.Wrap(err, "cannot read pose file")
	}
	fields := strings.Fields(string(raw))
	if len(fields) < 7 {
		return nil, errors.Errorf("pose file %q has %d fields, expected at least 7", fn, len(fields))
	}
	vals := make([]float64, len(fields))
	for i, field := range fields {
		if vals[i], err = strconv.ParseFloat(field, 64); err != nil {
			return nil, errors.Wrapf(err, "pose file %q", fn)
		}
	}
	pose := NewSE3(
		r3.Vector{X: vals[0], Y: vals[1], Z: vals[2]},
		quat.Number{Real: vals[3], Imag: vals[4], Jmag: vals[5], Kmag: vals[6]},
	)
	if len(vals) >= 9 {
		pose.SetLocH(vals[7])
		pose.SetOriH(vals[8])
	}
	if len(vals) >= 10 {
		pose.SetWeight(vals[9])
	}
	return pose, nil
}
