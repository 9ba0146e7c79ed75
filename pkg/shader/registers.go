package shader

import "github.com/df07/spectral-tracer/pkg/core"

// register is an index into one of the VM's three typed banks. Program
// compilation assigns registers densely starting at zero; bankSizes on
// the compiled Program tells the VM how large to grow each bank before
// a run.
type register int

// bankSizes records the high-water mark of each register bank so a VM
// can preallocate once per program instead of growing slices instruction
// by instruction.
type bankSizes struct {
	number int
	vector int
	rgb    int
}

// registers is the VM's live evaluation state: three typed scratch
// banks resized (not zeroed) and reused between runs, mirroring the Rust original's
// number/vector/rgb register files.
type registers struct {
	number []float64
	vector []core.Vec4
	rgb    []core.Vec3
}

func (r *registers) reset(sizes bankSizes) {
	if cap(r.number) < sizes.number {
		r.number = make([]float64, sizes.number)
	} else {
		r.number = r.number[:sizes.number]
	}
	if cap(r.vector) < sizes.vector {
		r.vector = make([]core.Vec4, sizes.vector)
	} else {
		r.vector = r.vector[:sizes.vector]
	}
	if cap(r.rgb) < sizes.rgb {
		r.rgb = make([]core.Vec3, sizes.rgb)
	} else {
		r.rgb = r.rgb[:sizes.rgb]
	}
}

func (r *registers) num(reg register) float64       { return r.number[reg] }
func (r *registers) setNum(reg register, v float64)  { r.number[reg] = v }
func (r *registers) vec(reg register) core.Vec4      { return r.vector[reg] }
func (r *registers) setVec(reg register, v core.Vec4) { r.vector[reg] = v }
func (r *registers) rgbv(reg register) core.Vec3     { return r.rgb[reg] }
func (r *registers) setRgb(reg register, v core.Vec3) { r.rgb[reg] = v }
