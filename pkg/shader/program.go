package shader

import (
	"github.com/df07/spectral-tracer/pkg/core"
	"github.com/df07/spectral-tracer/pkg/spectrum"
)

// Program is a compiled expression: a flat, dependency-ordered
// instruction stream plus the register it leaves its result in. It is
// immutable and safe to evaluate concurrently from any number of
// worker goroutines, each through its own VM.
type Program struct {
	instructions []instruction
	output       register
	outputKind   ValueKind
	sizes        bankSizes
}

// Kind reports the value kind this program produces.
func (p *Program) Kind() ValueKind { return p.outputKind }

// Input supplies the bound variables ("the shading context") a
// compiled program reads: the sample's wavelength, the surface's
// shading normal, the incident ray direction and its UV coordinate.
type Input struct {
	Wavelength float64
	Normal     core.Vec4
	Incident   core.Vec4
	UV         core.Vec4
}

func (in Input) number(id NumberInput) float64 {
	switch id {
	case InputWavelength:
		return in.Wavelength
	}
	return 0
}

func (in Input) vector(id VectorInput) core.Vec4 {
	switch id {
	case InputNormal:
		return in.Normal
	case InputIncident:
		return in.Incident
	case InputUV:
		return in.UV
	}
	return core.Vec4{}
}

// VM is a reusable evaluation context: its register banks are grown
// once to the largest program it has run and resized (not zeroed) to
// the current program before each run, so a worker goroutine keeps one VM for its whole lifetime instead of
// allocating scratch space per shading point.
type VM struct {
	regs registers
}

// NewVM returns a VM with empty register banks.
func NewVM() *VM { return &VM{} }

// RunNumber evaluates p, which must have Kind() == KindNumber, and
// returns its result.
func (vm *VM) RunNumber(p *Program, in Input, res Resources) float64 {
	vm.run(p, in, res)
	return vm.regs.num(p.output)
}

// RunVector evaluates p, which must have Kind() == KindVector.
func (vm *VM) RunVector(p *Program, in Input, res Resources) core.Vec4 {
	vm.run(p, in, res)
	return vm.regs.vec(p.output)
}

// RunRgb evaluates p, which must have Kind() == KindRgb.
func (vm *VM) RunRgb(p *Program, in Input, res Resources) core.Vec3 {
	vm.run(p, in, res)
	return vm.regs.rgbv(p.output)
}

func (vm *VM) run(p *Program, in Input, res Resources) {
	vm.regs.reset(p.sizes)
	for _, instr := range p.instructions {
		vm.exec(instr, in, res)
	}
}

func (vm *VM) exec(instr instruction, in Input, res Resources) {
	r := &vm.regs
	switch instr.op {
	case opNumberConst:
		r.setNum(instr.dst, instr.number)
	case opNumberInput:
		r.setNum(instr.dst, in.number(instr.numIn))
	case opVectorInput:
		r.setVec(instr.dst, in.vector(instr.vecIn))
	case opComposeVector:
		r.setVec(instr.dst, core.Vec4{X: r.num(instr.srcA), Y: r.num(instr.srcB), Z: r.num(instr.srcC), W: r.num(instr.srcD)})
	case opComposeRgb:
		r.setRgb(instr.dst, core.Vec3{X: r.num(instr.srcA), Y: r.num(instr.srcB), Z: r.num(instr.srcC)})
	case opSpectrum:
		r.setNum(instr.dst, res.SampleSpectrum(instr.spectrumID, r.num(instr.srcA)))
	case opRgbSpectrum:
		r.setNum(instr.dst, evalRgbSpectrum(r.rgbv(instr.srcB), r.num(instr.srcA)))
	case opFresnel:
		ior := r.num(instr.srcA)
		envIOR := r.num(instr.srcB)
		normal := r.vec(instr.srcC).Vec3()
		incident := r.vec(instr.srcD).Vec3()
		r.setNum(instr.dst, evalFresnel(ior, envIOR, normal, incident))
	case opBlackbody:
		r.setNum(instr.dst, evalBlackbody(r.num(instr.srcA), r.num(instr.srcB)))
	case opColorTexture:
		uv := r.vec(instr.srcA)
		r.setRgb(instr.dst, res.SampleColorTexture(instr.textureID, core.Vec2{X: uv.X, Y: uv.Y}))
	case opMonoTexture:
		uv := r.vec(instr.srcA)
		r.setNum(instr.dst, res.SampleMonoTexture(instr.textureID, core.Vec2{X: uv.X, Y: uv.Y}))
	case opBinaryNumber:
		r.setNum(instr.dst, binaryNumber(instr.binOp, r.num(instr.srcA), r.num(instr.srcB)))
	case opBinaryVector:
		r.setVec(instr.dst, binaryVector(instr.binOp, r.vec(instr.srcA), r.vec(instr.srcB)))
	case opBinaryRgb:
		r.setRgb(instr.dst, binaryRgb(instr.binOp, r.rgbv(instr.srcA), r.rgbv(instr.srcB)))
	case opMixNumber:
		f := spectrum.Clamp01(r.num(instr.srcC))
		r.setNum(instr.dst, r.num(instr.srcA)*(1-f)+r.num(instr.srcB)*f)
	case opMixVector:
		f := spectrum.Clamp01(r.num(instr.srcC))
		a, b := r.vec(instr.srcA), r.vec(instr.srcB)
		r.setVec(instr.dst, core.Vec4{X: a.X*(1-f) + b.X*f, Y: a.Y*(1-f) + b.Y*f, Z: a.Z*(1-f) + b.Z*f, W: a.W*(1-f) + b.W*f})
	case opMixRgb:
		f := spectrum.Clamp01(r.num(instr.srcC))
		a, b := r.rgbv(instr.srcA), r.rgbv(instr.srcB)
		r.setRgb(instr.dst, core.Vec3{X: a.X*(1-f) + b.X*f, Y: a.Y*(1-f) + b.Y*f, Z: a.Z*(1-f) + b.Z*f})
	case opConvertNumberToVector:
		n := r.num(instr.srcA)
		r.setVec(instr.dst, core.Vec4{X: n, Y: n, Z: n, W: n})
	case opConvertNumberToRgb:
		n := r.num(instr.srcA)
		r.setRgb(instr.dst, core.Vec3{X: n, Y: n, Z: n})
	case opConvertVectorToNumber:
		v := r.vec(instr.srcA)
		r.setNum(instr.dst, v.Vec3().Luminance())
	case opConvertRgbToNumber:
		r.setNum(instr.dst, r.rgbv(instr.srcA).Luminance())
	case opConvertRgbToVector:
		c := r.rgbv(instr.srcA)
		r.setVec(instr.dst, core.Vec4{X: c.X*2 - 1, Y: c.Y*2 - 1, Z: c.Z*2 - 1, W: 0})
	case opClamp:
		v, lo, hi := r.num(instr.srcA), r.num(instr.srcB), r.num(instr.srcC)
		if v < lo {
			v = lo
		} else if v > hi {
			v = hi
		}
		r.setNum(instr.dst, v)
	}
}

func binaryNumber(op BinaryOp, a, b float64) float64 {
	switch op {
	case OpAdd:
		return a + b
	case OpSub:
		return a - b
	case OpMul:
		return a * b
	case OpDiv:
		if b == 0 {
			return 0
		}
		return a / b
	case OpMin:
		if a < b {
			return a
		}
		return b
	case OpMax:
		if a > b {
			return a
		}
		return b
	}
	return 0
}

func binaryVector(op BinaryOp, a, b core.Vec4) core.Vec4 {
	return core.Vec4{
		X: binaryNumber(op, a.X, b.X),
		Y: binaryNumber(op, a.Y, b.Y),
		Z: binaryNumber(op, a.Z, b.Z),
		W: binaryNumber(op, a.W, b.W),
	}
}

func binaryRgb(op BinaryOp, a, b core.Vec3) core.Vec3 {
	return core.Vec3{
		X: binaryNumber(op, a.X, b.X),
		Y: binaryNumber(op, a.Y, b.Y),
		Z: binaryNumber(op, a.Z, b.Z),
	}
}
