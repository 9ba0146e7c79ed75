package shader

// ValueKind is the type lattice the compiler promotes between: every
// expression node produces exactly one of these, and the compiler
// inserts a Convert instruction wherever an operator's operand arrives
// in the wrong kind.
type ValueKind int

const (
	KindNumber ValueKind = iota
	KindVector
	KindRgb
)

// promotionRank orders the three kinds so the compiler can pick the
// wider of two operand kinds for a binary/mix node: Number promotes
// into Vector or Rgb freely (broadcast), but Vector and Rgb never
// implicitly convert into each other without an explicit node, matching
// the conversion table a texture/material expression tree needs.
var promotionRank = map[ValueKind]int{KindNumber: 0, KindVector: 1, KindRgb: 1}

// BinaryOp enumerates the arithmetic the expression language supports
// on Number, Vector and Rgb operands alike.
type BinaryOp int

const (
	OpAdd BinaryOp = iota
	OpSub
	OpMul
	OpDiv
	OpMin
	OpMax
)

// ExprID indexes a node in an Arena. Identical sub-expressions compiled
// through the same Arena share one ExprID (the arena is a DAG, not a
// tree), so a diamond-shaped dependency (e.g. the same texture lookup
// feeding two blend branches) is only evaluated once per VM run.
type ExprID int

// NoExpr marks an optional expression field as unset, letting callers
// (e.g. a Refractive leaf's EnvIOR) omit a parameter and have it
// default rather than resolve to the ambiguous zero ExprID, which is a
// valid node index once anything has been built against the Arena.
const NoExpr ExprID = -1

// NumberInput and VectorInput identify the bound variables a compiled
// Program reads from its caller at evaluation time: the hit's
// wavelength, shading normal, incident direction and UV coordinate.
type NumberInput int

const (
	InputWavelength NumberInput = iota
)

type VectorInput int

const (
	InputNormal VectorInput = iota
	InputIncident
	InputUV
)

// node is one arena entry. Exactly one of the typed fields is
// meaningful, selected by kind.
type node struct {
	kind     nodeKind
	number   float64
	a, b, c, d ExprID // operand(s); meaning depends on kind
	op       BinaryOp
	spectrum int // SpectrumID for kindSpectrum/kindRgbSpectrum
	texture  int // TextureID for kindColorTexture/kindMonoTexture
	numIn    NumberInput
	vecIn    VectorInput
}

type nodeKind int

const (
	kindNumberConst nodeKind = iota
	kindNumberInput
	kindVectorInput
	kindVector    // compose x,y,z,w from four Number exprs (a,b,c,d)
	kindRgb       // compose r,g,b from three Number exprs (a,b,c)
	kindSpectrum  // sample named spectrum at wavelength (a) -> Number
	kindRgbSpectrum // evaluate RGB response curves at wavelength (a) against rgb source (b) -> Number
	kindFresnel   // ior(a), envIOR(b), normal(c), incident(d) -> Number
	kindBlackbody // wavelength(a), temperature(b) -> Number
	kindColorTexture // uv(a), texture id -> Rgb
	kindMonoTexture  // uv(a), texture id -> Number
	kindBinary    // a op b, operand kind is the wider of the two
	kindMix       // mix(a, b, factor=c), operand kind is the wider of a/b
	kindClamp     // clamp(value=a, min=b, max=c) -> Number
)

// Arena owns a set of expression nodes and memoizes structurally
// identical ones so they share one ExprID. Each Compile call still
// produces a new Program.
type Arena struct {
	nodes []node
	memo  map[node]ExprID
}

// NewArena returns an empty expression arena.
func NewArena() *Arena {
	return &Arena{memo: make(map[node]ExprID)}
}

func (a *Arena) intern(n node) ExprID {
	if id, ok := a.memo[n]; ok {
		return id
	}
	id := ExprID(len(a.nodes))
	a.nodes = append(a.nodes, n)
	a.memo[n] = id
	return id
}

func (a *Arena) Number(v float64) ExprID {
	return a.intern(node{kind: kindNumberConst, number: v})
}

func (a *Arena) NumberInput(id NumberInput) ExprID {
	return a.intern(node{kind: kindNumberInput, numIn: id})
}

func (a *Arena) VectorInput(id VectorInput) ExprID {
	return a.intern(node{kind: kindVectorInput, vecIn: id})
}

func (a *Arena) Vector(x, y, z, w ExprID) ExprID {
	return a.intern(node{kind: kindVector, a: x, b: y, c: z, d: w})
}

func (a *Arena) Rgb(r, g, b ExprID) ExprID {
	return a.intern(node{kind: kindRgb, a: r, b: g, c: b})
}

func (a *Arena) Spectrum(spectrumID int, wavelength ExprID) ExprID {
	return a.intern(node{kind: kindSpectrum, spectrum: spectrumID, a: wavelength})
}

func (a *Arena) RgbSpectrum(wavelength, rgbSource ExprID) ExprID {
	return a.intern(node{kind: kindRgbSpectrum, a: wavelength, b: rgbSource})
}

func (a *Arena) Fresnel(ior, envIOR, normal, incident ExprID) ExprID {
	return a.intern(node{kind: kindFresnel, a: ior, b: envIOR, c: normal, d: incident})
}

func (a *Arena) Blackbody(wavelength, temperature ExprID) ExprID {
	return a.intern(node{kind: kindBlackbody, a: wavelength, b: temperature})
}

func (a *Arena) ColorTexture(textureID int, uv ExprID) ExprID {
	return a.intern(node{kind: kindColorTexture, texture: textureID, a: uv})
}

func (a *Arena) MonoTexture(textureID int, uv ExprID) ExprID {
	return a.intern(node{kind: kindMonoTexture, texture: textureID, a: uv})
}

func (a *Arena) Binary(op BinaryOp, lhs, rhs ExprID) ExprID {
	return a.intern(node{kind: kindBinary, op: op, a: lhs, b: rhs})
}

func (a *Arena) Mix(lhs, rhs, factor ExprID) ExprID {
	return a.intern(node{kind: kindMix, a: lhs, b: rhs, c: factor})
}

// Clamp restricts value to [min, max], spec.md §3's Expression node and
// §4.D's Clamp instruction.
func (a *Arena) Clamp(value, min, max ExprID) ExprID {
	return a.intern(node{kind: kindClamp, a: value, b: min, c: max})
}
