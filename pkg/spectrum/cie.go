package spectrum

import "math"

// CIE holds the fixed response curves spec.md names in two places: the
// RGB<->spectrum conversion the shading VM's RgbSpectrumValue instruction
// and rgb->number bank conversion use, and the CIE-XYZ matching functions
// the final sRGB post-process (spec.md §6 "Output image") integrates
// against. Both are small closed-form approximations rather than sampled
// tables, so a Program can call them per-instruction with no allocation.

// gaussian is the multi-lobe building block both curve families use.
func gaussian(x, mean, sigma1, sigma2 float64) float64 {
	sigma := sigma1
	if x > mean {
		sigma = sigma2
	}
	t := (x - mean) / sigma
	return math.Exp(-0.5 * t * t)
}

// CIEX, CIEY, CIEZ are the Wyman et al. multi-Gaussian fit to the CIE
// 1931 2-degree color matching functions, accurate to within a few
// percent of the tabulated curves and cheap enough to evaluate per VM
// instruction invocation.
func CIEX(wavelength float64) float64 {
	return 1.056*gaussian(wavelength, 599.8, 37.9, 31.0) +
		0.362*gaussian(wavelength, 442.0, 16.0, 26.7) -
		0.065*gaussian(wavelength, 501.1, 20.4, 26.2)
}

func CIEY(wavelength float64) float64 {
	return 0.821*gaussian(wavelength, 568.8, 46.9, 40.5) +
		0.286*gaussian(wavelength, 530.9, 16.3, 31.1)
}

func CIEZ(wavelength float64) float64 {
	return 1.217*gaussian(wavelength, 437.0, 11.8, 36.0) +
		0.681*gaussian(wavelength, 459.0, 26.0, 13.8)
}

// XYZToSRGBLinear converts CIE XYZ (D65 white point) to linear sRGB,
// the matrix spec.md §6's "hard-coded CIE-XYZ -> linear sRGB response
// curves" step applies before gamma encoding.
func XYZToSRGBLinear(x, y, z float64) (r, g, b float64) {
	r = 3.2406*x - 1.5372*y - 0.4986*z
	g = -0.9689*x + 1.8758*y + 0.0415*z
	b = 0.0557*x - 0.2040*y + 1.0570*z
	return
}

// GammaEncodeSRGB applies the sRGB transfer function to a linear
// channel value already clamped to [0,1].
func GammaEncodeSRGB(c float64) float64 {
	if c <= 0.0031308 {
		return 12.92 * c
	}
	return 1.055*math.Pow(c, 1/2.4) - 0.055
}

// rgbResponseR/G/B are the fixed, smooth RGB-to-spectrum response curves
// spec.md §4.D's RgbSpectrumValue instruction integrates an RGB triple
// against to obtain a monochromatic intensity at one wavelength. Their
// exact shape is not specified; these are simple unimodal bumps
// centered at representative red/green/blue wavelengths, linear in the
// RGB input so Mix/Binary compile-time linearity (testable property 6)
// holds regardless of the curve shape chosen.
func rgbResponseR(wavelength float64) float64 { return gaussian(wavelength, 611, 47, 47) }
func rgbResponseG(wavelength float64) float64 { return gaussian(wavelength, 549, 40, 40) }
func rgbResponseB(wavelength float64) float64 { return gaussian(wavelength, 465, 38, 38) }

// RGBResponse returns the (R,G,B) response curve values at wavelength.
func RGBResponse(wavelength float64) (r, g, b float64) {
	return rgbResponseR(wavelength), rgbResponseG(wavelength), rgbResponseB(wavelength)
}

// RGBToSpectrumSample integrates an RGB color into a monochromatic
// intensity at one wavelength: the VM's RgbSpectrumValue instruction.
func RGBToSpectrumSample(r, g, b, wavelength float64) float64 {
	rr, gg, bb := RGBResponse(wavelength)
	return r*rr + g*gg + b*bb
}

// CIEYNormalization integrates CIEY over [lo, hi] with a fixed-step
// Riemann sum, used to normalize a film's per-bin spectral integration
// so that a flat unit-radiance spectrum maps to Y=1 regardless of the
// configured wavelength span (spec.md §6's final XYZ integration step).
func CIEYNormalization(lo, hi float64) float64 {
	const steps = 256
	step := (hi - lo) / steps
	sum := 0.0
	for i := 0; i < steps; i++ {
		wl := lo + (float64(i)+0.5)*step
		sum += CIEY(wl) * step
	}
	return sum
}

// SpectrumSampleToRGB is the rgb<-number conversion direction used when a
// monochromatic VM value feeds an rgb-banked consumer: it is broadcast
// to all three channels rather than inverted through the response
// curves (compiler contract in spec.md §4.D: "number -> rgb by
// broadcast").
func SpectrumSampleToRGB(v float64) (r, g, b float64) { return v, v, v }

// Blackbody evaluates Planck's law for spectral radiance (normalized to
// a convenient [0,~1] display range) at the given wavelength (nm) and
// temperature (Kelvin), the VM's Blackbody instruction.
func Blackbody(wavelengthNM, temperatureK float64) float64 {
	if temperatureK <= 0 {
		return 0
	}
	const h = 6.62607015e-34  // Planck constant
	const c = 2.99792458e8    // speed of light
	const kB = 1.380649e-23   // Boltzmann constant
	lambda := wavelengthNM * 1e-9
	num := 2 * h * c * c
	denom := math.Pow(lambda, 5) * (math.Exp((h*c)/(lambda*kB*temperatureK)) - 1)
	if denom == 0 || math.IsInf(denom, 0) || math.IsNaN(denom) {
		return 0
	}
	// Normalize by the peak radiance at this temperature (Wien's
	// displacement) so values stay in a renderer-friendly range instead
	// of astrophysical SI units.
	peakLambda := 2.897771955e-3 / temperatureK
	peakDenom := math.Pow(peakLambda, 5) * (math.Exp((h*c)/(peakLambda*kB*temperatureK)) - 1)
	if peakDenom == 0 {
		return 0
	}
	peak := num / peakDenom
	return (num / denom) / peak
}
