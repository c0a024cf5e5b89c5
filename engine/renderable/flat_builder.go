package renderable

type FlatBuilderOption func(*flatImpl)

// WithColor sets the fill color.
//
// Parameters:
//   - r, g, b, a: color components in [0, 1]
//
// Returns:
//   - FlatBuilderOption: a function that sets the color
func WithColor(r, g, b, a float32) FlatBuilderOption {
	return func(f *flatImpl) {
		f.color = [4]float32{r, g, b, a}
	}
}
