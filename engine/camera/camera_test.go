package camera

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"
)

func float32At(raw []byte, offset int) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(raw[offset : offset+4]))
}

func TestPackUniforms_Layout(t *testing.T) {
	assert := assert.New(t)

	c := NewCamera(
		WithPosition(1, 2, 3),
		WithTarget(0, 0, 0),
		WithFov(math32.Pi/3),
		WithAspect(16.0/9.0),
	)

	raw := c.PackUniforms()
	assert.Len(raw, UniformSize)

	// Bytes 0-63: the column-major view-projection matrix.
	vp := c.ViewProjectionMatrix()
	for i := 0; i < 16; i++ {
		assert.Equal(vp[i], float32At(raw, i*4), "matrix element %d", i)
	}

	// Bytes 64-75: the world position.
	assert.Equal(float32(1), float32At(raw, 64))
	assert.Equal(float32(2), float32At(raw, 68))
	assert.Equal(float32(3), float32At(raw, 72))

	// Bytes 76-79: alignment padding.
	assert.Equal(float32(0), float32At(raw, 76))
}

func TestPackUniforms_ReturnsFreshSlice(t *testing.T) {
	assert := assert.New(t)

	c := NewCamera()
	a := c.PackUniforms()
	a[0] = 0xFF
	b := c.PackUniforms()
	assert.NotEqual(a[0], b[0])
}

func TestSetters_UpdateMatricesEagerly(t *testing.T) {
	assert := assert.New(t)

	c := NewCamera(WithPosition(0, 0, 5), WithTarget(0, 0, 0))
	before := c.ViewProjectionMatrix()

	c.SetPosition(0, 0, 10)
	after := c.ViewProjectionMatrix()
	assert.NotEqual(before, after)

	x, y, z := c.Position()
	assert.Equal(float32(0), x)
	assert.Equal(float32(0), y)
	assert.Equal(float32(10), z)
}

func TestViewMatrix_MapsTargetOntoViewAxis(t *testing.T) {
	assert := assert.New(t)

	c := NewCamera(WithPosition(0, 0, 5), WithTarget(0, 0, 0))
	view := c.ViewMatrix()

	// The origin is 5 units ahead of the camera, down -Z in view space.
	z := view[2]*0 + view[6]*0 + view[10]*0 + view[14]
	assert.InDelta(-5, z, 1e-6)
}

func TestDefaults(t *testing.T) {
	assert := assert.New(t)

	c := NewCamera()
	x, y, z := c.Position()
	assert.Equal(float32(0), x)
	assert.Equal(float32(0), y)
	assert.Equal(float32(5), z)
	assert.InDelta(float64(math32.Pi/4), float64(c.Fov()), 1e-6)
	assert.Equal(float32(1), c.Aspect())
	assert.Equal(float32(0.1), c.Near())
	assert.Equal(float32(100), c.Far())
}

func TestBindGroup_NilBeforeBinding(t *testing.T) {
	assert := assert.New(t)

	c := NewCamera()
	assert.Nil(c.BindGroup())

	// WriteUniforms before binding is a safe no-op.
	c.WriteUniforms(nil)
}

func TestUniformBindGroupLayoutDescriptor(t *testing.T) {
	assert := assert.New(t)

	desc := UniformBindGroupLayoutDescriptor()
	assert.Len(desc.Entries, 1)
	assert.Equal(uint32(0), desc.Entries[0].Binding)
	assert.Equal(uint64(UniformSize), desc.Entries[0].Buffer.MinBindingSize)
}
