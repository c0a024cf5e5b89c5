package renderable

type MeshBuilderOption func(*meshImpl)

// WithRotationSpeed sets the mesh's Y-axis spin.
//
// Parameters:
//   - speed: radians per simulation step
//
// Returns:
//   - MeshBuilderOption: a function that sets the rotation speed
func WithRotationSpeed(speed float32) MeshBuilderOption {
	return func(m *meshImpl) {
		m.rotationSpeed = speed
	}
}

// WithInitialRotation sets the mesh's starting Y-axis rotation.
//
// Parameters:
//   - angle: rotation angle in radians
//
// Returns:
//   - MeshBuilderOption: a function that sets the initial rotation
func WithInitialRotation(angle float32) MeshBuilderOption {
	return func(m *meshImpl) {
		m.rotation = angle
	}
}
