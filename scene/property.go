package scene

import "maps"

// PropertyBindingID names an animated scalar property.
type PropertyBindingID uint64

// OpacityBinding is either a constant opacity or a reference to an animated
// property.
type OpacityBinding struct {
	Binding  PropertyBindingID
	Value    float32
	Animated bool
}

// Opacity returns a constant binding.
func Opacity(v float32) OpacityBinding {
	return OpacityBinding{Value: v}
}

// AnimatedOpacity returns a binding that follows property id.
func AnimatedOpacity(id PropertyBindingID) OpacityBinding {
	return OpacityBinding{Binding: id, Animated: true}
}

// Properties stores the current values of animated float properties.
type Properties struct {
	floats map[PropertyBindingID]float32
}

// NewProperties returns an empty store.
func NewProperties() *Properties {
	return &Properties{floats: make(map[PropertyBindingID]float32)}
}

// SetFloat sets the value of id.
func (p *Properties) SetFloat(id PropertyBindingID, v float32) {
	p.floats[id] = v
}

// Float returns the value of id.
func (p *Properties) Float(id PropertyBindingID) (float32, bool) {
	v, ok := p.floats[id]
	return v, ok
}

// Remove forgets id.
func (p *Properties) Remove(id PropertyBindingID) {
	delete(p.floats, id)
}

// FloatProperties returns a snapshot of every float property.
func (p *Properties) FloatProperties() map[PropertyBindingID]float32 {
	return maps.Clone(p.floats)
}
