// Package scene holds the slice of the display-list model that the tile
// cache reads: primitives with their content identity, clip chains,
// image keys and animated property bindings.
package scene

import (
	"seehuhn.de/go/geom/rect"

	"github.com/gogpu/tilecache/spatial"
)

// ContentID is the interned identity of a primitive or clip template. Two
// items share an id exactly when their shape is the same, so the id is
// stable across frames and across display-list rebuilds.
type ContentID uint64

// ImageKey names an image resource whose pixels may be updated externally.
type ImageKey uint64

// Kind classifies a primitive for dependency tracking.
type Kind uint8

// Primitive kinds.
const (
	KindRectangle Kind = iota
	KindImage
	KindYUVImage
	KindTextRun
	KindLineDecoration
	KindBorder
	KindImageBorder
	KindLinearGradient
	KindRadialGradient
	KindClear
	KindPicture
)

var kindNames = [...]string{
	KindRectangle:      "Rectangle",
	KindImage:          "Image",
	KindYUVImage:       "YUVImage",
	KindTextRun:        "TextRun",
	KindLineDecoration: "LineDecoration",
	KindBorder:         "Border",
	KindImageBorder:    "ImageBorder",
	KindLinearGradient: "LinearGradient",
	KindRadialGradient: "RadialGradient",
	KindClear:          "Clear",
	KindPicture:        "Picture",
}

// String returns the kind name.
func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "Unknown"
}

// Primitive is one display item as seen by the tile cache.
type Primitive struct {
	// ID is the content identity of the primitive template.
	ID   ContentID
	Kind Kind

	// LocalRect is the primitive's bounds in the space of Spatial.
	LocalRect rect.Rect

	// LocalClipRect bounds the primitive in the same space. A zero rect
	// means unclipped.
	LocalClipRect rect.Rect

	Spatial   spatial.NodeID
	ClipChain ClipChainID

	// ImageKeys lists the images an Image, YUVImage or ImageBorder
	// primitive samples.
	ImageKeys []ImageKey

	// Opacity lists the opacity bindings of a Rectangle or Image, or the
	// opacity filter of a Picture.
	Opacity []OpacityBinding

	// External marks content produced outside the renderer (for example a
	// video frame). Such primitives are never cached.
	External bool

	// Children holds the primitives of a Picture.
	Children []Primitive
}

// IsCacheable reports whether tiles covering p may keep rasterized content.
func (p *Primitive) IsCacheable() bool {
	return !p.External
}
