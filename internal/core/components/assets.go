package components

import (
	"fmt"

	"github.com/zeusync/viewsync/internal/core/fields"
	"github.com/zeusync/viewsync/internal/core/schema/registry"
	"github.com/zeusync/viewsync/internal/core/view"
)

const (
	ResourceOptionBuffer = iota
)

const (
	ImageOptionFormat = iota
	ImageOptionResource
)

const (
	TextureOptionImage = iota
)

const (
	SamplerOptionInterpolate = iota
	SamplerOptionUseMipmaps
	SamplerOptionClamp
)

type ImageFormat int32

const (
	ImageFormatPNG ImageFormat = iota
	ImageFormatPPM
)

type ResourceHandle struct {
	Buffer []byte
}

type ImageHandle struct {
	Format   ImageFormat
	Resource *ResourceHandle
}

type TextureHandle struct {
	Image *ImageHandle
}

type SamplerHandle struct {
	Interpolate bool
	UseMipmaps  bool
	Clamp       bool
}

func resourceType() *view.ComponentType {
	return &view.ComponentType{
		ID: registry.TypeResource,
		Options: []view.Option{
			{Name: "buffer", Kind: fields.KindBytes},
		},
		Behavior: view.Funcs{
			ActivateFunc: func(c *view.Component) (any, error) {
				return &ResourceHandle{Buffer: c.Bytes(ResourceOptionBuffer)}, nil
			},
		},
	}
}

func imageType() *view.ComponentType {
	return &view.ComponentType{
		ID: registry.TypeImage,
		Options: []view.Option{
			{Name: "format", Kind: fields.KindInt},
			{Name: "resource", Kind: fields.KindEntityRef, Target: registry.TypeResource},
		},
		Behavior: view.Funcs{
			ActivateFunc: func(c *view.Component) (any, error) {
				format := ImageFormat(c.Int(ImageOptionFormat))
				if format != ImageFormatPNG && format != ImageFormatPPM {
					return nil, fmt.Errorf("unknown image format %d", format)
				}
				resource, _ := c.DependencyHandle(ImageOptionResource).(*ResourceHandle)
				return &ImageHandle{Format: format, Resource: resource}, nil
			},
		},
	}
}

func textureType() *view.ComponentType {
	return &view.ComponentType{
		ID: registry.TypeTexture,
		Options: []view.Option{
			{Name: "image", Kind: fields.KindEntityRef, Target: registry.TypeImage},
		},
		Behavior: view.Funcs{
			ActivateFunc: func(c *view.Component) (any, error) {
				image, _ := c.DependencyHandle(TextureOptionImage).(*ImageHandle)
				return &TextureHandle{Image: image}, nil
			},
		},
	}
}

func samplerType() *view.ComponentType {
	return &view.ComponentType{
		ID: registry.TypeSampler,
		Options: []view.Option{
			{Name: "interpolate", Kind: fields.KindBool, Default: fields.Bool(true)},
			{Name: "use_mipmaps", Kind: fields.KindBool},
			{Name: "clamp", Kind: fields.KindBool},
		},
		Behavior: view.Funcs{
			ActivateFunc: func(c *view.Component) (any, error) {
				return &SamplerHandle{
					Interpolate: c.Bool(SamplerOptionInterpolate),
					UseMipmaps:  c.Bool(SamplerOptionUseMipmaps),
					Clamp:       c.Bool(SamplerOptionClamp),
				}, nil
			},
		},
	}
}
