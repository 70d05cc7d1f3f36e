package images

import (
	"bytes"
	"fmt"
	"image"

	"github.com/bbrks/go-blurhash"
	"github.com/disintegration/gift"
)

// blurHashSize is the long edge of the thumbnail BlurHash is computed from.
// The placeholder is low resolution, so a 64px thumbnail gives the same
// hash as the full image in a fraction of the time.
const blurHashSize = 64

// BlurHash encodes img as a 4x3 component BlurHash placeholder.
func BlurHash(img image.Image) (string, error) {
	hash, err := blurhash.Encode(4, 3, thumbnailForBlurHash(img))
	if err != nil {
		return "", fmt.Errorf("encode blurhash: %w", err)
	}
	return hash, nil
}

// ComputeBlurHash decodes an encoded image and returns its BlurHash.
func ComputeBlurHash(data []byte) (string, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("decode image: %w", err)
	}
	return BlurHash(img)
}

func thumbnailForBlurHash(img image.Image) image.Image {
	b := img.Bounds()
	if b.Dx() <= blurHashSize && b.Dy() <= blurHashSize {
		return img
	}

	var g *gift.GIFT
	if b.Dx() >= b.Dy() {
		g = gift.New(gift.Resize(blurHashSize, 0, gift.BoxResampling))
	} else {
		g = gift.New(gift.Resize(0, blurHashSize, gift.BoxResampling))
	}
	dst := image.NewNRGBA(g.Bounds(b))
	g.Draw(dst, img)
	return dst
}
