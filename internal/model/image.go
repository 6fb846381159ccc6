package model

import "fmt"

// ImageData is either an ImageURL or an ImageBase64. Use a type switch to
// tell them apart; no other implementations exist.
type ImageData interface {
	isImageData()
}

// ImageURL references an image by location.
type ImageURL struct {
	URL string
}

// ImageBase64 carries the encoded image bytes inline.
type ImageBase64 struct {
	Data string
}

func (ImageURL) isImageData()    {}
func (ImageBase64) isImageData() {}

// ImageJSON is the wire form of ImageData: exactly one field is set.
type ImageJSON struct {
	URL    *string `json:"url,omitempty"`
	Base64 *string `json:"base64,omitempty"`
}

// EncodeImage converts an ImageData into its wire form.
func EncodeImage(img ImageData) (ImageJSON, error) {
	switch v := img.(type) {
	case ImageURL:
		return ImageJSON{URL: &v.URL}, nil
	case ImageBase64:
		return ImageJSON{Base64: &v.Data}, nil
	default:
		return ImageJSON{}, fmt.Errorf("unknown image variant %T", img)
	}
}

// Decode converts the wire form back into ImageData.
func (j ImageJSON) Decode() (ImageData, error) {
	switch {
	case j.URL != nil && j.Base64 != nil:
		return nil, fmt.Errorf("image has both url and base64")
	case j.URL != nil:
		return ImageURL{URL: *j.URL}, nil
	case j.Base64 != nil:
		return ImageBase64{Data: *j.Base64}, nil
	default:
		return nil, fmt.Errorf("image needs one of url or base64")
	}
}
