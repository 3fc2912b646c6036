package icon

import "errors"

var (
	// ErrNoCandidates is returned by Resolve for an empty candidate list.
	ErrNoCandidates = errors.New("no icon candidates")

	// ErrNoUsableIcon is returned when every candidate failed to probe,
	// download, or decode.
	ErrNoUsableIcon = errors.New("no usable icon")

	// ErrDecode is returned when image dimensions cannot be determined or
	// describe an empty image.
	ErrDecode = errors.New("failed to decode image size")

	// ErrInvalidKey is returned when an icon file name cannot be derived safely.
	ErrInvalidKey = errors.New("invalid icon key")
)
