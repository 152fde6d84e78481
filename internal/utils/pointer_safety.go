package utils

func Ptr[T any](v T) *T {
	return &v
}

// Assign copies *src into *dst when src is set and reports whether it did.
func Assign[T any](dst *T, src *T) bool {
	if src == nil || dst == nil {
		return false
	}
	*dst = *src
	return true
}
