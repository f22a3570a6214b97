package validate

import "fmt"

// Photo upload limits.
const (
	MaxPhotoBytes  = 10 << 20 // hard limit
	warnPhotoBytes = 5 << 20  // above this, warn but accept
)

// allowedMimes is the photo mime allow-list.
var allowedMimes = map[string]struct{}{
	"image/jpeg": {},
	"image/png":  {},
	"image/webp": {},
}

// ValidatePhoto checks a candidate photo blob and its declared mime type.
func (v *Validator) ValidatePhoto(mime string, blob []byte) *Result {
	res := &Result{ReferenceErrors: []string{}, Warnings: []string{}}

	blobField := FieldResult{Field: "blob", Valid: true}
	switch size := int64(len(blob)); {
	case size == 0:
		blobField = FieldResult{Field: "blob", Valid: false, Error: "photo data is required"}
	case size > MaxPhotoBytes:
		blobField = FieldResult{Field: "blob", Valid: false,
			Error: fmt.Sprintf("photo exceeds %d MiB", MaxPhotoBytes>>20)}
	case size > warnPhotoBytes:
		blobField.Warning = fmt.Sprintf("photo is larger than %d MiB", warnPhotoBytes>>20)
	}
	res.add(blobField)

	mimeField := FieldResult{Field: "mime", Valid: true}
	if _, ok := allowedMimes[mime]; !ok {
		mimeField = FieldResult{Field: "mime", Valid: false,
			Error: fmt.Sprintf("unsupported mime type %q", mime)}
	}
	res.add(mimeField)

	res.Valid = blobField.Valid && mimeField.Valid
	return res
}

// AllowedMime reports whether mime is on the photo allow-list.
func AllowedMime(mime string) bool {
	_, ok := allowedMimes[mime]
	return ok
}
