package library

import (
	"encoding/json"
	"fmt"
	"time"
)

// FileType classifies a file for indexing purposes.
type FileType string

const (
	FileTypeRaw   FileType = "RAW"
	FileTypeJPEG  FileType = "JPEG"
	FileTypeOther FileType = "OTHER"
)

// Indexable reports whether files of this type become Photo records.
func (t FileType) Indexable() bool {
	return t == FileTypeRaw || t == FileTypeJPEG
}

// Photo is one indexed image file.
type Photo struct {
	ID         string    `json:"id"`
	FilePath   string    `json:"file_path"`
	FileName   string    `json:"file_name"`
	FileSize   int64     `json:"file_size"`
	FileType   FileType  `json:"file_type"`
	Format     string    `json:"format"`
	Thumbnail  *string   `json:"thumbnail"`
	Exif       ExifData  `json:"exif"`
	CreatedAt  time.Time `json:"created_at"`
	ModifiedAt time.Time `json:"modified_at"`
	PairedWith *string   `json:"paired_with"`
}

// ExifData is the capture metadata recovered from a file. Every field is
// independently optional; nil means the value could not be recovered.
type ExifData struct {
	CameraMake   *string    `json:"camera_make"`
	CameraModel  *string    `json:"camera_model"`
	LensModel    *string    `json:"lens_model"`
	FocalLength  *float64   `json:"focal_length"`
	Aperture     *float64   `json:"aperture"`
	ShutterSpeed *string    `json:"shutter_speed"`
	ISO          *uint32    `json:"iso"`
	ExposureMode *string    `json:"exposure_mode"`
	Flash        *string    `json:"flash"`
	WhiteBalance *string    `json:"white_balance"`
	DateTaken    *time.Time `json:"date_taken"`
	Width        *uint32    `json:"width"`
	Height       *uint32    `json:"height"`
	Orientation  *uint16    `json:"orientation"`
}

// IsEmpty reports whether no field was recovered.
func (e ExifData) IsEmpty() bool {
	return e == ExifData{}
}

// Clone returns a copy that shares no pointers with e.
func (e ExifData) Clone() ExifData {
	return ExifData{
		CameraMake:   clonePtr(e.CameraMake),
		CameraModel:  clonePtr(e.CameraModel),
		LensModel:    clonePtr(e.LensModel),
		FocalLength:  clonePtr(e.FocalLength),
		Aperture:     clonePtr(e.Aperture),
		ShutterSpeed: clonePtr(e.ShutterSpeed),
		ISO:          clonePtr(e.ISO),
		ExposureMode: clonePtr(e.ExposureMode),
		Flash:        clonePtr(e.Flash),
		WhiteBalance: clonePtr(e.WhiteBalance),
		DateTaken:    clonePtr(e.DateTaken),
		Width:        clonePtr(e.Width),
		Height:       clonePtr(e.Height),
		Orientation:  clonePtr(e.Orientation),
	}
}

// Clone returns a deep copy of p.
func (p Photo) Clone() Photo {
	c := p
	c.Thumbnail = clonePtr(p.Thumbnail)
	c.PairedWith = clonePtr(p.PairedWith)
	c.Exif = p.Exif.Clone()
	return c
}

// IsPaired reports whether p has a sibling.
func (p Photo) IsPaired() bool {
	return p.PairedWith != nil
}

func clonePtr[T any](v *T) *T {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T {
	return &v
}

// Bound is the set of types a Range may span.
type Bound interface {
	~float64 | ~uint32 | time.Time
}

// Range is an inclusive [Min, Max] interval. It is encoded in JSON as a
// two-element array.
type Range[T Bound] struct {
	Min T
	Max T
}

// MarshalJSON encodes r as [min, max].
func (r Range[T]) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]T{r.Min, r.Max})
}

// UnmarshalJSON decodes [min, max] and also accepts {"min":..,"max":..}.
func (r *Range[T]) UnmarshalJSON(data []byte) error {
	var pair []T
	if err := json.Unmarshal(data, &pair); err == nil {
		if len(pair) != 2 {
			return fmt.Errorf("range must have exactly 2 elements, got %d", len(pair))
		}
		r.Min, r.Max = pair[0], pair[1]
		return nil
	}

	var obj struct {
		Min *T `json:"min"`
		Max *T `json:"max"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("invalid range: %w", err)
	}
	if obj.Min == nil || obj.Max == nil {
		return fmt.Errorf("range requires both min and max")
	}
	r.Min, r.Max = *obj.Min, *obj.Max
	return nil
}

// PhotoFilter selects photos. Populated fields are ANDed together; a zero
// PhotoFilter matches everything.
type PhotoFilter struct {
	CameraMake       *string           `json:"camera_make,omitempty"`
	CameraModel      *string           `json:"camera_model,omitempty"`
	LensModel        *string           `json:"lens_model,omitempty"`
	FocalLengthRange *Range[float64]   `json:"focal_length_range,omitempty"`
	ApertureRange    *Range[float64]   `json:"aperture_range,omitempty"`
	ISORange         *Range[uint32]    `json:"iso_range,omitempty"`
	DateRange        *Range[time.Time] `json:"date_range,omitempty"`
	FileType         *string           `json:"file_type,omitempty"`
}

// IsEmpty reports whether no field of f is populated.
func (f PhotoFilter) IsEmpty() bool {
	return f == PhotoFilter{}
}

// PhotoStats is an aggregate over a set of photos.
type PhotoStats struct {
	TotalPhotos int            `json:"total_photos"`
	RawCount    int            `json:"raw_count"`
	JpegCount   int            `json:"jpeg_count"`
	PairedCount int            `json:"paired_count"`
	Cameras     map[string]int `json:"cameras"`
	Lenses      map[string]int `json:"lenses"`
}

// Phase marks the stage of a running scan.
type Phase string

const (
	PhaseDiscovering Phase = "discovering"
	PhaseExtracting  Phase = "extracting"
	PhasePairing     Phase = "pairing"
	PhaseComplete    Phase = "complete"
)

// ScanProgress is a point-in-time view of a running scan. Total grows while
// discovery is still walking the tree.
type ScanProgress struct {
	Current     int     `json:"current"`
	Total       int     `json:"total"`
	Percentage  float64 `json:"percentage"`
	CurrentFile *string `json:"current_file"`
	Phase       Phase   `json:"phase"`
}

// NewScanProgress builds a ScanProgress with Percentage derived from
// current and total.
func NewScanProgress(phase Phase, current, total int, currentFile string) ScanProgress {
	p := ScanProgress{
		Current: current,
		Total:   total,
		Phase:   phase,
	}
	if total > 0 {
		p.Percentage = float64(current) / float64(total) * 100
		if p.Percentage > 100 {
			p.Percentage = 100
		}
	}
	if currentFile != "" {
		p.CurrentFile = &currentFile
	}
	return p
}

// Outcome is how a scan ended. Cancelled is neither success nor failure.
type Outcome string

const (
	OutcomeCompleted Outcome = "completed"
	OutcomeCancelled Outcome = "cancelled"
	OutcomeFailed    Outcome = "failed"
)
