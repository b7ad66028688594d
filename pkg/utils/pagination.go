package utils

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// Page is a 1-based window over a listing such as a student's bookings or
// a wallet's transactions.
type Page struct {
	Number int
	Size   int
}

// NewPage clamps number to at least 1 and size to [1, MaxPageSize]; a size
// below 1 falls back to DefaultPageSize.
func NewPage(number, size int) Page {
	if number < 1 {
		number = 1
	}
	switch {
	case size < 1:
		size = DefaultPageSize
	case size > MaxPageSize:
		size = MaxPageSize
	}
	return Page{Number: number, Size: size}
}

func (p Page) Offset() int {
	return (p.Number - 1) * p.Size
}

// TotalPages is the number of size-sized pages needed for total rows.
func TotalPages(total int64, size int) int {
	if size <= 0 || total <= 0 {
		return 0
	}
	return int((total + int64(size) - 1) / int64(size))
}
