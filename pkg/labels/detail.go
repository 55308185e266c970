package labels

import "fmt"

// Detail selects how much of each label List returns
type Detail int

const (
	// DetailFull returns complete label records
	DetailFull Detail = iota
	// DetailNameOnly returns only the label names
	DetailNameOnly
)

// String returns the policy name of the detail level
func (d Detail) String() string {
	switch d {
	case DetailFull:
		return "full"
	case DetailNameOnly:
		return "name_only"
	default:
		return fmt.Sprintf("Detail(%d)", int(d))
	}
}

// ParseDetail converts "full" or "name_only" into a Detail
func ParseDetail(s string) (Detail, error) {
	switch s {
	case "full":
		return DetailFull, nil
	case "name_only":
		return DetailNameOnly, nil
	default:
		return 0, fmt.Errorf("%w: detail %q, expected \"full\" or \"name_only\"", ErrInvalidArgument, s)
	}
}
